package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"crew_migrator/internal/domain"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Blob      BlobConfig      `yaml:"blob"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Paths     PathsConfig     `yaml:"paths"`
	Retry     RetryConfig     `yaml:"retry"`
	Download  DownloadConfig  `yaml:"download"`
	Migration MigrationConfig `yaml:"migration"`
	LogLevel  string          `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		RawQuery: url.Values{"database": {d.DBName}}.Encode(),
	}
	return u.String()
}

// BlobConfig points at the Azure blob container. The SAS token is a
// pre-issued query string without the leading "?".
type BlobConfig struct {
	BaseURL  string        `yaml:"base_url"`
	SASToken string        `yaml:"sas_token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RabbitMQConfig is optional: an empty URL disables event publishing.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type PathsConfig struct {
	ScrapedJSON  string `yaml:"scraped_json"`
	PhotosDir    string `yaml:"photos_dir"`
	CVsDir       string `yaml:"cvs_dir"`
	EquipmentDir string `yaml:"equipment_dir"`
	OutputDir    string `yaml:"output_dir"`
	ReportDir    string `yaml:"report_dir"`
}

// SourceDir returns the local directory holding source files for an asset
// type (filled by cmd/downloader, or staged by hand).
func (p PathsConfig) SourceDir(t domain.AssetType) string {
	switch t {
	case domain.AssetCV:
		return p.CVsDir
	case domain.AssetEquipment:
		return p.EquipmentDir
	default:
		return p.PhotosDir
	}
}

func (p PathsConfig) ProgressFile() string {
	return filepath.Join(p.ReportDir, "migration_progress.json")
}

func (p PathsConfig) DownloadProgressFile() string {
	return filepath.Join(p.ReportDir, "download_progress.json")
}

// RetryConfig is the single retry policy shared by every network client
// (asset downloads and blob uploads).
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// DownloadConfig tunes asset fetches from the legacy site.
type DownloadConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type MigrationConfig struct {
	DelayBetweenRecords time.Duration `yaml:"delay_between_records"`
	AcceptAmbiguous     bool          `yaml:"accept_ambiguous"`
	Timeout             time.Duration `yaml:"timeout"` // 0 means no overall deadline
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Database.Port == 0 {
		c.Database.Port = 1433
	}
	if c.Blob.Timeout == 0 {
		c.Blob.Timeout = 60 * time.Second
	}
	if c.RabbitMQ.URL != "" {
		if c.RabbitMQ.Exchange == "" {
			c.RabbitMQ.Exchange = "crew_migrator"
		}
		if c.RabbitMQ.RoutingKey == "" {
			c.RabbitMQ.RoutingKey = "profiles"
		}
		if c.RabbitMQ.QueueName == "" {
			c.RabbitMQ.QueueName = "site_profiles"
		}
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = "renamed"
	}
	if c.Paths.ReportDir == "" {
		c.Paths.ReportDir = "reports"
	}
	if c.Download.Timeout == 0 {
		c.Download.Timeout = 60 * time.Second
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialBackoff == 0 {
		c.Retry.InitialBackoff = 1 * time.Second
	}
	if c.Retry.MaxBackoff == 0 {
		c.Retry.MaxBackoff = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
