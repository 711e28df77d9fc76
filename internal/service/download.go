package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"crew_migrator/internal/config"
	"crew_migrator/internal/domain"
	"crew_migrator/internal/progress"
)

// DownloadService fetches every asset the scrape references into the local
// source directories the migrator reads from. It runs pre-match, so progress
// keys are slug-based.
type DownloadService struct {
	source     Source
	downloader Downloader
	ledger     Ledger
	reporter   Reporter
	paths      config.PathsConfig
	delay      time.Duration
	logger     *slog.Logger
}

func NewDownloadService(
	source Source,
	downloader Downloader,
	ledger Ledger,
	reporter Reporter,
	paths config.PathsConfig,
	delay time.Duration,
	logger *slog.Logger,
) *DownloadService {
	return &DownloadService{
		source:     source,
		downloader: downloader,
		ledger:     ledger,
		reporter:   reporter,
		paths:      paths,
		delay:      delay,
		logger:     logger,
	}
}

// Download runs one pass over the scraped records. Per-asset failures are
// recorded and skipped; only an unreadable input file aborts the run.
func (s *DownloadService) Download(ctx context.Context) (*domain.DownloadStats, error) {
	startTime := time.Now()
	s.logger.Info("starting download", "source", s.source.Name())

	records, err := s.source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scraped records: %w", err)
	}

	stats := &domain.DownloadStats{Records: len(records)}

	for i := range records {
		rec := &records[i]
		for _, t := range domain.AssetTypes {
			rawURL := assetURL(rec, t)
			if rawURL == "" {
				continue
			}

			key := progress.SlugKey(rec.Slug, string(t))
			if s.ledger.Done(key) {
				stats.Skipped++
				continue
			}

			if err := s.downloadAsset(ctx, rec.Slug, t, rawURL); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return stats, err
				}
				stats.Errors++
				s.logger.Warn("download failed",
					"slug", rec.Slug,
					"type", t,
					"url", rawURL,
					"error", err,
				)
				if lerr := s.ledger.RecordError(domain.MigrationError{
					Freelancer: rec.Slug,
					Type:       string(t),
					Reason:     "asset not downloaded",
					Err:        err.Error(),
				}); lerr != nil {
					s.logger.Error("failed to persist error", "error", lerr)
				}
				continue
			}

			stats.Downloaded++
			if err := s.ledger.MarkDone(key, i); err != nil {
				return stats, fmt.Errorf("persist progress: %w", err)
			}

			if s.delay > 0 {
				select {
				case <-ctx.Done():
					return stats, ctx.Err()
				case <-time.After(s.delay):
				}
			}
		}
	}

	if err := s.reporter.WriteErrors("download_errors.json", s.ledger.Errors()); err != nil {
		return stats, fmt.Errorf("write errors report: %w", err)
	}

	if stats.Errors == 0 {
		if err := s.ledger.Clear(); err != nil {
			return stats, fmt.Errorf("clear progress: %w", err)
		}
	}

	stats.Duration = time.Since(startTime)
	s.logger.Info("download completed",
		"records", stats.Records,
		"downloaded", stats.Downloaded,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *DownloadService) downloadAsset(ctx context.Context, slug string, t domain.AssetType, rawURL string) error {
	ext, err := extensionFromURL(rawURL)
	if err != nil {
		return err
	}

	dest := filepath.Join(s.paths.SourceDir(t), slug+ext)
	downloaded, err := s.downloader.Download(ctx, rawURL, dest)
	if err != nil {
		return err
	}
	if !downloaded {
		s.logger.Debug("already downloaded", "slug", slug, "type", t)
	}
	return nil
}

func assetURL(rec *domain.ScrapedRecord, t domain.AssetType) string {
	var u *string
	switch t {
	case domain.AssetPhoto:
		u = rec.ImageURL
	case domain.AssetCV:
		u = rec.CVURL
	case domain.AssetEquipment:
		u = rec.EquipmentURL
	}
	if u == nil {
		return ""
	}
	return *u
}

func extensionFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse asset url: %w", err)
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return "", fmt.Errorf("asset url %q has no file extension", rawURL)
	}
	return ext, nil
}
