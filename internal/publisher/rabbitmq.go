package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"crew_migrator/internal/domain"
)

// RabbitMQ announces migrated profiles so downstream consumers (site cache,
// CMS) can re-render them. Publishing is optional: the migrator runs fine
// without a broker configured.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

// ProfileMigratedMessage is the wire shape consumers receive per migrated
// freelancer.
type ProfileMigratedMessage struct {
	Action       string    `json:"action"` // always "migrated"
	FreelancerID int64     `json:"freelancer_id"`
	Slug         string    `json:"slug"`
	DisplayName  string    `json:"display_name"`
	PhotoBlobID  *string   `json:"photo_blob_id,omitempty"`
	CVBlobID     *string   `json:"cv_blob_id,omitempty"`
	EquipBlobID  *string   `json:"equipment_blob_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func (r *RabbitMQ) Publish(ctx context.Context, record *domain.MatchedRecord, assets []domain.BlobAsset) error {
	msg := ProfileMigratedMessage{
		Action:       "migrated",
		FreelancerID: record.Canonical.FreelancerID,
		Slug:         record.Scraped.Slug,
		DisplayName:  record.Scraped.Name,
		Timestamp:    time.Now().UTC(),
	}
	for i := range assets {
		a := &assets[i]
		switch a.Type {
		case domain.AssetPhoto:
			msg.PhotoBlobID = &a.BlobID
		case domain.AssetCV:
			msg.CVBlobID = &a.BlobID
		case domain.AssetEquipment:
			msg.EquipBlobID = &a.BlobID
		}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published profile",
		"freelancer_id", msg.FreelancerID,
		"slug", msg.Slug,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
