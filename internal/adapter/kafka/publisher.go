// Package kafka publishes changed region snapshots to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/config"
	"github.com/couchcryptid/casualty-tracker/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Update is the message body published when a region's latest report changes.
type Update struct {
	Region      domain.Region `json:"region"`
	Fingerprint string        `json:"fingerprint"`
	Record      domain.Record `json:"record"`
	PublishedAt time.Time     `json:"published_at"`
}

// messageWriter is the subset of *kafkago.Writer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces Update messages keyed by region.
// It implements loader.Publisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher creates a Kafka producer for the configured update topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger, now: time.Now}
}

// PublishLatest publishes rec as the newest report for region.
func (p *Publisher) PublishLatest(ctx context.Context, region domain.Region, rec domain.Record) error {
	msg, err := serializeToMessage(Update{
		Region:      region,
		Fingerprint: domain.Fingerprint(domain.Series{rec}, region),
		Record:      rec,
		PublishedAt: p.now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s update: %w", region, err)
	}
	p.logger.Debug("update published", "region", region, "date", rec.Date)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an Update into a Kafka message keyed by region
// so every update for a region lands on the same partition.
func serializeToMessage(u Update) (kafkago.Message, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize update: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(u.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "report_date", Value: []byte(u.Record.Date)},
			{Key: "published_at", Value: []byte(u.PublishedAt.Format(time.RFC3339))},
		},
	}, nil
}
