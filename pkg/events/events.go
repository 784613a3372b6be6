// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/JaimeStill/merit/pkg/lifecycle"
)

// Event is a keyed domain event. Key selects the partition so events for the
// same aggregate stay ordered.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Start(lc *lifecycle.Coordinator) error
}

// New returns a Kafka publisher, or a Noop publisher when no brokers are configured.
func New(cfg *Config, logger *slog.Logger) Publisher {
	if !cfg.Enabled() {
		return Noop{}
	}

	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: cfg.BatchTimeoutDuration(),
			WriteTimeout: cfg.WriteTimeoutDuration(),
		},
		logger: logger.With("system", "events"),
	}
}

type kafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func (p *kafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", e.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.Key),
			Value: body,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(e.Type)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d events: %w", len(msgs), err)
	}
	return nil
}

func (p *kafkaPublisher) Start(lc *lifecycle.Coordinator) error {
	p.logger.Info("event publisher configured", "topic", p.writer.Topic)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := p.writer.Close(); err != nil {
			p.logger.Error("event publisher close failed", "error", err)
			return
		}
		p.logger.Info("event publisher closed")
	})
	return nil
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, ...Event) error { return nil }

func (Noop) Start(*lifecycle.Coordinator) error { return nil }
