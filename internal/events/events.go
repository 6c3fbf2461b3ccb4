// Package events announces newly ingested transactions so the pricing
// collaborator can fill in USD values without rescanning storage.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Ingested is the payload published for each newly stored transaction.
type Ingested struct {
	StorageKey string `json:"storageKey"`
	Namespace  string `json:"namespace"`
	IngestedAt int64  `json:"ingestedAt"` // Seconds since epoch
}

// Publisher announces ingested transactions.
type Publisher interface {
	PublishIngested(ctx context.Context, namespace string, keys []string) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// PublishIngested implements Publisher.
func (NopPublisher) PublishIngested(context.Context, string, []string) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher writes one message per storage key. Messages are keyed by
// storage key so redeliveries of the same transaction land on one partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	now    func() time.Time
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		now: time.Now,
	}
}

// PublishIngested implements Publisher.
func (p *KafkaPublisher) PublishIngested(ctx context.Context, namespace string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	msgs, err := buildMessages(namespace, keys, p.now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	return nil
}

// Close implements Publisher.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func buildMessages(namespace string, keys []string, now time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, len(keys))
	for i, key := range keys {
		value, err := json.Marshal(Ingested{
			StorageKey: key,
			Namespace:  namespace,
			IngestedAt: now.Unix(),
		})
		if err != nil {
			return nil, fmt.Errorf("marshal event: %w", err)
		}
		msgs[i] = kafka.Message{
			Key:   []byte(key),
			Value: value,
			Time:  now,
		}
	}
	return msgs, nil
}
