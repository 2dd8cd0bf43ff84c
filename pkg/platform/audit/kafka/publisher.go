// Package kafka forwards committed audit events to a Kafka topic.
//
// The topic is an observability feed for external consumers (SIEM, analytics);
// the registry's correctness never depends on it, so publish failures are
// surfaced to the worker and logged rather than retried here.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "attestry/pkg/platform/audit"
)

// Publisher implements audit.Sink on top of a franz-go client.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// New dials the brokers and returns a Publisher for the topic.
func New(brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Publish produces one record per event, keyed by subject so per-identity
// ordering is preserved within a partition.
func (p *Publisher) Publish(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(event.Subject),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
