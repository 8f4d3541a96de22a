// Package stream vectorizes documents arriving on a Kafka topic and
// publishes the vectors to another.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/resilience"
)

// DocumentEvent is consumed from the documents topic. An empty ID falls back
// to the message key.
type DocumentEvent struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// VectorEvent is published to the vectors topic, keyed by ID. Model is the
// checksum namespace of the model that produced Vector.
type VectorEvent struct {
	ID     string    `json:"id"`
	Model  string    `json:"model"`
	Vector []float32 `json:"vector"`
}

type Publisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

type Transformer interface {
	TransformContext(ctx context.Context, docs []string) ([][]float32, error)
}

type Processor struct {
	model     Transformer
	publisher Publisher
	modelID   string
	retry     resilience.RetryConfig
	breaker   *resilience.CircuitBreaker
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewProcessor wires a model to a publisher. m may be nil.
func NewProcessor(model Transformer, publisher Publisher, modelID string, retry resilience.RetryConfig, m *metrics.Metrics) *Processor {
	return &Processor{
		model:     model,
		publisher: publisher,
		modelID:   modelID,
		retry:     retry,
		breaker:   resilience.NewCircuitBreaker("vector-publisher", resilience.BreakerConfig{}),
		metrics:   m,
		logger:    slog.Default().With("component", "stream-processor"),
	}
}

// Handle satisfies kafka.MessageHandler. Undecodable messages are skipped so
// the consumer commits past them; transform and publish failures are
// returned so the message is redelivered.
func (p *Processor) Handle(ctx context.Context, key, value []byte) error {
	doc, err := kafka.DecodeJSON[DocumentEvent](value)
	if err != nil {
		p.logger.Warn("skipping undecodable document", "key", string(key), "error", err)
		p.count("skipped")
		return nil
	}
	if doc.ID == "" {
		doc.ID = string(key)
	}

	vectors, err := p.model.TransformContext(ctx, []string{doc.Text})
	if err != nil {
		p.count("error")
		return fmt.Errorf("vectorizing document %s: %w", doc.ID, err)
	}

	event := kafka.Event{
		Key:   doc.ID,
		Value: VectorEvent{ID: doc.ID, Model: p.modelID, Vector: vectors[0]},
	}
	err = resilience.Retry(ctx, "publish-vector", p.retry, func() error {
		return p.breaker.Execute(func() error {
			return p.publisher.Publish(ctx, event)
		})
	})
	if err != nil {
		p.count("error")
		return fmt.Errorf("publishing vector for %s: %w", doc.ID, err)
	}

	p.logger.Debug("document vectorized", "id", doc.ID)
	p.count("ok")
	return nil
}

func (p *Processor) count(status string) {
	if p.metrics != nil {
		p.metrics.StreamMessagesTotal.WithLabelValues(status).Inc()
	}
}
