// Package relay drains the audit outbox into Kafka. Kafka is the durable
// audit trail; the outbox row is only marked published once the broker has
// acknowledged the record, so a crash between the two repeats the publish
// rather than losing it (consumers must tolerate duplicates).
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"atrium/pkg/platform/audit/store/postgres"
)

// Topic is where audit events land. One partition per aggregate key keeps
// per-principal ordering.
const Topic = "atrium.audit.events"

const (
	defaultBatchSize    = 100
	defaultPollInterval = 2 * time.Second
)

// Outbox is the slice of the Postgres audit store the relay needs.
type Outbox interface {
	ListPending(ctx context.Context, limit int) ([]postgres.PendingEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error
}

// Producer is the slice of the Kafka client the relay needs. *kgo.Client
// satisfies it; tests substitute a fake.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Relay polls the outbox and publishes pending entries.
type Relay struct {
	outbox   Outbox
	producer Producer
	logger   *slog.Logger

	batchSize    int
	pollInterval time.Duration
}

// Option configures a Relay.
type Option func(*Relay)

// WithBatchSize caps how many outbox rows are published per poll.
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithPollInterval sets how often the outbox is polled when idle.
func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// New creates a relay over the given outbox and producer.
func New(outbox Outbox, producer Producer, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		outbox:       outbox,
		producer:     producer,
		logger:       logger,
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureTopic creates the audit topic if the broker does not have it yet.
// Call once at startup before Run.
func EnsureTopic(ctx context.Context, client *kgo.Client, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, partitions, replication, nil, Topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create audit topic %s: %w", Topic, resp.Err)
	}
	return nil
}

// Run polls until ctx is canceled. Publish failures are logged and retried on
// the next poll; the outbox keeps the events durable in the meantime.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.RelayOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "audit relay pass failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch of pending entries. Returns nil when the
// outbox is empty.
func (r *Relay) RelayOnce(ctx context.Context) error {
	entries, err := r.outbox.ListPending(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	records := make([]*kgo.Record, len(entries))
	for i, entry := range entries {
		records[i] = &kgo.Record{
			Topic: Topic,
			Key:   []byte(entry.AggregateType + ":" + entry.AggregateID),
			Value: entry.Payload,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(entry.EventType)},
			},
		}
	}

	results := r.producer.ProduceSync(ctx, records...)
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("produce audit batch: %w", err)
	}

	ids := make([]uuid.UUID, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	if err := r.outbox.MarkPublished(ctx, ids, time.Now()); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}

	r.logger.DebugContext(ctx, "audit batch relayed", "count", len(entries))
	return nil
}
