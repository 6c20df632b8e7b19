// Package publisher decouples audit emission from persistence. Domain
// services emit; the publisher forwards to the configured store either
// synchronously or through a bounded buffer.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "atrium/pkg/platform/audit"
)

// Publisher forwards audit events to a store. Synchronous by default;
// WithAsyncBuffer switches to a buffered goroutine that drops (and counts)
// events when the buffer is full rather than blocking the request path.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox  chan audit.Event
	done   chan struct{}
	closed sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan audit.Event, size)
		}
	}
}

// WithLogger sets the logger for drop and append failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher creates a publisher over the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

// Emit records an event, deriving category from its action and stamping the
// timestamp when unset. In async mode a full buffer drops the event; audit
// emission never blocks or fails a domain operation.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit append failed", "action", event.Action, "error", err)
			return err
		}
		return nil
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, event dropped", "action", event.Action)
	}
	return nil
}

func (p *Publisher) drain() {
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err)
		}
	}
	close(p.done)
}

// Close drains the async buffer. Safe to call more than once.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			<-p.done
		}
	})
}
