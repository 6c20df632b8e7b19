package audit

import "context"

// Store persists audit events. Implementations: in-memory (tests, dev) and
// PostgreSQL outbox (production, drained to Kafka by the relay).
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is the optional query side, implemented by stores that keep events
// locally queryable.
type Reader interface {
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
