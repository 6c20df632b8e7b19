// Package revocation keeps the principal revocation list.
//
// Access revocation deletes the principal row, which kills future logins;
// this list kills tokens that were minted before the revocation. Entries are
// keyed by principal ID and only need to outlive the longest-lived token, so
// every write carries a TTL.
package revocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

// List is the revocation list contract. Revoke is called by the access
// revoker; IsRevoked is on the hot path of every authenticated request.
type List interface {
	Revoke(ctx context.Context, principalID id.PrincipalID, ttl time.Duration) error
	IsRevoked(ctx context.Context, principalID id.PrincipalID) (bool, error)
}

// Revoker adapts a List to the single-argument shape the access revoker
// calls. Entries live as long as the longest-lived token plus slack, so a
// token minted the instant before revocation still dies.
type Revoker struct {
	list List
	ttl  time.Duration
}

func NewRevoker(list List, tokenTTL time.Duration) *Revoker {
	return &Revoker{list: list, ttl: tokenTTL + time.Minute}
}

func (r *Revoker) RevokePrincipal(ctx context.Context, principalID id.PrincipalID) error {
	return r.list.Revoke(ctx, principalID, r.ttl)
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// InMemory is a process-local list for tests and single-instance runs.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.PrincipalID]time.Time
	clock   func() time.Time
}

type InMemoryOption func(*InMemory)

// WithClock sets the clock function. Test hook.
func WithClock(clock func() time.Time) InMemoryOption {
	return func(l *InMemory) { l.clock = clock }
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	l := &InMemory{
		entries: make(map[id.PrincipalID]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *InMemory) Revoke(_ context.Context, principalID id.PrincipalID, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[principalID] = l.clock().Add(ttl)
	return nil
}

func (l *InMemory) IsRevoked(_ context.Context, principalID id.PrincipalID) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	expiresAt, exists := l.entries[principalID]
	if !exists {
		return false, nil
	}
	return l.clock().Before(expiresAt), nil
}
