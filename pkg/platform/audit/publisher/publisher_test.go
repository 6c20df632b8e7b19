package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "atrium/pkg/domain"
	audit "atrium/pkg/platform/audit"
	"atrium/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	principalID := id.PrincipalID(uuid.New())
	err := pub.Emit(context.Background(), audit.Event{
		PrincipalID: principalID,
		Action:      string(audit.EventPrincipalCreated),
	})
	require.NoError(t, err)

	events, err := store.ListByPrincipal(context.Background(), principalID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventPrincipalCreated), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	principalID := id.PrincipalID(uuid.New())
	err := pub.Emit(context.Background(), audit.Event{
		PrincipalID: principalID,
		Action:      string(audit.EventAccessRevoked),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		events, err := store.ListByPrincipal(context.Background(), principalID)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	principalID := id.PrincipalID(uuid.New())
	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			PrincipalID: principalID,
			Action:      string(audit.EventInvitationIssued),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByPrincipal(context.Background(), principalID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsInsteadOfBlocking(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.Emit(context.Background(), audit.Event{
				Action: string(audit.EventLoginSucceeded),
			})
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}
}

func TestPublisher_SetsTimestampAndCategory(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Action: string(audit.EventLoginFailed),
	})
	require.NoError(t, err)

	events, err := store.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}
