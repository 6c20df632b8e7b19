//go:build integration

package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "atrium/pkg/platform/audit"
	auditpostgres "atrium/pkg/platform/audit/store/postgres"
	"atrium/pkg/testutil/containers"
)

type RelayIntegrationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redpanda *containers.RedpandaContainer
	store    *auditpostgres.Store
	producer *kgo.Client
}

func TestRelayIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelayIntegrationSuite))
}

func (s *RelayIntegrationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redpanda = mgr.GetRedpanda(s.T())
	s.store = auditpostgres.New(s.postgres.DB)

	s.producer = s.redpanda.NewClient(s.T())
	s.Require().NoError(EnsureTopic(context.Background(), s.producer, 1, 1))
}

func (s *RelayIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *RelayIntegrationSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_outbox"))
}

// consume reads n records from the audit topic, starting at the given offset
// epoch. A fresh consumer group per call keeps tests independent.
func (s *RelayIntegrationSuite) consume(n int, since time.Time) []*kgo.Record {
	consumer := s.redpanda.NewClient(s.T(),
		kgo.ConsumeTopics(Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AfterMilli(since.UnixMilli())),
	)
	defer consumer.Close()

	deadline := time.Now().Add(15 * time.Second)
	var records []*kgo.Record
	for len(records) < n && time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		fetches := consumer.PollFetches(ctx)
		cancel()
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}
	s.Require().Len(records, n, "expected %d records on %s", n, Topic)
	return records
}

func (s *RelayIntegrationSuite) TestRelaysOutboxToBroker() {
	ctx := context.Background()
	start := time.Now()

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Action:   string(audit.EventInvitationIssued),
		Email:    "jane@acme.test",
		Decision: "granted",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Action: string(audit.EventLoginSucceeded),
		Email:  "jane@acme.test",
	}))

	r := New(s.store, s.producer, slog.Default())
	s.Require().NoError(r.RelayOnce(ctx))

	records := s.consume(2, start)

	types := make(map[string]bool, len(records))
	for _, rec := range records {
		s.Equal(Topic, rec.Topic)
		s.Require().Len(rec.Headers, 1)
		types[string(rec.Headers[0].Value)] = true

		var event audit.Event
		s.Require().NoError(json.Unmarshal(rec.Value, &event))
		s.Equal("jane@acme.test", event.Email)
	}
	s.True(types[string(audit.EventInvitationIssued)])
	s.True(types[string(audit.EventLoginSucceeded)])

	pending, err := s.store.ListPending(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending, "relayed rows must be marked published")
}

func (s *RelayIntegrationSuite) TestRelayOnceIsIdempotentWhenEmpty() {
	ctx := context.Background()
	r := New(s.store, s.producer, slog.Default())
	s.Require().NoError(r.RelayOnce(ctx))
	s.Require().NoError(r.RelayOnce(ctx))
}

func (s *RelayIntegrationSuite) TestMarkPublishedSurvivesRestart() {
	ctx := context.Background()
	start := time.Now()

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Action: string(audit.EventAccessRevoked),
		Email:  "gone@acme.test",
	}))

	r := New(s.store, s.producer, slog.Default())
	s.Require().NoError(r.RelayOnce(ctx))

	// A second relay pass over the same outbox publishes nothing new.
	s.Require().NoError(r.RelayOnce(ctx))
	s.consume(1, start)
}
