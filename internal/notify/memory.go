package notify

import (
	"context"
	"log/slog"
	"sync"

	"atrium/pkg/platform/sentinel"
	"atrium/pkg/secrets"
)

// RecordingDispatcher captures sent invitations. For tests and for
// development runs without a Resend key.
type RecordingDispatcher struct {
	mu   sync.Mutex
	sent []InviteMessage
}

func NewRecording() *RecordingDispatcher {
	return &RecordingDispatcher{}
}

func (d *RecordingDispatcher) SendInvite(_ context.Context, msg InviteMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return nil
}

// Sent returns a copy of everything dispatched so far.
func (d *RecordingDispatcher) Sent() []InviteMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]InviteMessage{}, d.sent...)
}

// FailingDispatcher always fails. Exercises the issuance tolerance contract.
type FailingDispatcher struct{}

func NewFailing() *FailingDispatcher {
	return &FailingDispatcher{}
}

func (d *FailingDispatcher) SendInvite(context.Context, InviteMessage) error {
	return sentinel.ErrUnavailable
}

// LoggingDispatcher logs instead of sending, with the token redacted. The
// default when no email provider is configured.
type LoggingDispatcher struct {
	logger *slog.Logger
}

func NewLogging(logger *slog.Logger) *LoggingDispatcher {
	return &LoggingDispatcher{logger: logger}
}

func (d *LoggingDispatcher) SendInvite(ctx context.Context, msg InviteMessage) error {
	d.logger.InfoContext(ctx, "invitation email suppressed (no provider configured)",
		"to", msg.To,
		"tenant", msg.TenantName,
		"role", msg.Role.String(),
		"token", secrets.RedactToken(msg.Token),
	)
	return nil
}
