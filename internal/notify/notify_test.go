package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "atrium/pkg/domain"
)

func TestRedemptionURL_PercentEncodesToken(t *testing.T) {
	got := RedemptionURL("https://app.example.com", "ab+c/d=e f")
	assert.Equal(t, "https://app.example.com/register?token=ab%2Bc%2Fd%3De+f", got)
}

func TestResendDispatcher_SendsRenderedInvite(t *testing.T) {
	var (
		gotAuth string
		payload resendPayload
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewResend("test-key", "Atrium <noreply@atrium.local>", "https://app.example.com",
		slog.New(slog.DiscardHandler), WithEndpoint(server.URL))

	err := d.SendInvite(context.Background(), InviteMessage{
		To:          "a@x.com",
		TenantName:  "Acme",
		Role:        id.RoleAdmin,
		InviterName: "Root Admin",
		Token:       "tok-123/abc",
		ExpiresDays: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, []string{"a@x.com"}, payload.To)
	assert.Contains(t, payload.Subject, "Acme")
	assert.Contains(t, payload.HTML, "register?token=tok-123%2Fabc")
	assert.Contains(t, payload.HTML, "an administrator")
	assert.Contains(t, payload.HTML, "Root Admin")
	assert.NotContains(t, payload.HTML, "tok-123/abc", "token must only appear percent-encoded")
}

func TestResendDispatcher_NonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	d := NewResend("test-key", "noreply@atrium.local", "https://app.example.com",
		slog.New(slog.DiscardHandler), WithEndpoint(server.URL))

	err := d.SendInvite(context.Background(), InviteMessage{To: "a@x.com", Role: id.RoleEmployee, Token: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestRecordingDispatcher(t *testing.T) {
	d := NewRecording()
	require.NoError(t, d.SendInvite(context.Background(), InviteMessage{To: "a@x.com", Token: "t1"}))
	require.NoError(t, d.SendInvite(context.Background(), InviteMessage{To: "b@x.com", Token: "t2"}))

	sent := d.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "a@x.com", sent[0].To)
}

func TestLoggingDispatcher_RedactsToken(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	d := NewLogging(logger)
	token := "supersecrettokenvalue-abcdef"
	err := d.SendInvite(context.Background(), InviteMessage{To: "a@x.com", Role: id.RoleEmployee, Token: token})
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), token)
	assert.Contains(t, buf.String(), "supers")
}
