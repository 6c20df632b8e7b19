package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	id "atrium/pkg/domain"
	"atrium/pkg/secrets"
)

const resendEndpoint = "https://api.resend.com/emails"

var inviteTemplate = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #1a1a2e;">
    <h2>You have been invited to {{.TenantName}}</h2>
    <p>{{if .InviterName}}{{.InviterName}} has invited you{{else}}You have been invited{{end}}
       to join <strong>{{.TenantName}}</strong> as {{.RoleLabel}}.</p>
    <p>
      <a href="{{.RedemptionURL}}"
         style="background: #3b5bdb; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 4px;">
        Accept invitation
      </a>
    </p>
    <p>This invitation expires in {{.ExpiresDays}} days. If you did not expect it, ignore this email.</p>
  </body>
</html>
`))

type inviteTemplateData struct {
	TenantName    string
	InviterName   string
	RoleLabel     string
	RedemptionURL string
	ExpiresDays   int
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// ResendDispatcher delivers invitations through the Resend REST API.
type ResendDispatcher struct {
	apiKey   string
	from     string
	baseURL  string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// ResendOption configures a ResendDispatcher.
type ResendOption func(*ResendDispatcher)

// WithHTTPClient overrides the HTTP client, mainly for timeouts.
func WithHTTPClient(client *http.Client) ResendOption {
	return func(d *ResendDispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithEndpoint overrides the API endpoint. Test hook.
func WithEndpoint(endpoint string) ResendOption {
	return func(d *ResendDispatcher) {
		if endpoint != "" {
			d.endpoint = endpoint
		}
	}
}

// NewResend creates a Resend-backed dispatcher. baseURL is the public
// application URL used to build redemption links.
func NewResend(apiKey, from, baseURL string, logger *slog.Logger, opts ...ResendOption) *ResendDispatcher {
	d := &ResendDispatcher{
		apiKey:   apiKey,
		from:     from,
		baseURL:  baseURL,
		endpoint: resendEndpoint,
		client:   http.DefaultClient,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SendInvite renders the invitation template and posts it to Resend. The
// token only ever appears inside the rendered link; logs carry a redacted
// prefix.
func (d *ResendDispatcher) SendInvite(ctx context.Context, msg InviteMessage) error {
	var body bytes.Buffer
	err := inviteTemplate.Execute(&body, inviteTemplateData{
		TenantName:    msg.TenantName,
		InviterName:   msg.InviterName,
		RoleLabel:     roleLabel(msg.Role),
		RedemptionURL: RedemptionURL(d.baseURL, msg.Token),
		ExpiresDays:   msg.ExpiresDays,
	})
	if err != nil {
		return fmt.Errorf("render invite template: %w", err)
	}

	payload, err := json.Marshal(resendPayload{
		From:    d.from,
		To:      []string{msg.To},
		Subject: fmt.Sprintf("Invitation to join %s", msg.TenantName),
		HTML:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send invite email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend returned status %d", resp.StatusCode)
	}

	d.logger.InfoContext(ctx, "invitation email sent",
		"to", msg.To,
		"tenant", msg.TenantName,
		"token", secrets.RedactToken(msg.Token),
	)
	return nil
}

func roleLabel(role id.Role) string {
	switch role {
	case id.RoleAdmin:
		return "an administrator"
	case id.RoleEmployee:
		return "an employee"
	default:
		return "a member"
	}
}
