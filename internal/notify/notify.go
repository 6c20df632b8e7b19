// Package notify sends invitation email. Delivery is best-effort by
// contract: the issuing call already persisted the grant, so a failed send
// is a warning, never a failure of issuance.
package notify

import (
	"context"
	"net/url"

	id "atrium/pkg/domain"
)

// InviteMessage carries everything the invitation template needs.
type InviteMessage struct {
	To          string
	TenantName  string
	Role        id.Role
	InviterName string
	Token       string
	ExpiresDays int
}

// Dispatcher delivers invitation messages.
type Dispatcher interface {
	SendInvite(ctx context.Context, msg InviteMessage) error
}

// RedemptionURL builds the registration link embedded in the email. The
// token rides as a single percent-encoded query parameter.
func RedemptionURL(baseURL, token string) string {
	query := url.Values{}
	query.Set("token", token)
	return baseURL + "/register?" + query.Encode()
}
