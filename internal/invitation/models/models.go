// Package models holds the invitation-lifecycle aggregates: the single-use
// Invitation token, the Delegation grant it activates, and the denormalized
// Profile projection.
package models

import (
	"time"

	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
)

// InvitationTTL is how long an issued token stays redeemable.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation is the single-use, time-limited token artifact bridging an
// issued Delegation to a created Principal.
//
// Invariants:
//   - ExpiresAt > IssuedAt
//   - ConsumedAt is set at most once; once set the token never grants a
//     second activation (enforced by the store's conditional consume)
type Invitation struct {
	ID         id.InvitationID `json:"id"`
	Token      string          `json:"-"`
	Email      string          `json:"email"`
	Role       id.Role         `json:"role"`
	TenantID   id.TenantID     `json:"tenant_id"`
	IssuedAt   time.Time       `json:"issued_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	ConsumedAt *time.Time      `json:"consumed_at,omitempty"`
}

// Expired reports whether the token is past its expiry at the given time.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Consumed reports whether the token was already redeemed.
func (i *Invitation) Consumed() bool {
	return i.ConsumedAt != nil
}

// NewInvitation validates invariants and constructs a pending invitation.
func NewInvitation(token, email string, role id.Role, tenantID id.TenantID, now time.Time) (*Invitation, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invitation token cannot be empty")
	}
	return &Invitation{
		ID:        id.NewInvitationID(),
		Token:     token,
		Email:     email,
		Role:      role,
		TenantID:  tenantID,
		IssuedAt:  now,
		ExpiresAt: now.Add(InvitationTTL),
	}, nil
}

// DelegationStatus is the lifecycle state of a grant.
type DelegationStatus string

const (
	DelegationInvited DelegationStatus = "invited"
	DelegationActive  DelegationStatus = "active"
	DelegationRevoked DelegationStatus = "revoked"
)

func (s DelegationStatus) Valid() bool {
	switch s {
	case DelegationInvited, DelegationActive, DelegationRevoked:
		return true
	}
	return false
}

// Delegation records a person's grant of a role within a tenant, independent
// of whether they have created login credentials yet.
//
// Invariants:
//   - Status == active  ⇒ PrincipalID != nil
//   - Status == invited ⇒ PrincipalID == nil
type Delegation struct {
	ID          id.DelegationID  `json:"id"`
	TenantID    id.TenantID      `json:"tenant_id"`
	Email       string           `json:"email"`
	Role        id.Role          `json:"role"`
	PrincipalID *id.PrincipalID  `json:"principal_id,omitempty"`
	Status      DelegationStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewDelegation constructs a pending grant awaiting redemption.
func NewDelegation(tenantID id.TenantID, email string, role id.Role, now time.Time) *Delegation {
	return &Delegation{
		ID:        id.NewDelegationID(),
		TenantID:  tenantID,
		Email:     email,
		Role:      role,
		Status:    DelegationInvited,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the status/principal invariant.
func (d *Delegation) Validate() error {
	if !d.Status.Valid() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "unknown delegation status %q", d.Status)
	}
	if d.Status == DelegationActive && d.PrincipalID == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "active delegation requires a principal")
	}
	if d.Status == DelegationInvited && d.PrincipalID != nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "invited delegation cannot have a principal")
	}
	return nil
}

// Profile is the denormalized display projection for a principal within a
// tenant. Derived, not authoritative: the directory may create a skeleton
// row out-of-band, so all writes are last-writer-wins upserts.
type Profile struct {
	PrincipalID id.PrincipalID `json:"principal_id"`
	TenantID    id.TenantID    `json:"tenant_id"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Role        id.Role        `json:"role"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
