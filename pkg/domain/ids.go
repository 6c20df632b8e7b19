// Package domain holds the typed identifiers shared across modules.
//
// IDs are distinct named types over uuid.UUID so a DelegationID can never be
// passed where a PrincipalID is expected. Parsing enforces the trust-boundary
// invariant that IDs are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "atrium/pkg/domain-errors"
)

type (
	// TenantID identifies a tenant organization.
	TenantID uuid.UUID
	// DelegationID identifies a role grant within a tenant.
	DelegationID uuid.UUID
	// InvitationID identifies a single-use invitation token record.
	InvitationID uuid.UUID
	// PrincipalID identifies a login-capable authentication identity.
	PrincipalID uuid.UUID
	// RoomID identifies a room owned by a tenant.
	RoomID uuid.UUID
)

func (id TenantID) String() string     { return uuid.UUID(id).String() }
func (id DelegationID) String() string { return uuid.UUID(id).String() }
func (id InvitationID) String() string { return uuid.UUID(id).String() }
func (id PrincipalID) String() string  { return uuid.UUID(id).String() }
func (id RoomID) String() string       { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DelegationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id InvitationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PrincipalID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id RoomID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// NewTenantID returns a fresh random tenant ID.
func NewTenantID() TenantID { return TenantID(uuid.New()) }

// NewDelegationID returns a fresh random delegation ID.
func NewDelegationID() DelegationID { return DelegationID(uuid.New()) }

// NewInvitationID returns a fresh random invitation ID.
func NewInvitationID() InvitationID { return InvitationID(uuid.New()) }

// NewPrincipalID returns a fresh random principal ID.
func NewPrincipalID() PrincipalID { return PrincipalID(uuid.New()) }

// NewRoomID returns a fresh random room ID.
func NewRoomID() RoomID { return RoomID(uuid.New()) }

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseTenantID parses and validates a tenant ID from its string form.
func ParseTenantID(raw string) (TenantID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(parsed), nil
}

// ParseDelegationID parses and validates a delegation ID from its string form.
func ParseDelegationID(raw string) (DelegationID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return DelegationID{}, err
	}
	return DelegationID(parsed), nil
}

// ParseInvitationID parses and validates an invitation ID from its string form.
func ParseInvitationID(raw string) (InvitationID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return InvitationID{}, err
	}
	return InvitationID(parsed), nil
}

// ParsePrincipalID parses and validates a principal ID from its string form.
func ParsePrincipalID(raw string) (PrincipalID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return PrincipalID{}, err
	}
	return PrincipalID(parsed), nil
}

// ParseRoomID parses and validates a room ID from its string form.
func ParseRoomID(raw string) (RoomID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return RoomID{}, err
	}
	return RoomID(parsed), nil
}
