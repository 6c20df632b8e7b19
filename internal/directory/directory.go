// Package directory is the authentication-principal store. It owns login
// identities and their credential hashes; everything else in the system holds
// only principal IDs. Deleting a principal here is what actually blocks
// future login.
package directory

import (
	"context"
	"time"

	id "atrium/pkg/domain"
)

// Principal is a login-capable identity. Credential material never leaves
// this package as anything but a bcrypt hash.
type Principal struct {
	ID           id.PrincipalID
	Email        string
	passwordHash string
	CreatedAt    time.Time
}

// Directory creates, deletes, and authenticates principals. Implementations
// return sentinel errors; callers translate to domain errors.
type Directory interface {
	// Create registers a new principal with the given credential.
	// Returns sentinel.ErrConflict when the email is already registered.
	Create(ctx context.Context, email, credential string) (id.PrincipalID, error)

	// Delete removes a principal. Effective immediately: a deleted principal
	// fails Authenticate on the next call. Returns sentinel.ErrNotFound when
	// the principal does not exist.
	Delete(ctx context.Context, principalID id.PrincipalID) error

	// Authenticate verifies email and credential, returning the principal on
	// success. Unknown email and wrong credential are both reported as
	// CodeUnauthorized so callers cannot probe for registered addresses.
	Authenticate(ctx context.Context, email, credential string) (*Principal, error)

	// FindByEmail returns the principal registered under email, or
	// sentinel.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*Principal, error)

	// FindByID returns the principal by ID, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, principalID id.PrincipalID) (*Principal, error)
}
