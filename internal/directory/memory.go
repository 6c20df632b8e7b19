package directory

import (
	"context"
	"sync"
	"time"

	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/email"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/secrets"
)

// InMemoryDirectory keeps principals in memory for tests and development.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	byID     map[id.PrincipalID]*Principal
	byEmail  map[string]id.PrincipalID
	failures failureConfig
}

type failureConfig struct {
	createErr error
	deleteErr error
}

// NewInMemory creates an empty in-memory directory.
func NewInMemory() *InMemoryDirectory {
	return &InMemoryDirectory{
		byID:    make(map[id.PrincipalID]*Principal),
		byEmail: make(map[string]id.PrincipalID),
	}
}

// FailCreateWith forces Create to return err. Test hook.
func (d *InMemoryDirectory) FailCreateWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures.createErr = err
}

// FailDeleteWith forces Delete to return err. Test hook.
func (d *InMemoryDirectory) FailDeleteWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures.deleteErr = err
}

func (d *InMemoryDirectory) Create(_ context.Context, address, credential string) (id.PrincipalID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failures.createErr != nil {
		return id.PrincipalID{}, d.failures.createErr
	}

	address = email.Normalize(address)
	if _, exists := d.byEmail[address]; exists {
		return id.PrincipalID{}, sentinel.ErrConflict
	}

	hash, err := secrets.HashCredential(credential)
	if err != nil {
		return id.PrincipalID{}, err
	}

	principalID := id.NewPrincipalID()
	d.byID[principalID] = &Principal{
		ID:           principalID,
		Email:        address,
		passwordHash: hash,
		CreatedAt:    time.Now(),
	}
	d.byEmail[address] = principalID
	return principalID, nil
}

func (d *InMemoryDirectory) Delete(_ context.Context, principalID id.PrincipalID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failures.deleteErr != nil {
		return d.failures.deleteErr
	}

	principal, exists := d.byID[principalID]
	if !exists {
		return sentinel.ErrNotFound
	}
	delete(d.byEmail, principal.Email)
	delete(d.byID, principalID)
	return nil
}

func (d *InMemoryDirectory) Authenticate(_ context.Context, address, credential string) (*Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	principalID, exists := d.byEmail[email.Normalize(address)]
	if !exists {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	principal := d.byID[principalID]
	if err := secrets.VerifyCredential(credential, principal.passwordHash); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	copied := *principal
	return &copied, nil
}

func (d *InMemoryDirectory) FindByEmail(_ context.Context, address string) (*Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	principalID, exists := d.byEmail[email.Normalize(address)]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := *d.byID[principalID]
	return &copied, nil
}

func (d *InMemoryDirectory) FindByID(_ context.Context, principalID id.PrincipalID) (*Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	principal, exists := d.byID[principalID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := *principal
	return &copied, nil
}
