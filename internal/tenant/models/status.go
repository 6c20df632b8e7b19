package models

// TenantStatus is the tenant lifecycle state.
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

func (s TenantStatus) Valid() bool {
	return s == TenantStatusActive || s == TenantStatusInactive
}

// CanTransitionTo reports whether the transition is allowed. The only legal
// moves are active ↔ inactive.
func (s TenantStatus) CanTransitionTo(target TenantStatus) bool {
	return s.Valid() && target.Valid() && s != target
}
