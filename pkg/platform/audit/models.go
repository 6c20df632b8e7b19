// Package audit captures the security- and compliance-relevant actions of the
// credential lifecycle as structured events.
package audit

import (
	"time"

	id "atrium/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This drives
// retention policy and routing in downstream consumers.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: account
	// creation and deletion, access grants and revocations. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to monitoring and forensics:
	// failed logins, revoked-principal access attempts, failed principal
	// deletions (an active security gap).
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine visibility: invitations issued,
	// emails dispatched, logins. Can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic. Transport-agnostic so stores and the
// Kafka relay can fan out.
type Event struct {
	Category    EventCategory
	Timestamp   time.Time
	PrincipalID id.PrincipalID
	TenantID    id.TenantID
	Subject     string
	Action      string
	Decision    string
	Reason      string
	// Email is recorded for invitation events where no principal exists yet.
	Email     string
	RequestID string
	// ActorID is who performed the action when different from the subject
	// (an operator issuing or revoking on someone's behalf).
	ActorID string
	// Device and IP enrich login events for forensics.
	Device string
	IP     string
}

// AuditEvent names every action the system records.
type AuditEvent string

const (
	// Invitation lifecycle
	EventInvitationIssued      AuditEvent = "invitation_issued"
	EventInvitationEmailFailed AuditEvent = "invitation_email_failed"
	EventInvitationRedeemed    AuditEvent = "invitation_redeemed"
	EventRedemptionFailed      AuditEvent = "redemption_failed"
	EventAccessRevoked         AuditEvent = "access_revoked"
	EventPrincipalCreated      AuditEvent = "principal_created"
	EventPrincipalDeleteFailed AuditEvent = "principal_delete_failed"

	// Authentication
	EventLoginSucceeded AuditEvent = "login_succeeded"
	EventLoginFailed    AuditEvent = "login_failed"

	// Tenant lifecycle
	EventTenantCreated     AuditEvent = "tenant_created"
	EventTenantUpdated     AuditEvent = "tenant_updated"
	EventTenantDeactivated AuditEvent = "tenant_deactivated"
	EventTenantReactivated AuditEvent = "tenant_reactivated"
)

var eventCategories = map[AuditEvent]EventCategory{
	// Compliance: account and access lifecycle, long retention.
	EventInvitationRedeemed: CategoryCompliance,
	EventAccessRevoked:      CategoryCompliance,
	EventPrincipalCreated:   CategoryCompliance,

	// Security: failures that demand attention.
	EventRedemptionFailed:      CategorySecurity,
	EventPrincipalDeleteFailed: CategorySecurity,
	EventLoginFailed:           CategorySecurity,
	EventTenantDeactivated:     CategorySecurity,

	// Operations: routine activity.
	EventInvitationIssued:      CategoryOperations,
	EventInvitationEmailFailed: CategoryOperations,
	EventLoginSucceeded:        CategoryOperations,
	EventTenantCreated:         CategoryOperations,
	EventTenantUpdated:         CategoryOperations,
	EventTenantReactivated:     CategoryOperations,
}

// Category returns the EventCategory for this audit event. Unknown events
// default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
