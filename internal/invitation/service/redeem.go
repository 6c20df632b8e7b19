package service

import (
	"context"
	"errors"
	"time"

	"atrium/internal/invitation/models"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/audit"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/requestcontext"
	"atrium/pkg/secrets"
)

// RedeemRequest exchanges a token plus credentials for a live account.
type RedeemRequest struct {
	Token      string
	Credential string
	FirstName  string
	LastName   string
}

// RedeemResult reports the created principal and its grant.
type RedeemResult struct {
	PrincipalID id.PrincipalID `json:"principal_id"`
	TenantID    id.TenantID    `json:"tenant_id"`
	Role        id.Role        `json:"role"`
}

// Redeem runs the ordered redemption pipeline: lookup, expiry check,
// conditional consume, principal creation, profile reconciliation,
// delegation activation.
//
// The consume step is the point of no return. Any failure after it leaves
// the token permanently spent with no working account; that state is
// surfaced as a critical dependency error requiring re-invitation, and
// consumed_at is deliberately not reset (a reopened token would otherwise
// resurrect invitations the operator believes are dead).
func (s *Service) Redeem(ctx context.Context, req RedeemRequest) (*RedeemResult, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.redeem")
	defer span.End()

	start := time.Now()
	if s.metrics != nil {
		defer s.metrics.ObserveRedeem(start)
	}

	if req.Token == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "token is required")
	}
	if req.Credential == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "credential is required")
	}

	invitation, err := s.invitations.FindByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.countRedemption("not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "invitation not found")
		}
		s.countRedemption("dependency_failure")
		return nil, dErrors.Wrap(err, dErrors.CodeDependency, "invitation lookup failed")
	}

	now := requestcontext.Now(ctx)
	if invitation.Expired(now) {
		s.countRedemption("expired")
		return nil, dErrors.New(dErrors.CodeExpired, "invitation has expired")
	}

	// Single-use gate. Exactly one concurrent caller passes; everyone else
	// fails here before any principal is created.
	if err := s.invitations.Consume(ctx, req.Token, now); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			s.countRedemption("already_used")
			return nil, dErrors.New(dErrors.CodeAlreadyUsed, "invitation was already redeemed")
		case errors.Is(err, sentinel.ErrNotFound):
			s.countRedemption("not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "invitation not found")
		default:
			s.countRedemption("dependency_failure")
			return nil, dErrors.Wrap(err, dErrors.CodeDependency, "failed to consume invitation")
		}
	}

	principalID, err := s.directory.Create(ctx, invitation.Email, req.Credential)
	if err != nil {
		return nil, s.redemptionFailedPostConsume(ctx, invitation, "principal creation failed", err)
	}

	if err := s.syncProfile(ctx, principalID, invitation, req.FirstName, req.LastName, now); err != nil {
		return nil, s.redemptionFailedPostConsume(ctx, invitation, "profile reconciliation failed", err)
	}

	if _, err := s.delegations.Activate(ctx, invitation.TenantID, invitation.Email, principalID, now); err != nil {
		return nil, s.redemptionFailedPostConsume(ctx, invitation, "delegation activation failed", err)
	}

	s.logger.InfoContext(ctx, "invitation redeemed",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", invitation.TenantID,
		"principal_id", principalID,
		"role", invitation.Role,
		"token", secrets.RedactToken(req.Token),
	)
	s.emitAudit(ctx, audit.Event{
		PrincipalID: principalID,
		TenantID:    invitation.TenantID,
		Email:       invitation.Email,
		Subject:     principalID.String(),
		Action:      string(audit.EventInvitationRedeemed),
		Decision:    "granted",
	})
	s.emitAudit(ctx, audit.Event{
		PrincipalID: principalID,
		Email:       invitation.Email,
		Subject:     principalID.String(),
		Action:      string(audit.EventPrincipalCreated),
	})
	s.countRedemption("success")

	return &RedeemResult{
		PrincipalID: principalID,
		TenantID:    invitation.TenantID,
		Role:        invitation.Role,
	}, nil
}

// syncProfile reconciles the denormalized profile row. Always an upsert:
// the directory may have raced us with a skeleton row, and our write must
// win regardless of ordering.
func (s *Service) syncProfile(ctx context.Context, principalID id.PrincipalID, invitation *models.Invitation, firstName, lastName string, now time.Time) error {
	return s.profiles.Upsert(ctx, &models.Profile{
		PrincipalID: principalID,
		TenantID:    invitation.TenantID,
		Email:       invitation.Email,
		FirstName:   firstName,
		LastName:    lastName,
		Role:        invitation.Role,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// redemptionFailedPostConsume classifies a failure past the consume gate:
// the token is spent, no usable account exists, and retrying the same token
// can only yield AlreadyConsumed. Critical by contract.
func (s *Service) redemptionFailedPostConsume(ctx context.Context, invitation *models.Invitation, stage string, cause error) error {
	s.logger.ErrorContext(ctx, "redemption failed after token consumption",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", invitation.TenantID,
		"stage", stage,
		"token", secrets.RedactToken(invitation.Token),
		"error", cause,
	)
	s.emitAudit(ctx, audit.Event{
		TenantID: invitation.TenantID,
		Email:    invitation.Email,
		Action:   string(audit.EventRedemptionFailed),
		Decision: "denied",
		Reason:   stage,
	})
	s.countRedemption("critical_failure")
	s.countCritical()

	return dErrors.MarkCritical(dErrors.Wrap(cause, dErrors.CodeDependency,
		stage+"; the invitation is spent and a new one must be issued"))
}
