package service

import (
	"context"
	"errors"
	"time"

	"atrium/internal/invitation/models"
	"atrium/internal/notify"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	emailpkg "atrium/pkg/email"
	"atrium/pkg/platform/audit"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/requestcontext"
	"atrium/pkg/secrets"
)

// IssueRequest asks for a new invitation.
type IssueRequest struct {
	TenantID    id.TenantID
	Email       string
	Role        id.Role
	InviterName string
}

// IssueResult reports the grant separately from email delivery: the grant
// exists once persisted, whether or not the notification went out. The raw
// token travels only inside the emailed redemption link, never in a
// serialized response.
type IssueResult struct {
	DelegationID     id.DelegationID `json:"delegation_id"`
	Token            string          `json:"-"`
	ExpiresAt        time.Time       `json:"expires_at"`
	EmailSent        bool            `json:"email_sent"`
	DuplicatePending bool            `json:"duplicate_pending"`
}

// Issue validates the request, persists a pending Delegation plus an
// Invitation, and dispatches the email best-effort. A failed dispatch is
// logged and reflected in the result but never fails the call.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.issue")
	defer span.End()

	normalized := emailpkg.Normalize(req.Email)
	if !emailpkg.Valid(normalized) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	if !req.Role.IsDelegable() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "role %q cannot be delegated", req.Role)
	}

	tenant, err := s.tenants.FindByID(ctx, req.TenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeDependency, "tenant lookup failed")
	}
	if !tenant.IsActive() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant is deactivated")
	}

	now := requestcontext.Now(ctx)

	// Duplicate pending invitations for the same pair are allowed but
	// flagged, so callers can warn instead of silently stacking invites.
	pending, err := s.invitations.FindPendingByTenantAndEmail(ctx, req.TenantID, normalized, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDependency, "pending invitation lookup failed")
	}

	delegation := models.NewDelegation(req.TenantID, normalized, req.Role, now)
	if err := s.delegations.Create(ctx, delegation); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDependency, "failed to persist delegation")
	}

	invitation, err := s.createInvitation(ctx, normalized, req.Role, req.TenantID, now)
	if err != nil {
		return nil, err
	}

	result := &IssueResult{
		DelegationID:     delegation.ID,
		Token:            invitation.Token,
		ExpiresAt:        invitation.ExpiresAt,
		DuplicatePending: len(pending) > 0,
	}

	if err := s.dispatcher.SendInvite(ctx, notify.InviteMessage{
		To:          normalized,
		TenantName:  tenant.Name,
		Role:        req.Role,
		InviterName: req.InviterName,
		Token:       invitation.Token,
		ExpiresDays: int(s.ttl / (24 * time.Hour)),
	}); err != nil {
		s.logger.WarnContext(ctx, "invitation email dispatch failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", req.TenantID,
			"token", secrets.RedactToken(invitation.Token),
			"error", err,
		)
		s.emitAudit(ctx, audit.Event{
			TenantID: req.TenantID,
			Email:    normalized,
			Action:   string(audit.EventInvitationEmailFailed),
			Reason:   err.Error(),
		})
		if s.metrics != nil {
			s.metrics.EmailSendFailures.Inc()
		}
	} else {
		result.EmailSent = true
	}

	s.logger.InfoContext(ctx, "invitation issued",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", req.TenantID,
		"delegation_id", delegation.ID,
		"role", req.Role,
		"token", secrets.RedactToken(invitation.Token),
		"email_sent", result.EmailSent,
	)
	s.emitAudit(ctx, audit.Event{
		TenantID: req.TenantID,
		Email:    normalized,
		Subject:  normalized,
		Action:   string(audit.EventInvitationIssued),
		Decision: "granted",
	})
	if s.metrics != nil {
		s.metrics.InvitationsIssued.Inc()
	}
	return result, nil
}

// createInvitation persists the token record, regenerating once on the
// negligible-but-nonzero chance of a token collision with the unique
// constraint.
func (s *Service) createInvitation(ctx context.Context, email string, role id.Role, tenantID id.TenantID, now time.Time) (*models.Invitation, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := secrets.GenerateToken()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "token generation failed")
		}
		invitation, err := models.NewInvitation(token, email, role, tenantID, now)
		if err != nil {
			return nil, err
		}
		invitation.ExpiresAt = now.Add(s.ttl)
		err = s.invitations.Create(ctx, invitation)
		if err == nil {
			return invitation, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeDependency, "failed to persist invitation")
		}
	}
	return nil, dErrors.New(dErrors.CodeInternal, "token collision persisted across retries")
}
