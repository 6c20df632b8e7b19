package service

import (
	"context"
	"errors"

	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/audit"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/requestcontext"
)

// Revoke removes a delegation and tears down the principal behind it.
//
// Order is deliberate: the delegation dies first so the authorization record
// is gone even if the later steps fail. Directory deletion failure is
// critical (an orphaned login remains able to authenticate); profile cleanup
// failure is not (stale display data only).
func (s *Service) Revoke(ctx context.Context, delegationID id.DelegationID) error {
	ctx, span := s.tracer.Start(ctx, "invitation.revoke")
	defer span.End()

	delegation, err := s.delegations.FindByID(ctx, delegationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.countRevocation("not_found")
			return dErrors.New(dErrors.CodeNotFound, "delegation not found")
		}
		s.countRevocation("dependency_failure")
		return dErrors.Wrap(err, dErrors.CodeDependency, "delegation lookup failed")
	}

	if err := s.delegations.Delete(ctx, delegationID); err != nil {
		s.countRevocation("dependency_failure")
		return dErrors.Wrap(err, dErrors.CodeDependency, "failed to delete delegation")
	}

	if delegation.PrincipalID != nil {
		principalID := *delegation.PrincipalID

		if err := s.directory.Delete(ctx, principalID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "principal deletion failed during revocation",
				"request_id", requestcontext.RequestID(ctx),
				"tenant_id", delegation.TenantID,
				"delegation_id", delegationID,
				"principal_id", principalID,
				"error", err,
			)
			s.emitAudit(ctx, audit.Event{
				PrincipalID: principalID,
				TenantID:    delegation.TenantID,
				Email:       delegation.Email,
				Subject:     principalID.String(),
				Action:      string(audit.EventPrincipalDeleteFailed),
				Decision:    "denied",
				Reason:      err.Error(),
			})
			s.countRevocation("critical_failure")
			s.countCritical()
			return dErrors.MarkCritical(dErrors.Wrap(err, dErrors.CodeDependency,
				"delegation removed but principal deletion failed; the account can still authenticate"))
		}

		// Already-issued tokens must stop working now, not at expiry.
		if s.sessions != nil {
			if err := s.sessions.RevokePrincipal(ctx, principalID); err != nil {
				s.logger.ErrorContext(ctx, "session revocation failed",
					"request_id", requestcontext.RequestID(ctx),
					"principal_id", principalID,
					"error", err,
				)
				s.countRevocation("critical_failure")
				s.countCritical()
				return dErrors.MarkCritical(dErrors.Wrap(err, dErrors.CodeDependency,
					"principal deleted but live sessions could not be revoked"))
			}
		}

		if err := s.profiles.DeleteByPrincipal(ctx, principalID); err != nil {
			s.logger.WarnContext(ctx, "profile cleanup failed during revocation",
				"request_id", requestcontext.RequestID(ctx),
				"principal_id", principalID,
				"error", err,
			)
			s.emitAudit(ctx, audit.Event{
				PrincipalID: principalID,
				TenantID:    delegation.TenantID,
				Subject:     principalID.String(),
				Action:      string(audit.EventAccessRevoked),
				Decision:    "granted",
				Reason:      "profile cleanup failed",
			})
			s.countRevocation("partial")
			return dErrors.Wrap(err, dErrors.CodeDependency,
				"access revoked but profile cleanup failed")
		}
	}

	s.logger.InfoContext(ctx, "access revoked",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", delegation.TenantID,
		"delegation_id", delegationID,
	)
	event := audit.Event{
		TenantID: delegation.TenantID,
		Email:    delegation.Email,
		Subject:  delegation.Email,
		Action:   string(audit.EventAccessRevoked),
		Decision: "granted",
	}
	if delegation.PrincipalID != nil {
		event.PrincipalID = *delegation.PrincipalID
		event.Subject = delegation.PrincipalID.String()
	}
	s.emitAudit(ctx, event)
	s.countRevocation("success")
	return nil
}
