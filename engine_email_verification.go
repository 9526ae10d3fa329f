package identity

import (
	"context"

	"github.com/inkhaven/identity/internal"
	"github.com/inkhaven/identity/internal/flows"
	"github.com/inkhaven/identity/store"
)

// VerifyEmail consumes a verification token and marks the owning account
// verified. Unknown, expired, and already-used tokens all fail the same
// way.
func (e *Engine) VerifyEmail(ctx context.Context, token string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	result := flows.RunVerifyEmail(ctx, token, e.emailVerificationDeps())

	switch result.Failure {
	case flows.VerifyFailureNone:
		e.metricInc(MetricEmailVerificationSuccess)
		e.emitAudit(ctx, AuditEmailVerify, result.AccountID, "", true, nil, nil)
		return nil

	case flows.VerifyFailureValidation:
		e.metricInc(MetricEmailVerificationFailure)
		e.emitAudit(ctx, AuditEmailVerify, "", "", false, result.Err, map[string]string{
			"reason": "validation",
			"field":  result.Field,
		})
		return &ValidationError{Field: result.Field, Reason: result.Err.Error()}

	case flows.VerifyFailureToken:
		e.metricInc(MetricEmailVerificationFailure)
		e.emitAudit(ctx, AuditEmailVerify, "", "", false, result.Err, nil)
		return ErrTokenInvalid

	default:
		e.metricInc(MetricEmailVerificationFailure)
		e.emitAudit(ctx, AuditEmailVerify, "", "", false, result.Err, nil)
		return ErrStoreUnavailable
	}
}

// ResendVerification retires any outstanding verification token for the
// account, issues a fresh one, and mails the new link.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	result := flows.RunResendVerification(ctx, email, e.emailVerificationDeps())

	switch result.Failure {
	case flows.VerifyFailureNone:
		e.metricInc(MetricEmailVerificationResend)
		e.emitAudit(ctx, AuditEmailVerifyResend, result.AccountID, email, true, nil, nil)
		return nil

	case flows.VerifyFailureValidation, flows.VerifyFailureAlreadyVerified:
		e.emitAudit(ctx, AuditEmailVerifyResend, result.AccountID, email, false, result.Err, map[string]string{
			"field": result.Field,
		})
		return &ValidationError{Field: result.Field, Reason: result.Err.Error()}

	case flows.VerifyFailureNotFound:
		e.emitAudit(ctx, AuditEmailVerifyResend, "", email, false, result.Err, nil)
		return ErrAccountNotFound

	default:
		e.emitAudit(ctx, AuditEmailVerifyResend, result.AccountID, email, false, result.Err, nil)
		return ErrStoreUnavailable
	}
}

func (e *Engine) emailVerificationDeps() flows.EmailVerificationDeps {
	return flows.EmailVerificationDeps{
		Store:                e.store,
		NewVerificationToken: internal.NewVerificationToken,
		SendVerificationMail: e.sendVerificationMail,
		NotFound:             store.ErrNotFound,
		TokenNotFound:        store.ErrTokenNotFound,
	}
}
