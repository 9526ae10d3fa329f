package identity

import (
	"context"

	"github.com/inkhaven/identity/internal"
	"github.com/inkhaven/identity/internal/flows"
	"github.com/inkhaven/identity/store"
)

// RequestPasswordReset issues a one-time code for the account behind the
// email and mails it.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	result := flows.RunRequestPasswordReset(ctx, email, e.passwordResetDeps())

	switch result.Failure {
	case flows.ResetFailureNone:
		e.metricInc(MetricPasswordResetRequest)
		e.emitAudit(ctx, AuditPasswordResetRequest, result.AccountID, email, true, nil, nil)
		return nil

	case flows.ResetFailureValidation:
		e.emitAudit(ctx, AuditPasswordResetRequest, "", email, false, result.Err, map[string]string{
			"reason": "validation",
			"field":  result.Field,
		})
		return &ValidationError{Field: result.Field, Reason: result.Err.Error()}

	case flows.ResetFailureNotFound:
		e.emitAudit(ctx, AuditPasswordResetRequest, "", email, false, ErrAccountNotFound, nil)
		return ErrAccountNotFound

	default:
		e.emitAudit(ctx, AuditPasswordResetRequest, result.AccountID, email, false, result.Err, nil)
		return ErrStoreUnavailable
	}
}

// PasswordResetInput carries the material to confirm a reset.
type PasswordResetInput struct {
	Email           string
	OTP             string
	NewPassword     string
	ConfirmPassword string
}

// ConfirmPasswordReset consumes the one-time code and installs the new
// password. A wrong or expired code burns the challenge; the caller must
// request a new one.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, input PasswordResetInput) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	result := flows.RunConfirmPasswordReset(ctx, flows.ConfirmResetArgs{
		Email:           input.Email,
		OTP:             input.OTP,
		NewPassword:     input.NewPassword,
		ConfirmPassword: input.ConfirmPassword,
	}, e.passwordResetDeps())

	switch result.Failure {
	case flows.ResetFailureNone:
		e.metricInc(MetricPasswordResetConfirmSuccess)
		e.emitAudit(ctx, AuditPasswordResetConfirm, result.AccountID, input.Email, true, nil, nil)
		return nil

	case flows.ResetFailureValidation:
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, AuditPasswordResetConfirm, "", input.Email, false, result.Err, map[string]string{
			"reason": "validation",
			"field":  result.Field,
		})
		return &ValidationError{Field: result.Field, Reason: result.Err.Error()}

	case flows.ResetFailureNotFound:
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, AuditPasswordResetConfirm, "", input.Email, false, ErrAccountNotFound, nil)
		return ErrAccountNotFound

	case flows.ResetFailureChallenge:
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, AuditPasswordResetConfirm, result.AccountID, input.Email, false, result.Err, nil)
		return ErrOTPInvalidOrExpired

	default:
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, AuditPasswordResetConfirm, result.AccountID, input.Email, false, result.Err, nil)
		return ErrStoreUnavailable
	}
}

func (e *Engine) passwordResetDeps() flows.PasswordResetDeps {
	return flows.PasswordResetDeps{
		Store:            e.store,
		NewOTP:           internal.NewOTP,
		SendResetMail:    e.sendResetMail,
		OTPDigits:        e.config.PasswordReset.OTPDigits,
		ResetTTL:         e.config.PasswordReset.ResetTTL,
		NotFound:         store.ErrNotFound,
		ChallengeInvalid: store.ErrChallengeInvalid,
	}
}
