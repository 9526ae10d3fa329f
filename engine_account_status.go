package identity

import (
	"context"

	"github.com/inkhaven/identity/internal/flows"
	"github.com/inkhaven/identity/store"
)

// SetAccountStatus transitions an account between active, inactive, and
// banned. Leaving active revokes the stored refresh token so the account
// cannot keep renewing sessions. Setting the current status is a no-op.
func (e *Engine) SetAccountStatus(ctx context.Context, accountID string, status Status) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	result := flows.RunSetAccountStatus(ctx, accountID, status, flows.AccountStatusDeps{
		Store:    e.store,
		NotFound: store.ErrNotFound,
	})

	switch result.Failure {
	case flows.StatusFailureNone:
		e.metricInc(MetricStatusChanged)
		e.emitAudit(ctx, AuditStatusChange, accountID, "", true, nil, map[string]string{
			"from": string(result.Previous),
			"to":   string(status),
		})
		return nil

	case flows.StatusFailureValidation:
		e.emitAudit(ctx, AuditStatusChange, accountID, "", false, result.Err, map[string]string{
			"field": result.Field,
		})
		return &ValidationError{Field: result.Field, Reason: result.Err.Error()}

	case flows.StatusFailureNotFound:
		e.emitAudit(ctx, AuditStatusChange, accountID, "", false, result.Err, nil)
		return ErrAccountNotFound

	default:
		e.emitAudit(ctx, AuditStatusChange, accountID, "", false, result.Err, nil)
		return ErrStoreUnavailable
	}
}

// SuspendAccount is shorthand for SetAccountStatus with StatusInactive.
func (e *Engine) SuspendAccount(ctx context.Context, accountID string) error {
	return e.SetAccountStatus(ctx, accountID, StatusInactive)
}

// BanAccount is shorthand for SetAccountStatus with StatusBanned.
func (e *Engine) BanAccount(ctx context.Context, accountID string) error {
	return e.SetAccountStatus(ctx, accountID, StatusBanned)
}

// ReinstateAccount returns a suspended or banned account to active.
func (e *Engine) ReinstateAccount(ctx context.Context, accountID string) error {
	return e.SetAccountStatus(ctx, accountID, StatusActive)
}
