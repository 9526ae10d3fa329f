package identity

import (
	"context"
	"time"

	"github.com/inkhaven/identity/internal/flows"
	"github.com/inkhaven/identity/store"
)

// Validate parses and verifies an access token and returns the caller's
// identity. With Validation.CheckAccountStatus enabled it also rejects
// tokens whose account has since been suspended or banned, at the cost
// of a store round trip per call.
func (e *Engine) Validate(ctx context.Context, tokenStr string) (*AuthResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	result := flows.RunValidate(ctx, tokenStr, flows.ValidateDeps{
		ParseAccess:        e.jwtManager.ParseAccess,
		CheckAccountStatus: e.config.Validation.CheckAccountStatus,
		Store:              e.store,
		NotFound:           store.ErrNotFound,
	})

	switch result.Failure {
	case flows.ValidateFailureNone:
		return &AuthResult{
			AccountID: result.Claims.UID,
			Email:     result.Claims.Email,
			UserName:  result.Claims.UserName,
			Role:      Role(result.Claims.Role),
		}, nil
	case flows.ValidateFailureUnauthorized:
		return nil, ErrTokenInvalid
	case flows.ValidateFailureNotFound:
		return nil, ErrAccountNotFound
	case flows.ValidateFailureInactive:
		return nil, ErrAccountInactive
	default:
		return nil, ErrStoreUnavailable
	}
}
