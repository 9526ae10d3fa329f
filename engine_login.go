package identity

import (
	"context"

	"github.com/inkhaven/identity/internal/flows"
	"github.com/inkhaven/identity/store"
)

// Login verifies credentials and issues an access/refresh token pair.
func (e *Engine) Login(ctx context.Context, email, secret string) (*LoginResult, error) {
	if e == nil || e.store == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	result := flows.RunLogin(ctx, flows.LoginArgs{Email: email, Password: secret}, e.loginDeps())

	switch result.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, AuditLogin, result.Account.ID, result.Account.Email, true, nil, nil)
		return &LoginResult{
			Account: result.Account,
			Tokens: TokenPair{
				Access:  result.AccessToken,
				Refresh: result.RefreshToken,
			},
		}, nil

	case flows.LoginFailureValidation:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLogin, "", email, false, result.Err, map[string]string{
			"reason": "validation",
			"field":  result.Field,
		})
		return nil, &ValidationError{Field: result.Field, Reason: result.Err.Error()}

	case flows.LoginFailureNotFound:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLogin, "", email, false, ErrAccountNotFound, nil)
		return nil, ErrAccountNotFound

	case flows.LoginFailureBadCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLogin, "", email, false, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials

	case flows.LoginFailureInactive:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLogin, "", email, false, result.Err, map[string]string{
			"reason": "account_status",
		})
		return nil, ErrAccountInactive

	case flows.LoginFailureUnverified:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLogin, "", email, false, result.Err, map[string]string{
			"reason": "unverified",
		})
		return nil, ErrAccountUnverified

	default:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLogin, "", email, false, result.Err, nil)
		return nil, ErrStoreUnavailable
	}
}

// Logout clears the account's stored refresh token. Outstanding access
// tokens stay valid until they expire.
func (e *Engine) Logout(ctx context.Context, accountID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	result := flows.RunLogout(ctx, accountID, flows.LogoutDeps{
		Store:    e.store,
		NotFound: store.ErrNotFound,
	})

	switch result.Failure {
	case flows.LogoutFailureNone:
		e.metricInc(MetricLogout)
		e.emitAudit(ctx, AuditLogout, accountID, "", true, nil, nil)
		return nil
	case flows.LogoutFailureNotFound:
		e.emitAudit(ctx, AuditLogout, accountID, "", false, result.Err, nil)
		return ErrAccountNotFound
	default:
		e.emitAudit(ctx, AuditLogout, accountID, "", false, result.Err, nil)
		return ErrStoreUnavailable
	}
}

// Refresh rotates the presented refresh token and issues a fresh pair.
// A stale token fails the swap, clears nothing, and reports as invalid;
// the metric distinguishes reuse for operators.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.store == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	result := flows.RunRefresh(ctx, refreshToken, e.refreshDeps())

	switch result.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, AuditRefresh, result.AccountID, "", true, nil, nil)
		return &TokenPair{
			Access:  result.AccessToken,
			Refresh: result.RefreshToken,
		}, nil

	case flows.RefreshFailureReuse:
		e.metricInc(MetricRefreshReuseDetected)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefresh, result.AccountID, "", false, result.Err, map[string]string{
			"reason": "reuse",
		})
		return nil, ErrTokenInvalid

	case flows.RefreshFailureParse, flows.RefreshFailureNotFound:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefresh, result.AccountID, "", false, result.Err, nil)
		return nil, ErrTokenInvalid

	case flows.RefreshFailureInactive:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefresh, result.AccountID, "", false, result.Err, map[string]string{
			"reason": "account_status",
		})
		return nil, ErrAccountInactive

	case flows.RefreshFailureUnverified:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefresh, result.AccountID, "", false, result.Err, map[string]string{
			"reason": "unverified",
		})
		return nil, ErrAccountUnverified

	default:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefresh, result.AccountID, "", false, result.Err, nil)
		return nil, ErrStoreUnavailable
	}
}

func (e *Engine) loginDeps() flows.LoginDeps {
	return flows.LoginDeps{
		Store:           e.store,
		VerifyPassword:  e.verifyPassword,
		HashPassword:    e.passwordHash.Hash,
		CreateAccess:    e.jwtManager.CreateAccess,
		CreateRefresh:   e.jwtManager.CreateRefresh,
		RequireVerified: e.config.EmailVerification.RequireForLogin,
		RehashOnLogin:   e.config.Password.UpgradeOnLogin,
		NotFound:        store.ErrNotFound,
	}
}

func (e *Engine) refreshDeps() flows.RefreshDeps {
	return flows.RefreshDeps{
		Store:           e.store,
		ParseRefresh:    e.parseRefreshUID,
		CreateAccess:    e.jwtManager.CreateAccess,
		CreateRefresh:   e.jwtManager.CreateRefresh,
		RequireVerified: e.config.EmailVerification.RequireForLogin,
		NotFound:        store.ErrNotFound,
		RefreshMismatch: store.ErrRefreshMismatch,
	}
}

func (e *Engine) parseRefreshUID(token string) (string, error) {
	claims, err := e.jwtManager.ParseRefresh(token)
	if err != nil {
		return "", err
	}
	return claims.UID, nil
}
