package identity

import (
	"time"

	"github.com/inkhaven/identity/jwt"
)

// SecurityReport summarizes the engine's security-relevant configuration
// for startup logging and operational review.
type SecurityReport struct {
	SigningAlgorithm        jwt.SigningMethod
	AccessTTL               time.Duration
	RefreshTTL              time.Duration
	Argon2                  PasswordConfigReport
	RefreshRotationEnabled  bool
	EmailVerificationActive bool
	VerificationGatesLogin  bool
	PasswordUpgradeOnLogin  bool
	StatusCheckOnValidate   bool
	AuditEnabled            bool
	MetricsEnabled          bool

	// RateLimitingActive is always false: the subsystem ships without
	// throttling and expects the caller to put a limiter in front of
	// login, refresh, reset, and resend.
	RateLimitingActive bool
}

// PasswordConfigReport mirrors the active Argon2id work parameters.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SecurityReport returns the active security posture.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		SigningAlgorithm: e.config.Tokens.SigningMethod,
		AccessTTL:        e.config.Tokens.AccessTTL,
		RefreshTTL:       e.config.Tokens.RefreshTTL,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		RefreshRotationEnabled:  true,
		EmailVerificationActive: true,
		VerificationGatesLogin:  e.config.EmailVerification.RequireForLogin,
		PasswordUpgradeOnLogin:  e.config.Password.UpgradeOnLogin,
		StatusCheckOnValidate:   e.config.Validation.CheckAccountStatus,
		AuditEnabled:            e.config.Audit.Enabled,
		MetricsEnabled:          e.config.Metrics.Enabled,
		RateLimitingActive:      false,
	}
}
