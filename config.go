package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/inkhaven/identity/jwt"
)

// Config is the full engine configuration. Build one from [DefaultConfig]
// and override what you need; the Builder validates and clones it, so a
// Config is never shared mutable state after construction.
type Config struct {
	// KeyPrefix namespaces every Redis key written by the credential store.
	KeyPrefix string

	Tokens            TokenConfig
	Password          PasswordConfig
	PasswordReset     PasswordResetConfig
	EmailVerification EmailVerificationConfig
	Mail              MailDispatchConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
	Validation        ValidateConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures signing and validation of both token kinds.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod jwt.SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id work parameters.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
	// UpgradeOnLogin re-hashes a verified password when the stored hash
	// carries weaker parameters than the current configuration.
	UpgradeOnLogin bool
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig tunes the OTP reset challenge.
type PasswordResetConfig struct {
	OTPDigits int
	ResetTTL  time.Duration
}

/*
====================================
EMAIL VERIFICATION CONFIG
====================================
*/

// EmailVerificationConfig tunes verification token issuance.
type EmailVerificationConfig struct {
	// VerifyBaseURL is the public base the mailed verification link points
	// at. The token is appended as /verify-email/<token>.
	VerifyBaseURL string
	// RequireForLogin blocks login until the address is verified.
	RequireForLogin bool
}

/*
====================================
MAIL DISPATCH CONFIG
====================================
*/

// MailDispatchConfig tunes the async mail queue. Delivery is always
// fire-and-forget; these knobs only shape the buffering.
type MailDispatchConfig struct {
	BufferSize  int
	DropIfFull  bool
	SendTimeout time.Duration
}

/*
====================================
AUDIT / METRICS / VALIDATE CONFIG
====================================
*/

// AuditConfig controls audit event dispatching.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the engine counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// ValidateConfig controls access-token validation behavior.
type ValidateConfig struct {
	// CheckAccountStatus re-reads the account on every Validate and
	// rejects tokens of non-active accounts. Costs a store round trip.
	CheckAccountStatus bool
}

// DefaultConfig returns the baseline configuration: 15 minute access
// tokens, 7 day refresh tokens, OWASP-shaped Argon2id parameters, 6 digit
// reset codes valid for 10 minutes, verification required for login.
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "idn",
		Tokens: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: jwt.MethodEd25519,
			Leeway:        30 * time.Second,
			MaxFutureIAT:  10 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		PasswordReset: PasswordResetConfig{
			OTPDigits: 6,
			ResetTTL:  10 * time.Minute,
		},
		EmailVerification: EmailVerificationConfig{
			RequireForLogin: true,
		},
		Mail: MailDispatchConfig{
			BufferSize:  64,
			DropIfFull:  true,
			SendTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Tokens.PrivateKey = cloneBytes(cfg.Tokens.PrivateKey)
	out.Tokens.PublicKey = cloneBytes(cfg.Tokens.PublicKey)
	if cfg.Tokens.VerifyKeys != nil {
		out.Tokens.VerifyKeys = make(map[string][]byte, len(cfg.Tokens.VerifyKeys))
		for kid, key := range cfg.Tokens.VerifyKeys {
			out.Tokens.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for contradictions before any
// collaborator is constructed from it.
func (c *Config) Validate() error {
	if c.KeyPrefix == "" {
		return errors.New("config: key prefix must not be empty")
	}
	if c.Tokens.AccessTTL <= 0 {
		return errors.New("config: access TTL must be positive")
	}
	if c.Tokens.RefreshTTL <= c.Tokens.AccessTTL {
		return errors.New("config: refresh TTL must exceed access TTL")
	}
	switch c.Tokens.SigningMethod {
	case jwt.MethodEd25519, jwt.MethodHS256:
	default:
		return fmt.Errorf("config: unsupported signing method %q", c.Tokens.SigningMethod)
	}
	if c.PasswordReset.OTPDigits < 6 || c.PasswordReset.OTPDigits > 10 {
		return errors.New("config: reset OTP digits must be between 6 and 10")
	}
	if c.PasswordReset.ResetTTL <= 0 {
		return errors.New("config: reset TTL must be positive")
	}
	if c.Mail.BufferSize < 0 || c.Audit.BufferSize < 0 {
		return errors.New("config: buffer sizes must not be negative")
	}
	return nil
}
