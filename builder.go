package identity

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/inkhaven/identity/internal/audit"
	"github.com/inkhaven/identity/jwt"
	"github.com/inkhaven/identity/mail"
	"github.com/inkhaven/identity/password"
	"github.com/inkhaven/identity/store"
	"github.com/inkhaven/identity/upload"
)

// Builder assembles an Engine. Chain the With* methods, then call Build
// once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	mailSender mail.Sender
	uploader   upload.Uploader
	auditSink  AuditSink
	log        *slog.Logger

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration. The config is cloned;
// later mutation of cfg does not affect the built Engine.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the credential store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithMailSender sets the outbound mail transport. Without one, the
// Engine skips verification and reset mails entirely.
func (b *Builder) WithMailSender(sender mail.Sender) *Builder {
	b.mailSender = sender
	return b
}

// WithUploader sets the profile image storage backend. Required for
// Register.
func (b *Builder) WithUploader(up upload.Uploader) *Builder {
	b.uploader = up
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to a discarding
// logger.
func (b *Builder) WithLogger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// WithMetricsEnabled toggles the engine counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Validate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the Engine. A Builder
// can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := b.log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.Tokens.AccessTTL,
		RefreshTTL:    cfg.Tokens.RefreshTTL,
		SigningMethod: cfg.Tokens.SigningMethod,
		PrivateKey:    cloneBytes(cfg.Tokens.PrivateKey),
		PublicKey:     cloneBytes(cfg.Tokens.PublicKey),
		Issuer:        cfg.Tokens.Issuer,
		Audience:      cfg.Tokens.Audience,
		Leeway:        cfg.Tokens.Leeway,
		RequireIAT:    cfg.Tokens.RequireIAT,
		MaxFutureIAT:  cfg.Tokens.MaxFutureIAT,
		KeyID:         cfg.Tokens.KeyID,
		VerifyKeys:    cfg.Tokens.VerifyKeys,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		store:        store.New(b.redis, cfg.KeyPrefix, ph),
		jwtManager:   jm,
		passwordHash: ph,
		uploader:     b.uploader,
		metrics:      NewMetrics(cfg.Metrics),
		log:          log,
	}

	if b.mailSender != nil {
		engine.mailDispatcher = mail.NewDispatcher(mail.DispatcherConfig{
			BufferSize:  cfg.Mail.BufferSize,
			DropIfFull:  cfg.Mail.DropIfFull,
			SendTimeout: cfg.Mail.SendTimeout,
		}, b.mailSender, log)
	}

	engine.auditDispatcher = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return engine, nil
}
