package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	internalaudit "github.com/inkhaven/identity/internal/audit"
	"github.com/inkhaven/identity/jwt"
	"github.com/inkhaven/identity/mail"
	"github.com/inkhaven/identity/password"
	"github.com/inkhaven/identity/store"
	"github.com/inkhaven/identity/upload"
)

// Engine is the identity subsystem facade. Build one with a Builder,
// share it across goroutines, and Close it on shutdown so buffered mail
// and audit events drain.
//
// Engine instances are configured during initialization and then treated
// as immutable.
type Engine struct {
	config Config

	store           *store.Store
	jwtManager      *jwt.Manager
	passwordHash    *password.Argon2
	uploader        upload.Uploader
	mailDispatcher  *mail.Dispatcher
	auditDispatcher *internalaudit.Dispatcher
	metrics         *Metrics
	log             *slog.Logger
}

// Close drains the mail and audit dispatchers. Safe to call on a nil
// receiver and more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.mailDispatcher != nil {
		e.mailDispatcher.Close()
	}
	if e.auditDispatcher != nil {
		e.auditDispatcher.Close()
	}
}

// MailDropped reports how many outbound messages were discarded because
// the mail dispatch buffer was full.
func (e *Engine) MailDropped() uint64 {
	if e == nil || e.mailDispatcher == nil {
		return 0
	}
	return e.mailDispatcher.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine counters
// and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// GetAccount loads an account by id with secret material stripped.
func (e *Engine) GetAccount(ctx context.Context, id string) (*Account, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	acct, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, e.mapStoreError(err)
	}
	return acct.Sanitized(), nil
}

// mapStoreError translates store sentinels into the public taxonomy.
func (e *Engine) mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrAccountNotFound
	default:
		return ErrStoreUnavailable
	}
}

// sendVerificationMail enqueues the verification link mail. Dispatch is
// fire-and-forget: a full buffer or downstream failure never reaches the
// caller.
func (e *Engine) sendVerificationMail(ctx context.Context, email, token string) {
	if e.mailDispatcher == nil {
		return
	}
	e.mailDispatcher.Dispatch(ctx, mail.VerificationMessage(email, e.config.EmailVerification.VerifyBaseURL, token))
}

// sendResetMail enqueues the reset code mail, fire-and-forget.
func (e *Engine) sendResetMail(ctx context.Context, email, otp string, validFor time.Duration) {
	if e.mailDispatcher == nil {
		return
	}
	e.mailDispatcher.Dispatch(ctx, mail.ResetOTPMessage(email, otp, validFor))
}

// uploadProfileImage stores the image and returns its public URL.
func (e *Engine) uploadProfileImage(ctx context.Context, body io.Reader, name, contentType string, size int64) (string, error) {
	asset, err := e.uploader.Upload(ctx, upload.Input{
		Body:         body,
		OriginalName: name,
		ContentType:  contentType,
		Size:         size,
	})
	if err != nil {
		return "", err
	}
	return asset.URL, nil
}

func (e *Engine) verifyPassword(secret, phc string) (ok, needsUpgrade bool, err error) {
	ok, err = e.passwordHash.Verify(secret, phc)
	if err != nil || !ok {
		return ok, false, err
	}
	needsUpgrade, upErr := e.passwordHash.NeedsUpgrade(phc)
	if upErr != nil {
		return true, false, nil
	}
	return true, needsUpgrade, nil
}
