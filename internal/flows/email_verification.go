package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/inkhaven/identity/store"
)

// VerifyFailureKind classifies email verification failures for
// root-level mapping.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureValidation
	VerifyFailureNotFound
	VerifyFailureToken
	VerifyFailureAlreadyVerified
	VerifyFailureStore
)

// VerificationStore is the credential store surface the verification
// flows need.
type VerificationStore interface {
	FindByEmail(ctx context.Context, email string) (*store.Account, error)
	SetVerificationToken(ctx context.Context, id, token string) error
	ConsumeVerificationToken(ctx context.Context, token string) (string, error)
}

// EmailVerificationDeps captures verification flow dependencies.
type EmailVerificationDeps struct {
	Store                VerificationStore
	NewVerificationToken func() (string, error)
	// SendVerificationMail must not block and must never fail the caller.
	SendVerificationMail func(ctx context.Context, email, token string)

	NotFound      error
	TokenNotFound error
}

// VerifyResult carries verification failure metadata. AccountID is set
// whenever the account was resolved.
type VerifyResult struct {
	Failure   VerifyFailureKind
	Err       error
	Field     string
	AccountID string
}

// RunVerifyEmail consumes a verification token and marks the owning
// account verified. Unknown and expired tokens are indistinguishable to
// the caller.
func RunVerifyEmail(ctx context.Context, token string, deps EmailVerificationDeps) VerifyResult {
	if token == "" {
		return VerifyResult{Failure: VerifyFailureValidation, Field: "token", Err: errors.New("token is required")}
	}

	id, err := deps.Store.ConsumeVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, deps.TokenNotFound) {
			return VerifyResult{Failure: VerifyFailureToken, Err: err}
		}
		return VerifyResult{Failure: VerifyFailureStore, Err: err}
	}

	return VerifyResult{Failure: VerifyFailureNone, AccountID: id}
}

// RunResendVerification retires the account's outstanding verification
// token, issues a fresh one, and dispatches the mail. Already verified
// accounts are rejected rather than silently re-mailed.
func RunResendVerification(ctx context.Context, email string, deps EmailVerificationDeps) VerifyResult {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return VerifyResult{Failure: VerifyFailureValidation, Field: "email", Err: errors.New("email is required")}
	}

	acct, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, deps.NotFound) {
			return VerifyResult{Failure: VerifyFailureNotFound, Err: err}
		}
		return VerifyResult{Failure: VerifyFailureStore, Err: err}
	}

	if acct.IsVerified {
		return VerifyResult{
			Failure:   VerifyFailureAlreadyVerified,
			Field:     "email",
			Err:       errors.New("email already verified"),
			AccountID: acct.ID,
		}
	}

	token, err := deps.NewVerificationToken()
	if err != nil {
		return VerifyResult{Failure: VerifyFailureStore, Err: err, AccountID: acct.ID}
	}

	if err := deps.Store.SetVerificationToken(ctx, acct.ID, token); err != nil {
		return VerifyResult{Failure: VerifyFailureStore, Err: err, AccountID: acct.ID}
	}

	if deps.SendVerificationMail != nil {
		deps.SendVerificationMail(ctx, acct.Email, token)
	}

	return VerifyResult{Failure: VerifyFailureNone, AccountID: acct.ID}
}
