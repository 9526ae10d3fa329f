package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/inkhaven/identity/store"
)

// ResetFailureKind classifies password reset failures for root-level
// mapping.
type ResetFailureKind int

const (
	ResetFailureNone ResetFailureKind = iota
	ResetFailureValidation
	ResetFailureNotFound
	ResetFailureChallenge
	ResetFailureHash
	ResetFailureStore
)

// ResetStore is the credential store surface the reset flows need.
type ResetStore interface {
	FindByEmail(ctx context.Context, email string) (*store.Account, error)
	SetResetChallenge(ctx context.Context, id, otp string, expiry time.Time) error
	ConsumeResetChallenge(ctx context.Context, id, otp, newPassword string, now time.Time) error
}

// PasswordResetDeps captures reset request and confirm dependencies.
type PasswordResetDeps struct {
	Store  ResetStore
	NewOTP func(digits int) (string, error)
	// SendResetMail must not block and must never fail the caller.
	SendResetMail func(ctx context.Context, email, otp string, validFor time.Duration)

	OTPDigits int
	ResetTTL  time.Duration
	Now       func() time.Time

	NotFound         error
	ChallengeInvalid error
}

// ResetResult carries reset failure metadata. AccountID is set whenever
// the account was resolved, including on failure, for audit trails.
type ResetResult struct {
	Failure   ResetFailureKind
	Err       error
	Field     string
	AccountID string
}

// RunRequestPasswordReset issues a one-time code for the account behind
// the email and dispatches it. An unknown email surfaces as not-found.
func RunRequestPasswordReset(ctx context.Context, email string, deps PasswordResetDeps) ResetResult {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ResetResult{Failure: ResetFailureValidation, Field: "email", Err: errors.New("email is required")}
	}

	acct, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, deps.NotFound) {
			return ResetResult{Failure: ResetFailureNotFound, Err: err}
		}
		return ResetResult{Failure: ResetFailureStore, Err: err}
	}

	otp, err := deps.NewOTP(deps.OTPDigits)
	if err != nil {
		return ResetResult{Failure: ResetFailureStore, Err: err, AccountID: acct.ID}
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	expiry := now().Add(deps.ResetTTL)

	if err := deps.Store.SetResetChallenge(ctx, acct.ID, otp, expiry); err != nil {
		return ResetResult{Failure: ResetFailureStore, Err: err, AccountID: acct.ID}
	}

	if deps.SendResetMail != nil {
		deps.SendResetMail(ctx, acct.Email, otp, deps.ResetTTL)
	}

	return ResetResult{Failure: ResetFailureNone, AccountID: acct.ID}
}

// ConfirmResetArgs is the caller-supplied confirmation material.
type ConfirmResetArgs struct {
	Email           string
	OTP             string
	NewPassword     string
	ConfirmPassword string
}

// RunConfirmPasswordReset consumes the one-time code and installs the
// new secret. The store clears the challenge on mismatch and on expiry,
// so a wrong guess burns the code.
func RunConfirmPasswordReset(ctx context.Context, args ConfirmResetArgs, deps PasswordResetDeps) ResetResult {
	email := strings.ToLower(strings.TrimSpace(args.Email))
	switch {
	case email == "":
		return ResetResult{Failure: ResetFailureValidation, Field: "email", Err: errors.New("email is required")}
	case args.OTP == "":
		return ResetResult{Failure: ResetFailureValidation, Field: "otp", Err: errors.New("otp is required")}
	case args.NewPassword == "":
		return ResetResult{Failure: ResetFailureValidation, Field: "newPassword", Err: errors.New("newPassword is required")}
	case len(args.NewPassword) < minPasswordLen:
		return ResetResult{Failure: ResetFailureValidation, Field: "newPassword", Err: errors.New("newPassword must be at least 6 characters")}
	case args.NewPassword != args.ConfirmPassword:
		return ResetResult{Failure: ResetFailureValidation, Field: "confirmPassword", Err: errors.New("passwords do not match")}
	}

	acct, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, deps.NotFound) {
			return ResetResult{Failure: ResetFailureNotFound, Err: err}
		}
		return ResetResult{Failure: ResetFailureStore, Err: err}
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	if err := deps.Store.ConsumeResetChallenge(ctx, acct.ID, args.OTP, args.NewPassword, now()); err != nil {
		switch {
		case errors.Is(err, deps.ChallengeInvalid), errors.Is(err, deps.NotFound):
			// The account exists; an absent challenge means it was never
			// requested or already consumed.
			return ResetResult{Failure: ResetFailureChallenge, Err: err, AccountID: acct.ID}
		default:
			return ResetResult{Failure: ResetFailureStore, Err: err, AccountID: acct.ID}
		}
	}

	return ResetResult{Failure: ResetFailureNone, AccountID: acct.ID}
}
