package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/inkhaven/identity/store"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureValidation
	LoginFailureNotFound
	LoginFailureBadCredentials
	LoginFailureInactive
	LoginFailureUnverified
	LoginFailureToken
	LoginFailureStore
)

// LoginArgs is the caller-supplied login material.
type LoginArgs struct {
	Email    string
	Password string
}

// LoginStore is the credential store surface the login flow needs.
type LoginStore interface {
	FindByEmail(ctx context.Context, email string) (*store.Account, error)
	RecordLogin(ctx context.Context, id, refreshToken string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Store          LoginStore
	VerifyPassword func(password, phc string) (ok, needsUpgrade bool, err error)
	HashPassword   func(string) (string, error)
	CreateAccess   func(uid, email, userName, role string) (string, error)
	CreateRefresh  func(uid string) (string, error)

	// RequireVerified gates login on a completed email verification.
	RequireVerified bool
	// RehashOnLogin upgrades stored hashes with stale parameters.
	RehashOnLogin bool

	NotFound error
}

// LoginResult carries the authenticated account and token pair, or
// failure metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	Field   string

	Account      *store.Account
	AccessToken  string
	RefreshToken string
}

// RunLogin executes credential verification and session issuance.
func RunLogin(ctx context.Context, args LoginArgs, deps LoginDeps) LoginResult {
	email := strings.ToLower(strings.TrimSpace(args.Email))
	if email == "" {
		return LoginResult{Failure: LoginFailureValidation, Field: "email", Err: errors.New("email is required")}
	}
	if args.Password == "" {
		return LoginResult{Failure: LoginFailureValidation, Field: "password", Err: errors.New("password is required")}
	}

	acct, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, deps.NotFound) {
			return LoginResult{Failure: LoginFailureNotFound, Err: err}
		}
		return LoginResult{Failure: LoginFailureStore, Err: err}
	}

	ok, needsUpgrade, err := deps.VerifyPassword(args.Password, acct.PasswordHash)
	if err != nil || !ok {
		return LoginResult{Failure: LoginFailureBadCredentials, Err: err}
	}

	if acct.Status != store.StatusActive {
		return LoginResult{Failure: LoginFailureInactive, Err: errors.New("account status " + string(acct.Status))}
	}
	if deps.RequireVerified && !acct.IsVerified {
		return LoginResult{Failure: LoginFailureUnverified, Err: errors.New("email not verified")}
	}

	access, err := deps.CreateAccess(acct.ID, acct.Email, acct.UserName, string(acct.Role))
	if err != nil {
		return LoginResult{Failure: LoginFailureToken, Err: err}
	}
	refresh, err := deps.CreateRefresh(acct.ID)
	if err != nil {
		return LoginResult{Failure: LoginFailureToken, Err: err}
	}

	if err := deps.Store.RecordLogin(ctx, acct.ID, refresh, time.Now().UTC()); err != nil {
		return LoginResult{Failure: LoginFailureStore, Err: err}
	}

	// Re-hash under current parameters when the stored hash is stale.
	// Best effort: a failed upgrade never fails a successful login.
	if deps.RehashOnLogin && needsUpgrade && deps.HashPassword != nil {
		if fresh, hashErr := deps.HashPassword(args.Password); hashErr == nil {
			_ = deps.Store.UpdatePasswordHash(ctx, acct.ID, fresh)
		}
	}

	return LoginResult{
		Failure:      LoginFailureNone,
		Account:      acct.Sanitized(),
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
