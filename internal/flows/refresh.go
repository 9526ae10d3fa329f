package flows

import (
	"context"
	"errors"

	"github.com/inkhaven/identity/store"
)

// RefreshFailureKind classifies refresh flow failures for root-level
// mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureParse
	RefreshFailureNotFound
	RefreshFailureReuse
	RefreshFailureInactive
	RefreshFailureUnverified
	RefreshFailureToken
	RefreshFailureStore
)

// RefreshStore is the credential store surface the refresh flow needs.
type RefreshStore interface {
	GetByID(ctx context.Context, id string) (*store.Account, error)
	RotateRefreshToken(ctx context.Context, id, presented, next string) error
	ClearRefreshToken(ctx context.Context, id string) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Store         RefreshStore
	ParseRefresh  func(token string) (uid string, err error)
	CreateAccess  func(uid, email, userName, role string) (string, error)
	CreateRefresh func(uid string) (string, error)

	RequireVerified bool

	NotFound        error
	RefreshMismatch error
}

// RefreshResult carries either the rotated token pair or failure
// metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error

	AccountID    string
	AccessToken  string
	RefreshToken string
}

// RunRefresh validates the presented refresh token, rotates the stored
// single slot under compare-and-set, and issues a fresh pair. A stale
// presented token fails the swap and surfaces as reuse.
func RunRefresh(ctx context.Context, presented string, deps RefreshDeps) RefreshResult {
	uid, err := deps.ParseRefresh(presented)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureParse, Err: err}
	}

	// Mint the successor before the swap so the slot never holds a token
	// we failed to issue.
	next, err := deps.CreateRefresh(uid)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureToken, Err: err, AccountID: uid}
	}

	if err := deps.Store.RotateRefreshToken(ctx, uid, presented, next); err != nil {
		switch {
		case errors.Is(err, deps.RefreshMismatch):
			return RefreshResult{Failure: RefreshFailureReuse, Err: err, AccountID: uid}
		case errors.Is(err, deps.NotFound):
			return RefreshResult{Failure: RefreshFailureNotFound, Err: err, AccountID: uid}
		default:
			return RefreshResult{Failure: RefreshFailureStore, Err: err, AccountID: uid}
		}
	}

	acct, err := deps.Store.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, deps.NotFound) {
			return RefreshResult{Failure: RefreshFailureNotFound, Err: err, AccountID: uid}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err, AccountID: uid}
	}

	// The rotation already committed; revoke it when the account no
	// longer qualifies for a session.
	if acct.Status != store.StatusActive {
		_ = deps.Store.ClearRefreshToken(ctx, uid)
		return RefreshResult{Failure: RefreshFailureInactive, Err: errors.New("account status " + string(acct.Status)), AccountID: uid}
	}
	if deps.RequireVerified && !acct.IsVerified {
		_ = deps.Store.ClearRefreshToken(ctx, uid)
		return RefreshResult{Failure: RefreshFailureUnverified, Err: errors.New("email not verified"), AccountID: uid}
	}

	access, err := deps.CreateAccess(acct.ID, acct.Email, acct.UserName, string(acct.Role))
	if err != nil {
		return RefreshResult{Failure: RefreshFailureToken, Err: err, AccountID: uid}
	}

	return RefreshResult{
		Failure:      RefreshFailureNone,
		AccountID:    uid,
		AccessToken:  access,
		RefreshToken: next,
	}
}
