package flows

import (
	"context"
	"errors"

	"github.com/inkhaven/identity/store"
)

// StatusFailureKind classifies status change failures for root-level
// mapping.
type StatusFailureKind int

const (
	StatusFailureNone StatusFailureKind = iota
	StatusFailureValidation
	StatusFailureNotFound
	StatusFailureStore
)

// StatusStore is the credential store surface the status flow needs.
type StatusStore interface {
	GetByID(ctx context.Context, id string) (*store.Account, error)
	SetStatus(ctx context.Context, id string, status store.Status) error
	ClearRefreshToken(ctx context.Context, id string) error
}

// AccountStatusDeps captures status change dependencies.
type AccountStatusDeps struct {
	Store    StatusStore
	NotFound error
}

// StatusResult carries status change failure metadata plus the previous
// status for audit.
type StatusResult struct {
	Failure  StatusFailureKind
	Err      error
	Field    string
	Previous store.Status
}

// RunSetAccountStatus transitions an account's status. Leaving the
// active status revokes the stored refresh token so suspended and banned
// accounts cannot keep renewing sessions.
func RunSetAccountStatus(ctx context.Context, id string, status store.Status, deps AccountStatusDeps) StatusResult {
	if !store.ValidStatus(status) {
		return StatusResult{Failure: StatusFailureValidation, Field: "status", Err: errors.New("unknown status " + string(status))}
	}

	acct, err := deps.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, deps.NotFound) {
			return StatusResult{Failure: StatusFailureNotFound, Err: err}
		}
		return StatusResult{Failure: StatusFailureStore, Err: err}
	}

	if acct.Status == status {
		return StatusResult{Failure: StatusFailureNone, Previous: acct.Status}
	}

	if err := deps.Store.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, deps.NotFound) {
			return StatusResult{Failure: StatusFailureNotFound, Err: err}
		}
		return StatusResult{Failure: StatusFailureStore, Err: err}
	}

	if acct.Status == store.StatusActive && status != store.StatusActive {
		if err := deps.Store.ClearRefreshToken(ctx, id); err != nil && !errors.Is(err, deps.NotFound) {
			return StatusResult{Failure: StatusFailureStore, Err: err, Previous: acct.Status}
		}
	}

	return StatusResult{Failure: StatusFailureNone, Previous: acct.Status}
}
