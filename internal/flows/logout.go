package flows

import (
	"context"
	"errors"
)

// LogoutFailureKind classifies logout failures for root-level mapping.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureNotFound
	LogoutFailureStore
)

// LogoutStore is the credential store surface the logout flow needs.
type LogoutStore interface {
	ClearRefreshToken(ctx context.Context, id string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Store    LogoutStore
	NotFound error
}

// LogoutResult carries logout failure metadata.
type LogoutResult struct {
	Failure LogoutFailureKind
	Err     error
}

// RunLogout clears the account's stored refresh token. Any outstanding
// refresh token stops working immediately; issued access tokens ride out
// their short lifetime.
func RunLogout(ctx context.Context, accountID string, deps LogoutDeps) LogoutResult {
	if err := deps.Store.ClearRefreshToken(ctx, accountID); err != nil {
		if errors.Is(err, deps.NotFound) {
			return LogoutResult{Failure: LogoutFailureNotFound, Err: err}
		}
		return LogoutResult{Failure: LogoutFailureStore, Err: err}
	}
	return LogoutResult{Failure: LogoutFailureNone}
}
