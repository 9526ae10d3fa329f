package flows

import (
	"context"
	"errors"

	"github.com/inkhaven/identity/jwt"
	"github.com/inkhaven/identity/store"
)

// ValidateFailureKind classifies validation failures for root-level
// mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureUnauthorized
	ValidateFailureNotFound
	ValidateFailureInactive
	ValidateFailureStore
)

// ValidateStore is the credential store surface the validate flow needs.
type ValidateStore interface {
	GetByID(ctx context.Context, id string) (*store.Account, error)
}

// ValidateDeps captures access-token validation dependencies.
type ValidateDeps struct {
	ParseAccess func(string) (*jwt.AccessClaims, error)

	// CheckAccountStatus adds a store round trip to reject tokens whose
	// account has since been suspended or banned.
	CheckAccountStatus bool
	Store              ValidateStore

	NotFound error
}

// ValidateResult returns claims on success or failure metadata.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.AccessClaims
}

// RunValidate parses and verifies an access token, optionally checking
// the live account status.
func RunValidate(ctx context.Context, tokenStr string, deps ValidateDeps) ValidateResult {
	claims, err := deps.ParseAccess(tokenStr)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureUnauthorized, Err: err}
	}

	if deps.CheckAccountStatus && deps.Store != nil {
		acct, err := deps.Store.GetByID(ctx, claims.UID)
		if err != nil {
			if errors.Is(err, deps.NotFound) {
				return ValidateResult{Failure: ValidateFailureNotFound, Err: err}
			}
			return ValidateResult{Failure: ValidateFailureStore, Err: err}
		}
		if acct.Status != store.StatusActive {
			return ValidateResult{Failure: ValidateFailureInactive, Err: errors.New("account status " + string(acct.Status))}
		}
	}

	return ValidateResult{Failure: ValidateFailureNone, Claims: claims}
}
