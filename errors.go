package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation reports malformed or missing input. Structured variants
	// carry the offending field via [ValidationError].
	ErrValidation = errors.New("validation failed")
	// ErrConflict reports a uniqueness violation on an identity field.
	// Structured variants carry the field via [ConflictError].
	ErrConflict = errors.New("duplicate identity field")
	// ErrAccountNotFound reports that no account matched the lookup.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials reports a failed secret comparison.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden reports an authenticated-but-not-permitted condition.
	ErrForbidden = errors.New("forbidden")
	// ErrAccountInactive reports a lifecycle state that blocks login.
	ErrAccountInactive = fmt.Errorf("%w: account is not active", ErrForbidden)
	// ErrAccountUnverified reports a login attempt before email verification.
	ErrAccountUnverified = fmt.Errorf("%w: email address not verified", ErrForbidden)
	// ErrOTPInvalidOrExpired reports a failed reset confirmation. Mismatch,
	// expiry, and absence are deliberately indistinguishable.
	ErrOTPInvalidOrExpired = errors.New("otp invalid or expired")
	// ErrTokenInvalid reports an unusable token of any kind: malformed,
	// expired, wrongly signed, rotated out, or already consumed.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrEngineNotReady reports use of an Engine missing a required
	// collaborator.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrStoreUnavailable wraps credential store transport failures.
	ErrStoreUnavailable = errors.New("account store unavailable")
	// ErrUploadFailed wraps asset storage failures during registration.
	ErrUploadFailed = errors.New("asset upload failed")
)

// ValidationError is an ErrValidation that names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return "invalid " + e.Field
	}
	return "invalid " + e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError is an ErrConflict that names the duplicate field ("email",
// "phone", or "userName").
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return "duplicate " + e.Field }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
