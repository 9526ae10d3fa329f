package flows

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/inkhaven/identity/store"
)

// RegisterFailureKind classifies registration failures for root-level
// mapping.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureValidation
	RegisterFailureConflict
	RegisterFailureUpload
	RegisterFailureHash
	RegisterFailureToken
	RegisterFailureStore
)

// RegisterArgs is the caller-supplied registration material.
type RegisterArgs struct {
	Email    string
	UserName string
	Password string
	FullName string

	Phone       string
	Bio         string
	Location    string
	DateOfBirth string

	ImageBody        io.Reader
	ImageName        string
	ImageContentType string
	ImageSize        int64
	ImageAlt         string
}

// RegisterStore is the credential store surface the registration flow
// needs.
type RegisterStore interface {
	FindByEmail(ctx context.Context, email string) (*store.Account, error)
	FindByUserName(ctx context.Context, userName string) (*store.Account, error)
	FindByPhone(ctx context.Context, phone string) (*store.Account, error)
	Create(ctx context.Context, candidate *store.Account) (*store.Account, error)
}

// RegisterDeps captures registration flow dependencies.
type RegisterDeps struct {
	Store                RegisterStore
	HashPassword         func(string) (string, error)
	NewVerificationToken func() (string, error)
	UploadImage          func(ctx context.Context, body io.Reader, name, contentType string, size int64) (string, error)
	// SendVerificationMail must not block and must never fail the caller.
	SendVerificationMail func(ctx context.Context, email, token string)
	NotFound             error
}

// RegisterResult carries either the created account or failure metadata.
// Field names the offending input on validation and conflict failures.
type RegisterResult struct {
	Failure RegisterFailureKind
	Err     error
	Field   string
	Account *store.Account
}

const (
	minPasswordLen = 6
	minUserNameLen = 3
	maxUserNameLen = 30
	maxBioLen      = 500
	maxLocationLen = 100
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	userNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// RunRegister executes the registration workflow without root package
// dependencies: validate, pre-check uniqueness, run the three independent
// preparation steps concurrently, create atomically, dispatch the
// verification mail.
func RunRegister(ctx context.Context, args RegisterArgs, deps RegisterDeps) RegisterResult {
	if field, reason := validateRegisterArgs(args); field != "" {
		return RegisterResult{
			Failure: RegisterFailureValidation,
			Err:     errors.New(reason),
			Field:   field,
		}
	}

	email := strings.ToLower(strings.TrimSpace(args.Email))

	// Friendly pre-check with fixed precedence. The create script remains
	// the final authority under concurrency.
	if field, err := checkDuplicates(ctx, deps, email, args.Phone, args.UserName); err != nil {
		return RegisterResult{Failure: RegisterFailureStore, Err: err}
	} else if field != "" {
		return RegisterResult{
			Failure: RegisterFailureConflict,
			Err:     errors.New("duplicate " + field),
			Field:   field,
		}
	}

	// The image requirement is reported only after uniqueness: a duplicate
	// identity outranks a missing upload.
	if args.ImageBody == nil {
		return RegisterResult{
			Failure: RegisterFailureValidation,
			Err:     errors.New("profile image is required"),
			Field:   "image",
		}
	}

	// Upload, hash, and token generation are independent; run them
	// concurrently and join before the store write.
	var (
		wg                           sync.WaitGroup
		imageURL                     string
		hash                         string
		token                        string
		uploadErr, hashErr, tokenErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		imageURL, uploadErr = deps.UploadImage(ctx, args.ImageBody, args.ImageName, args.ImageContentType, args.ImageSize)
	}()
	go func() {
		defer wg.Done()
		hash, hashErr = deps.HashPassword(args.Password)
	}()
	go func() {
		defer wg.Done()
		token, tokenErr = deps.NewVerificationToken()
	}()
	wg.Wait()

	// No account may exist without its stored image.
	if uploadErr != nil {
		return RegisterResult{Failure: RegisterFailureUpload, Err: uploadErr}
	}
	if hashErr != nil {
		return RegisterResult{Failure: RegisterFailureHash, Err: hashErr}
	}
	if tokenErr != nil {
		return RegisterResult{Failure: RegisterFailureToken, Err: tokenErr}
	}

	candidate := &store.Account{
		Email:           email,
		UserName:        args.UserName,
		Phone:           args.Phone,
		FullName:        args.FullName,
		Bio:             args.Bio,
		Location:        args.Location,
		DateOfBirth:     args.DateOfBirth,
		ProfileImageURL: imageURL,
		ProfileImageAlt: args.ImageAlt,
		PasswordHash:    hash,
		VerifyToken:     token,
		Role:            store.RoleUser,
		Status:          store.StatusActive,
	}

	created, err := deps.Store.Create(ctx, candidate)
	if err != nil {
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			return RegisterResult{
				Failure: RegisterFailureConflict,
				Err:     err,
				Field:   conflict.Field,
			}
		}
		return RegisterResult{Failure: RegisterFailureStore, Err: err}
	}

	// Mail dispatch failure must not fail a registration that already
	// committed.
	if deps.SendVerificationMail != nil {
		deps.SendVerificationMail(ctx, created.Email, token)
	}

	return RegisterResult{
		Failure: RegisterFailureNone,
		Account: created.Sanitized(),
	}
}

func validateRegisterArgs(args RegisterArgs) (field, reason string) {
	email := strings.TrimSpace(args.Email)
	switch {
	case email == "":
		return "email", "email is required"
	case !emailPattern.MatchString(email):
		return "email", "email is malformed"
	}

	switch {
	case args.UserName == "":
		return "userName", "userName is required"
	case len(args.UserName) < minUserNameLen || len(args.UserName) > maxUserNameLen:
		return "userName", "userName must be 3-30 characters"
	case !userNamePattern.MatchString(args.UserName):
		return "userName", "userName contains invalid characters"
	}

	if strings.TrimSpace(args.FullName) == "" {
		return "fullName", "fullName is required"
	}

	switch {
	case args.Password == "":
		return "password", "password is required"
	case len(args.Password) < minPasswordLen:
		return "password", "password must be at least 6 characters"
	}

	if args.Phone != "" && !phonePattern.MatchString(args.Phone) {
		return "phone", "phone is malformed"
	}
	if len(args.Bio) > maxBioLen {
		return "bio", "bio exceeds 500 characters"
	}
	if len(args.Location) > maxLocationLen {
		return "location", "location exceeds 100 characters"
	}
	return "", ""
}

func checkDuplicates(ctx context.Context, deps RegisterDeps, email, phone, userName string) (string, error) {
	if _, err := deps.Store.FindByEmail(ctx, email); err == nil {
		return "email", nil
	} else if !errors.Is(err, deps.NotFound) {
		return "", err
	}

	if phone != "" {
		if _, err := deps.Store.FindByPhone(ctx, phone); err == nil {
			return "phone", nil
		} else if !errors.Is(err, deps.NotFound) {
			return "", err
		}
	}

	if _, err := deps.Store.FindByUserName(ctx, userName); err == nil {
		return "userName", nil
	} else if !errors.Is(err, deps.NotFound) {
		return "", err
	}

	return "", nil
}
