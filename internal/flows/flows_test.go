package flows

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/inkhaven/identity/store"
)

var (
	errNotFound = errors.New("not found")
	errMismatch = errors.New("refresh mismatch")
)

// fakeRegisterStore serves duplicate pre-checks from fixed sets and records
// whether Create ran.
type fakeRegisterStore struct {
	emails    map[string]bool
	phones    map[string]bool
	userNames map[string]bool

	created   *store.Account
	createErr error
}

func (f *fakeRegisterStore) FindByEmail(_ context.Context, email string) (*store.Account, error) {
	if f.emails[email] {
		return &store.Account{Email: email}, nil
	}
	return nil, errNotFound
}

func (f *fakeRegisterStore) FindByUserName(_ context.Context, userName string) (*store.Account, error) {
	if f.userNames[userName] {
		return &store.Account{UserName: userName}, nil
	}
	return nil, errNotFound
}

func (f *fakeRegisterStore) FindByPhone(_ context.Context, phone string) (*store.Account, error) {
	if f.phones[phone] {
		return &store.Account{Phone: phone}, nil
	}
	return nil, errNotFound
}

func (f *fakeRegisterStore) Create(_ context.Context, candidate *store.Account) (*store.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *candidate
	out.ID = "acct-1"
	f.created = &out
	return &out, nil
}

func validRegisterArgs() RegisterArgs {
	return RegisterArgs{
		Email:            "New@Example.com",
		UserName:         "newuser",
		Password:         "long-enough",
		Phone:            "+15550101",
		FullName:         "New User",
		ImageBody:        strings.NewReader("png"),
		ImageName:        "avatar.png",
		ImageContentType: "image/png",
		ImageSize:        3,
	}
}

func newRegisterDeps(st *fakeRegisterStore) RegisterDeps {
	return RegisterDeps{
		Store:                st,
		HashPassword:         func(string) (string, error) { return "$argon2id$hash", nil },
		NewVerificationToken: func() (string, error) { return "tok", nil },
		UploadImage: func(_ context.Context, _ io.Reader, name, _ string, _ int64) (string, error) {
			return "https://cdn.example.test/" + name, nil
		},
		NotFound: errNotFound,
	}
}

func TestRunRegisterValidationPrecedence(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegisterArgs)
		field  string
	}{
		{"missing email", func(a *RegisterArgs) { a.Email = "" }, "email"},
		{"malformed email", func(a *RegisterArgs) { a.Email = "not-an-email" }, "email"},
		{"short user name", func(a *RegisterArgs) { a.UserName = "ab" }, "userName"},
		{"user name charset", func(a *RegisterArgs) { a.UserName = "bad name!" }, "userName"},
		{"blank full name", func(a *RegisterArgs) { a.FullName = " " }, "fullName"},
		{"short password", func(a *RegisterArgs) { a.Password = "five5" }, "password"},
		{"malformed phone", func(a *RegisterArgs) { a.Phone = "not-a-phone" }, "phone"},
		{"oversized bio", func(a *RegisterArgs) { a.Bio = strings.Repeat("x", 501) }, "bio"},
		{"missing image", func(a *RegisterArgs) { a.ImageBody = nil }, "image"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := validRegisterArgs()
			tc.mutate(&args)

			st := &fakeRegisterStore{}
			res := RunRegister(context.Background(), args, newRegisterDeps(st))
			if res.Failure != RegisterFailureValidation {
				t.Fatalf("expected validation failure, got %d (%v)", res.Failure, res.Err)
			}
			if res.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, res.Field)
			}
			if st.created != nil {
				t.Fatal("invalid input must not reach the store")
			}
		})
	}
}

func TestRunRegisterDuplicatePrecedence(t *testing.T) {
	// All three identity fields collide; email must win, then phone,
	// then userName.
	st := &fakeRegisterStore{
		emails:    map[string]bool{"new@example.com": true},
		phones:    map[string]bool{"+15550101": true},
		userNames: map[string]bool{"newuser": true},
	}

	res := RunRegister(context.Background(), validRegisterArgs(), newRegisterDeps(st))
	if res.Failure != RegisterFailureConflict || res.Field != "email" {
		t.Fatalf("expected email conflict, got %d / %q", res.Failure, res.Field)
	}

	st.emails = nil
	res = RunRegister(context.Background(), validRegisterArgs(), newRegisterDeps(st))
	if res.Failure != RegisterFailureConflict || res.Field != "phone" {
		t.Fatalf("expected phone conflict, got %d / %q", res.Failure, res.Field)
	}

	st.phones = nil
	res = RunRegister(context.Background(), validRegisterArgs(), newRegisterDeps(st))
	if res.Failure != RegisterFailureConflict || res.Field != "userName" {
		t.Fatalf("expected userName conflict, got %d / %q", res.Failure, res.Field)
	}
}

func TestRunRegisterConflictOutranksMissingImage(t *testing.T) {
	st := &fakeRegisterStore{emails: map[string]bool{"new@example.com": true}}

	args := validRegisterArgs()
	args.ImageBody = nil
	res := RunRegister(context.Background(), args, newRegisterDeps(st))
	if res.Failure != RegisterFailureConflict || res.Field != "email" {
		t.Fatalf("expected email conflict before image check, got %d / %q", res.Failure, res.Field)
	}
}

func TestRunRegisterUploadFailureBlocksCreate(t *testing.T) {
	st := &fakeRegisterStore{}
	deps := newRegisterDeps(st)
	deps.UploadImage = func(context.Context, io.Reader, string, string, int64) (string, error) {
		return "", errors.New("bucket unreachable")
	}

	var mailed bool
	deps.SendVerificationMail = func(context.Context, string, string) { mailed = true }

	res := RunRegister(context.Background(), validRegisterArgs(), deps)
	if res.Failure != RegisterFailureUpload {
		t.Fatalf("expected upload failure, got %d (%v)", res.Failure, res.Err)
	}
	if st.created != nil {
		t.Fatal("no account may exist without its stored image")
	}
	if mailed {
		t.Fatal("no mail may go out for an account that was not created")
	}
}

func TestRunRegisterNormalizesAndSanitizes(t *testing.T) {
	st := &fakeRegisterStore{}
	var mailedTo, mailedToken string
	deps := newRegisterDeps(st)
	deps.SendVerificationMail = func(_ context.Context, email, token string) {
		mailedTo, mailedToken = email, token
	}

	res := RunRegister(context.Background(), validRegisterArgs(), deps)
	if res.Failure != RegisterFailureNone {
		t.Fatalf("expected success, got %d (%v)", res.Failure, res.Err)
	}

	if st.created.Email != "new@example.com" {
		t.Fatalf("expected lowercased email, got %q", st.created.Email)
	}
	if st.created.Role != store.RoleUser || st.created.Status != store.StatusActive {
		t.Fatalf("expected user/active defaults, got %s/%s", st.created.Role, st.created.Status)
	}
	if mailedTo != "new@example.com" || mailedToken != "tok" {
		t.Fatalf("expected verification mail dispatch, got %q / %q", mailedTo, mailedToken)
	}

	if res.Account.PasswordHash != "" || res.Account.VerifyToken != "" {
		t.Fatal("returned account must be sanitized")
	}
}

// fakeRefreshStore holds one account and its refresh slot.
type fakeRefreshStore struct {
	acct    *store.Account
	slot    string
	cleared bool
}

func (f *fakeRefreshStore) GetByID(_ context.Context, id string) (*store.Account, error) {
	if f.acct == nil || f.acct.ID != id {
		return nil, errNotFound
	}
	return f.acct, nil
}

func (f *fakeRefreshStore) RotateRefreshToken(_ context.Context, id, presented, next string) error {
	if f.acct == nil || f.acct.ID != id {
		return errNotFound
	}
	if f.slot != presented {
		return errMismatch
	}
	f.slot = next
	return nil
}

func (f *fakeRefreshStore) ClearRefreshToken(_ context.Context, id string) error {
	if f.acct == nil || f.acct.ID != id {
		return errNotFound
	}
	f.slot = ""
	f.cleared = true
	return nil
}

func refreshDeps(st *fakeRefreshStore) RefreshDeps {
	n := 0
	return RefreshDeps{
		Store:        st,
		ParseRefresh: func(string) (string, error) { return "acct-1", nil },
		CreateAccess: func(uid, _, _, _ string) (string, error) { return "access-" + uid, nil },
		CreateRefresh: func(uid string) (string, error) {
			n++
			return "refresh-" + uid + "-" + string(rune('0'+n)), nil
		},
		RequireVerified: true,
		NotFound:        errNotFound,
		RefreshMismatch: errMismatch,
	}
}

func activeVerifiedAccount() *store.Account {
	return &store.Account{
		ID:         "acct-1",
		Email:      "a@example.com",
		UserName:   "a",
		Role:       store.RoleUser,
		Status:     store.StatusActive,
		IsVerified: true,
	}
}

func TestRunRefreshRotatesSlot(t *testing.T) {
	st := &fakeRefreshStore{acct: activeVerifiedAccount(), slot: "old"}
	deps := refreshDeps(st)
	deps.ParseRefresh = func(presented string) (string, error) {
		if presented != "old" {
			t.Fatalf("unexpected presented token %q", presented)
		}
		return "acct-1", nil
	}

	res := RunRefresh(context.Background(), "old", deps)
	if res.Failure != RefreshFailureNone {
		t.Fatalf("expected success, got %d (%v)", res.Failure, res.Err)
	}
	if st.slot != res.RefreshToken {
		t.Fatalf("store slot %q must hold the issued token %q", st.slot, res.RefreshToken)
	}
	if res.AccessToken == "" {
		t.Fatal("expected a fresh access token")
	}
}

func TestRunRefreshStalePresentedIsReuse(t *testing.T) {
	st := &fakeRefreshStore{acct: activeVerifiedAccount(), slot: "current"}

	res := RunRefresh(context.Background(), "stale", refreshDeps(st))
	if res.Failure != RefreshFailureReuse {
		t.Fatalf("expected reuse classification, got %d (%v)", res.Failure, res.Err)
	}
	if st.slot != "current" {
		t.Fatalf("a failed swap must not move the slot, got %q", st.slot)
	}
}

func TestRunRefreshDisqualifiedAccountClearsSlot(t *testing.T) {
	st := &fakeRefreshStore{acct: activeVerifiedAccount(), slot: "old"}
	st.acct.Status = store.StatusInactive

	res := RunRefresh(context.Background(), "old", refreshDeps(st))
	if res.Failure != RefreshFailureInactive {
		t.Fatalf("expected inactive classification, got %d (%v)", res.Failure, res.Err)
	}
	if !st.cleared || st.slot != "" {
		t.Fatal("an already committed rotation must be revoked for a disqualified account")
	}
}

func TestRunRefreshUnverifiedClearsSlotWhenGated(t *testing.T) {
	st := &fakeRefreshStore{acct: activeVerifiedAccount(), slot: "old"}
	st.acct.IsVerified = false

	res := RunRefresh(context.Background(), "old", refreshDeps(st))
	if res.Failure != RefreshFailureUnverified {
		t.Fatalf("expected unverified classification, got %d (%v)", res.Failure, res.Err)
	}
	if !st.cleared {
		t.Fatal("expected slot revocation")
	}

	// Without the gate the same account refreshes fine.
	st = &fakeRefreshStore{acct: activeVerifiedAccount(), slot: "old"}
	st.acct.IsVerified = false
	deps := refreshDeps(st)
	deps.RequireVerified = false

	if res := RunRefresh(context.Background(), "old", deps); res.Failure != RefreshFailureNone {
		t.Fatalf("expected success without verification gate, got %d (%v)", res.Failure, res.Err)
	}
}

// fakeLoginStore records the refresh token and password hash writes login
// performs.
type fakeLoginStore struct {
	acct        *store.Account
	recordedAt  time.Time
	recToken    string
	rehashedTo  string
	recordErr   error
	rehashCalls int
}

func (f *fakeLoginStore) FindByEmail(_ context.Context, email string) (*store.Account, error) {
	if f.acct == nil || f.acct.Email != email {
		return nil, errNotFound
	}
	return f.acct, nil
}

func (f *fakeLoginStore) RecordLogin(_ context.Context, id, refreshToken string, at time.Time) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recToken = refreshToken
	f.recordedAt = at
	return nil
}

func (f *fakeLoginStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.rehashCalls++
	f.rehashedTo = hash
	return nil
}

func loginDeps(st *fakeLoginStore) LoginDeps {
	return LoginDeps{
		Store: st,
		VerifyPassword: func(password, phc string) (bool, bool, error) {
			return password == "correct", false, nil
		},
		HashPassword:    func(string) (string, error) { return "$argon2id$fresh", nil },
		CreateAccess:    func(uid, _, _, _ string) (string, error) { return "access-" + uid, nil },
		CreateRefresh:   func(uid string) (string, error) { return "refresh-" + uid, nil },
		RequireVerified: true,
		NotFound:        errNotFound,
	}
}

func TestRunLoginRecordsRefreshToken(t *testing.T) {
	st := &fakeLoginStore{acct: activeVerifiedAccount()}
	st.acct.Email = "a@example.com"

	res := RunLogin(context.Background(), LoginArgs{Email: " A@Example.COM ", Password: "correct"}, loginDeps(st))
	if res.Failure != LoginFailureNone {
		t.Fatalf("expected success, got %d (%v)", res.Failure, res.Err)
	}
	if st.recToken != res.RefreshToken {
		t.Fatalf("stored refresh %q must match issued %q", st.recToken, res.RefreshToken)
	}
	if st.recordedAt.IsZero() {
		t.Fatal("expected a login timestamp")
	}
	if res.Account.PasswordHash != "" {
		t.Fatal("returned account must be sanitized")
	}
}

func TestRunLoginRehashOnUpgrade(t *testing.T) {
	st := &fakeLoginStore{acct: activeVerifiedAccount()}
	deps := loginDeps(st)
	deps.RehashOnLogin = true
	deps.VerifyPassword = func(password, _ string) (bool, bool, error) {
		return password == "correct", true, nil
	}

	res := RunLogin(context.Background(), LoginArgs{Email: "a@example.com", Password: "correct"}, deps)
	if res.Failure != LoginFailureNone {
		t.Fatalf("expected success, got %d (%v)", res.Failure, res.Err)
	}
	if st.rehashCalls != 1 || st.rehashedTo != "$argon2id$fresh" {
		t.Fatalf("expected one rehash to the fresh hash, got %d / %q", st.rehashCalls, st.rehashedTo)
	}
}

func TestRunLoginClassifiesFailures(t *testing.T) {
	st := &fakeLoginStore{acct: activeVerifiedAccount()}

	if res := RunLogin(context.Background(), LoginArgs{Email: "missing@example.com", Password: "correct"}, loginDeps(st)); res.Failure != LoginFailureNotFound {
		t.Fatalf("expected not-found, got %d", res.Failure)
	}
	if res := RunLogin(context.Background(), LoginArgs{Email: "a@example.com", Password: "wrong"}, loginDeps(st)); res.Failure != LoginFailureBadCredentials {
		t.Fatalf("expected bad credentials, got %d", res.Failure)
	}

	st.acct.Status = store.StatusBanned
	if res := RunLogin(context.Background(), LoginArgs{Email: "a@example.com", Password: "correct"}, loginDeps(st)); res.Failure != LoginFailureInactive {
		t.Fatalf("expected inactive, got %d", res.Failure)
	}

	st.acct.Status = store.StatusActive
	st.acct.IsVerified = false
	if res := RunLogin(context.Background(), LoginArgs{Email: "a@example.com", Password: "correct"}, loginDeps(st)); res.Failure != LoginFailureUnverified {
		t.Fatalf("expected unverified, got %d", res.Failure)
	}
}

// fakeResetStore implements the reset challenge surface.
type fakeResetStore struct {
	acct       *store.Account
	otp        string
	expiry     time.Time
	consumed   bool
	consumeErr error
}

func (f *fakeResetStore) FindByEmail(_ context.Context, email string) (*store.Account, error) {
	if f.acct == nil || f.acct.Email != email {
		return nil, errNotFound
	}
	return f.acct, nil
}

func (f *fakeResetStore) SetResetChallenge(_ context.Context, id, otp string, expiry time.Time) error {
	f.otp, f.expiry = otp, expiry
	return nil
}

func (f *fakeResetStore) ConsumeResetChallenge(_ context.Context, id, otp, newPassword string, now time.Time) error {
	if f.consumeErr != nil {
		return f.consumeErr
	}
	f.consumed = true
	return nil
}

func resetDeps(st *fakeResetStore) PasswordResetDeps {
	return PasswordResetDeps{
		Store:            st,
		NewOTP:           func(digits int) (string, error) { return strings.Repeat("7", digits), nil },
		OTPDigits:        6,
		ResetTTL:         10 * time.Minute,
		NotFound:         errNotFound,
		ChallengeInvalid: errMismatch,
	}
}

func TestRunRequestPasswordResetIssuesChallenge(t *testing.T) {
	st := &fakeResetStore{acct: activeVerifiedAccount()}
	var mailedOTP string
	deps := resetDeps(st)
	deps.SendResetMail = func(_ context.Context, _ string, otp string, _ time.Duration) {
		mailedOTP = otp
	}

	res := RunRequestPasswordReset(context.Background(), "a@example.com", deps)
	if res.Failure != ResetFailureNone {
		t.Fatalf("expected success, got %d (%v)", res.Failure, res.Err)
	}
	if st.otp != "777777" || mailedOTP != "777777" {
		t.Fatalf("expected stored and mailed OTP to match, got %q / %q", st.otp, mailedOTP)
	}
	if st.expiry.IsZero() {
		t.Fatal("expected an expiry on the challenge")
	}
}

func TestRunConfirmPasswordResetValidation(t *testing.T) {
	st := &fakeResetStore{acct: activeVerifiedAccount()}

	args := ConfirmResetArgs{Email: "a@example.com", OTP: "777777", NewPassword: "fresh-secret", ConfirmPassword: "fresh-secret"}

	bad := args
	bad.OTP = ""
	if res := RunConfirmPasswordReset(context.Background(), bad, resetDeps(st)); res.Failure != ResetFailureValidation {
		t.Fatalf("expected validation failure for empty otp, got %d", res.Failure)
	}

	bad = args
	bad.NewPassword = "tiny"
	bad.ConfirmPassword = "tiny"
	if res := RunConfirmPasswordReset(context.Background(), bad, resetDeps(st)); res.Failure != ResetFailureValidation {
		t.Fatalf("expected validation failure for short password, got %d", res.Failure)
	}

	bad = args
	bad.ConfirmPassword = "different"
	if res := RunConfirmPasswordReset(context.Background(), bad, resetDeps(st)); res.Failure != ResetFailureValidation {
		t.Fatalf("expected validation failure for mismatch, got %d", res.Failure)
	}

	if res := RunConfirmPasswordReset(context.Background(), args, resetDeps(st)); res.Failure != ResetFailureNone {
		t.Fatalf("expected success, got %d (%v)", res.Failure, res.Err)
	}
	if !st.consumed {
		t.Fatal("expected challenge consumption")
	}

	st.consumeErr = errMismatch
	if res := RunConfirmPasswordReset(context.Background(), args, resetDeps(st)); res.Failure != ResetFailureChallenge {
		t.Fatalf("expected challenge failure, got %d", res.Failure)
	}
}
