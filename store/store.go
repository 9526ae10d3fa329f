package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/inkhaven/identity/password"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrChallengeInvalid is returned when a reset challenge is absent,
	// expired, or mismatched. The challenge is consumed either way.
	ErrChallengeInvalid = errors.New("reset challenge invalid")
	// ErrTokenNotFound is returned when a verification token was never
	// issued or has already been consumed.
	ErrTokenNotFound = errors.New("verification token not found")
	// ErrRefreshMismatch is returned when a refresh rotation presents a
	// token that is not the account's current one.
	ErrRefreshMismatch = errors.New("refresh token mismatch")
	// ErrMissingSecret is returned when an account would be written with
	// neither a password nor a password hash.
	ErrMissingSecret = errors.New("account requires a password or password hash")
	// ErrUnavailable wraps transport and scripting failures.
	ErrUnavailable = errors.New("account store unavailable")
)

// ConflictError reports a uniqueness violation and names the offending
// identity field ("email", "phone", or "userName").
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return "duplicate " + e.Field
}

// createAccountLua claims every unique index and writes the account hash in
// one step, or fails naming the first colliding field. Collision precedence
// is email, then phone, then userName.
//
// KEYS[1] = account hash key
// KEYS[2] = email index key
// KEYS[3] = userName index key
// KEYS[4] = phone index key (placeholder when ARGV[1] == "0")
// KEYS[5] = verification token index key (placeholder when ARGV[2] == "0")
// ARGV[1] = has phone flag, ARGV[2] = has verification token flag,
// ARGV[3] = account id, ARGV[4..] = flat field/value pairs
var createAccountLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
  return {err='email'}
end
if ARGV[1] == '1' and redis.call('EXISTS', KEYS[4]) == 1 then
  return {err='phone'}
end
if redis.call('EXISTS', KEYS[3]) == 1 then
  return {err='userName'}
end

local id = ARGV[3]
redis.call('SET', KEYS[2], id)
redis.call('SET', KEYS[3], id)
if ARGV[1] == '1' then
  redis.call('SET', KEYS[4], id)
end
if ARGV[2] == '1' then
  redis.call('SET', KEYS[5], id)
end
redis.call('HSET', KEYS[1], unpack(ARGV, 4))
return redis.status_reply('OK')
`)

// consumeResetLua validates and consumes a password reset challenge. A
// mismatched or expired challenge clears the otp fields before failing, so
// a challenge never survives a failed attempt.
//
// KEYS[1] = account hash key
// ARGV[1] = provided otp, ARGV[2] = now (unix), ARGV[3] = new password hash
var consumeResetLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {err='not_found'}
end
local vals = redis.call('HMGET', KEYS[1], 'otp', 'otpExpiry')
local otp = vals[1]
local expiry = tonumber(vals[2])
if not otp or otp == '' or not expiry then
  return {err='no_challenge'}
end
if tonumber(ARGV[2]) > expiry or otp ~= ARGV[1] then
  redis.call('HDEL', KEYS[1], 'otp', 'otpExpiry')
  return {err='challenge_failed'}
end
redis.call('HSET', KEYS[1], 'passwordHash', ARGV[3], 'updatedAt', ARGV[2])
redis.call('HDEL', KEYS[1], 'otp', 'otpExpiry')
return redis.status_reply('OK')
`)

// rotateRefreshLua replaces the refresh slot only when the presented token
// is the current one. A cleared or already-rotated slot fails the swap.
//
// KEYS[1] = account hash key
// ARGV[1] = presented token, ARGV[2] = replacement token, ARGV[3] = now
var rotateRefreshLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {err='not_found'}
end
local current = redis.call('HGET', KEYS[1], 'refreshToken')
if not current or current == '' or current ~= ARGV[1] then
  return {err='mismatch'}
end
redis.call('HSET', KEYS[1], 'refreshToken', ARGV[2], 'updatedAt', ARGV[3])
return redis.status_reply('OK')
`)

// hsetIfExistsLua guards partial updates against resurrecting a deleted
// account hash.
//
// KEYS[1] = account hash key, ARGV = flat field/value pairs
var hsetIfExistsLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {err='not_found'}
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return redis.status_reply('OK')
`)

// Store is the Redis-backed credential store. Each account lives in one
// hash document; unique identity fields are enforced through index keys
// claimed in the same script that writes the document.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	hasher *password.Argon2
}

// New returns a Store using the given client and key prefix. The hasher is
// applied as a save-time side effect whenever a plaintext secret reaches a
// write path.
func New(redisClient redis.UniversalClient, prefix string, hasher *password.Argon2) *Store {
	if prefix == "" {
		prefix = "idn"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
		hasher: hasher,
	}
}

func (s *Store) accountKey(id string) string {
	return s.prefix + ":acct:" + id
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":idx:email:" + strings.ToLower(email)
}

func (s *Store) userNameKey(userName string) string {
	return s.prefix + ":idx:username:" + userName
}

func (s *Store) phoneKey(phone string) string {
	return s.prefix + ":idx:phone:" + phone
}

func (s *Store) verifyKey(token string) string {
	return s.prefix + ":idx:verify:" + token
}

// Create persists a new account, claiming its unique indexes atomically.
// On collision it returns a ConflictError naming the first duplicate field
// in email, phone, userName order. Missing id, role, status, and timestamps
// are filled with defaults; a plaintext Password is hashed before the write.
func (s *Store) Create(ctx context.Context, candidate *Account) (*Account, error) {
	acct := *candidate
	acct.Email = strings.ToLower(strings.TrimSpace(acct.Email))

	if acct.PasswordHash == "" {
		if acct.Password == "" {
			return nil, ErrMissingSecret
		}
		hash, err := s.hasher.Hash(acct.Password)
		if err != nil {
			return nil, err
		}
		acct.PasswordHash = hash
	}
	acct.Password = ""

	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	if acct.Role == "" {
		acct.Role = RoleUser
	}
	if acct.Status == "" {
		acct.Status = StatusActive
	}
	now := time.Now().UTC()
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = now
	}
	acct.UpdatedAt = now

	doc, err := encodeAccount(&acct)
	if err != nil {
		return nil, err
	}

	hasPhone := "0"
	phoneKey := s.accountKey(acct.ID) // placeholder, untouched by the script
	if acct.Phone != "" {
		hasPhone = "1"
		phoneKey = s.phoneKey(acct.Phone)
	}
	hasVerify := "0"
	verifyKey := s.accountKey(acct.ID)
	if acct.VerifyToken != "" {
		hasVerify = "1"
		verifyKey = s.verifyKey(acct.VerifyToken)
	}

	argv := make([]interface{}, 0, 3+2*len(doc))
	argv = append(argv, hasPhone, hasVerify, acct.ID)
	for field, value := range doc {
		argv = append(argv, field, value)
	}

	keys := []string{
		s.accountKey(acct.ID),
		s.emailKey(acct.Email),
		s.userNameKey(acct.UserName),
		phoneKey,
		verifyKey,
	}
	if err := createAccountLua.Run(ctx, s.redis, keys, argv...).Err(); err != nil {
		switch err.Error() {
		case "email", "phone", "userName":
			return nil, &ConflictError{Field: err.Error()}
		default:
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return &acct, nil
}

// GetByID loads an account document.
func (s *Store) GetByID(ctx context.Context, id string) (*Account, error) {
	doc, err := s.redis.HGetAll(ctx, s.accountKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(doc) == 0 {
		return nil, ErrNotFound
	}
	return decodeAccount(doc)
}

// FindByEmail resolves the email index and loads the account. Lookup is
// case-insensitive.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.findByIndex(ctx, s.emailKey(strings.TrimSpace(email)))
}

// FindByUserName resolves the userName index and loads the account.
func (s *Store) FindByUserName(ctx context.Context, userName string) (*Account, error) {
	return s.findByIndex(ctx, s.userNameKey(userName))
}

// FindByPhone resolves the phone index and loads the account.
func (s *Store) FindByPhone(ctx context.Context, phone string) (*Account, error) {
	return s.findByIndex(ctx, s.phoneKey(phone))
}

func (s *Store) findByIndex(ctx context.Context, indexKey string) (*Account, error) {
	id, err := s.redis.Get(ctx, indexKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.GetByID(ctx, id)
}

// RecordLogin overwrites the refresh slot and stamps lastLogin. Whatever
// token occupied the slot before is no longer accepted for rotation.
func (s *Store) RecordLogin(ctx context.Context, id, refreshToken string, at time.Time) error {
	return s.updateFields(ctx, id,
		fieldRefreshToken, refreshToken,
		fieldLastLogin, encodeTime(at),
		fieldUpdatedAt, encodeTime(at),
	)
}

// RotateRefreshToken swaps the refresh slot from current to next only when
// current occupies it. ErrRefreshMismatch reports a stale or cleared token.
func (s *Store) RotateRefreshToken(ctx context.Context, id, current, next string) error {
	err := rotateRefreshLua.Run(ctx, s.redis,
		[]string{s.accountKey(id)},
		current, next, encodeTime(time.Now().UTC()),
	).Err()
	if err != nil {
		switch err.Error() {
		case "not_found":
			return ErrNotFound
		case "mismatch":
			return ErrRefreshMismatch
		default:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// ClearRefreshToken empties the refresh slot. Clearing an already-empty
// slot succeeds.
func (s *Store) ClearRefreshToken(ctx context.Context, id string) error {
	now := encodeTime(time.Now().UTC())
	return s.updateFields(ctx, id, fieldRefreshToken, "", fieldUpdatedAt, now)
}

// UpdatePasswordHash replaces the stored hash outside the reset path, for
// transparent parameter upgrades after a successful verify.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	now := encodeTime(time.Now().UTC())
	return s.updateFields(ctx, id, fieldPasswordHash, hash, fieldUpdatedAt, now)
}

// SetResetChallenge installs an OTP and its expiry in one update,
// displacing any previous challenge.
func (s *Store) SetResetChallenge(ctx context.Context, id, otp string, expiry time.Time) error {
	return s.updateFields(ctx, id,
		fieldOTP, otp,
		fieldOTPExpiry, encodeTime(expiry),
		fieldUpdatedAt, encodeTime(time.Now().UTC()),
	)
}

// ConsumeResetChallenge validates the OTP and, on match, writes the new
// password hash and clears the challenge in one script. Mismatch and expiry
// also clear the challenge before returning ErrChallengeInvalid; a
// challenge never survives a failed confirmation.
func (s *Store) ConsumeResetChallenge(ctx context.Context, id, otp, newPassword string, now time.Time) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	err = consumeResetLua.Run(ctx, s.redis,
		[]string{s.accountKey(id)},
		otp, now.Unix(), hash,
	).Err()
	if err != nil {
		switch err.Error() {
		case "not_found":
			return ErrNotFound
		case "no_challenge", "challenge_failed":
			return ErrChallengeInvalid
		default:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// SetVerificationToken installs a fresh verification token, retiring any
// previously issued one along with its index.
func (s *Store) SetVerificationToken(ctx context.Context, id, token string) error {
	acctKey := s.accountKey(id)

	txf := func(tx *redis.Tx) error {
		old, err := tx.HGet(ctx, acctKey, fieldVerifyToken).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if old != "" {
				pipe.Del(ctx, s.verifyKey(old))
			}
			pipe.HSet(ctx, acctKey,
				fieldVerifyToken, token,
				fieldUpdatedAt, encodeTime(time.Now().UTC()),
			)
			pipe.Set(ctx, s.verifyKey(token), id, 0)
			return nil
		})
		return err
	}

	return s.watchRetry(ctx, txf, acctKey)
}

// ConsumeVerificationToken marks the owning account verified and retires
// the token. A token that was never issued or was already consumed returns
// ErrTokenNotFound; the two cases are indistinguishable.
func (s *Store) ConsumeVerificationToken(ctx context.Context, token string) (string, error) {
	idxKey := s.verifyKey(token)
	var accountID string

	txf := func(tx *redis.Tx) error {
		id, err := tx.Get(ctx, idxKey).Result()
		if errors.Is(err, redis.Nil) {
			return ErrTokenNotFound
		}
		if err != nil {
			return err
		}

		stored, err := tx.HGet(ctx, s.accountKey(id), fieldVerifyToken).Result()
		if errors.Is(err, redis.Nil) || (err == nil && stored != token) {
			// Stale index; drop it and report the token gone.
			tx.Del(ctx, idxKey)
			return ErrTokenNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.accountKey(id),
				fieldIsVerified, "1",
				fieldVerifyToken, "",
				fieldUpdatedAt, encodeTime(time.Now().UTC()),
			)
			pipe.Del(ctx, idxKey)
			return nil
		})
		if err != nil {
			return err
		}
		accountID = id
		return nil
	}

	if err := s.watchRetry(ctx, txf, idxKey); err != nil {
		return "", err
	}
	return accountID, nil
}

// SetStatus applies a lifecycle transition.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	now := encodeTime(time.Now().UTC())
	return s.updateFields(ctx, id, fieldStatus, string(status), fieldUpdatedAt, now)
}

// Ping reports whether the backing Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) updateFields(ctx context.Context, id string, pairs ...interface{}) error {
	err := hsetIfExistsLua.Run(ctx, s.redis, []string{s.accountKey(id)}, pairs...).Err()
	if err != nil {
		if err.Error() == "not_found" {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

const watchAttempts = 3

func (s *Store) watchRetry(ctx context.Context, txf func(tx *redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < watchAttempts; i++ {
		err = s.redis.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrTokenNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
