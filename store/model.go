package store

import (
	"encoding/json"
	"strconv"
	"time"
)

// Role is the authorization role carried on an account and inside access
// tokens.
type Role string

const (
	// RoleUser is the default role assigned at registration.
	RoleUser Role = "user"
	// RoleAdmin grants full administrative access.
	RoleAdmin Role = "admin"
	// RoleEditor grants content editing access.
	RoleEditor Role = "editor"
	// RoleModerator grants moderation access.
	RoleModerator Role = "moderator"
)

// ValidRole reports whether r is one of the defined roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleEditor, RoleModerator:
		return true
	}
	return false
}

// Status is the lifecycle state of an account. Only active accounts may
// authenticate.
type Status string

const (
	// StatusActive permits authentication.
	StatusActive Status = "active"
	// StatusInactive blocks authentication without implying misconduct.
	StatusInactive Status = "inactive"
	// StatusBanned blocks authentication permanently.
	StatusBanned Status = "banned"
)

// ValidStatus reports whether s is one of the defined statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusInactive, StatusBanned:
		return true
	}
	return false
}

// Account is the credential and profile document persisted per identity.
//
// Password carries a plaintext secret only on the way into Create; it is
// hashed before any write and never persisted. The weak-reference lists
// (Blogs, Followers, ...) are carried for other subsystems and never
// interpreted here.
type Account struct {
	ID       string
	Email    string
	UserName string
	Phone    string

	FullName        string
	Bio             string
	Location        string
	DateOfBirth     string
	ProfileImageURL string
	ProfileImageAlt string

	Role       Role
	Status     Status
	IsVerified bool

	Password     string
	PasswordHash string
	RefreshToken string
	LastLogin    time.Time

	OTP       string
	OTPExpiry time.Time

	VerifyToken string

	Blogs             []string
	LikedBlogs        []string
	Bookmarks         []string
	Followers         []string
	Following         []string
	FollowingChannels []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sanitized returns a copy of the account with every secret-bearing field
// cleared. This is the only form workflows hand back to callers.
func (a *Account) Sanitized() *Account {
	out := *a
	out.Password = ""
	out.PasswordHash = ""
	out.RefreshToken = ""
	out.OTP = ""
	out.OTPExpiry = time.Time{}
	out.VerifyToken = ""
	return &out
}

// Hash field names of the persisted account document.
const (
	fieldID              = "id"
	fieldEmail           = "email"
	fieldUserName        = "userName"
	fieldPhone           = "phone"
	fieldFullName        = "fullName"
	fieldBio             = "bio"
	fieldLocation        = "location"
	fieldDateOfBirth     = "dateOfBirth"
	fieldProfileImageURL = "profileImageUrl"
	fieldProfileImageAlt = "profileImageAlt"
	fieldRole            = "role"
	fieldStatus          = "status"
	fieldIsVerified      = "isVerified"
	fieldPasswordHash    = "passwordHash"
	fieldRefreshToken    = "refreshToken"
	fieldLastLogin       = "lastLogin"
	fieldOTP             = "otp"
	fieldOTPExpiry       = "otpExpiry"
	fieldVerifyToken     = "verifyToken"
	fieldBlogs           = "blogs"
	fieldLikedBlogs      = "likedBlogs"
	fieldBookmarks       = "bookmarks"
	fieldFollowers       = "followers"
	fieldFollowing       = "following"
	fieldFollowingChans  = "followingChannels"
	fieldCreatedAt       = "createdAt"
	fieldUpdatedAt       = "updatedAt"
)

func encodeAccount(a *Account) (map[string]string, error) {
	doc := map[string]string{
		fieldID:              a.ID,
		fieldEmail:           a.Email,
		fieldUserName:        a.UserName,
		fieldPhone:           a.Phone,
		fieldFullName:        a.FullName,
		fieldBio:             a.Bio,
		fieldLocation:        a.Location,
		fieldDateOfBirth:     a.DateOfBirth,
		fieldProfileImageURL: a.ProfileImageURL,
		fieldProfileImageAlt: a.ProfileImageAlt,
		fieldRole:            string(a.Role),
		fieldStatus:          string(a.Status),
		fieldIsVerified:      encodeBool(a.IsVerified),
		fieldPasswordHash:    a.PasswordHash,
		fieldRefreshToken:    a.RefreshToken,
		fieldLastLogin:       encodeTime(a.LastLogin),
		fieldOTP:             a.OTP,
		fieldOTPExpiry:       encodeTime(a.OTPExpiry),
		fieldVerifyToken:     a.VerifyToken,
		fieldCreatedAt:       encodeTime(a.CreatedAt),
		fieldUpdatedAt:       encodeTime(a.UpdatedAt),
	}

	lists := map[string][]string{
		fieldBlogs:          a.Blogs,
		fieldLikedBlogs:     a.LikedBlogs,
		fieldBookmarks:      a.Bookmarks,
		fieldFollowers:      a.Followers,
		fieldFollowing:      a.Following,
		fieldFollowingChans: a.FollowingChannels,
	}
	for field, list := range lists {
		encoded, err := encodeList(list)
		if err != nil {
			return nil, err
		}
		doc[field] = encoded
	}

	return doc, nil
}

func decodeAccount(doc map[string]string) (*Account, error) {
	a := &Account{
		ID:              doc[fieldID],
		Email:           doc[fieldEmail],
		UserName:        doc[fieldUserName],
		Phone:           doc[fieldPhone],
		FullName:        doc[fieldFullName],
		Bio:             doc[fieldBio],
		Location:        doc[fieldLocation],
		DateOfBirth:     doc[fieldDateOfBirth],
		ProfileImageURL: doc[fieldProfileImageURL],
		ProfileImageAlt: doc[fieldProfileImageAlt],
		Role:            Role(doc[fieldRole]),
		Status:          Status(doc[fieldStatus]),
		IsVerified:      doc[fieldIsVerified] == "1",
		PasswordHash:    doc[fieldPasswordHash],
		RefreshToken:    doc[fieldRefreshToken],
		OTP:             doc[fieldOTP],
		VerifyToken:     doc[fieldVerifyToken],
	}

	var err error
	if a.LastLogin, err = decodeTime(doc[fieldLastLogin]); err != nil {
		return nil, err
	}
	if a.OTPExpiry, err = decodeTime(doc[fieldOTPExpiry]); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = decodeTime(doc[fieldCreatedAt]); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = decodeTime(doc[fieldUpdatedAt]); err != nil {
		return nil, err
	}

	if a.Blogs, err = decodeList(doc[fieldBlogs]); err != nil {
		return nil, err
	}
	if a.LikedBlogs, err = decodeList(doc[fieldLikedBlogs]); err != nil {
		return nil, err
	}
	if a.Bookmarks, err = decodeList(doc[fieldBookmarks]); err != nil {
		return nil, err
	}
	if a.Followers, err = decodeList(doc[fieldFollowers]); err != nil {
		return nil, err
	}
	if a.Following, err = decodeList(doc[fieldFollowing]); err != nil {
		return nil, err
	}
	if a.FollowingChannels, err = decodeList(doc[fieldFollowingChans]); err != nil {
		return nil, err
	}

	return a, nil
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func decodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	unix, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0).UTC(), nil
}

func encodeList(list []string) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeList(s string) ([]string, error) {
	if s == "" || s == "[]" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, err
	}
	return list, nil
}
