package identity

import (
	"io"

	internalaudit "github.com/inkhaven/identity/internal/audit"
	"github.com/inkhaven/identity/store"
)

// Account is the credential and profile document managed by the Engine.
// Results returned from Engine operations are always sanitized copies with
// secret-bearing fields cleared.
type Account = store.Account

// Role is the authorization role carried on accounts and access tokens.
type Role = store.Role

// Status is the account lifecycle state.
type Status = store.Status

// Re-exported role and status values.
const (
	RoleUser      = store.RoleUser
	RoleAdmin     = store.RoleAdmin
	RoleEditor    = store.RoleEditor
	RoleModerator = store.RoleModerator

	StatusActive   = store.StatusActive
	StatusInactive = store.StatusInactive
	StatusBanned   = store.StatusBanned
)

// TokenPair is the access/refresh pair issued on login and rotation.
type TokenPair struct {
	Access  string
	Refresh string
}

// LoginResult carries the sanitized account and its fresh token pair.
type LoginResult struct {
	Account *Account
	Tokens  TokenPair
}

// AuthResult is returned by [Engine.Validate]. It contains the identity an
// access token asserts, ready for request-scoped authorization decisions.
type AuthResult struct {
	AccountID string
	Email     string
	UserName  string
	Role      Role
}

// RegisterInput is the caller-supplied material for a new account. Image
// content is required; the uploader stores it and only the resulting URL is
// persisted.
type RegisterInput struct {
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

// AuditEvent is the structured record emitted for security-relevant
// operations.
type AuditEvent = internalaudit.Event

// AuditSink consumes emitted audit events.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events in a channel, mainly for tests.
type ChannelSink = internalaudit.ChannelSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink { return internalaudit.NewChannelSink(buffer) }

// JSONWriterSink writes one JSON audit record per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewJSONWriterSink returns a JSONWriterSink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return internalaudit.NewJSONWriterSink(w) }
