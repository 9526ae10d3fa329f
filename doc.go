// Package identity is the identity and session lifecycle subsystem of the
// inkhaven blog backend: registration with profile assets, credential
// verification, JWT access tokens with rotating refresh tokens, email
// verification, and OTP password resets, all backed by Redis.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// identity is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Account, TokenPair, MetricsSnapshot, AuditEvent). Flow
// orchestration and audit dispatch live under internal/ and are never
// exported; the store, jwt, password, mail, and upload packages are importable
// building blocks with no dependency back on this package.
//
// # What this package must NOT do
//
//   - Expose Redis clients, key layouts, or hash encodings in its public API.
//   - Return accounts with secret-bearing fields populated.
//   - Perform I/O before Build or after Close.
//
// # Performance contract
//
// Validate is the hot path: pure signature verification with no Redis
// round-trip unless [ValidateConfig].CheckAccountStatus is on. Login,
// Refresh, and the mutation flows are allowed one Redis round-trip each;
// mail delivery never extends a request, it is queued and handled by a
// background worker.
package identity
