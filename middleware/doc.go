// Package middleware exposes HTTP adapters for request authentication built
// on top of identity.Engine validation.
//
// # Guards
//
//   - [Guard] — authenticates the request and injects the resulting identity
//     into the request context.
//   - [RequireRole] — gates a route on the authenticated role; runs inside
//     [Guard].
//
// Guard reads the access token from the Authorization header or the
// accessToken cookie, calls Engine.Validate, and stores the [identity.AuthResult]
// where [AuthFromContext] can retrieve it.
//
// This package translates HTTP semantics into Engine calls. It does not parse
// tokens or touch Redis itself; all decisions beyond pass/reject come from
// Engine.Validate.
package middleware
