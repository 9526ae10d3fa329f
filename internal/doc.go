// Package internal contains helpers that are intentionally private to the
// identity module, including secure random generation for verification
// tokens and one-time codes.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//   - flows — pure-function flow orchestrators for every Engine operation
//
// # What this package must NOT do
//
//   - Export types that appear in the public identity API.
//   - Be imported by any package outside this module.
package internal
