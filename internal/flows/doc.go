// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunRegister, RunLogin, RunRefresh, etc.) accepts a typed
// dependency struct and returns a Result carrying either the success payload or
// a FailureKind the root package maps onto its public error taxonomy, metrics,
// and audit events. This design enables exhaustive unit testing with mock
// dependencies and keeps the Engine type thin.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the credential store, token manager,
// secret hasher, uploader, and mail dispatcher. They do NOT own any of these
// resources — ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root identity package (to avoid import cycles).
//   - Emit metrics or audit events — classification happens here, recording
//     happens at the root.
package flows
