// Package store persists account documents in Redis.
//
// # Layout
//
// Each account is a hash at <prefix>:acct:<id>. Unique identity fields map
// back to the id through plain string keys:
//
//	<prefix>:idx:email:<email>      (lowercased)
//	<prefix>:idx:username:<userName>
//	<prefix>:idx:phone:<phone>
//	<prefix>:idx:verify:<token>
//
// Index keys are claimed in the same Lua script that writes the document,
// so uniqueness holds under concurrent creation and the script can name
// the exact colliding field.
//
// # Conditional updates
//
// Every compare-and-act write (reset challenge consumption, refresh token
// rotation) runs server-side, either as a Lua script or inside a
// WATCH/MULTI transaction. Read-compare-write sequences never span two
// round trips.
package store
