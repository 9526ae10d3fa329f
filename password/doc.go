// Package password implements secret hashing and verification with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Because the salt and parameters travel inside the string, verification needs
// no state beyond the string itself. [Argon2.NeedsUpgrade] reports hashes
// produced under weaker parameters so callers can re-hash on the next
// successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. It never stores secrets,
// never logs plaintext, and imports no other package of this module.
package password
