// Package jwt issues and verifies the two session token kinds (access and
// refresh) with strict validation semantics: pinned algorithms, optional
// issuer/audience checks, bounded clock skew, and a cap on future iat.
package jwt
