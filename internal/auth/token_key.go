package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// tokenKey derives a draft-session key from a bearer token when the caller
// sent no X-User-Id. Tokens rotate, so such sessions are short-lived.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "tok:" + hex.EncodeToString(sum[:8])
}
