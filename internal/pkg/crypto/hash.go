package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestToken returns the hex-encoded SHA-256 digest of a token.
// Only digests are persisted; the raw token never touches the database.
func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
