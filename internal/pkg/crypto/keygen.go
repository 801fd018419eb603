// Package crypto provides token generation and hashing utilities for Ladle.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenByteLength is the number of random bytes in an auth token.
// Hex encoding doubles it to the 40-character string handed to clients.
const TokenByteLength = 20

// GenerateToken generates a random 40-character hex auth token.
// Example: "9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b"
func GenerateToken() (string, error) {
	buf := make([]byte, TokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
