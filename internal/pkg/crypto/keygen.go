// Package crypto provides cryptographic utilities for the gallery.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SigningSecretSize is the number of random bytes in a generated signing secret.
const SigningSecretSize = 32

// GenerateSigningSecret generates a random 32-byte secret for token signing.
// Returns the secret as a 64-character hex string.
func GenerateSigningSecret() (string, error) {
	key := make([]byte, SigningSecretSize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate signing secret: %w", err)
	}
	return hex.EncodeToString(key), nil
}
