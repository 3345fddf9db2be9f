// Package token generates opaque URL-safe credentials for the password
// reset flow.
package token

import (
	"crypto/rand"
	"encoding/base64"
)

// entropyBytes is the number of random bytes per token.
const entropyBytes = 32

// Generate returns a cryptographically random, URL-safe token string.
func Generate() (string, error) {
	b := make([]byte, entropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
