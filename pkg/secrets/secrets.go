// Package secrets covers the two credential-shaped needs of the invitation
// lifecycle: opaque single-use tokens and bcrypt-hashed login credentials.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "atrium/pkg/domain-errors"
)

// tokenBytes gives 256 bits of entropy, well past the point where invitation
// tokens could be guessed or enumerated. Tokens are never derived from email
// or time.
const tokenBytes = 32

// GenerateToken creates a cryptographically random, URL-safe opaque token.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RedactToken returns a short prefix safe to put in logs. Full tokens must
// never appear in any externally visible channel.
func RedactToken(token string) string {
	const visible = 6
	if len(token) <= visible {
		return "…"
	}
	return token[:visible] + "…"
}

// HashCredential creates a bcrypt hash of a login credential for storage.
func HashCredential(credential string) (string, error) {
	if credential == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "credential is too long")
		}
		return "", fmt.Errorf("could not hash credential: %w", err)
	}
	return string(hashed), nil
}

// VerifyCredential checks a plaintext credential against a stored hash.
func VerifyCredential(credential, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return fmt.Errorf("could not verify credential: %w", err)
	}
	return nil
}
