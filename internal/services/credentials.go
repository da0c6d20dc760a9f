package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"
)

const (
	PasswordIterations = 100_000
	passwordSaltLength = 16
	passwordKeyLength  = 32
)

// Credential is the stored form of a local password.
type Credential struct {
	Salt       string
	Iterations int
	Digest     string
}

// HashPassword derives a PBKDF2-HMAC-SHA256 digest with a fresh random salt.
func HashPassword(raw string) (Credential, error) {
	salt := make([]byte, passwordSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return Credential{}, err
	}
	key := pbkdf2.Key([]byte(raw), salt, PasswordIterations, passwordKeyLength, sha256.New)
	return Credential{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Iterations: PasswordIterations,
		Digest:     base64.StdEncoding.EncodeToString(key),
	}, nil
}

// VerifyPassword recomputes the digest with the stored salt and iteration
// count. Malformed stored values never verify.
func VerifyPassword(raw, salt string, iterations int, digest string) bool {
	if iterations <= 0 {
		return false
	}
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(digest)
	if err != nil || len(expected) == 0 {
		return false
	}
	key := pbkdf2.Key([]byte(raw), saltBytes, iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(key, expected) == 1
}
