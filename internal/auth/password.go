package auth

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// PasswordMatch tells how a password matched its stored hash.
type PasswordMatch int

const (
	NoMatch PasswordMatch = iota
	// ModernMatch means the stored value is a bcrypt hash of the password.
	ModernMatch
	// LegacyMatch means the stored value is an old unsalted MD5 digest and
	// should be replaced with a modern hash.
	LegacyMatch
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword checks password against stored, trying bcrypt first and
// the legacy digest second.
func VerifyPassword(stored, password string) PasswordMatch {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
	if err == nil {
		return ModernMatch
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return NoMatch
	}
	// Not a bcrypt hash at all.
	if subtle.ConstantTimeCompare([]byte(stored), []byte(legacyDigest(password))) == 1 {
		return LegacyMatch
	}
	return NoMatch
}

func legacyDigest(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckHash reports whether value matches a bcrypt hash. Unlike
// VerifyPassword it never accepts legacy digests.
func CheckHash(hash, value string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(value)) == nil
}
