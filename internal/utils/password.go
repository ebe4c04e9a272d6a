package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrMalformedHash signals that a stored hash could not be parsed, as
// opposed to an ordinary mismatch. Callers should treat it as data
// corruption, not a failed login.
var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword returns a bcrypt hash using the given cost. Each call uses
// a fresh salt, so output is non-deterministic.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash against a plain password. It fails
// closed: any comparison error yields false.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CheckPassword is like VerifyPassword but distinguishes a malformed
// stored hash from a mismatch.
func CheckPassword(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrMalformedHash
	}
}
