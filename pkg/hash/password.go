package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	hashCost          = 12
	minPasswordLength = 8
)

// Hash bcrypt-hashes a password. Passwords below the minimum length are
// rejected before hashing.
func Hash(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashed), nil
}

// Compare reports whether password matches the stored bcrypt hash. A nil
// return means they match.
func Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
