package service

import (
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/leadops/dashboard/internal/core/domain"
)

const (
	minPasswordLength = 8
	// bcrypt only looks at the first 72 bytes.
	maxPasswordLength = 72
)

// bcryptCost is lowered in tests.
var bcryptCost = bcrypt.DefaultCost

var compareHashAndPassword = bcrypt.CompareHashAndPassword

var (
	placeholderOnce sync.Once
	placeholderHash []byte
)

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", domain.Validation("password must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		return "", domain.Validation("password must be at most 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	return compareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// burnPasswordCheck runs one comparison against a fixed hash so a login for an
// unknown email costs the same as a wrong password.
func burnPasswordCheck(password string) {
	placeholderOnce.Do(func() {
		placeholderHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-account-placeholder"), bcryptCost)
	})
	_ = compareHashAndPassword(placeholderHash, []byte(password))
}
