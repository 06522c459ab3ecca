package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed = errors.New("hashing failed")
	ErrTooShort      = errors.New("secret too short")
	ErrMismatch      = errors.New("secret does not match")
	MinPasswordLen   = 8
)

// PasswordHasher provides interface for password operations
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Compare(hashed, secret string) error
}

type bcryptHasher struct {
	cost   int
	minLen int
}

// NewBcryptHasher creates a password hasher using bcrypt that rejects
// passwords shorter than MinPasswordLen.
func NewBcryptHasher(cost int) PasswordHasher {
	return newHasher(cost, MinPasswordLen)
}

// NewCodeHasher hashes short one-time codes; it enforces no minimum length.
func NewCodeHasher(cost int) PasswordHasher {
	return newHasher(cost, 0)
}

func newHasher(cost, minLen int) *bcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost, minLen: minLen}
}

func (b *bcryptHasher) Hash(secret string) (string, error) {
	if len(secret) < b.minLen {
		return "", ErrTooShort
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashed, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret)); err != nil {
		return ErrMismatch
	}
	return nil
}
