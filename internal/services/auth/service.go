// Package auth guards administrative operations with a bcrypt-hashed admin key
package auth

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Errors
var (
	ErrUnauthorized   = errors.New("invalid or missing admin key")
	ErrInvalidKeyHash = errors.New("admin key hash is not a bcrypt hash")
)

// Guard checks admin keys against a configured bcrypt hash
type Guard struct {
	hash []byte
}

// NewGuard creates a Guard. An empty hash leaves admin operations open, which
// is logged as a warning.
func NewGuard(keyHash string, logger *slog.Logger) (*Guard, error) {
	if keyHash == "" {
		logger.Warn("no admin key hash configured, admin endpoints are unprotected")
		return &Guard{}, nil
	}
	if _, err := bcrypt.Cost([]byte(keyHash)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyHash, err)
	}
	return &Guard{hash: []byte(keyHash)}, nil
}

// Open reports whether the guard lets every request through
func (g *Guard) Open() bool {
	return len(g.hash) == 0
}

// Check returns ErrUnauthorized unless the key matches, or the guard is open
func (g *Guard) Check(key string) error {
	if g.Open() {
		return nil
	}
	if key == "" {
		return ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(key)); err != nil {
		return ErrUnauthorized
	}
	return nil
}

// HashKey returns the bcrypt hash to configure for an admin key
func HashKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("admin key must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
