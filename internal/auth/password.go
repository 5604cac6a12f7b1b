package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

const (
	minPasswordRunes = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

// Hasher hashes and checks account passwords.
type Hasher struct {
	cost int
	// decoy is compared against when no account exists, so a miss costs as
	// much as a wrong password.
	decoy []byte
}

// NewHasher returns a bcrypt hasher. A cost of 0 means bcrypt.DefaultCost + 2.
func NewHasher(cost int) *Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost + 2
	}
	decoy, err := bcrypt.GenerateFromPassword([]byte("urbanfrill-no-such-account"), cost)
	if err != nil {
		panic(fmt.Sprintf("auth: bcrypt cost %d: %v", cost, err))
	}
	return &Hasher{cost: cost, decoy: decoy}
}

// Hash validates the password length and returns its bcrypt hash. Length
// is counted in characters, so an 8-character Devanagari password passes.
func (h *Hasher) Hash(password string) (string, error) {
	if utf8.RuneCountInString(password) < minPasswordRunes {
		return "", ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Check reports whether password matches hash. An empty hash is checked
// against the decoy and never matches.
func (h *Hasher) Check(password, hash string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(h.decoy, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
