// Package user holds the shopper identity and profile types.
package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Sign-in providers.
const (
	ProviderPassword = "password"
	ProviderSSO      = "sso"
)

var (
	ErrInvalidEmail       = errors.New("email is invalid")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
)

// Identity is the signed-in shopper as seen by a session.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Provider    string `json:"provider"`
}

// Clone returns a copy of id, or nil.
func (id *Identity) Clone() *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

// SameUser reports whether a and b refer to the same uid. Two nil
// identities are the same.
func SameUser(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UID == b.UID
}

// Profile is the users/<uid> document.
type Profile struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
	PhotoPath   string `json:"photoPath,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Pincode     string `json:"pincode,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Timestamp formats t the way profile documents store it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether email is a bare address with a dotted domain.
func IsValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}

	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}

// DefaultDisplayName derives a display name from the local part of an email.
func DefaultDisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
