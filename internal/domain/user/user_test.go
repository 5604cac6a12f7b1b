package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================
// Email Validation Tests
// ============================================

func TestIsValidEmail_ValidEmails(t *testing.T) {
	validEmails := []string{
		"test@example.com",
		"user.name@domain.org",
		"user+tag@example.com",
		"user123@test.co.in",
		"a@b.cd",
		"user_name@domain.com",
		"USER@EXAMPLE.COM",
		"test@subdomain.example.com",
	}

	for _, email := range validEmails {
		t.Run(email, func(t *testing.T) {
			assert.True(t, IsValidEmail(email), "Expected %s to be valid", email)
		})
	}
}

func TestIsValidEmail_InvalidEmails(t *testing.T) {
	invalidEmails := []string{
		"",
		"notanemail",
		"@example.com",
		"user@",
		"user@.com",
		"user@domain",
		"user@domain.",
		"user space@example.com",
		"Asha <asha@example.com>",
	}

	for _, email := range invalidEmails {
		t.Run(email, func(t *testing.T) {
			assert.False(t, IsValidEmail(email), "Expected %s to be invalid", email)
		})
	}
}

// ============================================
// Identity Tests
// ============================================

func TestSameUser(t *testing.T) {
	a := &Identity{UID: "u1"}
	b := &Identity{UID: "u1", Email: "other@example.com"}
	c := &Identity{UID: "u2"}

	assert.True(t, SameUser(nil, nil))
	assert.True(t, SameUser(a, b))
	assert.False(t, SameUser(a, c))
	assert.False(t, SameUser(a, nil))
	assert.False(t, SameUser(nil, c))
}

func TestIdentity_Clone(t *testing.T) {
	var nilID *Identity
	assert.Nil(t, nilID.Clone())

	orig := &Identity{UID: "u1", DisplayName: "Asha"}
	clone := orig.Clone()
	clone.DisplayName = "Changed"
	assert.Equal(t, "Asha", orig.DisplayName)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "asha@example.com", NormalizeEmail("  Asha@Example.COM "))
}

func TestDefaultDisplayName(t *testing.T) {
	assert.Equal(t, "asha", DefaultDisplayName("asha@example.com"))
	assert.Equal(t, "plain", DefaultDisplayName("plain"))
}

func TestTimestamp(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, ist)

	assert.Equal(t, "2024-03-01T05:00:00Z", Timestamp(at))
}
