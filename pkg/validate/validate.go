// Package validate collects per-field validation messages for forms.
package validate

import (
	"regexp"
	"sort"
	"strings"
)

var (
	phoneRe   = regexp.MustCompile(`^[0-9]{10}$`)
	pincodeRe = regexp.MustCompile(`^[0-9]{6}$`)
)

// FieldErrors maps a field name to a message. A non-empty FieldErrors is an
// error.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Err returns f as an error, or nil when it is empty.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// Required records "<label> is required" when value is blank.
func (f FieldErrors) Required(field, label, value string) bool {
	if strings.TrimSpace(value) == "" {
		f.Add(field, label+" is required")
		return false
	}
	return true
}

// IsPhone reports whether s is a 10-digit phone number.
func IsPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// IsPincode reports whether s is a 6-digit postal code.
func IsPincode(s string) bool {
	return pincodeRe.MatchString(s)
}
