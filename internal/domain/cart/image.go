package cart

import (
	"regexp"
	"strings"
)

// PlaceholderImage is stored for lines that arrive without an image.
const PlaceholderImage = "images/placeholder.png"

var absoluteURL = regexp.MustCompile(`(?i)^(https?:)?//`)

// NormalizeImage turns an image reference into a storage-relative path such
// as "images/curtain-2.jpg" so stored carts survive a change of deployment
// base path. Absolute, protocol-relative and data URLs are kept as is.
func NormalizeImage(ref string) string {
	raw := strings.TrimSpace(ref)
	if raw == "" {
		return PlaceholderImage
	}
	if absoluteURL.MatchString(raw) || strings.HasPrefix(raw, "data:") {
		return raw
	}

	clean := trimPublic(trimDotSlash(raw))
	clean = strings.TrimLeft(clean, "/")

	if !strings.HasPrefix(clean, "images/") {
		clean = "images/" + clean
	}
	return clean
}

// trimDotSlash strips "./" followed by any extra slashes.
func trimDotSlash(s string) string {
	if !strings.HasPrefix(s, "./") {
		return s
	}
	return strings.TrimLeft(s[2:], "/")
}

func trimPublic(s string) string {
	if !strings.HasPrefix(s, "public/") {
		return s
	}
	return strings.TrimLeft(s[len("public/"):], "/")
}
