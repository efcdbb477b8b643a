package errors

import (
	"strings"
	"unicode"
)

// maxDisplayName is the longest accepted display name, in bytes.
const maxDisplayName = 256

// ValidateDisplayName validates a member display name and returns it trimmed.
//
// Rules:
//   - Not empty after trimming whitespace
//   - Maximum length of 256 characters
//   - No control characters
func ValidateDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", New(ErrCodeInvalidMember, "display name cannot be empty")
	}
	if len(name) > maxDisplayName {
		return "", New(ErrCodeInvalidMember, "display name too long (max %d characters)", maxDisplayName)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", New(ErrCodeInvalidMember, "display name contains invalid control characters")
		}
	}
	return name, nil
}

// ValidateID validates a caller-supplied member or relationship identifier.
// Empty ids are accepted (the store assigns one); ids with control characters
// or surrounding whitespace are not.
func ValidateID(code Code, id string) error {
	if id == "" {
		return nil
	}
	if strings.TrimSpace(id) != id {
		return New(code, "id %q has surrounding whitespace", id)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(code, "id contains invalid control characters")
		}
	}
	return nil
}

// ValidateCount rejects negative story counters.
func ValidateCount(code Code, field string, n int) error {
	if n < 0 {
		return New(code, "%s must not be negative (got %d)", field, n)
	}
	return nil
}
