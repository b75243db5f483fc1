package errors

import (
	"strings"
	"unicode"
)

// ValidateResourceName validates an owner, namespace, or repository name before
// it is interpolated into a provider URL path or used as a snapshot map key.
// It rejects names that could be used for path traversal or injection.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, backslash)
//   - No null bytes
//   - Maximum length of 256 characters
//
// Provider-specific naming rules (character sets, casing) are the provider's
// concern; this only guards the transport and filesystem boundaries.
func ValidateResourceName(name string) error {
	if name == "" {
		return New(ErrCodeConfiguration, "resource name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeConfiguration, "resource name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeConfiguration, "resource name contains control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeConfiguration, "resource name contains invalid sequence: %q", pattern)
		}
	}

	return nil
}
