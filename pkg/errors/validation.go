package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds device and tracking origin names.
const maxNameLength = 64

// ValidateName validates a device or tracking origin name from a rig file.
// Names end up in logs, DOT labels and CLI arguments, so they are kept to
// printable characters without whitespace or quotes.
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "%s name cannot be empty", kind)
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidConfig, "%s name too long (max %d characters)", kind, maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidConfig, "%s name %q contains whitespace or control characters", kind, name)
		}
	}

	if strings.ContainsAny(name, `"'\`) {
		return New(ErrCodeInvalidConfig, "%s name %q contains quotes or backslashes", kind, name)
	}

	return nil
}
