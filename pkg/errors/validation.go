package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDocumentID validates a document identifier used in store paths.
// It rejects ids that could be used for path traversal or injection against
// the persistence API.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "document id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "document id too long (max 128 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "document id contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "?", "#"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "document id contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateFileName validates an output file name for safety.
// It ensures the name is a simple basename without path components.
func ValidateFileName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "file name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPath, "file name cannot contain path separators")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidPath, "file name cannot be a hidden file")
	}
	for _, r := range name {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "file name contains invalid characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

// hexColorRegex matches the only free-form color syntax accepted by the model.
var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsHexColor reports whether s is a 6-digit #RRGGBB color.
func IsHexColor(s string) bool {
	return hexColorRegex.MatchString(s)
}
