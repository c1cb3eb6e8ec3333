package converr

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDocumentID validates a corpus or sentence identifier for safety.
// Identifiers end up in file paths and cache keys, so the rules are
// intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No path traversal sequences (.., //, backslash)
//   - No absolute paths
//   - Maximum length of 256 characters
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "identifier cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "identifier too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "identifier contains control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "identifier contains invalid sequence: %q", pattern)
		}
	}

	if strings.HasPrefix(id, "/") {
		return New(ErrCodeInvalidInput, "identifier must be relative (cannot start with /)")
	}

	return nil
}

// deprelRegex matches universal relation labels with an optional subtype:
// a lowercase base such as "nsubj", optionally followed by ":pass".
var deprelRegex = regexp.MustCompile(`^[a-z]+(:[a-z]+)?$`)

// ValidateDeprel validates a universal relation label. Used when checking
// configured promotion-priority tables, where a typo would silently disable
// a priority rank.
func ValidateDeprel(rel string) error {
	if rel == "" {
		return New(ErrCodeInvalidConfig, "relation label cannot be empty")
	}
	if !deprelRegex.MatchString(rel) {
		return New(ErrCodeInvalidConfig, "invalid relation label: %q", rel)
	}
	return nil
}
