package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDiagramID validates a diagram identifier for safety before it is
// used in store queries or file paths.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidateDiagramID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "diagram ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidID, "diagram ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "diagram ID contains invalid control characters")
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
			return New(ErrCodeInvalidID, "diagram ID contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// nodeIDRegex matches the node identifiers the engine accepts: leading
// alphanumeric, then alphanumerics plus a small punctuation set.
var nodeIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateNodeID validates a node identifier.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNode, "node ID cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidNode, "node ID too long (max 256 characters)")
	}
	if !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidNode, "invalid node ID: %q", id)
	}
	return nil
}

// ValidatePath validates an output file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
