package errors

import (
	"regexp"
	"strings"
	"unicode"
)

var nodeIDRegex = regexp.MustCompile(`^\d+$`)

// ValidateNodeID checks that id is a bare trace uuid (decimal digits).
// A bracketed form such as "[12]" is rejected; callers strip brackets first.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNodeID, "node id cannot be empty")
	}
	if len(id) > 32 {
		return New(ErrCodeInvalidNodeID, "node id too long (max 32 digits)")
	}
	if !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidNodeID, "node id must be decimal digits: %q", id)
	}
	return nil
}

// ValidateSnapshotName validates a snapshot name before it is used as a
// storage key or a file name.
//
// Rules:
//   - not empty, at most 128 characters
//   - no control characters
//   - no path separators or traversal sequences
func ValidateSnapshotName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "snapshot name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidName, "snapshot name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "snapshot name contains control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "snapshot name contains invalid characters: %q", pattern)
		}
	}
	return nil
}
