package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	controlChars    = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)
)

// SanitizeString removes control characters and surrounding whitespace.
// Newlines and tabs are kept so multi-line content survives.
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

// SanitizeFileName returns a filesystem-safe version of an uploaded file name.
// Path separators and parent references are dropped; the extension is kept.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFileChars.ReplaceAllString(name, "")
	if name == "" || name == "." {
		return "file"
	}
	return name
}
