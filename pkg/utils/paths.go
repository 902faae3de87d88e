// pkg/utils/paths.go - utility functions for working with file paths.

package utils

import (
	"fmt"
	"path"
	"strings"
)

// ToArchivePath converts a destination path into the forward-slash
// relative form stored in payload archives.
func ToArchivePath(p string) string {
	normalized := strings.ReplaceAll(p, `\`, "/")
	normalized = strings.TrimLeft(normalized, "/")
	for strings.Contains(normalized, "//") {
		normalized = strings.ReplaceAll(normalized, "//", "/")
	}
	return normalized
}

// ValidateArchivePath rejects archive member names that would escape
// the extraction root when joined to it.
func ValidateArchivePath(name string) error {
	if name == "" {
		return fmt.Errorf("empty archive path")
	}
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("unsafe archive path: %s", name)
	}
	if len(clean) >= 2 && clean[1] == ':' {
		return fmt.Errorf("unsafe archive path: %s", name)
	}
	return nil
}

// NormalizeWindowsPath ensures Windows-style paths with single backslashes.
func NormalizeWindowsPath(p string) string {
	normalized := strings.ReplaceAll(p, "/", `\`)
	for strings.Contains(normalized, `\\`) {
		normalized = strings.ReplaceAll(normalized, `\\`, `\`)
	}
	return normalized
}
