// Package fileutil provides small filesystem helpers shared by the pipeline
// stages.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^\w.-]`)

// SanitizeName replaces every character outside [A-Za-z0-9_.-] with an
// underscore so uploaded names are safe as filesystem paths and URL segments.
func SanitizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "file"
	}
	return unsafeNameChars.ReplaceAllString(base, "_")
}

// NonEmptyFile reports whether path exists as a regular file with size > 0.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// RemoveQuietly deletes path and reports whether removal succeeded. Missing
// files count as success so cleanup paths stay idempotent.
func RemoveQuietly(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %q: %w", path, err)
	}
	return nil
}
