package assets

import (
	"fmt"
	"path/filepath"
	"strings"

	"captionify/internal/fileutil"
	"captionify/internal/services"
)

const uploadsSegment = "/uploads/"

// ResolveVideoReference maps a client-supplied video reference to a file
// under uploadDir. References containing an /uploads/ segment (absolute URLs
// or paths) resolve to their trailing component; anything else is treated as
// a bare filename. The trailing component is stripped to its base name, so
// traversal sequences never escape uploadDir.
func ResolveVideoReference(ref, uploadDir string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", services.Wrap(services.ErrValidation, "resolve", "video reference", "empty reference", nil)
	}

	name := trimmed
	if idx := strings.LastIndex(trimmed, uploadsSegment); idx >= 0 {
		name = trimmed[idx+len(uploadsSegment):]
	}
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", services.Wrap(services.ErrValidation, "resolve", "video reference",
			fmt.Sprintf("no filename in %q", ref), nil)
	}

	path := filepath.Join(uploadDir, name)
	if !fileutil.NonEmptyFile(path) {
		return "", services.Wrap(services.ErrNotFound, "resolve", "video reference",
			fmt.Sprintf("video %q not found", name), nil)
	}
	return path, nil
}
