package upload

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// NewFileName derives a unique stored name: slug(base) + "-" + suffix + "." + ext.
// The extension comes from the MIME type, not the client's name.
func NewFileName(originalName, mimeType string) string {
	base := filepath.Base(originalName)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	s := slug.Make(base)
	if s == "" {
		s = "file"
	}

	ext, ok := ExtensionFor(mimeType)
	if !ok {
		ext = "bin"
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return s + "-" + suffix + "." + ext
}
