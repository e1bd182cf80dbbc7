// Package upload validates and stores avatar images.
package upload

import (
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/BradenHooton/accounts/internal/models"
)

// PublicPath is the URL prefix, relative to the base URL, under which stored avatars are served
const PublicPath = "uploads/users/"

// reservedChars may not appear in an uploaded file name
const reservedChars = `'"^£$%&*()}{@#~?><,|=+¬`

const (
	msgFileRequired      = "Please upload an image"
	msgSpecialChars      = "Special characters are not allowed in filename"
	msgExtensionRequired = "File extension is required"
	msgInvalidMimeType   = "The MIME type of this file is invalid. Allowed type jpeg, gif and png"
)

// allowedTypes maps accepted MIME types to the extension used for stored files
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/png":  "png",
}

// File is an uploaded file as received from the client
type File struct {
	OriginalName string
	MimeType     string
	Size         int64
	Content      io.Reader
}

// Validator checks uploaded files against the avatar rules
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate only looks at the declared name and MIME type; the content is not inspected.
func (v *Validator) Validate(f *File) error {
	if f == nil {
		return models.NewValidationError(msgFileRequired)
	}

	if strings.ContainsAny(f.OriginalName, reservedChars) {
		return models.NewValidationError(msgSpecialChars)
	}

	if ext := filepath.Ext(f.OriginalName); ext == "" || ext == "." {
		return models.NewValidationError(msgExtensionRequired)
	}

	if _, ok := ExtensionFor(f.MimeType); !ok {
		return models.NewValidationError(msgInvalidMimeType)
	}

	return nil
}

// ExtensionFor returns the stored-file extension for an accepted MIME type.
// Parameters such as "; charset=..." are ignored and matching is case-insensitive.
func ExtensionFor(mimeType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", false
	}
	ext, ok := allowedTypes[strings.ToLower(mediaType)]
	return ext, ok
}
