package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BradenHooton/accounts/internal/models"
)

// LocalStorage keeps avatars in a directory on the local filesystem
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save writes r under name. Existing files are never overwritten.
func (s *LocalStorage) Save(ctx context.Context, name string, r io.Reader) error {
	if !IsBareName(name) {
		return models.NewStorageError("Unable to store file", fmt.Errorf("invalid file name %q", name))
	}

	if err := ctx.Err(); err != nil {
		return models.NewStorageError("Unable to store file", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return models.NewStorageError("Unable to store file", fmt.Errorf("create upload dir: %w", err))
	}

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return models.NewStorageError("Unable to store file", fmt.Errorf("create file: %w", err))
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return models.NewStorageError("Unable to store file", fmt.Errorf("write file: %w", err))
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return models.NewStorageError("Unable to store file", fmt.Errorf("close file: %w", err))
	}

	return nil
}

// Exists reports whether a regular file called name is stored
func (s *LocalStorage) Exists(name string) bool {
	if !IsBareName(name) {
		return false
	}

	info, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// IsBareName reports whether name is a plain file name with no path components
func IsBareName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
