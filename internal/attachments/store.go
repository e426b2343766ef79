package attachments

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrUnsupportedFormat is returned when the declared image format is not in
// the allow-list. It is checked before any byte reaches the disk.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrBadReference is returned for references that do not look like names the
// store could have produced.
var ErrBadReference = errors.New("bad attachment reference")

var allowedFormats = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
}

// Store persists image payloads as collision-resistant files under a single
// directory. References are the bare filenames and stay opaque to callers.
type Store struct {
	dir string
}

// NewStore ensures the upload directory exists and returns a store rooted at
// it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// FormatAllowed reports whether a declared format is accepted.
func FormatAllowed(format string) bool {
	_, ok := allowedFormats[format]
	return ok
}

// Save writes the payload under a random 128-bit name with the declared
// extension and returns the reference. Nothing is written when the format is
// rejected.
func (s *Store) Save(data []byte, format string) (string, error) {
	if !FormatAllowed(format) {
		return "", ErrUnsupportedFormat
	}
	id := uuid.New()
	ref := hex.EncodeToString(id[:]) + "." + format
	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return ref, nil
}

// Delete removes the file for a reference. Deleting a reference that no
// longer exists (or never did) is not an error.
func (s *Store) Delete(ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

// Open resolves a reference to a readable file for the HTTP serving layer.
func (s *Store) Open(ref string) (*os.File, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *Store) path(ref string) (string, error) {
	if ref == "" || ref == "." || ref == ".." || filepath.Base(ref) != ref {
		return "", ErrBadReference
	}
	return filepath.Join(s.dir, ref), nil
}
