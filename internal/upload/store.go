// Package upload persists processed item photos on local disk and maps
// them to the public /uploads/ paths stored on items.
package upload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// PublicPrefix is the URL prefix the server mounts the upload directory on.
const PublicPrefix = "/uploads/"

// Store writes photos into a single flat directory. File names are
// generated here, never taken from the client.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: creating directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes into, for mounting a file
// server on it.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes one processed JPEG and returns its public path.
func (s *Store) Save(data []byte) (string, error) {
	name := xid.New().String() + ".jpg"
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("upload: writing %s: %w", name, err)
	}
	return PublicPrefix + name, nil
}

// Remove deletes the file behind a public path. Missing files are not an
// error, so cleanup after a rejected listing can run repeatedly. Paths that
// don't resolve inside the store are refused.
func (s *Store) Remove(publicPath string) error {
	name := filepath.Base(strings.TrimPrefix(publicPath, PublicPrefix))
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("upload: invalid path %q", publicPath)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("upload: removing %s: %w", name, err)
	}
	return nil
}

// RemoveAll deletes every path, continuing past individual failures, and
// returns the first error seen. Image cleanup is best-effort: a stray file
// on disk must never block removing the listing itself.
func (s *Store) RemoveAll(publicPaths []string) error {
	var first error
	for _, p := range publicPaths {
		if err := s.Remove(p); err != nil && first == nil {
			first = err
		}
	}
	return first
}
