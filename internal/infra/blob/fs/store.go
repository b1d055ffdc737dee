package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"launchdash/internal/blob/core"
)

// Store implements core.Store using the local filesystem. It is read-only.
// Keys are mapped to relative file paths under the root. Dataset files are
// produced by other tools, so no metadata sidecar is required; the content
// type is derived from the file extension.
type Store struct {
	root string
}

// New returns a filesystem-backed blob store rooted at path. Unlike a write
// target, a missing root is an error: the loader only ever reads.
func New(root string) (*Store, error) {
	if root == "" {
		root = "."
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("blob root %s: %w", root, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("blob root %s is not a directory", root)
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the directory the store reads from.
func (s *Store) Root() string { return s.root }

// sanitizeKey ensures key doesn't escape root. A ".." path segment or an
// absolute path is rejected; dots inside a file name are fine.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if slices.Contains(strings.Split(filepath.ToSlash(key), "/"), "..") {
		return "", fmt.Errorf("invalid key contains '..' segment")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key")
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func (s *Store) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	info, err := s.Head(ctx, key)
	if err != nil {
		return core.Info{}, nil, err
	}
	dataPath, _ := s.pathFor(key)
	file, err := os.Open(dataPath)
	if err != nil {
		return core.Info{}, nil, wrapNotExist(key, err)
	}
	return info, file, nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	dataPath, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, err
	}
	st, err := os.Stat(dataPath)
	if err != nil {
		return core.Info{}, wrapNotExist(key, err)
	}
	if st.IsDir() {
		return core.Info{}, fmt.Errorf("blob %s is a directory", key)
	}
	return core.Info{
		Key:          key,
		Size:         st.Size(),
		ContentType:  contentTypeFor(dataPath),
		LastModified: st.ModTime().UTC(),
	}, nil
}

func wrapNotExist(key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return err
}

func contentTypeFor(path string) string {
	// The builtin mime table has no entry for .csv.
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "text/csv"
	}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
