// Package storage abstracts the external artifact store holding journal
// chart images. The service only ever deletes by key; uploads and
// presigned-URL issuance belong to the API edge, not this core.
package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ChartStore deletes chart artifacts by storage key. Deletion is called
// with best-effort semantics: callers log failures and move on.
type ChartStore interface {
	Delete(ctx context.Context, key string) error
}

// DiskChartStore stores chart artifacts under a local directory, keyed by
// relative path. It stands in for the managed object store in development
// and tests.
type DiskChartStore struct {
	root string
}

// NewDiskChartStore creates a DiskChartStore rooted at dir.
func NewDiskChartStore(dir string) *DiskChartStore {
	return &DiskChartStore{root: dir}
}

// Delete removes the artifact for key. A missing artifact is not an error;
// delete-by-key is idempotent.
func (s *DiskChartStore) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// resolve maps key to a path inside the root, rejecting traversal.
func (s *DiskChartStore) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if strings.Contains(clean, "..") {
		return "", errors.New("invalid storage key")
	}
	return filepath.Join(s.root, clean), nil
}
