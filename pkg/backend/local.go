package backend

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bgrewell/dupkit/pkg/duperrors"
)

// LocalBackend is a Backend operating on a directory of the local
// filesystem, grounded on the teacher's own direct os.Open use for its
// single local-open path.
type LocalBackend struct {
	baseDir string
}

// NewLocalBackend opens dir as a Backend. The directory is not read until
// ListFileNames is first called.
func NewLocalBackend(dir string) *LocalBackend {
	return &LocalBackend{baseDir: dir}
}

// ListFileNames lists the bare file names (no directory component) present
// in the backend's directory.
func (b *LocalBackend) ListFileNames() ([]string, error) {
	entries, err := os.ReadDir(b.baseDir)
	if err != nil {
		return nil, fmt.Errorf("reading backend directory %q: %w", b.baseDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// OpenFile opens name relative to the backend's directory.
func (b *LocalBackend) OpenFile(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(b.baseDir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, duperrors.NotFound(name)
		}
		return nil, fmt.Errorf("opening %q: %w", name, err)
	}
	return f, nil
}
