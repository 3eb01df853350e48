package backend

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bgrewell/dupkit/pkg/duperrors"
)

func TestLocalBackendListAndOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	b := NewLocalBackend(dir)
	names, err := b.ListFileNames()
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt"}, names)

	rc, err := b.OpenFile("a.txt")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestLocalBackendOpenMissingReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	b := NewLocalBackend(dir)

	_, err := b.OpenFile("nope.txt")
	require.Error(t, err)
	require.True(t, errors.Is(err, duperrors.ErrNotFound))
}
