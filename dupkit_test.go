package dupkit

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bgrewell/dupkit/pkg/backend"
	"github.com/bgrewell/dupkit/pkg/blockid"
	"github.com/bgrewell/dupkit/pkg/option"
)

func writeTar(t *testing.T, path string, name string, content []byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	tw := tar.NewWriter(f)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}))
	_, err = tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
}

func writeManifest(t *testing.T, path, entryPath string, size int) {
	t.Helper()
	content := fmt.Sprintf(
		"Hostname host\nLocaldir /data\nVolume 1:\nStartingPath %s 0\nEndingPath %s %d\nHash SHA1 da39a3ee5e6b4b0d3255bfef95601890afd80709\n",
		entryPath, entryPath, size,
	)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProviderReadEntryEndToEnd(t *testing.T) {
	dir := t.TempDir()
	entryPath := "/data/file.txt"
	content := bytes.Repeat([]byte("abcdefghij"), 20000) // 200000 bytes, spans blocks

	writeManifest(t, filepath.Join(dir, "duplicity-full.20150617t182545z.manifest"), entryPath, len(content))
	writeTar(t, filepath.Join(dir, "duplicity-full.20150617t182545z.vol1.difftar"), entryPath, content)

	be := backend.NewLocalBackend(dir)
	p, err := NewProvider(option.WithBackend(be), option.WithTotalCacheBlocks(10))
	require.NoError(t, err)

	entry, err := p.Read(blockid.EntryID{Path: entryPath, Snapshot: 0})
	require.NoError(t, err)
	defer entry.Close()

	got, err := io.ReadAll(entry)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestProviderReadUnknownPathNotFound(t *testing.T) {
	dir := t.TempDir()
	entryPath := "/data/file.txt"
	writeManifest(t, filepath.Join(dir, "duplicity-full.20150617t182545z.manifest"), entryPath, 5)
	writeTar(t, filepath.Join(dir, "duplicity-full.20150617t182545z.vol1.difftar"), entryPath, []byte("hello"))

	be := backend.NewLocalBackend(dir)
	p, err := NewProvider(option.WithBackend(be))
	require.NoError(t, err)

	_, err = p.Read(blockid.EntryID{Path: "/nope", Snapshot: 0})
	require.Error(t, err)
}

func TestProviderMissingBackendRejected(t *testing.T) {
	_, err := NewProvider()
	require.Error(t, err)
}

func TestProviderCacheIsReused(t *testing.T) {
	dir := t.TempDir()
	entryPath := "/data/file.txt"
	content := []byte("cached-bytes")

	writeManifest(t, filepath.Join(dir, "duplicity-full.20150617t182545z.manifest"), entryPath, len(content))
	writeTar(t, filepath.Join(dir, "duplicity-full.20150617t182545z.vol1.difftar"), entryPath, content)

	be := backend.NewLocalBackend(dir)
	p, err := NewProvider(option.WithBackend(be), option.WithTotalCacheBlocks(10))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		entry, err := p.Read(blockid.EntryID{Path: entryPath, Snapshot: 0})
		require.NoError(t, err)
		got, err := io.ReadAll(entry)
		require.NoError(t, err)
		require.Equal(t, content, got)
		require.NoError(t, entry.Close())
	}
	require.Equal(t, 1, p.snapshotCache.Len())
}
