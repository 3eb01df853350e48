package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bgrewell/dupkit/pkg/duperrors"
)

func TestParseEmptyManifest(t *testing.T) {
	src := "Hostname host.example.com\nLocaldir /home/user/data\n"
	m, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, "host.example.com", m.Hostname)
	localDir, ok := m.LocalDir.OSPath()
	require.True(t, ok)
	require.Equal(t, "/home/user/data", localDir)
	require.Empty(t, m.Volumes)
}

func TestParseSingleVolume(t *testing.T) {
	src := "Hostname host\n" +
		"Localdir /data\n" +
		"Volume 1:\n" +
		"    StartingPath /data/a 0\n" +
		"    EndingPath /data/b 5\n" +
		"    Hash SHA1 da39a3ee5e6b4b0d3255bfef95601890afd80709\n"
	m, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, m.Volumes, 1)
	v := m.Volumes[0]
	require.Equal(t, "SHA1", v.HashType)
	require.Len(t, v.Hash, 20)

	n, ok := m.FirstVolumeOfPath([]byte("/data/aa"))
	require.True(t, ok)
	require.Equal(t, 1, n)

	_, ok = m.FirstVolumeOfPath([]byte("/zzz"))
	require.False(t, ok)
}

func TestParseMissingHostnameKeyword(t *testing.T) {
	src := "Bogus value\nLocaldir /data\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	var kerr *duperrors.MissingKeywordError
	require.ErrorAs(t, err, &kerr)
	require.Equal(t, "Hostname", kerr.Keyword)
}

func TestParseMissingPath(t *testing.T) {
	src := "Hostname host\n" +
		"Localdir /data\n" +
		"Volume 1:\n" +
		"StartingPath\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	var perr *duperrors.MissingPathError
	require.ErrorAs(t, err, &perr)
}

func TestParseMissingHashType(t *testing.T) {
	src := "Hostname host\n" +
		"Localdir /data\n" +
		"Volume 1:\n" +
		"StartingPath /data/a 0\n" +
		"EndingPath /data/b 5\n" +
		"Hash\n"
	_, err := Parse(strings.NewReader(src))
	require.ErrorIs(t, err, duperrors.ErrMissingHashType)
}

func TestParseMissingHash(t *testing.T) {
	src := "Hostname host\n" +
		"Localdir /data\n" +
		"Volume 1:\n" +
		"StartingPath /data/a 0\n" +
		"EndingPath /data/b 5\n" +
		"Hash SHA1\n"
	_, err := Parse(strings.NewReader(src))
	require.ErrorIs(t, err, duperrors.ErrMissingHash)
}

func TestParseInvalidHash(t *testing.T) {
	src := "Hostname host\n" +
		"Localdir /data\n" +
		"Volume 1:\n" +
		"StartingPath /data/a 0\n" +
		"EndingPath /data/b 5\n" +
		"Hash SHA1 not-hex\n"
	_, err := Parse(strings.NewReader(src))
	var herr *duperrors.InvalidHashError
	require.ErrorAs(t, err, &herr)
}

func TestParseOutOfOrderVolume(t *testing.T) {
	src := "Hostname host\n" +
		"Localdir /data\n" +
		"Volume 2:\n" +
		"StartingPath /data/a 0\n" +
		"EndingPath /data/b 5\n" +
		"Hash SHA1 da39a3ee5e6b4b0d3255bfef95601890afd80709\n"
	_, err := Parse(strings.NewReader(src))
	var oerr *duperrors.OutOfOrderVolumeError
	require.ErrorAs(t, err, &oerr)
	require.Equal(t, 2, oerr.Got)
}

func TestParseUnexpectedEOF(t *testing.T) {
	src := "Hostname host\nLocaldir /data\nVolume 1:\n"
	_, err := Parse(strings.NewReader(src))
	require.ErrorIs(t, err, duperrors.ErrUnexpectedEOF)
}

func TestFirstVolumeOfPathMultiVolumeBoundary(t *testing.T) {
	// Three volumes: each starts where the previous ended, mid-path splits
	// land on the earlier volume per spec.md §4.4's tie-break.
	src := "Hostname host\n" +
		"Localdir /data\n" +
		"Volume 1:\n" +
		"StartingPath /a 0\n" +
		"EndingPath /m 3\n" +
		"Hash SHA1 da39a3ee5e6b4b0d3255bfef95601890afd80709\n" +
		"Volume 2:\n" +
		"StartingPath /m 4\n" +
		"EndingPath /t 0\n" +
		"Hash SHA1 da39a3ee5e6b4b0d3255bfef95601890afd80709\n" +
		"Volume 3:\n" +
		"StartingPath /t 1\n" +
		"EndingPath /z 0\n" +
		"Hash SHA1 da39a3ee5e6b4b0d3255bfef95601890afd80709\n"
	m, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, m.Volumes, 3)

	n, ok := m.FirstVolumeOfPath([]byte("/e"))
	require.True(t, ok)
	require.Equal(t, 1, n)

	// /m spans volumes 1 (block 3 end) and 2 (block 4 start); the earlier
	// volume holding the path's head wins.
	n, ok = m.FirstVolumeOfPath([]byte("/m"))
	require.True(t, ok)
	require.Equal(t, 1, n)

	n, ok = m.FirstVolumeOfPath([]byte("/t"))
	require.True(t, ok)
	require.Equal(t, 2, n)

	n, ok = m.FirstVolumeOfPath([]byte("/y"))
	require.True(t, ok)
	require.Equal(t, 3, n)
}
