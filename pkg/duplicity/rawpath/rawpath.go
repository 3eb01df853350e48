// Package rawpath holds RawPath, the binary-safe path type duplicity
// manifests are built from. Duplicity stores paths byte-exact, and those
// bytes are not guaranteed to be valid UTF-8 or a valid path on every host,
// so RawPath keeps the raw bytes authoritative and derives everything else.
package rawpath

import (
	"bytes"
	"strconv"
)

// RawPath is an immutable byte string representing a path exactly as
// duplicity stored it.
type RawPath struct {
	b []byte
}

// New wraps b as a RawPath. The caller must not mutate b afterwards.
func New(b []byte) RawPath {
	return RawPath{b: b}
}

// FromString wraps the bytes of s as a RawPath.
func FromString(s string) RawPath {
	return RawPath{b: []byte(s)}
}

// Bytes returns the raw, possibly non-UTF-8, byte view. Always available.
func (p RawPath) Bytes() []byte {
	return p.b
}

// OSPath returns a native path view of p and true, iff the bytes contain no
// NUL byte (the only byte sequence that can never be represented as an
// os-native path on any of Go's supported platforms). The bytes view
// remains authoritative; this is a derived convenience for callers that
// want to hand the path to os/filepath.
func (p RawPath) OSPath() (string, bool) {
	if bytes.IndexByte(p.b, 0) >= 0 {
		return "", false
	}
	return string(p.b), true
}

// String renders p for diagnostics. Non-printable or non-UTF-8 bytes are
// escaped so logging or error messages never embed raw control bytes.
func (p RawPath) String() string {
	return strconv.Quote(string(p.b))
}

// Empty reports whether p holds zero bytes.
func (p RawPath) Empty() bool {
	return len(p.b) == 0
}

// Compare returns -1, 0, or 1 comparing p and other as raw byte sequences
// (duplicity's on-disk sort order), per spec.md Open Question 3.
func (p RawPath) Compare(other RawPath) int {
	return bytes.Compare(p.b, other.b)
}

// Equal reports whether p and other hold identical bytes.
func (p RawPath) Equal(other RawPath) bool {
	return bytes.Equal(p.b, other.b)
}
