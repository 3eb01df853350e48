// Package duperrors collects the error taxonomy produced while reading a
// duplicity archive: manifest grammar violations, chain lookups that miss,
// and the one unsupported-input case (encryption) the core refuses to hide
// behind a generic I/O error.
package duperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is against these; wrapped errors below all
// satisfy Unwrap() so errors.Is sees through them.
var (
	// ErrNotFound is returned when a backup set, volume, or manifest
	// referenced by a snapshot number or path does not exist in the chain.
	ErrNotFound = errors.New("duperrors: not found")

	// ErrUnsupported is returned for input the core deliberately refuses to
	// handle, currently only GPG-encrypted volumes.
	ErrUnsupported = errors.New("duperrors: unsupported")

	// ErrUnexpectedEOF is returned when a manifest ends before a required
	// line was read.
	ErrUnexpectedEOF = errors.New("duperrors: unexpected end of manifest")
)

// MissingKeywordError reports a manifest line that did not start with the
// keyword the grammar required at that position.
type MissingKeywordError struct {
	Keyword string
}

func (e *MissingKeywordError) Error() string {
	return fmt.Sprintf("duperrors: missing keyword %q", e.Keyword)
}

// MissingPathError reports a StartingPath/EndingPath line with no path word.
type MissingPathError struct {
	Keyword string
}

func (e *MissingPathError) Error() string {
	return fmt.Sprintf("duperrors: missing path after %q", e.Keyword)
}

// ErrMissingHashType reports a Hash line with no hash-type word.
var ErrMissingHashType = errors.New("duperrors: missing hash type")

// ErrMissingHash reports a Hash line with no hash-value word.
var ErrMissingHash = errors.New("duperrors: missing hash value")

// InvalidHashError reports a hash value that isn't valid two-nibble hex.
type InvalidHashError struct {
	Value string
}

func (e *InvalidHashError) Error() string {
	return fmt.Sprintf("duperrors: invalid hash value %q: not hex", e.Value)
}

// OutOfOrderVolumeError reports a manifest whose volume numbers are not
// dense and increasing from 1.
type OutOfOrderVolumeError struct {
	Got int
}

func (e *OutOfOrderVolumeError) Error() string {
	return fmt.Sprintf("duperrors: volume %d is out of order", e.Got)
}

// ParseIntError wraps a strconv error encountered where the grammar
// required a decimal integer.
type ParseIntError struct {
	Field string
	Err   error
}

func (e *ParseIntError) Error() string {
	return fmt.Sprintf("duperrors: invalid integer for %s: %v", e.Field, e.Err)
}

func (e *ParseIntError) Unwrap() error { return e.Err }

// UTF8Error wraps a UTF-8 decoding failure on a field the grammar requires
// to be text (Hostname).
type UTF8Error struct {
	Field string
	Err   error
}

func (e *UTF8Error) Error() string {
	return fmt.Sprintf("duperrors: %s is not valid UTF-8: %v", e.Field, e.Err)
}

func (e *UTF8Error) Unwrap() error { return e.Err }

// NotFound wraps ErrNotFound with a description of what was missing.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// Unsupported wraps ErrUnsupported with a description of why.
func Unsupported(why string) error {
	return fmt.Errorf("%s: %w", why, ErrUnsupported)
}
