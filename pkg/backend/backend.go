// Package backend holds the Backend contract the core consumes (spec.md
// §4.8 / §6.3) and the local filesystem driver that ships with this repo.
package backend

import "io"

// Backend is the external dependency the core reads duplicity archives
// through. Any driver satisfying it is acceptable: local filesystem, remote
// object store, or anything else that can list and open named byte
// streams.
type Backend interface {
	// ListFileNames returns bare file names (no directory component) found
	// in the backend, in arbitrary order; callers sort as needed.
	ListFileNames() ([]string, error)
	// OpenFile opens a blocking sequential reader for name. Positioning
	// within the returned stream is not required. An unknown name returns
	// an error satisfying errors.Is(err, duperrors.ErrNotFound).
	OpenFile(name string) (io.ReadCloser, error)
}
