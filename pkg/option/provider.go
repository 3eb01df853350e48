// Package option holds the functional options for the public constructors
// in this module, following the teacher's option.OpenOption style.
package option

import (
	"github.com/bgrewell/dupkit/pkg/backend"
	"github.com/bgrewell/dupkit/pkg/logging"
)

// ProviderOptions configures dupkit.NewProvider.
type ProviderOptions struct {
	Backend      backend.Backend
	TotalBlocks  int
	Logger       *logging.Logger
}

// ProviderOption mutates a ProviderOptions.
type ProviderOption func(*ProviderOptions)

// WithBackend sets the backend a Provider reads volumes and manifests
// through. Required; NewProvider returns an error if none is given.
func WithBackend(b backend.Backend) ProviderOption {
	return func(o *ProviderOptions) {
		o.Backend = b
	}
}

// WithTotalCacheBlocks sets the combined capacity split between the
// snapshot (40%) and signature (60%) BlockCaches, per spec.md §4.5.
func WithTotalCacheBlocks(n int) ProviderOption {
	return func(o *ProviderOptions) {
		o.TotalBlocks = n
	}
}

// WithLogger sets the logger used for provider-level trace messages.
func WithLogger(logger *logging.Logger) ProviderOption {
	return func(o *ProviderOptions) {
		o.Logger = logger
	}
}
