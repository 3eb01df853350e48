package manifest

import (
	"github.com/bgrewell/dupkit/pkg/logging"
)

// config holds the parse-time options for Parse.
type config struct {
	log *logging.Logger
}

// Option configures a Parse call.
type Option func(*config)

// WithLogger sets the logger used for parse-time trace messages.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.log = logger
	}
}
