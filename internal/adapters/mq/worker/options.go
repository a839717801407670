package worker

import (
	"github.com/okian/signconnect/pkg/logger"
)

// Option applies a configuration option to the Forwarder.
type Option func(*Forwarder)

// WithName sets the forwarder name for identification and logging.
func WithName(name string) Option {
	return func(w *Forwarder) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the forwarder.
func WithLogger(logger logger.Logger) Option {
	return func(w *Forwarder) {
		if logger != nil {
			w.logger = logger
		}
	}
}
