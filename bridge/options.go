package bridge

import (
	"log/slog"

	"github.com/reglet-dev/fuzzbridge/domain/ports"
)

// Option configures a wrapper.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	observers ports.ObserversTuple
}

func defaultConfig() config {
	return config{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger absorbed foreign exceptions are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObservers attaches observers to an executor, in order.
func WithObservers(observers ...ports.Observer) Option {
	return func(c *config) {
		c.observers = append(c.observers, observers...)
	}
}

func buildConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
