package namespace

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/hostfuncs"
)

// Deps are the collaborators sub-bridge builders wire into their handlers.
// Any of them may be nil; the affected host functions then answer NOT_AVAILABLE.
type Deps struct {
	Logger    *slog.Logger
	Sink      ports.AttachSink
	Emulator  ports.Emulator
	Runner    ports.PresetRunner
	Validator ports.PresetValidator
	Schemas   ports.SchemaRegistry
}

// Builder builds the host functions of one sub-bridge.
type Builder func(ctx context.Context, deps Deps) (hostfuncs.HostFuncBundle, error)

// Option configures a Module.
type Option func(*config)

type config struct {
	builders   map[string]Builder
	deps       Deps
	root       string
	middleware []hostfuncs.Middleware
}

func defaultConfig() config {
	return config{
		root: DefaultRoot,
		builders: map[string]Builder{
			Sugar:  buildSugar,
			QEMU:   buildQEMU,
			LibAFL: buildLibAFL,
		},
		deps: Deps{Logger: slog.Default()},
	}
}

// WithRoot sets the root namespace (default "fuzzbridge").
func WithRoot(root string) Option {
	return func(c *config) {
		c.root = root
	}
}

// WithLogger sets the logger used by host function middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.deps.Logger = logger
		}
	}
}

// WithAttachSink sets where the libafl as_* functions queue attach requests.
func WithAttachSink(sink ports.AttachSink) Option {
	return func(c *config) {
		c.deps.Sink = sink
	}
}

// WithEmulator sets the emulator behind the qemu namespace.
func WithEmulator(emu ports.Emulator) Option {
	return func(c *config) {
		c.deps.Emulator = emu
	}
}

// WithPresetRunner sets the engine entry point behind sugar.run_preset.
func WithPresetRunner(r ports.PresetRunner) Option {
	return func(c *config) {
		c.deps.Runner = r
	}
}

// WithPresetValidator sets the validator behind the sugar namespace.
func WithPresetValidator(v ports.PresetValidator) Option {
	return func(c *config) {
		c.deps.Validator = v
	}
}

// WithSchemaRegistry sets the registry the sugar namespace publishes preset schemas to.
func WithSchemaRegistry(r ports.SchemaRegistry) Option {
	return func(c *config) {
		c.deps.Schemas = r
	}
}

// WithMiddleware appends middleware applied to every namespace's handlers,
// after panic recovery and logging.
func WithMiddleware(mw ...hostfuncs.Middleware) Option {
	return func(c *config) {
		c.middleware = append(c.middleware, mw...)
	}
}

// WithBuilder replaces the builder of a sub-bridge, or adds a new one.
func WithBuilder(name string, b Builder) Option {
	return func(c *config) {
		c.builders[name] = b
	}
}
