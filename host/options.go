package host

import (
	"log/slog"

	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/namespace"
)

// runtimeConfig holds configuration for the Runtime.
type runtimeConfig struct {
	logger           *slog.Logger
	emulator         ports.Emulator
	runner           ports.PresetRunner
	schemas          ports.SchemaRegistry
	namespaceOpts    []namespace.Option
	memoryLimitPages uint32
	maxRequestSize   uint32
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		logger: slog.Default(),
	}
}

// Option configures a Runtime.
type Option func(*runtimeConfig)

// WithLogger sets the logger for the runtime, its namespaces and the
// components it attaches.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runtimeConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEmulator sets the emulator exposed through the qemu namespace.
func WithEmulator(emu ports.Emulator) Option {
	return func(c *runtimeConfig) {
		c.emulator = emu
	}
}

// WithPresetRunner sets the engine entry point presets are launched with.
func WithPresetRunner(r ports.PresetRunner) Option {
	return func(c *runtimeConfig) {
		c.runner = r
	}
}

// WithSchemaRegistry sets the registry preset schemas are published to.
// A fresh registry is created when none is given.
func WithSchemaRegistry(r ports.SchemaRegistry) Option {
	return func(c *runtimeConfig) {
		c.schemas = r
	}
}

// WithMemoryLimitPages caps the linear memory of every guest, in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *runtimeConfig) {
		c.memoryLimitPages = pages
	}
}

// WithMaxRequestSize caps host function request payloads.
func WithMaxRequestSize(size uint32) Option {
	return func(c *runtimeConfig) {
		c.maxRequestSize = size
	}
}

// WithNamespaceOptions passes extra options to the root namespace, after the
// runtime's own.
func WithNamespaceOptions(opts ...namespace.Option) Option {
	return func(c *runtimeConfig) {
		c.namespaceOpts = append(c.namespaceOpts, opts...)
	}
}
