package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/reglet-dev/fuzzbridge/application/validation"
	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/host/registry"
	wazeroadapter "github.com/reglet-dev/fuzzbridge/infrastructure/wazero"
	"github.com/reglet-dev/fuzzbridge/namespace"
)

// Runtime owns the WebAssembly runtime guests are instantiated in and the
// registered fuzzbridge namespaces they import.
type Runtime struct {
	runtime wazero.Runtime
	module  *namespace.Module
	schemas ports.SchemaRegistry
	presets *validation.PresetValidator
	logger  *slog.Logger
	runner  ports.PresetRunner
	routes  map[string]*Session
	mu      sync.Mutex
}

// NewRuntime creates a runtime, registers every namespace and installs them
// as host modules. A registration failure is returned as is, a
// *errors.RegistrationError, and leaves nothing behind.
func NewRuntime(ctx context.Context, opts ...Option) (*Runtime, error) {
	cfg := defaultRuntimeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.schemas == nil {
		cfg.schemas = registry.NewRegistry()
	}

	r := &Runtime{
		schemas: cfg.schemas,
		presets: validation.NewPresetValidator(cfg.schemas),
		logger:  cfg.logger,
		runner:  cfg.runner,
		routes:  make(map[string]*Session),
	}

	nsOpts := append([]namespace.Option{
		namespace.WithLogger(cfg.logger),
		namespace.WithAttachSink(r),
		namespace.WithEmulator(cfg.emulator),
		namespace.WithPresetRunner(cfg.runner),
		namespace.WithPresetValidator(r.presets),
		namespace.WithSchemaRegistry(cfg.schemas),
	}, cfg.namespaceOpts...)
	r.module = namespace.New(nsOpts...)
	if err := r.module.Register(ctx); err != nil {
		return nil, err
	}

	rtCfg := wazero.NewRuntimeConfig()
	if cfg.memoryLimitPages > 0 {
		rtCfg = rtCfg.WithMemoryLimitPages(cfg.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtCfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate wasi: %w", err)
	}
	r.runtime = rt

	var adapterOpts []wazeroadapter.AdapterOption
	if cfg.maxRequestSize > 0 {
		adapterOpts = append(adapterOpts, wazeroadapter.WithMaxRequestSize(cfg.maxRequestSize))
	}
	if _, err := r.module.Install(ctx, rt, adapterOpts...); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to install namespaces: %w", err)
	}

	r.logger.InfoContext(ctx, "host: runtime ready", "namespaces", r.module.Paths())
	return r, nil
}

// Namespace returns the registered root namespace.
func (r *Runtime) Namespace() *namespace.Module {
	return r.module
}

// WazeroRuntime returns the underlying WebAssembly runtime.
func (r *Runtime) WazeroRuntime() wazero.Runtime {
	return r.runtime
}

// Schemas returns the registry preset schemas are published to.
func (r *Runtime) Schemas() ports.SchemaRegistry {
	return r.schemas
}

// PresetValidator returns the validator presets are checked with.
func (r *Runtime) PresetValidator() ports.PresetValidator {
	return r.presets
}

// Close closes every guest and the runtime.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// RequestAttach implements ports.AttachSink. It hands the request to the
// session that owns the calling guest.
func (r *Runtime) RequestAttach(ctx context.Context, req entities.AttachRequest) error {
	r.mu.Lock()
	s, ok := r.routes[req.Guest]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("guest %q does not belong to a session", req.Guest)
	}
	return s.enqueue(ctx, req)
}

// claim routes the attach requests of guest to s.
func (r *Runtime) claim(guest string, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.routes[guest]; ok && owner != s {
		return fmt.Errorf("guest %q is already loaded by session %q", guest, owner.Name())
	}
	r.routes[guest] = s
	return nil
}

func (r *Runtime) release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for guest, owner := range r.routes {
		if owner == s {
			delete(r.routes, guest)
		}
	}
}

var _ ports.AttachSink = (*Runtime)(nil)
