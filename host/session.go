package host

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/fuzzbridge/bridge"
	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/foreign"
	wazeroadapter "github.com/reglet-dev/fuzzbridge/infrastructure/wazero"
)

var (
	// ErrSessionOpen is returned for attach requests made after a session opened.
	ErrSessionOpen = stdErrors.New("attach requests are only accepted while guests initialize")

	// ErrNoPreset is returned by RunPreset for a manifest without a preset.
	ErrNoPreset = stdErrors.New("session has no preset")

	// ErrNoPresetRunner is returned by RunPreset when the runtime has no runner.
	ErrNoPresetRunner = stdErrors.New("no preset runner configured")
)

// Instantiator instantiates the module of one guest in rt. The module must be
// named after the guest and must not run start functions; the session calls
// _initialize itself.
type Instantiator func(ctx context.Context, rt wazero.Runtime, guest entities.GuestSpec) (api.Module, error)

// FileInstantiator reads each guest's .wasm file, resolving relative paths
// against dir.
func FileInstantiator(dir string) Instantiator {
	return func(ctx context.Context, rt wazero.Runtime, guest entities.GuestSpec) (api.Module, error) {
		path := guest.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		wasm, err := os.ReadFile(path) //nolint:gosec // G304: guest paths come from the session manifest
		if err != nil {
			return nil, fmt.Errorf("failed to read guest module: %w", err)
		}
		cfg := wazero.NewModuleConfig().WithName(guest.Name).WithStartFunctions()
		return rt.InstantiateWithConfig(ctx, wasm, cfg)
	}
}

// SessionOption configures how a session loads its guests.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	instantiator Instantiator
	baseDir      string
}

// WithBaseDir sets the directory relative guest paths are resolved against.
func WithBaseDir(dir string) SessionOption {
	return func(c *sessionConfig) {
		c.baseDir = dir
	}
}

// WithInstantiator replaces how guest modules are instantiated.
func WithInstantiator(fn Instantiator) SessionOption {
	return func(c *sessionConfig) {
		c.instantiator = fn
	}
}

// Session is one set of guests attached as engine components.
type Session struct {
	runtime  *Runtime
	manifest *entities.SessionManifest
	logger   *slog.Logger

	pending map[string][]entities.AttachRequest
	values  map[string]*wazeroadapter.Guest
	byGuest map[string]*bridge.Observer
	modules []api.Module
	built   []bridge.Component

	observers ports.ObserversTuple
	feedbacks []ports.Feedback
	executors []ports.Executor
	mutators  []ports.Mutator
	stages    []ports.Stage

	mu      sync.Mutex
	loading bool
	closed  bool
}

// Open instantiates every guest of manifest in order, then attaches each as
// the capabilities it requested through the libafl namespace while
// initializing, plus those its manifest entry lists. Observers are attached
// before the executors that report them. If any guest fails, everything
// loaded so far is closed again.
func (r *Runtime) Open(ctx context.Context, manifest *entities.SessionManifest, opts ...SessionOption) (*Session, error) {
	if manifest == nil {
		return nil, fmt.Errorf("host: nil session manifest")
	}
	cfg := sessionConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.instantiator == nil {
		cfg.instantiator = FileInstantiator(cfg.baseDir)
	}

	s := &Session{
		runtime:  r,
		manifest: manifest,
		logger:   r.logger.With("session", manifest.Name),
		pending:  make(map[string][]entities.AttachRequest),
		values:   make(map[string]*wazeroadapter.Guest),
		byGuest:  make(map[string]*bridge.Observer),
		loading:  true,
	}
	if err := s.load(ctx, cfg.instantiator); err != nil {
		s.logger.ErrorContext(ctx, "host: session failed to open", "error", err)
		_ = s.Close(ctx)
		return nil, err
	}

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "host: session opened", "guests", len(manifest.Guests), "components", len(s.built))
	return s, nil
}

func (s *Session) load(ctx context.Context, inst Instantiator) error {
	mods := make(map[string]api.Module, len(s.manifest.Guests))
	for _, g := range s.manifest.Guests {
		if err := s.runtime.claim(g.Name, s); err != nil {
			return err
		}
		mod, err := s.instantiate(ctx, inst, g)
		if err != nil {
			return fmt.Errorf("guest %s: %w", g.Name, err)
		}
		mods[g.Name] = mod
	}

	for _, req := range s.requests() {
		if err := s.attach(ctx, mods[req.Guest], req); err != nil {
			return fmt.Errorf("guest %s: attach as %s: %w", req.Guest, req.Capability, err)
		}
	}
	return nil
}

// instantiate runs the guest's initialization under the interpreter lock.
func (s *Session) instantiate(ctx context.Context, inst Instantiator, g entities.GuestSpec) (api.Module, error) {
	guard, err := foreign.Interpreter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	ctx = wazeroadapter.WithGuestName(ctx, g.Name)
	mod, err := inst(ctx, s.runtime.runtime, g)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}
	s.mu.Lock()
	s.modules = append(s.modules, mod)
	s.mu.Unlock()

	if mod.Name() != g.Name {
		return nil, fmt.Errorf("module is named %q", mod.Name())
	}
	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}
	return mod, nil
}

func (s *Session) enqueue(_ context.Context, req entities.AttachRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loading || s.closed {
		return ErrSessionOpen
	}
	s.pending[req.Guest] = append(s.pending[req.Guest], req)
	return nil
}

// requests merges manifest and guest attach requests, dropping repeats, in
// attachment order.
func (s *Session) requests() []entities.AttachRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reqs []entities.AttachRequest
	for _, g := range s.manifest.Guests {
		for _, c := range g.Attach {
			req := entities.AttachRequest{Guest: g.Name, Capability: c}
			switch c {
			case entities.CapabilityStage:
				if g.Callable != "" {
					req.Callable, req.Export = true, g.Callable
				}
			case entities.CapabilityExecutor:
				req.Observers = g.Observers
			}
			reqs = append(reqs, req)
		}
		reqs = append(reqs, s.pending[g.Name]...)
	}

	seen := make(map[string]bool, len(reqs))
	out := reqs[:0]
	for _, req := range reqs {
		key := req.Guest + "\x00" + string(req.Capability) + "\x00" + req.Export
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, req)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return attachRank(out[i].Capability) < attachRank(out[j].Capability)
	})
	return out
}

func attachRank(c entities.Capability) int {
	switch c {
	case entities.CapabilityObserver:
		return 0
	case entities.CapabilityFeedback:
		return 1
	case entities.CapabilityMutator:
		return 2
	case entities.CapabilityExecutor:
		return 3
	default:
		return 4
	}
}

func (s *Session) attach(ctx context.Context, mod api.Module, req entities.AttachRequest) error {
	var v foreign.Value
	if req.Callable {
		fn, err := wazeroadapter.NewGuestFunc(mod, req.Export)
		if err != nil {
			return &bridgeerrors.ContractViolationError{Capability: req.Capability, Operation: req.Export, Reason: err.Error()}
		}
		v = fn
	} else {
		g, ok := s.values[req.Guest]
		if !ok {
			g = wazeroadapter.NewGuest(mod, false)
			s.values[req.Guest] = g
		}
		v = g
	}

	opts := []bridge.Option{bridge.WithLogger(s.logger.With("guest", req.Guest))}
	if req.Capability == entities.CapabilityExecutor {
		obs, err := s.resolveObservers(req.Observers)
		if err != nil {
			return err
		}
		opts = append(opts, bridge.WithObservers(obs...))
	}

	comp, err := bridge.Attach(ctx, req.Capability, v, req.Callable, opts...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.built = append(s.built, comp)
	switch w := comp.(type) {
	case *bridge.Observer:
		s.observers = append(s.observers, w)
		s.byGuest[req.Guest] = w
	case *bridge.Feedback:
		s.feedbacks = append(s.feedbacks, w)
	case *bridge.Mutator:
		s.mutators = append(s.mutators, w)
	case *bridge.Executor:
		s.executors = append(s.executors, w)
	case ports.Stage:
		s.stages = append(s.stages, w)
	}
	s.logger.DebugContext(ctx, "host: guest attached", "guest", req.Guest, "capability", string(req.Capability))
	return nil
}

// resolveObservers looks observers up by guest name, then by observer name.
func (s *Session) resolveObservers(names []string) ([]ports.Observer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.Observer, 0, len(names))
	for _, name := range names {
		if o, ok := s.byGuest[name]; ok {
			out = append(out, o)
			continue
		}
		if o, ok := s.observers.Match(name); ok {
			out = append(out, o)
			continue
		}
		return nil, &bridgeerrors.ContractViolationError{
			Capability: entities.CapabilityExecutor,
			Operation:  entities.OpObservers,
			Reason:     fmt.Sprintf("observer %q is not attached", name),
		}
	}
	return out, nil
}

// Name returns the session name.
func (s *Session) Name() string {
	return s.manifest.Name
}

// Manifest returns the manifest the session was opened from.
func (s *Session) Manifest() *entities.SessionManifest {
	return s.manifest
}

// Observers returns the attached observers in attachment order.
func (s *Session) Observers() ports.ObserversTuple {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(ports.ObserversTuple(nil), s.observers...)
}

// Feedbacks returns the attached feedbacks.
func (s *Session) Feedbacks() []ports.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Feedback(nil), s.feedbacks...)
}

// Executors returns the attached executors.
func (s *Session) Executors() []ports.Executor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Executor(nil), s.executors...)
}

// Mutators returns the attached mutators.
func (s *Session) Mutators() []ports.Mutator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Mutator(nil), s.mutators...)
}

// Stages returns the attached stages, function stages included.
func (s *Session) Stages() []ports.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Stage(nil), s.stages...)
}

// RunPreset validates the manifest's preset and launches it through the
// runtime's preset runner.
func (s *Session) RunPreset(ctx context.Context) error {
	preset := s.manifest.Preset
	if preset == nil {
		return ErrNoPreset
	}
	if s.runtime.runner == nil {
		return ErrNoPresetRunner
	}
	res, err := s.runtime.presets.Validate(preset)
	if err != nil {
		return err
	}
	if !res.Valid {
		first := res.Errors[0]
		return &bridgeerrors.ConfigError{Field: first.Field, Err: stdErrors.New(first.Message)}
	}
	return s.runtime.runner.RunPreset(ctx, preset.Kind, preset.Config.WithDefaults())
}

// Close closes every component, newest first, then the guest modules.
// Close is idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	built, mods := s.built, s.modules
	s.mu.Unlock()

	var errs []error
	for i := len(built) - 1; i >= 0; i-- {
		errs = append(errs, built[i].Close(ctx))
	}
	for i := len(mods) - 1; i >= 0; i-- {
		errs = append(errs, mods[i].Close(ctx))
	}
	s.runtime.release(s)
	return stdErrors.Join(errs...)
}
