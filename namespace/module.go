package namespace

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/hostfuncs"
	wazeroadapter "github.com/reglet-dev/fuzzbridge/infrastructure/wazero"
	"github.com/reglet-dev/fuzzbridge/skeleton"
)

// DefaultRoot is the root namespace every sub-bridge is recorded under.
const DefaultRoot = "fuzzbridge"

// Sub-bridge names.
const (
	Sugar  = "sugar"
	QEMU   = "qemu"
	LibAFL = "libafl"
)

// ErrNotRegistered is returned by operations that need a registered module.
var ErrNotRegistered = stdErrors.New("namespace: module is not registered")

// Namespace is one registered sub-bridge.
type Namespace struct {
	registry *hostfuncs.HandlerRegistry
	name     string
	path     string
	classes  []skeleton.Class
}

// Name returns the sub-bridge name, e.g. "libafl".
func (n *Namespace) Name() string { return n.name }

// Path returns the dotted path, e.g. "fuzzbridge.libafl".
func (n *Namespace) Path() string { return n.path }

// Registry returns the namespace's host functions.
func (n *Namespace) Registry() *hostfuncs.HandlerRegistry { return n.registry }

// Functions returns the host function names of the namespace.
func (n *Namespace) Functions() []string { return n.registry.Names() }

// Classes returns the skeleton classes exposed by the namespace.
func (n *Namespace) Classes() []skeleton.Class {
	out := make([]skeleton.Class, len(n.classes))
	copy(out, n.classes)
	return out
}

// Module is the root namespace. It is unregistered until Register succeeds.
type Module struct {
	err        error
	namespaces map[string]*Namespace
	cfg        config
	paths      []string
	mu         sync.RWMutex
	done       bool
}

// New returns an unregistered module.
func New(opts ...Option) *Module {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Module{cfg: cfg}
}

// Root returns the root namespace name.
func (m *Module) Root() string {
	return m.cfg.root
}

// Register builds every sub-bridge and records them under their dotted paths.
// It runs once: later calls return the first call's result. If any build
// fails, no namespace is recorded, no preset schema is published and the
// error is a *errors.RegistrationError.
func (m *Module) Register(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return m.err
	}
	m.done = true

	built := make(map[string]*Namespace, len(m.cfg.builders))
	for _, name := range m.builderOrder() {
		ns, err := m.build(ctx, name)
		if err != nil {
			m.err = &bridgeerrors.RegistrationError{Namespace: m.path(name), Err: err}
			m.cfg.deps.Logger.ErrorContext(ctx, "namespace: registration failed",
				"namespace", m.path(name), "error", err)
			return m.err
		}
		built[ns.path] = ns
	}

	// Schemas live outside the module: publish them only after every build
	// succeeded.
	if _, ok := built[m.path(Sugar)]; ok {
		if err := publishSchemas(m.cfg.deps.Schemas); err != nil {
			m.err = &bridgeerrors.RegistrationError{Namespace: m.path(Sugar), Err: err}
			m.cfg.deps.Logger.ErrorContext(ctx, "namespace: registration failed",
				"namespace", m.path(Sugar), "error", err)
			return m.err
		}
	}

	m.namespaces = built
	m.paths = make([]string, 0, len(built))
	for path := range built {
		m.paths = append(m.paths, path)
	}
	sort.Strings(m.paths)
	m.cfg.deps.Logger.InfoContext(ctx, "namespace: registered", "root", m.cfg.root, "namespaces", m.paths)
	return nil
}

// builderOrder returns the built-in sub-bridges in load order, then any
// additional ones sorted by name.
func (m *Module) builderOrder() []string {
	order := make([]string, 0, len(m.cfg.builders))
	var extra []string
	for name := range m.cfg.builders {
		switch name {
		case Sugar, QEMU, LibAFL:
		default:
			extra = append(extra, name)
		}
	}
	for _, name := range []string{Sugar, QEMU, LibAFL} {
		if _, ok := m.cfg.builders[name]; ok {
			order = append(order, name)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

func (m *Module) build(ctx context.Context, name string) (ns *Namespace, err error) {
	builder := m.cfg.builders[name]
	if builder == nil {
		return nil, fmt.Errorf("no builder")
	}
	defer func() {
		if r := recover(); r != nil {
			ns, err = nil, fmt.Errorf("builder panicked: %v", r)
		}
	}()

	bundle, err := builder(ctx, m.cfg.deps)
	if err != nil {
		return nil, err
	}
	if bundle == nil {
		return nil, fmt.Errorf("builder returned no host functions")
	}

	mw := append([]hostfuncs.Middleware{
		hostfuncs.PanicRecoveryMiddleware(),
		hostfuncs.LoggingMiddleware(m.cfg.deps.Logger),
	}, m.cfg.middleware...)
	registry, err := hostfuncs.NewRegistry(
		hostfuncs.WithNamespace(m.path(name)),
		hostfuncs.WithMiddleware(mw...),
		hostfuncs.WithBundle(bundle),
	)
	if err != nil {
		return nil, err
	}

	ns = &Namespace{registry: registry, name: name, path: m.path(name)}
	if name == LibAFL {
		ns.classes = skeleton.Catalog()
	}
	return ns, nil
}

func (m *Module) path(name string) string {
	return m.cfg.root + "." + name
}

// Registered reports whether Register succeeded.
func (m *Module) Registered() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.done && m.err == nil
}

// Lookup resolves a namespace by dotted path. A path without the root
// prefix is resolved relative to the root.
func (m *Module) Lookup(path string) (*Namespace, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !strings.HasPrefix(path, m.cfg.root+".") {
		path = m.path(path)
	}
	ns, ok := m.namespaces[path]
	return ns, ok
}

// Paths returns the dotted paths of every registered namespace, sorted.
func (m *Module) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.paths))
	copy(out, m.paths)
	return out
}

// Install exports every namespace into runtime as a host module named by its
// dotted path. The libafl namespace additionally exports log_message. On
// failure, modules installed so far are closed.
func (m *Module) Install(ctx context.Context, runtime wazero.Runtime, opts ...wazeroadapter.AdapterOption) ([]api.Module, error) {
	if !m.Registered() {
		return nil, ErrNotRegistered
	}

	installed := make([]api.Module, 0, len(m.paths))
	for _, path := range m.Paths() {
		ns, _ := m.Lookup(path)
		nsOpts := append(append([]wazeroadapter.AdapterOption{}, opts...), wazeroadapter.WithModuleName(path))
		if ns.name == LibAFL {
			nsOpts = append(nsOpts, wazeroadapter.WithCustomHandler(wazeroadapter.LogMessageHandler(m.cfg.deps.Logger)))
		}

		mod, err := wazeroadapter.RegisterWithRuntime(ctx, runtime, ns.registry, nsOpts...)
		if err != nil {
			for _, done := range installed {
				_ = done.Close(ctx)
			}
			return nil, fmt.Errorf("install %s: %w", path, err)
		}
		installed = append(installed, mod)
	}
	return installed, nil
}
