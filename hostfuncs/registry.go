package hostfuncs

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// DefaultMaxRequestSize limits the size of a guest request (1MB).
const DefaultMaxRequestSize = 1 * 1024 * 1024

// HandlerRegistry is the immutable function table of one namespace. Lookups
// take no lock; guests call into it from inside foreign calls.
type HandlerRegistry struct {
	handlers  map[string]ByteHandler
	namespace string
	names     []string
}

// RegistryOption configures a HandlerRegistry under construction.
type RegistryOption func(*registryBuilder)

type registryBuilder struct {
	handlers   map[string]ByteHandler
	namespace  string
	middleware []Middleware
	errs       []error
}

// NewRegistry builds a registry. Every invalid or duplicate function name is
// reported, not just the first.
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithNamespace("fuzzbridge.libafl"),
//	    hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
//	    hostfuncs.WithBundle(hostfuncs.LibAFLBundle(sink)),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{handlers: make(map[string]ByteHandler)}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errs) > 0 {
		err := errors.Join(b.errs...)
		if b.namespace != "" {
			return nil, fmt.Errorf("%s: %w", b.namespace, err)
		}
		return nil, err
	}

	r := &HandlerRegistry{
		handlers:  make(map[string]ByteHandler, len(b.handlers)),
		namespace: b.namespace,
		names:     make([]string, 0, len(b.handlers)),
	}
	chain := Chain(b.middleware...)
	for name, h := range b.handlers {
		r.handlers[name] = chain(h)
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Namespace returns the dotted path set with WithNamespace.
func (r *HandlerRegistry) Namespace() string {
	return r.namespace
}

// Invoke runs the named function. An unknown name yields a NOT_FOUND
// envelope rather than a Go error, since the guest is the one to blame.
func (r *HandlerRegistry) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	call := Call{Namespace: r.namespace, Function: name}
	call.Guest, _ = CallerFrom(ctx)

	h, ok := r.handlers[name]
	if !ok {
		return NewNotFoundError(call.String()).ToJSON(), nil
	}
	return h(withCall(ctx, call), payload)
}

// Has reports whether the registry exports name.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the exported function names, sorted.
func (r *HandlerRegistry) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of exported functions.
func (r *HandlerRegistry) Len() int {
	return len(r.names)
}

// add records a handler. Names become wasm import names, so they are
// restricted to lower snake case.
func (b *registryBuilder) add(name string, h ByteHandler) {
	switch {
	case !validName(name):
		b.errs = append(b.errs, fmt.Errorf("invalid host function name %q", name))
	case h == nil:
		b.errs = append(b.errs, fmt.Errorf("host function %q has no handler", name))
	default:
		if _, dup := b.handlers[name]; dup {
			b.errs = append(b.errs, fmt.Errorf("duplicate host function %q", name))
			return
		}
		b.handlers[name] = h
	}
}

func validName(name string) bool {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return false
	}
	for _, c := range name {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

// WithNamespace sets the dotted path reported in calls, logs and errors.
func WithNamespace(path string) RegistryOption {
	return func(b *registryBuilder) {
		b.namespace = path
	}
}

// WithByteHandler registers a raw handler.
func WithByteHandler(name string, h ByteHandler) RegistryOption {
	return func(b *registryBuilder) {
		b.add(name, h)
	}
}

// WithMiddleware appends middleware. The first one added is the outermost.
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
