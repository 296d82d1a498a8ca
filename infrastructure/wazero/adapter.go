package wazero

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/fuzzbridge/hostfuncs"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// DefaultModuleName is the host module name used when none is configured.
const DefaultModuleName = "fuzzbridge"

// Guest exports the host relies on.
const (
	allocateExport = "allocate"
	memoryExport   = "memory"
)

// AdapterConfig configures how a registry is exported.
type AdapterConfig struct {
	// ModuleName is the import module guests name, e.g. "fuzzbridge.qemu".
	ModuleName string

	// MaxRequestSize caps the request a guest may pass to a host function.
	MaxRequestSize uint32

	// CustomHandlers are exported next to the registry with their own
	// signature.
	CustomHandlers []CustomHandler
}

// CustomHandler is a host function outside the (i64)->i64 JSON convention,
// such as log_message.
type CustomHandler struct {
	Name        string
	Handler     api.GoModuleFunc
	ParamTypes  []api.ValueType
	ResultTypes []api.ValueType
}

// AdapterOption configures RegisterWithRuntime.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the import module name. Namespaces use their dotted path.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) { c.ModuleName = name }
}

// WithMaxRequestSize caps guest requests.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) { c.MaxRequestSize = size }
}

// WithCustomHandler exports h alongside the registry.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) { c.CustomHandlers = append(c.CustomHandlers, h) }
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     DefaultModuleName,
		MaxRequestSize: hostfuncs.DefaultMaxRequestSize,
	}
}

// RegisterWithRuntime instantiates a host module exporting every function of
// registry as (i64)->i64: the argument is the packed pointer and length of a
// JSON request in guest memory, the result the packed location of the JSON
// response, allocated through the guest's "allocate" export. The caller owns
// the returned module.
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) (api.Module, error) {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	exp := &exporter{registry: registry, limit: cfg.MaxRequestSize}
	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)
	for _, name := range registry.Names() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(exp.function(name), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
			WithName(name).
			Export(name)
	}
	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("wazero: instantiate host module %s: %w", cfg.ModuleName, err)
	}
	return mod, nil
}

type exporter struct {
	registry *hostfuncs.HandlerRegistry
	limit    uint32
}

func (e *exporter) function(name string) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = e.call(ctx, mod, name, stack[0])
	}
}

// call never traps: a request the host cannot serve is answered with an
// ErrorResponse envelope. It returns 0 only when nothing can be written back.
func (e *exporter) call(ctx context.Context, mod api.Module, name string, packed uint64) uint64 {
	ctx = hostfuncs.WithCaller(ctx, callerOf(ctx, mod))
	ptr, length := unpackPtrLen(packed)

	if length > e.limit {
		msg := fmt.Sprintf("%s: request of %d bytes exceeds the %d byte limit", name, length, e.limit)
		slog.WarnContext(ctx, "wazero: "+msg, "guest", mod.Name())
		return respond(ctx, mod, hostfuncs.NewValidationError(msg).ToJSON())
	}

	mem := guestMemory(mod)
	if mem == nil {
		slog.ErrorContext(ctx, "wazero: guest exports no memory", "guest", mod.Name(), "function", name)
		return 0
	}
	req, ok := mem.Read(ptr, length)
	if !ok {
		msg := fmt.Sprintf("%s: request out of range: ptr=%d len=%d", name, ptr, length)
		slog.WarnContext(ctx, "wazero: "+msg, "guest", mod.Name())
		return respond(ctx, mod, hostfuncs.NewValidationError(msg).ToJSON())
	}

	resp, err := e.registry.Invoke(ctx, name, req)
	if err != nil {
		return respond(ctx, mod, hostfuncs.NewInternalError(err.Error()).ToJSON())
	}
	return respond(ctx, mod, resp)
}

// respond copies data into memory the guest allocates and returns its
// packed location.
func respond(ctx context.Context, mod api.Module, data []byte) uint64 {
	alloc := mod.ExportedFunction(allocateExport)
	if alloc == nil {
		slog.ErrorContext(ctx, "wazero: guest exports no allocate function", "guest", mod.Name())
		return 0
	}

	size := uint32(len(data)) //nolint:gosec // G115: responses are far below 4GiB
	res, err := alloc.Call(ctx, uint64(size))
	if err != nil {
		slog.ErrorContext(ctx, "wazero: guest allocate failed", "guest", mod.Name(), "size", size, "error", err)
		return 0
	}
	ptr := api.DecodeU32(res[0])
	if mem := guestMemory(mod); mem == nil || !mem.Write(ptr, data) {
		slog.ErrorContext(ctx, "wazero: allocated response is out of range", "guest", mod.Name(), "ptr", ptr, "size", size)
		return 0
	}
	return packPtrLen(ptr, size)
}

// guestMemory returns the exported memory of mod, or nil. Module.Memory is
// not used: for a module without memory it returns a nil *MemoryInstance
// inside a non-nil interface.
func guestMemory(mod api.Module) api.Memory {
	return mod.ExportedMemory(memoryExport)
}

// packPtrLen stores ptr in the high and length in the low 32 bits.
func packPtrLen(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}

func unpackPtrLen(packed uint64) (ptr, length uint32) {
	return uint32(packed >> 32), uint32(packed) //nolint:gosec // G115: halves of the packed value
}
