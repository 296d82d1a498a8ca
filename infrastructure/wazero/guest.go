package wazero

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/foreign"
	"github.com/tetratelabs/wazero/api"
)

// CallExport is the export a guest defines to be callable as a whole.
const CallExport = "__call__"

// Guest is a foreign object backed by one instantiated WebAssembly module.
// Its exports are its methods and its module name is its runtime type name.
//
// Guest methods take one i64 per argument: lent references arrive as their
// id, exit kinds as their code, indices as plain integers. They return
// nothing, a scalar, or for string results a packed ptr/len in guest memory.
type Guest struct {
	mod  api.Module
	refs atomic.Int64
	own  bool
}

// NewGuest wraps mod. When own is set, the module is closed once the last
// handle referencing the guest is closed.
func NewGuest(mod api.Module, own bool) *Guest {
	return &Guest{mod: mod, own: own}
}

// Module returns the underlying module.
func (g *Guest) Module() api.Module {
	return g.mod
}

// TypeName implements foreign.Value.
func (g *Guest) TypeName() string {
	return g.mod.Name()
}

// Lookup implements foreign.Value. Exports are resolved on every call.
func (g *Guest) Lookup(name string) (foreign.Method, bool) {
	fn := g.mod.ExportedFunction(name)
	if fn == nil {
		return nil, false
	}
	return &guestMethod{mod: g.mod, fn: fn, name: name}, true
}

// CallTarget implements foreign.Callable through the __call__ export.
func (g *Guest) CallTarget() (foreign.Method, bool) {
	return g.Lookup(CallExport)
}

// IncRef implements foreign.RefCounted.
func (g *Guest) IncRef() {
	g.refs.Add(1)
}

// DecRef implements foreign.RefCounted.
func (g *Guest) DecRef(ctx context.Context) error {
	if g.refs.Add(-1) > 0 || !g.own {
		return nil
	}
	return g.mod.Close(ctx)
}

// Refs returns the number of handles referencing the guest.
func (g *Guest) Refs() int64 {
	return g.refs.Load()
}

// GuestFunc is a single guest export seen as a bare callable value.
type GuestFunc struct {
	mod    api.Module
	export string
}

// NewGuestFunc returns the callable form of export. It fails when mod does
// not export it.
func NewGuestFunc(mod api.Module, export string) (*GuestFunc, error) {
	if mod.ExportedFunction(export) == nil {
		return nil, fmt.Errorf("export %q not found", export)
	}
	return &GuestFunc{mod: mod, export: export}, nil
}

// TypeName implements foreign.Value.
func (f *GuestFunc) TypeName() string {
	return "function"
}

// Export returns the wrapped export name.
func (f *GuestFunc) Export() string {
	return f.export
}

// Lookup implements foreign.Value. A bare function has no methods.
func (f *GuestFunc) Lookup(string) (foreign.Method, bool) {
	return nil, false
}

// CallTarget implements foreign.Callable.
func (f *GuestFunc) CallTarget() (foreign.Method, bool) {
	fn := f.mod.ExportedFunction(f.export)
	if fn == nil {
		return nil, false
	}
	return &guestMethod{mod: f.mod, fn: fn, name: f.export}, true
}

type guestMethod struct {
	mod  api.Module
	fn   api.Function
	name string
}

func (m *guestMethod) Arity() int {
	return len(m.fn.Definition().ParamTypes())
}

func (m *guestMethod) Invoke(ctx context.Context, want foreign.Kind, args []any) (any, error) {
	params := make([]uint64, len(args))
	for i, a := range args {
		p, err := encodeArg(a)
		if err != nil {
			return nil, &bridgeerrors.ContractViolationError{Operation: m.name, Reason: err.Error()}
		}
		params[i] = p
	}

	results, err := m.fn.Call(WithGuestName(ctx, m.mod.Name()), params...)
	if err != nil {
		return nil, &bridgeerrors.ForeignException{Type: "trap", Message: err.Error(), Method: m.name}
	}
	return m.decode(want, results)
}

func (m *guestMethod) decode(want foreign.Kind, results []uint64) (any, error) {
	if want == foreign.KindNone || len(results) == 0 {
		return nil, nil
	}
	r := results[0]
	switch want {
	case foreign.KindBool:
		return r != 0, nil
	case foreign.KindString:
		return m.readString(r)
	default:
		if m.fn.Definition().ResultTypes()[0] == api.ValueTypeI32 {
			return int64(api.DecodeI32(r)), nil
		}
		return int64(r), nil //nolint:gosec // G115: i64 results are reinterpreted as signed
	}
}

func (m *guestMethod) readString(packed uint64) (string, error) {
	mem := guestMemory(m.mod)
	if mem == nil {
		return "", &bridgeerrors.ContractViolationError{Operation: m.name, Reason: "guest exports no memory for a string result"}
	}
	ptr, length := unpackPtrLen(packed)
	data, ok := mem.Read(ptr, length)
	if !ok {
		return "", &bridgeerrors.ContractViolationError{
			Operation: m.name,
			Reason:    fmt.Sprintf("string result out of range: ptr=%d len=%d", ptr, length),
		}
	}
	return string(data), nil
}

// encodeArg lowers a lent argument to its i64 guest representation.
func encodeArg(v any) (uint64, error) {
	switch a := v.(type) {
	case nil:
		return 0, nil
	case bool:
		if a {
			return 1, nil
		}
		return 0, nil
	case int:
		return api.EncodeI64(int64(a)), nil
	case int32:
		return api.EncodeI32(a), nil
	case int64:
		return api.EncodeI64(a), nil
	case uint32:
		return uint64(a), nil
	case uint64:
		return a, nil
	case float64:
		return api.EncodeF64(a), nil
	case entities.ExitKind:
		return api.EncodeI64(a.Code()), nil
	case entities.CorpusID:
		return api.EncodeI64(int64(a)), nil
	case entities.MutationResult:
		return api.EncodeI64(int64(a)), nil
	case foreign.Ref:
		return a.ID, nil
	}
	return 0, fmt.Errorf("%T cannot be passed to a guest", v)
}

var (
	_ foreign.Callable   = (*Guest)(nil)
	_ foreign.RefCounted = (*Guest)(nil)
	_ foreign.Callable   = (*GuestFunc)(nil)
)
