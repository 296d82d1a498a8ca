package foreign

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync/atomic"

	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
)

// Handle is a reference-counted handle to exactly one foreign value.
type Handle struct {
	value  Value
	lock   *Lock
	closed atomic.Bool
}

// NewHandle wraps v and takes a reference on it under the interpreter lock.
func NewHandle(ctx context.Context, v Value) (*Handle, error) {
	if v == nil {
		return nil, fmt.Errorf("foreign: nil value")
	}
	h := &Handle{value: v, lock: Interpreter}
	if rc, ok := v.(RefCounted); ok {
		guard, err := h.lock.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		rc.IncRef()
		guard.Release()
	}
	return h, nil
}

// Acquire waits for the interpreter lock and returns a scope guard.
// The caller must Release the returned Access on every path.
func (h *Handle) Acquire(ctx context.Context) (*Access, error) {
	if h.closed.Load() {
		return nil, bridgeerrors.ErrHandleClosed
	}
	guard, err := h.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Access{handle: h, guard: guard}, nil
}

// Close drops this handle's reference. The runtime frees the value when its
// last reference is gone. Close is idempotent once it succeeds; a Close that
// fails to get the lock leaves the handle open and can be retried.
func (h *Handle) Close(ctx context.Context) error {
	rc, ok := h.value.(RefCounted)
	if !ok {
		h.closed.Store(true)
		return nil
	}
	if h.closed.Load() {
		return nil
	}
	guard, err := h.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	defer guard.Release()
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	return rc.DecRef(ctx)
}

// Closed reports whether Close has been called.
func (h *Handle) Closed() bool {
	return h.closed.Load()
}

// Access grants use of a foreign value while the interpreter lock is held.
type Access struct {
	handle *Handle
	guard  *Guard
}

// Release gives the interpreter lock back. It is safe to call more than once.
func (a *Access) Release() {
	a.guard.Release()
}

// TypeName returns the runtime type name of the value.
func (a *Access) TypeName() string {
	return a.handle.value.TypeName()
}

// Has reports whether the value currently defines the method.
func (a *Access) Has(name string) bool {
	_, ok := a.handle.value.Lookup(name)
	return ok
}

// Arity returns the declared arity of a method, or -1 if the backend cannot tell.
func (a *Access) Arity(name string) (int, bool) {
	m, ok := a.handle.value.Lookup(name)
	if !ok {
		return 0, false
	}
	return m.Arity(), true
}

// IsCallable reports whether the value can be invoked directly.
func (a *Access) IsCallable() bool {
	c, ok := a.handle.value.(Callable)
	if !ok {
		return false
	}
	_, ok = c.CallTarget()
	return ok
}

// CallArity returns the declared arity of the value's call target.
func (a *Access) CallArity() (int, bool) {
	c, ok := a.handle.value.(Callable)
	if !ok {
		return 0, false
	}
	m, ok := c.CallTarget()
	if !ok {
		return 0, false
	}
	return m.Arity(), true
}

// Call looks name up on the value and invokes it with args.
func (a *Access) Call(ctx context.Context, name string, want Kind, args ...any) (any, error) {
	if err := a.usable(); err != nil {
		return nil, err
	}
	m, ok := a.handle.value.Lookup(name)
	if !ok {
		return nil, &bridgeerrors.MethodMissingError{Type: a.TypeName(), Method: name}
	}
	return a.invoke(ctx, name, m, want, args)
}

// Invoke calls the value itself.
func (a *Access) Invoke(ctx context.Context, want Kind, args ...any) (any, error) {
	if err := a.usable(); err != nil {
		return nil, err
	}
	c, ok := a.handle.value.(Callable)
	if !ok {
		return nil, bridgeerrors.ErrNotCallable
	}
	m, ok := c.CallTarget()
	if !ok {
		return nil, bridgeerrors.ErrNotCallable
	}
	return a.invoke(ctx, "__call__", m, want, args)
}

func (a *Access) usable() error {
	if a.guard.Released() {
		return fmt.Errorf("foreign: access used after release")
	}
	if a.handle.closed.Load() {
		return bridgeerrors.ErrHandleClosed
	}
	return nil
}

func (a *Access) invoke(ctx context.Context, name string, m Method, want Kind, args []any) (result any, err error) {
	if n := m.Arity(); n >= 0 && n != len(args) {
		return nil, &bridgeerrors.ContractViolationError{
			Operation: name,
			Reason:    fmt.Sprintf("%s.%s accepts %d arguments, called with %d", a.TypeName(), name, n, len(args)),
		}
	}

	scope := newCallScope(a.guard.lock, name)
	callCtx := withScope(ctx, scope)
	defer scope.close()
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &bridgeerrors.ForeignException{Type: "panic", Message: fmt.Sprint(r), Method: name}
		}
	}()

	raw, callErr := m.Invoke(callCtx, want, scope.lend(args))
	if scope.raised != nil {
		return nil, scope.raised
	}
	if callErr != nil {
		return nil, asForeignError(name, callErr)
	}
	return coerce(name, want, raw)
}

// asForeignError classifies an error returned by a backend. Errors that
// already belong to the bridge taxonomy pass through; anything else is a
// foreign exception.
func asForeignError(method string, err error) error {
	var exc *bridgeerrors.ForeignException
	if stdErrors.As(err, &exc) {
		if exc.Method == "" {
			exc.Method = method
		}
		return exc
	}
	var cv *bridgeerrors.ContractViolationError
	if stdErrors.As(err, &cv) {
		if cv.Operation == "" {
			cv.Operation = method
		}
		return err
	}
	if stdErrors.Is(err, bridgeerrors.ErrReentrantCall) {
		return err
	}
	return &bridgeerrors.ForeignException{Type: "Error", Message: err.Error(), Method: method}
}
