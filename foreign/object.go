package foreign

import (
	"context"
	"sync"
	"sync/atomic"
)

// Fn is the body of an in-process foreign method.
// Returning *errors.ForeignException raises it in the foreign runtime.
type Fn func(ctx context.Context, args []any) (any, error)

type fnMethod struct {
	fn    Fn
	arity int
}

func (m fnMethod) Arity() int {
	return m.arity
}

func (m fnMethod) Invoke(ctx context.Context, _ Kind, args []any) (any, error) {
	return m.fn(ctx, args)
}

// Func is a bare in-process callable. It has no named methods.
type Func struct {
	name   string
	method fnMethod
}

// NewFunc creates a callable taking arity arguments. Use -1 for variadic.
func NewFunc(name string, arity int, fn Fn) *Func {
	return &Func{name: name, method: fnMethod{fn: fn, arity: arity}}
}

// TypeName implements Value.
func (f *Func) TypeName() string {
	return "function"
}

// Name returns the name given at creation.
func (f *Func) Name() string {
	return f.name
}

// Lookup implements Value. A Func exposes no methods.
func (f *Func) Lookup(string) (Method, bool) {
	return nil, false
}

// CallTarget implements Callable.
func (f *Func) CallTarget() (Method, bool) {
	return f.method, true
}

// CallMethod is the method an Object runs when it is called directly.
const CallMethod = "__call__"

// Object is an in-process foreign object whose method table may change at
// any time, including between two calls of the same wrapper.
type Object struct {
	methods  map[string]fnMethod
	typeName string
	refs     atomic.Int64
	mu       sync.RWMutex
}

// NewObject creates an object with an empty method table.
func NewObject(typeName string) *Object {
	return &Object{typeName: typeName, methods: make(map[string]fnMethod)}
}

// Define adds or replaces a method and returns o for chaining.
func (o *Object) Define(name string, arity int, fn Fn) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.methods[name] = fnMethod{fn: fn, arity: arity}
	return o
}

// Remove deletes a method.
func (o *Object) Remove(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.methods, name)
}

// TypeName implements Value.
func (o *Object) TypeName() string {
	return o.typeName
}

// Lookup implements Value.
func (o *Object) Lookup(name string) (Method, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	m, ok := o.methods[name]
	if !ok {
		return nil, false
	}
	return m, true
}

// CallTarget implements Callable through the __call__ method.
func (o *Object) CallTarget() (Method, bool) {
	return o.Lookup(CallMethod)
}

// IncRef implements RefCounted.
func (o *Object) IncRef() {
	o.refs.Add(1)
}

// DecRef implements RefCounted.
func (o *Object) DecRef(context.Context) error {
	o.refs.Add(-1)
	return nil
}

// Refs returns the number of handles referencing o.
func (o *Object) Refs() int64 {
	return o.refs.Load()
}

var (
	_ Callable   = (*Object)(nil)
	_ RefCounted = (*Object)(nil)
	_ Callable   = (*Func)(nil)
)
