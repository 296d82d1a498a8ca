package foreign

import "context"

// Kind is the result shape a caller expects from a foreign call.
type Kind uint8

const (
	// KindNone discards the result.
	KindNone Kind = iota
	// KindBool expects a boolean.
	KindBool
	// KindInt expects an integer, returned as int64.
	KindInt
	// KindString expects a string.
	KindString
	// KindAny returns the backend's natural representation unchanged.
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "any"
	}
}

// Value is a foreign value seen through its runtime.
type Value interface {
	// TypeName returns the runtime type name of the value.
	TypeName() string

	// Lookup resolves a method by name. It is called on every invocation.
	Lookup(name string) (Method, bool)
}

// Method is a resolved foreign method or callable.
type Method interface {
	// Arity returns the number of arguments accepted, or -1 if unknown.
	Arity() int

	// Invoke runs the method. Backends use want to decode their raw result.
	Invoke(ctx context.Context, want Kind, args []any) (any, error)
}

// Callable is implemented by values that may be invoked directly.
type Callable interface {
	Value

	// CallTarget returns the method invoked when the value itself is called.
	CallTarget() (Method, bool)
}

// RefCounted is implemented by values whose runtime tracks references.
// Both methods are called with the interpreter lock held.
type RefCounted interface {
	IncRef()
	DecRef(ctx context.Context) error
}
