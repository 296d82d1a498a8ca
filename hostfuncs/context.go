package hostfuncs

import (
	"context"
)

// Call identifies one host function invocation.
type Call struct {
	// Namespace is the dotted path of the registry, empty if it has none.
	Namespace string

	// Function is the host function name.
	Function string

	// Guest is the guest the call is made by, empty for host callers.
	Guest string
}

// String returns the qualified function name, e.g. "fuzzbridge.libafl.raise".
func (c Call) String() string {
	if c.Namespace == "" {
		return c.Function
	}
	return c.Namespace + "." + c.Function
}

type (
	callKey   struct{}
	callerKey struct{}
)

// CallFrom returns the invocation a handler runs for. Every handler invoked
// through a HandlerRegistry has one.
func CallFrom(ctx context.Context) (Call, bool) {
	c, ok := ctx.Value(callKey{}).(Call)
	return c, ok
}

func withCall(ctx context.Context, c Call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

// WithCaller records the guest a host function call is made by.
func WithCaller(ctx context.Context, guest string) context.Context {
	return context.WithValue(ctx, callerKey{}, guest)
}

// CallerFrom returns the guest recorded by WithCaller.
func CallerFrom(ctx context.Context) (string, bool) {
	guest, ok := ctx.Value(callerKey{}).(string)
	return guest, ok && guest != ""
}
