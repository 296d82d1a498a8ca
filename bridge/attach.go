package bridge

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/foreign"
)

// ErrUnknownCapability is returned by Attach for an unsupported capability.
var ErrUnknownCapability = stdErrors.New("unknown capability")

// Component is any wrapper built by Attach.
type Component interface {
	Handle() *foreign.Handle
	Close(ctx context.Context) error
}

// Attach wraps v as the given capability. A stage attached with callable
// set becomes an FnStage.
func Attach(ctx context.Context, c entities.Capability, v foreign.Value, callable bool, opts ...Option) (Component, error) {
	switch c {
	case entities.CapabilityObserver:
		w, err := NewObserver(ctx, v, opts...)
		return asComponent(w, err)
	case entities.CapabilityFeedback:
		w, err := NewFeedback(ctx, v, opts...)
		return asComponent(w, err)
	case entities.CapabilityExecutor:
		w, err := NewExecutor(ctx, v, opts...)
		return asComponent(w, err)
	case entities.CapabilityMutator:
		w, err := NewMutator(ctx, v, opts...)
		return asComponent(w, err)
	case entities.CapabilityStage:
		if callable {
			w, err := NewFnStage(ctx, v, opts...)
			return asComponent(w, err)
		}
		w, err := NewStage(ctx, v, opts...)
		return asComponent(w, err)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownCapability, c)
}

// asComponent keeps a failed constructor from yielding a typed nil.
func asComponent[T Component](w T, err error) (Component, error) {
	if err != nil {
		return nil, err
	}
	return w, nil
}
