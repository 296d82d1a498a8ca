package bridge

import (
	"context"
	"fmt"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/foreign"
	"github.com/reglet-dev/fuzzbridge/skeleton"
)

// Executor implements ports.Executor on a foreign value.
//
// run_target has no default: NewExecutor fails with a contract violation
// matching errors.ErrNotImplemented when the value does not define it.
type Executor struct {
	defaults skeleton.BaseExecutor
	component
}

// NewExecutor wraps v. Observers attached with WithObservers are what
// Observers reports.
func NewExecutor(ctx context.Context, v foreign.Value, opts ...Option) (*Executor, error) {
	cfg := buildConfig(opts)
	var name string
	c, err := open(ctx, v, entities.ExecutorContract, cfg, func(acc *foreign.Access) error {
		name = acc.TypeName()
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.name = name
	c.logger = c.logger.With("component", name)

	e := &Executor{component: c, defaults: skeleton.BaseExecutor{Attached: cfg.observers}}
	closeOnCollect(e, c.handle)
	return e, nil
}

// Observers returns the attached observers in order.
func (e *Executor) Observers() ports.ObserversTuple {
	return e.defaults.Observers()
}

// RunTarget forwards to run_target(fuzzer, state, mgr, input). Foreign
// exceptions are returned to the caller.
func (e *Executor) RunTarget(ctx context.Context, fuzzer ports.Fuzzer, state ports.State, mgr ports.EventManager, input ports.Input) (entities.ExitKind, error) {
	v, err := e.call(ctx, entities.OpRunTarget, foreign.KindAny, fuzzer, state, mgr, input)
	if isMissing(err) {
		return e.defaults.RunTarget(ctx, fuzzer, state, mgr, input)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "bridge: run_target failed", "error", err)
		return entities.ExitKindOk, err
	}
	return toExitKind(v)
}

// toExitKind maps a foreign run_target result onto the closed ExitKind set.
func toExitKind(v any) (entities.ExitKind, error) {
	switch r := v.(type) {
	case entities.ExitKind:
		if r.Valid() {
			return r, nil
		}
	case int64:
		if k, ok := entities.ExitKindFromCode(r); ok {
			return k, nil
		}
	case int:
		if k, ok := entities.ExitKindFromCode(int64(r)); ok {
			return k, nil
		}
	case string:
		if k, ok := entities.ParseExitKind(r); ok {
			return k, nil
		}
	}
	return entities.ExitKindOk, &bridgeerrors.ContractViolationError{
		Capability: entities.CapabilityExecutor,
		Operation:  entities.OpRunTarget,
		Reason:     fmt.Sprintf("unrecognized exit kind %#v", v),
	}
}

var _ ports.Executor = (*Executor)(nil)
