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

// Stage implements ports.Stage on a foreign object with a perform method.
type Stage struct {
	defaults skeleton.BaseStage
	component
}

// NewStage wraps v.
func NewStage(ctx context.Context, v foreign.Value, opts ...Option) (*Stage, error) {
	var name string
	c, err := open(ctx, v, entities.StageContract, buildConfig(opts), func(acc *foreign.Access) error {
		name = acc.TypeName()
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.name = name
	c.logger = c.logger.With("component", name)

	s := &Stage{component: c}
	closeOnCollect(s, c.handle)
	return s, nil
}

// Perform forwards to perform(fuzzer, executor, state, mgr, corpus_idx).
func (s *Stage) Perform(ctx context.Context, fuzzer ports.Fuzzer, executor ports.Executor, state ports.State, mgr ports.EventManager, corpusIdx entities.CorpusID) error {
	_, err := s.call(ctx, entities.OpPerform, foreign.KindNone, fuzzer, executor, state, mgr, corpusIdx)
	if isMissing(err) {
		return s.defaults.Perform(ctx, fuzzer, executor, state, mgr, corpusIdx)
	}
	return s.absorb(ctx, entities.OpPerform, err)
}

// Dispatch is how an FnStage reaches its foreign code.
type Dispatch uint8

const (
	// DispatchCallable invokes the value itself.
	DispatchCallable Dispatch = iota + 1
	// DispatchMethod looks perform up on the value.
	DispatchMethod
)

func (d Dispatch) String() string {
	switch d {
	case DispatchCallable:
		return "callable"
	case DispatchMethod:
		return "method"
	default:
		return fmt.Sprintf("Dispatch(%d)", uint8(d))
	}
}

// FnStage implements ports.Stage on a bare foreign callable.
//
// The dispatch strategy is fixed at construction: a callable value is
// invoked directly on every Perform and no method is ever looked up;
// otherwise perform is resolved on the object per call. Foreign exceptions
// are returned in both cases.
type FnStage struct {
	defaults skeleton.BaseStage
	component
	dispatch Dispatch
}

// NewFnStage wraps v and resolves its dispatch strategy.
func NewFnStage(ctx context.Context, v foreign.Value, opts ...Option) (*FnStage, error) {
	var (
		dispatch Dispatch
		name     string
	)
	contract := entities.Contract{Capability: entities.CapabilityStage}
	c, err := open(ctx, v, contract, buildConfig(opts), func(acc *foreign.Access) error {
		name = acc.TypeName()
		if n, ok := acc.CallArity(); ok {
			dispatch = DispatchCallable
			return checkCallArity(n)
		}
		dispatch = DispatchMethod
		return checkContract(acc, entities.StageContract)
	})
	if err != nil {
		return nil, err
	}
	c.name = name
	c.logger = c.logger.With("component", name, "dispatch", dispatch.String())

	s := &FnStage{component: c, dispatch: dispatch}
	closeOnCollect(s, c.handle)
	return s, nil
}

func checkCallArity(n int) error {
	op, _ := entities.StageContract.Operation(entities.OpPerform)
	if n < 0 || n == op.Arity {
		return nil
	}
	return &bridgeerrors.ContractViolationError{
		Capability: entities.CapabilityStage,
		Operation:  entities.OpPerform,
		Reason:     fmt.Sprintf("callable takes %d arguments, expected %d", n, op.Arity),
	}
}

// Dispatch returns the strategy resolved at construction.
func (s *FnStage) Dispatch() Dispatch {
	return s.dispatch
}

// Perform runs the foreign stage once.
func (s *FnStage) Perform(ctx context.Context, fuzzer ports.Fuzzer, executor ports.Executor, state ports.State, mgr ports.EventManager, corpusIdx entities.CorpusID) error {
	if s.dispatch == DispatchCallable {
		return s.invoke(ctx, fuzzer, executor, state, mgr, corpusIdx)
	}

	_, err := s.call(ctx, entities.OpPerform, foreign.KindNone, fuzzer, executor, state, mgr, corpusIdx)
	if isMissing(err) {
		return s.defaults.Perform(ctx, fuzzer, executor, state, mgr, corpusIdx)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "bridge: stage failed", "error", err)
	}
	return err
}

func (s *FnStage) invoke(ctx context.Context, args ...any) error {
	acc, err := s.handle.Acquire(ctx)
	if err != nil {
		return err
	}
	defer acc.Release()

	if _, err := acc.Invoke(ctx, foreign.KindNone, args...); err != nil {
		s.logger.ErrorContext(ctx, "bridge: stage callable failed", "error", err)
		return s.annotate(err)
	}
	return nil
}

var (
	_ ports.Stage = (*Stage)(nil)
	_ ports.Stage = (*FnStage)(nil)
)
