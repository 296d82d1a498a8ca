package skeleton

import (
	"context"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
)

// BaseObserver is the default observer: every hook is a no-op.
type BaseObserver struct {
	// TypeName is the identity reported by Name.
	TypeName string
}

// Name returns the type name.
func (b BaseObserver) Name() string { return b.TypeName }

// Flush does nothing.
func (BaseObserver) Flush(context.Context) error { return nil }

// PreExec does nothing.
func (BaseObserver) PreExec(context.Context, ports.State, ports.Input) error { return nil }

// PostExec does nothing.
func (BaseObserver) PostExec(context.Context, ports.State, ports.Input, entities.ExitKind) error {
	return nil
}

// PreExecChild does nothing.
func (BaseObserver) PreExecChild(context.Context, ports.State, ports.Input) error { return nil }

// PostExecChild does nothing.
func (BaseObserver) PostExecChild(context.Context, ports.State, ports.Input, entities.ExitKind) error {
	return nil
}

// BaseFeedback is the default feedback: nothing is interesting.
type BaseFeedback struct {
	TypeName string
}

// Name returns the type name.
func (b BaseFeedback) Name() string { return b.TypeName }

// InitState does nothing.
func (BaseFeedback) InitState(context.Context, ports.State) error { return nil }

// IsInteresting always reports false.
func (BaseFeedback) IsInteresting(context.Context, ports.State, ports.EventManager, ports.Input, ports.ObserversTuple, entities.ExitKind) (bool, error) {
	return false, nil
}

// AppendMetadata does nothing.
func (BaseFeedback) AppendMetadata(context.Context, ports.State, ports.Testcase) error { return nil }

// DiscardMetadata does nothing.
func (BaseFeedback) DiscardMetadata(context.Context, ports.State, ports.Input) error { return nil }

// BaseExecutor reports the observers it was given and cannot run a target.
type BaseExecutor struct {
	Attached ports.ObserversTuple
}

// Observers returns the attached observers in order.
func (b BaseExecutor) Observers() ports.ObserversTuple { return b.Attached }

// RunTarget fails: an executor must provide run_target.
func (BaseExecutor) RunTarget(context.Context, ports.Fuzzer, ports.State, ports.EventManager, ports.Input) (entities.ExitKind, error) {
	return entities.ExitKindOk, bridgeerrors.NotImplemented(entities.CapabilityExecutor, entities.OpRunTarget)
}

// BaseMutator is the default mutator: inputs are never changed.
type BaseMutator struct {
	TypeName string
}

// Name returns the type name.
func (b BaseMutator) Name() string { return b.TypeName }

// Mutate reports Skipped.
func (BaseMutator) Mutate(context.Context, ports.State, ports.Input, int) (entities.MutationResult, error) {
	return entities.MutationSkipped, nil
}

// PostExec does nothing.
func (BaseMutator) PostExec(context.Context, ports.State, int, entities.CorpusID) error { return nil }

// BaseStage is the default stage: perform does nothing.
type BaseStage struct{}

// Perform does nothing.
func (BaseStage) Perform(context.Context, ports.Fuzzer, ports.Executor, ports.State, ports.EventManager, entities.CorpusID) error {
	return nil
}

var (
	_ ports.Observer = BaseObserver{}
	_ ports.Feedback = BaseFeedback{}
	_ ports.Executor = BaseExecutor{}
	_ ports.Mutator  = BaseMutator{}
	_ ports.Stage    = BaseStage{}
)
