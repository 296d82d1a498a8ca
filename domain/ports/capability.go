package ports

import (
	"context"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
)

// Named is implemented by components with a stable identity.
type Named interface {
	Name() string
}

// Observer observes target executions.
type Observer interface {
	Named

	// Flush is called before the observer is serialized.
	Flush(ctx context.Context) error

	// PreExec runs before the target executes input.
	PreExec(ctx context.Context, state State, input Input) error

	// PostExec runs after the target executed input.
	PostExec(ctx context.Context, state State, input Input, exitKind entities.ExitKind) error

	// PreExecChild runs in a forked child before execution.
	PreExecChild(ctx context.Context, state State, input Input) error

	// PostExecChild runs in a forked child after execution.
	PostExecChild(ctx context.Context, state State, input Input, exitKind entities.ExitKind) error
}

// ObserversTuple is the ordered set of observers visible to a target run.
type ObserversTuple []Observer

// Names returns the observer names in order.
func (t ObserversTuple) Names() []string {
	names := make([]string, len(t))
	for i, o := range t {
		names[i] = o.Name()
	}
	return names
}

// Match returns the first observer with the given name.
func (t ObserversTuple) Match(name string) (Observer, bool) {
	for _, o := range t {
		if o.Name() == name {
			return o, true
		}
	}
	return nil, false
}

// Feedback decides whether an execution was interesting.
type Feedback interface {
	Named

	// InitState registers the feedback's metadata in state.
	InitState(ctx context.Context, state State) error

	// IsInteresting is called once per executed input.
	IsInteresting(ctx context.Context, state State, mgr EventManager, input Input, observers ObserversTuple, exitKind entities.ExitKind) (bool, error)

	// AppendMetadata adds feedback metadata to a new testcase.
	AppendMetadata(ctx context.Context, state State, testcase Testcase) error

	// DiscardMetadata drops metadata gathered for an uninteresting input.
	DiscardMetadata(ctx context.Context, state State, input Input) error
}

// Executor runs the target.
type Executor interface {
	// Observers returns the observers attached to the executor.
	Observers() ObserversTuple

	// RunTarget executes input once and classifies the outcome.
	RunTarget(ctx context.Context, fuzzer Fuzzer, state State, mgr EventManager, input Input) (entities.ExitKind, error)
}

// Mutator mutates inputs.
type Mutator interface {
	Named

	// Mutate mutates input in place.
	Mutate(ctx context.Context, state State, input Input, stageIdx int) (entities.MutationResult, error)

	// PostExec is called after the mutated input was executed.
	PostExec(ctx context.Context, state State, stageIdx int, corpusIdx entities.CorpusID) error
}

// Stage is one step of the fuzzing loop.
type Stage interface {
	// Perform runs the stage for the corpus entry corpusIdx.
	Perform(ctx context.Context, fuzzer Fuzzer, executor Executor, state State, mgr EventManager, corpusIdx entities.CorpusID) error
}
