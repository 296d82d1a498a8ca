package entities

import "fmt"

// Capability names one of the five extension points of the engine.
type Capability string

const (
	CapabilityObserver Capability = "observer"
	CapabilityFeedback Capability = "feedback"
	CapabilityExecutor Capability = "executor"
	CapabilityMutator  Capability = "mutator"
	CapabilityStage    Capability = "stage"
)

// Capabilities returns every capability in registration order.
func Capabilities() []Capability {
	return []Capability{
		CapabilityObserver,
		CapabilityFeedback,
		CapabilityExecutor,
		CapabilityMutator,
		CapabilityStage,
	}
}

// ParseCapability validates a capability name.
func ParseCapability(s string) (Capability, error) {
	for _, c := range Capabilities() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown capability %q", s)
}

// Effect declares what an operation does to engine state or what it returns.
type Effect string

const (
	EffectNone      Effect = "none"
	EffectMutates   Effect = "mutates"
	EffectVerdict   Effect = "verdict"
	EffectExitKind  Effect = "exit_kind"
	EffectIdentity  Effect = "identity"
	EffectMutation  Effect = "mutation_result"
	EffectObservers Effect = "observers"
)

// Operation is one named method of a capability contract.
type Operation struct {
	// Name is the foreign method name.
	Name string `json:"name"`

	// Effect declares the side effect or result shape.
	Effect Effect `json:"effect"`

	// Default describes the fallback used when the method is absent.
	Default string `json:"default,omitempty"`

	// Arity is the number of foreign-visible arguments (receiver excluded).
	Arity int `json:"arity"`

	// Required marks operations without a default.
	Required bool `json:"required"`
}

// Contract is the fixed method set of a capability.
type Contract struct {
	Capability Capability  `json:"capability"`
	Operations []Operation `json:"operations"`
}

// Operation returns the named operation of the contract.
func (c Contract) Operation(name string) (Operation, bool) {
	for _, op := range c.Operations {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// Required returns the operations that have no default.
func (c Contract) Required() []Operation {
	var ops []Operation
	for _, op := range c.Operations {
		if op.Required {
			ops = append(ops, op)
		}
	}
	return ops
}

// Operation names shared by several contracts.
const (
	OpName            = "name"
	OpFlush           = "flush"
	OpPreExec         = "pre_exec"
	OpPostExec        = "post_exec"
	OpPreExecChild    = "pre_exec_child"
	OpPostExecChild   = "post_exec_child"
	OpInitState       = "init_state"
	OpIsInteresting   = "is_interesting"
	OpAppendMetadata  = "append_metadata"
	OpDiscardMetadata = "discard_metadata"
	OpObservers       = "observers"
	OpRunTarget       = "run_target"
	OpMutate          = "mutate"
	OpPerform         = "perform"
)

var (
	// ObserverContract is the method set of an observer.
	ObserverContract = Contract{
		Capability: CapabilityObserver,
		Operations: []Operation{
			{Name: OpFlush, Arity: 0, Effect: EffectMutates, Default: "no-op"},
			{Name: OpPreExec, Arity: 2, Effect: EffectMutates, Default: "no-op"},
			{Name: OpPostExec, Arity: 3, Effect: EffectMutates, Default: "no-op"},
			{Name: OpPreExecChild, Arity: 2, Effect: EffectMutates, Default: "no-op"},
			{Name: OpPostExecChild, Arity: 3, Effect: EffectMutates, Default: "no-op"},
			{Name: OpName, Arity: 0, Effect: EffectIdentity, Default: "type name"},
		},
	}

	// FeedbackContract is the method set of a feedback.
	FeedbackContract = Contract{
		Capability: CapabilityFeedback,
		Operations: []Operation{
			{Name: OpInitState, Arity: 1, Effect: EffectMutates, Default: "no-op"},
			{Name: OpIsInteresting, Arity: 5, Effect: EffectVerdict, Default: "false"},
			{Name: OpAppendMetadata, Arity: 2, Effect: EffectMutates, Default: "no-op"},
			{Name: OpDiscardMetadata, Arity: 2, Effect: EffectMutates, Default: "no-op"},
			{Name: OpName, Arity: 0, Effect: EffectIdentity, Default: "type name"},
		},
	}

	// ExecutorContract is the method set of an executor.
	ExecutorContract = Contract{
		Capability: CapabilityExecutor,
		Operations: []Operation{
			{Name: OpObservers, Arity: 0, Effect: EffectObservers, Default: "attached observers"},
			{Name: OpRunTarget, Arity: 4, Effect: EffectExitKind, Required: true},
		},
	}

	// MutatorContract is the method set of a mutator.
	MutatorContract = Contract{
		Capability: CapabilityMutator,
		Operations: []Operation{
			{Name: OpMutate, Arity: 3, Effect: EffectMutation, Default: "skipped"},
			{Name: OpPostExec, Arity: 3, Effect: EffectMutates, Default: "no-op"},
			{Name: OpName, Arity: 0, Effect: EffectIdentity, Default: "type name"},
		},
	}

	// StageContract is the method set of a stage.
	StageContract = Contract{
		Capability: CapabilityStage,
		Operations: []Operation{
			{Name: OpPerform, Arity: 5, Effect: EffectMutates, Default: "no-op"},
		},
	}
)

// ContractFor returns the contract of a capability.
func ContractFor(c Capability) (Contract, bool) {
	switch c {
	case CapabilityObserver:
		return ObserverContract, true
	case CapabilityFeedback:
		return FeedbackContract, true
	case CapabilityExecutor:
		return ExecutorContract, true
	case CapabilityMutator:
		return MutatorContract, true
	case CapabilityStage:
		return StageContract, true
	}
	return Contract{}, false
}
