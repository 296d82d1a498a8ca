package skeleton

import (
	"fmt"
	"sort"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
)

// Class describes one base class offered to foreign authors.
type Class struct {
	// Name is the class name, e.g. "BaseObserver".
	Name string `json:"name"`

	// Capability is the contract the class implements.
	Capability entities.Capability `json:"capability"`

	// Conversion is the libafl namespace function turning an instance into
	// an engine component.
	Conversion string `json:"conversion"`

	// Callable marks classes whose instances are invoked directly.
	Callable bool `json:"callable,omitempty"`

	// Operations lists the override surface with its defaults.
	Operations []entities.Operation `json:"operations"`
}

var classes = []Class{
	{Name: "BaseObserver", Capability: entities.CapabilityObserver, Conversion: "as_observer", Operations: entities.ObserverContract.Operations},
	{Name: "BaseFeedback", Capability: entities.CapabilityFeedback, Conversion: "as_feedback", Operations: entities.FeedbackContract.Operations},
	{Name: "BaseExecutor", Capability: entities.CapabilityExecutor, Conversion: "as_executor", Operations: entities.ExecutorContract.Operations},
	{Name: "BaseMutator", Capability: entities.CapabilityMutator, Conversion: "as_mutator", Operations: entities.MutatorContract.Operations},
	{Name: "BaseStage", Capability: entities.CapabilityStage, Conversion: "as_stage", Operations: entities.StageContract.Operations},
	{Name: "FnStage", Capability: entities.CapabilityStage, Conversion: "as_fn_stage", Callable: true, Operations: entities.StageContract.Operations},
}

// Catalog returns every class sorted by name.
func Catalog() []Class {
	out := make([]Class, len(classes))
	copy(out, classes)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the class with the given name.
func Lookup(name string) (Class, error) {
	for _, c := range classes {
		if c.Name == name {
			return c, nil
		}
	}
	return Class{}, fmt.Errorf("unknown class %q", name)
}

// ForCapability returns the method-bearing base class of a capability.
func ForCapability(c entities.Capability) (Class, bool) {
	for _, cls := range classes {
		if cls.Capability == c && !cls.Callable {
			return cls, true
		}
	}
	return Class{}, false
}
