package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/foreign"
	"github.com/reglet-dev/fuzzbridge/skeleton"
)

// Mutator implements ports.Mutator on a foreign value.
type Mutator struct {
	defaults skeleton.BaseMutator
	component
}

// NewMutator wraps v. The mutator's name is resolved once, here.
func NewMutator(ctx context.Context, v foreign.Value, opts ...Option) (*Mutator, error) {
	var name string
	c, err := open(ctx, v, entities.MutatorContract, buildConfig(opts), func(acc *foreign.Access) (err error) {
		name, err = resolveName(ctx, acc, entities.CapabilityMutator)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.name = name
	c.logger = c.logger.With("component", name)

	m := &Mutator{component: c, defaults: skeleton.BaseMutator{TypeName: name}}
	closeOnCollect(m, c.handle)
	return m, nil
}

// Mutate forwards to mutate(state, input, stage_idx).
func (m *Mutator) Mutate(ctx context.Context, state ports.State, input ports.Input, stageIdx int) (entities.MutationResult, error) {
	v, err := m.call(ctx, entities.OpMutate, foreign.KindAny, state, input, stageIdx)
	if err == nil {
		return toMutationResult(v)
	}
	if isMissing(err) {
		return m.defaults.Mutate(ctx, state, input, stageIdx)
	}
	if err := m.absorb(ctx, entities.OpMutate, err); err != nil {
		return entities.MutationSkipped, err
	}
	return m.defaults.Mutate(ctx, state, input, stageIdx)
}

// PostExec forwards to post_exec(state, stage_idx, corpus_idx).
func (m *Mutator) PostExec(ctx context.Context, state ports.State, stageIdx int, corpusIdx entities.CorpusID) error {
	_, err := m.call(ctx, entities.OpPostExec, foreign.KindNone, state, stageIdx, corpusIdx)
	if isMissing(err) {
		return m.defaults.PostExec(ctx, state, stageIdx, corpusIdx)
	}
	return m.absorb(ctx, entities.OpPostExec, err)
}

// toMutationResult maps a foreign mutate result onto MutationResult.
func toMutationResult(v any) (entities.MutationResult, error) {
	switch r := v.(type) {
	case nil:
		return entities.MutationSkipped, nil
	case bool:
		if r {
			return entities.MutationMutated, nil
		}
		return entities.MutationSkipped, nil
	case entities.MutationResult:
		if r == entities.MutationSkipped || r == entities.MutationMutated {
			return r, nil
		}
	case int64:
		switch r {
		case 0:
			return entities.MutationSkipped, nil
		case 1:
			return entities.MutationMutated, nil
		}
	case string:
		switch strings.ToLower(r) {
		case "skipped":
			return entities.MutationSkipped, nil
		case "mutated":
			return entities.MutationMutated, nil
		}
	}
	return entities.MutationSkipped, &bridgeerrors.ContractViolationError{
		Capability: entities.CapabilityMutator,
		Operation:  entities.OpMutate,
		Reason:     fmt.Sprintf("unrecognized mutation result %#v", v),
	}
}

var _ ports.Mutator = (*Mutator)(nil)
