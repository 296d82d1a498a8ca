package bridge

import (
	"context"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/foreign"
	"github.com/reglet-dev/fuzzbridge/skeleton"
)

// Observer implements ports.Observer on a foreign value.
type Observer struct {
	defaults skeleton.BaseObserver
	component
}

// NewObserver wraps v. The observer's name is resolved once, here.
func NewObserver(ctx context.Context, v foreign.Value, opts ...Option) (*Observer, error) {
	var name string
	c, err := open(ctx, v, entities.ObserverContract, buildConfig(opts), func(acc *foreign.Access) (err error) {
		name, err = resolveName(ctx, acc, entities.CapabilityObserver)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.name = name
	c.logger = c.logger.With("component", name)

	o := &Observer{component: c, defaults: skeleton.BaseObserver{TypeName: name}}
	closeOnCollect(o, c.handle)
	return o, nil
}

// Flush forwards to flush().
func (o *Observer) Flush(ctx context.Context) error {
	_, err := o.call(ctx, entities.OpFlush, foreign.KindNone)
	if isMissing(err) {
		return o.defaults.Flush(ctx)
	}
	return o.absorb(ctx, entities.OpFlush, err)
}

// PreExec forwards to pre_exec(state, input).
func (o *Observer) PreExec(ctx context.Context, state ports.State, input ports.Input) error {
	_, err := o.call(ctx, entities.OpPreExec, foreign.KindNone, state, input)
	if isMissing(err) {
		return o.defaults.PreExec(ctx, state, input)
	}
	return o.absorb(ctx, entities.OpPreExec, err)
}

// PostExec forwards to post_exec(state, input, exit_kind).
func (o *Observer) PostExec(ctx context.Context, state ports.State, input ports.Input, exitKind entities.ExitKind) error {
	_, err := o.call(ctx, entities.OpPostExec, foreign.KindNone, state, input, exitKind)
	if isMissing(err) {
		return o.defaults.PostExec(ctx, state, input, exitKind)
	}
	return o.absorb(ctx, entities.OpPostExec, err)
}

// PreExecChild forwards to pre_exec_child(state, input).
func (o *Observer) PreExecChild(ctx context.Context, state ports.State, input ports.Input) error {
	_, err := o.call(ctx, entities.OpPreExecChild, foreign.KindNone, state, input)
	if isMissing(err) {
		return o.defaults.PreExecChild(ctx, state, input)
	}
	return o.absorb(ctx, entities.OpPreExecChild, err)
}

// PostExecChild forwards to post_exec_child(state, input, exit_kind).
func (o *Observer) PostExecChild(ctx context.Context, state ports.State, input ports.Input, exitKind entities.ExitKind) error {
	_, err := o.call(ctx, entities.OpPostExecChild, foreign.KindNone, state, input, exitKind)
	if isMissing(err) {
		return o.defaults.PostExecChild(ctx, state, input, exitKind)
	}
	return o.absorb(ctx, entities.OpPostExecChild, err)
}

var _ ports.Observer = (*Observer)(nil)
