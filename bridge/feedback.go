package bridge

import (
	"context"
	stdErrors "errors"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/foreign"
	"github.com/reglet-dev/fuzzbridge/skeleton"
)

// Feedback implements ports.Feedback on a foreign value.
type Feedback struct {
	defaults skeleton.BaseFeedback
	component
}

// NewFeedback wraps v. The feedback's name is resolved once, here.
func NewFeedback(ctx context.Context, v foreign.Value, opts ...Option) (*Feedback, error) {
	var name string
	c, err := open(ctx, v, entities.FeedbackContract, buildConfig(opts), func(acc *foreign.Access) (err error) {
		name, err = resolveName(ctx, acc, entities.CapabilityFeedback)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.name = name
	c.logger = c.logger.With("component", name)

	f := &Feedback{component: c, defaults: skeleton.BaseFeedback{TypeName: name}}
	closeOnCollect(f, c.handle)
	return f, nil
}

// InitState forwards to init_state(state).
func (f *Feedback) InitState(ctx context.Context, state ports.State) error {
	_, err := f.call(ctx, entities.OpInitState, foreign.KindNone, state)
	if isMissing(err) {
		return f.defaults.InitState(ctx, state)
	}
	return f.absorb(ctx, entities.OpInitState, err)
}

// IsInteresting forwards to is_interesting(state, mgr, input, observers, exit_kind).
//
// A foreign exception yields false and a *errors.FeedbackEvaluationError,
// which errors.IsFatal reports as recoverable.
func (f *Feedback) IsInteresting(ctx context.Context, state ports.State, mgr ports.EventManager, input ports.Input, observers ports.ObserversTuple, exitKind entities.ExitKind) (bool, error) {
	v, err := f.call(ctx, entities.OpIsInteresting, foreign.KindBool, state, mgr, input, observers, exitKind)
	if err == nil {
		return v.(bool), nil
	}
	if isMissing(err) {
		return f.defaults.IsInteresting(ctx, state, mgr, input, observers, exitKind)
	}

	var exc *bridgeerrors.ForeignException
	if stdErrors.As(err, &exc) {
		f.logger.WarnContext(ctx, "bridge: feedback evaluation failed",
			"method", entities.OpIsInteresting,
			"type", exc.Type,
			"error", exc.Message,
		)
		return false, &bridgeerrors.FeedbackEvaluationError{Err: err, Feedback: f.name}
	}
	return false, err
}

// AppendMetadata forwards to append_metadata(state, testcase).
func (f *Feedback) AppendMetadata(ctx context.Context, state ports.State, testcase ports.Testcase) error {
	_, err := f.call(ctx, entities.OpAppendMetadata, foreign.KindNone, state, testcase)
	if isMissing(err) {
		return f.defaults.AppendMetadata(ctx, state, testcase)
	}
	return f.absorb(ctx, entities.OpAppendMetadata, err)
}

// DiscardMetadata forwards to discard_metadata(state, input).
func (f *Feedback) DiscardMetadata(ctx context.Context, state ports.State, input ports.Input) error {
	_, err := f.call(ctx, entities.OpDiscardMetadata, foreign.KindNone, state, input)
	if isMissing(err) {
		return f.defaults.DiscardMetadata(ctx, state, input)
	}
	return f.absorb(ctx, entities.OpDiscardMetadata, err)
}

var _ ports.Feedback = (*Feedback)(nil)
