package hostfuncs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/foreign"
	"github.com/reglet-dev/fuzzbridge/internal/enginetest"
)

// inCall runs fn inside a foreign call receiving args, the way a guest
// method body reaches host functions.
func inCall(t *testing.T, fn func(ctx context.Context, refs []foreign.Ref), args ...any) error {
	t.Helper()
	ctx := context.Background()
	f := foreign.NewFunc("inspect", len(args), func(ctx context.Context, lent []any) (any, error) {
		refs := make([]foreign.Ref, len(lent))
		for i, a := range lent {
			refs[i], _ = a.(foreign.Ref)
		}
		fn(ctx, refs)
		return nil, nil
	})
	h, err := foreign.NewHandle(ctx, f)
	require.NoError(t, err)
	defer h.Close(ctx)

	acc, err := h.Acquire(ctx)
	require.NoError(t, err)
	defer acc.Release()
	_, err = acc.Invoke(ctx, foreign.KindNone, args...)
	return err
}

func TestPerformInputBytes(t *testing.T) {
	input := enginetest.Input("fuzz")
	var resp InputBytesResponse
	var lenResp InputLenResponse

	require.NoError(t, inCall(t, func(ctx context.Context, refs []foreign.Ref) {
		resp = PerformInputBytes(ctx, RefRequest{Ref: refs[0].ID})
		lenResp = PerformInputLen(ctx, RefRequest{Ref: refs[0].ID})
	}, input))

	require.Nil(t, resp.Error)
	assert.Equal(t, []byte("fuzz"), resp.Data)
	require.Nil(t, lenResp.Error)
	assert.Equal(t, 4, lenResp.Len)
}

func TestPerformInputBytes_IsACopy(t *testing.T) {
	input := enginetest.Input("abc")
	require.NoError(t, inCall(t, func(ctx context.Context, refs []foreign.Ref) {
		resp := PerformInputBytes(ctx, RefRequest{Ref: refs[0].ID})
		resp.Data[0] = 'X'
	}, input))
	assert.Equal(t, enginetest.Input("abc"), input)
}

func TestPerformInputBytes_OutsideCall(t *testing.T) {
	resp := PerformInputBytes(context.Background(), RefRequest{Ref: 1})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_REF", resp.Error.Code)
}

func TestPerformInputBytes_WrongKind(t *testing.T) {
	state := &enginetest.State{Execs: 1}
	var resp InputBytesResponse
	require.NoError(t, inCall(t, func(ctx context.Context, refs []foreign.Ref) {
		resp = PerformInputBytes(ctx, RefRequest{Ref: refs[0].ID})
	}, state))

	require.NotNil(t, resp.Error)
	assert.Equal(t, "WRONG_REF_KIND", resp.Error.Code)
	assert.Equal(t, "contract_violation", resp.Error.Type)
}

func TestPerformInputBytes_RevokedAfterReturn(t *testing.T) {
	var saved context.Context
	var ref uint64
	require.NoError(t, inCall(t, func(ctx context.Context, refs []foreign.Ref) {
		saved, ref = ctx, refs[0].ID
	}, enginetest.Input("x")))

	resp := PerformInputBytes(saved, RefRequest{Ref: ref})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_REF", resp.Error.Code)
}

func TestPerformStateInfoAndObserverNames(t *testing.T) {
	state := &enginetest.State{Execs: 42, Corpus: 7}
	observers := ports.ObserversTuple{namedObserver("edges"), namedObserver("time")}

	var info StateInfoResponse
	var names ObserverNamesResponse
	require.NoError(t, inCall(t, func(ctx context.Context, refs []foreign.Ref) {
		info = PerformStateInfo(ctx, RefRequest{Ref: refs[0].ID})
		names = PerformObserverNames(ctx, RefRequest{Ref: refs[1].ID})
	}, state, observers))

	require.Nil(t, info.Error)
	assert.Equal(t, uint64(42), info.Executions)
	assert.Equal(t, 7, info.CorpusCount)
	require.Nil(t, names.Error)
	assert.Equal(t, []string{"edges", "time"}, names.Names)
}

func TestPerformSetMetadata(t *testing.T) {
	tc := enginetest.NewTestcase(enginetest.Input("in"))

	var resp, missingKey AckResponse
	require.NoError(t, inCall(t, func(ctx context.Context, refs []foreign.Ref) {
		resp = PerformSetMetadata(ctx, SetMetadataRequest{Ref: refs[0].ID, Key: "edges", Value: []byte{1, 2}})
		missingKey = PerformSetMetadata(ctx, SetMetadataRequest{Ref: refs[0].ID})
	}, tc))

	require.Nil(t, resp.Error)
	assert.True(t, resp.OK)
	got, ok := tc.Metadata("edges")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2}, got)

	require.NotNil(t, missingKey.Error)
	assert.Equal(t, "validation", missingKey.Error.Type)
}

func TestPerformDescribeClass(t *testing.T) {
	all := PerformDescribeClass(context.Background(), DescribeClassRequest{})
	require.Nil(t, all.Error)
	assert.Len(t, all.Classes, 6)

	one := PerformDescribeClass(context.Background(), DescribeClassRequest{Name: "BaseExecutor"})
	require.Nil(t, one.Error)
	require.Len(t, one.Classes, 1)
	assert.Equal(t, "as_executor", one.Classes[0].Conversion)

	missing := PerformDescribeClass(context.Background(), DescribeClassRequest{Name: "BaseScheduler"})
	require.NotNil(t, missing.Error)
	assert.Equal(t, "NOT_FOUND", missing.Error.Code)
}

func TestPerformRaise(t *testing.T) {
	var resp AckResponse
	err := inCall(t, func(ctx context.Context, _ []foreign.Ref) {
		resp = PerformRaise(ctx, RaiseRequest{Type: "ValueError", Message: "bad input"})
	})

	assert.True(t, resp.OK)
	var fe *bridgeerrors.ForeignException
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "ValueError", fe.Type)
	assert.Equal(t, "bad input", fe.Message)
}

func TestPerformRaise_DefaultTypeAndOutsideCall(t *testing.T) {
	err := inCall(t, func(ctx context.Context, _ []foreign.Ref) {
		PerformRaise(ctx, RaiseRequest{Message: "oops"})
	})
	var fe *bridgeerrors.ForeignException
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Exception", fe.Type)

	resp := PerformRaise(context.Background(), RaiseRequest{Message: "nowhere"})
	assert.False(t, resp.OK)
	require.NotNil(t, resp.Error)
}

type recordingSink struct {
	err      error
	requests []entities.AttachRequest
}

func (s *recordingSink) RequestAttach(_ context.Context, req entities.AttachRequest) error {
	s.requests = append(s.requests, req)
	return s.err
}

func invokeJSON(t *testing.T, h ByteHandler, ctx context.Context, req any, resp any) {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	out, err := h(ctx, payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(out, resp))
}

func TestAttachHandlers(t *testing.T) {
	sink := &recordingSink{}
	handlers := LibAFLBundle(sink).Handlers()
	ctx := WithCaller(context.Background(), "EdgeExecutor")

	var resp AckResponse
	invokeJSON(t, handlers["as_executor"], ctx, AttachRequestWire{Observers: []string{"edges"}}, &resp)
	require.Nil(t, resp.Error)
	assert.True(t, resp.OK)

	invokeJSON(t, handlers["as_fn_stage"], ctx, AttachRequestWire{Export: "stage_fn"}, &resp)
	require.Nil(t, resp.Error)

	require.Len(t, sink.requests, 2)
	assert.Equal(t, entities.AttachRequest{
		Guest:      "EdgeExecutor",
		Capability: entities.CapabilityExecutor,
		Observers:  []string{"edges"},
	}, sink.requests[0])
	assert.Equal(t, entities.AttachRequest{
		Guest:      "EdgeExecutor",
		Capability: entities.CapabilityStage,
		Export:     "stage_fn",
		Callable:   true,
	}, sink.requests[1])
}

func TestAttachHandlers_Rejections(t *testing.T) {
	sink := &recordingSink{}
	handlers := LibAFLBundle(sink).Handlers()
	ctx := WithCaller(context.Background(), "Guest")

	tests := []struct {
		name    string
		fn      string
		ctx     context.Context
		req     AttachRequestWire
		wantMsg string
	}{
		{name: "no caller", fn: "as_observer", ctx: context.Background(), wantMsg: "without a guest"},
		{name: "fn stage without export", fn: "as_fn_stage", ctx: ctx, wantMsg: "requires an export"},
		{name: "observers on a feedback", fn: "as_feedback", ctx: ctx, req: AttachRequestWire{Observers: []string{"x"}}, wantMsg: "only executors"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp AckResponse
			invokeJSON(t, handlers[tt.fn], tt.ctx, tt.req, &resp)
			require.NotNil(t, resp.Error)
			assert.Contains(t, resp.Error.Message, tt.wantMsg)
		})
	}
	assert.Empty(t, sink.requests)
}

func TestAttachHandlers_SinkError(t *testing.T) {
	sink := &recordingSink{err: &bridgeerrors.ConfigError{Field: "guest", Err: errors.New("already attached")}}
	handlers := LibAFLBundle(sink).Handlers()

	var resp AckResponse
	invokeJSON(t, handlers["as_mutator"], WithCaller(context.Background(), "M"), AttachRequestWire{}, &resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "config", resp.Error.Type)
}

func TestAttachHandlers_NoSink(t *testing.T) {
	handlers := LibAFLBundle(nil).Handlers()

	var resp AckResponse
	invokeJSON(t, handlers["as_stage"], WithCaller(context.Background(), "S"), AttachRequestWire{}, &resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_AVAILABLE", resp.Error.Code)
}

type namedObserver string

func (o namedObserver) Name() string { return string(o) }

func (namedObserver) Flush(context.Context) error { return nil }

func (namedObserver) PreExec(context.Context, ports.State, ports.Input) error { return nil }

func (namedObserver) PostExec(context.Context, ports.State, ports.Input, entities.ExitKind) error {
	return nil
}

func (namedObserver) PreExecChild(context.Context, ports.State, ports.Input) error { return nil }

func (namedObserver) PostExecChild(context.Context, ports.State, ports.Input, entities.ExitKind) error {
	return nil
}
