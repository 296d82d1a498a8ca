package hostfuncs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracing(trace *[]string, name string) Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			*trace = append(*trace, name+">")
			resp, err := next(ctx, payload)
			*trace = append(*trace, "<"+name)
			return resp, err
		}
	}
}

func TestChain(t *testing.T) {
	var trace []string
	h := Chain(tracing(&trace, "outer"), tracing(&trace, "inner"))(func(context.Context, []byte) ([]byte, error) {
		trace = append(trace, "handler")
		return nil, nil
	})

	_, err := h(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer>", "inner>", "handler", "<inner", "<outer"}, trace)

	// An empty chain leaves the handler as is.
	resp, err := Chain()(echo)(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "echo:x", string(resp))
}

func TestWithMiddleware_WrapsEveryFunction(t *testing.T) {
	var trace []string
	seen := map[string]int{}
	counting := func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			call, _ := CallFrom(ctx)
			seen[call.Function]++
			return next(ctx, payload)
		}
	}

	reg, err := NewRegistry(
		WithMiddleware(tracing(&trace, "a")),
		WithMiddleware(counting, tracing(&trace, "b")),
		WithByteHandler("read_mem", nop),
		WithByteHandler("write_mem", nop),
	)
	require.NoError(t, err)

	_, _ = reg.Invoke(context.Background(), "read_mem", nil)
	_, _ = reg.Invoke(context.Background(), "write_mem", nil)
	_, _ = reg.Invoke(context.Background(), "write_mem", nil)

	assert.Equal(t, map[string]int{"read_mem": 1, "write_mem": 2}, seen)
	assert.Equal(t, []string{"a>", "b>", "<b", "<a"}, trace[:4])
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	h := PanicRecoveryMiddleware()(func(context.Context, []byte) ([]byte, error) {
		panic("observer map overflow")
	})

	resp, err := h(context.Background(), []byte("{}"))
	require.NoError(t, err)
	envelope, ok := AsErrorResponse(resp)
	require.True(t, ok)
	assert.Equal(t, CodeInternal, envelope.Error)
	assert.Equal(t, "panic: observer map overflow", envelope.Message)

	resp, err = PanicRecoveryMiddleware()(echo)(context.Background(), []byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, "echo:ok", string(resp))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg, err := NewRegistry(
		WithNamespace("fuzzbridge.libafl"),
		WithMiddleware(LoggingMiddleware(logger)),
		WithByteHandler("state_info", func(context.Context, []byte) ([]byte, error) {
			return []byte(`{"executions":3}`), nil
		}),
		WithByteHandler("input_bytes", func(context.Context, []byte) ([]byte, error) {
			return NewValidationError("ref 9 is not lent").ToJSON(), nil
		}),
		WithByteHandler("raise", func(context.Context, []byte) ([]byte, error) {
			return nil, errors.New("boom")
		}),
	)
	require.NoError(t, err)
	ctx := WithCaller(context.Background(), "EdgeFeedback")

	_, err = reg.Invoke(ctx, "state_info", nil)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "host function completed")
	assert.Contains(t, out, "function=fuzzbridge.libafl.state_info")
	assert.Contains(t, out, "guest=EdgeFeedback")
	assert.Contains(t, out, "duration=")

	buf.Reset()
	_, err = reg.Invoke(ctx, "input_bytes", nil)
	require.NoError(t, err)
	out = buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "host function rejected call")
	assert.Contains(t, out, "code=VALIDATION_ERROR")

	buf.Reset()
	_, err = reg.Invoke(ctx, "raise", nil)
	require.Error(t, err)
	out = buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error=boom")
}

func TestLoggingMiddleware_NilLogger(t *testing.T) {
	h := LoggingMiddleware(nil)(echo)
	resp, err := h(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "echo:x", string(resp))
}
