package hostfuncs

import (
	"context"
	"encoding/json"
	"fmt"
)

// HostFunc is a typed host function. It never fails as a Go function: domain
// failures travel to the guest in the response's error field.
type HostFunc[Req any, Resp any] func(context.Context, Req) Resp

// ByteHandler is the untyped form stored in a HandlerRegistry: JSON request in,
// JSON response out. A Go error means the host itself is broken and is
// reported to the guest as INTERNAL_ERROR by the runtime adapter.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// NewJSONHandler lowers fn to a ByteHandler. An empty payload decodes as the
// zero request, which is how guests call functions without arguments
// (exit_kinds, run). An undecodable payload yields a VALIDATION_ERROR envelope
// naming the function.
func NewJSONHandler[Req any, Resp any](fn HostFunc[Req, Resp]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				call, _ := CallFrom(ctx)
				return NewValidationError(fmt.Sprintf("%s: failed to unmarshal request: %v", call.String(), err)).ToJSON(), nil
			}
		}

		out, err := json.Marshal(fn(ctx, req))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return out, nil
	}
}
