package hostfuncs

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps every handler of a registry.
type Middleware func(next ByteHandler) ByteHandler

// Chain composes middleware so that mw[0] runs first.
func Chain(mw ...Middleware) Middleware {
	return func(h ByteHandler) ByteHandler {
		for i := len(mw) - 1; i >= 0; i-- {
			h = mw[i](h)
		}
		return h
	}
}

// PanicRecoveryMiddleware answers a panicking handler with an INTERNAL_ERROR
// envelope instead of trapping the calling guest.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp, err = NewPanicError(r).ToJSON(), nil
				}
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware logs every call at debug level, envelopes returned to
// the guest at warn level and Go errors at error level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			call, _ := CallFrom(ctx)
			attrs := []any{"function", call.String(), "guest", call.Guest}

			start := time.Now()
			resp, err := next(ctx, payload)
			attrs = append(attrs, "duration", time.Since(start))

			switch envelope, isEnvelope := AsErrorResponse(resp); {
			case err != nil:
				logger.ErrorContext(ctx, "hostfuncs: host function failed", append(attrs, "error", err)...)
			case isEnvelope:
				logger.WarnContext(ctx, "hostfuncs: host function rejected call",
					append(attrs, "code", envelope.Error, "message", envelope.Message)...)
			default:
				logger.DebugContext(ctx, "hostfuncs: host function completed", attrs...)
			}
			return resp, err
		}
	}
}
