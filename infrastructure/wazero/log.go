package wazero

import (
	"context"
	"encoding/json"
	"log/slog"

	bridgelog "github.com/reglet-dev/fuzzbridge/log"
	"github.com/tetratelabs/wazero/api"
)

// LogMessageHandler returns the log_message host function. Guests send a
// JSON-encoded log.LogMessageWire and get no response.
func LogMessageHandler(logger *slog.Logger) CustomHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return CustomHandler{
		Name: "log_message",
		Handler: api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			mem := guestMemory(mod)
			if mem == nil {
				return
			}
			ptr, length := unpackPtrLen(stack[0])
			payload, ok := mem.Read(ptr, length)
			if !ok {
				slog.ErrorContext(ctx, "wazero: failed to read log message from guest memory", "guest", mod.Name())
				return
			}

			var msg bridgelog.LogMessageWire
			if err := json.Unmarshal(payload, &msg); err != nil {
				logger.InfoContext(ctx, "guest log (raw)", "guest", callerOf(ctx, mod), "payload", string(payload))
				return
			}
			bridgelog.Replay(ctx, logger, callerOf(ctx, mod), msg)
		}),
		ParamTypes:  []api.ValueType{api.ValueTypeI64},
		ResultTypes: []api.ValueType{},
	}
}
