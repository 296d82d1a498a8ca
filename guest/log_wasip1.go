//go:build wasip1

package guest

import (
	"log/slog"

	"github.com/reglet-dev/fuzzbridge/internal/abi"
)

// NewLogHandler returns a LogHandler bound to the host's log_message.
func NewLogHandler(opts ...LogOption) *LogHandler {
	return newLogHandler(sendLog, opts...)
}

func sendLog(payload []byte) {
	packed := abi.PtrFromBytes(payload)
	hostLogMessage(packed)
	abi.DeallocatePacked(packed)
}

func init() {
	slog.SetDefault(slog.New(NewLogHandler()))
}
