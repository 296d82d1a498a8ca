package guest

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgelog "github.com/reglet-dev/fuzzbridge/log"
)

type capture struct {
	msgs []bridgelog.LogMessageWire
}

func (c *capture) send(payload []byte) {
	var msg bridgelog.LogMessageWire
	if err := json.Unmarshal(payload, &msg); err != nil {
		panic(err)
	}
	c.msgs = append(c.msgs, msg)
}

func TestLogHandler_Levels(t *testing.T) {
	c := &capture{}
	logger := slog.New(newLogHandler(c.send, WithLogLevel(slog.LevelWarn)))

	logger.Info("dropped")
	logger.Warn("kept", "edges", 12)

	require.Len(t, c.msgs, 1)
	assert.Equal(t, "WARN", c.msgs[0].Level)
	assert.Equal(t, "kept", c.msgs[0].Message)
	require.Len(t, c.msgs[0].Attrs, 1)
	assert.Equal(t, bridgelog.LogAttrWire{Key: "edges", Type: "int64", Value: "12"}, c.msgs[0].Attrs[0])
}

func TestLogHandler_AttrsAndGroups(t *testing.T) {
	c := &capture{}
	logger := slog.New(newLogHandler(c.send)).
		With("stage", "havoc").
		WithGroup("input").
		With("len", 4)

	logger.Info("mutated", "changed", true)

	require.Len(t, c.msgs, 1)
	keys := make([]string, 0, len(c.msgs[0].Attrs))
	for _, a := range c.msgs[0].Attrs {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{"stage", "input.len", "input.changed"}, keys)
}

func TestLogHandler_KeepsRecordTime(t *testing.T) {
	c := &capture{}
	h := newLogHandler(c.send)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, h.Handle(t.Context(), slog.NewRecord(at, slog.LevelError, "boom", 0)))
	require.Len(t, c.msgs, 1)
	assert.True(t, at.Equal(c.msgs[0].Timestamp))
	assert.Equal(t, "ERROR", c.msgs[0].Level)
}
