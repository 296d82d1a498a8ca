package guest

import (
	"context"
	"encoding/json"
	"log/slog"

	bridgelog "github.com/reglet-dev/fuzzbridge/log"
)

// LogHandler implements slog.Handler by sending records to the host's
// log_message function, where they are re-emitted tagged with the guest name.
type LogHandler struct {
	send   func([]byte)
	prefix string
	attrs  []slog.Attr
	opts   logConfig
}

// LogOption configures the LogHandler.
type LogOption func(*logConfig)

type logConfig struct {
	level slog.Level
}

func defaultLogConfig() logConfig {
	return logConfig{level: slog.LevelInfo}
}

// WithLogLevel sets the minimum level to send. Records below it never leave
// the guest.
func WithLogLevel(level slog.Level) LogOption {
	return func(c *logConfig) {
		c.level = level
	}
}

func newLogHandler(send func([]byte), opts ...LogOption) *LogHandler {
	cfg := defaultLogConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &LogHandler{send: send, opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level
}

// Handle serializes the record and sends it to the host.
func (h *LogHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+record.NumAttrs())
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify(a))
		return true
	})

	msg := bridgelog.NewMessage(record.Level, record.Message, attrs...)
	if !record.Time.IsZero() {
		msg.Timestamp = record.Time
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.send(payload)
	return nil
}

// WithAttrs returns a new LogHandler that includes the given attributes.
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandler := *h
	newHandler.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		newHandler.attrs = append(newHandler.attrs, h.qualify(a))
	}
	return &newHandler
}

// WithGroup returns a new LogHandler that prefixes later keys with name.
// The wire format is flat, so groups become dotted keys.
func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newHandler := *h
	newHandler.prefix = h.prefix + name + "."
	return &newHandler
}

func (h *LogHandler) qualify(a slog.Attr) slog.Attr {
	if h.prefix == "" {
		return a
	}
	return slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
}
