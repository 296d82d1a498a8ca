// Package log re-emits log records produced by foreign code through slog.
//
// Guests send records as LogMessageWire over the log_message host function.
// Replay decodes them and hands them to the host logger through a
// GuestHandler, which tags every record with the guest that produced it.
package log

import (
	"context"
	"log/slog"
)

// GuestHandler implements slog.Handler by forwarding to an inner handler
// with the originating guest attached to every record.
type GuestHandler struct {
	inner slog.Handler
	guest string
	opts  handlerConfig
}

// HandlerOption configures the GuestHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	key   string
	level slog.Level
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		key:   "guest",
		level: slog.LevelDebug,
	}
}

// WithLevel sets the minimum level of guest records to report.
// Records below this level are dropped even if the inner handler accepts them.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithKey sets the attribute key carrying the guest name (default "guest").
func WithKey(key string) HandlerOption {
	return func(c *handlerConfig) {
		c.key = key
	}
}

// NewGuestHandler creates a GuestHandler for records from guest.
func NewGuestHandler(inner slog.Handler, guest string, opts ...HandlerOption) *GuestHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &GuestHandler{
		inner: inner.WithAttrs([]slog.Attr{slog.String(cfg.key, guest)}),
		guest: guest,
		opts:  cfg,
	}
}

// Guest returns the guest name the handler tags records with.
func (h *GuestHandler) Guest() string {
	return h.guest
}

// Enabled reports whether the handler handles records at the given level.
func (h *GuestHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.opts.level && h.inner.Enabled(ctx, level)
}

// Handle forwards the record to the inner handler.
func (h *GuestHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.inner.Handle(ctx, record)
}

// WithAttrs returns a new GuestHandler that includes the given attributes.
func (h *GuestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandler := *h
	newHandler.inner = h.inner.WithAttrs(attrs)
	return &newHandler
}

// WithGroup returns a new GuestHandler with the given group name.
func (h *GuestHandler) WithGroup(name string) slog.Handler {
	newHandler := *h
	newHandler.inner = h.inner.WithGroup(name)
	return &newHandler
}

// Replay re-emits a guest log message through logger.
func Replay(ctx context.Context, logger *slog.Logger, guest string, msg LogMessageWire, opts ...HandlerOption) {
	h := NewGuestHandler(logger.Handler(), guest, opts...)
	level := parseLevel(msg.Level)
	if !h.Enabled(ctx, level) {
		return
	}

	record := slog.NewRecord(msg.Timestamp, level, msg.Message, 0)
	for _, a := range msg.Attrs {
		record.AddAttrs(a.Attr())
	}
	if err := h.Handle(ctx, record); err != nil {
		slog.ErrorContext(ctx, "log: failed to replay guest record", "guest", guest, "error", err)
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
