package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// LogMessageWire is a log record as sent by a guest over log_message.
type LogMessageWire struct {
	Timestamp time.Time     `json:"timestamp"`
	Attrs     []LogAttrWire `json:"attrs,omitempty"`
	Level     string        `json:"level"`
	Message   string        `json:"message"`
}

// LogAttrWire is one attribute of a LogMessageWire. Groups are flattened
// into dotted keys, so the wire form has no nesting.
type LogAttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Attribute value types on the wire.
const (
	TypeString   = "string"
	TypeInt64    = "int64"
	TypeUint64   = "uint64"
	TypeBool     = "bool"
	TypeFloat64  = "float64"
	TypeTime     = "time"
	TypeDuration = "duration"
	TypeError    = "error"
	TypeJSON     = "json"
	TypeAny      = "any"
)

// NewMessage builds the wire form of a record. Group attributes are
// flattened; empty ones are dropped the way slog handlers drop them.
func NewMessage(level slog.Level, message string, attrs ...slog.Attr) LogMessageWire {
	msg := LogMessageWire{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   message,
	}
	for _, a := range attrs {
		msg.Attrs = appendAttr(msg.Attrs, "", a)
	}
	return msg
}

func appendAttr(dst []LogAttrWire, prefix string, a slog.Attr) []LogAttrWire {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			dst = appendAttr(dst, key, ga)
		}
		return dst
	}
	typ, val := encodeValue(a.Value)
	return append(dst, LogAttrWire{Key: key, Type: typ, Value: val})
}

func encodeValue(v slog.Value) (typ, val string) {
	switch v.Kind() {
	case slog.KindString:
		return TypeString, v.String()
	case slog.KindInt64:
		return TypeInt64, strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return TypeUint64, strconv.FormatUint(v.Uint64(), 10)
	case slog.KindBool:
		return TypeBool, strconv.FormatBool(v.Bool())
	case slog.KindFloat64:
		return TypeFloat64, strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		return TypeTime, v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		return TypeDuration, v.Duration().String()
	}

	switch x := v.Any().(type) {
	case nil:
		return TypeAny, "<nil>"
	case error:
		return TypeError, x.Error()
	default:
		if data, err := json.Marshal(x); err == nil {
			return TypeJSON, string(data)
		}
		return TypeAny, fmt.Sprint(x)
	}
}

// Attr decodes the attribute. A value that does not parse as its declared
// type is kept as a string.
func (w LogAttrWire) Attr() slog.Attr {
	var (
		v   slog.Value
		err error
	)
	switch w.Type {
	case TypeInt64:
		var n int64
		n, err = strconv.ParseInt(w.Value, 10, 64)
		v = slog.Int64Value(n)
	case TypeUint64:
		var n uint64
		n, err = strconv.ParseUint(w.Value, 10, 64)
		v = slog.Uint64Value(n)
	case TypeBool:
		var b bool
		b, err = strconv.ParseBool(w.Value)
		v = slog.BoolValue(b)
	case TypeFloat64:
		var f float64
		f, err = strconv.ParseFloat(w.Value, 64)
		v = slog.Float64Value(f)
	case TypeTime:
		var ts time.Time
		ts, err = time.Parse(time.RFC3339Nano, w.Value)
		v = slog.TimeValue(ts)
	case TypeDuration:
		var d time.Duration
		d, err = time.ParseDuration(w.Value)
		v = slog.DurationValue(d)
	case TypeJSON:
		v = slog.StringValue(w.Value)
		if json.Valid([]byte(w.Value)) {
			v = slog.AnyValue(json.RawMessage(w.Value))
		}
	default:
		v = slog.StringValue(w.Value)
	}
	if err != nil {
		v = slog.StringValue(w.Value)
	}
	return slog.Attr{Key: w.Key, Value: v}
}
