package foreign

import (
	"fmt"

	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
)

// coerce checks a raw foreign result against the expected kind.
func coerce(method string, want Kind, raw any) (any, error) {
	switch want {
	case KindNone:
		return nil, nil
	case KindAny:
		return raw, nil
	case KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case KindInt:
		if n, ok := toInt64(raw); ok {
			return n, nil
		}
	case KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	}
	return nil, &bridgeerrors.ContractViolationError{
		Operation: method,
		Reason:    fmt.Sprintf("expected %s result, got %T", want, raw),
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true //nolint:gosec // G115: guest values are reinterpreted, not range-checked
	}
	return 0, false
}
