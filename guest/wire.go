package guest

import (
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/hostfuncs"
)

// Ref is the id of a value the host lends to the current export call.
type Ref uint64

// Error reports a host function that answered with an error.
type Error struct {
	Detail *entities.ErrorDetail
	Func   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("guest: %s: %s", e.Func, e.Detail.Error())
}

// Unwrap returns the host's error detail.
func (e *Error) Unwrap() error {
	return e.Detail
}

// Code returns the host's machine-readable error code, if any.
func (e *Error) Code() string {
	return e.Detail.Code
}

// decode unpacks the response of host function fn into resp. Host responses
// carry failures either as an ErrorDetail object under "error" or, for
// requests the host could not route or unmarshal, as a flat ErrorResponse.
func decode(fn string, raw []byte, resp any) error {
	if len(raw) == 0 {
		return &Error{Func: fn, Detail: entities.NewErrorDetail("internal", "empty response")}
	}

	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("guest: %s: failed to unmarshal response: %w", fn, err)
	}

	if len(env.Error) > 0 && string(env.Error) != "null" {
		if env.Error[0] == '"' {
			var flat hostfuncs.ErrorResponse
			if err := json.Unmarshal(raw, &flat); err != nil {
				return fmt.Errorf("guest: %s: failed to unmarshal error: %w", fn, err)
			}
			return &Error{Func: fn, Detail: entities.NewErrorDetail("host", flat.Message).WithCode(flat.Error)}
		}
		var detail entities.ErrorDetail
		if err := json.Unmarshal(env.Error, &detail); err != nil {
			return fmt.Errorf("guest: %s: failed to unmarshal error: %w", fn, err)
		}
		return &Error{Func: fn, Detail: &detail}
	}

	if resp == nil {
		return nil
	}
	if err := json.Unmarshal(raw, resp); err != nil {
		return fmt.Errorf("guest: %s: failed to unmarshal response: %w", fn, err)
	}
	return nil
}
