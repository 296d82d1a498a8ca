package hostfuncs

import (
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
)

// Error codes of the flat ErrorResponse envelope.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeNotAvailable = "NOT_AVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse is the envelope a guest receives when a call never reached a
// handler, or the handler could not produce its own response: unknown
// function, undecodable request, missing backend, recovered panic.
// Handlers report domain failures in the "error" field of their response
// instead, as an entities.ErrorDetail.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func newErrorResponse(code string, status int, format string, args ...any) ErrorResponse {
	return ErrorResponse{Error: code, Message: fmt.Sprintf(format, args...), Code: status}
}

// ToJSON serializes the envelope. It returns nil only if encoding fails.
func (e ErrorResponse) ToJSON() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return data
}

// Detail converts the envelope into the ErrorDetail form handlers embed in
// their own responses.
func (e ErrorResponse) Detail() *entities.ErrorDetail {
	typ := "internal"
	if e.Error == CodeValidation {
		typ = "validation"
	}
	return entities.NewErrorDetail(typ, e.Message).WithCode(e.Error)
}

// AsErrorResponse reports whether payload is an ErrorResponse envelope.
func AsErrorResponse(payload []byte) (ErrorResponse, bool) {
	var resp ErrorResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return ErrorResponse{}, false
	}
	return resp, resp.Error != "" && resp.Code != 0
}

// NewValidationError reports a request the host could not accept.
func NewValidationError(message string) ErrorResponse {
	return newErrorResponse(CodeValidation, 400, "%s", message)
}

// NewNotFoundError reports a call to a function the namespace does not export.
func NewNotFoundError(name string) ErrorResponse {
	return newErrorResponse(CodeNotFound, 404, "unknown host function: %s", name)
}

// NewNotAvailableError reports a namespace whose backend is not configured,
// e.g. qemu functions without an emulator.
func NewNotAvailableError(what string) ErrorResponse {
	return newErrorResponse(CodeNotAvailable, 503, "%s is not available", what)
}

// NewInternalError reports an unexpected host failure.
func NewInternalError(message string) ErrorResponse {
	return newErrorResponse(CodeInternal, 500, "%s", message)
}

// NewPanicError reports a handler that panicked.
func NewPanicError(recovered any) ErrorResponse {
	switch v := recovered.(type) {
	case error:
		return newErrorResponse(CodeInternal, 500, "panic: %s", v.Error())
	case string:
		return newErrorResponse(CodeInternal, 500, "panic: %s", v)
	default:
		return newErrorResponse(CodeInternal, 500, "panic: %v", v)
	}
}
