package entities

import "strings"

// Error types carried in ErrorDetail.Type.
const (
	ErrorTypeMethodMissing     = "method_missing"
	ErrorTypeForeignException  = "foreign_exception"
	ErrorTypeContractViolation = "contract_violation"
	ErrorTypeRegistration      = "registration"
	ErrorTypeFeedback          = "feedback"
	ErrorTypeConfig            = "config"
	ErrorTypeValidation        = "validation"
	ErrorTypeInternal          = "internal"
)

// ErrorDetail is the error a host function reports to a guest in the
// "error" field of its response, and the serializable form of the bridge's
// typed errors. It satisfies error, so a guest can return it as is.
type ErrorDetail struct {
	Type    string         `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	// Wrapped is the cause, if it has a serializable form.
	Wrapped *ErrorDetail `json:"wrapped,omitempty"`

	// Fatal tells the engine to stop using the failing component.
	Fatal bool `json:"fatal"`
}

// NewErrorDetail returns a detail of the given type.
func NewErrorDetail(errorType, message string) *ErrorDetail {
	return &ErrorDetail{Type: errorType, Message: message}
}

// Error renders "type: message [code]: cause". The internal type is implied
// and left out.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Type != "" && e.Type != ErrorTypeInternal {
		b.WriteString(e.Type)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Code != "" {
		b.WriteString(" [")
		b.WriteString(e.Code)
		b.WriteString("]")
	}
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap returns the cause, letting errors.As reach a nested detail.
func (e *ErrorDetail) Unwrap() error {
	if e == nil || e.Wrapped == nil {
		return nil
	}
	return e.Wrapped
}

// WithDetails sets Details and returns e.
func (e *ErrorDetail) WithDetails(details map[string]any) *ErrorDetail {
	e.Details = details
	return e
}

// WithCode sets Code and returns e.
func (e *ErrorDetail) WithCode(code string) *ErrorDetail {
	e.Code = code
	return e
}
