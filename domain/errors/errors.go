// Package errors provides the error taxonomy of the bridge.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
)

// Sentinel conditions. Typed errors below match them through Is.
var (
	// ErrMethodMissing means the foreign object does not define a method.
	// Callers with a default resolve it through the skeleton fallback.
	ErrMethodMissing = stdErrors.New("foreign method missing")

	// ErrNotImplemented means a required operation has no foreign implementation.
	ErrNotImplemented = stdErrors.New("not implemented")

	// ErrNotCallable means a foreign value cannot be invoked directly.
	ErrNotCallable = stdErrors.New("foreign value is not callable")

	// ErrReentrantCall means foreign code tried to re-enter the interpreter lock.
	ErrReentrantCall = stdErrors.New("reentrant foreign call")

	// ErrHandleClosed means a handle was used after Close.
	ErrHandleClosed = stdErrors.New("foreign handle closed")
)

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
		Fatal:   true,
	}
}

// IsFatal reports whether err must be surfaced to the engine's failure policy.
// Missing methods and feedback evaluation failures are recoverable; everything
// else, including unknown errors, is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var cv *ContractViolationError
	if stdErrors.As(err, &cv) {
		return true
	}
	var fe *FeedbackEvaluationError
	if stdErrors.As(err, &fe) {
		return false
	}
	return !stdErrors.Is(err, ErrMethodMissing)
}

// MethodMissingError reports a failed method lookup on a foreign object.
type MethodMissingError struct {
	Type   string
	Method string
}

func (e *MethodMissingError) Error() string {
	return fmt.Sprintf("%s has no method %q", e.Type, e.Method)
}

// Is matches ErrMethodMissing.
func (e *MethodMissingError) Is(target error) bool {
	return target == ErrMethodMissing
}

// ToErrorDetail implements DetailedError.
func (e *MethodMissingError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "method_missing", Code: e.Method}
}

// ForeignException is an exception raised by foreign code and propagated to the host.
type ForeignException struct {
	// Type is the foreign exception's type name (e.g. "ValueError", "trap").
	Type string `json:"type"`

	// Message is the foreign exception's message.
	Message string `json:"message"`

	// Method is the foreign method that raised, if known.
	Method string `json:"method,omitempty"`
}

func (e *ForeignException) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("foreign exception in %s: %s: %s", e.Method, e.Type, e.Message)
	}
	return fmt.Sprintf("foreign exception: %s: %s", e.Type, e.Message)
}

// ToErrorDetail implements DetailedError.
func (e *ForeignException) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Message, Type: "foreign_exception", Code: e.Type, Fatal: true}
}

// Raise builds a foreign exception. In-process foreign objects return it to raise.
func Raise(typ, format string, args ...any) *ForeignException {
	return &ForeignException{Type: typ, Message: fmt.Sprintf(format, args...)}
}

// ContractViolationError reports a foreign object or value that does not fit the
// native contract: a missing required method, a wrong arity or a result that
// cannot be mapped onto the expected native shape.
type ContractViolationError struct {
	Err        error
	Capability entities.Capability
	Operation  string
	Reason     string
}

func (e *ContractViolationError) Error() string {
	msg := fmt.Sprintf("contract violation: %s.%s: %s", e.Capability, e.Operation, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ContractViolationError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ContractViolationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    "contract_violation",
		Code:    string(e.Capability) + "." + e.Operation,
		Fatal:   true,
	}
}

// NotImplemented builds the contract violation for a required operation
// the foreign object does not define.
func NotImplemented(c entities.Capability, op string) *ContractViolationError {
	return &ContractViolationError{
		Capability: c,
		Operation:  op,
		Reason:     "required method is not implemented",
		Err:        ErrNotImplemented,
	}
}

// RegistrationError reports a sub-bridge that failed to build at load time.
type RegistrationError struct {
	Err       error
	Namespace string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration of %s failed: %v", e.Namespace, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *RegistrationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "registration", Code: e.Namespace, Fatal: true}
}

// FeedbackEvaluationError reports a failed is_interesting evaluation.
// It is non-fatal: the engine decides whether to treat the input as
// uninteresting or to abort.
type FeedbackEvaluationError struct {
	Err      error
	Feedback string
}

func (e *FeedbackEvaluationError) Error() string {
	return fmt.Sprintf("feedback %s evaluation failed: %v", e.Feedback, e.Err)
}

func (e *FeedbackEvaluationError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *FeedbackEvaluationError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "feedback", Code: e.Feedback}
	if inner := ToErrorDetail(e.Err); inner != nil {
		detail.Wrapped = inner
	}
	return detail
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field, Fatal: true}
}

// SchemaError represents a schema generation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: "schema", Fatal: true}
}
