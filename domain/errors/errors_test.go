package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodMissingError(t *testing.T) {
	err := &MethodMissingError{Type: "CovObserver", Method: "flush"}

	assert.Equal(t, `CovObserver has no method "flush"`, err.Error())
	assert.True(t, errors.Is(err, ErrMethodMissing))
	assert.False(t, IsFatal(err))

	wrapped := fmt.Errorf("dispatch: %w", err)
	assert.True(t, errors.Is(wrapped, ErrMethodMissing))
	assert.False(t, IsFatal(wrapped))
}

func TestForeignException(t *testing.T) {
	err := Raise("ValueError", "bad input %d", 3)
	assert.Equal(t, "foreign exception: ValueError: bad input 3", err.Error())

	err.Method = "run_target"
	assert.Equal(t, "foreign exception in run_target: ValueError: bad input 3", err.Error())
	assert.True(t, IsFatal(err))

	detail := err.ToErrorDetail()
	assert.Equal(t, "foreign_exception", detail.Type)
	assert.Equal(t, "ValueError", detail.Code)
	assert.True(t, detail.Fatal)
}

func TestContractViolationError(t *testing.T) {
	err := &ContractViolationError{
		Capability: entities.CapabilityExecutor,
		Operation:  "run_target",
		Reason:     "unrecognized exit kind",
	}

	assert.Equal(t, "contract violation: executor.run_target: unrecognized exit kind", err.Error())
	assert.True(t, IsFatal(err))

	detail := ToErrorDetail(err)
	assert.Equal(t, "contract_violation", detail.Type)
	assert.Equal(t, "executor.run_target", detail.Code)
}

func TestNotImplemented(t *testing.T) {
	err := NotImplemented(entities.CapabilityExecutor, "run_target")

	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "required method is not implemented")

	var cv *ContractViolationError
	require.True(t, errors.As(fmt.Errorf("attach: %w", err), &cv))
	assert.Equal(t, "run_target", cv.Operation)
}

func TestFeedbackEvaluationError(t *testing.T) {
	cause := Raise("RuntimeError", "boom")
	err := &FeedbackEvaluationError{Feedback: "MaxMap", Err: cause}

	assert.False(t, IsFatal(err))
	assert.True(t, errors.Is(err, cause))

	detail := err.ToErrorDetail()
	assert.Equal(t, "feedback", detail.Type)
	assert.False(t, detail.Fatal)
	require.NotNil(t, detail.Wrapped)
	assert.Equal(t, "foreign_exception", detail.Wrapped.Type)
}

func TestRegistrationError(t *testing.T) {
	cause := errors.New(`duplicate host function "run"`)
	err := &RegistrationError{Namespace: "fuzzbridge.qemu", Err: cause}

	assert.Equal(t, `registration of fuzzbridge.qemu failed: duplicate host function "run"`, err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsFatal(err))
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "cores", Err: errors.New("invalid core range")}
	assert.Equal(t, "config validation failed for field 'cores': invalid core range", err.Error())

	noField := &ConfigError{Err: errors.New("empty")}
	assert.Equal(t, "config validation failed: empty", noField.Error())
}

func TestToErrorDetail(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, ToErrorDetail(nil))
	})

	t.Run("plain error is internal", func(t *testing.T) {
		detail := ToErrorDetail(errors.New("oops"))
		assert.Equal(t, "internal", detail.Type)
		assert.Equal(t, "oops", detail.Message)
		assert.True(t, detail.Fatal)
	})

	t.Run("entity passes through", func(t *testing.T) {
		entity := entities.NewErrorDetail("config", "bad")
		assert.Same(t, entity, ToErrorDetail(fmt.Errorf("wrap: %w", entity)))
	})
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err   error
		name  string
		fatal bool
	}{
		{name: "nil", err: nil, fatal: false},
		{name: "sentinel method missing", err: ErrMethodMissing, fatal: false},
		{name: "reentrant", err: ErrReentrantCall, fatal: true},
		{name: "plain", err: errors.New("x"), fatal: true},
		{name: "feedback", err: &FeedbackEvaluationError{Err: ErrNotCallable}, fatal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}
