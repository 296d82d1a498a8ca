package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationResult is the outcome of validating a session manifest or a
// preset. Valid is only meaningful after Done.
type ValidationResult struct {
	Errors []ValidationError `json:"errors,omitempty"`
	Valid  bool              `json:"valid"`
}

// ValidationError is one failed check, located by a dotted field path such
// as "guests[1].observers".
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	return e.Field + ": " + e.Message
}

// Addf records a failed check on field.
func (r *ValidationResult) Addf(field, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Merge records errs, prefixing each field with prefix and a dot.
func (r *ValidationResult) Merge(prefix string, errs ...ValidationError) {
	for _, e := range errs {
		if prefix != "" {
			e.Field = prefix + "." + e.Field
		}
		r.Errors = append(r.Errors, e)
	}
}

// Done sets Valid from the recorded errors and returns r.
func (r *ValidationResult) Done() *ValidationResult {
	r.Valid = len(r.Errors) == 0
	return r
}

// Err returns nil for a valid result, otherwise one error listing every
// failed check under "<subject> validation failed:".
func (r *ValidationResult) Err(subject string) error {
	if len(r.Errors) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(subject)
	b.WriteString(" validation failed:")
	for _, e := range r.Errors {
		b.WriteString("\n- ")
		b.WriteString(e.String())
	}
	return errors.New(b.String())
}
