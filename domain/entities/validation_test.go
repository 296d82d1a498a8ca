package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResult(t *testing.T) {
	r := &ValidationResult{}
	assert.True(t, r.Done().Valid)
	assert.NoError(t, r.Err("session manifest"))

	r.Addf("guests[0].name", "duplicate guest %q", "edges")
	r.Merge("preset", ValidationError{Field: "config", Message: "requires program"})
	assert.False(t, r.Done().Valid)

	err := r.Err("session manifest")
	require.Error(t, err)
	assert.Equal(t, "session manifest validation failed:\n"+
		"- guests[0].name: duplicate guest \"edges\"\n"+
		"- preset.config: requires program", err.Error())
}
