// Package testutil provides common test utilities and assertions for bridge tests.
package testutil

import (
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}

// RequireForeignException asserts that err carries a foreign exception of the given type
// and returns it.
func RequireForeignException(t *testing.T, err error, typ string) *bridgeerrors.ForeignException {
	t.Helper()
	var exc *bridgeerrors.ForeignException
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, typ, exc.Type)
	return exc
}

// RequireContractViolation asserts that err is a contract violation of capability.op
func RequireContractViolation(t *testing.T, err error, c entities.Capability, op string) *bridgeerrors.ContractViolationError {
	t.Helper()
	var cv *bridgeerrors.ContractViolationError
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, c, cv.Capability)
	assert.Equal(t, op, cv.Operation)
	assert.True(t, bridgeerrors.IsFatal(err), "contract violations are fatal")
	return cv
}

// OverlapCounter counts how many callers are inside a region at once.
type OverlapCounter struct {
	inside atomic.Int32
	peak   atomic.Int32
	total  atomic.Int64
}

// Enter marks a caller entering the region.
func (p *OverlapCounter) Enter() {
	n := p.inside.Add(1)
	p.total.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

// Exit marks a caller leaving the region.
func (p *OverlapCounter) Exit() {
	p.inside.Add(-1)
}

// Peak returns the largest number of callers seen inside at once.
func (p *OverlapCounter) Peak() int32 {
	return p.peak.Load()
}

// Total returns the number of Enter calls.
func (p *OverlapCounter) Total() int64 {
	return p.total.Load()
}
