// Package enginetest provides in-memory engine values for tests.
package enginetest

import (
	"sync"

	"github.com/reglet-dev/fuzzbridge/domain/ports"
)

// Input is a byte input.
type Input []byte

// Bytes implements ports.Input.
func (i Input) Bytes() []byte { return i }

// State is a fixed engine state.
type State struct {
	Execs  uint64
	Corpus int
}

// Executions implements ports.State.
func (s *State) Executions() uint64 { return s.Execs }

// CorpusCount implements ports.State.
func (s *State) CorpusCount() int { return s.Corpus }

// Testcase records metadata set on it.
type Testcase struct {
	In       Input
	metadata map[string][]byte
	mu       sync.Mutex
}

// NewTestcase returns a testcase for input.
func NewTestcase(input Input) *Testcase {
	return &Testcase{In: input, metadata: make(map[string][]byte)}
}

// Input implements ports.Testcase.
func (tc *Testcase) Input() ports.Input { return tc.In }

// SetMetadata implements ports.Testcase.
func (tc *Testcase) SetMetadata(key string, value []byte) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.metadata[key] = append([]byte(nil), value...)
}

// Metadata returns the blob stored under key.
func (tc *Testcase) Metadata(key string) ([]byte, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	v, ok := tc.metadata[key]
	return v, ok
}

// Manager is an opaque event manager.
type Manager struct{ Name string }

// Fuzzer is an opaque fuzzer.
type Fuzzer struct{ Name string }

var (
	_ ports.Input    = Input(nil)
	_ ports.State    = (*State)(nil)
	_ ports.Testcase = (*Testcase)(nil)
)
