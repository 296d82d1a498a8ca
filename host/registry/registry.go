// Package registry holds the JSON schemas of preset configurations.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"

	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
)

// Registry implements ports.SchemaRegistry. Schemas are reflected from the
// model registered for a preset kind.
type Registry struct {
	mu        sync.RWMutex
	schemas   map[string]string
	reflector *jsonschema.Reflector
	replace   bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStrictMode controls whether registering a kind twice fails (the
// default). Turning it off lets a later registration replace the schema.
func WithStrictMode(enabled bool) RegistryOption {
	return func(r *Registry) { r.replace = !enabled }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) ports.SchemaRegistry {
	r := &Registry{
		schemas: make(map[string]string),
		// Inline the model at the root so the schema reads as the preset
		// configuration itself rather than a reference to it.
		reflector: &jsonschema.Reflector{ExpandedStruct: true},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register reflects model into a JSON schema stored under kind.
func (r *Registry) Register(kind string, model interface{}) error {
	if model == nil {
		return &bridgeerrors.SchemaError{Type: kind, Err: errors.New("nil model")}
	}
	data, err := json.Marshal(r.reflector.Reflect(model))
	if err != nil {
		return &bridgeerrors.SchemaError{Type: kind, Err: fmt.Errorf("failed to marshal schema: %w", err)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[kind]; exists && !r.replace {
		return &bridgeerrors.SchemaError{Type: kind, Err: fmt.Errorf("%q already registered", kind)}
	}
	r.schemas[kind] = string(data)
	return nil
}

// GetSchema returns the schema registered for kind.
func (r *Registry) GetSchema(kind string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[kind]
	return s, ok
}

// List returns the registered kinds, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	kinds := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		kinds = append(kinds, k)
	}
	r.mu.RUnlock()
	sort.Strings(kinds)
	return kinds
}
