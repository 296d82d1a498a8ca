// Package schema documents the configuration and contracts of fuzzbridge
// as JSON: reflected JSON schemas for session manifests and presets, and
// the capability contracts guests implement.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
)

// schemaBaseID prefixes the $id of every generated schema.
const schemaBaseID = "https://reglet.dev/fuzzbridge/"

// GenerateSchema reflects v into an indented draft 2020-12 JSON schema with
// the struct inlined at the root.
func GenerateSchema(v interface{}) ([]byte, error) {
	return generate(v, "", "")
}

func generate(v interface{}, id, title string) ([]byte, error) {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	s := r.Reflect(v)
	if id != "" {
		s.ID = jsonschema.ID(schemaBaseID + id)
	}
	if title != "" {
		s.Title = title
	}
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}

// SessionSchema returns the schema of session manifests.
func SessionSchema() ([]byte, error) {
	return generate(&entities.SessionManifest{}, "session.json", "fuzzbridge session manifest")
}

// PresetSchema returns the schema of the configuration of preset kind.
func PresetSchema(kind entities.PresetKind) ([]byte, error) {
	for _, k := range entities.PresetKinds() {
		if k == kind {
			return generate(&entities.PresetConfig{}, "presets/"+string(kind)+".json", string(kind)+" preset")
		}
	}
	return nil, fmt.Errorf("unknown preset kind %q", kind)
}

// ContractsDocument returns the five capability contracts, in capability
// order, as indented JSON.
func ContractsDocument() ([]byte, error) {
	caps := entities.Capabilities()
	contracts := make([]entities.Contract, len(caps))
	for i, c := range caps {
		contract, ok := entities.ContractFor(c)
		if !ok {
			return nil, fmt.Errorf("no contract for capability %q", c)
		}
		contracts[i] = contract
	}
	return json.MarshalIndent(contracts, "", "  ")
}
