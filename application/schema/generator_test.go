//go:build !wasip1

package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
)

func TestGenerateSchema_PresetConfig(t *testing.T) {
	schema, err := GenerateSchema(entities.PresetConfig{})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(schema, &decoded))

	properties, ok := decoded["properties"].(map[string]interface{})
	require.True(t, ok, "properties should be a map")
	for _, field := range []string{"input_dirs", "output_dir", "cores", "broker_port", "use_cmplog", "timeout_ms"} {
		assert.Contains(t, properties, field)
	}

	required, ok := decoded["required"].([]interface{})
	require.True(t, ok, "required should be an array")
	assert.ElementsMatch(t, []interface{}{"input_dirs", "output_dir", "cores"}, required)

	inputDirs := properties["input_dirs"].(map[string]interface{})
	assert.EqualValues(t, 1, inputDirs["minItems"])
}

func TestPresetSchema(t *testing.T) {
	out, err := PresetSchema(entities.PresetQemuBytesCoverage)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "https://reglet.dev/fuzzbridge/presets/qemu_bytes_coverage.json", decoded["$id"])
	assert.Equal(t, "qemu_bytes_coverage preset", decoded["title"])
	assert.Contains(t, decoded["properties"], "cores")

	_, err = PresetSchema("honggfuzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown preset kind "honggfuzz"`)
}

func TestSessionSchema(t *testing.T) {
	schema, err := SessionSchema()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(schema, &decoded))

	assert.Equal(t, "fuzzbridge session manifest", decoded["title"])
	schemaStr := string(schema)
	assert.Contains(t, schemaStr, `"guests"`)
	assert.Contains(t, schemaStr, `"callable"`)
	assert.Contains(t, schemaStr, `"observers"`)
}

func TestContractsDocument(t *testing.T) {
	doc, err := ContractsDocument()
	require.NoError(t, err)

	var contracts []entities.Contract
	require.NoError(t, json.Unmarshal(doc, &contracts))
	require.Len(t, contracts, 5)
	assert.Equal(t, entities.CapabilityObserver, contracts[0].Capability)

	executor := contracts[2]
	runTarget, ok := executor.Operation(entities.OpRunTarget)
	require.True(t, ok)
	assert.True(t, runTarget.Required)
	assert.Equal(t, 4, runTarget.Arity)
}
