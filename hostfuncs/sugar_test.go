package hostfuncs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
)

type staticValidator struct {
	result *entities.ValidationResult
	err    error
}

func (v staticValidator) Validate(*entities.PresetSpec) (*entities.ValidationResult, error) {
	return v.result, v.err
}

type recordingRunner struct {
	err  error
	kind entities.PresetKind
	cfg  entities.PresetConfig
	runs int
}

func (r *recordingRunner) RunPreset(_ context.Context, kind entities.PresetKind, cfg entities.PresetConfig) error {
	r.runs++
	r.kind, r.cfg = kind, cfg
	return r.err
}

type mapSchemas map[string]string

func (m mapSchemas) Register(string, interface{}) error { return nil }

func (m mapSchemas) GetSchema(kind string) (string, bool) {
	s, ok := m[kind]
	return s, ok
}

func (m mapSchemas) List() []string { return nil }

func validSpec() entities.PresetSpec {
	return entities.PresetSpec{
		Kind: entities.PresetInMemoryBytesCoverage,
		Config: entities.PresetConfig{
			InputDirs: []string{"corpus"},
			OutputDir: "out",
			Cores:     "0-1",
		},
	}
}

func TestPresetsHandler(t *testing.T) {
	var resp PresetsResponse
	invokeJSON(t, SugarBundle().Handlers()["presets"], context.Background(), struct{}{}, &resp)
	assert.Equal(t, entities.PresetKinds(), resp.Kinds)
}

func TestPerformPresetSchema(t *testing.T) {
	schemas := mapSchemas{"qemu_bytes_coverage": `{"type":"object"}`}

	resp := PerformPresetSchema(context.Background(), schemas, PresetSchemaRequest{Kind: entities.PresetQemuBytesCoverage})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"type":"object"}`, resp.Schema)

	resp = PerformPresetSchema(context.Background(), schemas, PresetSchemaRequest{Kind: "libfuzzer"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	resp = PerformPresetSchema(context.Background(), nil, PresetSchemaRequest{Kind: entities.PresetQemuBytesCoverage})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_AVAILABLE", resp.Error.Code)
}

func TestPerformValidatePreset(t *testing.T) {
	valid := staticValidator{result: &entities.ValidationResult{Valid: true}}
	resp := PerformValidatePreset(context.Background(), valid, validSpec())
	require.Nil(t, resp.Error)
	assert.True(t, resp.Result.Valid)

	failing := staticValidator{err: errors.New("validator exploded")}
	resp = PerformValidatePreset(context.Background(), failing, validSpec())
	require.NotNil(t, resp.Error)
	assert.Equal(t, "internal", resp.Error.Type)
}

func TestPerformRunPreset(t *testing.T) {
	valid := staticValidator{result: &entities.ValidationResult{Valid: true}}

	t.Run("runs with defaults applied", func(t *testing.T) {
		runner := &recordingRunner{}
		resp := PerformRunPreset(context.Background(), valid, runner, validSpec())
		require.Nil(t, resp.Error)
		assert.True(t, resp.OK)
		assert.Equal(t, 1, runner.runs)
		assert.Equal(t, entities.PresetInMemoryBytesCoverage, runner.kind)
		assert.Equal(t, uint16(entities.DefaultBrokerPort), runner.cfg.BrokerPort)
	})

	t.Run("invalid spec is not run", func(t *testing.T) {
		runner := &recordingRunner{}
		invalid := staticValidator{result: &entities.ValidationResult{
			Errors: []entities.ValidationError{{Field: "Cores", Message: "required"}},
		}}
		resp := PerformRunPreset(context.Background(), invalid, runner, validSpec())
		require.NotNil(t, resp.Error)
		assert.Equal(t, "required", resp.Error.Details["Cores"])
		assert.Zero(t, runner.runs)
	})

	t.Run("runner error", func(t *testing.T) {
		runner := &recordingRunner{err: errors.New("broker port in use")}
		resp := PerformRunPreset(context.Background(), valid, runner, validSpec())
		require.NotNil(t, resp.Error)
		assert.Contains(t, resp.Error.Message, "broker port in use")
	})

	t.Run("no runner", func(t *testing.T) {
		resp := PerformRunPreset(context.Background(), valid, nil, validSpec())
		require.NotNil(t, resp.Error)
		assert.Equal(t, "NOT_AVAILABLE", resp.Error.Code)
	})
}

func TestSugarBundle_RunPresetOverJSON(t *testing.T) {
	runner := &recordingRunner{}
	handlers := SugarBundle(
		WithPresetRunner(runner),
		WithPresetValidator(staticValidator{result: &entities.ValidationResult{Valid: true}}),
	).Handlers()

	var resp AckResponse
	invokeJSON(t, handlers["run_preset"], context.Background(), validSpec(), &resp)
	require.Nil(t, resp.Error)
	assert.Equal(t, []string{"corpus"}, runner.cfg.InputDirs)
}
