package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/fuzzbridge/application/validation"
	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/host/registry"
)

func validPreset() *entities.PresetSpec {
	return &entities.PresetSpec{
		Kind: entities.PresetForkserverBytesCoverage,
		Config: entities.PresetConfig{
			InputDirs: []string{"corpus"},
			OutputDir: "out",
			Cores:     "0,2-3",
			Program:   "./target",
			Arguments: []string{"@@"},
		},
	}
}

func fields(res *entities.ValidationResult) []string {
	out := make([]string, len(res.Errors))
	for i, e := range res.Errors {
		out[i] = e.Field
	}
	return out
}

func TestPresetValidator(t *testing.T) {
	v := validation.NewPresetValidator(nil)

	t.Run("valid", func(t *testing.T) {
		res, err := v.Validate(validPreset())
		require.NoError(t, err)
		assert.True(t, res.Valid, res.Errors)
	})

	t.Run("missing fields use json names", func(t *testing.T) {
		spec := validPreset()
		spec.Config.InputDirs = nil
		spec.Config.Cores = ""
		res, err := v.Validate(spec)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.ElementsMatch(t, []string{"config.input_dirs", "config.cores"}, fields(res))
	})

	t.Run("unknown kind", func(t *testing.T) {
		spec := validPreset()
		spec.Kind = "libfuzzer"
		res, err := v.Validate(spec)
		require.NoError(t, err)
		assert.Equal(t, []string{"kind"}, fields(res))
		assert.Contains(t, res.Errors[0].Message, "must be one of")
	})

	t.Run("kind rules", func(t *testing.T) {
		spec := validPreset()
		spec.Config.Program = ""
		res, err := v.Validate(spec)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors[0].Message, "requires program")
	})

	t.Run("bad cores", func(t *testing.T) {
		spec := validPreset()
		spec.Config.Cores = "3-1"
		res, err := v.Validate(spec)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors[0].Message, "invalid core range")
	})

	t.Run("nil spec", func(t *testing.T) {
		res, err := v.Validate(nil)
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})
}

func TestPresetValidator_Schema(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(string(entities.PresetForkserverBytesCoverage), &entities.PresetConfig{}))
	v := validation.NewPresetValidator(reg)

	res, err := v.Validate(validPreset())
	require.NoError(t, err)
	assert.True(t, res.Valid, res.Errors)

	// Compiled schemas are cached per kind.
	res, err = v.Validate(validPreset())
	require.NoError(t, err)
	assert.True(t, res.Valid)

	unregistered := validPreset()
	unregistered.Kind = entities.PresetQemuBytesCoverage
	unregistered.Config.Program = ""
	res, err = v.Validate(unregistered)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0].Message, "no schema registered for preset qemu_bytes_coverage")
}

func TestSessionValidator(t *testing.T) {
	v := validation.NewSessionValidator(nil)

	base := func() *entities.SessionManifest {
		return &entities.SessionManifest{
			Name: "edges",
			Guests: []entities.GuestSpec{
				{Name: "EdgeObserver", Path: "edge.wasm", Attach: []entities.Capability{entities.CapabilityObserver}},
				{Name: "Runner", Path: "runner.wasm", Attach: []entities.Capability{entities.CapabilityExecutor}, Observers: []string{"EdgeObserver"}},
				{Name: "Havoc", Path: "havoc.wasm", Attach: []entities.Capability{entities.CapabilityStage}, Callable: "havoc"},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(m *entities.SessionManifest)
		want   []string
	}{
		{name: "valid", mutate: func(*entities.SessionManifest) {}},
		{name: "no guests", mutate: func(m *entities.SessionManifest) { m.Guests = nil }, want: []string{"guests"}},
		{name: "missing path", mutate: func(m *entities.SessionManifest) { m.Guests[0].Path = "" }, want: []string{"guests[0].path"}},
		{name: "unknown capability", mutate: func(m *entities.SessionManifest) {
			m.Guests[0].Attach = []entities.Capability{"scheduler"}
		}, want: []string{"guests[0].attach[0]"}},
		{name: "duplicate guest", mutate: func(m *entities.SessionManifest) { m.Guests[2].Name = "Runner" }, want: []string{"guests[2].name"}},
		{name: "callable on a non-stage", mutate: func(m *entities.SessionManifest) { m.Guests[0].Callable = "fn" }, want: []string{"guests[0].callable"}},
		{name: "observers on a non-executor", mutate: func(m *entities.SessionManifest) {
			m.Guests[2].Observers = []string{"EdgeObserver"}
		}, want: []string{"guests[2].observers"}},
		{name: "unknown observer", mutate: func(m *entities.SessionManifest) {
			m.Guests[1].Observers = []string{"TimeObserver"}
		}, want: []string{"guests[1].observers"}},
		{name: "invalid preset", mutate: func(m *entities.SessionManifest) {
			m.Preset = &entities.PresetSpec{Kind: entities.PresetInMemoryBytesCoverage}
		}, want: []string{"preset.config.input_dirs", "preset.config.output_dir", "preset.config.cores"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(m)
			res, err := v.Validate(m)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want) == 0, res.Valid)
			assert.ElementsMatch(t, tt.want, fields(res))
		})
	}
}
