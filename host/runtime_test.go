package host

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/hostfuncs"
	"github.com/reglet-dev/fuzzbridge/namespace"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRuntime(t *testing.T) {
	ctx := context.Background()
	rt, err := NewRuntime(ctx, WithLogger(quietLogger()), WithMemoryLimitPages(16), WithMaxRequestSize(4096))
	require.NoError(t, err)
	defer rt.Close(ctx)

	assert.True(t, rt.Namespace().Registered())
	for _, path := range rt.Namespace().Paths() {
		assert.NotNil(t, rt.WazeroRuntime().Module(path), path)
	}
	assert.NotNil(t, rt.WazeroRuntime().Module("wasi_snapshot_preview1"))

	for _, kind := range entities.PresetKinds() {
		_, ok := rt.Schemas().GetSchema(string(kind))
		assert.True(t, ok, kind)
	}
}

func TestNewRuntime_RegistrationFailure(t *testing.T) {
	failing := func(context.Context, namespace.Deps) (hostfuncs.HostFuncBundle, error) {
		return nil, errors.New("emulator support not compiled in")
	}
	_, err := NewRuntime(context.Background(),
		WithLogger(quietLogger()),
		WithNamespaceOptions(namespace.WithBuilder(namespace.QEMU, failing)),
	)
	require.Error(t, err)

	var regErr *bridgeerrors.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "fuzzbridge.qemu", regErr.Namespace)
}

func TestNewRuntime_PresetValidatorUsesSchemas(t *testing.T) {
	ctx := context.Background()
	rt, err := NewRuntime(ctx, WithLogger(quietLogger()))
	require.NoError(t, err)
	defer rt.Close(ctx)

	res, err := rt.PresetValidator().Validate(&entities.PresetSpec{
		Kind:   entities.PresetQemuBytesCoverage,
		Config: entities.PresetConfig{InputDirs: []string{"corpus"}, OutputDir: "out", Cores: "all"},
	})
	require.NoError(t, err)
	assert.True(t, res.Valid, res.Errors)
}

func TestRequestAttach_UnknownGuest(t *testing.T) {
	ctx := context.Background()
	rt, err := NewRuntime(ctx, WithLogger(quietLogger()))
	require.NoError(t, err)
	defer rt.Close(ctx)

	err = rt.RequestAttach(ctx, entities.AttachRequest{Guest: "stray", Capability: entities.CapabilityObserver})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `guest "stray" does not belong to a session`)
}
