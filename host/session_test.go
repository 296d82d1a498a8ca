package host

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/internal/enginetest"
)

// emptyModule is the smallest valid WebAssembly binary.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// SessionSuite opens sessions of the compiled guests under testdata. Each
// .wasm there has its text form next to it.
type SessionSuite struct {
	suite.Suite
	ctx          context.Context
	rt           *Runtime
	instantiated []string
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	rt, err := NewRuntime(s.ctx, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.rt = rt
	s.instantiated = nil
}

func (s *SessionSuite) TearDownTest() {
	s.Require().NoError(s.rt.Close(s.ctx))
}

// instantiate loads guests from testdata and records their names.
func (s *SessionSuite) instantiate(ctx context.Context, rt wazero.Runtime, guest entities.GuestSpec) (api.Module, error) {
	s.instantiated = append(s.instantiated, guest.Name)
	return FileInstantiator("testdata")(ctx, rt, guest)
}

func (s *SessionSuite) open(m *entities.SessionManifest) (*Session, error) {
	return s.rt.Open(s.ctx, m, WithBaseDir("testdata"))
}

func manifest(guests ...entities.GuestSpec) *entities.SessionManifest {
	return &entities.SessionManifest{Name: "libpng", Guests: guests}
}

func guest(name, file string) entities.GuestSpec {
	return entities.GuestSpec{Name: name, Path: file + ".wasm"}
}

func (s *SessionSuite) TestOpen_GuestsAttachThemselves() {
	// The executor comes before the observer it reports.
	sess, err := s.rt.Open(s.ctx, manifest(
		guest("harness", "harness"),
		guest("edges", "observer"),
		guest("crashes", "feedback"),
		guest("havoc", "mutator"),
		guest("loop", "fn_stage"),
	), WithInstantiator(s.instantiate))
	s.Require().NoError(err)
	defer sess.Close(s.ctx)

	s.Equal([]string{"harness", "edges", "crashes", "havoc", "loop"}, s.instantiated)
	s.Equal([]string{"edges"}, sess.Observers().Names())
	s.Len(sess.Feedbacks(), 1)
	s.Equal("crashes", sess.Feedbacks()[0].Name())
	s.Len(sess.Mutators(), 1)
	s.Len(sess.Stages(), 1)

	s.Require().Len(sess.Executors(), 1)
	exec := sess.Executors()[0]
	s.Equal([]string{"edges"}, exec.Observers().Names())

	state := &enginetest.State{Execs: 3}
	kind, err := exec.RunTarget(s.ctx, &enginetest.Fuzzer{}, state, &enginetest.Manager{}, enginetest.Input("seed"))
	s.Require().NoError(err)
	s.Equal(entities.ExitKindCrash, kind)

	s.Require().NoError(sess.Stages()[0].Perform(s.ctx, &enginetest.Fuzzer{}, exec, state, &enginetest.Manager{}, 7))
	mem := s.rt.WazeroRuntime().Module("loop").Memory()
	idx, ok := mem.ReadUint64Le(96)
	s.Require().True(ok)
	s.Equal(uint64(7), idx)
}

func (s *SessionSuite) TestOpen_CompiledObserverAndFeedback() {
	sess, err := s.open(manifest(guest("edges", "edges")))
	s.Require().NoError(err)
	defer sess.Close(s.ctx)

	s.Require().Len(sess.Observers(), 1)
	s.Require().Len(sess.Feedbacks(), 1)
	obs, fb := sess.Observers()[0], sess.Feedbacks()[0]
	s.Equal("edges", obs.Name())
	s.Equal("edges", fb.Name())

	state := &enginetest.State{Execs: 1}
	input := enginetest.Input("seed")
	s.Require().NoError(obs.PreExec(s.ctx, state, input))
	s.Require().NoError(obs.PostExec(s.ctx, state, input, entities.ExitKindOk))
	s.Equal(uint64(1), s.rt.WazeroRuntime().Module("edges").ExportedGlobal("runs").Get())

	mgr := &enginetest.Manager{}
	interesting, err := fb.IsInteresting(s.ctx, state, mgr, input, sess.Observers(), entities.ExitKindOk)
	s.Require().NoError(err)
	s.True(interesting)

	interesting, err = fb.IsInteresting(s.ctx, state, mgr, input, sess.Observers(), entities.ExitKindOk)
	s.Require().NoError(err)
	s.False(interesting)
}

func (s *SessionSuite) TestOpen_FeedbackRaisesThroughHost() {
	sess, err := s.open(manifest(guest("cov", "raising")))
	s.Require().NoError(err)
	defer sess.Close(s.ctx)

	s.Require().Len(sess.Feedbacks(), 1)
	interesting, err := sess.Feedbacks()[0].IsInteresting(s.ctx, &enginetest.State{}, &enginetest.Manager{},
		enginetest.Input("seed"), sess.Observers(), entities.ExitKindOk)
	s.False(interesting)

	var evalErr *bridgeerrors.FeedbackEvaluationError
	s.Require().ErrorAs(err, &evalErr)
	s.Equal("cov", evalErr.Feedback)
	var exc *bridgeerrors.ForeignException
	s.Require().ErrorAs(err, &exc)
	s.Equal("RuntimeError", exc.Type)
	s.Equal("coverage map missing", exc.Message)
	s.False(bridgeerrors.IsFatal(err))
}

func (s *SessionSuite) TestOpen_ManifestAttachMergesWithRequests() {
	edges := guest("edges", "observer")
	edges.Attach = []entities.Capability{entities.CapabilityObserver}
	cmp := guest("cmp", "empty")
	cmp.Attach = []entities.Capability{entities.CapabilityObserver, entities.CapabilityFeedback}

	sess, err := s.open(manifest(edges, cmp))
	s.Require().NoError(err)
	defer sess.Close(s.ctx)

	s.Equal([]string{"edges", "cmp"}, sess.Observers().Names())
	s.Len(sess.Feedbacks(), 1)
}

func (s *SessionSuite) TestOpen_FailureClosesEverything() {
	_, err := s.open(manifest(guest("edges", "observer"), guest("harness", "no_target")))
	s.Require().Error(err)
	var cv *bridgeerrors.ContractViolationError
	s.Require().ErrorAs(err, &cv)
	s.Contains(err.Error(), "guest harness: attach as executor")
	s.Contains(err.Error(), "run_target")

	s.Nil(s.rt.WazeroRuntime().Module("edges"))
	s.Nil(s.rt.WazeroRuntime().Module("harness"))

	// Names are free again.
	sess, err := s.open(manifest(guest("edges", "observer"), guest("harness", "harness")))
	s.Require().NoError(err)
	s.NoError(sess.Close(s.ctx))
}

func (s *SessionSuite) TestOpen_UnknownObserver() {
	_, err := s.open(manifest(guest("harness", "harness")))
	s.Require().Error(err)
	s.Contains(err.Error(), `observer "edges" is not attached`)
}

func (s *SessionSuite) TestOpen_FnStageExportMissing() {
	_, err := s.open(manifest(guest("loop", "no_step")))
	s.Require().Error(err)
	s.Contains(err.Error(), `export "step" not found`)
}

func (s *SessionSuite) TestOpen_GuestOwnedByOneSession() {
	first, err := s.open(manifest(guest("edges", "observer")))
	s.Require().NoError(err)
	defer first.Close(s.ctx)

	_, err = s.rt.Open(s.ctx, &entities.SessionManifest{Name: "other", Guests: []entities.GuestSpec{guest("edges", "observer")}},
		WithBaseDir("testdata"))
	s.Require().Error(err)
	s.Contains(err.Error(), `guest "edges" is already loaded by session "libpng"`)
	s.Len(first.Observers(), 1)
}

func (s *SessionSuite) TestRequestAttach_OnlyWhileLoading() {
	sess, err := s.open(manifest(guest("edges", "observer")))
	s.Require().NoError(err)

	err = s.rt.RequestAttach(s.ctx, entities.AttachRequest{Guest: "edges", Capability: entities.CapabilityFeedback})
	s.ErrorIs(err, ErrSessionOpen)

	s.Require().NoError(sess.Close(s.ctx))
	s.NoError(sess.Close(s.ctx))

	err = s.rt.RequestAttach(s.ctx, entities.AttachRequest{Guest: "edges", Capability: entities.CapabilityFeedback})
	s.Error(err)
	s.Contains(err.Error(), "does not belong to a session")
}

func (s *SessionSuite) TestOpen_ReadsWasmFiles() {
	dir := s.T().TempDir()
	s.Require().NoError(os.WriteFile(filepath.Join(dir, "empty.wasm"), emptyModule, 0o600))

	empty := entities.GuestSpec{Name: "empty", Path: "empty.wasm", Attach: []entities.Capability{entities.CapabilityObserver}}
	sess, err := s.rt.Open(s.ctx, manifest(empty), WithBaseDir(dir))
	s.Require().NoError(err)
	s.Equal([]string{"empty"}, sess.Observers().Names())
	s.Require().NoError(sess.Close(s.ctx))

	missing := entities.GuestSpec{Name: "missing", Path: "missing.wasm"}
	_, err = s.rt.Open(s.ctx, manifest(missing), WithBaseDir(dir))
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to read guest module")
}

type recordingRunner struct {
	kind entities.PresetKind
	cfg  entities.PresetConfig
}

func (r *recordingRunner) RunPreset(_ context.Context, kind entities.PresetKind, cfg entities.PresetConfig) error {
	r.kind, r.cfg = kind, cfg
	return nil
}

func (s *SessionSuite) TestRunPreset() {
	sess, err := s.open(manifest(guest("edges", "observer")))
	s.Require().NoError(err)
	defer sess.Close(s.ctx)
	s.ErrorIs(sess.RunPreset(s.ctx), ErrNoPreset)

	sess.manifest.Preset = &entities.PresetSpec{
		Kind:   entities.PresetInMemoryBytesCoverage,
		Config: entities.PresetConfig{InputDirs: []string{"corpus"}, OutputDir: "out", Cores: "0-1"},
	}
	s.ErrorIs(sess.RunPreset(s.ctx), ErrNoPresetRunner)

	runner := &recordingRunner{}
	sess.runtime.runner = runner
	s.Require().NoError(sess.RunPreset(s.ctx))
	s.Equal(entities.PresetInMemoryBytesCoverage, runner.kind)
	s.Equal(entities.DefaultBrokerPort, runner.cfg.BrokerPort)

	sess.manifest.Preset.Config.Program = "./target"
	err = sess.RunPreset(s.ctx)
	var cfgErr *bridgeerrors.ConfigError
	s.Require().ErrorAs(err, &cfgErr)
	s.Equal("config", cfgErr.Field)
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}
