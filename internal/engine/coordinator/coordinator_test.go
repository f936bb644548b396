package coordinator_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/rewind/internal/adapters/codec"
	"go.trai.ch/rewind/internal/adapters/fingerprint"
	"go.trai.ch/rewind/internal/adapters/reconstruct"
	"go.trai.ch/rewind/internal/adapters/registry"
	"go.trai.ch/rewind/internal/adapters/selection"
	"go.trai.ch/rewind/internal/adapters/store"
	"go.trai.ch/rewind/internal/adapters/telemetry"
	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/rewind/internal/core/ports/mocks"
	"go.trai.ch/rewind/internal/engine/coordinator"
	"go.trai.ch/rewind/internal/testutil"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	coord         *coordinator.Coordinator
	store         *store.Store
	registry      *registry.Registry
	reconstructor *reconstruct.Reconstructor
	logger        *mocks.MockLogger
}

type option func(*fixtureConfig)

type fixtureConfig struct {
	tracer ports.Tracer
	codecs func(chain *codec.Chain) []ports.Codec
}

func withTracer(tracer ports.Tracer) option {
	return func(c *fixtureConfig) { c.tracer = tracer }
}

func withCodecs(codecs ...ports.Codec) option {
	return func(c *fixtureConfig) {
		c.codecs = func(*codec.Chain) []ports.Codec { return codecs }
	}
}

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()

	cfg := &fixtureConfig{
		tracer: telemetry.NewNoOpTracer(),
		codecs: func(chain *codec.Chain) []ports.Codec { return chain.Codecs() },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()

	catalog := testutil.AnalyticsSchema(t)
	r := reconstruct.New(catalog, logger)
	chain := codec.NewChain(codec.NewTypedCodec(r, selection.NewCodec(catalog)), codec.NewOpaqueCodec())

	root := filepath.Join(t.TempDir(), domain.DefaultCacheDir)
	reg := registry.New(domain.RegistryPath(root))
	st := store.NewStore(root, chain.Extensions())

	return &fixture{
		coord: coordinator.New(
			fingerprint.NewHasher(reg, logger, false),
			reg, st, cfg.codecs(chain), logger, cfg.tracer,
		),
		store:         st,
		registry:      reg,
		reconstructor: r,
		logger:        logger,
	}
}

var getDataset = domain.NewCall("DatasetService.getDataset", "d1")

func (f *fixture) fetch(calls *int) coordinator.RealCall {
	return func(context.Context) (any, error) {
		*calls++
		obj, err := f.reconstructor.Build("Dataset", testutil.DatasetPayload(), testutil.DatasetSelection())
		if err != nil {
			return nil, err
		}
		return obj, nil
	}
}

func TestInterceptor_RecordThenLazyReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	calls := 0

	recorded, err := f.coord.WithCache(domain.ModeRecord).Do(ctx, getDataset, f.fetch(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	records, err := f.store.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.TypedExt, filepath.Ext(records[0]))

	replayed, err := f.coord.WithCache(domain.ModeLazy).Do(ctx, getDataset, f.fetch(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "lazy replay must not invoke the real call")

	obj, ok := replayed.(*domain.Object)
	require.True(t, ok)
	assert.Equal(t, "d1", obj.String("id"))

	want, err := recorded.(*domain.Object).MarshalJSON()
	require.NoError(t, err)
	have, err := obj.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(have))
}

func TestInterceptor_RecordAlwaysCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	calls := 0

	rec := f.coord.WithCache(domain.ModeRecord)
	for range 3 {
		_, err := rec.Do(ctx, getDataset, f.fetch(&calls))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)

	records, err := f.store.Records()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestInterceptor_StrictMiss(t *testing.T) {
	f := newFixture(t)
	calls := 0

	_, err := f.coord.WithCache(domain.ModeStrict).Do(context.Background(), getDataset, f.fetch(&calls))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCacheMiss))
	assert.Contains(t, err.Error(), "getDataset('d1')")
	assert.Equal(t, 0, calls)
}

func TestInterceptor_StrictHit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	calls := 0

	_, err := f.coord.WithCache(domain.ModeRecord).Do(ctx, getDataset, f.fetch(&calls))
	require.NoError(t, err)

	v, err := f.coord.WithCache(domain.ModeStrict).Do(ctx, getDataset, f.fetch(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Sales", v.(*domain.Object).String("name"))
}

func TestInterceptor_LazyMissCallsThroughAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	calls := 0
	lazy := f.coord.WithCache(domain.ModeLazy)

	_, err := lazy.Do(ctx, getDataset, f.fetch(&calls))
	require.NoError(t, err)
	_, err = lazy.Do(ctx, getDataset, f.fetch(&calls))
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	fp, err := f.coord.Fingerprint(getDataset)
	require.NoError(t, err)
	assert.True(t, f.coord.Exists(getDataset.Method, fp))
}

func TestInterceptor_LazyRecoversFromCorruptRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fp, err := f.coord.Fingerprint(getDataset)
	require.NoError(t, err)
	base, err := f.store.ResolvePath(getDataset.Method, fp, true)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(base+domain.TypedExt, []byte("{broken"), 0o600))

	f.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	calls := 0
	v, err := f.coord.WithCache(domain.ModeLazy).Do(ctx, getDataset, f.fetch(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "d1", v.(*domain.Object).String("id"))
}

func TestInterceptor_RealCallErrorPropagates(t *testing.T) {
	boom := errors.New("upstream unavailable")

	for _, mode := range []domain.Mode{domain.ModeRecord, domain.ModeLazy} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t)

			_, err := f.coord.WithCache(mode).Do(context.Background(), getDataset, func(context.Context) (any, error) {
				return nil, boom
			})
			assert.ErrorIs(t, err, boom)

			records, err := f.store.Records()
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestInterceptor_FingerprintFailure(t *testing.T) {
	call := domain.NewCall("DatasetService.search", map[string]any{"fn": func() {}})

	t.Run("strict fails", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.coord.WithCache(domain.ModeStrict).Do(context.Background(), call, func(context.Context) (any, error) {
			return "x", nil
		})
		assert.ErrorIs(t, err, domain.ErrFingerprintFailed)
	})

	t.Run("lazy calls through", func(t *testing.T) {
		f := newFixture(t)
		f.logger.EXPECT().Warn(gomock.Any())

		v, err := f.coord.WithCache(domain.ModeLazy).Do(context.Background(), call, func(context.Context) (any, error) {
			return "x", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "x", v)
	})
}

func TestInterceptor_InvalidMode(t *testing.T) {
	f := newFixture(t)
	_, err := f.coord.WithCache(domain.Mode("replay")).Do(context.Background(), getDataset, func(context.Context) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestCoordinator_IdempotentSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fp, err := f.coord.Fingerprint(getDataset)
	require.NoError(t, err)

	require.NoError(t, f.coord.Save(ctx, getDataset.Method, fp, "first"))
	require.NoError(t, f.coord.Save(ctx, getDataset.Method, fp, "second"))

	records, err := f.store.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)

	v, err := f.coord.Load(ctx, getDataset.Method, fp)
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestCoordinator_FallbackOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	calls := 0

	obj, err := f.fetch(&calls)(ctx)
	require.NoError(t, err)

	objCall := domain.NewCall("DatasetService.getDataset", "typed")
	plainCall := domain.NewCall("DatasetService.count", "plain")

	objFP, err := f.coord.Fingerprint(objCall)
	require.NoError(t, err)
	plainFP, err := f.coord.Fingerprint(plainCall)
	require.NoError(t, err)

	require.NoError(t, f.coord.Save(ctx, objCall.Method, objFP, obj))
	require.NoError(t, f.coord.Save(ctx, plainCall.Method, plainFP, 42))

	objBase, err := f.store.ResolvePath(objCall.Method, objFP, false)
	require.NoError(t, err)
	assert.True(t, f.store.FileExists(objBase+domain.TypedExt))
	assert.False(t, f.store.FileExists(objBase+domain.OpaqueExt))

	plainBase, err := f.store.ResolvePath(plainCall.Method, plainFP, false)
	require.NoError(t, err)
	assert.False(t, f.store.FileExists(plainBase+domain.TypedExt))
	assert.True(t, f.store.FileExists(plainBase+domain.OpaqueExt))

	v, err := f.coord.Load(ctx, plainCall.Method, plainFP)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func newMockCodec(ctrl *gomock.Controller, name string) *mocks.MockCodec {
	c := mocks.NewMockCodec(ctrl)
	c.EXPECT().Name().Return(name).AnyTimes()
	c.EXPECT().Extension().Return("." + name).AnyTimes()
	return c
}

func TestCoordinator_SaveFallsBackToNextCapableCodec(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := newMockCodec(ctrl, "first")
	skipped := newMockCodec(ctrl, "skipped")
	second := newMockCodec(ctrl, "second")

	f := newFixture(t, withCodecs(first, skipped, second))
	f.logger.EXPECT().Warn(gomock.Any())

	fp, err := f.coord.Fingerprint(getDataset)
	require.NoError(t, err)

	gomock.InOrder(
		first.EXPECT().CanHandle("v").Return(true),
		first.EXPECT().Save(gomock.Any(), "v").Return(errors.New("disk full")),
	)
	skipped.EXPECT().CanHandle("v").Return(false)
	second.EXPECT().CanHandle("v").Return(true)
	second.EXPECT().Save(gomock.Any(), "v").DoAndReturn(func(path string, _ any) error {
		assert.True(t, strings.HasSuffix(path, "getDataset_"+fp+".second"))
		return nil
	})

	require.NoError(t, f.coord.Save(context.Background(), getDataset.Method, fp, "v"))
}

func TestCoordinator_SaveFailsWhenEveryCodecFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	only := newMockCodec(ctrl, "only")

	f := newFixture(t, withCodecs(only))
	f.logger.EXPECT().Warn(gomock.Any())

	fp, err := f.coord.Fingerprint(getDataset)
	require.NoError(t, err)

	only.EXPECT().CanHandle(gomock.Any()).Return(true)
	only.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	err = f.coord.Save(context.Background(), getDataset.Method, fp, "v")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCodecFailure)
	assert.Contains(t, err.Error(), "getDataset('d1')")
	assert.Contains(t, err.Error(), "disk full")
}

func TestInterceptor_RecordSwallowsSaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	only := newMockCodec(ctrl, "only")

	f := newFixture(t, withCodecs(only))
	f.logger.EXPECT().Warn(gomock.Any()).Times(2)

	only.EXPECT().CanHandle(gomock.Any()).Return(true)
	only.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	v, err := f.coord.WithCache(domain.ModeRecord).Do(context.Background(), getDataset, func(context.Context) (any, error) {
		return "live", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "live", v)
}

func TestCoordinator_LoadContinuesPastFailingCodec(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := newMockCodec(ctrl, "first")
	second := newMockCodec(ctrl, "second")

	f := newFixture(t, withCodecs(first, second))
	f.logger.EXPECT().Warn(gomock.Any())

	fp, err := f.coord.Fingerprint(getDataset)
	require.NoError(t, err)
	base, err := f.store.ResolvePath(getDataset.Method, fp, true)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(base+".first", nil, 0o600))
	require.NoError(t, os.WriteFile(base+".second", nil, 0o600))

	first.EXPECT().Load(base+".first").Return(nil, errors.New("corrupt"))
	second.EXPECT().Load(base+".second").Return("recovered", nil)

	v, err := f.coord.Load(context.Background(), getDataset.Method, fp)
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
}

func TestCoordinator_Clear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	calls := 0

	_, err := f.coord.WithCache(domain.ModeRecord).Do(ctx, getDataset, f.fetch(&calls))
	require.NoError(t, err)
	fp, err := f.coord.Fingerprint(getDataset)
	require.NoError(t, err)
	require.True(t, f.coord.Exists(getDataset.Method, fp))

	assert.ErrorIs(t, f.coord.Clear(false), domain.ErrClearNotForced)
	assert.True(t, f.coord.Exists(getDataset.Method, fp))

	require.NoError(t, f.coord.Clear(true))
	assert.False(t, f.coord.Exists(getDataset.Method, fp))
	assert.Equal(t, 0, f.registry.Len())
	assert.Equal(t, registry.NotFound, f.coord.Describe(fp))
}

func TestDo_Generic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	call := domain.NewCall("DatasetService.count", "d1")

	n, err := coordinator.Do(ctx, f.coord.WithCache(domain.ModeLazy), call, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = coordinator.Do(ctx, f.coord.WithCache(domain.ModeStrict), call, func(context.Context) (string, error) {
		return "", nil
	})
	assert.ErrorIs(t, err, domain.ErrCodecFailure)
}

func TestDo_LazyTypeMismatchCallsThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	call := domain.NewCall("DatasetService.label", "d1")
	lazy := f.coord.WithCache(domain.ModeLazy)

	_, err := coordinator.Do(ctx, lazy, call, func(context.Context) (string, error) {
		return "sales", nil
	})
	require.NoError(t, err)

	calls := 0
	n, err := coordinator.Do(ctx, lazy, call, func(context.Context) (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, 1, calls)
}

func TestInterceptor_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	f := newFixture(t, withTracer(telemetry.NewOTelTracerWithProvider(tp, "test")))
	calls := 0

	_, err := f.coord.WithCache(domain.ModeLazy).Do(context.Background(), getDataset, f.fetch(&calls))
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 3)

	outcome := func(s sdktrace.ReadOnlySpan) string {
		for _, kv := range s.Attributes() {
			if kv.Key == attribute.Key(coordinator.AttrOutcome) {
				return kv.Value.AsString()
			}
		}
		return ""
	}

	assert.Equal(t, coordinator.SpanLoad, spans[0].Name())
	assert.Equal(t, coordinator.OutcomeMiss, outcome(spans[0]))
	assert.Equal(t, coordinator.SpanSave, spans[1].Name())
	assert.Equal(t, coordinator.OutcomeSaved, outcome(spans[1]))
	assert.Equal(t, coordinator.SpanExecute, spans[2].Name())
	assert.Equal(t, spans[2].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestCoordinator_DelegatesToPorts(t *testing.T) {
	ctrl := gomock.NewController(t)
	fingerprinter := mocks.NewMockFingerprinter(ctrl)
	reg := mocks.NewMockRegistry(ctrl)
	st := mocks.NewMockRecordStore(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	coord := coordinator.New(fingerprinter, reg, st, nil, logger, telemetry.NewNoOpTracer())
	call := domain.NewCall("svc..call")
	invalid := domain.ErrInvalidCallName

	fingerprinter.EXPECT().Fingerprint(call).Return("00000000000000ff", nil)
	reg.EXPECT().Describe("00000000000000ff").Return("svc..call()").AnyTimes()
	st.EXPECT().Exists("svc..call", "00000000000000ff").Return(false)
	st.EXPECT().ResolvePath("svc..call", "00000000000000ff", true).Return("", invalid)
	st.EXPECT().ResolvePath("svc..call", "00000000000000ff", false).Return("", invalid)

	fp, err := coord.Fingerprint(call)
	require.NoError(t, err)
	assert.Equal(t, "svc..call()", coord.Describe(fp))
	assert.False(t, coord.Exists(call.Method, fp))

	err = coord.Save(context.Background(), call.Method, fp, "v")
	require.ErrorIs(t, err, domain.ErrInvalidCallName)

	_, err = coord.Load(context.Background(), call.Method, fp)
	require.ErrorIs(t, err, domain.ErrInvalidCallName)
}
