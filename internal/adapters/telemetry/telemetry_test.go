package telemetry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/rewind/internal/adapters/telemetry"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/rewind/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = (*telemetry.NoOpSpan)(nil)
}

type mode string

func (m mode) String() string { return "mode:" + string(m) }

func TestOTelTracer_Attributes(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")
	_, span := tracer.Start(context.Background(), "rewind.load")
	span.SetAttribute("call", "getDataset('d1')")
	span.SetAttribute("count", 2)
	span.SetAttribute("hit", true)
	span.SetAttribute("exts", []string{".json", ".gob"})
	span.SetAttribute("mode", mode("lazy"))
	span.SetAttribute("ratio", 0.5)
	span.RecordError(errors.New("boom"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "rewind.load", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "getDataset('d1')", attrs["call"].AsString())
	assert.Equal(t, int64(2), attrs["count"].AsInt64())
	assert.True(t, attrs["hit"].AsBool())
	assert.Equal(t, []string{".json", ".gob"}, attrs["exts"].AsStringSlice())
	assert.Equal(t, "mode:lazy", attrs["mode"].AsString())
	assert.Equal(t, "0.5", attrs["ratio"].AsString())
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	newCtx, span := tracer.Start(ctx, "test-span")
	assert.Equal(t, ctx, newCtx)
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()
}

func TestLogBridge_LogsEndedSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)

	var logged string
	logger.EXPECT().Debug(gomock.Any()).Do(func(msg string) { logged = msg })

	tp := telemetry.NewProvider(logger)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := telemetry.NewOTelTracerWithProvider(tp, telemetry.InstrumentationName)
	_, span := tracer.Start(context.Background(), "rewind.save")
	span.SetAttribute("codec", "typed")
	span.RecordError(errors.New("disk full"))
	span.End()

	assert.True(t, strings.HasPrefix(logged, "rewind.save "), logged)
	assert.Contains(t, logged, "codec=typed")
	assert.Contains(t, logged, `error="disk full"`)
}
