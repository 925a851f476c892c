package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/config"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/telemetry"
)

func rootDecision(t *testing.T, s sdktrace.Sampler) sdktrace.SamplingDecision {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	return s.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       traceID,
		Name:          "GET /programs",
	}).Decision
}

func TestSamplerBounds(t *testing.T) {
	require.Equal(t, sdktrace.Drop, rootDecision(t, telemetry.Sampler(0)))
	require.Equal(t, sdktrace.Drop, rootDecision(t, telemetry.Sampler(-0.5)))
	require.Equal(t, sdktrace.RecordAndSample, rootDecision(t, telemetry.Sampler(1)))
	require.Equal(t, sdktrace.RecordAndSample, rootDecision(t, telemetry.Sampler(2)))
	require.Contains(t, telemetry.Sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestSamplerFollowsSampledParent(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})

	result := telemetry.Sampler(0).ShouldSample(sdktrace.SamplingParameters{
		ParentContext: trace.ContextWithRemoteSpanContext(context.Background(), parent),
		TraceID:       traceID,
		Name:          "POST /programs",
	})
	require.Equal(t, sdktrace.RecordAndSample, result.Decision)
}

func TestNewWithoutEndpointIsNoop(t *testing.T) {
	provider, err := telemetry.New(context.Background(), config.Config{ServiceName: "hypertroq-test", TraceSampleRatio: 1}, zap.NewNop())
	require.NoError(t, err)
	require.False(t, provider.Enabled())
	require.Zero(t, provider.SampleRatio())
	require.NotNil(t, provider.Tracer())
	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewWithZeroRatioIsNoop(t *testing.T) {
	cfg := config.Config{ServiceName: "hypertroq-test", TelemetryEndpoint: "localhost:4318", TraceSampleRatio: 0}
	provider, err := telemetry.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.False(t, provider.Enabled())
}

func TestNewWithEndpoint(t *testing.T) {
	cfg := config.Config{
		ServiceName:       "hypertroq-test",
		Environment:       "test",
		TelemetryEndpoint: "localhost:4318",
		TelemetryInsecure: true,
		TraceSampleRatio:  0.5,
	}
	provider, err := telemetry.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.True(t, provider.Enabled())
	require.Equal(t, 0.5, provider.SampleRatio())
	require.NoError(t, provider.Shutdown(context.Background()))
}
