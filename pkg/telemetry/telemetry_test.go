package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadFrom(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := loadFrom(envOf(nil))
		assert.False(t, cfg.Enabled)
		assert.Equal(t, "fardiff", cfg.ServiceName)
		assert.Equal(t, "grpc", cfg.Protocol)
		assert.Empty(t, cfg.Headers)
	})

	t.Run("Custom", func(t *testing.T) {
		cfg := loadFrom(envOf(map[string]string{
			"OTEL_ENABLED":                "TRUE",
			"OTEL_SERVICE_NAME":           "fardiff-ci",
			"OTEL_EXPORTER_OTLP_PROTOCOL": "HTTP/protobuf",
			"OTEL_EXPORTER_OTLP_HEADERS":  "Authorization=Bearer a=b, X-Team = android",
			"OTEL_RESOURCE_ATTRIBUTES":    "deployment.environment=ci",
		}))
		assert.True(t, cfg.Enabled)
		assert.Equal(t, "fardiff-ci", cfg.ServiceName)
		assert.Equal(t, "http/protobuf", cfg.Protocol)
		assert.Equal(t, map[string]string{"Authorization": "Bearer a=b", "X-Team": "android"}, cfg.Headers)
		assert.Equal(t, "ci", cfg.ResourceAttrs["deployment.environment"])
	})
}

func TestParsePairs(t *testing.T) {
	assert.Empty(t, parsePairs(""))
	assert.Equal(t, map[string]string{"k": ""}, parsePairs("k="))
	assert.Equal(t, map[string]string{"a": "1", "c": "3"}, parsePairs("a=1,invalid,=2,c=3"))
}

func TestParseRatio(t *testing.T) {
	tests := map[string]float64{
		"":      1,
		"0.25":  0.25,
		"0":     0,
		"-1":    0,
		"1.5":   1,
		"bogus": 1,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseRatio(in), "input %q", in)
	}
}

func TestNewSampler(t *testing.T) {
	for _, name := range []string{"", "always_on", "always_off", "traceidratio", "parentbased_always_on", "parentbased_always_off", "parentbased_traceidratio"} {
		assert.NotNil(t, newSampler(&Config{Sampler: name, SamplerArg: "0.5"}), name)
	}
	assert.Contains(t, newSampler(&Config{Sampler: "always_off"}).Description(), "AlwaysOff")
}

func TestSplitEndpoint(t *testing.T) {
	host, plain := splitEndpoint("http://collector:4318")
	assert.Equal(t, "collector:4318", host)
	assert.True(t, plain)

	host, plain = splitEndpoint("https://collector:4317")
	assert.Equal(t, "collector:4317", host)
	assert.False(t, plain)
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), &Config{}, "1.0.0")
	require.NoError(t, err)
	assert.False(t, Enabled())
	assert.NoError(t, shutdown(context.Background()))
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, ok := StartSpan(context.Background(), "parse", attribute.Int("records", 3))
	EndSpan(ok, nil)
	_, failed := StartSpan(context.Background(), "inspect")
	EndSpan(failed, errors.New("nm exited 1"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "parse", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Len(t, spans[1].Events(), 1)
}
