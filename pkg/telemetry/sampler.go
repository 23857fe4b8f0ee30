package telemetry

import (
	"strconv"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newSampler(cfg *Config) sdktrace.Sampler {
	switch cfg.Sampler {
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(parseRatio(cfg.SamplerArg))
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(parseRatio(cfg.SamplerArg)))
	default:
		return sdktrace.AlwaysSample()
	}
}

// parseRatio clamps to [0, 1]; anything unparseable samples everything.
func parseRatio(s string) float64 {
	ratio, err := strconv.ParseFloat(s, 64)
	switch {
	case err != nil:
		return 1
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	}
	return ratio
}
