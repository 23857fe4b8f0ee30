package telemetry

import (
	"os"
	"strings"
)

// Config holds OpenTelemetry settings taken from the standard OTEL_*
// environment variables.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP collector address, with or without a scheme.
	Endpoint string

	// Protocol is "grpc" (default) or "http/protobuf".
	Protocol string

	// Headers are sent with every export, e.g. Authorization.
	Headers  map[string]string
	Insecure bool

	// Sampler follows the OTEL_TRACES_SAMPLER vocabulary; empty means always_on.
	Sampler    string
	SamplerArg string

	ResourceAttrs map[string]string
}

// LoadFromEnv reads the configuration from the process environment.
func LoadFromEnv() *Config {
	return loadFrom(os.LookupEnv)
}

func loadFrom(lookup func(string) (string, bool)) *Config {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}
	flag := func(key string) bool {
		return strings.EqualFold(get(key, ""), "true")
	}

	return &Config{
		Enabled:        flag("OTEL_ENABLED"),
		ServiceName:    get("OTEL_SERVICE_NAME", "fardiff"),
		ServiceVersion: get("OTEL_SERVICE_VERSION", "dev"),
		Endpoint:       get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Protocol:       strings.ToLower(get("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
		Headers:        parsePairs(get("OTEL_EXPORTER_OTLP_HEADERS", "")),
		Insecure:       flag("OTEL_EXPORTER_OTLP_INSECURE"),
		Sampler:        get("OTEL_TRACES_SAMPLER", ""),
		SamplerArg:     get("OTEL_TRACES_SAMPLER_ARG", ""),
		ResourceAttrs:  parsePairs(get("OTEL_RESOURCE_ATTRIBUTES", "")),
	}
}

// parsePairs parses "k1=v1,k2=v2". Values may contain '='; entries without a
// key are dropped.
func parsePairs(s string) map[string]string {
	result := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		result[key] = strings.TrimSpace(value)
	}
	return result
}
