package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"google.golang.org/grpc/credentials/insecure"
)

// splitEndpoint strips an http(s) scheme and reports whether the endpoint
// asked for plaintext.
func splitEndpoint(endpoint string) (host string, plaintext bool) {
	if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		return rest, true
	}
	return strings.TrimPrefix(endpoint, "https://"), false
}

func newExporter(ctx context.Context, cfg *Config) (*otlptrace.Exporter, error) {
	host, plaintext := splitEndpoint(cfg.Endpoint)
	insecureConn := cfg.Insecure || plaintext

	switch cfg.Protocol {
	case "http/protobuf", "http":
		var opts []otlptracehttp.Option
		if host != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(host))
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		if insecureConn {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		var opts []otlptracegrpc.Option
		if host != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(host))
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		if insecureConn {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		return otlptracegrpc.New(ctx, opts...)
	}
}
