package otelutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	otlptracegrpc "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var tp *sdktrace.TracerProvider

// Init configures the global tracer provider. It prefers an OTLP/gRPC
// exporter when an endpoint is configured and falls back to the stdout
// exporter when M4E_OTEL_STDOUT=1. It returns an error when neither is
// configured; callers may treat that as "tracing disabled".
func Init() error {
	ctx := context.Background()

	res, err := sdkresource.New(ctx, sdkresource.WithAttributes(
		semconv.ServiceNameKey.String("meet4eat-rtc"),
	))
	if err != nil {
		return err
	}

	endpoint := os.Getenv("M4E_OTEL_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint != "" {
		return initOTLP(ctx, res, endpoint)
	}

	if os.Getenv("M4E_OTEL_STDOUT") == "1" {
		return initStdout(res)
	}

	return fmt.Errorf("no OTEL exporter configured: set M4E_OTEL_OTLP_ENDPOINT or M4E_OTEL_STDOUT=1")
}

func initOTLP(ctx context.Context, res *sdkresource.Resource, endpoint string) error {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if insecureConfigured() {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return err
	}
	install(exporter, res)
	return nil
}

func initStdout(res *sdkresource.Resource) error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return err
	}
	install(exporter, res)
	return nil
}

func install(exporter sdktrace.SpanExporter, res *sdkresource.Resource) {
	tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
}

func insecureConfigured() bool {
	for _, key := range []string{"M4E_OTEL_OTLP_INSECURE", "OTEL_EXPORTER_OTLP_INSECURE"} {
		switch strings.ToLower(os.Getenv(key)) {
		case "1", "true":
			return true
		}
	}
	return false
}

// Flush gracefully shuts down the tracer provider, flushing pending
// spans. Safe to call multiple times.
func Flush() {
	if tp == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = tp.Shutdown(ctx)
}
