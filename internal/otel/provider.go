// Package otel provides OpenTelemetry tracer provider initialization and management.
package otel

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mrzor/bench-launcher/internal/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// InitProvider builds a tracer provider exporting over OTLP/HTTP.
//
// When traceID is valid every root span created by the provider uses it,
// so the launch span lands in a trace chosen by the caller.
//
// Note: The HTTP client honors HTTP_PROXY, HTTPS_PROXY, and NO_PROXY through
// Go's standard net/http transport.
func InitProvider(cfg *config.OTELConfig, versionInfo string, traceID trace.TraceID) (*sdktrace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endpoint := cfg.GetEndpoint()

	log.Printf("OTEL Configuration:")
	log.Printf("  Service Name: %s", cfg.ServiceName)
	log.Printf("  Endpoint: %s", endpoint)
	if cfg.ResourceAttributes != "" {
		log.Printf("  Resource Attributes: %s", cfg.ResourceAttributes)
	}

	exporter, err := otlptracehttp.New(ctx, endpointOptions(endpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	resourceAttrs := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(versionInfo),
		),
	}
	if customAttrs := cfg.ParseResourceAttributes(); len(customAttrs) > 0 {
		resourceAttrs = append(resourceAttrs, resource.WithAttributes(customAttrs...))
	}

	res, err := resource.New(ctx, resourceAttrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	}
	if traceID.IsValid() {
		opts = append(opts, sdktrace.WithIDGenerator(&fixedTraceIDGenerator{traceID: traceID}))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

// endpointOptions accepts both host:port and full URLs.
func endpointOptions(endpoint string) []otlptracehttp.Option {
	opts := []otlptracehttp.Option{otlptracehttp.WithTimeout(10 * time.Second)}
	if strings.Contains(endpoint, "://") {
		return append(opts, otlptracehttp.WithEndpointURL(endpoint))
	}
	return append(opts,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
}

// ShutdownProvider gracefully shuts down the tracer provider, flushing any remaining spans.
func ShutdownProvider(tp *sdktrace.TracerProvider, ctx context.Context) error {
	if tp == nil {
		return nil
	}

	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}

	return nil
}

// fixedTraceIDGenerator hands out a fixed trace ID for root spans and
// random span IDs.
type fixedTraceIDGenerator struct {
	mu      sync.Mutex
	traceID trace.TraceID
}

func (g *fixedTraceIDGenerator) NewIDs(_ context.Context) (trace.TraceID, trace.SpanID) {
	return g.traceID, g.newSpanID()
}

func (g *fixedTraceIDGenerator) NewSpanID(_ context.Context, _ trace.TraceID) trace.SpanID {
	return g.newSpanID()
}

func (g *fixedTraceIDGenerator) newSpanID() trace.SpanID {
	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		var sid trace.SpanID
		_, _ = crand.Read(sid[:])
		if sid.IsValid() {
			return sid
		}
	}
}

// RandomTraceID returns a random valid trace ID.
func RandomTraceID() trace.TraceID {
	for {
		var tid trace.TraceID
		_, _ = crand.Read(tid[:])
		if tid.IsValid() {
			return tid
		}
	}
}
