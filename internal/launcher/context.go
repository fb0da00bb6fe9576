package launcher

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/trace"
)

// ParentContext returns ctx carrying a remote parent span so the launch
// span joins an existing trace. A zero parentID leaves ctx untouched; the
// trace ID then comes from the tracer provider. newTraceID supplies a
// trace ID when only the parent is known.
func ParentContext(ctx context.Context, traceID trace.TraceID, parentID trace.SpanID, newTraceID func() trace.TraceID) context.Context {
	if !parentID.IsValid() {
		return ctx
	}
	if !traceID.IsValid() {
		traceID = newTraceID()
	}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     parentID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithRemoteSpanContext(ctx, sc)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
