package attributes

import (
	"crypto/sha256"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/mrzor/bench-launcher/internal/procmeta"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// idExpr is an optional compiled expression. A nil program means the
// expression was not configured.
type idExpr struct {
	program *vm.Program
}

func newIDExpr(kind, exprStr string) (idExpr, error) {
	if exprStr == "" {
		return idExpr{}, nil
	}
	program, err := compile(exprStr)
	if err != nil {
		return idExpr{}, fmt.Errorf("failed to compile %s expression: %w", kind, err)
	}
	return idExpr{program: program}, nil
}

func (e idExpr) run(kind string, metadata *procmeta.ProcessMetadata) (string, error) {
	if metadata == nil {
		return "", fmt.Errorf("no metadata available")
	}
	output, err := expr.Run(e.program, metadata.Env())
	if err != nil {
		return "", fmt.Errorf("failed to evaluate %s expression: %w", kind, err)
	}
	return fmt.Sprint(output), nil
}

// TraceIDEvaluator evaluates the trace ID expression.
type TraceIDEvaluator struct {
	idExpr
}

// NewTraceIDEvaluator compiles exprStr. An empty expression yields an
// evaluator that always returns the zero trace ID.
func NewTraceIDEvaluator(exprStr string) (*TraceIDEvaluator, error) {
	e, err := newIDExpr("trace-id", exprStr)
	if err != nil {
		return nil, err
	}
	return &TraceIDEvaluator{e}, nil
}

// EvaluateAndValidate returns the trace ID and the warning attributes to
// attach to the span. A result that is not a 32-char hex ID is replaced by
// the first 16 bytes of its SHA-256.
func (e *TraceIDEvaluator) EvaluateAndValidate(metadata *procmeta.ProcessMetadata) (trace.TraceID, []attribute.KeyValue, error) {
	if e.program == nil {
		return trace.TraceID{}, nil, nil
	}

	result, err := e.run("trace-id", metadata)
	if err != nil {
		return trace.TraceID{}, nil, err
	}

	if len(result) == 32 {
		if traceID, err := trace.TraceIDFromHex(result); err == nil {
			return traceID, nil, nil
		}
	}

	hash := sha256.Sum256([]byte(result))
	var traceID trace.TraceID
	copy(traceID[:], hash[:16])

	warnings := []attribute.KeyValue{
		attribute.String("_trace_id_expr_result", result),
		attribute.String("_trace_id_invalid_warning", fmt.Sprintf("Expression result %q is not a valid 32-char hex trace ID, used SHA-256 hash instead", result)),
	}
	return traceID, warnings, nil
}

// ParentIDEvaluator evaluates the parent span ID expression.
type ParentIDEvaluator struct {
	idExpr
}

// NewParentIDEvaluator compiles exprStr. An empty expression yields an
// evaluator that always returns the zero span ID.
func NewParentIDEvaluator(exprStr string) (*ParentIDEvaluator, error) {
	e, err := newIDExpr("parent-id", exprStr)
	if err != nil {
		return nil, err
	}
	return &ParentIDEvaluator{e}, nil
}

// EvaluateAndValidate returns the parent span ID and warning attributes.
// A result that is not a 16-char hex ID means no parent.
func (e *ParentIDEvaluator) EvaluateAndValidate(metadata *procmeta.ProcessMetadata) (trace.SpanID, []attribute.KeyValue, error) {
	if e.program == nil {
		return trace.SpanID{}, nil, nil
	}

	result, err := e.run("parent-id", metadata)
	if err != nil {
		return trace.SpanID{}, nil, err
	}

	if len(result) == 16 {
		if spanID, err := trace.SpanIDFromHex(result); err == nil {
			return spanID, nil, nil
		}
	}

	warnings := []attribute.KeyValue{
		attribute.String("_parent_id_expr_result", result),
		attribute.String("_parent_id_invalid_warning", fmt.Sprintf("Expression result %q is not a valid 16-char hex span ID, using null parent ID instead", result)),
	}
	return trace.SpanID{}, warnings, nil
}
