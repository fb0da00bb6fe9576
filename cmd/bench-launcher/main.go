// bench-launcher sets up the TRex client environment and runs the
// simple_bench rate ramp benchmark inside it.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mrzor/bench-launcher/internal/attributes"
	"github.com/mrzor/bench-launcher/internal/benchargs"
	"github.com/mrzor/bench-launcher/internal/config"
	"github.com/mrzor/bench-launcher/internal/launcher"
	"github.com/mrzor/bench-launcher/internal/layout"
	"github.com/mrzor/bench-launcher/internal/otel"
	"github.com/mrzor/bench-launcher/internal/procmeta"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Version information injected by GoReleaser at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// exitUsage is returned for command-line and configuration errors.
const exitUsage = 2

func main() {
	code, err := run()
	if err != nil {
		log.Printf("Error: %v", err)
	}
	os.Exit(code)
}

// setupOTEL returns a tracer and cleanup function. Without an OTLP
// endpoint the tracer is a no-op.
func setupOTEL(versionInfo string, traceID trace.TraceID) (trace.Tracer, func(), error) {
	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, err
	}

	if !otelCfg.Enabled() {
		return noop.NewTracerProvider().Tracer("bench-launcher"), func() {}, nil
	}

	tp, err := otel.InitProvider(otelCfg, versionInfo, traceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize OTEL provider: %w", err)
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(tp, shutdownCtx); err != nil {
			log.Printf("Error shutting down OTEL provider: %v", err)
		}
	}

	return tp.Tracer("bench-launcher"), cleanup, nil
}

// evaluateSpanSetup evaluates the trace ID, parent ID and custom attribute
// expressions against the child's metadata.
func evaluateSpanSetup(cfg *config.Config, metadata *procmeta.ProcessMetadata) (trace.TraceID, trace.SpanID, []attribute.KeyValue, error) {
	traceEval, err := attributes.NewTraceIDEvaluator(cfg.TraceID)
	if err != nil {
		return trace.TraceID{}, trace.SpanID{}, nil, err
	}
	parentEval, err := attributes.NewParentIDEvaluator(cfg.ParentID)
	if err != nil {
		return trace.TraceID{}, trace.SpanID{}, nil, err
	}
	attrEval, err := attributes.NewEvaluator(cfg.CustomAttributes)
	if err != nil {
		return trace.TraceID{}, trace.SpanID{}, nil, err
	}

	traceID, traceWarnings, err := traceEval.EvaluateAndValidate(metadata)
	if err != nil {
		return trace.TraceID{}, trace.SpanID{}, nil, err
	}
	parentID, parentWarnings, err := parentEval.EvaluateAndValidate(metadata)
	if err != nil {
		return trace.TraceID{}, trace.SpanID{}, nil, err
	}

	attrs := attrEval.Evaluate(metadata)
	attrs = append(attrs, traceWarnings...)
	attrs = append(attrs, parentWarnings...)
	return traceID, parentID, attrs, nil
}

// benchAttributes describes the benchmark arguments and its ramp.
func benchAttributes(args benchargs.Args) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int("bench.target_rate_kpps", args.TargetRate),
		attribute.Int("bench.base_rate_kpps", args.BaseRate),
		attribute.Int("bench.steps", args.Steps),
	}
	if args.Duration > 0 {
		attrs = append(attrs, attribute.Int("bench.step_duration_s", args.Duration))
	}
	if args.Server != "" {
		attrs = append(attrs, attribute.String("bench.server", args.Server))
	}
	if rates, err := args.Plan(); err == nil {
		attrs = append(attrs,
			attribute.Int("bench.ramp.points", len(rates)),
			attribute.Int("bench.ramp.step", (args.TargetRate-args.BaseRate)/args.Steps),
		)
	}
	return attrs
}

func logPlan(args benchargs.Args) {
	rates, err := args.Plan()
	if err != nil {
		log.Printf("Warning: benchmark ramp is not runnable: %v", err)
		return
	}
	log.Printf("Ramp: %d points from %d to %d kpps (target %d kpps)", len(rates), rates[0], rates[len(rates)-1], args.TargetRate)
}

func run() (int, error) {
	cfg, err := config.ParseArgs(os.Args, version, commit, date)
	if err != nil {
		return exitUsage, err
	}

	if cfg.Quiet {
		log.SetOutput(io.Discard)
	}
	log.Printf("Starting bench-launcher %s (commit: %s, built: %s)", version, commit, date)

	lay, err := layout.New(cfg.Root)
	if err != nil {
		return 1, err
	}

	if cfg.CheckPaths {
		if err := lay.Check(); err != nil {
			return 1, fmt.Errorf("TRex layout check failed:\n%w", err)
		}
	}

	l := launcher.New(lay, cfg.Python, cfg.BenchArgv())
	l.ExtraEnv = cfg.ExtraEnv

	logPlan(cfg.Bench)

	if cfg.DryRun {
		if err := l.DryRun(); err != nil {
			return 1, err
		}
		return 0, nil
	}

	traceID, parentID, customAttrs, err := evaluateSpanSetup(cfg, l.Metadata())
	if err != nil {
		return exitUsage, err
	}

	versionInfo := fmt.Sprintf("%s (%s)", version, commit)
	tracer, cleanupOTEL, err := setupOTEL(versionInfo, traceID)
	if err != nil {
		return 1, err
	}
	defer cleanupOTEL()

	runID := uuid.NewString()
	log.Printf("Run ID %s", runID)

	l.Tracer = tracer
	l.SpanAttributes = append([]attribute.KeyValue{attribute.String("bench.run_id", runID)}, benchAttributes(cfg.Bench)...)
	l.SpanAttributes = append(l.SpanAttributes, customAttrs...)

	ctx := launcher.ParentContext(context.Background(), traceID, parentID, otel.RandomTraceID)

	res, err := l.Run(ctx)
	if err != nil {
		return res.ExitCode, err
	}

	log.Printf("Benchmark exited with code %d after %s", res.ExitCode, res.Duration.Round(time.Millisecond))
	return res.ExitCode, nil
}
