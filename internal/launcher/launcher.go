package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mrzor/bench-launcher/internal/layout"
	"github.com/mrzor/bench-launcher/internal/procmeta"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Shell-compatible exit codes for failures to start the child.
const (
	ExitNotFound      = 127
	ExitCannotExecute = 126
	exitSignalBase    = 128
)

// defaultGracePeriod is how long a cancelled child gets between SIGTERM
// and SIGKILL.
const defaultGracePeriod = 2 * time.Second

// Launcher spawns one benchmark process.
type Launcher struct {
	Layout *layout.Layout
	// Python is the interpreter; Args are passed to it verbatim.
	Python string
	Args   []string
	// BaseEnv is the inherited environment. Nil means os.Environ().
	BaseEnv  []string
	ExtraEnv map[string]string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Tracer         trace.Tracer
	SpanAttributes []attribute.KeyValue

	// GracePeriod bounds how long a cancelled child may take to exit
	// after SIGTERM. Zero means defaultGracePeriod.
	GracePeriod time.Duration
}

// Result describes how the child ended.
type Result struct {
	ExitCode int
	// Signal is set when the child was terminated by a signal.
	Signal   syscall.Signal
	Pid      int
	Duration time.Duration
}

// New returns a launcher wired to the process's standard streams.
func New(l *layout.Layout, python string, args []string) *Launcher {
	return &Launcher{
		Layout: l,
		Python: python,
		Args:   args,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Argv returns the child's full argv, interpreter first.
func (l *Launcher) Argv() []string {
	return append([]string{l.Python}, l.Args...)
}

// Environ returns the child's environment.
func (l *Launcher) Environ() []string {
	base := l.BaseEnv
	if base == nil {
		base = os.Environ()
	}
	return l.Layout.Environ(base, l.ExtraEnv)
}

// Metadata describes the child for expression evaluation.
func (l *Launcher) Metadata() *procmeta.ProcessMetadata {
	return procmeta.New(l.Environ(), l.Argv())
}

// Command builds the child command without starting it.
func (l *Launcher) Command() *exec.Cmd {
	//nolint:gosec // Launching the benchmark interpreter is the point of this tool
	cmd := exec.Command(l.Python, l.Args...)
	cmd.Env = l.Environ()
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	cmd.WaitDelay = l.gracePeriod()
	return cmd
}

// PrintPythonPath writes the PYTHONPATH line to stdout.
func (l *Launcher) PrintPythonPath() error {
	if _, err := fmt.Fprintln(l.Stdout, l.Layout.PythonPath()); err != nil {
		return fmt.Errorf("failed to write PYTHONPATH: %w", err)
	}
	return nil
}

// DryRun prints PYTHONPATH and logs what Run would do.
func (l *Launcher) DryRun() error {
	if err := l.PrintPythonPath(); err != nil {
		return err
	}
	for _, v := range l.Layout.Vars() {
		log.Printf("  %s", v)
	}
	for _, k := range sortedKeys(l.ExtraEnv) {
		log.Printf("  %s=%s (extra)", k, l.ExtraEnv[k])
	}
	log.Printf("Would run: %s", strings.Join(l.Argv(), " "))
	return nil
}

// Run prints PYTHONPATH, runs the child to completion and reports how it
// exited. A child exiting non-zero is not an error; failing to start it
// is, and the returned Result then carries the shell exit code for the
// failure. Cancelling ctx sends SIGTERM, then SIGKILL after the grace
// period.
func (l *Launcher) Run(ctx context.Context) (Result, error) {
	if err := l.PrintPythonPath(); err != nil {
		return Result{ExitCode: 1}, err
	}

	tracer := l.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	ctx, span := tracer.Start(ctx, "bench.launch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(l.spanAttributes()...),
	)
	defer span.End()

	cmd := l.Command()
	started := time.Now()
	if err := cmd.Start(); err != nil {
		res := Result{ExitCode: startFailureCode(err)}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start benchmark")
		span.SetAttributes(attribute.Int("process.exit.code", res.ExitCode))
		return res, fmt.Errorf("starting %s: %w", l.Python, err)
	}

	pid := cmd.Process.Pid
	span.SetAttributes(attribute.Int("process.pid", pid))
	log.Printf("Started %s (PID %d)", strings.Join(l.Argv(), " "), pid)

	waitErr := l.wait(ctx, cmd)

	res := Result{Pid: pid, Duration: time.Since(started)}
	res.ExitCode, res.Signal = exitStatus(cmd.ProcessState)
	if res.ExitCode < 0 {
		// Wait failed without a process state
		res.ExitCode = 1
	}

	span.SetAttributes(
		attribute.Int("process.exit.code", res.ExitCode),
		attribute.Int64("bench.duration_ms", res.Duration.Milliseconds()),
	)
	if res.Signal != 0 {
		span.SetAttributes(attribute.String("process.exit.signal", res.Signal.String()))
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		span.RecordError(waitErr)
		span.SetStatus(codes.Error, "failed waiting for benchmark")
		return res, fmt.Errorf("waiting for %s: %w", l.Python, waitErr)
	}

	if res.ExitCode != 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("benchmark exited with code %d", res.ExitCode))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return res, nil
}

// wait blocks until the child exits, forwarding termination signals to
// it and escalating to SIGKILL when ctx is cancelled and the child
// ignores SIGTERM.
func (l *Launcher) wait(ctx context.Context, cmd *exec.Cmd) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	childDone := make(chan error, 1)
	go func() {
		childDone <- cmd.Wait()
	}()

	var killTimer <-chan time.Time
	cancelled := ctx.Done()
	for {
		select {
		case err := <-childDone:
			return err
		case sig := <-sigCh:
			log.Printf("Received %v, forwarding to benchmark", sig)
			_ = cmd.Process.Signal(sig) //nolint:errcheck // Child may already be gone
		case <-cancelled:
			cancelled = nil
			log.Printf("Cancelled, terminating benchmark (PID %d)", cmd.Process.Pid)
			_ = cmd.Process.Signal(syscall.SIGTERM) //nolint:errcheck // Best-effort graceful shutdown; Kill() follows
			killTimer = time.After(l.gracePeriod())
		case <-killTimer:
			killTimer = nil
			_ = cmd.Process.Kill() //nolint:errcheck // Best-effort cleanup during shutdown
		}
	}
}

func (l *Launcher) gracePeriod() time.Duration {
	if l.GracePeriod > 0 {
		return l.GracePeriod
	}
	return defaultGracePeriod
}

func (l *Launcher) spanAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("process.executable.name", l.Python),
		attribute.StringSlice("process.command_args", l.Argv()),
		attribute.String("trex.root", l.Layout.Root),
		attribute.String("trex.pythonpath", l.Layout.PythonPath()),
		attribute.String("trex.ext_libs", l.Layout.ExtLibs()),
		attribute.String("trex.profiles_path", l.Layout.ProfilesPath()),
	}
	return append(attrs, l.SpanAttributes...)
}

// exitStatus maps a finished process to a shell-style exit code. It
// returns -1 when the state is unknown.
func exitStatus(state *os.ProcessState) (int, syscall.Signal) {
	if state == nil {
		return -1, 0
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return exitSignalBase + int(ws.Signal()), ws.Signal()
	}
	return state.ExitCode(), 0
}

func startFailureCode(err error) int {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return ExitNotFound
	}
	return ExitCannotExecute
}
