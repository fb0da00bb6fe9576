package config

import (
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/mrzor/bench-launcher/internal/benchargs"
)

// Config holds the resolved launcher configuration.
type Config struct {
	// Root is the directory the TRex layout is derived from. Empty means
	// the current working directory.
	Root string
	// Python is the interpreter executable
	Python string
	// Module is the benchmark module run with -m
	Module string
	// Bench holds the benchmark flags
	Bench benchargs.Args
	// ExtraArgs are appended to the benchmark command line verbatim
	ExtraArgs []string
	// ExtraEnv is added to the child environment beneath the layout variables
	ExtraEnv map[string]string

	CheckPaths bool
	DryRun     bool
	Quiet      bool

	// TraceID and ParentID are expressions evaluated against the child's
	// metadata to pick the trace and parent span of the launch span.
	TraceID  string
	ParentID string
	// CustomAttributes are attached to the launch span
	CustomAttributes []CustomAttribute
}

// cli is the kong grammar. Zero values mean "not given" so lower
// configuration layers show through.
type cli struct {
	Dir        string   `short:"C" help:"Directory the TRex layout is rooted at (default: current directory)." placeholder:"DIR"`
	Config     string   `help:"YAML launcher file." placeholder:"PATH"`
	Python     string   `help:"Interpreter used to run the benchmark (default: python3)."`
	Module     string   `help:"Benchmark module run with -m (default: simple_bench)."`
	TargetRate int      `short:"t" help:"Target packet rate in kpps (default: 300000)."`
	BaseRate   int      `short:"b" help:"Rate the ramp starts from, in kpps (default: 10000)."`
	Steps      int      `short:"s" help:"Number of ramp steps before reaching the target (default: 50)."`
	Duration   int      `short:"d" help:"Duration of each ramp step in seconds (benchmark default when unset)."`
	Trex       string   `help:"Remote TRex server address (benchmark default when unset)." placeholder:"ADDR"`
	CheckPaths bool     `help:"Fail before spawning if a layout directory is missing."`
	DryRun     bool     `help:"Print the environment and command line instead of running."`
	Quiet      bool     `short:"q" help:"Suppress diagnostic logging."`
	TraceID    string   `name:"trace-id" help:"Trace ID expression for the launch span." placeholder:"EXPR"`
	ParentID   string   `name:"parent-id" help:"Parent span ID expression for the launch span." placeholder:"EXPR"`
	Attribute  []string `short:"a" sep:"none" help:"Custom span attribute, NAME=EXPR. Repeatable; ';' separates several." placeholder:"NAME=EXPR"`

	Version kong.VersionFlag `help:"Print version information and exit."`

	Args []string `arg:"" optional:"" help:"Extra arguments appended to the benchmark command line (after --)."`
}

// ParseArgs parses the command line, then layers the launcher file and the
// environment beneath it.
// Expected format: program_name [flags] [-- extra benchmark args...]
func ParseArgs(args []string, version, commit, date string) (*Config, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no arguments provided")
	}

	var c cli
	parser, err := kong.New(&c,
		kong.Name(filepath.Base(args[0])),
		kong.Description("Set up the TRex client environment and run the rate ramp benchmark."),
		kong.Vars{"version": fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)},
		kong.UsageOnError(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build command-line parser: %w", err)
	}
	if _, err := parser.Parse(args[1:]); err != nil {
		return nil, err
	}

	cfg := Defaults()

	if c.Config != "" {
		f, err := LoadFile(c.Config)
		if err != nil {
			return nil, err
		}
		if err := cfg.applyFile(f); err != nil {
			return nil, err
		}
	}

	envCfg, err := ParseLauncherEnv()
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(envCfg)

	if err := cfg.applyFlags(&c); err != nil {
		return nil, err
	}

	if err := cfg.Bench.Validate(); err != nil {
		return nil, fmt.Errorf("invalid benchmark arguments: %w", err)
	}

	return cfg, nil
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Python:   benchargs.DefaultPython,
		Module:   benchargs.DefaultModule,
		Bench:    benchargs.Default(),
		ExtraEnv: map[string]string{},
	}
}

func (c *Config) applyFile(f *File) error {
	setString(&c.Root, f.Root)
	setString(&c.Python, f.Python)
	setString(&c.Module, f.Module)
	c.applyBench(f.Bench.TargetRate, f.Bench.BaseRate, f.Bench.Steps, f.Bench.Duration, f.Bench.Server)
	for k, v := range f.ExtraEnv {
		c.ExtraEnv[k] = v
	}
	for _, s := range f.Attributes {
		attrs, err := ParseAttributeString(s)
		if err != nil {
			return fmt.Errorf("launcher file %s: %w", f.path, err)
		}
		c.CustomAttributes = append(c.CustomAttributes, attrs...)
	}
	return nil
}

func (c *Config) applyEnv(e *LauncherEnv) {
	setString(&c.Root, e.Root)
	setString(&c.Python, e.Python)
	setString(&c.Module, e.Module)
}

func (c *Config) applyFlags(f *cli) error {
	setString(&c.Root, f.Dir)
	setString(&c.Python, f.Python)
	setString(&c.Module, f.Module)
	c.applyBench(f.TargetRate, f.BaseRate, f.Steps, f.Duration, f.Trex)

	c.CheckPaths = c.CheckPaths || f.CheckPaths
	c.DryRun = c.DryRun || f.DryRun
	c.Quiet = c.Quiet || f.Quiet
	setString(&c.TraceID, f.TraceID)
	setString(&c.ParentID, f.ParentID)

	for _, s := range f.Attribute {
		attrs, err := ParseAttributeString(s)
		if err != nil {
			return err
		}
		c.CustomAttributes = append(c.CustomAttributes, attrs...)
	}

	c.ExtraArgs = append(c.ExtraArgs, f.Args...)
	return nil
}

func (c *Config) applyBench(target, base, steps, duration int, server string) {
	setInt(&c.Bench.TargetRate, target)
	setInt(&c.Bench.BaseRate, base)
	setInt(&c.Bench.Steps, steps)
	setInt(&c.Bench.Duration, duration)
	setString(&c.Bench.Server, server)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// BenchArgv returns the arguments passed to the interpreter: the module
// switch, the benchmark flags, then ExtraArgs.
func (c *Config) BenchArgv() []string {
	argv := append([]string{"-m", c.Module}, c.Bench.Argv()...)
	return append(argv, c.ExtraArgs...)
}

// FullCommand returns the interpreter and all its arguments as a slice
func (c *Config) FullCommand() []string {
	return append([]string{c.Python}, c.BenchArgv()...)
}
