package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLauncherEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"BENCH_LAUNCHER_ROOT", "BENCH_LAUNCHER_PYTHON", "BENCH_LAUNCHER_MODULE"} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseArgs_Defaults(t *testing.T) {
	clearLauncherEnv(t)

	cfg, err := ParseArgs([]string{"bench-launcher"}, "", "", "")
	require.NoError(t, err)

	assert.Empty(t, cfg.Root)
	assert.Equal(t, "python3", cfg.Python)
	assert.Equal(t, "simple_bench", cfg.Module)
	assert.Equal(t,
		[]string{"python3", "-m", "simple_bench", "-t", "300000", "-b", "10000", "-s", "50"},
		cfg.FullCommand())
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.CheckPaths)
	assert.Empty(t, cfg.CustomAttributes)
}

func TestParseArgs_NoArguments(t *testing.T) {
	_, err := ParseArgs(nil, "", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no arguments provided")
}

func TestParseArgs_BenchFlags(t *testing.T) {
	clearLauncherEnv(t)

	args := []string{"bench-launcher", "-t", "1000", "-b", "100", "-s", "9", "-d", "3", "--trex", "10.1.1.1"}
	cfg, err := ParseArgs(args, "", "", "")
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Bench.TargetRate)
	assert.Equal(t, 100, cfg.Bench.BaseRate)
	assert.Equal(t, 9, cfg.Bench.Steps)
	assert.Equal(t, 3, cfg.Bench.Duration)
	assert.Equal(t, "10.1.1.1", cfg.Bench.Server)
}

func TestParseArgs_InvalidBenchFlags(t *testing.T) {
	clearLauncherEnv(t)

	_, err := ParseArgs([]string{"bench-launcher", "--steps=-2"}, "", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps must be positive")
}

func TestParseArgs_ExtraArgs(t *testing.T) {
	clearLauncherEnv(t)

	args := []string{"bench-launcher", "--", "-x", "verbose"}
	cfg, err := ParseArgs(args, "", "", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"-x", "verbose"}, cfg.ExtraArgs)
	assert.Equal(t,
		[]string{"-m", "simple_bench", "-t", "300000", "-b", "10000", "-s", "50", "-x", "verbose"},
		cfg.BenchArgv())
}

func TestParseArgs_Modes(t *testing.T) {
	clearLauncherEnv(t)

	args := []string{"bench-launcher", "--dry-run", "--check-paths", "-q", "-C", "/opt/trex"}
	cfg, err := ParseArgs(args, "", "", "")
	require.NoError(t, err)

	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.CheckPaths)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, "/opt/trex", cfg.Root)
}

func TestParseArgs_TraceAndParentID(t *testing.T) {
	clearLauncherEnv(t)

	args := []string{"bench-launcher", "--trace-id", `env["TRACE_ID"]`, "--parent-id", "0123456789abcdef"}
	cfg, err := ParseArgs(args, "", "", "")
	require.NoError(t, err)

	assert.Equal(t, `env["TRACE_ID"]`, cfg.TraceID)
	assert.Equal(t, "0123456789abcdef", cfg.ParentID)
}

func TestParseArgs_MultipleCustomAttributes(t *testing.T) {
	clearLauncherEnv(t)

	args := []string{
		"bench-launcher",
		"-a", `profiles=env["STL_PROFILES_PATH"]`,
		"--attribute", `first=args[0]; rate=args[4]`,
	}
	cfg, err := ParseArgs(args, "", "", "")
	require.NoError(t, err)

	require.Len(t, cfg.CustomAttributes, 3)
	assert.Equal(t, "profiles", cfg.CustomAttributes[0].Name)
	assert.Equal(t, `env["STL_PROFILES_PATH"]`, cfg.CustomAttributes[0].Expression)
	assert.Equal(t, "first", cfg.CustomAttributes[1].Name)
	assert.Equal(t, "rate", cfg.CustomAttributes[2].Name)
	assert.Equal(t, "args[4]", cfg.CustomAttributes[2].Expression)
}

func TestParseArgs_CustomAttributeInvalidFormat(t *testing.T) {
	clearLauncherEnv(t)

	_, err := ParseArgs([]string{"bench-launcher", "-a", "novalue"}, "", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid attribute format")
	assert.Contains(t, err.Error(), "NAME=EXPR")
}

func TestParseArgs_UnknownFlag(t *testing.T) {
	clearLauncherEnv(t)

	_, err := ParseArgs([]string{"bench-launcher", "--bogus"}, "", "", "")
	assert.Error(t, err)
}

func TestParseArgs_EnvironmentLayer(t *testing.T) {
	clearLauncherEnv(t)
	t.Setenv("BENCH_LAUNCHER_PYTHON", "/usr/bin/python3.12")
	t.Setenv("BENCH_LAUNCHER_ROOT", "/srv/trex")

	cfg, err := ParseArgs([]string{"bench-launcher"}, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/python3.12", cfg.Python)
	assert.Equal(t, "/srv/trex", cfg.Root)

	cfg, err = ParseArgs([]string{"bench-launcher", "--python", "pypy3"}, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "pypy3", cfg.Python, "flags override environment")
}

func TestParseArgs_LauncherFile(t *testing.T) {
	clearLauncherEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "launcher.yaml", `
root: trex
module: other_bench
bench:
  target_rate: 5000
  steps: 5
  server: 192.168.1.2
extra_env:
  PYTHONUNBUFFERED: "1"
attributes:
  - host=env["HOSTNAME"]
`)

	cfg, err := ParseArgs([]string{"bench-launcher", "--config", path, "-s", "10"}, "", "", "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "trex"), cfg.Root)
	assert.Equal(t, "python3", cfg.Python)
	assert.Equal(t, "other_bench", cfg.Module)
	assert.Equal(t, 5000, cfg.Bench.TargetRate)
	assert.Equal(t, 10000, cfg.Bench.BaseRate)
	assert.Equal(t, 10, cfg.Bench.Steps, "flags override the launcher file")
	assert.Equal(t, "192.168.1.2", cfg.Bench.Server)
	assert.Equal(t, map[string]string{"PYTHONUNBUFFERED": "1"}, cfg.ExtraEnv)
	require.Len(t, cfg.CustomAttributes, 1)
	assert.Equal(t, "host", cfg.CustomAttributes[0].Name)
}

func TestParseArgs_LauncherFileEnvOverride(t *testing.T) {
	clearLauncherEnv(t)
	t.Setenv("BENCH_LAUNCHER_MODULE", "env_bench")
	path := writeFile(t, t.TempDir(), "launcher.yaml", "module: file_bench\n")

	cfg, err := ParseArgs([]string{"bench-launcher", "--config", path}, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "env_bench", cfg.Module)
}

func TestLoadFile_UnknownKey(t *testing.T) {
	path := writeFile(t, t.TempDir(), "launcher.yaml", "pyton: python3\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse launcher file")
}

func TestLoadFile_Empty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "launcher.yaml", "")

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, f.Root)
}

func TestLoadFile_AbsoluteRoot(t *testing.T) {
	path := writeFile(t, t.TempDir(), "launcher.yaml", "root: /opt/trex\n")

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/trex", f.Root)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read launcher file")
}

func TestParseAttributeString_Valid(t *testing.T) {
	attrs, err := ParseAttributeString(`a=env["A"];b=args[1]`)
	require.NoError(t, err)

	assert.Equal(t, []CustomAttribute{
		{Name: "a", Expression: `env["A"]`},
		{Name: "b", Expression: "args[1]"},
	}, attrs)
}

func TestParseAttributeString_Empty(t *testing.T) {
	attrs, err := ParseAttributeString("")
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestParseAttributeString_InvalidFormat(t *testing.T) {
	_, err := ParseAttributeString("justaname")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid attribute format")
}

func TestParseAttributeString_EmptyName(t *testing.T) {
	_, err := ParseAttributeString(`=env["X"]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name cannot be empty")
}

func TestParseAttributeString_EmptyExpression(t *testing.T) {
	_, err := ParseAttributeString("name=")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expression cannot be empty")
}

func TestParseAttributeString_ExpressionWithEquals(t *testing.T) {
	attrs, err := ParseAttributeString(`check=env["MODE"]=="fast"`)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, `env["MODE"]=="fast"`, attrs[0].Expression)
}

func TestParseAttributeString_WhitespaceAndEmptySections(t *testing.T) {
	attrs, err := ParseAttributeString(" ; a = args[0] ;; ")
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "a", attrs[0].Name)
	assert.Equal(t, "args[0]", attrs[0].Expression)
}
