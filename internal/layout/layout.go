package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Environment variable names exported to the benchmark.
const (
	PythonPathVar   = "PYTHONPATH"
	ExtLibsVar      = "TREX_EXT_LIBS"
	ProfilesPathVar = "STL_PROFILES_PATH"
	pythonPathSep   = ":"
	interactiveDir  = "interactive"
	externalLibsDir = "external_libs"
	profilesDir     = "profiles"
)

// ErrMissingDir is wrapped by every error Check reports.
var ErrMissingDir = errors.New("directory does not exist")

// Var is a single NAME=VALUE pair.
type Var struct {
	Name  string
	Value string
}

// String renders the pair in exec environment form.
func (v Var) String() string {
	return v.Name + "=" + v.Value
}

// Layout is the directory layout rooted at Root.
type Layout struct {
	Root string
}

// New returns the layout rooted at root. An empty root means the current
// working directory.
func New(root string) (*Layout, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	return &Layout{Root: abs}, nil
}

// PythonPathDirs returns the PYTHONPATH entries in search order.
func (l *Layout) PythonPathDirs() []string {
	base := filepath.Join(l.Root, interactiveDir)
	return []string{
		base,
		filepath.Join(base, "trex"),
		filepath.Join(base, "trex", "examples"),
		filepath.Join(base, "trex", "examples", "stl"),
	}
}

// PythonPath returns the colon-joined PYTHONPATH value.
func (l *Layout) PythonPath() string {
	return strings.Join(l.PythonPathDirs(), pythonPathSep)
}

// ExtLibs returns the TREX_EXT_LIBS value.
func (l *Layout) ExtLibs() string {
	return filepath.Join(l.Root, externalLibsDir)
}

// ProfilesPath returns the STL_PROFILES_PATH value.
func (l *Layout) ProfilesPath() string {
	return filepath.Join(l.Root, profilesDir)
}

// Vars returns the variables exported to the benchmark, in export order.
func (l *Layout) Vars() []Var {
	return []Var{
		{Name: PythonPathVar, Value: l.PythonPath()},
		{Name: ExtLibsVar, Value: l.ExtLibs()},
		{Name: ProfilesPathVar, Value: l.ProfilesPath()},
	}
}

// Environ merges base (os.Environ form) with extra and the layout
// variables. Later layers replace earlier ones key by key; layout
// variables always win. Entries from base keep their relative order,
// new keys are appended sorted for extra and in export order for the
// layout.
func (l *Layout) Environ(base []string, extra map[string]string) []string {
	overrides := make([]Var, 0, len(extra)+3)

	extraKeys := make([]string, 0, len(extra))
	for k := range extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		overrides = append(overrides, Var{Name: k, Value: extra[k]})
	}
	overrides = append(overrides, l.Vars()...)

	replaced := make(map[string]bool, len(overrides))
	for _, v := range overrides {
		replaced[v.Name] = true
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if replaced[name] {
			continue
		}
		env = append(env, kv)
	}

	// Collapse duplicate override keys so the last layer wins.
	last := make(map[string]int, len(overrides))
	for i, v := range overrides {
		last[v.Name] = i
	}
	for i, v := range overrides {
		if last[v.Name] == i {
			env = append(env, v.String())
		}
	}
	return env
}

// Dirs returns every directory the layout refers to.
func (l *Layout) Dirs() []string {
	return append(l.PythonPathDirs(), l.ExtLibs(), l.ProfilesPath())
}

// Check reports every layout directory that is missing or not a
// directory. The returned error joins one error per offending path.
func (l *Layout) Check() error {
	var errs []error
	for _, dir := range l.Dirs() {
		info, err := os.Stat(dir)
		switch {
		case errors.Is(err, os.ErrNotExist):
			errs = append(errs, fmt.Errorf("%s: %w", dir, ErrMissingDir))
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
		case !info.IsDir():
			errs = append(errs, fmt.Errorf("%s: not a directory: %w", dir, ErrMissingDir))
		}
	}
	return errors.Join(errs...)
}
