// Package procmeta describes the benchmark process in the shape used for
// expression evaluation.
package procmeta

import "strings"

// ProcessMetadata holds structured process information for expression evaluation.
type ProcessMetadata struct {
	Environ     map[string]string // Parsed environment variables
	Args        []string          // Command-line arguments, argv[0] included
	CmdlineFull string            // Full command line as single string
}

// New builds metadata from an exec-style environment (KEY=VALUE entries)
// and argv.
func New(environ, argv []string) *ProcessMetadata {
	args, cmdline := parseCmdline(argv)
	return &ProcessMetadata{
		Environ:     parseEnviron(environ),
		Args:        args,
		CmdlineFull: cmdline,
	}
}

// Env returns the flattened form expected by expression environments.
func (m *ProcessMetadata) Env() map[string]interface{} {
	if m == nil {
		return map[string]interface{}{
			"env":     map[string]string{},
			"args":    []string{},
			"cmdline": "",
		}
	}
	return map[string]interface{}{
		"env":     m.Environ,
		"args":    m.Args,
		"cmdline": m.CmdlineFull,
	}
}

// parseEnviron turns KEY=VALUE entries into a map. Entries without '=' or
// with an empty key are dropped; the last duplicate wins.
func parseEnviron(raw []string) map[string]string {
	env := make(map[string]string, len(raw))
	for _, kv := range raw {
		if idx := strings.IndexByte(kv, '='); idx > 0 {
			env[kv[:idx]] = kv[idx+1:]
		}
	}
	return env
}

func parseCmdline(raw []string) ([]string, string) {
	args := make([]string, len(raw))
	copy(args, raw)
	return args, strings.Join(raw, " ")
}
