// Package attributes evaluates user expressions against the benchmark
// process metadata to produce span attributes, a trace ID and a parent
// span ID for the launch span.
//
// Expressions use the expr language and see three variables:
//   - env: map[string]string, the child's environment (layout variables included)
//   - args: []string, the child's argv
//   - cmdline: string, argv joined with spaces
//
// A trace ID result that is not 32 hex chars is hashed with SHA-256.
// A parent ID result that is not 16 hex chars yields no parent.
package attributes
