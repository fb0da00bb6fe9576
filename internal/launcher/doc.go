// Package launcher runs the benchmark module inside the TRex client
// environment.
//
// A run is linear:
//  1. Print PYTHONPATH on stdout (exactly one line)
//  2. Spawn the interpreter with the inherited environment plus the layout
//     variables; the launcher's own environment is left untouched
//  3. Forward SIGINT/SIGTERM to the child until it exits
//  4. Report the child's exit status (128+N when killed by signal N)
//
// Each run is wrapped in a "bench.launch" span.
package launcher
