// Package benchargs models the command line of the simple_bench rate ramp
// benchmark and the sequence of rates it walks through.
package benchargs

import (
	"errors"
	"fmt"
	"strconv"
)

// Defaults used by the launcher. The benchmark ramps from BaseRate to
// TargetRate (both kpps) in Steps increments.
const (
	DefaultModule     = "simple_bench"
	DefaultPython     = "python3"
	DefaultTargetRate = 300 * 1000
	DefaultBaseRate   = 10000
	DefaultSteps      = 50
)

// Args holds the benchmark flags.
type Args struct {
	TargetRate int    // -t, kpps
	BaseRate   int    // -b, kpps
	Steps      int    // -s
	Duration   int    // -d, seconds per ramp step; omitted when zero
	Server     string // --trex; omitted when empty
}

// Default returns the launcher's fixed benchmark arguments.
func Default() Args {
	return Args{
		TargetRate: DefaultTargetRate,
		BaseRate:   DefaultBaseRate,
		Steps:      DefaultSteps,
	}
}

// Validate rejects values the benchmark cannot run with.
func (a Args) Validate() error {
	var errs []error
	if a.TargetRate <= 0 {
		errs = append(errs, fmt.Errorf("target rate must be positive, got %d", a.TargetRate))
	}
	if a.BaseRate < 0 {
		errs = append(errs, fmt.Errorf("base rate must not be negative, got %d", a.BaseRate))
	}
	if a.Steps <= 0 {
		errs = append(errs, fmt.Errorf("steps must be positive, got %d", a.Steps))
	}
	if a.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must not be negative, got %d", a.Duration))
	}
	return errors.Join(errs...)
}

// Argv renders the flags in the order the benchmark documents them.
func (a Args) Argv() []string {
	argv := []string{
		"-t", strconv.Itoa(a.TargetRate),
		"-b", strconv.Itoa(a.BaseRate),
		"-s", strconv.Itoa(a.Steps),
	}
	if a.Duration > 0 {
		argv = append(argv, "-d", strconv.Itoa(a.Duration))
	}
	if a.Server != "" {
		argv = append(argv, "--trex", a.Server)
	}
	return argv
}

// Plan returns the rates visited by the ramp.
func (a Args) Plan() ([]int, error) {
	return Plan(a.BaseRate, a.TargetRate, a.Steps)
}
