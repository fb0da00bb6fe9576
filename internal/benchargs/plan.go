package benchargs

import "fmt"

// Plan computes the ramp: step = (target-base)/steps truncated toward
// zero, then base, base+step, ... up to but excluding target. A negative
// step ramps downwards.
func Plan(base, target, steps int) ([]int, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}

	step := (target - base) / steps
	if step == 0 {
		return nil, fmt.Errorf("ramp step is zero for base %d, target %d, steps %d", base, target, steps)
	}

	var rates []int
	for r := base; (step > 0 && r < target) || (step < 0 && r > target); r += step {
		rates = append(rates, r)
	}
	return rates, nil
}
