package sim

import "math"

// QoE scores a delivered task in [0,100].
// A service time within maxDelay scores 100. Beyond that the score falls
// linearly with the overshoot, scaled by (1 - sensitivity), and reaches 0 once
// the service time is twice maxDelay.
func QoE(serviceTime, maxDelay, sensitivity float64) float64 {
	if serviceTime <= maxDelay {
		return 100
	}
	overshoot := (math.Min(2*maxDelay, serviceTime) - maxDelay) / maxDelay
	return 100 * (1 - overshoot) * (1 - sensitivity)
}
