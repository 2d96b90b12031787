package orchestrator

import (
	"fmt"

	"github.com/vecsim/vecsim/sim"
)

// drawBucket walks the cumulative distribution and returns the first bucket
// whose cumulative probability reaches draw. A draw that lands in no bucket
// means the distribution does not cover it, which is an invariant violation.
func drawBucket(component string, probs []float64, draw float64) (int, error) {
	cum := 0.0
	for i, p := range probs {
		if draw <= cum+p {
			return i, nil
		}
		cum += p
	}
	return 0, &sim.InvariantError{
		Component: component,
		Msg:       fmt.Sprintf("draw %v fell outside distribution %v", draw, probs),
	}
}

// drawTier draws one of the three offload tiers.
func drawTier(component string, probs []float64, draw float64) (sim.Tier, error) {
	i, err := drawBucket(component, probs, draw)
	if err != nil {
		return 0, err
	}
	return sim.OffloadTiers[i], nil
}

// armOf maps an offload tier to its index in sim.OffloadTiers.
func armOf(t sim.Tier) (int, error) {
	for i, tier := range sim.OffloadTiers {
		if tier == t {
			return i, nil
		}
	}
	return 0, &sim.ConfigError{Component: "orchestrator", Msg: fmt.Sprintf("tier %v is not an offload tier", t)}
}
