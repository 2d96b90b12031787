package orchestrator

import (
	"github.com/vecsim/vecsim/sim"
)

var randomDistribution = []float64{0.33, 0.33, 0.34}

// randomPolicy draws edge, cloud-via-RSU or cloud-via-GSM from a fixed distribution.
type randomPolicy struct {
	noFeedback
	ctx *Context
}

func (p *randomPolicy) Decide(*sim.Task) (Decision, error) {
	tier, err := drawTier("random policy", randomDistribution, p.ctx.Rng.Float64())
	if err != nil {
		return Decision{}, err
	}
	return Decision{Tier: tier, Reason: "random"}, nil
}
