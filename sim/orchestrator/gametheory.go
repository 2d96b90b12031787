package orchestrator

import (
	"fmt"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/learning"
)

const (
	// minArrivalRate and maxArrivalRate bound the arrival-rate normalization.
	minArrivalRate = 0
	maxArrivalRate = 20
	// gameMaxDelayFactor scales an application's max delay into the
	// equilibrium's delay budget.
	gameMaxDelayFactor = 6
)

// gameTheoryPolicy offloads to the edge with the complement of the device's
// equilibrium cloud probability. Every decision also updates that device's
// entry in the shared equilibrium state.
type gameTheoryPolicy struct {
	noFeedback
	ctx *Context
	eq  *learning.Equilibrium
}

func newGameTheoryPolicy(ctx *Context) *gameTheoryPolicy {
	return &gameTheoryPolicy{ctx: ctx, eq: learning.NewEquilibrium(ctx.Devices, minArrivalRate, maxArrivalRate)}
}

func (p *gameTheoryPolicy) Decide(t *sim.Task) (Decision, error) {
	s, topo := p.ctx.Scenario, p.ctx.Topology
	d := p.ctx.estimateDelays(t).withSentinels()

	edgeDelay := expectedProcessing(t.Length, s.Edge.VMMips, topo.AvgEdgeUtilization()) + d.wlanUp + d.wlanDown
	cloudProc := expectedProcessing(t.Length, s.Cloud.VMMips, topo.AvgCloudUtilization())

	viaGSM := p.ctx.Rng.Float64() < 0.5
	cloudTier := sim.TierCloudViaRSU
	cloudDelay := cloudProc + d.wanUp + d.wanDown
	if viaGSM {
		cloudTier = sim.TierCloudViaGSM
		cloudDelay = cloudProc + d.gsmUp + d.gsmDown
	}

	app := p.ctx.app(t)
	// The application's mean inter-arrival time stands in for its task arrival rate.
	pi := p.eq.OffloadProbability(t.DeviceID, app.PoissonInterarrival, edgeDelay, cloudDelay, app.MaxDelay*gameMaxDelayFactor)

	reason := fmt.Sprintf("p=%.3f edge=%.3f cloud=%.3f", pi, edgeDelay, cloudDelay)
	if pi < p.ctx.Rng.Float64() {
		return Decision{Tier: sim.TierEdge, Reason: reason}, nil
	}
	return Decision{Tier: cloudTier, Reason: reason}, nil
}
