package orchestrator

import (
	"fmt"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/network"
)

const (
	// wanProbeKB is the dummy payload used to measure WAN bandwidth.
	wanProbeKB = 128
	// wanBandwidthThreshold is the probed WAN bandwidth (1/delay) above which
	// the cloud is preferred over the edge.
	wanBandwidthThreshold = 5
	// edgeUtilizationThreshold is the average edge utilization (%) above which
	// tasks go to the cloud.
	edgeUtilizationThreshold = 75
	// mobileUtilizationThreshold is the device VM utilization (%) below which
	// tasks stay on the device.
	mobileUtilizationThreshold = 75
	// edgeHostUtilizationThreshold is the serving AP's edge host utilization (%)
	// below which tasks go to the edge.
	edgeHostUtilizationThreshold = 90
)

// networkBased probes the WAN with a fixed payload and sends tasks to the
// cloud while its bandwidth is high.
type networkBased struct {
	noFeedback
	ctx *Context
}

func (p *networkBased) Decide(t *sim.Task) (Decision, error) {
	delay := p.ctx.Network.Estimate(sim.LinkWAN, network.Upload, t.SubmittedAt.ServingAP, wanProbeKB)
	bw := 0.0
	if delay != 0 {
		bw = 1 / delay
	}
	if bw > wanBandwidthThreshold {
		return Decision{Tier: sim.TierCloudViaRSU, Reason: fmt.Sprintf("wan-bw=%.2f", bw)}, nil
	}
	return Decision{Tier: sim.TierEdge, Reason: fmt.Sprintf("wan-bw=%.2f", bw)}, nil
}

// utilizationBased moves tasks to the cloud when the edge is busy.
type utilizationBased struct {
	noFeedback
	ctx *Context
}

func (p *utilizationBased) Decide(*sim.Task) (Decision, error) {
	util := p.ctx.Topology.AvgEdgeUtilization()
	reason := fmt.Sprintf("edge-util=%.1f", util)
	if util > edgeUtilizationThreshold {
		return Decision{Tier: sim.TierCloudViaRSU, Reason: reason}, nil
	}
	return Decision{Tier: sim.TierEdge, Reason: reason}, nil
}

// mobileUtilHeuristic keeps tasks on the device while its VM has headroom.
type mobileUtilHeuristic struct {
	noFeedback
	ctx *Context
}

func (p *mobileUtilHeuristic) Decide(t *sim.Task) (Decision, error) {
	vm := p.ctx.Topology.MobileVM(t.DeviceID)
	if vm == nil {
		return Decision{}, &sim.ConfigError{Component: "orchestrator", Msg: fmt.Sprintf("device %d has no local VM", t.DeviceID)}
	}
	reason := fmt.Sprintf("device-util=%.1f", vm.Utilization())
	if vm.Utilization() < mobileUtilizationThreshold {
		return Decision{Tier: sim.TierLocal, Reason: reason}, nil
	}
	return Decision{Tier: sim.TierEdge, Reason: reason}, nil
}

// edgeUtilHeuristic uses the serving AP's edge host unless it is nearly full.
type edgeUtilHeuristic struct {
	noFeedback
	ctx *Context
}

func (p *edgeUtilHeuristic) Decide(t *sim.Task) (Decision, error) {
	util := p.ctx.Topology.EdgeHostUtilization(t.SubmittedAt.ServingAP)
	reason := fmt.Sprintf("ap%d-util=%.1f", t.SubmittedAt.ServingAP, util)
	if util < edgeHostUtilizationThreshold {
		return Decision{Tier: sim.TierEdge, Reason: reason}, nil
	}
	return Decision{Tier: sim.TierLocal, Reason: reason}, nil
}

// fixedTier always returns the same tier.
type fixedTier struct {
	noFeedback
	tier sim.Tier
}

func (p fixedTier) Decide(*sim.Task) (Decision, error) {
	return Decision{Tier: p.tier, Reason: "fixed"}, nil
}
