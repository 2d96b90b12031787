package orchestrator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/learning"
)

// banditPolicy delegates to a UCB bandit whose arms are the offload tiers
// in sim.OffloadTiers order.
type banditPolicy struct {
	ctx    *Context
	bandit *learning.Bandit
}

func newBanditPolicy(ctx *Context) *banditPolicy {
	shortest, longest := ctx.Scenario.TaskLengthBounds()
	return &banditPolicy{ctx: ctx, bandit: learning.NewBandit(len(sim.OffloadTiers), shortest, longest)}
}

func (p *banditPolicy) Decide(t *sim.Task) (Decision, error) {
	if !p.bandit.Initialized() {
		d := p.ctx.estimateDelays(t).withSentinels()
		s, topo := p.ctx.Scenario, p.ctx.Topology
		edgeProc := expectedProcessing(t.Length, s.Edge.VMMips, topo.AvgEdgeUtilization())
		cloudProc := expectedProcessing(t.Length, s.Cloud.VMMips, topo.AvgCloudUtilization())
		expected := []float64{
			d.wlanUp + d.wlanDown + edgeProc,
			d.wanUp + d.wanDown + cloudProc,
			d.gsmUp + d.gsmDown + cloudProc,
		}
		p.bandit.Initialize(expected, t.Length)
		logrus.Debugf("bandit warm start with expected delays %v", expected)
	}
	arm := p.bandit.SelectArm(t.Length)
	return Decision{
		Tier:   sim.OffloadTiers[arm],
		Reason: fmt.Sprintf("ucb arm %d (U=%.6f, K=%d)", arm, p.bandit.Utility(arm), p.bandit.Pulls(arm)),
	}, nil
}

func (p *banditPolicy) TaskCompleted(t *sim.Task, serviceTime float64) error {
	return p.update(t, serviceTime)
}

// TaskFailed feeds a zero service time, which the bandit replaces with its
// per-class failure penalty.
func (p *banditPolicy) TaskFailed(t *sim.Task) error {
	return p.update(t, 0)
}

func (p *banditPolicy) update(t *sim.Task, serviceTime float64) error {
	arm, err := armOf(t.Tier)
	if err != nil {
		return err
	}
	return p.bandit.Update(arm, serviceTime, t.Length, t.Class)
}
