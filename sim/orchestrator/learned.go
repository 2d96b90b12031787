package orchestrator

import (
	"fmt"
	"math"

	"github.com/vecsim/vecsim/sim"
)

// Predictor is a trained model per offload tier.
type Predictor interface {
	// Classify predicts whether a task offloaded to tier would succeed.
	Classify(tier sim.Tier, features []float64) (bool, error)
	// Regress predicts the service time of a task offloaded to tier.
	Regress(tier sim.Tier, features []float64) (float64, error)
}

var learnedFallbackDistribution = []float64{0.33, 0.34, 0.33}

// learnedPolicy asks the predictor which tiers would succeed and picks the
// one with the lowest predicted service time.
type learnedPolicy struct {
	noFeedback
	ctx     *Context
	counter *OffloadCounter
}

func newLearnedPolicy(ctx *Context) *learnedPolicy {
	return &learnedPolicy{ctx: ctx, counter: NewOffloadCounter(ctx.Clock, ctx.Scenario.Simulation.OffloadCountWindow)}
}

// features returns the classifier and regressor inputs of each offload tier.
func (p *learnedPolicy) features(t *sim.Task, d linkDelays) (classify, regress [3][]float64, err error) {
	var counts [3]float64
	for i, tier := range sim.OffloadTiers {
		n, err := p.counter.Count(tier)
		if err != nil {
			return classify, regress, err
		}
		counts[i] = float64(n)
	}
	edgeUtil := p.ctx.Topology.AvgEdgeUtilization()
	classify = [3][]float64{
		{counts[0], t.Length, d.wlanUp, d.wlanDown, edgeUtil},
		{counts[1], d.wanUp, d.wanDown},
		{counts[2], d.gsmUp, d.gsmDown},
	}
	regress = [3][]float64{
		{t.Length, edgeUtil},
		{t.Length, d.wanUp, d.wanDown},
		{t.Length, d.gsmUp, d.gsmDown},
	}
	return classify, regress, nil
}

func (p *learnedPolicy) Decide(t *sim.Task) (Decision, error) {
	d := p.ctx.estimateDelays(t).withSentinels()
	classify, regress, err := p.features(t, d)
	if err != nil {
		return Decision{}, err
	}

	predicted := [3]float64{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64}
	anySuccess := false
	for i, tier := range sim.OffloadTiers {
		ok, err := p.ctx.Predictor.Classify(tier, classify[i])
		if err != nil {
			return Decision{}, err
		}
		if !ok {
			continue
		}
		anySuccess = true
		if predicted[i], err = p.ctx.Predictor.Regress(tier, regress[i]); err != nil {
			return Decision{}, err
		}
	}

	var dec Decision
	if !anySuccess {
		tier, err := drawTier("learned policy", learnedFallbackDistribution, p.ctx.Rng.Float64())
		if err != nil {
			return Decision{}, err
		}
		dec = Decision{Tier: tier, Reason: "no tier predicted to succeed"}
	} else {
		// Strict < keeps ties on the earlier tier: edge, then RSU, then GSM.
		best := 0
		for i := 1; i < len(predicted); i++ {
			if predicted[i] < predicted[best] {
				best = i
			}
		}
		dec = Decision{Tier: sim.OffloadTiers[best], Reason: fmt.Sprintf("predicted %.3fs", predicted[best])}
	}
	if err := p.counter.Add(dec.Tier); err != nil {
		return Decision{}, err
	}
	return dec, nil
}
