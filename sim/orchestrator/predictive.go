package orchestrator

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/vecsim/vecsim/sim"
)

// failureDominanceThreshold is the aggregate failure percentage above which
// PREDICTIVE scores tiers by failure rate alone.
const failureDominanceThreshold = 30

var predictiveWarmUpDistribution = []float64{0.34, 0.33, 0.33}

// predictivePolicy samples tiers in inverse proportion to their recent
// weighted failure rate or service time.
type predictivePolicy struct {
	ctx   *Context
	stats *RollingWindowStats
}

func newPredictivePolicy(ctx *Context) *predictivePolicy {
	return &predictivePolicy{ctx: ctx, stats: NewRollingWindowStats()}
}

// Distribution returns the current tier probabilities and whether they were
// scored by failure rate.
func (p *predictivePolicy) Distribution() ([]float64, bool) {
	if p.ctx.Clock.Now() <= p.ctx.Scenario.Simulation.WarmUpPeriod {
		return predictiveWarmUpDistribution, false
	}
	n := len(sim.OffloadTiers)
	failure := make([]float64, n)
	service := make([]float64, n)
	for i := 0; i < n; i++ {
		failure[i] = p.stats.WeightedFailureRate(i)
		service[i] = p.stats.WeightedServiceTime(i)
	}

	// Weighted sums divided by the total weight and tier count give the
	// mean failure percentage over all windows and tiers.
	aggregate := floats.Sum(failure) / (totalWeight() * float64(n))
	byFailure := aggregate > failureDominanceThreshold
	metric := service
	if byFailure {
		metric = failure
	}

	total := floats.Sum(metric)
	scores := make([]float64, n)
	for i, v := range metric {
		scores[i] = total / v
	}
	floats.Scale(1/floats.Sum(scores), scores)
	return scores, byFailure
}

func (p *predictivePolicy) Decide(*sim.Task) (Decision, error) {
	probs, byFailure := p.Distribution()
	draw := 0.01 + 0.98*p.ctx.Rng.Float64()
	tier, err := drawTier("predictive policy", probs, draw)
	if err != nil {
		return Decision{}, err
	}
	basis := "service-time"
	if byFailure {
		basis = "failure-rate"
	}
	return Decision{Tier: tier, Reason: fmt.Sprintf("%s p=%.3f/%.3f/%.3f", basis, probs[0], probs[1], probs[2])}, nil
}

func (p *predictivePolicy) TaskCompleted(t *sim.Task, serviceTime float64) error {
	return p.stats.AddSuccess(t.Tier, serviceTime)
}

func (p *predictivePolicy) TaskFailed(t *sim.Task) error {
	return p.stats.AddFailure(t.Tier)
}

// RotateWindow implements Rotator.
func (p *predictivePolicy) RotateWindow() { p.stats.Rotate() }
