package orchestrator

import (
	"fmt"

	"github.com/vecsim/vecsim/sim"
)

// Decision is a policy's tier choice for one task.
type Decision struct {
	Tier   sim.Tier
	Reason string // human-readable explanation for traces
}

// Policy picks the tier for a task and optionally learns from outcomes.
// Implementations are owned by a single run and are not safe for concurrent use.
type Policy interface {
	Decide(task *sim.Task) (Decision, error)
	TaskCompleted(task *sim.Task, serviceTime float64) error
	TaskFailed(task *sim.Task) error
}

// Rotator is implemented by policies that keep time-windowed statistics.
type Rotator interface {
	RotateWindow()
}

// noFeedback is embedded by policies that ignore outcomes.
type noFeedback struct{}

func (noFeedback) TaskCompleted(*sim.Task, float64) error { return nil }
func (noFeedback) TaskFailed(*sim.Task) error             { return nil }

// NewPolicy creates the policy registered under name.
// Returns a ConfigError when the policy's collaborators are missing from ctx.
// Panics on an unknown name: names are validated when the scenario loads.
func NewPolicy(name string, ctx *Context) (Policy, error) {
	if !sim.ValidOrchestratorPolicies[name] {
		panic(fmt.Sprintf("unknown orchestrator policy %q", name))
	}
	switch name {
	case sim.PolicyRandom:
		return &randomPolicy{ctx: ctx}, nil
	case sim.PolicyNetworkBased:
		return &networkBased{ctx: ctx}, nil
	case sim.PolicyUtilizationBased:
		return &utilizationBased{ctx: ctx}, nil
	case sim.PolicyMobileUtil:
		return &mobileUtilHeuristic{ctx: ctx}, nil
	case sim.PolicyEdgeUtil:
		return &edgeUtilHeuristic{ctx: ctx}, nil
	case sim.PolicyOnlyEdge:
		return fixedTier{tier: sim.TierEdge}, nil
	case sim.PolicyOnlyMobile:
		return fixedTier{tier: sim.TierLocal}, nil
	case sim.PolicyOnlyCloud:
		return fixedTier{tier: sim.TierCloudViaRSU}, nil
	case sim.PolicyMAB:
		return newBanditPolicy(ctx), nil
	case sim.PolicyGameTheory:
		return newGameTheoryPolicy(ctx), nil
	case sim.PolicyPredictive:
		return newPredictivePolicy(ctx), nil
	case sim.PolicyAIBased:
		if ctx.Predictor == nil {
			return nil, &sim.ConfigError{Component: "orchestrator", Msg: "AI_BASED requires a predictor"}
		}
		return newLearnedPolicy(ctx), nil
	case sim.PolicyAITrainer:
		if ctx.Dataset == nil {
			return nil, &sim.ConfigError{Component: "orchestrator", Msg: "AI_TRAINER requires a dataset writer"}
		}
		return newTrainerPolicy(ctx)
	}
	panic(fmt.Sprintf("orchestrator policy %q is registered but not constructed", name))
}
