package orchestrator

import (
	"fmt"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/infra"
)

// WorkerSelector places a task on one VM of a remote tier's pool.
// A nil result means no VM can take the task.
type WorkerSelector interface {
	Select(tier sim.Tier, pool []*infra.Worker, required float64) *infra.Worker
}

// NewWorkerSelector creates the selector registered under name; "" selects
// round-robin. Panics on an unknown name.
func NewWorkerSelector(name string) WorkerSelector {
	if !sim.ValidWorkerSelections[name] {
		panic(fmt.Sprintf("unknown worker selection %q", name))
	}
	if name == sim.WorkerLeastLoaded {
		return LeastLoaded{}
	}
	return &RoundRobin{}
}

// RoundRobin cycles through the edge pool and the cloud pool with separate
// counters. It ignores load: admission is checked when the task arrives.
type RoundRobin struct {
	edge, cloud int
}

// Select implements WorkerSelector.
func (rr *RoundRobin) Select(tier sim.Tier, pool []*infra.Worker, _ float64) *infra.Worker {
	if len(pool) == 0 {
		return nil
	}
	counter := &rr.edge
	if tier.IsCloud() {
		counter = &rr.cloud
	}
	w := pool[*counter%len(pool)]
	*counter = (*counter + 1) % len(pool)
	return w
}

// LeastLoaded picks the VM with the most residual capacity among those that
// can fit the task. Ties go to the lowest index.
type LeastLoaded struct{}

// Select implements WorkerSelector.
func (LeastLoaded) Select(_ sim.Tier, pool []*infra.Worker, required float64) *infra.Worker {
	var best *infra.Worker
	for _, w := range pool {
		if required > w.Residual() {
			continue
		}
		if best == nil || w.Residual() > best.Residual() {
			best = w
		}
	}
	return best
}
