package orchestrator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/infra"
)

// Orchestrator is the per-run decision point: one policy and one worker
// selector, both fixed when the run is built.
type Orchestrator struct {
	ctx      *Context
	name     string
	policy   Policy
	selector WorkerSelector
}

// New builds the orchestrator for a policy name and worker-selection mode.
func New(ctx *Context, policy, workerSelection string) (*Orchestrator, error) {
	p, err := NewPolicy(policy, ctx)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		ctx:      ctx,
		name:     policy,
		policy:   p,
		selector: NewWorkerSelector(workerSelection),
	}, nil
}

// Policy returns the policy name.
func (o *Orchestrator) Policy() string { return o.name }

// Decide chooses the task's tier and records it on the task.
func (o *Orchestrator) Decide(t *sim.Task) (Decision, error) {
	d, err := o.policy.Decide(t)
	if err != nil {
		return Decision{}, fmt.Errorf("%s decision for task %d: %w", o.name, t.ID, err)
	}
	t.Tier = d.Tier
	logrus.Debugf("[%.3f] task %d -> %s (%s)", o.ctx.Clock.Now(), t.ID, d.Tier, d.Reason)
	return d, nil
}

// SelectWorker returns the VM that will execute the task on tier, or nil
// when no VM can take it. The local tier always uses the device's own VM.
func (o *Orchestrator) SelectWorker(t *sim.Task, tier sim.Tier) (*infra.Worker, error) {
	required, err := o.ctx.app(t).RequiredUtilization(tier)
	if err != nil {
		return nil, err
	}
	if tier == sim.TierLocal {
		vm := o.ctx.Topology.MobileVM(t.DeviceID)
		if vm == nil {
			return nil, &sim.ConfigError{Component: "orchestrator", Msg: fmt.Sprintf("device %d has no local VM", t.DeviceID)}
		}
		if required > vm.Residual() {
			return nil, nil
		}
		return vm, nil
	}
	pool, err := o.ctx.Topology.Pool(tier)
	if err != nil {
		return nil, err
	}
	return o.selector.Select(tier, pool, required), nil
}

// TaskCompleted feeds a delivered task's service time to the policy.
func (o *Orchestrator) TaskCompleted(t *sim.Task, serviceTime float64) error {
	return o.policy.TaskCompleted(t, serviceTime)
}

// TaskFailed feeds a bandwidth or capacity failure to the policy.
func (o *Orchestrator) TaskFailed(t *sim.Task) error {
	return o.policy.TaskFailed(t)
}

// RotateWindow closes the statistics window of policies that keep one.
func (o *Orchestrator) RotateWindow() {
	if r, ok := o.policy.(Rotator); ok {
		r.RotateWindow()
	}
}

// Flush writes any buffered policy output, such as the training dataset.
func (o *Orchestrator) Flush() error {
	if f, ok := o.policy.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
