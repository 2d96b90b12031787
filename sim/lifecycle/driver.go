// Package lifecycle drives each task from submission to delivery or failure:
// upload, optional relay hop, execution on the assigned VM, download and
// optional relay hop back, re-checking mobility before the last hop.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/infra"
	"github.com/vecsim/vecsim/sim/network"
	"github.com/vecsim/vecsim/sim/orchestrator"
	"github.com/vecsim/vecsim/sim/trace"
)

// Orchestrator is the decision side of the driver.
type Orchestrator interface {
	Decide(task *sim.Task) (orchestrator.Decision, error)
	SelectWorker(task *sim.Task, tier sim.Tier) (*infra.Worker, error)
	TaskCompleted(task *sim.Task, serviceTime float64) error
	TaskFailed(task *sim.Task) error
}

// Network hands out transfer delays and records them as load. A zero delay
// means the channel is saturated.
type Network interface {
	Get(link sim.Link, dir network.Direction, ap int, sizeKB float64) float64
}

// Config wires a driver to the collaborators of one run.
type Config struct {
	Scheduler    sim.Scheduler
	Mobility     sim.Mobility
	Network      Network
	Orchestrator Orchestrator
	Topology     *infra.Topology
	Applications []sim.Application
	Metrics      *sim.RunMetrics
	// WarmUp excludes tasks created before it from the metrics.
	WarmUp float64
	// Trace, when non-nil, receives every decision and outcome.
	Trace *trace.SimulationTrace
	// OnFatal receives configuration and invariant errors raised inside
	// event callbacks. The driver stops processing the affected task.
	OnFatal func(error)
}

// Driver is the task lifecycle state machine of one run.
// Thread-safety: NOT thread-safe. All calls come from the event loop.
type Driver struct {
	cfg Config
}

// New creates a driver.
func New(cfg Config) *Driver {
	if cfg.OnFatal == nil {
		cfg.OnFatal = func(err error) { logrus.Errorf("lifecycle: %v", err) }
	}
	return &Driver{cfg: cfg}
}

func (d *Driver) now() float64 { return d.cfg.Scheduler.Now() }

func (d *Driver) counted(t *sim.Task) bool { return t.CreatedAt >= d.cfg.WarmUp }

// after schedules fn(task) delay seconds from now.
func (d *Driver) after(delay float64, t *sim.Task, fn func(*sim.Task)) {
	d.cfg.Scheduler.Schedule(delay, func(p any) { fn(p.(*sim.Task)) }, t)
}

// transfer records a hop's delay on the task.
func (d *Driver) transfer(t *sim.Task, delay float64) {
	t.NetworkTime += delay
}

// Submit is the entry point for a task at its creation time: it records the
// submission location, asks the orchestrator for a tier and starts the upload.
func (d *Driver) Submit(t *sim.Task) {
	t.SubmittedAt = d.cfg.Mobility.LocationOf(t.DeviceID, d.now())
	if d.counted(t) {
		d.cfg.Metrics.TasksGenerated++
	}

	start := time.Now()
	dec, err := d.cfg.Orchestrator.Decide(t)
	if d.counted(t) {
		d.cfg.Metrics.OverheadNanos += time.Since(start).Nanoseconds()
		d.cfg.Metrics.Decisions++
	}
	if err != nil {
		d.cfg.OnFatal(err)
		return
	}
	if d.cfg.Trace != nil {
		d.cfg.Trace.RecordDecision(trace.DecisionRecord{
			TaskID: t.ID, DeviceID: t.DeviceID, Clock: d.now(),
			AP: t.SubmittedAt.ServingAP, Tier: dec.Tier.String(), WorkerID: -1, Reason: dec.Reason,
		})
	}

	switch t.Tier {
	case sim.TierLocal:
		d.submitLocal(t)
		return
	case sim.TierCloudViaGSM:
		d.upload(t, sim.LinkGSM)
	case sim.TierCloudViaRSU, sim.TierEdge:
		d.upload(t, sim.LinkWLAN)
	default:
		d.cfg.OnFatal(&sim.ConfigError{Component: "lifecycle", Msg: fmt.Sprintf("task %d: unknown tier %v", t.ID, t.Tier)})
	}
}

// submitLocal runs a task on the device's own VM without any transfer.
func (d *Driver) submitLocal(t *sim.Task) {
	w, err := d.cfg.Orchestrator.SelectWorker(t, sim.TierLocal)
	if err != nil {
		d.cfg.OnFatal(err)
		return
	}
	if w == nil {
		d.fail(t, sim.Failure{Reason: sim.FailureCapacity})
		return
	}
	t.WorkerID = w.ID
	d.execute(t)
}

// upload sends the input over the first hop.
func (d *Driver) upload(t *sim.Task, link sim.Link) {
	delay := d.cfg.Network.Get(link, network.Upload, t.SubmittedAt.ServingAP, t.InputSizeKB)
	if delay <= 0 {
		d.fail(t, sim.Failure{Reason: sim.FailureBandwidth, Link: link})
		return
	}
	d.transfer(t, delay)
	t.State = sim.StateUploadInFlight
	d.after(delay, t, d.readyToSelectWorker)
}

// readyToSelectWorker runs when the first hop completes.
func (d *Driver) readyToSelectWorker(t *sim.Task) {
	w, err := d.cfg.Orchestrator.SelectWorker(t, t.Tier)
	if err != nil {
		d.cfg.OnFatal(err)
		return
	}
	if w == nil {
		d.fail(t, sim.Failure{Reason: sim.FailureCapacity})
		return
	}
	t.WorkerID = w.ID

	switch t.Tier {
	case sim.TierCloudViaGSM:
		d.execute(t)
	case sim.TierCloudViaRSU:
		d.relayUpload(t, sim.LinkWAN)
	case sim.TierEdge:
		if w.AP == t.SubmittedAt.ServingAP {
			d.execute(t)
		} else {
			d.relayUpload(t, sim.LinkMAN)
		}
	}
}

// relayUpload forwards the input from the serving RSU to the cloud (WAN) or
// to a neighbouring edge host (MAN).
func (d *Driver) relayUpload(t *sim.Task, link sim.Link) {
	delay := d.cfg.Network.Get(link, network.Upload, t.SubmittedAt.ServingAP, t.InputSizeKB)
	if delay <= 0 {
		d.fail(t, sim.Failure{Reason: sim.FailureBandwidth, Link: link})
		return
	}
	d.transfer(t, delay)
	t.State = sim.StateRelayUploadInFlight
	d.after(delay, t, d.execute)
}

// execute admits the task to its worker and schedules its completion.
func (d *Driver) execute(t *sim.Task) {
	w, err := d.cfg.Topology.Worker(t.WorkerID)
	if err != nil {
		d.cfg.OnFatal(err)
		return
	}
	required, err := d.cfg.Applications[t.Class].RequiredUtilization(t.Tier)
	if err != nil {
		d.cfg.OnFatal(err)
		return
	}
	if !w.Admit(required) {
		d.fail(t, sim.Failure{Reason: sim.FailureCapacity})
		return
	}
	t.State = sim.StateRemoteExecuting
	if t.Tier == sim.TierLocal {
		t.State = sim.StateLocalExecuting
	}
	t.ExecStart = d.now()
	d.after(w.ProcessingTime(t.Length), t, func(t *sim.Task) {
		w.Release(required)
		t.ExecFinish = d.now()
		d.executed(t)
	})
}

// executed starts the response path.
func (d *Driver) executed(t *sim.Task) {
	switch t.Tier {
	case sim.TierLocal:
		d.deliver(t)
	case sim.TierCloudViaGSM:
		d.download(t, sim.LinkGSM, sim.StateDownloadInFlight, d.deliver)
	case sim.TierCloudViaRSU:
		d.download(t, sim.LinkWAN, sim.StateRelayDownloadInFlight, d.responseAtEdge)
	case sim.TierEdge:
		current := d.cfg.Mobility.LocationOf(t.DeviceID, d.now())
		if current.ServingAP == t.SubmittedAt.ServingAP {
			d.finalHop(t, t.SubmittedAt.ServingAP)
		} else {
			d.download(t, sim.LinkMAN, sim.StateRelayDownloadInFlight, d.relayToDevice)
		}
	}
}

// responseAtEdge runs when a cloud response reaches the submitting RSU. If
// the device has moved on, the response crosses the MAN first.
func (d *Driver) responseAtEdge(t *sim.Task) {
	current := d.cfg.Mobility.LocationOf(t.DeviceID, d.now())
	if current.ServingAP == t.SubmittedAt.ServingAP {
		d.relayToDevice(t)
		return
	}
	d.download(t, sim.LinkMAN, sim.StateRelayDownloadInFlight, d.relayToDevice)
}

// relayToDevice sends the response over the WLAN of the device's current AP.
func (d *Driver) relayToDevice(t *sim.Task) {
	d.finalHop(t, d.cfg.Mobility.LocationOf(t.DeviceID, d.now()).ServingAP)
}

// download sends the output over a non-final hop and continues with next.
func (d *Driver) download(t *sim.Task, link sim.Link, state sim.TaskState, next func(*sim.Task)) {
	delay := d.cfg.Network.Get(link, network.Download, t.SubmittedAt.ServingAP, t.OutputSizeKB)
	if delay <= 0 {
		d.fail(t, sim.Failure{Reason: sim.FailureBandwidth, Link: link})
		return
	}
	d.transfer(t, delay)
	t.State = state
	d.after(delay, t, next)
}

// finalHop sends the response over the WLAN of ap. The device must still be
// served by ap when the transfer would complete, or the response is lost.
func (d *Driver) finalHop(t *sim.Task, ap int) {
	delay := d.cfg.Network.Get(sim.LinkWLAN, network.Download, ap, t.OutputSizeKB)
	if delay <= 0 {
		d.fail(t, sim.Failure{Reason: sim.FailureBandwidth, Link: sim.LinkWLAN})
		return
	}
	future := d.cfg.Mobility.LocationOf(t.DeviceID, d.now()+delay)
	if future.ServingAP != ap {
		d.fail(t, sim.Failure{Reason: sim.FailureMobility})
		return
	}
	d.transfer(t, delay)
	t.State = sim.StateDownloadInFlight
	d.after(delay, t, d.deliver)
}

// deliver completes a task: QoE, orchestrator feedback and metrics.
func (d *Driver) deliver(t *sim.Task) {
	t.State = sim.StateDelivered
	serviceTime := d.now() - t.CreatedAt
	app := d.cfg.Applications[t.Class]
	qoe := sim.QoE(serviceTime, app.MaxDelay, app.DelaySensitivity)

	if err := d.cfg.Orchestrator.TaskCompleted(t, serviceTime); err != nil {
		d.cfg.OnFatal(err)
		return
	}
	if d.counted(t) {
		d.cfg.Metrics.RecordCompleted(t, serviceTime, qoe)
	}
	if d.cfg.Trace != nil {
		d.cfg.Trace.RecordOutcome(trace.OutcomeRecord{
			TaskID: t.ID, Clock: d.now(), Tier: t.Tier.String(), Delivered: true, ServiceTime: serviceTime,
		})
	}
	logrus.Debugf("[%.3f] task %d delivered via %s in %.3fs (QoE %.1f)", d.now(), t.ID, t.Tier, serviceTime, qoe)
}

// fail terminates a task. Mobility failures are counted but not reported to
// the orchestrator.
func (d *Driver) fail(t *sim.Task, f sim.Failure) {
	t.State = sim.StateFailed
	if d.counted(t) {
		d.cfg.Metrics.RecordFailed(t, f)
	}
	if d.cfg.Trace != nil {
		d.cfg.Trace.RecordOutcome(trace.OutcomeRecord{
			TaskID: t.ID, Clock: d.now(), Tier: t.Tier.String(), Failure: f.String(),
		})
	}
	logrus.Debugf("[%.3f] task %d failed on %s: %s", d.now(), t.ID, t.Tier, f)
	if !f.ReportsToOrchestrator() {
		return
	}
	if err := d.cfg.Orchestrator.TaskFailed(t); err != nil {
		d.cfg.OnFatal(err)
	}
}
