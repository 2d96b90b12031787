package orchestrator

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/vecsim/vecsim/sim"
)

// DatasetHeader is the column order of the AI_TRAINER dataset.
var DatasetHeader = []string{
	"Decision", "Result", "ServiceTime", "ProcessingTime", "VehicleLocation",
	"SelectedHostID", "TaskLength", "TaskInput", "TaskOutput",
	"WANUploadDelay", "WANDownloadDelay", "GSMUploadDelay", "GSMDownloadDelay",
	"WLANUploadDelay", "WLANDownloadDelay", "AvgEdgeUtilization", "NumOffloadedTask",
}

// DatasetFileName returns the dataset file name for a device count.
func DatasetFileName(devices int) string {
	return fmt.Sprintf("%d_learnerOutputFile.cvs", devices)
}

// trainerDistributions biases the tier draw by task class so that every
// class produces examples for every tier. Classes past the table use the last row.
var trainerDistributions = [][]float64{
	{0.60, 0.23, 0.17},
	{0.30, 0.53, 0.17},
	{0.23, 0.60, 0.17},
}

// trainerItem is the decision-time context of one pending task.
type trainerItem struct {
	tier      sim.Tier
	offloaded int
	edgeUtil  float64
	delays    linkDelays
}

// trainerPolicy draws tiers from class-dependent distributions and writes
// one labeled dataset row per finished task.
type trainerPolicy struct {
	ctx     *Context
	counter *OffloadCounter
	pending map[int]trainerItem
	w       *csv.Writer
}

func newTrainerPolicy(ctx *Context) (*trainerPolicy, error) {
	p := &trainerPolicy{
		ctx:     ctx,
		counter: NewOffloadCounter(ctx.Clock, ctx.Scenario.Simulation.OffloadCountWindow),
		pending: make(map[int]trainerItem),
		w:       csv.NewWriter(ctx.Dataset),
	}
	if err := p.w.Write(DatasetHeader); err != nil {
		return nil, fmt.Errorf("writing dataset header: %w", err)
	}
	return p, nil
}

func (p *trainerPolicy) Decide(t *sim.Task) (Decision, error) {
	d := p.ctx.estimateDelays(t).withSentinels()
	probs := trainerDistributions[min(t.Class, len(trainerDistributions)-1)]
	tier, err := drawTier("trainer policy", probs, p.ctx.Rng.Float64())
	if err != nil {
		return Decision{}, err
	}
	if err := p.counter.Add(tier); err != nil {
		return Decision{}, err
	}
	n, err := p.counter.Count(tier)
	if err != nil {
		return Decision{}, err
	}
	p.pending[t.ID] = trainerItem{
		tier:      tier,
		offloaded: n,
		edgeUtil:  p.ctx.Topology.AvgEdgeUtilization(),
		delays:    d,
	}
	return Decision{Tier: tier, Reason: fmt.Sprintf("training draw class %d", t.Class)}, nil
}

func (p *trainerPolicy) TaskCompleted(t *sim.Task, serviceTime float64) error {
	return p.save(t, true, serviceTime)
}

func (p *trainerPolicy) TaskFailed(t *sim.Task) error {
	return p.save(t, false, 0)
}

func (p *trainerPolicy) save(t *sim.Task, success bool, serviceTime float64) error {
	item, ok := p.pending[t.ID]
	if !ok {
		return &sim.InvariantError{Component: "trainer policy", Msg: fmt.Sprintf("no decision recorded for task %d", t.ID)}
	}
	delete(p.pending, t.ID)

	hostID := -1
	if t.WorkerID >= 0 {
		w, err := p.ctx.Topology.Worker(t.WorkerID)
		if err != nil {
			return err
		}
		hostID = w.HostID
	}
	result := "fail"
	if success {
		result = "success"
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	row := []string{
		item.tier.String(), result, f(serviceTime), f(t.ProcessingTime()),
		strconv.Itoa(t.SubmittedAt.ServingAP), strconv.Itoa(hostID),
		f(t.Length), f(t.InputSizeKB), f(t.OutputSizeKB),
		f(item.delays.wanUp), f(item.delays.wanDown),
		f(item.delays.gsmUp), f(item.delays.gsmDown),
		f(item.delays.wlanUp), f(item.delays.wlanDown),
		f(item.edgeUtil), strconv.Itoa(item.offloaded),
	}
	if err := p.w.Write(row); err != nil {
		return fmt.Errorf("writing dataset row: %w", err)
	}
	return nil
}

// Flush writes buffered rows to the dataset.
func (p *trainerPolicy) Flush() error {
	p.w.Flush()
	return p.w.Error()
}
