// Package scenario runs simulations: it wires one isolated context per
// (devices, policy) point, drives the recurring timers and aggregates results.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/infra"
	"github.com/vecsim/vecsim/sim/kernel"
	"github.com/vecsim/vecsim/sim/lifecycle"
	"github.com/vecsim/vecsim/sim/mobility"
	"github.com/vecsim/vecsim/sim/network"
	"github.com/vecsim/vecsim/sim/orchestrator"
	"github.com/vecsim/vecsim/sim/predictor"
	"github.com/vecsim/vecsim/sim/trace"
	"github.com/vecsim/vecsim/sim/workload"
)

// RunConfig identifies one run.
type RunConfig struct {
	Scenario *sim.Scenario
	Devices  int
	Policy   string
	Seed     int64
	// OutputDir receives the AI_TRAINER dataset. Defaults to the working directory.
	OutputDir string
	// TraceLevel enables decision tracing.
	TraceLevel trace.TraceLevel
	// Predictor overrides the model loaded for AI_BASED.
	Predictor orchestrator.Predictor
}

// Result is the outcome of one run.
type Result struct {
	Devices     int
	Policy      string
	Seed        int64
	Metrics     *sim.RunMetrics
	Trace       *trace.SimulationTrace // nil unless tracing was enabled
	DatasetPath string                 // set for AI_TRAINER runs
}

// Simulator owns every component of one run. It is the run's sim.Scheduler:
// callbacks stop firing once a fatal error has been raised.
//
// Thread-safety: NOT thread-safe. Separate runs share nothing and may execute
// in separate goroutines.
type Simulator struct {
	cfg     RunConfig
	kernel  *kernel.Kernel
	network *network.Model
	orch    *orchestrator.Orchestrator
	driver  *lifecycle.Driver
	tasks   []*sim.Task
	metrics *sim.RunMetrics
	trace   *trace.SimulationTrace
	dataset *os.File
	err     error
	hasRun  bool
}

// NewSimulator builds every component of a run. Configuration problems are
// returned as *sim.ConfigError.
func NewSimulator(cfg RunConfig) (*Simulator, error) {
	s := cfg.Scenario
	if cfg.Devices <= 0 {
		return nil, &sim.ConfigError{Component: "scenario", Msg: fmt.Sprintf("device count must be positive, got %d", cfg.Devices)}
	}
	if !sim.ValidOrchestratorPolicies[cfg.Policy] {
		return nil, &sim.ConfigError{Component: "scenario", Msg: fmt.Sprintf("unknown orchestrator policy %q", cfg.Policy)}
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
	sm := &Simulator{
		cfg:     cfg,
		kernel:  kernel.New(),
		metrics: sim.NewRunMetrics(),
	}
	if cfg.TraceLevel.Enabled() {
		sm.trace = trace.NewSimulationTrace(cfg.TraceLevel)
	}

	var err error
	if sm.network, err = network.NewModel(s, cfg.Devices); err != nil {
		return nil, err
	}
	topo := infra.NewTopology(s, cfg.Devices)
	road := mobility.NewRoad(s, cfg.Devices, rng.ForSubsystem(sim.SubsystemMobility))
	sm.tasks = workload.Generate(s, cfg.Devices, rng.ForSubsystem(sim.SubsystemWorkload))

	ctx := &orchestrator.Context{
		Scenario:  s,
		Devices:   cfg.Devices,
		Clock:     sm,
		Network:   sm.network,
		Topology:  topo,
		Rng:       rng.ForSubsystem(sim.SubsystemOrchestrator),
		Predictor: cfg.Predictor,
	}
	switch cfg.Policy {
	case sim.PolicyAIBased:
		if ctx.Predictor == nil {
			if ctx.Predictor, err = loadPredictor(s.Predictor); err != nil {
				return nil, err
			}
		}
	case sim.PolicyAITrainer:
		if sm.dataset, err = sm.createDataset(); err != nil {
			return nil, err
		}
		ctx.Dataset = sm.dataset
	}
	if sm.orch, err = orchestrator.New(ctx, cfg.Policy, s.Simulation.WorkerSelection); err != nil {
		sm.closeDataset()
		return nil, err
	}

	lc := lifecycle.Config{
		Scheduler:    sm,
		Mobility:     road,
		Network:      sm.network,
		Orchestrator: sm.orch,
		Topology:     topo,
		Applications: s.Applications,
		Metrics:      sm.metrics,
		WarmUp:       s.Simulation.WarmUpPeriod,
		Trace:        sm.trace,
		OnFatal:      sm.abort,
	}
	sm.driver = lifecycle.New(lc)
	return sm, nil
}

// loadPredictor reads the coefficient file, or the built-in model when none is configured.
func loadPredictor(path string) (orchestrator.Predictor, error) {
	if path == "" {
		return predictor.Default(), nil
	}
	m, err := predictor.Load(path)
	if err != nil {
		return nil, &sim.ConfigError{Component: "predictor", Msg: err.Error()}
	}
	return m, nil
}

func (sm *Simulator) createDataset() (*os.File, error) {
	dir := sm.cfg.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, orchestrator.DatasetFileName(sm.cfg.Devices)))
	if err != nil {
		return nil, fmt.Errorf("creating dataset: %w", err)
	}
	return f, nil
}

func (sm *Simulator) closeDataset() error {
	if sm.dataset == nil {
		return nil
	}
	return sm.dataset.Close()
}

// Now implements sim.Clock.
func (sm *Simulator) Now() float64 { return sm.kernel.Now() }

// Schedule implements sim.Scheduler. Events scheduled before an abort are
// dropped when they fire.
func (sm *Simulator) Schedule(delay float64, fn sim.Callback, payload any) {
	sm.kernel.Schedule(delay, func(p any) {
		if sm.err != nil {
			return
		}
		fn(p)
	}, payload)
}

// abort records the first fatal error and stops the run.
func (sm *Simulator) abort(err error) {
	if sm.err != nil {
		return
	}
	logrus.Errorf("[%.3f] aborting run (%d devices, %s): %v", sm.Now(), sm.cfg.Devices, sm.cfg.Policy, err)
	sm.err = err
}

// Run executes the simulation until the configured duration and returns the
// result. The first fatal error raised by any component is returned instead.
// Panics if called more than once.
func (sm *Simulator) Run() (*Result, error) {
	if sm.hasRun {
		panic("Simulator.Run() called more than once")
	}
	sm.hasRun = true
	sc := sm.cfg.Scenario.Simulation

	for _, t := range sm.tasks {
		sm.Schedule(t.CreatedAt, func(p any) { sm.driver.Submit(p.(*sim.Task)) }, t)
	}
	sim.Every(sm, sc.ClientActivityStart+sc.NetworkUpdateInterval, sc.NetworkUpdateInterval, func() bool {
		sm.network.Update(sm.Now())
		return true
	})
	sim.Every(sm, sc.ClientActivityStart+sc.StatsWindowInterval, sc.StatsWindowInterval, func() bool {
		sm.orch.RotateWindow()
		return true
	})
	if sc.DelayLogInterval > 0 && len(sc.DelayLogAPs) > 0 {
		sim.Every(sm, sc.ClientActivityStart, sc.DelayLogInterval, func() bool {
			sm.sampleAPDelays()
			return true
		})
	}

	logrus.Infof("run started: %d devices, policy %s, %d tasks", sm.cfg.Devices, sm.cfg.Policy, len(sm.tasks))
	sm.kernel.Run(sc.Duration)

	sm.metrics.PeakDelay = sm.network.Peaks()
	flushErr := sm.orch.Flush()
	closeErr := sm.closeDataset()
	if sm.err != nil {
		return nil, sm.err
	}
	if flushErr != nil {
		return nil, fmt.Errorf("flushing %s output: %w", sm.cfg.Policy, flushErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("closing dataset: %w", closeErr)
	}

	res := &Result{
		Devices: sm.cfg.Devices,
		Policy:  sm.cfg.Policy,
		Seed:    sm.cfg.Seed,
		Metrics: sm.metrics,
		Trace:   sm.trace,
	}
	if sm.dataset != nil {
		res.DatasetPath = sm.dataset.Name()
	}
	logrus.Infof("run finished: %d devices, policy %s, %d tasks generated", sm.cfg.Devices, sm.cfg.Policy, sm.metrics.TasksGenerated)
	return res, nil
}

func (sm *Simulator) sampleAPDelays() {
	aps := sm.cfg.Scenario.Simulation.DelayLogAPs
	sample := sim.APDelaySample{
		Time:     sm.Now(),
		Upload:   make([]float64, len(aps)),
		Download: make([]float64, len(aps)),
	}
	for i, ap := range aps {
		sample.Upload[i], sample.Download[i] = sm.network.APDelays(ap)
	}
	sm.metrics.APDelayLog = append(sm.metrics.APDelayLog, sample)
}
