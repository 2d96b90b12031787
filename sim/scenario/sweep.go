package scenario

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/trace"
)

// SweepConfig selects the points of a sweep. Zero values fall back to the scenario.
type SweepConfig struct {
	Seed       int64
	Devices    []int    // defaults to Scenario.DeviceCounts()
	Policies   []string // defaults to Scenario.Simulation.Policies
	OutputDir  string
	TraceLevel trace.TraceLevel
}

// Sweep runs every (devices, policy) pair in order with the same seed, so all
// policies at a device count face the same workload and mobility. each is
// called after every successful run. The first failing run stops the sweep.
func Sweep(s *sim.Scenario, cfg SweepConfig, each func(*Result) error) error {
	devices := cfg.Devices
	if len(devices) == 0 {
		devices = s.DeviceCounts()
	}
	policies := cfg.Policies
	if len(policies) == 0 {
		policies = s.Simulation.Policies
	}
	for _, n := range devices {
		for _, p := range policies {
			logrus.Infof("sweep point: %d devices, policy %s", n, p)
			sm, err := NewSimulator(RunConfig{
				Scenario:   s,
				Devices:    n,
				Policy:     p,
				Seed:       cfg.Seed,
				OutputDir:  cfg.OutputDir,
				TraceLevel: cfg.TraceLevel,
			})
			if err != nil {
				return fmt.Errorf("building run (%d devices, %s): %w", n, p, err)
			}
			res, err := sm.Run()
			if err != nil {
				return fmt.Errorf("run (%d devices, %s): %w", n, p, err)
			}
			if each != nil {
				if err := each(res); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
