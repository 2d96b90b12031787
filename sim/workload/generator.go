// Package workload generates the task arrivals of a run: each vehicle runs one
// application and emits tasks during alternating active and idle periods.
package workload

import (
	"math/rand"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/vecsim/vecsim/sim"
)

// sizeJitter is the relative half-width of the uniform jitter applied to
// task payloads and length.
const sizeJitter = 0.10

// Assignment is the application a device runs, or -1 for a device whose usage
// draw fell outside the application table.
type Assignment []int

// AssignApplications picks an application per device by usage percentage.
// A device picks the first application whose cumulative usage reaches a
// uniform draw in [0, 100].
func AssignApplications(apps []sim.Application, devices int, rng *rand.Rand) Assignment {
	out := make(Assignment, devices)
	for d := range out {
		draw := rng.Float64() * 100
		out[d] = -1
		cum := 0.0
		for i, app := range apps {
			cum += app.UsagePercent
			if draw <= cum {
				out[d] = i
				break
			}
		}
		if out[d] < 0 {
			logrus.Debugf("workload: device %d drew %.2f beyond total usage, no application", d, draw)
		}
	}
	return out
}

// Generate builds every task of a run, sorted by creation time with
// sequential IDs. Deterministic for the same rng state.
func Generate(s *sim.Scenario, devices int, rng *rand.Rand) []*sim.Task {
	assign := AssignApplications(s.Applications, devices, rng)
	var tasks []*sim.Task
	for device, class := range assign {
		if class < 0 {
			continue
		}
		tasks = append(tasks, deviceTasks(s, device, class, rng)...)
	}
	slices.SortStableFunc(tasks, func(a, b *sim.Task) int {
		switch {
		case a.CreatedAt < b.CreatedAt:
			return -1
		case a.CreatedAt > b.CreatedAt:
			return 1
		}
		return 0
	})
	for i, t := range tasks {
		t.ID = i
	}
	logrus.Debugf("workload: %d tasks for %d devices", len(tasks), devices)
	return tasks
}

// deviceTasks walks one device's timeline. The first active period starts
// uniformly within one active period after client activity begins. An arrival
// that overshoots the active period is dropped and the clock jumps to the
// start of the next active period.
func deviceTasks(s *sim.Scenario, device, class int, rng *rand.Rand) []*sim.Task {
	app := s.Applications[class]
	start := s.Simulation.ClientActivityStart
	activeStart := start + rng.Float64()*app.ActivePeriod
	now := activeStart

	var tasks []*sim.Task
	for now < s.Simulation.Duration {
		now += rng.ExpFloat64() * app.PoissonInterarrival
		if now > activeStart+app.ActivePeriod {
			activeStart += app.ActivePeriod + app.IdlePeriod
			now = activeStart
			continue
		}
		if now >= s.Simulation.Duration {
			break
		}
		tasks = append(tasks, sim.NewTask(0, device, class,
			jitter(app.Length, rng),
			jitter(app.InputSizeKB, rng),
			jitter(app.OutputSizeKB, rng),
			app.Cores, now))
	}
	return tasks
}

func jitter(v float64, rng *rand.Rand) float64 {
	return v * (1 + sizeJitter*(2*rng.Float64()-1))
}
