package workload

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/internal/testutil"
)

func TestGenerate_SortedWithSequentialIDs(t *testing.T) {
	// GIVEN the test scenario with 20 devices
	s := testutil.ValidScenario(t)

	// WHEN the workload is generated
	tasks := Generate(s, 20, rand.New(rand.NewSource(42)))

	// THEN tasks are ordered by creation time, numbered in that order, and in range
	require.NotEmpty(t, tasks)
	for i, task := range tasks {
		assert.Equal(t, i, task.ID)
		if i > 0 {
			assert.GreaterOrEqual(t, task.CreatedAt, tasks[i-1].CreatedAt)
		}
		assert.GreaterOrEqual(t, task.CreatedAt, s.Simulation.ClientActivityStart)
		assert.Less(t, task.CreatedAt, s.Simulation.Duration)
		assert.Equal(t, -1, task.WorkerID)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	s := testutil.ValidScenario(t)
	a := Generate(s, 10, rand.New(rand.NewSource(3)))
	b := Generate(s, 10, rand.New(rand.NewSource(3)))
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, *a[i], *b[i])
	}
}

func TestGenerate_JitterStaysWithinTenPercent(t *testing.T) {
	s := testutil.ValidScenario(t)
	for _, task := range Generate(s, 20, rand.New(rand.NewSource(1))) {
		app := s.Applications[task.Class]
		assert.InDelta(t, app.Length, task.Length, app.Length*sizeJitter+1e-9)
		assert.InDelta(t, app.InputSizeKB, task.InputSizeKB, app.InputSizeKB*sizeJitter+1e-9)
		assert.InDelta(t, app.OutputSizeKB, task.OutputSizeKB, app.OutputSizeKB*sizeJitter+1e-9)
		assert.Equal(t, app.Cores, task.Cores)
	}
}

func TestGenerate_IdlePeriodsProduceNoTasks(t *testing.T) {
	// GIVEN one application with 5 s active and 20 s idle periods
	s := testutil.ValidScenario(t)
	app := s.Applications[0]
	app.UsagePercent = 100
	app.PoissonInterarrival = 0.5
	app.ActivePeriod = 5
	app.IdlePeriod = 20
	s.Applications = []sim.Application{app}

	// WHEN one device's tasks are generated
	tasks := Generate(s, 1, rand.New(rand.NewSource(9)))

	// THEN every task falls inside an active window of its cycle
	require.NotEmpty(t, tasks)
	first := tasks[0].CreatedAt
	assert.LessOrEqual(t, first, s.Simulation.ClientActivityStart+2*app.ActivePeriod)
	gaps := 0
	for i := 1; i < len(tasks); i++ {
		if tasks[i].CreatedAt-tasks[i-1].CreatedAt >= app.IdlePeriod {
			gaps++
		}
	}
	assert.Positive(t, gaps)
}

func TestAssignApplications_FollowsUsageShares(t *testing.T) {
	// GIVEN a 30/35/35 usage split
	s := testutil.ValidScenario(t)

	// WHEN many devices are assigned
	assign := AssignApplications(s.Applications, 3000, rand.New(rand.NewSource(5)))

	// THEN the empirical shares are close to the configured ones
	counts := make([]int, len(s.Applications))
	for _, a := range assign {
		require.GreaterOrEqual(t, a, 0)
		counts[a]++
	}
	for i, app := range s.Applications {
		assert.InDelta(t, app.UsagePercent/100, float64(counts[i])/3000, 0.04, "app %d", i)
	}
}

func TestAssignApplications_UncoveredUsageLeavesDeviceIdle(t *testing.T) {
	apps := []sim.Application{{Name: "tiny", UsagePercent: 1e-9}}
	assign := AssignApplications(apps, 5, rand.New(rand.NewSource(2)))
	for _, a := range assign {
		assert.Equal(t, -1, a)
	}
}
