package orchestrator

import (
	"bytes"
	"encoding/csv"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/infra"
	"github.com/vecsim/vecsim/sim/internal/testutil"
	"github.com/vecsim/vecsim/sim/network"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.PanicLevel)
	}
	os.Exit(m.Run())
}

type fakeClock struct{ now float64 }

func (c *fakeClock) Now() float64 { return c.now }

// stubPredictor answers from fixed per-tier tables and records its inputs.
type stubPredictor struct {
	success  map[sim.Tier]bool
	service  map[sim.Tier]float64
	classify map[sim.Tier][]float64
}

func (p *stubPredictor) Classify(tier sim.Tier, f []float64) (bool, error) {
	if p.classify == nil {
		p.classify = make(map[sim.Tier][]float64)
	}
	p.classify[tier] = f
	return p.success[tier], nil
}

func (p *stubPredictor) Regress(tier sim.Tier, _ []float64) (float64, error) {
	return p.service[tier], nil
}

func newTestContext(t *testing.T) (*Context, *fakeClock) {
	t.Helper()
	s := testutil.ValidScenario(t)
	net, err := network.NewModel(s, 20)
	require.NoError(t, err)
	clock := &fakeClock{now: s.Simulation.ClientActivityStart}
	return &Context{
		Scenario: s,
		Devices:  20,
		Clock:    clock,
		Network:  net,
		Topology: infra.NewTopology(s, 20),
		Rng:      rand.New(rand.NewSource(11)),
	}, clock
}

func newTestTask(id, device, class int) *sim.Task {
	task := sim.NewTask(id, device, class, 5000, 20, 20, 1, 10)
	task.SubmittedAt = sim.Location{ServingAP: 1, Attractiveness: 1}
	return task
}

func TestDrawBucket_WalksCumulativeDistribution(t *testing.T) {
	probs := []float64{0.33, 0.33, 0.34}
	tests := []struct {
		draw float64
		want int
	}{
		{draw: 0, want: 0},
		{draw: 0.33, want: 0},
		{draw: 0.3301, want: 1},
		{draw: 0.66, want: 1},
		{draw: 0.99, want: 2},
	}
	for _, tc := range tests {
		got, err := drawBucket("test", probs, tc.draw)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "draw %v", tc.draw)
	}
}

func TestDrawBucket_UncoveredDrawIsInvariantError(t *testing.T) {
	_, err := drawBucket("test", []float64{0.2, 0.2}, 0.9)
	var inv *sim.InvariantError
	assert.ErrorAs(t, err, &inv)
}

func TestRollingWindowStats_WeightedSumAfterFullRotation(t *testing.T) {
	// GIVEN four windows with known edge outcomes, oldest first:
	// 25% failed, 50% failed, no failures (0.1 default), 100% failed
	r := NewRollingWindowStats()
	windows := []struct{ completed, failed int }{{3, 1}, {1, 1}, {2, 0}, {0, 2}}
	for _, w := range windows {
		for i := 0; i < w.completed; i++ {
			require.NoError(t, r.AddSuccess(sim.TierEdge, 1.0))
		}
		for i := 0; i < w.failed; i++ {
			require.NoError(t, r.AddFailure(sim.TierEdge))
		}
		r.Rotate()
	}

	// WHEN the weighted failure rate is read after exactly four rotations
	got := r.WeightedFailureRate(0)

	// THEN the most recent window weighs 4 and the oldest 1
	assert.InDelta(t, 100*4+0.1*3+50*2+25*1, got, 1e-9)

	// AND a fifth rotation discards the oldest window
	r.Rotate()
	assert.InDelta(t, 0.1*4+100*3+0.1*2+50*1, r.WeightedFailureRate(0), 1e-9)
}

func TestRollingWindowStats_ServiceTimeDefaults(t *testing.T) {
	r := NewRollingWindowStats()
	require.NoError(t, r.AddSuccess(sim.TierCloudViaGSM, 2))
	require.NoError(t, r.AddSuccess(sim.TierCloudViaGSM, 4))
	r.Rotate()
	// window 0 averages 3 s, the other three default to 0.01 s
	assert.InDelta(t, 3*4+0.01*(3+2+1), r.WeightedServiceTime(2), 1e-9)
	assert.Error(t, r.AddFailure(sim.TierLocal))
}

func TestPredictive_Distribution(t *testing.T) {
	ctx, clock := newTestContext(t)
	p := newPredictivePolicy(ctx)

	// GIVEN the warm-up period
	probs, _ := p.Distribution()
	assert.Equal(t, predictiveWarmUpDistribution, probs)

	// WHEN the edge fails every task after warm-up
	clock.now = ctx.Scenario.Simulation.WarmUpPeriod + 1
	for i := 0; i < 4; i++ {
		require.NoError(t, p.TaskFailed(&sim.Task{Tier: sim.TierEdge}))
		require.NoError(t, p.TaskFailed(&sim.Task{Tier: sim.TierEdge}))
		p.RotateWindow()
	}
	probs, byFailure := p.Distribution()

	// THEN scoring switches to failure rate and the edge is least likely
	assert.True(t, byFailure)
	assert.InDelta(t, 1.0, probs[0]+probs[1]+probs[2], 1e-9)
	assert.Less(t, probs[0], probs[1])
	assert.InDelta(t, probs[1], probs[2], 1e-12)
}

func TestPredictive_ServiceTimeScoringWhenFailuresAreRare(t *testing.T) {
	ctx, clock := newTestContext(t)
	clock.now = ctx.Scenario.Simulation.WarmUpPeriod + 1
	p := newPredictivePolicy(ctx)

	// GIVEN the RSU path is slow and nothing fails
	for i := 0; i < 4; i++ {
		require.NoError(t, p.TaskCompleted(&sim.Task{Tier: sim.TierEdge}, 0.5))
		require.NoError(t, p.TaskCompleted(&sim.Task{Tier: sim.TierCloudViaRSU}, 2.0))
		require.NoError(t, p.TaskCompleted(&sim.Task{Tier: sim.TierCloudViaGSM}, 1.0))
		p.RotateWindow()
	}

	// WHEN the distribution is computed
	probs, byFailure := p.Distribution()

	// THEN faster tiers are more likely, in inverse proportion to service time
	assert.False(t, byFailure)
	assert.Greater(t, probs[0], probs[2])
	assert.Greater(t, probs[2], probs[1])
	assert.InDelta(t, 4.0, probs[0]/probs[1], 1e-9)
}

func TestRoundRobin_SeparateCountersPerPool(t *testing.T) {
	ctx, _ := newTestContext(t)
	topo := ctx.Topology
	rr := &RoundRobin{}

	assert.Same(t, topo.Edge[0], rr.Select(sim.TierEdge, topo.Edge, 0))
	assert.Same(t, topo.Cloud[0], rr.Select(sim.TierCloudViaGSM, topo.Cloud, 0))
	assert.Same(t, topo.Edge[1], rr.Select(sim.TierEdge, topo.Edge, 0))
	assert.Same(t, topo.Cloud[1], rr.Select(sim.TierCloudViaRSU, topo.Cloud, 0))

	// wraps modulo pool size
	for i := 2; i < len(topo.Cloud); i++ {
		rr.Select(sim.TierCloudViaRSU, topo.Cloud, 0)
	}
	assert.Same(t, topo.Cloud[0], rr.Select(sim.TierCloudViaRSU, topo.Cloud, 0))
}

func TestLeastLoaded_PicksMostResidualThatFits(t *testing.T) {
	// GIVEN three VMs at 50%, 20% and 20% utilization
	pool := []*infra.Worker{{ID: 0}, {ID: 1}, {ID: 2}}
	pool[0].Admit(50)
	pool[1].Admit(20)
	pool[2].Admit(20)

	// WHEN selecting for a 30% task
	// THEN the first of the two least-loaded VMs wins
	assert.Same(t, pool[1], LeastLoaded{}.Select(sim.TierEdge, pool, 30))
	// AND nothing fits a 90% task
	assert.Nil(t, LeastLoaded{}.Select(sim.TierEdge, pool, 90))
}

func TestNewWorkerSelector(t *testing.T) {
	assert.IsType(t, &RoundRobin{}, NewWorkerSelector(""))
	assert.IsType(t, LeastLoaded{}, NewWorkerSelector(sim.WorkerLeastLoaded))
	assert.Panics(t, func() { NewWorkerSelector("FASTEST") })
}

func TestOffloadCounter_SlidingWindow(t *testing.T) {
	clock := &fakeClock{now: 10}
	c := NewOffloadCounter(clock, 1)
	require.NoError(t, c.Add(sim.TierEdge))
	clock.now = 10.6
	require.NoError(t, c.Add(sim.TierEdge))
	require.NoError(t, c.Add(sim.TierCloudViaGSM))

	n, err := c.Count(sim.TierEdge)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// the first stamp expires once stamp + window < now
	clock.now = 11.2
	n, _ = c.Count(sim.TierEdge)
	assert.Equal(t, 1, n)
	n, _ = c.Count(sim.TierCloudViaRSU)
	assert.Equal(t, 0, n)
}

func TestNewPolicy_UnknownNamePanics(t *testing.T) {
	ctx, _ := newTestContext(t)
	assert.Panics(t, func() { _, _ = NewPolicy("FUZZY", ctx) })
}

func TestNewPolicy_MissingCollaboratorsAreConfigErrors(t *testing.T) {
	ctx, _ := newTestContext(t)
	_, err := NewPolicy(sim.PolicyAIBased, ctx)
	assert.True(t, sim.IsFatal(err))
	_, err = NewPolicy(sim.PolicyAITrainer, ctx)
	assert.True(t, sim.IsFatal(err))
}

func TestThresholdPolicies(t *testing.T) {
	ctx, _ := newTestContext(t)
	task := newTestTask(0, 3, 0)

	// utilization: idle edge keeps tasks at the edge, a busy edge sends them to the cloud
	util := &utilizationBased{ctx: ctx}
	d, err := util.Decide(task)
	require.NoError(t, err)
	assert.Equal(t, sim.TierEdge, d.Tier)
	for _, w := range ctx.Topology.Edge {
		w.Admit(80)
	}
	d, _ = util.Decide(task)
	assert.Equal(t, sim.TierCloudViaRSU, d.Tier)

	// edge host heuristic: AP 1 at 80% is under 90% so edge, at 100% falls back to local
	edgeHost := &edgeUtilHeuristic{ctx: ctx}
	d, _ = edgeHost.Decide(task)
	assert.Equal(t, sim.TierEdge, d.Tier)
	ctx.Topology.Edge[2].Admit(20)
	ctx.Topology.Edge[3].Admit(20)
	d, _ = edgeHost.Decide(task)
	assert.Equal(t, sim.TierLocal, d.Tier)

	// mobile heuristic: idle device VM keeps the task local
	mobile := &mobileUtilHeuristic{ctx: ctx}
	d, _ = mobile.Decide(task)
	assert.Equal(t, sim.TierLocal, d.Tier)
	ctx.Topology.MobileVM(3).Admit(75)
	d, _ = mobile.Decide(task)
	assert.Equal(t, sim.TierEdge, d.Tier)
}

func TestNetworkBased_ComparesProbedBandwidth(t *testing.T) {
	ctx, _ := newTestContext(t)
	task := newTestTask(0, 0, 0)
	delay := ctx.Network.Estimate(sim.LinkWAN, network.Upload, 1, wanProbeKB)

	d, err := (&networkBased{ctx: ctx}).Decide(task)
	require.NoError(t, err)
	if delay != 0 && 1/delay > wanBandwidthThreshold {
		assert.Equal(t, sim.TierCloudViaRSU, d.Tier)
	} else {
		assert.Equal(t, sim.TierEdge, d.Tier)
	}
}

func TestFixedPolicies(t *testing.T) {
	ctx, _ := newTestContext(t)
	for name, want := range map[string]sim.Tier{
		sim.PolicyOnlyEdge:   sim.TierEdge,
		sim.PolicyOnlyMobile: sim.TierLocal,
		sim.PolicyOnlyCloud:  sim.TierCloudViaRSU,
	} {
		p, err := NewPolicy(name, ctx)
		require.NoError(t, err)
		d, err := p.Decide(newTestTask(0, 0, 0))
		require.NoError(t, err)
		assert.Equal(t, want, d.Tier, name)
	}
}

func TestBanditPolicy_WarmStartsOnFirstDecisionAndLearns(t *testing.T) {
	// GIVEN a MAB orchestrator
	ctx, _ := newTestContext(t)
	o, err := New(ctx, sim.PolicyMAB, sim.WorkerRoundRobin)
	require.NoError(t, err)
	p := o.policy.(*banditPolicy)
	require.False(t, p.bandit.Initialized())

	// WHEN the first task is decided
	task := newTestTask(0, 0, 1)
	d, err := o.Decide(task)
	require.NoError(t, err)

	// THEN the bandit is warm, the task carries the tier, and feedback updates the arm
	assert.True(t, p.bandit.Initialized())
	assert.Equal(t, d.Tier, task.Tier)
	arm, err := armOf(task.Tier)
	require.NoError(t, err)
	require.NoError(t, o.TaskFailed(task))
	assert.Equal(t, 2, p.bandit.Pulls(arm))
	require.NoError(t, o.TaskCompleted(task, 1.5))
	assert.Equal(t, 3, p.bandit.Pulls(arm))
}

func TestGameTheoryPolicy_DecidesOffloadTierAndUpdatesDevice(t *testing.T) {
	ctx, _ := newTestContext(t)
	p := newGameTheoryPolicy(ctx)
	task := newTestTask(0, 4, 2)

	for i := 0; i < 20; i++ {
		d, err := p.Decide(task)
		require.NoError(t, err)
		assert.Contains(t, sim.OffloadTiers, d.Tier)
	}
	assert.InDelta(t, ctx.Scenario.Applications[2].PoissonInterarrival/maxArrivalRate, p.eq.ArrivalRate(4), 1e-12)
	assert.GreaterOrEqual(t, p.eq.Probability(4), 0.01)
	assert.LessOrEqual(t, p.eq.Probability(4), 0.99)
}

func TestLearnedPolicy_PicksLowestPredictedServiceTime(t *testing.T) {
	// GIVEN edge predicted to fail, RSU 0.8 s and GSM 0.5 s predicted to succeed
	ctx, _ := newTestContext(t)
	pred := &stubPredictor{
		success: map[sim.Tier]bool{sim.TierCloudViaRSU: true, sim.TierCloudViaGSM: true},
		service: map[sim.Tier]float64{sim.TierEdge: 0.1, sim.TierCloudViaRSU: 0.8, sim.TierCloudViaGSM: 0.5},
	}
	ctx.Predictor = pred
	p := newLearnedPolicy(ctx)

	// WHEN two tasks are decided
	d, err := p.Decide(newTestTask(0, 0, 0))
	require.NoError(t, err)
	_, err = p.Decide(newTestTask(1, 0, 0))
	require.NoError(t, err)

	// THEN GSM wins and the second decision sees one recent GSM offload
	assert.Equal(t, sim.TierCloudViaGSM, d.Tier)
	assert.Equal(t, 1.0, pred.classify[sim.TierCloudViaGSM][0])
	assert.Len(t, pred.classify[sim.TierEdge], 5)
	assert.Len(t, pred.classify[sim.TierCloudViaRSU], 3)
}

func TestLearnedPolicy_TiesPreferEdge(t *testing.T) {
	ctx, _ := newTestContext(t)
	ctx.Predictor = &stubPredictor{
		success: map[sim.Tier]bool{sim.TierEdge: true, sim.TierCloudViaRSU: true, sim.TierCloudViaGSM: true},
		service: map[sim.Tier]float64{sim.TierEdge: 1, sim.TierCloudViaRSU: 1, sim.TierCloudViaGSM: 1},
	}
	d, err := newLearnedPolicy(ctx).Decide(newTestTask(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, sim.TierEdge, d.Tier)
}

func TestLearnedPolicy_AllFailFallsBackToRandom(t *testing.T) {
	ctx, _ := newTestContext(t)
	ctx.Predictor = &stubPredictor{}
	d, err := newLearnedPolicy(ctx).Decide(newTestTask(0, 0, 0))
	require.NoError(t, err)
	assert.Contains(t, sim.OffloadTiers, d.Tier)
	assert.Equal(t, "no tier predicted to succeed", d.Reason)
}

func TestTrainerPolicy_WritesHeaderAndOneRowPerOutcome(t *testing.T) {
	// GIVEN an AI_TRAINER orchestrator writing to a buffer
	ctx, _ := newTestContext(t)
	var buf bytes.Buffer
	ctx.Dataset = &buf
	o, err := New(ctx, sim.PolicyAITrainer, sim.WorkerRoundRobin)
	require.NoError(t, err)

	// WHEN one task completes and another fails
	ok := newTestTask(7, 0, 0)
	_, err = o.Decide(ok)
	require.NoError(t, err)
	w, err := o.SelectWorker(ok, ok.Tier)
	require.NoError(t, err)
	ok.WorkerID = w.ID
	ok.ExecStart, ok.ExecFinish = 11, 11.5
	require.NoError(t, o.TaskCompleted(ok, 0.9))

	bad := newTestTask(8, 1, 2)
	_, err = o.Decide(bad)
	require.NoError(t, err)
	require.NoError(t, o.TaskFailed(bad))
	require.NoError(t, o.Flush())

	// THEN the header is exact and each row carries label, outcome and context
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Decision,Result,ServiceTime,ProcessingTime,VehicleLocation,SelectedHostID,TaskLength,TaskInput,TaskOutput,WANUploadDelay,WANDownloadDelay,GSMUploadDelay,GSMDownloadDelay,WLANUploadDelay,WLANDownloadDelay,AvgEdgeUtilization,NumOffloadedTask", lines[0])

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, ok.Tier.String(), rows[1][0])
	assert.Equal(t, "success", rows[1][1])
	assert.Equal(t, "0.9", rows[1][2])
	assert.Equal(t, "0.5", rows[1][3])
	assert.Equal(t, "1", rows[1][4])
	assert.Equal(t, "1", rows[1][16])
	assert.Equal(t, "fail", rows[2][1])
	assert.Equal(t, "0", rows[2][2])
	assert.Equal(t, "-1", rows[2][5])

	// AND a second outcome for the same task is an invariant violation
	assert.True(t, sim.IsFatal(o.TaskFailed(bad)))
}

func TestOrchestrator_SelectWorker_Local(t *testing.T) {
	ctx, _ := newTestContext(t)
	o, err := New(ctx, sim.PolicyOnlyMobile, "")
	require.NoError(t, err)
	task := newTestTask(0, 2, 0)

	w, err := o.SelectWorker(task, sim.TierLocal)
	require.NoError(t, err)
	assert.Same(t, ctx.Topology.MobileVM(2), w)

	// a full device VM yields no worker
	ctx.Topology.MobileVM(2).Admit(95)
	w, err = o.SelectWorker(task, sim.TierLocal)
	require.NoError(t, err)
	assert.Nil(t, w)

	// no device VMs at all is a configuration error
	ctx.Topology = infra.NewTopology(func() *sim.Scenario { s := testutil.Scenario(); s.Mobile.VMMips = 0; return s }(), 20)
	_, err = o.SelectWorker(task, sim.TierLocal)
	assert.True(t, sim.IsFatal(err))
}

func TestOrchestrator_SelectWorker_UsesSelectorForRemoteTiers(t *testing.T) {
	ctx, _ := newTestContext(t)
	o, err := New(ctx, sim.PolicyRandom, sim.WorkerLeastLoaded)
	require.NoError(t, err)
	ctx.Topology.Cloud[0].Admit(10)

	w, err := o.SelectWorker(newTestTask(0, 0, 0), sim.TierCloudViaGSM)
	require.NoError(t, err)
	assert.Same(t, ctx.Topology.Cloud[1], w)
}
