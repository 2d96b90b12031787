package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedTask(tier Tier, start, finish, network float64) *Task {
	task := NewTask(1, 0, 0, 1000, 10, 10, 1, 0)
	task.Tier = tier
	task.ExecStart = start
	task.ExecFinish = finish
	task.NetworkTime = network
	return task
}

func TestRunMetrics_Summarize_Empty(t *testing.T) {
	s := NewRunMetrics().Summarize()
	assert.Zero(t, s.Completed)
	assert.Zero(t, s.Failed)
	assert.Zero(t, s.SuccessRate)
	assert.Zero(t, s.MeanServiceTime)
	assert.Zero(t, s.MeanOverheadMicros)
	assert.Empty(t, s.TierCompleted)
}

func TestRunMetrics_RecordFailed_CountsByReason(t *testing.T) {
	// GIVEN failures of every kind on two tiers
	m := NewRunMetrics()
	edge := completedTask(TierEdge, 0, 0, 0)
	gsm := completedTask(TierCloudViaGSM, 0, 0, 0)

	// WHEN they are recorded
	m.RecordFailed(edge, Failure{Reason: FailureBandwidth, Link: LinkWLAN})
	m.RecordFailed(edge, Failure{Reason: FailureBandwidth, Link: LinkMAN})
	m.RecordFailed(edge, Failure{Reason: FailureMobility})
	m.RecordFailed(gsm, Failure{Reason: FailureCapacity})

	// THEN per-tier and run-wide counters agree
	require.Contains(t, m.Tiers, TierEdge)
	assert.Equal(t, 1, m.Tiers[TierEdge].BandwidthFailures[LinkMAN])
	assert.Equal(t, 3, m.Tiers[TierEdge].Failed())
	s := m.Summarize()
	assert.Equal(t, 4, s.Failed)
	assert.Equal(t, 2, s.BandwidthFailures)
	assert.Equal(t, 1, s.CapacityFailures)
	assert.Equal(t, 1, s.MobilityFailures)
	assert.Equal(t, 1, s.TierFailed["CLOUD_VIA_GSM"])
}

func TestRunMetrics_Summarize_Averages(t *testing.T) {
	// GIVEN two edge completions and one failure
	m := NewRunMetrics()
	m.RecordCompleted(completedTask(TierEdge, 1, 2, 0.5), 1.5, 100)
	m.RecordCompleted(completedTask(TierEdge, 1, 4, 1.5), 4.5, 50)
	m.RecordFailed(completedTask(TierCloudViaRSU, 0, 0, 0), Failure{Reason: FailureCapacity})
	m.Decisions = 3
	m.OverheadNanos = 6000

	// WHEN summarized
	s := m.Summarize()

	// THEN means are over completed tasks only
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 200.0/3, s.SuccessRate, 1e-9)
	assert.InDelta(t, 3.0, s.MeanServiceTime, 1e-9)
	assert.InDelta(t, 2.0, s.MeanProcessingTime, 1e-9)
	assert.InDelta(t, 1.0, s.MeanNetworkTime, 1e-9)
	assert.InDelta(t, 75.0, s.MeanQoE, 1e-9)
	assert.InDelta(t, 2.0, s.MeanOverheadMicros, 1e-9)
	assert.GreaterOrEqual(t, s.P95ServiceTime, s.MeanServiceTime)
	assert.Equal(t, 2, s.TierCompleted["EDGE"])
}
