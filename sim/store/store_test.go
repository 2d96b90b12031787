package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecsim/vecsim/sim"
)

func openTemp(t *testing.T) *Repository {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s.Repository()
}

func sampleMetrics() *sim.RunMetrics {
	m := sim.NewRunMetrics()
	m.TasksGenerated = 4
	edge := sim.NewTask(1, 0, 0, 1000, 10, 10, 1, 20)
	edge.Tier = sim.TierEdge
	m.RecordCompleted(edge, 1.0, 100)
	m.RecordCompleted(edge, 3.0, 50)
	gsm := sim.NewTask(2, 1, 0, 1000, 10, 10, 1, 20)
	gsm.Tier = sim.TierCloudViaGSM
	m.RecordFailed(gsm, sim.Failure{Reason: sim.FailureBandwidth, Link: sim.LinkGSM})
	return m
}

func TestNewRunRecord_SummarizesMetrics(t *testing.T) {
	// GIVEN two edge completions and one GSM bandwidth failure
	// WHEN summarized into a record
	r := NewRunRecord(20, sim.PolicyMAB, 42, sampleMetrics())

	// THEN totals and the per-tier breakdown are carried over
	assert.Len(t, r.ID, 36)
	assert.Equal(t, 2, r.Completed)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 1, r.BandwidthFailures)
	assert.InDelta(t, 2.0, r.MeanServiceTime, 1e-12)
	assert.InDelta(t, 75.0, r.MeanQoE, 1e-12)
	require.Len(t, r.Tiers, 2)
	assert.Equal(t, "EDGE", r.Tiers[0].Tier)
	assert.Equal(t, "CLOUD_VIA_GSM", r.Tiers[1].Tier)
	assert.Equal(t, 1, r.Tiers[1].Failed)
}

func TestRepository_SaveThenGet(t *testing.T) {
	// GIVEN a saved run
	repo := openTemp(t)
	r := NewRunRecord(20, sim.PolicyMAB, 42, sampleMetrics())
	require.NoError(t, repo.Save(r))

	// WHEN it is loaded by ID
	got, err := repo.Get(r.ID)

	// THEN scalar fields and tiers round-trip
	require.NoError(t, err)
	assert.Equal(t, r.Policy, got.Policy)
	assert.Equal(t, r.Devices, got.Devices)
	assert.Equal(t, r.Completed, got.Completed)
	assert.Len(t, got.Tiers, 2)
}

func TestRepository_Get_UnknownIDIsNotFound(t *testing.T) {
	repo := openTemp(t)
	_, err := repo.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_List_Filters(t *testing.T) {
	// GIVEN runs across two policies and two device counts
	repo := openTemp(t)
	for _, p := range []string{sim.PolicyMAB, sim.PolicyRandom} {
		for _, n := range []int{10, 20} {
			require.NoError(t, repo.Save(NewRunRecord(n, p, 1, sampleMetrics())))
		}
	}

	// WHEN listing with and without filters
	all, err := repo.List(Filter{})
	require.NoError(t, err)
	mab, err := repo.List(Filter{Policy: sim.PolicyMAB})
	require.NoError(t, err)
	mab20, err := repo.List(Filter{Policy: sim.PolicyMAB, Devices: 20})
	require.NoError(t, err)

	// THEN each filter narrows the result
	assert.Len(t, all, 4)
	assert.Len(t, mab, 2)
	require.Len(t, mab20, 1)
	assert.Equal(t, 20, mab20[0].Devices)
	assert.Len(t, mab20[0].Tiers, 2)
}
