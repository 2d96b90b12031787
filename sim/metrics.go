// Tracks run-wide and per-tier offloading outcomes such as:
// completions, failures by reason, service time, processing time and QoE.

package sim

import (
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TierMetrics aggregates outcomes of tasks assigned to one tier.
type TierMetrics struct {
	Completed         int
	BandwidthFailures map[Link]int
	CapacityFailures  int
	MobilityFailures  int
	ServiceTimeSum    float64
	ProcessingTimeSum float64
	NetworkTimeSum    float64
	QoESum            float64
}

// Failed returns the number of failed tasks on this tier.
func (t *TierMetrics) Failed() int {
	n := t.CapacityFailures + t.MobilityFailures
	for _, c := range t.BandwidthFailures {
		n += c
	}
	return n
}

// APDelaySample is one reading of the periodic access-point delay log.
type APDelaySample struct {
	Time     float64
	Upload   []float64
	Download []float64
}

// RunMetrics aggregates statistics about one run for final reporting.
type RunMetrics struct {
	Tiers          map[Tier]*TierMetrics
	ServiceTimes   []float64 // per completed task, in completion order
	QoEs           []float64 // per completed task
	TasksGenerated int
	OverheadNanos  int64 // wall-clock time spent in orchestrator decisions
	Decisions      int
	PeakDelay      map[Link]float64
	APDelayLog     []APDelaySample
}

// NewRunMetrics creates empty metrics.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{
		Tiers:     make(map[Tier]*TierMetrics),
		PeakDelay: make(map[Link]float64),
	}
}

func (m *RunMetrics) tier(t Tier) *TierMetrics {
	tm, ok := m.Tiers[t]
	if !ok {
		tm = &TierMetrics{BandwidthFailures: make(map[Link]int)}
		m.Tiers[t] = tm
	}
	return tm
}

// RecordCompleted records a delivered task.
func (m *RunMetrics) RecordCompleted(task *Task, serviceTime, qoe float64) {
	tm := m.tier(task.Tier)
	tm.Completed++
	tm.ServiceTimeSum += serviceTime
	tm.ProcessingTimeSum += task.ProcessingTime()
	tm.NetworkTimeSum += task.NetworkTime
	tm.QoESum += qoe
	m.ServiceTimes = append(m.ServiceTimes, serviceTime)
	m.QoEs = append(m.QoEs, qoe)
}

// RecordFailed records a task that terminated unsuccessfully.
func (m *RunMetrics) RecordFailed(task *Task, f Failure) {
	tm := m.tier(task.Tier)
	switch f.Reason {
	case FailureBandwidth:
		tm.BandwidthFailures[f.Link]++
	case FailureCapacity:
		tm.CapacityFailures++
	case FailureMobility:
		tm.MobilityFailures++
	}
}

// Summary is the condensed view of a run, suitable for printing and persisting.
type Summary struct {
	Completed          int
	Failed             int
	SuccessRate        float64 // percent
	MeanServiceTime    float64
	StdDevServiceTime  float64
	P95ServiceTime     float64
	MeanProcessingTime float64
	MeanNetworkTime    float64
	MeanQoE            float64
	BandwidthFailures  int
	CapacityFailures   int
	MobilityFailures   int
	MeanOverheadMicros float64
	TierCompleted      map[string]int
	TierFailed         map[string]int
}

// Summarize computes aggregate statistics. Safe on empty metrics.
func (m *RunMetrics) Summarize() Summary {
	s := Summary{
		TierCompleted: make(map[string]int),
		TierFailed:    make(map[string]int),
	}
	processing, network := 0.0, 0.0
	for t, tm := range m.Tiers {
		s.Completed += tm.Completed
		s.Failed += tm.Failed()
		s.CapacityFailures += tm.CapacityFailures
		s.MobilityFailures += tm.MobilityFailures
		for _, c := range tm.BandwidthFailures {
			s.BandwidthFailures += c
		}
		processing += tm.ProcessingTimeSum
		network += tm.NetworkTimeSum
		s.TierCompleted[t.String()] = tm.Completed
		s.TierFailed[t.String()] = tm.Failed()
	}
	if total := s.Completed + s.Failed; total > 0 {
		s.SuccessRate = 100 * float64(s.Completed) / float64(total)
	}
	if s.Completed > 0 {
		s.MeanServiceTime = stat.Mean(m.ServiceTimes, nil)
		s.StdDevServiceTime = stat.StdDev(m.ServiceTimes, nil)
		sorted := slices.Clone(m.ServiceTimes)
		slices.Sort(sorted)
		s.P95ServiceTime = stat.Quantile(0.95, stat.Empirical, sorted, nil)
		s.MeanQoE = floats.Sum(m.QoEs) / float64(len(m.QoEs))
		s.MeanProcessingTime = processing / float64(s.Completed)
		s.MeanNetworkTime = network / float64(s.Completed)
	}
	if m.Decisions > 0 {
		s.MeanOverheadMicros = float64(m.OverheadNanos) / float64(m.Decisions) / 1e3
	}
	return s
}

// Print displays aggregated metrics at the end of a run.
func (m *RunMetrics) Print(devices int, policy string) {
	s := m.Summarize()
	fmt.Printf("=== Run Metrics (%d devices, %s) ===\n", devices, policy)
	fmt.Printf("Tasks Generated      : %d\n", m.TasksGenerated)
	fmt.Printf("Completed Tasks      : %d\n", s.Completed)
	fmt.Printf("Failed Tasks         : %d (bandwidth=%d capacity=%d mobility=%d)\n",
		s.Failed, s.BandwidthFailures, s.CapacityFailures, s.MobilityFailures)
	fmt.Printf("Success Rate         : %.2f%%\n", s.SuccessRate)
	if s.Completed > 0 {
		fmt.Printf("Average Service Time : %.4f s (std %.4f, p95 %.4f)\n", s.MeanServiceTime, s.StdDevServiceTime, s.P95ServiceTime)
		fmt.Printf("Average Processing   : %.4f s\n", s.MeanProcessingTime)
		fmt.Printf("Average Network Delay: %.4f s\n", s.MeanNetworkTime)
		fmt.Printf("Average QoE          : %.2f\n", s.MeanQoE)
	}
	for _, t := range []Tier{TierLocal, TierEdge, TierCloudViaRSU, TierCloudViaGSM} {
		if tm, ok := m.Tiers[t]; ok {
			fmt.Printf("  %-14s completed=%d failed=%d\n", t, tm.Completed, tm.Failed())
		}
	}
	for _, l := range AllLinks {
		if peak, ok := m.PeakDelay[l]; ok {
			fmt.Printf("Peak %-4s Delay      : %.4f s\n", l, peak)
		}
	}
	fmt.Printf("Orchestrator Overhead: %.2f us/decision\n", s.MeanOverheadMicros)
}
