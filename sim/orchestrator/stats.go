package orchestrator

import (
	"fmt"

	"github.com/vecsim/vecsim/sim"
)

// HistoryWindows is the number of closed windows kept per tier.
const HistoryWindows = 4

const (
	defaultFailureRate = 0.1  // percent, for a window without failures
	defaultServiceTime = 0.01 // seconds, for a window without completions
)

// StatItem accumulates outcomes of one tier within one window.
type StatItem struct {
	Completed   int
	Failed      int
	ServiceTime float64 // sum over completed tasks
}

// FailureRate returns the failure percentage, or 0.1 when nothing failed.
func (s StatItem) FailureRate() float64 {
	if s.Failed == 0 {
		return defaultFailureRate
	}
	return 100 * float64(s.Failed) / float64(s.Completed+s.Failed)
}

// AvgServiceTime returns the mean service time, or 0.01 when nothing completed.
func (s StatItem) AvgServiceTime() float64 {
	if s.Completed == 0 {
		return defaultServiceTime
	}
	return s.ServiceTime / float64(s.Completed)
}

// RollingWindowStats keeps, per offload tier, HistoryWindows closed windows
// plus one accumulating window. Index 0 of the history is the most recent.
type RollingWindowStats struct {
	current [3]StatItem
	history [HistoryWindows][3]StatItem
}

// NewRollingWindowStats returns empty statistics.
func NewRollingWindowStats() *RollingWindowStats {
	return &RollingWindowStats{}
}

func (r *RollingWindowStats) item(t sim.Tier) (*StatItem, error) {
	arm, err := armOf(t)
	if err != nil {
		return nil, fmt.Errorf("rolling stats: %w", err)
	}
	return &r.current[arm], nil
}

// AddSuccess records a completed task in the current window.
func (r *RollingWindowStats) AddSuccess(t sim.Tier, serviceTime float64) error {
	it, err := r.item(t)
	if err != nil {
		return err
	}
	it.Completed++
	it.ServiceTime += serviceTime
	return nil
}

// AddFailure records a failed task in the current window.
func (r *RollingWindowStats) AddFailure(t sim.Tier) error {
	it, err := r.item(t)
	if err != nil {
		return err
	}
	it.Failed++
	return nil
}

// Rotate shifts the history by one, moves the current window to the front
// and starts a fresh current window. The oldest window is discarded.
func (r *RollingWindowStats) Rotate() {
	copy(r.history[1:], r.history[:HistoryWindows-1])
	r.history[0] = r.current
	r.current = [3]StatItem{}
}

// weight is the recency weight of history index i: HistoryWindows for the
// most recent window down to 1 for the oldest.
func weight(i int) float64 { return float64(HistoryWindows - i) }

// totalWeight is the sum of all recency weights.
func totalWeight() float64 {
	w := 0.0
	for i := 0; i < HistoryWindows; i++ {
		w += weight(i)
	}
	return w
}

// WeightedFailureRate returns Σ weight(i) * failureRate(window i) for a tier.
func (r *RollingWindowStats) WeightedFailureRate(arm int) float64 {
	sum := 0.0
	for i := range r.history {
		sum += r.history[i][arm].FailureRate() * weight(i)
	}
	return sum
}

// WeightedServiceTime returns Σ weight(i) * avgServiceTime(window i) for a tier.
func (r *RollingWindowStats) WeightedServiceTime(arm int) float64 {
	sum := 0.0
	for i := range r.history {
		sum += r.history[i][arm].AvgServiceTime() * weight(i)
	}
	return sum
}
