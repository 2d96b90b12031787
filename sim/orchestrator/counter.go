package orchestrator

import (
	"github.com/vecsim/vecsim/sim"
)

// OffloadCounter counts, per offload tier, the decisions taken within the
// last window seconds.
type OffloadCounter struct {
	clock  sim.Clock
	window float64
	stamps [3][]float64
}

// NewOffloadCounter creates a counter over a sliding window in seconds.
func NewOffloadCounter(clock sim.Clock, window float64) *OffloadCounter {
	return &OffloadCounter{clock: clock, window: window}
}

// Add records a decision for tier at the current time.
func (c *OffloadCounter) Add(t sim.Tier) error {
	arm, err := armOf(t)
	if err != nil {
		return err
	}
	c.stamps[arm] = append(c.stamps[arm], c.clock.Now())
	return nil
}

// Count drops expired timestamps and returns the decisions still in the window.
func (c *OffloadCounter) Count(t sim.Tier) (int, error) {
	arm, err := armOf(t)
	if err != nil {
		return 0, err
	}
	now := c.clock.Now()
	s := c.stamps[arm]
	i := 0
	for i < len(s) && s[i]+c.window < now {
		i++
	}
	c.stamps[arm] = s[i:]
	return len(c.stamps[arm]), nil
}
