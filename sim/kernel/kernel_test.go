package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vecsim/vecsim/sim"
)

func TestKernel_Schedule_FiresInTimeOrder(t *testing.T) {
	// GIVEN three events scheduled out of order
	k := New()
	var fired []string
	record := func(p any) { fired = append(fired, p.(string)) }
	k.Schedule(2.0, record, "late")
	k.Schedule(0.5, record, "early")
	k.Schedule(1.0, record, "middle")

	// WHEN the kernel runs
	k.Run(10)

	// THEN events fire by simulated time
	assert.Equal(t, []string{"early", "middle", "late"}, fired)
}

func TestKernel_Now_AdvancesWithEvents(t *testing.T) {
	// GIVEN an event that reads the clock when it fires
	k := New()
	var seen float64
	k.Schedule(1.5, func(any) { seen = k.Now() }, nil)

	// WHEN the kernel runs
	k.Run(10)

	// THEN the callback observed its own firing time
	assert.InDelta(t, 1.5, seen, 1e-6)
}

func TestKernel_Every_StopsWhenCallbackDeclines(t *testing.T) {
	// GIVEN a recurring timer that stops after three ticks
	k := New()
	var ticks []float64
	sim.Every(k, 1.0, 0.5, func() bool {
		ticks = append(ticks, k.Now())
		return len(ticks) < 3
	})

	// WHEN the kernel runs
	k.Run(100)

	// THEN exactly three ticks fired at start, start+interval, start+2*interval
	assert.Len(t, ticks, 3)
	assert.InDelta(t, 1.0, ticks[0], 1e-6)
	assert.InDelta(t, 2.0, ticks[2], 1e-6)
}
