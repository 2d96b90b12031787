package mobility

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vecsim/vecsim/sim/internal/testutil"
)

// The test scenario has 4 segments of 400 m with attractiveness 0,1,2,0 and
// speeds 20/40/60 km/h: 72 s, 36 s, 24 s, 72 s per segment, 204 s per loop.

func TestRoad_LoopTime(t *testing.T) {
	r := NewRoadWithPositions(testutil.ValidScenario(t), []float64{0})
	assert.InDelta(t, 204.0, r.LoopTime(), 1e-9)
}

func TestRoad_LocationOf_StaysInStartSegmentUntilItsEnd(t *testing.T) {
	// GIVEN a vehicle starting 200 m into segment 0 (36 s left at 20 km/h)
	r := NewRoadWithPositions(testutil.ValidScenario(t), []float64{200})

	// WHEN queried before and after it crosses into segment 1
	before := r.LocationOf(0, 35)
	after := r.LocationOf(0, 37)

	// THEN the serving AP changes exactly at the boundary
	assert.Equal(t, 0, before.ServingAP)
	assert.Equal(t, 1, after.ServingAP)
	assert.Equal(t, 1, after.Attractiveness)
	assert.InDelta(t, 400+40*1/3.6, after.X, 1e-9)
}

func TestRoad_LocationOf_WrapsAroundTheLoop(t *testing.T) {
	// GIVEN a vehicle at the road origin
	r := NewRoadWithPositions(testutil.ValidScenario(t), []float64{0})

	// WHEN one full loop plus 10 s has elapsed
	loc := r.LocationOf(0, r.LoopTime()+10)

	// THEN it is back in segment 0
	assert.Equal(t, 0, loc.ServingAP)
}

func TestRoad_LocationOf_IsPure(t *testing.T) {
	// GIVEN randomly placed vehicles
	s := testutil.ValidScenario(t)
	r := NewRoad(s, 10, rand.New(rand.NewSource(7)))

	// WHEN the same (device, time) is queried twice, out of order
	a := r.LocationOf(4, 100)
	_ = r.LocationOf(4, 5)
	b := r.LocationOf(4, 100)

	// THEN the answers match and every AP index is valid
	assert.Equal(t, a, b)
	for d := 0; d < 10; d++ {
		ap := r.LocationOf(d, 50).ServingAP
		assert.True(t, ap >= 0 && ap < s.NumAccessPoints())
	}
}
