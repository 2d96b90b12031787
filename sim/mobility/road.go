// Package mobility implements vehicle movement on a looping road whose
// segments are covered one-to-one by road-side access points.
package mobility

import (
	"math"
	"math/rand"

	"github.com/vecsim/vecsim/sim"
)

// Road is a closed loop of equal-length segments. A vehicle drives each
// segment at the speed of the segment's attractiveness class, so its position
// is a pure function of its start position and the elapsed time.
type Road struct {
	segmentLength float64
	attractive    []int     // attractiveness per segment
	speeds        []float64 // km/h per attractiveness class
	segmentTime   []float64 // seconds to drive each segment
	loopTime      float64

	startPos      []float64 // meters from the road origin, per device
	startSegment  []int
	timeToNextSeg []float64 // seconds from t=0 until the device leaves its start segment
}

// NewRoad places devices uniformly at random along the road.
func NewRoad(s *sim.Scenario, devices int, rng *rand.Rand) *Road {
	length := s.Mobility.SegmentLength * float64(s.NumAccessPoints())
	positions := make([]float64, devices)
	for i := range positions {
		positions[i] = rng.Float64() * length
	}
	return NewRoadWithPositions(s, positions)
}

// NewRoadWithPositions places device i at positions[i] meters.
func NewRoadWithPositions(s *sim.Scenario, positions []float64) *Road {
	r := &Road{
		segmentLength: s.Mobility.SegmentLength,
		speeds:        s.Mobility.Speeds,
	}
	for _, ap := range s.Edge.AccessPoints {
		r.attractive = append(r.attractive, ap.Attractiveness)
		t := 3.6 * r.segmentLength / r.speeds[ap.Attractiveness]
		r.segmentTime = append(r.segmentTime, t)
		r.loopTime += t
	}
	for _, pos := range positions {
		seg := int(pos / r.segmentLength)
		if seg >= len(r.attractive) {
			seg = len(r.attractive) - 1
		}
		remaining := r.segmentLength - math.Mod(pos, r.segmentLength)
		r.startPos = append(r.startPos, pos)
		r.startSegment = append(r.startSegment, seg)
		r.timeToNextSeg = append(r.timeToNextSeg, 3.6*remaining/r.speed(seg))
	}
	return r
}

func (r *Road) speed(segment int) float64 {
	return r.speeds[r.attractive[segment]]
}

// LocationOf implements sim.Mobility.
func (r *Road) LocationOf(device int, at float64) sim.Location {
	seg := r.startSegment[device]
	var offset, elapsed float64
	if at < r.timeToNextSeg[device] {
		offset = r.startPos[device]
		elapsed = at
	} else {
		elapsed = math.Mod(at-r.timeToNextSeg[device], r.loopTime)
		seg = (seg + 1) % len(r.attractive)
		for elapsed > r.segmentTime[seg] {
			elapsed -= r.segmentTime[seg]
			seg = (seg + 1) % len(r.attractive)
		}
		offset = float64(seg) * r.segmentLength
	}
	return sim.Location{
		ServingAP:      seg,
		Attractiveness: r.attractive[seg],
		X:              offset + r.speed(seg)*elapsed/3.6,
	}
}

// LoopTime returns the seconds needed to drive the whole road once.
func (r *Road) LoopTime() float64 { return r.loopTime }
