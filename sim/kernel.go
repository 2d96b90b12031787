package sim

// Callback is invoked by the Scheduler when a scheduled event fires.
type Callback func(payload any)

// Clock reads the simulated clock in seconds.
type Clock interface {
	Now() float64
}

// Scheduler schedules a callback delaySeconds after the current simulated time.
// Events at equal times fire in scheduling order.
type Scheduler interface {
	Clock
	Schedule(delaySeconds float64, fn Callback, payload any)
}

// Mobility returns where a device is at a given simulated time.
// LocationOf must be a pure function of (deviceID, at) so that callers can
// probe future positions.
type Mobility interface {
	LocationOf(deviceID int, at float64) Location
}

// Every schedules fn every interval seconds, first at start seconds from now,
// until fn returns false.
func Every(s Scheduler, start, interval float64, fn func() bool) {
	var tick Callback
	tick = func(any) {
		if !fn() {
			return
		}
		s.Schedule(interval, tick, nil)
	}
	s.Schedule(start, tick, nil)
}
