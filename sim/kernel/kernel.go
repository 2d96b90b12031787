// Package kernel adapts the github.com/iti/evt event manager to the
// sim.Scheduler contract used by every component of a run.
package kernel

import (
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"

	"github.com/vecsim/vecsim/sim"
)

// Kernel is a single-threaded discrete-event loop. One Kernel per run.
type Kernel struct {
	mgr *evtm.EventManager
}

// New creates a Kernel with its clock at zero.
func New() *Kernel {
	return &Kernel{mgr: evtm.New()}
}

// Now returns the current simulated time in seconds.
func (k *Kernel) Now() float64 {
	return k.mgr.CurrentSeconds()
}

// Schedule fires fn(payload) delaySeconds from now.
func (k *Kernel) Schedule(delaySeconds float64, fn sim.Callback, payload any) {
	if delaySeconds < 0 {
		delaySeconds = 0
	}
	k.mgr.Schedule(fn, payload, dispatch, vrtime.SecondsToTime(delaySeconds))
}

// Run processes events in time order until the queue drains or the clock passes limit.
func (k *Kernel) Run(limit float64) {
	k.mgr.Run(limit)
}

// dispatch is the evtm handler shared by all events; the callback travels as the event context.
func dispatch(_ *evtm.EventManager, context any, data any) any {
	context.(sim.Callback)(data)
	return nil
}
