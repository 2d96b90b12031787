package orchestrator

import (
	"io"
	"math/rand"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/infra"
	"github.com/vecsim/vecsim/sim/network"
)

// Context is everything a policy may read while deciding. One Context is
// built per run and never shared between runs.
type Context struct {
	Scenario *sim.Scenario
	Devices  int
	Clock    sim.Clock
	Network  *network.Model
	Topology *infra.Topology
	Rng      *rand.Rand

	// Predictor serves AI_BASED. Required for that policy only.
	Predictor Predictor
	// Dataset receives AI_TRAINER rows. Required for that policy only.
	Dataset io.Writer
}

// app returns the application profile of a task's class.
func (c *Context) app(t *sim.Task) sim.Application {
	return c.Scenario.Applications[t.Class]
}

// Delay sentinels replace "infeasible" (zero) estimates in learned and
// model-based policies so that a zero is never read as an instant transfer.
const (
	MaxWLANDelay = 9.0
	MaxWANDelay  = 7.0
	MaxGSMDelay  = 8.0
)

// linkDelays is one snapshot of the upload and download estimates of a task
// over every access link.
type linkDelays struct {
	wlanUp, wlanDown float64
	wanUp, wanDown   float64
	gsmUp, gsmDown   float64
}

func (c *Context) estimateDelays(t *sim.Task) linkDelays {
	n := c.Network
	return linkDelays{
		wlanUp:   n.EstimateUpload(sim.LinkWLAN, t),
		wlanDown: n.EstimateDownload(sim.LinkWLAN, t),
		wanUp:    n.EstimateUpload(sim.LinkWAN, t),
		wanDown:  n.EstimateDownload(sim.LinkWAN, t),
		gsmUp:    n.EstimateUpload(sim.LinkGSM, t),
		gsmDown:  n.EstimateDownload(sim.LinkGSM, t),
	}
}

// withSentinels returns d with every zero estimate replaced by its link's sentinel.
func (d linkDelays) withSentinels() linkDelays {
	sub := func(v, sentinel float64) float64 {
		if v == 0 {
			return sentinel
		}
		return v
	}
	return linkDelays{
		wlanUp:   sub(d.wlanUp, MaxWLANDelay),
		wlanDown: sub(d.wlanDown, MaxWLANDelay),
		wanUp:    sub(d.wanUp, MaxWANDelay),
		wanDown:  sub(d.wanDown, MaxWANDelay),
		gsmUp:    sub(d.gsmUp, MaxGSMDelay),
		gsmDown:  sub(d.gsmDown, MaxGSMDelay),
	}
}

// expectedProcessing approximates execution time of length MI on a VM of
// the given MIPS under utilization util (percent), inflating by
// 100/(100-util). Utilization is capped at 99 to keep the factor finite.
func expectedProcessing(length, mips, util float64) float64 {
	util = min(util, 99)
	return length / mips * 100 / (100 - util)
}
