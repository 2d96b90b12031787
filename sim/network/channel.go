// Package network estimates transfer delays with an adaptive M/M/1 queue per
// directional link (WLAN per access point, MAN, WAN, GSM).
package network

import (
	"fmt"
	"math"

	"github.com/vecsim/vecsim/sim"
)

// Channel is one directional link modelled as an M/M/1 queue.
// Its arrival rate (1/poissonMean) and mean payload are re-estimated once per
// window from the transfers recorded during that window.
//
// Thread-safety: NOT thread-safe. Owned by a single run.
type Channel struct {
	name          string
	bandwidthKbps float64
	maxDelay      float64

	poissonMean float64 // mean seconds between transfers
	meanSizeKB  float64

	// values that last produced a feasible delay; restored on an empty window
	lastPoissonMean float64
	lastMeanSizeKB  float64

	// accumulators for the next window
	numTasks    float64
	totalSizeKB float64

	peak float64
}

// NewChannel creates a channel seeded with an initial window.
// Returns a *sim.ConfigError when the seed already saturates the link
// (service rate not above arrival rate).
func NewChannel(name string, bandwidthKbps, poissonMean, meanSizeKB, maxDelay float64) (*Channel, error) {
	lambda := 1 / poissonMean
	mu := bandwidthKbps / (meanSizeKB * 8)
	if !(mu > lambda) {
		return nil, &sim.ConfigError{
			Component: "network",
			Msg: fmt.Sprintf("channel %s: service rate %.4f <= arrival rate %.4f; check bandwidth and load",
				name, mu, lambda),
		}
	}
	return &Channel{
		name:            name,
		bandwidthKbps:   bandwidthKbps,
		maxDelay:        maxDelay,
		poissonMean:     poissonMean,
		meanSizeKB:      meanSizeKB,
		lastPoissonMean: poissonMean,
		lastMeanSizeKB:  meanSizeKB,
	}, nil
}

// Name returns the channel label, e.g. "wlan-up[3]".
func (c *Channel) Name() string { return c.name }

// PoissonMean returns the current mean inter-arrival estimate in seconds.
func (c *Channel) PoissonMean() float64 { return c.poissonMean }

// MeanSizeKB returns the current mean payload estimate.
func (c *Channel) MeanSizeKB() float64 { return c.meanSizeKB }

// Peak returns the largest feasible delay computed on this channel.
func (c *Channel) Peak() float64 { return c.peak }

// mm1 returns 1/(mu-lambda) for the current window, or 0 when the result is
// outside (0, maxDelay], i.e. the channel is saturated.
func (c *Channel) mm1() float64 {
	lambda := 1 / c.poissonMean
	mu := c.bandwidthKbps / (c.meanSizeKB * 8)
	d := 1 / (mu - lambda)
	if math.IsNaN(d) || d > c.maxDelay || d < 0 {
		return 0
	}
	if d > c.peak {
		c.peak = d
	}
	return d
}

// Estimate returns the queueing delay for a transfer without recording it.
// The delay depends on the window estimates, not on sizeKB.
func (c *Channel) Estimate(sizeKB float64) float64 {
	return c.mm1()
}

// Get returns the queueing delay and records the payload toward the next window.
func (c *Channel) Get(sizeKB float64) float64 {
	c.numTasks++
	c.totalSizeKB += sizeKB
	return c.mm1()
}

// UpdateWindow re-derives the estimates from the samples recorded since the
// last call over interval seconds, plus optional synthetic background load.
// An empty window restores the last feasible estimates. After warm-up, a
// lighter new load estimate is blended 1:3 with the current one. If the
// resulting channel is feasible its estimates become the new fallback.
func (c *Channel) UpdateWindow(interval float64, postWarmUp bool, bgCount, bgSizeKB float64) {
	if c.numTasks == 0 {
		c.poissonMean = c.lastPoissonMean
		c.meanSizeKB = c.lastMeanSizeKB
	} else {
		poissonMean := interval / (c.numTasks + bgCount)
		meanSize := (c.totalSizeKB + bgSizeKB) / (c.numTasks + bgCount)
		if postWarmUp && poissonMean > c.poissonMean {
			poissonMean = (poissonMean + 3*c.poissonMean) / 4
		}
		c.poissonMean = poissonMean
		c.meanSizeKB = meanSize
	}
	c.numTasks = 0
	c.totalSizeKB = 0

	if c.Estimate(0) != 0 {
		c.lastPoissonMean = c.poissonMean
		c.lastMeanSizeKB = c.meanSizeKB
	}
}
