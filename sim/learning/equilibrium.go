package learning

import (
	"math"
)

const (
	// PricingFactor weighs delay against offloading cost in the best response.
	PricingFactor = 0.6

	initialOffloadProbability = 0.33
	initialArrivalRate        = 0.5
	minProbability            = 0.01
	maxProbability            = 0.99
)

// Equilibrium computes per-device offload probabilities as a best response to
// every other device's latest probability and normalized arrival rate.
//
// Order dependence: a call for device i reads the values most recently stored
// for all j != i and then overwrites entry i. Results therefore depend on the
// order in which devices decide (Gauss-Seidel iteration). Repeated decisions
// drift toward the equilibrium; no single call solves it simultaneously.
//
// Thread-safety: NOT thread-safe. One Equilibrium per run, shared by all
// devices of that run.
type Equilibrium struct {
	p          []float64 // offload probability per device
	lambda     []float64 // normalized arrival rate per device
	minArrival float64
	maxArrival float64
}

// NewEquilibrium creates state for numDevices devices. Arrival rates are
// normalized against [minArrival, maxArrival].
func NewEquilibrium(numDevices int, minArrival, maxArrival float64) *Equilibrium {
	e := &Equilibrium{
		p:          make([]float64, numDevices),
		lambda:     make([]float64, numDevices),
		minArrival: minArrival,
		maxArrival: maxArrival,
	}
	for i := range e.p {
		e.p[i] = initialOffloadProbability
		e.lambda[i] = initialArrivalRate
	}
	return e
}

// OffloadProbability updates and returns device's probability of choosing
// the cloud alternative, always within [0.01, 0.99]:
//
//	p = (edgeDelay - cloudDelay) / (2 * PricingFactor * maxDelay * (1 - prod_{j!=i}(1 - lambda[j]*p[j])))
func (e *Equilibrium) OffloadProbability(device int, taskArrivalRate, edgeDelay, cloudDelay, maxDelay float64) float64 {
	others := e.othersFactor(device)
	p := (edgeDelay - cloudDelay) / (2 * PricingFactor * maxDelay * (1 - others))
	switch {
	case math.IsNaN(p), p <= 0:
		p = minProbability
	case p >= 1:
		p = maxProbability
	}
	e.p[device] = p
	e.lambda[device] = e.normalize(taskArrivalRate)
	return p
}

// Probability returns the stored probability of a device.
func (e *Equilibrium) Probability(device int) float64 { return e.p[device] }

// ArrivalRate returns the stored normalized arrival rate of a device.
func (e *Equilibrium) ArrivalRate(device int) float64 { return e.lambda[device] }

func (e *Equilibrium) othersFactor(excluded int) float64 {
	product := 1.0
	for j := range e.p {
		if j == excluded {
			continue
		}
		product *= 1 - e.lambda[j]*e.p[j]
	}
	if math.IsInf(product, 1) {
		return 0.99
	}
	if math.IsInf(product, -1) {
		return 0.01
	}
	return product
}

func (e *Equilibrium) normalize(rate float64) float64 {
	r := (rate - e.minArrival) / (e.maxArrival - e.minArrival)
	return math.Max(math.Min(r, 1), 0)
}
