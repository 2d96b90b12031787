// Package learning holds the online learners used by orchestration policies:
// an Upper-Confidence-Bound bandit over offload tiers and a per-device
// Nash-equilibrium offload probability solver.
package learning

import (
	"fmt"
	"math"

	"github.com/vecsim/vecsim/sim"
)

// Beta is the confidence coefficient of the UCB exploration term.
const Beta = 1.0

// failureServiceTimes substitutes a penalty service time for a failed task, by task class.
var failureServiceTimes = []float64{1.25, 2, 2.75}

// Bandit is a cost-minimizing UCB learner over a fixed set of arms.
// Utilities are running means of service time per MI: lower is better.
//
// Thread-safety: NOT thread-safe. Owned by a single orchestrator.
type Bandit struct {
	k           []int     // pull count per arm
	u           []float64 // running mean of serviceTime/taskLength per arm
	t           int       // round counter, starts at 1
	minLength   float64
	maxLength   float64
	initialized bool
}

// NewBandit creates an uninitialized bandit over numArms arms. Task lengths
// are normalized into [0,1] against [minLength, maxLength].
func NewBandit(numArms int, minLength, maxLength float64) *Bandit {
	return &Bandit{
		k:         make([]int, numArms),
		u:         make([]float64, numArms),
		t:         1,
		minLength: minLength,
		maxLength: maxLength,
	}
}

// Initialized reports whether the warm start has run.
func (b *Bandit) Initialized() bool { return b.initialized }

// Initialize performs the one-time warm start: each arm gets one virtual pull
// with utility expectedDelays[i]/taskLength.
func (b *Bandit) Initialize(expectedDelays []float64, taskLength float64) {
	for i := range b.k {
		b.k[i] = 1
		b.u[i] = expectedDelays[i] / taskLength
	}
	b.initialized = true
}

// SelectArm returns the arm minimizing U[i] - sqrt(Beta*(1-norm(len))*ln(t)/K[i]).
// Ties go to the lowest index.
func (b *Bandit) SelectArm(taskLength float64) int {
	best := 0
	bestScore := math.MaxFloat64
	confidence := Beta * (1 - b.normalize(taskLength)) * math.Log(float64(b.t))
	for i := range b.k {
		score := b.u[i] - math.Sqrt(confidence/float64(b.k[i]))
		if score < bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

// Update folds an observed service time into the arm's utility. A zero
// service time (failure) is replaced by the class penalty.
//
// The new mean is computed with the pre-increment pull count, then the pull
// count and the round counter are incremented, in that order.
func (b *Bandit) Update(arm int, serviceTime, taskLength float64, class int) error {
	if arm < 0 || arm >= len(b.k) {
		return &sim.ConfigError{Component: "bandit", Msg: fmt.Sprintf("unknown arm %d", arm)}
	}
	if serviceTime == 0 {
		serviceTime = failureServiceTimes[min(max(class, 0), len(failureServiceTimes)-1)]
	}
	b.u[arm] = (b.u[arm]*float64(b.k[arm]) + serviceTime/taskLength) / float64(b.k[arm])
	b.k[arm]++
	if math.IsInf(b.u[arm], 1) {
		return &sim.InvariantError{Component: "bandit", Msg: fmt.Sprintf("utility of arm %d reached +Inf", arm)}
	}
	b.t++
	return nil
}

// Pulls returns the pull count of an arm.
func (b *Bandit) Pulls(arm int) int { return b.k[arm] }

// Utility returns the current utility of an arm.
func (b *Bandit) Utility(arm int) float64 { return b.u[arm] }

// Round returns the global round counter.
func (b *Bandit) Round() int { return b.t }

func (b *Bandit) normalize(taskLength float64) float64 {
	r := (taskLength - b.minLength) / (b.maxLength - b.minLength)
	return math.Max(math.Min(r, 1), 0)
}
