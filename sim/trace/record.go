// Package trace provides per-task decision and outcome recording for
// offloading policy analysis.
// This package has no dependencies on sim/: it stores plain data types.
package trace

// DecisionRecord captures a single orchestration decision.
type DecisionRecord struct {
	TaskID   int
	DeviceID int
	Clock    float64
	AP       int // serving access point at submission
	Tier     string
	WorkerID int // -1 when no worker was selected
	Reason   string
}

// OutcomeRecord captures how a task ended.
type OutcomeRecord struct {
	TaskID      int
	Clock       float64
	Tier        string
	Delivered   bool
	Failure     string  // failure reason and link; empty when delivered
	ServiceTime float64 // 0 for failed tasks
}
