// Package sim provides the shared domain model for the vehicular edge-computing
// offloading simulator.
//
// # Reading Guide
//
// Start with these files to understand the core types:
//   - task.go: Task, Tier and Location, plus the task lifecycle states
//   - errors.go: fatal ConfigError / InvariantError versus per-task Failure
//   - kernel.go: the Clock, Scheduler and Mobility contracts every component consumes
//   - config.go: the YAML scenario (network, topology, application table)
//
// # Architecture
//
// The sim package defines types and interfaces only; behaviour lives in
// sub-packages:
//   - sim/kernel/: event kernel adapter over github.com/iti/evt
//   - sim/network/: adaptive M/M/1 delay estimation per channel
//   - sim/learning/: UCB bandit and Nash-equilibrium offload probabilities
//   - sim/orchestrator/: per-task tier decision and worker selection
//   - sim/lifecycle/: upload, execution, relay and download event chain
//   - sim/infra/, sim/mobility/, sim/workload/: topology, roads, load generation
//   - sim/scenario/: one isolated run (kernel, models, policies, metrics)
//   - sim/store/: persisted run summaries
//   - sim/trace/: decision trace recording
//
// Every run owns its own instances of all of the above. Nothing in these
// packages is process-global, so runs may execute on separate goroutines.
package sim
