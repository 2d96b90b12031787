// Package orchestrator decides where each task runs.
//
// An Orchestrator combines one Policy, chosen by name when the run is built,
// with a WorkerSelector that places the task on a VM of the chosen tier.
// Policies that learn from outcomes receive TaskCompleted and TaskFailed
// feedback from the lifecycle driver. Mobility failures never reach them.
//
// Policies:
//
//   - RANDOM, AI_TRAINER: fixed tier distributions
//   - NETWORK_BASED, UTILIZATION_BASED, MOBILE_UTIL_HEURISTIC,
//     EDGE_UTIL_HEURISTIC: single-metric thresholds
//   - ONLY_EDGE, ONLY_MOBILE, ONLY_CLOUD: fixed baselines
//   - MAB: UCB bandit over the three offload tiers
//   - GAME_THEORY: per-device equilibrium offload probability
//   - PREDICTIVE: rolling per-tier failure and service-time statistics
//   - AI_BASED: external classifier and regressor per tier
package orchestrator
