package sim

import "fmt"

// Orchestration policy names accepted in scenario files and on the CLI.
const (
	PolicyRandom           = "RANDOM"
	PolicyNetworkBased     = "NETWORK_BASED"
	PolicyUtilizationBased = "UTILIZATION_BASED"
	PolicyMobileUtil       = "MOBILE_UTIL_HEURISTIC"
	PolicyEdgeUtil         = "EDGE_UTIL_HEURISTIC"
	PolicyOnlyEdge         = "ONLY_EDGE"
	PolicyOnlyMobile       = "ONLY_MOBILE"
	PolicyOnlyCloud        = "ONLY_CLOUD"
	PolicyMAB              = "MAB"
	PolicyGameTheory       = "GAME_THEORY"
	PolicyPredictive       = "PREDICTIVE"
	PolicyAIBased          = "AI_BASED"
	PolicyAITrainer        = "AI_TRAINER"
)

// Worker selection names.
const (
	WorkerRoundRobin  = "ROUND_ROBIN"
	WorkerLeastLoaded = "LEAST_LOADED"
)

// ValidOrchestratorPolicies is the set of recognized orchestration policy names.
// Shared by Scenario.Validate() and orchestrator.NewPolicy() to avoid duplication.
var ValidOrchestratorPolicies = map[string]bool{
	PolicyRandom: true, PolicyNetworkBased: true, PolicyUtilizationBased: true,
	PolicyMobileUtil: true, PolicyEdgeUtil: true,
	PolicyOnlyEdge: true, PolicyOnlyMobile: true, PolicyOnlyCloud: true,
	PolicyMAB: true, PolicyGameTheory: true, PolicyPredictive: true,
	PolicyAIBased: true, PolicyAITrainer: true,
}

// localTierPolicies may route tasks to the device's own VM.
var localTierPolicies = map[string]bool{PolicyMobileUtil: true, PolicyEdgeUtil: true, PolicyOnlyMobile: true}

// ValidWorkerSelections is the set of recognized worker selection names.
var ValidWorkerSelections = map[string]bool{"": true, WorkerRoundRobin: true, WorkerLeastLoaded: true}

// UsesLocalTier reports whether the named policy can place tasks on the device VM.
func UsesLocalTier(policy string) bool {
	return localTierPolicies[policy]
}

// validatePolicies checks policy and worker-selection names.
func validatePolicies(policies []string, workerSelection string, mobileMips float64) error {
	if len(policies) == 0 {
		return &ConfigError{Component: "simulation", Msg: "at least one orchestrator policy is required"}
	}
	for _, p := range policies {
		if !ValidOrchestratorPolicies[p] {
			return &ConfigError{Component: "simulation", Msg: fmt.Sprintf("unknown orchestrator policy %q", p)}
		}
		if UsesLocalTier(p) && mobileMips <= 0 {
			return &ConfigError{Component: "simulation", Msg: fmt.Sprintf("policy %s needs mobile.vm_mips > 0", p)}
		}
	}
	if !ValidWorkerSelections[workerSelection] {
		return &ConfigError{Component: "simulation", Msg: fmt.Sprintf("unknown worker selection %q", workerSelection)}
	}
	return nil
}
