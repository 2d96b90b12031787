package cmd

import (
	_ "embed"

	"github.com/vecsim/vecsim/sim"
)

//go:embed default_scenario.yaml
var defaultScenarioYAML []byte

// loadScenario reads the scenario at path, or the built-in scenario when path is empty.
// Parsing is strict: unknown keys are errors.
func loadScenario(path string) (*sim.Scenario, error) {
	if path == "" {
		return sim.ParseScenario(defaultScenarioYAML)
	}
	return sim.LoadScenario(path)
}
