// Package predictor implements the learned-model collaborator of the
// AI_BASED policy: per offload tier, a logistic classifier predicting task
// success and a linear regressor predicting service time, both over z-score
// normalized features.
package predictor

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/vecsim/vecsim/sim"
)

//go:embed default_model.yaml
var defaultModel []byte

// Feature counts per tier, in the order the orchestrator builds them.
const (
	edgeClassifierFeatures  = 5 // offloaded, length, wlan up, wlan down, avg edge util
	edgeRegressorFeatures   = 2 // length, avg edge util
	cloudClassifierFeatures = 3 // offloaded, up, down
	cloudRegressorFeatures  = 3 // length, up, down
)

// Linear is w·z + b over z = (x - mean) / stddev.
type Linear struct {
	Means   []float64 `yaml:"means"`
	StdDevs []float64 `yaml:"stddevs"`
	Weights []float64 `yaml:"weights"`
	Bias    float64   `yaml:"bias"`
}

// Score evaluates the linear form for x.
func (l Linear) Score(x []float64) (float64, error) {
	if len(x) != len(l.Weights) {
		return 0, &sim.ConfigError{Component: "predictor", Msg: fmt.Sprintf("got %d features, model has %d", len(x), len(l.Weights))}
	}
	z := make([]float64, len(x))
	for i, v := range x {
		z[i] = (v - l.Means[i]) / l.StdDevs[i]
	}
	return floats.Dot(l.Weights, z) + l.Bias, nil
}

func (l Linear) validate(name string, n int) error {
	if len(l.Means) != n || len(l.StdDevs) != n || len(l.Weights) != n {
		return &sim.ConfigError{Component: "predictor", Msg: fmt.Sprintf("%s needs %d means, stddevs and weights", name, n)}
	}
	for i, s := range l.StdDevs {
		if s <= 0 {
			return &sim.ConfigError{Component: "predictor", Msg: fmt.Sprintf("%s stddev %d must be positive, got %v", name, i, s)}
		}
	}
	return nil
}

// TierModel pairs the classifier and regressor of one tier.
type TierModel struct {
	Classifier Linear `yaml:"classifier"`
	Regressor  Linear `yaml:"regressor"`
}

// Model holds the per-tier models. It satisfies orchestrator.Predictor.
type Model struct {
	Edge        TierModel `yaml:"edge"`
	CloudViaRSU TierModel `yaml:"cloud_via_rsu"`
	CloudViaGSM TierModel `yaml:"cloud_via_gsm"`
}

// Default returns the built-in model.
func Default() *Model {
	m, err := Parse(defaultModel)
	if err != nil {
		panic(fmt.Sprintf("built-in predictor model is invalid: %v", err))
	}
	return m
}

// Load reads a model file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading predictor model: %w", err)
	}
	return Parse(data)
}

// Parse strictly decodes and validates model YAML.
func Parse(data []byte) (*Model, error) {
	var m Model
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing predictor model: %w", err)
	}
	checks := []struct {
		name string
		l    Linear
		n    int
	}{
		{"edge classifier", m.Edge.Classifier, edgeClassifierFeatures},
		{"edge regressor", m.Edge.Regressor, edgeRegressorFeatures},
		{"cloud_via_rsu classifier", m.CloudViaRSU.Classifier, cloudClassifierFeatures},
		{"cloud_via_rsu regressor", m.CloudViaRSU.Regressor, cloudRegressorFeatures},
		{"cloud_via_gsm classifier", m.CloudViaGSM.Classifier, cloudClassifierFeatures},
		{"cloud_via_gsm regressor", m.CloudViaGSM.Regressor, cloudRegressorFeatures},
	}
	for _, c := range checks {
		if err := c.l.validate(c.name, c.n); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func (m *Model) tier(t sim.Tier) (*TierModel, error) {
	switch t {
	case sim.TierEdge:
		return &m.Edge, nil
	case sim.TierCloudViaRSU:
		return &m.CloudViaRSU, nil
	case sim.TierCloudViaGSM:
		return &m.CloudViaGSM, nil
	}
	return nil, &sim.ConfigError{Component: "predictor", Msg: fmt.Sprintf("no model for tier %v", t)}
}

// Classify predicts success when the logistic of the classifier score is at least 0.5.
func (m *Model) Classify(t sim.Tier, features []float64) (bool, error) {
	tm, err := m.tier(t)
	if err != nil {
		return false, err
	}
	s, err := tm.Classifier.Score(features)
	if err != nil {
		return false, err
	}
	return 1/(1+math.Exp(-s)) >= 0.5, nil
}

// Regress predicts a service time in seconds, floored at zero.
func (m *Model) Regress(t sim.Tier, features []float64) (float64, error) {
	tm, err := m.tier(t)
	if err != nil {
		return 0, err
	}
	s, err := tm.Regressor.Score(features)
	if err != nil {
		return 0, err
	}
	return math.Max(s, 0), nil
}
