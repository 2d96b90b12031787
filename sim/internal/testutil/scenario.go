// Package testutil provides shared test fixtures for the sim sub-packages.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vecsim/vecsim/sim"
)

// Scenario returns a small, valid scenario: four access points, three
// applications ordered by task length, and a device VM for the local tier.
// Callers may mutate the returned value freely.
func Scenario() *sim.Scenario {
	return &sim.Scenario{
		Simulation: sim.SimulationConfig{
			Duration:              120,
			WarmUpPeriod:          15,
			ClientActivityStart:   10,
			MinDevices:            20,
			MaxDevices:            20,
			DeviceStep:            10,
			Policies:              []string{sim.PolicyRandom},
			WorkerSelection:       sim.WorkerRoundRobin,
			NetworkUpdateInterval: 0.5,
			StatsWindowInterval:   0.125,
			OffloadCountWindow:    1,
		},
		Network: sim.NetworkConfig{
			WLANBandwidth:       10000,
			MANBandwidth:        1000000,
			WANBandwidth:        20000,
			GSMBandwidth:        10000,
			WANPropagationDelay: 0.15,
			GSMPropagationDelay: 0.16,
			LANInternalDelay:    0.005,
			AccessShare:         sim.AccessShare{WLAN: 0.40, MAN: 0.35, WAN: 0.15, GSM: 0.10},
			MANControlRate:      10,
			MANControlSizeKB:    25,
			MaxFeasibleDelay:    7.5,
		},
		Mobility: sim.MobilityConfig{
			SegmentLength: 400,
			Speeds:        []float64{20, 40, 60},
		},
		Edge: sim.EdgeConfig{
			AccessPoints: []sim.AccessPoint{{Attractiveness: 0}, {Attractiveness: 1}, {Attractiveness: 2}, {Attractiveness: 0}},
			VMsPerHost:   2,
			VMMips:       10000,
		},
		Cloud:  sim.CloudConfig{Hosts: 1, VMsPerHost: 4, VMMips: 20000},
		Mobile: sim.MobileConfig{VMMips: 4000},
		Applications: []sim.Application{
			{Name: "TRAFFIC_MANAGEMENT", UsagePercent: 30, PoissonInterarrival: 3, ActivePeriod: 60, IdlePeriod: 0.1,
				InputSizeKB: 20, OutputSizeKB: 20, Length: 3000, Cores: 1,
				EdgeUtilization: 6, CloudUtilization: 1.2, MobileUtilization: 20, DelaySensitivity: 0.5, MaxDelay: 0.5},
			{Name: "DANGER_ASSESSMENT", UsagePercent: 35, PoissonInterarrival: 5, ActivePeriod: 60, IdlePeriod: 0.1,
				InputSizeKB: 40, OutputSizeKB: 20, Length: 10000, Cores: 1,
				EdgeUtilization: 20, CloudUtilization: 4, MobileUtilization: 60, DelaySensitivity: 0.8, MaxDelay: 1},
			{Name: "INFOTAINMENT", UsagePercent: 35, PoissonInterarrival: 15, ActivePeriod: 60, IdlePeriod: 0.1,
				InputSizeKB: 20, OutputSizeKB: 80, Length: 20000, Cores: 1,
				EdgeUtilization: 40, CloudUtilization: 8, MobileUtilization: 100, DelaySensitivity: 0.25, MaxDelay: 2},
		},
	}
}

// ValidScenario returns Scenario() after asserting it validates.
func ValidScenario(t *testing.T) *sim.Scenario {
	t.Helper()
	s := Scenario()
	require.NoError(t, s.Validate())
	return s
}
