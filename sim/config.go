package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is the full YAML scenario: simulation sweep, network, topology
// and the application (task class) table.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	Simulation   SimulationConfig `yaml:"simulation"`
	Network      NetworkConfig    `yaml:"network"`
	Mobility     MobilityConfig   `yaml:"mobility"`
	Edge         EdgeConfig       `yaml:"edge"`
	Cloud        CloudConfig      `yaml:"cloud"`
	Mobile       MobileConfig     `yaml:"mobile"`
	Applications []Application    `yaml:"applications"`
	Predictor    string           `yaml:"predictor"` // model coefficients file for AI_BASED
}

// SimulationConfig groups run-control parameters. Times are simulated seconds.
type SimulationConfig struct {
	Duration              float64  `yaml:"duration"`
	WarmUpPeriod          float64  `yaml:"warm_up_period"`
	ClientActivityStart   float64  `yaml:"client_activity_start"`
	MinDevices            int      `yaml:"min_devices"`
	MaxDevices            int      `yaml:"max_devices"`
	DeviceStep            int      `yaml:"device_step"`
	Policies              []string `yaml:"policies"`
	WorkerSelection       string   `yaml:"worker_selection"`
	NetworkUpdateInterval float64  `yaml:"network_update_interval"`
	StatsWindowInterval   float64  `yaml:"stats_window_interval"`
	OffloadCountWindow    float64  `yaml:"offload_count_window"`
	DelayLogInterval      float64  `yaml:"delay_log_interval"` // 0 disables the AP delay log
	DelayLogAPs           []int    `yaml:"delay_log_aps"`
}

// NetworkConfig groups link parameters. Bandwidths are Kbps, delays seconds.
type NetworkConfig struct {
	WLANBandwidth       float64     `yaml:"wlan_bandwidth"`
	MANBandwidth        float64     `yaml:"man_bandwidth"`
	WANBandwidth        float64     `yaml:"wan_bandwidth"`
	GSMBandwidth        float64     `yaml:"gsm_bandwidth"`
	WANPropagationDelay float64     `yaml:"wan_propagation_delay"`
	GSMPropagationDelay float64     `yaml:"gsm_propagation_delay"`
	LANInternalDelay    float64     `yaml:"lan_internal_delay"`
	AccessShare         AccessShare `yaml:"access_share"`
	MANControlRate      float64     `yaml:"man_control_rate"`    // control messages per second per device
	MANControlSizeKB    float64     `yaml:"man_control_size_kb"` // control payload per device per window
	MaxFeasibleDelay    float64     `yaml:"max_feasible_delay"`  // M/M/1 results above this are infeasible
}

// AccessShare is the expected fraction of traffic per access technology,
// used only to seed the first estimation window.
type AccessShare struct {
	WLAN float64 `yaml:"wlan"`
	MAN  float64 `yaml:"man"`
	WAN  float64 `yaml:"wan"`
	GSM  float64 `yaml:"gsm"`
}

// MobilityConfig describes the looping road.
type MobilityConfig struct {
	SegmentLength float64   `yaml:"segment_length"` // meters covered by one access point
	Speeds        []float64 `yaml:"speeds"`         // km/h, indexed by attractiveness class
}

// EdgeConfig describes road-side edge servers, one host per access point.
type EdgeConfig struct {
	AccessPoints []AccessPoint `yaml:"access_points"`
	VMsPerHost   int           `yaml:"vms_per_host"`
	VMMips       float64       `yaml:"vm_mips"`
}

// AccessPoint is one road-side unit with its co-located edge host.
type AccessPoint struct {
	Attractiveness int `yaml:"attractiveness"`
}

// CloudConfig describes the cloud datacenter.
type CloudConfig struct {
	Hosts      int     `yaml:"hosts"`
	VMsPerHost int     `yaml:"vms_per_host"`
	VMMips     float64 `yaml:"vm_mips"`
}

// MobileConfig describes the on-board VM of every device. VMMips 0 disables the local tier.
type MobileConfig struct {
	VMMips float64 `yaml:"vm_mips"`
}

// Application is one task class of the workload.
type Application struct {
	Name                string  `yaml:"name"`
	UsagePercent        float64 `yaml:"usage_percent"`
	PoissonInterarrival float64 `yaml:"poisson_interarrival"` // mean seconds between tasks while active
	ActivePeriod        float64 `yaml:"active_period"`
	IdlePeriod          float64 `yaml:"idle_period"`
	InputSizeKB         float64 `yaml:"input_size"`
	OutputSizeKB        float64 `yaml:"output_size"`
	Length              float64 `yaml:"length"` // MI
	Cores               int     `yaml:"cores"`
	EdgeUtilization     float64 `yaml:"edge_utilization"`   // % of an edge VM one task occupies
	CloudUtilization    float64 `yaml:"cloud_utilization"`  // % of a cloud VM
	MobileUtilization   float64 `yaml:"mobile_utilization"` // % of the device VM
	DelaySensitivity    float64 `yaml:"delay_sensitivity"`
	MaxDelay            float64 `yaml:"max_delay"`
}

// RequiredUtilization returns the CPU share a task of this class occupies on a tier's VM.
func (a Application) RequiredUtilization(t Tier) (float64, error) {
	switch t {
	case TierLocal:
		return a.MobileUtilization, nil
	case TierEdge:
		return a.EdgeUtilization, nil
	case TierCloudViaRSU, TierCloudViaGSM:
		return a.CloudUtilization, nil
	}
	return 0, &ConfigError{Component: "application", Msg: fmt.Sprintf("unknown tier %v", t)}
}

// LoadScenario reads and strictly parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario strictly parses scenario YAML (unknown keys are errors) and validates it.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// NumAccessPoints returns the number of road-side access points (and edge hosts).
func (s *Scenario) NumAccessPoints() int {
	return len(s.Edge.AccessPoints)
}

// DeviceCounts expands the device sweep min..max by step.
func (s *Scenario) DeviceCounts() []int {
	step := s.Simulation.DeviceStep
	if step <= 0 {
		step = 1
	}
	var counts []int
	for n := s.Simulation.MinDevices; n <= s.Simulation.MaxDevices; n += step {
		counts = append(counts, n)
	}
	return counts
}

// TaskLengthBounds returns the lengths of the first and last application,
// which bound task-length normalization in the bandit.
func (s *Scenario) TaskLengthBounds() (shortest, longest float64) {
	return s.Applications[0].Length, s.Applications[len(s.Applications)-1].Length
}

func configErr(component, format string, args ...any) error {
	return &ConfigError{Component: component, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks that all names and parameter ranges in the scenario are valid.
func (s *Scenario) Validate() error {
	sc := s.Simulation
	if sc.Duration <= 0 {
		return configErr("simulation", "duration must be positive, got %v", sc.Duration)
	}
	if sc.WarmUpPeriod < 0 || sc.WarmUpPeriod >= sc.Duration {
		return configErr("simulation", "warm_up_period must be in [0, duration), got %v", sc.WarmUpPeriod)
	}
	if sc.ClientActivityStart < 0 {
		return configErr("simulation", "client_activity_start must be non-negative, got %v", sc.ClientActivityStart)
	}
	if sc.MinDevices <= 0 || sc.MaxDevices < sc.MinDevices {
		return configErr("simulation", "device range [%d, %d] is invalid", sc.MinDevices, sc.MaxDevices)
	}
	if sc.NetworkUpdateInterval <= 0 || sc.StatsWindowInterval <= 0 || sc.OffloadCountWindow <= 0 {
		return configErr("simulation", "update intervals must be positive")
	}
	if sc.DelayLogInterval < 0 {
		return configErr("simulation", "delay_log_interval must be non-negative, got %v", sc.DelayLogInterval)
	}
	if err := validatePolicies(sc.Policies, sc.WorkerSelection, s.Mobile.VMMips); err != nil {
		return err
	}

	n := s.Network
	for name, bw := range map[string]float64{"wlan": n.WLANBandwidth, "man": n.MANBandwidth, "wan": n.WANBandwidth, "gsm": n.GSMBandwidth} {
		if bw <= 0 {
			return configErr("network", "%s_bandwidth must be positive, got %v", name, bw)
		}
	}
	if n.WANPropagationDelay < 0 || n.GSMPropagationDelay < 0 || n.LANInternalDelay < 0 {
		return configErr("network", "propagation delays must be non-negative")
	}
	if n.MaxFeasibleDelay <= 0 {
		return configErr("network", "max_feasible_delay must be positive, got %v", n.MaxFeasibleDelay)
	}
	share := n.AccessShare
	if share.WLAN <= 0 || share.MAN <= 0 || share.WAN <= 0 || share.GSM <= 0 {
		return configErr("network", "access_share entries must be positive")
	}

	if len(s.Edge.AccessPoints) == 0 || s.Edge.VMsPerHost <= 0 || s.Edge.VMMips <= 0 {
		return configErr("edge", "at least one access point with positive vms_per_host and vm_mips is required")
	}
	if s.Cloud.Hosts <= 0 || s.Cloud.VMsPerHost <= 0 || s.Cloud.VMMips <= 0 {
		return configErr("cloud", "hosts, vms_per_host and vm_mips must be positive")
	}
	if s.Mobile.VMMips < 0 {
		return configErr("mobile", "vm_mips must be non-negative, got %v", s.Mobile.VMMips)
	}
	if s.Mobility.SegmentLength <= 0 || len(s.Mobility.Speeds) == 0 {
		return configErr("mobility", "segment_length and speeds are required")
	}
	for i, ap := range s.Edge.AccessPoints {
		if ap.Attractiveness < 0 || ap.Attractiveness >= len(s.Mobility.Speeds) {
			return configErr("edge", "access point %d has attractiveness %d with no speed", i, ap.Attractiveness)
		}
	}
	for i, v := range s.Mobility.Speeds {
		if v <= 0 {
			return configErr("mobility", "speed %d must be positive, got %v", i, v)
		}
	}
	for _, ap := range sc.DelayLogAPs {
		if ap < 0 || ap >= len(s.Edge.AccessPoints) {
			return configErr("simulation", "delay_log_aps entry %d out of range", ap)
		}
	}

	if len(s.Applications) == 0 {
		return configErr("applications", "at least one application is required")
	}
	totalUsage := 0.0
	for _, app := range s.Applications {
		if app.UsagePercent <= 0 || app.UsagePercent > 100 {
			return configErr("applications", "%s: usage_percent must be in (0, 100], got %v", app.Name, app.UsagePercent)
		}
		if app.PoissonInterarrival <= 0 || app.ActivePeriod <= 0 || app.IdlePeriod < 0 {
			return configErr("applications", "%s: arrival parameters must be positive", app.Name)
		}
		if app.InputSizeKB <= 0 || app.OutputSizeKB <= 0 || app.Length <= 0 || app.Cores <= 0 {
			return configErr("applications", "%s: sizes, length and cores must be positive", app.Name)
		}
		if app.MaxDelay <= 0 || app.DelaySensitivity < 0 || app.DelaySensitivity > 1 {
			return configErr("applications", "%s: max_delay must be positive and delay_sensitivity in [0, 1]", app.Name)
		}
		for _, u := range []float64{app.EdgeUtilization, app.CloudUtilization, app.MobileUtilization} {
			if u < 0 || u > 100 {
				return configErr("applications", "%s: utilizations must be in [0, 100]", app.Name)
			}
		}
		totalUsage += app.UsagePercent
	}
	if totalUsage > 100.0001 {
		return configErr("applications", "usage percentages sum to %v > 100", totalUsage)
	}
	if shortest, longest := s.TaskLengthBounds(); longest <= shortest {
		return configErr("applications", "applications must be ordered by increasing length (first %v, last %v)", shortest, longest)
	}
	return nil
}
