package sim

import "fmt"

// Tier is a compute location category a task can be offloaded to.
type Tier int

const (
	// TierLocal runs the task on the owning device's own VM.
	TierLocal Tier = iota
	// TierEdge runs the task on a road-side edge server reached over WLAN (plus MAN when not co-located).
	TierEdge
	// TierCloudViaRSU reaches the cloud through the road-side unit: WLAN then WAN.
	TierCloudViaRSU
	// TierCloudViaGSM reaches the cloud directly over the cellular link.
	TierCloudViaGSM
)

// OffloadTiers is the arm order used by every policy that chooses among remote tiers.
var OffloadTiers = []Tier{TierEdge, TierCloudViaRSU, TierCloudViaGSM}

var tierNames = map[Tier]string{
	TierLocal:       "LOCAL",
	TierEdge:        "EDGE",
	TierCloudViaRSU: "CLOUD_VIA_RSU",
	TierCloudViaGSM: "CLOUD_VIA_GSM",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// IsCloud reports whether the tier executes on the cloud worker pool.
func (t Tier) IsCloud() bool {
	return t == TierCloudViaRSU || t == TierCloudViaGSM
}

// ParseTier maps a tier label back to its Tier.
func ParseTier(name string) (Tier, error) {
	for t, n := range tierNames {
		if n == name {
			return t, nil
		}
	}
	return 0, &ConfigError{Component: "tier", Msg: fmt.Sprintf("unknown tier %q", name)}
}

// Location is a device position as reported by the mobility model.
type Location struct {
	ServingAP      int     // index of the access point (coverage cell) serving the device
	Attractiveness int     // region class of the cell; drives vehicle speed
	X              float64 // position along the road in meters
	Y              float64
}

// TaskState is the lifecycle state of a task.
type TaskState int

const (
	StateCreated TaskState = iota
	StateUploadInFlight
	StateRelayUploadInFlight
	StateRemoteExecuting
	StateLocalExecuting
	StateDownloadInFlight
	StateRelayDownloadInFlight
	StateDelivered
	StateFailed
)

var stateNames = []string{
	"created", "upload", "relay-upload", "remote-executing", "local-executing",
	"download", "relay-download", "delivered", "failed",
}

func (s TaskState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("TaskState(%d)", int(s))
}

// Task is a unit of offloadable work.
// Sizes are in KB, length in million instructions (MI), times in simulated seconds.
type Task struct {
	ID           int
	DeviceID     int
	Class        int // index into Scenario.Applications
	Length       float64
	InputSizeKB  float64
	OutputSizeKB float64
	Cores        int
	CreatedAt    float64
	SubmittedAt  Location

	Tier     Tier
	WorkerID int // -1 until a worker has been assigned
	State    TaskState

	ExecStart   float64
	ExecFinish  float64
	NetworkTime float64 // accumulated transfer delay over all hops
}

// NewTask creates a task in StateCreated with no worker assigned.
func NewTask(id, deviceID, class int, length, inputKB, outputKB float64, cores int, createdAt float64) *Task {
	return &Task{
		ID:           id,
		DeviceID:     deviceID,
		Class:        class,
		Length:       length,
		InputSizeKB:  inputKB,
		OutputSizeKB: outputKB,
		Cores:        cores,
		CreatedAt:    createdAt,
		WorkerID:     -1,
		State:        StateCreated,
	}
}

// ProcessingTime is the execution span on the assigned worker, zero if it never ran.
func (t *Task) ProcessingTime() float64 {
	if t.ExecFinish <= t.ExecStart {
		return 0
	}
	return t.ExecFinish - t.ExecStart
}
