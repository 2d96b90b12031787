// Package infra models the compute side of a run: edge VMs at road-side
// access points, cloud VMs, and the on-board VM of each vehicle.
package infra

import (
	"fmt"

	"github.com/vecsim/vecsim/sim"
)

// Kind is the pool a worker belongs to.
type Kind int

const (
	KindEdge Kind = iota
	KindCloud
	KindMobile
)

func (k Kind) String() string {
	switch k {
	case KindEdge:
		return "edge"
	case KindCloud:
		return "cloud"
	case KindMobile:
		return "mobile"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Worker is a VM. Utilization is the sum of the CPU shares (percent) of the
// tasks currently running on it.
type Worker struct {
	ID     int
	Kind   Kind
	HostID int
	AP     int // access point of an edge host; -1 for cloud and mobile
	Owner  int // owning device of a mobile VM; -1 otherwise
	MIPS   float64

	utilization float64
	running     int
}

// Utilization returns the current CPU utilization in percent.
func (w *Worker) Utilization() float64 { return w.utilization }

// Residual returns the unused CPU share in percent.
func (w *Worker) Residual() float64 { return 100 - w.utilization }

// Running returns the number of tasks executing on the worker.
func (w *Worker) Running() int { return w.running }

// Admit reserves required percent of CPU. Returns false if it does not fit.
func (w *Worker) Admit(required float64) bool {
	if required > w.Residual() {
		return false
	}
	w.utilization += required
	w.running++
	return true
}

// Release returns a finished task's CPU share.
func (w *Worker) Release(required float64) {
	w.utilization -= required
	if w.utilization < 0 {
		w.utilization = 0
	}
	w.running--
}

// ProcessingTime returns the execution time of length MI on this worker.
func (w *Worker) ProcessingTime(length float64) float64 {
	return length / w.MIPS
}

// Topology holds every worker of a run.
type Topology struct {
	Edge   []*Worker // host-major: all VMs of AP 0, then AP 1, ...
	Cloud  []*Worker
	Mobile []*Worker // indexed by device; empty when the local tier is disabled
	byID   []*Worker
}

// NewTopology builds one edge host per access point, the cloud hosts, and one
// device VM per vehicle when mobile.vm_mips > 0.
func NewTopology(s *sim.Scenario, devices int) *Topology {
	t := &Topology{}
	add := func(w *Worker) *Worker {
		w.ID = len(t.byID)
		t.byID = append(t.byID, w)
		return w
	}
	for ap := range s.Edge.AccessPoints {
		for v := 0; v < s.Edge.VMsPerHost; v++ {
			t.Edge = append(t.Edge, add(&Worker{Kind: KindEdge, HostID: ap, AP: ap, Owner: -1, MIPS: s.Edge.VMMips}))
		}
	}
	for h := 0; h < s.Cloud.Hosts; h++ {
		hostID := len(s.Edge.AccessPoints) + h
		for v := 0; v < s.Cloud.VMsPerHost; v++ {
			t.Cloud = append(t.Cloud, add(&Worker{Kind: KindCloud, HostID: hostID, AP: -1, Owner: -1, MIPS: s.Cloud.VMMips}))
		}
	}
	if s.Mobile.VMMips > 0 {
		for d := 0; d < devices; d++ {
			t.Mobile = append(t.Mobile, add(&Worker{Kind: KindMobile, HostID: -1, AP: -1, Owner: d, MIPS: s.Mobile.VMMips}))
		}
	}
	return t
}

// Pool returns the shared worker pool serving a remote tier.
func (t *Topology) Pool(tier sim.Tier) ([]*Worker, error) {
	switch tier {
	case sim.TierEdge:
		return t.Edge, nil
	case sim.TierCloudViaRSU, sim.TierCloudViaGSM:
		return t.Cloud, nil
	}
	return nil, &sim.ConfigError{Component: "infra", Msg: fmt.Sprintf("tier %v has no shared worker pool", tier)}
}

// MobileVM returns a device's own VM, or nil when the local tier is disabled.
func (t *Topology) MobileVM(device int) *Worker {
	if device < 0 || device >= len(t.Mobile) {
		return nil
	}
	return t.Mobile[device]
}

// Worker looks a worker up by ID.
func (t *Topology) Worker(id int) (*Worker, error) {
	if id < 0 || id >= len(t.byID) {
		return nil, &sim.ConfigError{Component: "infra", Msg: fmt.Sprintf("unknown worker %d", id)}
	}
	return t.byID[id], nil
}

// AvgEdgeUtilization is the mean utilization over all edge VMs.
func (t *Topology) AvgEdgeUtilization() float64 { return avgUtilization(t.Edge) }

// AvgCloudUtilization is the mean utilization over all cloud VMs.
func (t *Topology) AvgCloudUtilization() float64 { return avgUtilization(t.Cloud) }

// EdgeHostUtilization is the mean utilization of the VMs at one access point.
func (t *Topology) EdgeHostUtilization(ap int) float64 {
	var vms []*Worker
	for _, w := range t.Edge {
		if w.AP == ap {
			vms = append(vms, w)
		}
	}
	return avgUtilization(vms)
}

func avgUtilization(ws []*Worker) float64 {
	if len(ws) == 0 {
		return 0
	}
	total := 0.0
	for _, w := range ws {
		total += w.utilization
	}
	return total / float64(len(ws))
}
