package network

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vecsim/vecsim/sim"
)

// Direction distinguishes the upload and download channel of a link.
type Direction int

const (
	Upload Direction = iota
	Download
)

func (d Direction) String() string {
	if d == Upload {
		return "up"
	}
	return "down"
}

// Model holds every channel of one run: a WLAN pair per access point plus one
// pair each for MAN, WAN and GSM.
//
// Thread-safety: NOT thread-safe. Owned by a single run.
type Model struct {
	cfg        sim.NetworkConfig
	devices    int
	warmUp     float64
	lastUpdate float64

	wlan [2][]*Channel // indexed by Direction, then access point
	man  [2]*Channel
	wan  [2]*Channel
	gsm  [2]*Channel
}

// NewModel seeds every channel from the application table: usage-weighted
// task rate and payload sizes, scaled by the device count and the expected
// share of each access technology.
func NewModel(s *sim.Scenario, devices int) (*Model, error) {
	n := s.Network
	numAPs := s.NumAccessPoints()

	var taskRate, inputKB, outputKB float64
	for _, app := range s.Applications {
		w := app.UsagePercent / 100
		taskRate += w / app.PoissonInterarrival
		inputKB += w * app.InputSizeKB
		outputKB += w * app.OutputSizeKB
	}

	m := &Model{
		cfg:        n,
		devices:    devices,
		warmUp:     s.Simulation.WarmUpPeriod,
		lastUpdate: s.Simulation.ClientActivityStart,
	}

	pair := func(label string, bw, poisson float64) ([2]*Channel, error) {
		var p [2]*Channel
		var err error
		if p[Upload], err = NewChannel(label+"-up", bw, poisson, inputKB, n.MaxFeasibleDelay); err != nil {
			return p, err
		}
		p[Download], err = NewChannel(label+"-down", bw, poisson, outputKB, n.MaxFeasibleDelay)
		return p, err
	}

	devicesPerAP := float64(devices) / float64(numAPs)
	wlanPoisson := 1 / (taskRate * devicesPerAP * n.AccessShare.WLAN)
	for ap := 0; ap < numAPs; ap++ {
		p, err := pair(fmt.Sprintf("wlan[%d]", ap), n.WLANBandwidth, wlanPoisson)
		if err != nil {
			return nil, err
		}
		m.wlan[Upload] = append(m.wlan[Upload], p[Upload])
		m.wlan[Download] = append(m.wlan[Download], p[Download])
	}
	var err error
	if m.man, err = pair("man", n.MANBandwidth, 1/(taskRate*float64(devices)*n.AccessShare.MAN)); err != nil {
		return nil, err
	}
	if m.wan, err = pair("wan", n.WANBandwidth, 1/(taskRate*float64(devices)*n.AccessShare.WAN)); err != nil {
		return nil, err
	}
	if m.gsm, err = pair("gsm", n.GSMBandwidth, 1/(taskRate*float64(devices)*n.AccessShare.GSM)); err != nil {
		return nil, err
	}
	logrus.Debugf("network model seeded for %d devices: task rate %.4f/s, input %.1f KB, output %.1f KB",
		devices, taskRate, inputKB, outputKB)
	return m, nil
}

// channel resolves a link/direction/access point to its channel.
// Panics on an unknown link: link values only come from sim constants.
func (m *Model) channel(link sim.Link, dir Direction, ap int) *Channel {
	switch link {
	case sim.LinkWLAN:
		return m.wlan[dir][ap]
	case sim.LinkMAN:
		return m.man[dir]
	case sim.LinkWAN:
		return m.wan[dir]
	case sim.LinkGSM:
		return m.gsm[dir]
	}
	panic(fmt.Sprintf("network.Model: unknown link %v", link))
}

// withPropagation adds the fixed per-link latency to a feasible delay.
func (m *Model) withPropagation(link sim.Link, d float64) float64 {
	if d == 0 {
		return 0
	}
	switch link {
	case sim.LinkWAN:
		return d + m.cfg.WANPropagationDelay
	case sim.LinkGSM:
		return d + m.cfg.GSMPropagationDelay
	case sim.LinkMAN:
		return d + m.cfg.LANInternalDelay
	}
	return d
}

// Estimate probes a channel without recording a sample. 0 means infeasible.
// ap is ignored for links other than WLAN.
func (m *Model) Estimate(link sim.Link, dir Direction, ap int, sizeKB float64) float64 {
	return m.withPropagation(link, m.channel(link, dir, ap).Estimate(sizeKB))
}

// Get returns the delay for a transfer and records it. 0 means infeasible.
func (m *Model) Get(link sim.Link, dir Direction, ap int, sizeKB float64) float64 {
	return m.withPropagation(link, m.channel(link, dir, ap).Get(sizeKB))
}

// EstimateUpload probes the upload delay of a task's input over link, at its submission AP.
func (m *Model) EstimateUpload(link sim.Link, t *sim.Task) float64 {
	return m.Estimate(link, Upload, t.SubmittedAt.ServingAP, t.InputSizeKB)
}

// EstimateDownload probes the download delay of a task's output over link, at its submission AP.
func (m *Model) EstimateDownload(link sim.Link, t *sim.Task) float64 {
	return m.Estimate(link, Download, t.SubmittedAt.ServingAP, t.OutputSizeKB)
}

// Update closes the current window on every channel at time now.
// MAN channels also carry control traffic between edge servers and the
// orchestrator, proportional to the device count.
func (m *Model) Update(now float64) {
	interval := now - m.lastUpdate
	m.lastUpdate = now
	postWarmUp := now > m.warmUp

	bgCount := interval * float64(m.devices) * m.cfg.MANControlRate
	bgSize := float64(m.devices) * m.cfg.MANControlSizeKB

	for _, dir := range []Direction{Upload, Download} {
		for _, c := range m.wlan[dir] {
			c.UpdateWindow(interval, postWarmUp, 0, 0)
		}
		m.man[dir].UpdateWindow(interval, postWarmUp, bgCount, bgSize)
		m.wan[dir].UpdateWindow(interval, postWarmUp, 0, 0)
		m.gsm[dir].UpdateWindow(interval, postWarmUp, 0, 0)
	}
}

// Peaks returns the largest feasible queueing delay seen per link type.
func (m *Model) Peaks() map[sim.Link]float64 {
	peaks := make(map[sim.Link]float64)
	for _, dir := range []Direction{Upload, Download} {
		for _, c := range m.wlan[dir] {
			peaks[sim.LinkWLAN] = max(peaks[sim.LinkWLAN], c.Peak())
		}
		peaks[sim.LinkMAN] = max(peaks[sim.LinkMAN], m.man[dir].Peak())
		peaks[sim.LinkWAN] = max(peaks[sim.LinkWAN], m.wan[dir].Peak())
		peaks[sim.LinkGSM] = max(peaks[sim.LinkGSM], m.gsm[dir].Peak())
	}
	return peaks
}

// NumAccessPoints returns the number of WLAN channel pairs.
func (m *Model) NumAccessPoints() int {
	return len(m.wlan[Upload])
}

// APDelays probes both WLAN channels of an access point with their current
// mean payload size. Used by the periodic delay log.
func (m *Model) APDelays(ap int) (up, down float64) {
	u, d := m.wlan[Upload][ap], m.wlan[Download][ap]
	return u.Estimate(u.MeanSizeKB()), d.Estimate(d.MeanSizeKB())
}
