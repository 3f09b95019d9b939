package model

import (
	"fmt"
)

// DeviceKind distinguishes end systems from switches. Adjacency bookkeeping
// is identical for both kinds; constraint generation is what treats them
// differently.
type DeviceKind int

const (
	EndSystem DeviceKind = iota
	Switch
)

func (k DeviceKind) String() string {
	if k == Switch {
		return "switch"
	}
	return "end-system"
}

// Device is a vertex in the network topology. Devices are created once while
// the model is being built and are immutable afterwards.
type Device struct {
	ID   int
	Name string
	Kind DeviceKind

	ingress []*Edge
	egress  []*Edge
}

// AddEdge attaches incident edges to the device. An edge whose declared
// source is the device itself is an egress edge, everything else is ingress.
func (d *Device) AddEdge(edges ...*Edge) {
	for _, e := range edges {
		if e.Source == d {
			d.egress = append(d.egress, e)
		} else {
			d.ingress = append(d.ingress, e)
		}
	}
}

// IngressEdges returns the edges whose destination is this device.
func (d *Device) IngressEdges() []*Edge { return d.ingress }

// EgressEdges returns the edges whose declared source is this device.
func (d *Device) EgressEdges() []*Edge { return d.egress }

// IsSwitch reports whether the device forwards traffic.
func (d *Device) IsSwitch() bool { return d.Kind == Switch }

// Edge is one direction of a physical link. Every physical link is
// represented by two Edge records, one per direction, sharing the same GID.
type Edge struct {
	GID         string
	Source      *Device
	Destination *Device
	Port        int
}

// Flow is one periodic traffic stream. Immutable after construction.
type Flow struct {
	ID          int
	Name        string
	Source      string
	Destination string
	Priority    int
	Size        float64 // megabits injected per period
	Period      int     // microseconds
	Deadline    int     // microseconds
}

// NewFlow builds a flow, converting the payload size from bytes to megabits.
func NewFlow(id int, name, source, destination string, priority int, sizeBytes int64, period, deadline int) *Flow {
	return &Flow{
		ID:          id,
		Name:        name,
		Source:      source,
		Destination: destination,
		Priority:    priority,
		Size:        float64(sizeBytes) * 8.0e-6,
		Period:      period,
		Deadline:    deadline,
	}
}

// PriorityGroup is a bundle of queues sharing a bandwidth allocation and a
// cycle-offset scaling coefficient. Used by the multi-group (MCQF) discipline.
type PriorityGroup struct {
	Priority          int
	BandwidthFraction float64 // fraction of link capacity reserved for the group
	CycleCoefficient  float64 // converts a queue's position into a cycle offset
	Members           []int   // queue indices, assigned sequentially in declaration order
}

// SwitchConfiguration holds the per-switch queueing parameters. A plain
// configuration (no groups) selects the cyclic CSQF discipline; one carrying
// priority groups selects MCQF. The variant is decided once at construction
// and never re-inspected downstream.
type SwitchConfiguration struct {
	QueueCount int
	BaseCycle  int // microseconds
	LinkSpeed  int // Mbps
	Groups     []PriorityGroup
}

// MultiGroup reports whether the configuration carries priority groups.
func (c SwitchConfiguration) MultiGroup() bool { return len(c.Groups) > 0 }

// NewCSQFConfiguration builds a plain cyclic switch configuration.
func NewCSQFConfiguration(queueCount, baseCycle, linkSpeed int) SwitchConfiguration {
	return SwitchConfiguration{QueueCount: queueCount, BaseCycle: baseCycle, LinkSpeed: linkSpeed}
}

// NewMCQFConfiguration builds a multi-group configuration. The union of all
// group members must cover [0, queueCount) exactly, with no overlap and no
// gap; a violation is a model-construction error and must be caught before
// any solve is attempted.
func NewMCQFConfiguration(queueCount, baseCycle, linkSpeed int, groups []PriorityGroup) (SwitchConfiguration, error) {
	seen := make(map[int]int, queueCount)
	total := 0
	for _, g := range groups {
		for _, q := range g.Members {
			if q < 0 || q >= queueCount {
				return SwitchConfiguration{}, fmt.Errorf("priority group %d: queue index %d outside [0,%d)", g.Priority, q, queueCount)
			}
			if prev, dup := seen[q]; dup {
				return SwitchConfiguration{}, fmt.Errorf("queue index %d assigned to both priority group %d and %d", q, prev, g.Priority)
			}
			seen[q] = g.Priority
			total++
		}
	}
	if total != queueCount {
		return SwitchConfiguration{}, fmt.Errorf("priority groups cover %d of %d queue indices", total, queueCount)
	}
	return SwitchConfiguration{
		QueueCount: queueCount,
		BaseCycle:  baseCycle,
		LinkSpeed:  linkSpeed,
		Groups:     groups,
	}, nil
}

// Network aggregates devices, edges, flows and the switch configuration for
// one solve. The hypercycle and cycle count are derived once here and stay
// immutable for the life of the model.
type Network struct {
	Devices []*Device // indexed by dense device ID
	Edges   []*Edge   // both directions of every physical link
	Flows   []*Flow   // indexed by dense flow ID
	Conf    SwitchConfiguration

	Hypercycle int // lcm of all flow periods, microseconds
	CycleCount int // ceil(Hypercycle / BaseCycle)

	byName    map[string]*Device
	gids      map[[2]int]string
	linkCount int
}

// NewNetwork wires the parsed entities together and derives the schedule
// dimensions. Devices and flows must carry dense ids matching their slice
// position.
func NewNetwork(devices []*Device, edges []*Edge, flows []*Flow, conf SwitchConfiguration) (*Network, error) {
	if len(flows) == 0 {
		return nil, fmt.Errorf("network has no flows")
	}
	if conf.BaseCycle <= 0 || conf.LinkSpeed <= 0 || conf.QueueCount <= 0 {
		return nil, fmt.Errorf("invalid switch configuration: queues=%d base_cycle=%d link_speed=%d",
			conf.QueueCount, conf.BaseCycle, conf.LinkSpeed)
	}
	for i, d := range devices {
		if d.ID != i {
			return nil, fmt.Errorf("device %q: id %d does not match position %d", d.Name, d.ID, i)
		}
	}
	for i, f := range flows {
		if f.ID != i {
			return nil, fmt.Errorf("flow %q: id %d does not match position %d", f.Name, f.ID, i)
		}
	}

	n := &Network{
		Devices: devices,
		Edges:   edges,
		Flows:   flows,
		Conf:    conf,
		byName:  make(map[string]*Device, len(devices)),
		gids:    make(map[[2]int]string, len(edges)),
	}
	for _, d := range devices {
		n.byName[d.Name] = d
	}
	links := make(map[string]bool)
	for _, e := range edges {
		n.gids[[2]int{e.Source.ID, e.Destination.ID}] = e.GID
		links[e.GID] = true
	}
	n.linkCount = len(links)

	hyper := 1
	for _, f := range flows {
		if f.Period <= 0 {
			return nil, fmt.Errorf("flow %q: period must be positive", f.Name)
		}
		hyper = lcm(hyper, f.Period)
	}
	n.Hypercycle = hyper
	n.CycleCount = (hyper + conf.BaseCycle - 1) / conf.BaseCycle
	return n, nil
}

// DeviceByName resolves a device by its declared name.
func (n *Network) DeviceByName(name string) (*Device, bool) {
	d, ok := n.byName[name]
	return d, ok
}

// GID returns the shared group identifier of the directed hop (src, dst).
func (n *Network) GID(src, dst int) (string, bool) {
	gid, ok := n.gids[[2]int{src, dst}]
	return gid, ok
}

// HasEdge reports whether a physical edge exists on the directed pair.
func (n *Network) HasEdge(src, dst int) bool {
	_, ok := n.gids[[2]int{src, dst}]
	return ok
}

// LinkCount is the number of physical links (pairs of directed edges).
func (n *Network) LinkCount() int { return n.linkCount }

// EndSystems returns the devices capable of sourcing or sinking flows.
func (n *Network) EndSystems() []*Device {
	var out []*Device
	for _, d := range n.Devices {
		if !d.IsSwitch() {
			out = append(out, d)
		}
	}
	return out
}

// Switches returns the forwarding devices.
func (n *Network) Switches() []*Device {
	var out []*Device
	for _, d := range n.Devices {
		if d.IsSwitch() {
			out = append(out, d)
		}
	}
	return out
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
