// Package engine formulates the routing/queue-assignment MILP for one
// network and traffic-shaping policy, drives the solver, and decodes the raw
// assignment back into per-flow paths and per-link statistics.
package engine

import (
	"TSNWeave/internal/milp"
	"TSNWeave/internal/model"
)

// VariableSpace maps the decision-variable lattice onto dense solver
// indices: the binary route/queue variable R[f,q,d,e] and the continuous
// bandwidth auxiliary B[d,e]. It only references the network, never mutates
// it.
type VariableSpace struct {
	Net     *model.Network
	Flows   int
	Queues  int
	Devices int

	rBase int
	bBase int
}

// NewVariableSpace allocates the full lattice on the model:
// flows x queues x devices x devices binaries plus devices x devices
// non-negative auxiliaries.
func NewVariableSpace(m *milp.Model, net *model.Network) *VariableSpace {
	vs := &VariableSpace{
		Net:     net,
		Flows:   len(net.Flows),
		Queues:  net.Conf.QueueCount,
		Devices: len(net.Devices),
	}
	vs.rBase = m.AddVariables(vs.Flows*vs.Queues*vs.Devices*vs.Devices, milp.Binary)
	vs.bBase = m.AddVariables(vs.Devices*vs.Devices, milp.NonNegative)
	return vs
}

// R is the index of the binary variable "flow f uses queue q on hop d->e".
func (vs *VariableSpace) R(f, q, d, e int) int {
	return vs.rBase + ((f*vs.Queues+q)*vs.Devices+d)*vs.Devices + e
}

// B is the index of the continuous aggregate-bandwidth variable of hop d->e.
func (vs *VariableSpace) B(d, e int) int {
	return vs.bBase + d*vs.Devices + e
}
