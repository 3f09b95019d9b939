// Package csqf implements the Cycle Specified Queuing and Forwarding
// discipline: a single pool of cyclic queues per egress port, all running at
// the base cycle.
package csqf

import (
	"fmt"

	"TSNWeave/internal/config"
	"TSNWeave/internal/engine"
	"TSNWeave/internal/factory"
	"TSNWeave/internal/milp"
	"TSNWeave/internal/model"
)

func init() {
	factory.RegisterPolicy("csqf", func(cfg *config.ModelConfig, net *model.Network) (engine.Policy, error) {
		return New(net, cfg.DeadlineEnabled(), cfg.Objective), nil
	})
}

type Policy struct {
	net       *model.Network
	deadline  bool
	objective string
}

func New(net *model.Network, deadline bool, objective string) *Policy {
	return &Policy{net: net, deadline: deadline, objective: objective}
}

func (p *Policy) Name() string { return "CSQF" }

// ArrivalPattern reports the flow's size when a transmission window of the
// flow's period overlaps the given cycle offset. The window is closed on
// both ends: a frame released at the boundary still occupies the cycle.
func (p *Policy) ArrivalPattern(cycle float64, f *model.Flow) float64 {
	base := float64(p.net.Conf.BaseCycle)
	m := engine.FloorMod(cycle*base, float64(f.Period))
	if m <= base+1e-9 {
		return f.Size
	}
	return 0
}

// QueueDelay is (q+1) base cycles: a frame entering queue q waits q full
// cycles plus the cycle in which it is transmitted.
func (p *Policy) QueueDelay(q int) float64 {
	return float64(q+1) * float64(p.net.Conf.BaseCycle)
}

func (p *Policy) TrafficClass(*model.Flow) int { return 1 }

// BandwidthConstraints caps, per scheduling cycle, the traffic every queue
// can inject on the pair's link. A flow assigned to queue q at cycle c was
// admitted at cycle c-(q+1), so its arrival pattern is evaluated there.
func (p *Policy) BandwidthConstraints(vs *engine.VariableSpace, d, e int) []milp.Constraint {
	var cons []milp.Constraint
	for c := 1; c <= p.net.CycleCount; c++ {
		var terms []milp.Term
		for q := 0; q < vs.Queues; q++ {
			offset := float64(c - (q + 1))
			for _, f := range p.net.Flows {
				coeff := p.ArrivalPattern(offset, f)
				if coeff == 0 {
					continue
				}
				terms = append(terms, milp.Term{Var: vs.R(f.ID, q, d, e), Coeff: coeff})
			}
		}
		if len(terms) == 0 {
			continue
		}
		cons = append(cons, milp.Constraint{
			Name:  fmt.Sprintf("link capacity %d<->%d cycle %d", d, e, c),
			Terms: terms,
			Op:    milp.Le,
			RHS:   float64(p.net.Conf.LinkSpeed),
		})
	}
	return cons
}

func (p *Policy) GatingConstraints(*engine.VariableSpace) []milp.Constraint { return nil }

func (p *Policy) DeadlineConstraints(vs *engine.VariableSpace) []milp.Constraint {
	if !p.deadline {
		return nil
	}
	return engine.BuildDeadlineConstraints(vs, p.QueueDelay)
}

func (p *Policy) Objective(vs *engine.VariableSpace) milp.Objective {
	if p.objective == "bandwidth_util" {
		return engine.BuildMeanUtilizationObjective(vs, 1000)
	}
	return engine.BuildMeanDelayObjective(vs, p.QueueDelay)
}

func (p *Policy) Groups() []model.PriorityGroup { return nil }
