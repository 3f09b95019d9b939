// Package mcqf implements the Multi-Cyclic Queuing and Forwarding
// discipline: queues are partitioned into priority groups, each group runs
// at its own multiple of the base cycle and owns a fraction of every link.
package mcqf

import (
	"fmt"

	"TSNWeave/internal/config"
	"TSNWeave/internal/engine"
	"TSNWeave/internal/factory"
	"TSNWeave/internal/milp"
	"TSNWeave/internal/model"
)

func init() {
	factory.RegisterPolicy("mcqf", func(cfg *config.ModelConfig, net *model.Network) (engine.Policy, error) {
		return New(net, cfg.DeadlineEnabled(), cfg.Objective)
	})
}

type Policy struct {
	net       *model.Network
	deadline  bool
	objective string

	// per-queue lookups derived from the group table
	gamma map[int]float64 // queue index -> cycle coefficient
	prio  map[int]int     // queue index -> owning priority
}

func New(net *model.Network, deadline bool, objective string) (*Policy, error) {
	if !net.Conf.MultiGroup() {
		return nil, fmt.Errorf("mcqf requires a switch configuration with priority groups")
	}
	p := &Policy{
		net:       net,
		deadline:  deadline,
		objective: objective,
		gamma:     make(map[int]float64, net.Conf.QueueCount),
		prio:      make(map[int]int, net.Conf.QueueCount),
	}
	for _, g := range net.Conf.Groups {
		for _, q := range g.Members {
			p.gamma[q] = g.CycleCoefficient
			p.prio[q] = g.Priority
		}
	}
	for _, f := range net.Flows {
		if _, ok := groupByPriority(net.Conf.Groups, f.Priority); !ok {
			return nil, fmt.Errorf("flow %q: no priority group for priority %d", f.Name, f.Priority)
		}
	}
	return p, nil
}

func groupByPriority(groups []model.PriorityGroup, priority int) (model.PriorityGroup, bool) {
	for _, g := range groups {
		if g.Priority == priority {
			return g, true
		}
	}
	return model.PriorityGroup{}, false
}

func (p *Policy) Name() string { return "MCQF" }

// ArrivalPattern reports the flow's size only at exact period alignments: a
// group cycle either coincides with a release instant or carries nothing.
func (p *Policy) ArrivalPattern(cycle float64, f *model.Flow) float64 {
	base := float64(p.net.Conf.BaseCycle)
	m := engine.FloorMod(cycle*base, float64(f.Period))
	if m < 1e-9 || m > float64(f.Period)-1e-9 {
		return f.Size
	}
	return 0
}

// QueueDelay is (q+1) group cycles, each the group's coefficient times the
// base cycle.
func (p *Policy) QueueDelay(q int) float64 {
	return float64(q+1) * p.gamma[q] * float64(p.net.Conf.BaseCycle)
}

func (p *Policy) TrafficClass(f *model.Flow) int { return f.Priority }

// BandwidthConstraints caps, per group and per scheduling cycle, the traffic
// the group's queues can inject on the pair's link at the group's bandwidth
// fraction. Queue q of a group with coefficient gamma holds a frame admitted
// (q+1)*gamma cycles earlier.
func (p *Policy) BandwidthConstraints(vs *engine.VariableSpace, d, e int) []milp.Constraint {
	var cons []milp.Constraint
	for _, g := range p.net.Conf.Groups {
		for c := 1; c <= p.net.CycleCount; c++ {
			var terms []milp.Term
			for _, q := range g.Members {
				offset := float64(c) - float64(q+1)*g.CycleCoefficient
				for _, f := range p.net.Flows {
					if f.Priority != g.Priority {
						continue
					}
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
				Name:  fmt.Sprintf("link capacity %d<->%d priority %d cycle %d", d, e, g.Priority, c),
				Terms: terms,
				Op:    milp.Le,
				RHS:   g.BandwidthFraction * float64(p.net.Conf.LinkSpeed),
			})
		}
	}
	return cons
}

// GatingConstraints pins every flow out of queues owned by other priority
// groups.
func (p *Policy) GatingConstraints(vs *engine.VariableSpace) []milp.Constraint {
	var cons []milp.Constraint
	for _, f := range p.net.Flows {
		for q := 0; q < vs.Queues; q++ {
			if p.prio[q] == f.Priority {
				continue
			}
			var terms []milp.Term
			for d := 0; d < vs.Devices; d++ {
				for e := 0; e < vs.Devices; e++ {
					terms = append(terms, milp.Term{Var: vs.R(f.ID, q, d, e), Coeff: 1})
				}
			}
			cons = append(cons, milp.Constraint{
				Name:  fmt.Sprintf("flow %d blocked in queue %d", f.ID, q),
				Terms: terms,
				Op:    milp.Eq,
				RHS:   0,
			})
		}
	}
	return cons
}

func (p *Policy) DeadlineConstraints(vs *engine.VariableSpace) []milp.Constraint {
	if !p.deadline {
		return nil
	}
	return engine.BuildDeadlineConstraints(vs, p.QueueDelay)
}

func (p *Policy) Objective(vs *engine.VariableSpace) milp.Objective {
	if p.objective == "bandwidth_util" {
		return engine.BuildMeanUtilizationObjective(vs, 1)
	}
	return engine.BuildMeanDelayObjective(vs, p.QueueDelay)
}

func (p *Policy) Groups() []model.PriorityGroup { return p.net.Conf.Groups }
