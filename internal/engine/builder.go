package engine

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"TSNWeave/internal/milp"
	"TSNWeave/internal/model"
)

// Builder assembles the MILP for one network and policy: the shared
// constraints, the policy-supplied constraints and the objective.
type Builder struct {
	Net    *model.Network
	Policy Policy
	// Workers sizes the constraint-construction pool. Zero picks NumCPU.
	Workers int
}

// Build allocates the variable space and generates all constraints. The
// per-device-pair constraint groups are independent of each other, so they
// are built on a worker pool and merged into the model in deterministic pair
// order; the model itself is only written from this goroutine.
func (b *Builder) Build() (*milp.Model, *VariableSpace, error) {
	m := milp.NewModel()
	vs := NewVariableSpace(m, b.Net)

	m.AddConstraints(b.sourceDestConstraints(vs))
	m.AddConstraints(b.conservationConstraints(vs))

	groups, err := b.pairGroups(vs)
	if err != nil {
		return nil, nil, err
	}
	for _, g := range groups {
		m.AddConstraints(g)
	}

	m.AddConstraints(b.Policy.GatingConstraints(vs))
	m.AddConstraints(b.Policy.DeadlineConstraints(vs))
	m.SetObjective(b.Policy.Objective(vs))
	return m, vs, nil
}

// pairGroups builds the per-pair constraints (bandwidth, auxiliary linkage,
// non-edge suppression) for every ordered device pair.
func (b *Builder) pairGroups(vs *VariableSpace) ([][]milp.Constraint, error) {
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create constraint pool: %w", err)
	}
	defer pool.Release()

	groups := make([][]milp.Constraint, vs.Devices*vs.Devices)
	var wg sync.WaitGroup
	for d := 0; d < vs.Devices; d++ {
		for e := 0; e < vs.Devices; e++ {
			d, e := d, e
			idx := d*vs.Devices + e
			task := func() {
				defer wg.Done()
				groups[idx] = b.pairConstraints(vs, d, e)
			}
			wg.Add(1)
			if err := pool.Submit(task); err != nil {
				task()
			}
		}
	}
	wg.Wait()
	return groups, nil
}

func (b *Builder) pairConstraints(vs *VariableSpace, d, e int) []milp.Constraint {
	var cons []milp.Constraint
	cons = append(cons, b.Policy.BandwidthConstraints(vs, d, e)...)
	cons = append(cons, b.linkageConstraint(vs, d, e))
	if !b.Net.HasEdge(d, e) {
		cons = append(cons, b.nonEdgeConstraints(vs, d, e)...)
	}
	return cons
}

// nonEdgeConstraints forces both the route lattice and the bandwidth
// auxiliary of a pair without a physical edge to zero, so the solver cannot
// route through nonexistent links. Duplex links exist in both orientations,
// so only genuinely unconnected pairs arrive here.
func (b *Builder) nonEdgeConstraints(vs *VariableSpace, d, e int) []milp.Constraint {
	var terms []milp.Term
	for f := 0; f < vs.Flows; f++ {
		for q := 0; q < vs.Queues; q++ {
			terms = append(terms, milp.Term{Var: vs.R(f, q, d, e), Coeff: 1})
		}
	}
	return []milp.Constraint{
		{Name: fmt.Sprintf("non-edge r %d->%d", d, e), Terms: terms, Op: milp.Eq, RHS: 0},
		{Name: fmt.Sprintf("non-edge b %d->%d", d, e), Terms: []milp.Term{{Var: vs.B(d, e), Coeff: 1}}, Op: milp.Eq, RHS: 0},
	}
}

// linkageConstraint ties the continuous bandwidth auxiliary to the routing
// decision: B[d,e] = sum_f size(f) * sum_q R[f,q,d,e].
func (b *Builder) linkageConstraint(vs *VariableSpace, d, e int) milp.Constraint {
	terms := []milp.Term{{Var: vs.B(d, e), Coeff: 1}}
	for _, f := range b.Net.Flows {
		for q := 0; q < vs.Queues; q++ {
			terms = append(terms, milp.Term{Var: vs.R(f.ID, q, d, e), Coeff: -f.Size})
		}
	}
	return milp.Constraint{
		Name:  fmt.Sprintf("linkage b %d<->%d", d, e),
		Terms: terms,
		Op:    milp.Eq,
		RHS:   0,
	}
}

// sourceDestConstraints pins each flow to exactly one egress hop at its
// source end system and exactly one ingress hop at its destination, and
// forbids every other end system from taking part in the flow.
func (b *Builder) sourceDestConstraints(vs *VariableSpace) []milp.Constraint {
	var cons []milp.Constraint
	for _, f := range b.Net.Flows {
		for _, es := range b.Net.EndSystems() {
			srcRHS, dstRHS := 0.0, 0.0
			if f.Source == es.Name {
				srcRHS = 1
			}
			if f.Destination == es.Name {
				dstRHS = 1
			}

			var egress, ingress []milp.Term
			for q := 0; q < vs.Queues; q++ {
				for o := 0; o < vs.Devices; o++ {
					egress = append(egress, milp.Term{Var: vs.R(f.ID, q, es.ID, o), Coeff: 1})
					ingress = append(ingress, milp.Term{Var: vs.R(f.ID, q, o, es.ID), Coeff: 1})
				}
			}
			cons = append(cons,
				milp.Constraint{
					Name:  fmt.Sprintf("endsys %s source for %s", es.Name, f.Name),
					Terms: egress,
					Op:    milp.Eq,
					RHS:   srcRHS,
				},
				milp.Constraint{
					Name:  fmt.Sprintf("endsys %s destination for %s", es.Name, f.Name),
					Terms: ingress,
					Op:    milp.Eq,
					RHS:   dstRHS,
				},
			)
		}
	}
	return cons
}

// conservationConstraints enforces, per switch and flow, that what enters
// must leave: a single continuous path with no splitting.
func (b *Builder) conservationConstraints(vs *VariableSpace) []milp.Constraint {
	var cons []milp.Constraint
	for _, sw := range b.Net.Switches() {
		for _, f := range b.Net.Flows {
			var terms []milp.Term
			for q := 0; q < vs.Queues; q++ {
				for o := 0; o < vs.Devices; o++ {
					terms = append(terms,
						milp.Term{Var: vs.R(f.ID, q, o, sw.ID), Coeff: 1},
						milp.Term{Var: vs.R(f.ID, q, sw.ID, o), Coeff: -1},
					)
				}
			}
			cons = append(cons, milp.Constraint{
				Name:  fmt.Sprintf("switch %s conservation for %s", sw.Name, f.Name),
				Terms: terms,
				Op:    milp.Eq,
				RHS:   0,
			})
		}
	}
	return cons
}

// BuildDeadlineConstraints bounds each flow's cumulative queuing delay by
// its declared deadline, using the policy's per-queue delay.
func BuildDeadlineConstraints(vs *VariableSpace, delay func(q int) float64) []milp.Constraint {
	var cons []milp.Constraint
	for _, f := range vs.Net.Flows {
		var terms []milp.Term
		for q := 0; q < vs.Queues; q++ {
			dq := delay(q)
			for d := 0; d < vs.Devices; d++ {
				for e := 0; e < vs.Devices; e++ {
					terms = append(terms, milp.Term{Var: vs.R(f.ID, q, d, e), Coeff: dq})
				}
			}
		}
		cons = append(cons, milp.Constraint{
			Name:  fmt.Sprintf("deadline for %s", f.Name),
			Terms: terms,
			Op:    milp.Le,
			RHS:   float64(f.Deadline),
		})
	}
	return cons
}

// BuildMeanDelayObjective is the mean end-to-end delay over all flows:
// (1/flows) * sum delay(q) * R[f,q,d,e].
func BuildMeanDelayObjective(vs *VariableSpace, delay func(q int) float64) milp.Objective {
	var terms []milp.Term
	scale := 1 / float64(vs.Flows)
	for f := 0; f < vs.Flows; f++ {
		for q := 0; q < vs.Queues; q++ {
			coeff := scale * delay(q)
			for d := 0; d < vs.Devices; d++ {
				for e := 0; e < vs.Devices; e++ {
					terms = append(terms, milp.Term{Var: vs.R(f, q, d, e), Coeff: coeff})
				}
			}
		}
	}
	return milp.Objective{Name: "mean end-to-end delay", Terms: terms}
}

// BuildMeanUtilizationObjective is the mean link bandwidth utilization:
// (scale/links) * sum B[d,e]/link_speed.
func BuildMeanUtilizationObjective(vs *VariableSpace, scale float64) milp.Objective {
	var terms []milp.Term
	coeff := scale / float64(vs.Net.Conf.LinkSpeed) / float64(vs.Net.LinkCount())
	for d := 0; d < vs.Devices; d++ {
		for e := 0; e < vs.Devices; e++ {
			terms = append(terms, milp.Term{Var: vs.B(d, e), Coeff: coeff})
		}
	}
	return milp.Objective{Name: "mean bandwidth utilization", Terms: terms}
}
