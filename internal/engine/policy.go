package engine

import (
	"math"

	"TSNWeave/internal/milp"
	"TSNWeave/internal/model"
)

// Policy supplies the discipline-specific pieces of the formulation. The
// engine composes one core model with whichever policy matches the parsed
// switch configuration; the two disciplines share no code through
// inheritance, only through the builder helpers below.
type Policy interface {
	// Name is the shaper label used in reports ("CSQF", "MCQF").
	Name() string

	// ArrivalPattern reports the bandwidth (flow size, megabits) the flow
	// injects at the given scheduling cycle offset, or 0.
	ArrivalPattern(cycle float64, f *model.Flow) float64

	// QueueDelay is the per-hop delay contribution of queue q, microseconds.
	QueueDelay(q int) float64

	// TrafficClass is the class label recorded on decoded hops.
	TrafficClass(f *model.Flow) int

	// BandwidthConstraints generates the link-capacity constraints of one
	// ordered device pair, one per scheduling cycle (and, for multi-group
	// disciplines, per priority group).
	BandwidthConstraints(vs *VariableSpace, d, e int) []milp.Constraint

	// GatingConstraints restricts flows to queues of their own priority
	// group. Empty for disciplines without priority groups.
	GatingConstraints(vs *VariableSpace) []milp.Constraint

	// DeadlineConstraints bounds each flow's cumulative queuing delay.
	// Empty when the deadline constraint is disabled for this discipline.
	DeadlineConstraints(vs *VariableSpace) []milp.Constraint

	// Objective is the scalar function the solver minimizes.
	Objective(vs *VariableSpace) milp.Objective

	// Groups returns the priority groups, nil for plain cyclic queuing.
	Groups() []model.PriorityGroup
}

// FloorMod is the non-negative remainder of x modulo m, matching the modulo
// semantics the arrival-pattern definitions assume for negative cycle
// offsets.
func FloorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
