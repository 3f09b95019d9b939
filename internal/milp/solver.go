package milp

import "context"

// Status classifies the outcome of a solve.
type Status int

const (
	// StatusOptimal means an optimal assignment was found.
	StatusOptimal Status = iota
	// StatusInfeasible means a primal infeasibility certificate was found.
	StatusInfeasible
	// StatusDualInfeasible means a dual infeasibility certificate was found.
	StatusDualInfeasible
	// StatusUnknown means the solver terminated without a conclusive answer;
	// Code and Desc on the Result carry the solver-reported reason.
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusDualInfeasible:
		return "dual-infeasible"
	default:
		return "unknown"
	}
}

// Result is the solver's answer for one model. Values holds the assignment
// of every variable and is only meaningful for StatusOptimal.
type Result struct {
	Status    Status
	Values    []float64
	Objective float64
	Nodes     int64
	Code      int
	Desc      string
}

// Solver solves an assembled model. Implementations must respect ctx
// cancellation and report it as StatusUnknown rather than as an error or
// infeasibility: a timeout says nothing about the model.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Result, error)
}
