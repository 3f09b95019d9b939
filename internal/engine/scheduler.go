package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"TSNWeave/internal/milp"
	"TSNWeave/internal/model"
)

// Scheduler runs the full pipeline for one network: formulate, solve,
// decode. The pipeline is synchronous; a single solve owns the model it
// builds and nothing else mutates it.
type Scheduler struct {
	Name    string
	Net     *model.Network
	Policy  Policy
	Solver  milp.Solver
	Workers int
}

func New(name string, net *model.Network, policy Policy, solver milp.Solver, workers int) *Scheduler {
	return &Scheduler{Name: name, Net: net, Policy: policy, Solver: solver, Workers: workers}
}

// Solve assembles the model, submits it to the solver and decodes the
// assignment. The four solver outcomes map to: decode (optimal), an
// InfeasibleError carrying the certificate kind, an UnknownTerminationError
// carrying the solver's code and description, or a wrapped fatal error.
// There are no retries: MILP outcomes are deterministic for fixed input.
func (s *Scheduler) Solve(ctx context.Context) (*model.Solution, error) {
	start := time.Now()

	builder := &Builder{Net: s.Net, Policy: s.Policy, Workers: s.Workers}
	m, vs, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("model construction failed: %w", err)
	}
	log.Printf("model %s: %d variables, %d constraints, %d cycles per hypercycle",
		s.Name, m.NumVariables(), len(m.Constraints()), s.Net.CycleCount)

	res, err := s.Solver.Solve(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}

	switch res.Status {
	case milp.StatusOptimal:
		// fall through to decoding
	case milp.StatusInfeasible:
		return nil, &InfeasibleError{Certificate: CertificatePrimal}
	case milp.StatusDualInfeasible:
		return nil, &InfeasibleError{Certificate: CertificateDual}
	case milp.StatusUnknown:
		return nil, &UnknownTerminationError{Code: res.Code, Desc: res.Desc}
	default:
		return nil, &UnknownTerminationError{Code: res.Code, Desc: fmt.Sprintf("unexpected solver status %v", res.Status)}
	}

	sol, err := decode(res, vs, s.Policy)
	if err != nil {
		return nil, err
	}
	sol.Name = s.Name
	sol.Shaper = s.Policy.Name()
	sol.Objective = res.Objective
	sol.Runtime = time.Since(start)
	log.Printf("model %s: solved, objective %g, %d nodes, %s", s.Name, res.Objective, res.Nodes, sol.Runtime)
	return sol, nil
}
