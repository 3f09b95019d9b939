package milp

import (
	"context"
	"math"
	"testing"
)

func TestSolveTinyOptimal(t *testing.T) {
	m := NewModel()
	x := m.AddVariables(2, Binary)
	m.AddConstraint(Constraint{
		Name:  "pick one",
		Terms: []Term{{Var: x, Coeff: 1}, {Var: x + 1, Coeff: 1}},
		Op:    Eq,
		RHS:   1,
	})
	m.SetObjective(Objective{
		Name:  "cost",
		Terms: []Term{{Var: x, Coeff: 1}, {Var: x + 1, Coeff: 2}},
	})

	res, err := NewBnB().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %v", res.Status)
	}
	if math.Abs(res.Objective-1) > 1e-9 {
		t.Errorf("expected objective 1, got %g", res.Objective)
	}
	if res.Values[x] != 1 || res.Values[x+1] != 0 {
		t.Errorf("expected x0=1 x1=0, got %g %g", res.Values[x], res.Values[x+1])
	}
}

func TestSolveInfeasible(t *testing.T) {
	m := NewModel()
	x := m.AddVariables(2, Binary)
	m.AddConstraint(Constraint{
		Name:  "unreachable sum",
		Terms: []Term{{Var: x, Coeff: 1}, {Var: x + 1, Coeff: 1}},
		Op:    Eq,
		RHS:   3,
	})

	res, err := NewBnB().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusInfeasible {
		t.Fatalf("expected infeasible, got %v", res.Status)
	}
}

func TestSolveResolvesContinuous(t *testing.T) {
	m := NewModel()
	x := m.AddVariables(2, Binary)
	b := m.AddVariables(1, NonNegative)
	m.AddConstraint(Constraint{
		Name:  "pick one",
		Terms: []Term{{Var: x, Coeff: 1}, {Var: x + 1, Coeff: 1}},
		Op:    Eq,
		RHS:   1,
	})
	m.AddConstraint(Constraint{
		Name:  "linkage",
		Terms: []Term{{Var: b, Coeff: 1}, {Var: x, Coeff: -2}, {Var: x + 1, Coeff: -3}},
		Op:    Eq,
		RHS:   0,
	})
	m.SetObjective(Objective{Name: "bandwidth", Terms: []Term{{Var: b, Coeff: 1}}})

	res, err := NewBnB().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %v", res.Status)
	}
	if math.Abs(res.Values[b]-2) > 1e-6 {
		t.Errorf("expected b=2, got %g", res.Values[b])
	}
	if res.Values[x] != 1 {
		t.Errorf("expected the cheaper binary, got x0=%g", res.Values[x])
	}
}

// wideModel has no constraints, so the search has to enumerate; it exists to
// exercise the cancellation and node-limit paths.
func wideModel(n int) *Model {
	m := NewModel()
	x := m.AddVariables(n, Binary)
	terms := make([]Term, n)
	for i := 0; i < n; i++ {
		terms[i] = Term{Var: x + i, Coeff: -1}
	}
	m.SetObjective(Objective{Name: "spread", Terms: terms})
	return m
}

func TestSolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewBnB().Solve(ctx, wideModel(25))
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusUnknown {
		t.Fatalf("expected unknown after cancellation, got %v", res.Status)
	}
	if res.Code != CodeCancelled {
		t.Errorf("expected code %d, got %d", CodeCancelled, res.Code)
	}
}

func TestSolveCancelledBeforeTinySearch(t *testing.T) {
	m := NewModel()
	x := m.AddVariables(2, Binary)
	m.AddConstraint(Constraint{
		Name:  "pick one",
		Terms: []Term{{Var: x, Coeff: 1}, {Var: x + 1, Coeff: 1}},
		Op:    Eq,
		RHS:   1,
	})
	m.SetObjective(Objective{Name: "cost", Terms: []Term{{Var: x, Coeff: 1}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The search tree here is a handful of nodes, so cancellation must be
	// honored before any searching happens at all.
	res, err := NewBnB().Solve(ctx, m)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusUnknown {
		t.Fatalf("expected unknown after cancellation, got %v", res.Status)
	}
	if res.Code != CodeCancelled {
		t.Errorf("expected code %d, got %d", CodeCancelled, res.Code)
	}
}

func TestSolveNodeLimit(t *testing.T) {
	solver := NewBnB()
	solver.MaxNodes = 10

	res, err := solver.Solve(context.Background(), wideModel(25))
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusUnknown {
		t.Fatalf("expected unknown at the node limit, got %v", res.Status)
	}
	if res.Code != CodeNodeLimit {
		t.Errorf("expected code %d, got %d", CodeNodeLimit, res.Code)
	}
}
