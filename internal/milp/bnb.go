package milp

import (
	"context"
	"math"
)

// Unknown-termination codes reported by the in-process solver.
const (
	CodeCancelled = 1001
	CodeNodeLimit = 1002
)

// BnB is a deterministic in-process MILP solver: depth-first branch and
// bound over the binary variables with interval propagation, resolving the
// continuous auxiliaries from equality constraints once the binaries are
// fixed. Branching order and the strict-improvement incumbent rule make the
// returned optimum deterministic for a fixed model.
type BnB struct {
	// FeasTol is the absolute feasibility tolerance, scaled by constraint
	// magnitude during the final check.
	FeasTol float64
	// MaxNodes caps the search; exceeding it yields StatusUnknown. Zero
	// means no limit.
	MaxNodes int64
}

func NewBnB() *BnB {
	return &BnB{FeasTol: 1e-6, MaxNodes: 5_000_000}
}

func (b *BnB) Solve(ctx context.Context, m *Model) (*Result, error) {
	if ctx.Err() != nil {
		return &Result{Status: StatusUnknown, Code: CodeCancelled, Desc: "solve cancelled or deadline exceeded"}, nil
	}

	n := m.NumVariables()
	lb := make([]float64, n)
	ub := make([]float64, n)
	for i := 0; i < n; i++ {
		if m.Kind(i) == Binary {
			ub[i] = 1
		} else {
			ub[i] = math.Inf(1)
		}
	}

	st := &search{m: m, tol: b.FeasTol, ctx: ctx, maxNodes: b.MaxNodes}
	if st.propagate(lb, ub) {
		st.dfs(lb, ub)
	}

	switch {
	case st.cancelled:
		return &Result{Status: StatusUnknown, Nodes: st.nodes, Code: CodeCancelled, Desc: "solve cancelled or deadline exceeded"}, nil
	case st.limited:
		return &Result{Status: StatusUnknown, Nodes: st.nodes, Code: CodeNodeLimit, Desc: "node limit reached before proving optimality"}, nil
	case !st.hasBest:
		return &Result{Status: StatusInfeasible, Nodes: st.nodes}, nil
	}
	return &Result{Status: StatusOptimal, Values: st.best, Objective: st.bestObj, Nodes: st.nodes}, nil
}

type search struct {
	m        *Model
	tol      float64
	ctx      context.Context
	maxNodes int64

	nodes     int64
	cancelled bool
	limited   bool

	best    []float64
	bestObj float64
	hasBest bool
}

// propagate tightens lb/ub to a fixpoint. Returns false when some constraint
// cannot be satisfied within the current bounds.
func (st *search) propagate(lb, ub []float64) bool {
	for changed := true; changed; {
		changed = false
		for ci := range st.m.constraints {
			c := &st.m.constraints[ci]
			minL, maxL := lhsBounds(c.Terms, lb, ub)
			feasTol := st.tol * (1 + math.Abs(c.RHS))
			if minL > c.RHS+feasTol {
				return false
			}
			if c.Op == Eq && maxL < c.RHS-feasTol {
				return false
			}
			for _, t := range c.Terms {
				if t.Coeff == 0 {
					continue
				}
				cmin, cmax := contribBounds(t.Coeff, lb[t.Var], ub[t.Var])

				// Direction LHS <= RHS (applies to Le and Eq).
				if !math.IsInf(minL, -1) {
					resid := minL - cmin
					if t.Coeff > 0 {
						if tightenUpper(st.m, lb, ub, t.Var, (c.RHS+feasTol-resid)/t.Coeff, &changed) {
							return false
						}
					} else {
						if tightenLower(st.m, lb, ub, t.Var, (c.RHS+feasTol-resid)/t.Coeff, &changed) {
							return false
						}
					}
				}

				// Direction LHS >= RHS (Eq only).
				if c.Op == Eq && !math.IsInf(maxL, 1) {
					resid := maxL - cmax
					if t.Coeff > 0 {
						if tightenLower(st.m, lb, ub, t.Var, (c.RHS-feasTol-resid)/t.Coeff, &changed) {
							return false
						}
					} else {
						if tightenUpper(st.m, lb, ub, t.Var, (c.RHS-feasTol-resid)/t.Coeff, &changed) {
							return false
						}
					}
				}
			}
		}
	}
	return true
}

// tightenUpper lowers ub[v] to hi when that is an improvement. Binary
// variables snap to 0 once they can no longer reach 1. Returns true on a
// bound conflict.
func tightenUpper(m *Model, lb, ub []float64, v int, hi float64, changed *bool) bool {
	if m.Kind(v) == Binary {
		if hi < 1-1e-6 && ub[v] > 0.5 {
			if lb[v] > 0.5 {
				return true
			}
			ub[v] = 0
			*changed = true
		}
		return false
	}
	if hi < ub[v]-1e-9 {
		if hi < lb[v]-1e-9 {
			return true
		}
		ub[v] = hi
		*changed = true
	}
	return false
}

// tightenLower raises lb[v] to lo when that is an improvement. Binary
// variables snap to 1 once 0 is excluded. Returns true on a bound conflict.
func tightenLower(m *Model, lb, ub []float64, v int, lo float64, changed *bool) bool {
	if m.Kind(v) == Binary {
		if lo > 1e-6 && lb[v] < 0.5 {
			if ub[v] < 0.5 || lo > 1+1e-6 {
				return true
			}
			lb[v] = 1
			*changed = true
		}
		return false
	}
	if lo > lb[v]+1e-9 {
		if lo > ub[v]+1e-9 {
			return true
		}
		lb[v] = lo
		*changed = true
	}
	return false
}

func (st *search) dfs(lb, ub []float64) {
	if st.cancelled || st.limited {
		return
	}
	st.nodes++
	if st.nodes&255 == 0 {
		select {
		case <-st.ctx.Done():
			st.cancelled = true
			return
		default:
		}
	}
	if st.maxNodes > 0 && st.nodes > st.maxNodes {
		st.limited = true
		return
	}

	if st.hasBest && st.objectiveBound(lb, ub) >= st.bestObj-1e-9 {
		return
	}

	branch := -1
	for i := 0; i < st.m.NumVariables(); i++ {
		if st.m.Kind(i) == Binary && ub[i]-lb[i] > 0.5 {
			branch = i
			break
		}
	}
	if branch < 0 {
		vals, obj, ok := st.complete(lb, ub)
		if ok && (!st.hasBest || obj < st.bestObj-1e-9) {
			st.best = vals
			st.bestObj = obj
			st.hasBest = true
		}
		return
	}

	for _, v := range [2]float64{0, 1} {
		clb := append([]float64(nil), lb...)
		cub := append([]float64(nil), ub...)
		clb[branch], cub[branch] = v, v
		if st.propagate(clb, cub) {
			st.dfs(clb, cub)
		}
	}
}

// complete resolves the continuous variables for a fully fixed binary
// assignment and verifies every constraint. A continuous variable is pinned
// by the first equality constraint in which it is the only continuous term;
// any remaining ones fall back to their propagated lower bound.
func (st *search) complete(lb, ub []float64) ([]float64, float64, bool) {
	n := st.m.NumVariables()
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		if st.m.Kind(i) == Binary {
			vals[i] = math.Round(lb[i])
		} else {
			vals[i] = lb[i]
		}
	}

	resolved := make(map[int]bool)
	for ci := range st.m.constraints {
		c := &st.m.constraints[ci]
		if c.Op != Eq {
			continue
		}
		pin := -1
		pinCoeff := 0.0
		ok := true
		rest := c.RHS
		for _, t := range c.Terms {
			if st.m.Kind(t.Var) == Binary {
				rest -= t.Coeff * vals[t.Var]
				continue
			}
			if pin >= 0 {
				ok = false
				break
			}
			pin, pinCoeff = t.Var, t.Coeff
		}
		if ok && pin >= 0 && pinCoeff != 0 && !resolved[pin] {
			v := rest / pinCoeff
			if v < 0 && v > -st.tol {
				v = 0
			}
			vals[pin] = v
			resolved[pin] = true
		}
	}

	for ci := range st.m.constraints {
		c := &st.m.constraints[ci]
		lhs := 0.0
		for _, t := range c.Terms {
			lhs += t.Coeff * vals[t.Var]
		}
		feasTol := st.tol * (1 + math.Abs(c.RHS))
		if lhs > c.RHS+feasTol {
			return nil, 0, false
		}
		if c.Op == Eq && lhs < c.RHS-feasTol {
			return nil, 0, false
		}
	}
	for i := 0; i < n; i++ {
		if vals[i] < -st.tol {
			return nil, 0, false
		}
	}

	obj := 0.0
	for _, t := range st.m.objective.Terms {
		obj += t.Coeff * vals[t.Var]
	}
	return vals, obj, true
}

// objectiveBound is a lower bound of the objective under the current bounds.
func (st *search) objectiveBound(lb, ub []float64) float64 {
	bound := 0.0
	for _, t := range st.m.objective.Terms {
		if t.Coeff > 0 {
			bound += t.Coeff * lb[t.Var]
		} else {
			if math.IsInf(ub[t.Var], 1) {
				return math.Inf(-1)
			}
			bound += t.Coeff * ub[t.Var]
		}
	}
	return bound
}

func lhsBounds(terms []Term, lb, ub []float64) (float64, float64) {
	minL, maxL := 0.0, 0.0
	for _, t := range terms {
		cmin, cmax := contribBounds(t.Coeff, lb[t.Var], ub[t.Var])
		minL += cmin
		maxL += cmax
	}
	return minL, maxL
}

func contribBounds(coeff, lo, hi float64) (float64, float64) {
	if coeff >= 0 {
		return coeff * lo, coeff * hi
	}
	return coeff * hi, coeff * lo
}
