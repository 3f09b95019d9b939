// Package milp holds the mixed-integer linear model containers and the
// solver contract. The scheduling engine assembles a Model; any Solver
// implementation honoring the contract can be plugged in.
package milp

// VarKind is the domain of a decision variable.
type VarKind int

const (
	// Binary variables take values in {0, 1}.
	Binary VarKind = iota
	// NonNegative variables are continuous with a zero lower bound.
	NonNegative
)

// Op is the relational operator of a constraint.
type Op int

const (
	Eq Op = iota
	Le
)

// Term is one coefficient of a linear expression.
type Term struct {
	Var   int
	Coeff float64
}

// Constraint is a named linear (in)equality over the model's variables.
type Constraint struct {
	Name  string
	Terms []Term
	Op    Op
	RHS   float64
}

// Objective is the scalar linear function to minimize. Exactly one objective
// is attached per model.
type Objective struct {
	Name  string
	Terms []Term
}

// Model is the assembled variable space, constraint list and objective.
type Model struct {
	kinds       []VarKind
	constraints []Constraint
	objective   Objective
}

func NewModel() *Model {
	return &Model{}
}

// AddVariables allocates n variables of the given kind and returns the index
// of the first one. Indices are dense and stable.
func (m *Model) AddVariables(n int, kind VarKind) int {
	base := len(m.kinds)
	for i := 0; i < n; i++ {
		m.kinds = append(m.kinds, kind)
	}
	return base
}

func (m *Model) AddConstraint(c Constraint) {
	m.constraints = append(m.constraints, c)
}

func (m *Model) AddConstraints(cs []Constraint) {
	m.constraints = append(m.constraints, cs...)
}

func (m *Model) SetObjective(o Objective) {
	m.objective = o
}

func (m *Model) NumVariables() int { return len(m.kinds) }

func (m *Model) Kind(v int) VarKind { return m.kinds[v] }

func (m *Model) Constraints() []Constraint { return m.constraints }

func (m *Model) Objective() Objective { return m.objective }
