package engine

import "fmt"

// Certificate identifies which infeasibility certificate the solver found.
type Certificate int

const (
	CertificatePrimal Certificate = iota
	CertificateDual
)

func (c Certificate) String() string {
	if c == CertificateDual {
		return "dual"
	}
	return "primal"
}

// InfeasibleError reports that no feasible schedule exists for the model
// under its current constraints. The input is provably unschedulable, so
// retrying without changing the model is pointless.
type InfeasibleError struct {
	Certificate Certificate
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("no feasible schedule: %s infeasibility certificate", e.Certificate)
}

// UnknownTerminationError reports a solver run that ended without a
// conclusive answer. It is inconclusive, not a success and not a proof of
// infeasibility.
type UnknownTerminationError struct {
	Code int
	Desc string
}

func (e *UnknownTerminationError) Error() string {
	return fmt.Sprintf("solver terminated with unknown status: code %d: %s", e.Code, e.Desc)
}

// DecodingError reports active route variables that do not form a single
// contiguous source-to-destination path. The solver reported success, so
// this signals a constraint-generation bug or numerical noise, never
// infeasibility.
type DecodingError struct {
	Flow   string
	Reason string
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("solution found, but could not construct path for flow %s: %s", e.Flow, e.Reason)
}
