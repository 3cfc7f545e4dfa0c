package planner

import (
	"context"
	"fmt"
)

// Status classifies the outcome of a solve.
type Status int

const (
	// StatusOptimal means the solver proved optimality.
	StatusOptimal Status = iota
	// StatusFeasible means a usable incumbent was returned before the
	// time or iteration limit, without an optimality proof.
	StatusFeasible
	// StatusInfeasible means no transfer plan keeps every balance
	// non-negative, even ignoring the soft safety target.
	StatusInfeasible
	// StatusUnbounded should never occur: fees and penalties are
	// non-negative and every variable is bounded. It signals a defect in
	// problem construction.
	StatusUnbounded
	// StatusError covers solver process failures.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "error"
	}
}

// Usable reports whether the solution carries a plan worth extracting.
func (s Status) Usable() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Solution is the raw solver outcome: one value per problem variable in
// the problem's variable order, plus objective value and status.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
}

// SolveError is returned when a solve ends without a usable solution. It
// carries the status verbatim; adapters never retry on their own.
type SolveError struct {
	Status Status
	Err    error
}

func (e *SolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("solver status %s: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("solver status %s", e.Status)
}

func (e *SolveError) Unwrap() error { return e.Err }

// Solver solves a built problem. Solve blocks until completion or until the
// context deadline expires, whichever comes first.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
