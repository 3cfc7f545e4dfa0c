// Package solver provides the concrete LP backends the planner submits its
// problems to.
package solver

import (
	"context"
	"errors"

	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/fjtyk95/bankoptimize/core/planner"
)

// simplexSolve points to the function used to solve the LP. It can be
// overridden in tests to simulate solver failures.
var simplexSolve = solveConverted

// Simplex solves problems with gonum's Dantzig simplex implementation.
// The zero value is ready to use.
type Simplex struct {
	// Tol is the pivot tolerance passed to the solver. Zero selects the
	// default of 1e-7.
	Tol float64
}

type simplexOut struct {
	objective float64
	values    []float64
	err       error
}

// Solve converts the problem to standard form and runs the simplex method.
// The context deadline is honored by abandoning the solve; Dantzig simplex
// carries no usable incumbent, so a deadline hit surfaces as StatusError
// wrapping the context error. Infeasible and unbounded outcomes are
// reported verbatim with no partial solution and are never retried here.
func (s Simplex) Solve(ctx context.Context, p *planner.Problem) (*planner.Solution, error) {
	tol := s.Tol
	if tol == 0 {
		tol = 1e-7
	}

	out := make(chan simplexOut, 1)
	go func() {
		obj, vals, err := simplexSolve(p, tol)
		out <- simplexOut{objective: obj, values: vals, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &planner.SolveError{Status: planner.StatusError, Err: ctx.Err()}
	case r := <-out:
		if r.err != nil {
			return nil, &planner.SolveError{Status: classify(r.err), Err: r.err}
		}
		return &planner.Solution{
			Status:    planner.StatusOptimal,
			Objective: r.objective,
			Values:    r.values,
		}, nil
	}
}

// solveConverted maps the general-form problem into standard form via
// lp.Convert and folds the split positive/negative variable parts back
// together afterwards.
func solveConverted(p *planner.Problem, tol float64) (float64, []float64, error) {
	n := p.NumVars()
	cStd, aStd, bStd := lp.Convert(p.C, p.G, p.H, p.A, p.B)
	obj, sol, err := lp.Simplex(cStd, aStd, bStd, tol, nil)
	if err != nil {
		return 0, nil, err
	}
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = sol[i] - sol[n+i]
	}
	return obj, values, nil
}

func classify(err error) planner.Status {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return planner.StatusInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return planner.StatusUnbounded
	default:
		return planner.StatusError
	}
}
