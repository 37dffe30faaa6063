package ilp

import (
	"context"
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// milpProblem is the concrete numerical form of a Problem:
//
//	minimize c^T * x
//	s.t      G * x <= h
//	         A * x  = b
type milpProblem struct {
	c []float64
	A *mat.Dense
	b []float64
	G *mat.Dense
	h []float64

	// which variables are integrality-constrained. Same order as c.
	integralityConstraints []bool

	// which variable to branch on at each split. Defaults to BRANCH_MAXFUN.
	branchingHeuristic BranchHeuristic
}

// milpSolution wraps the final subproblem solution returned by a completed
// branch-and-bound search.
type milpSolution struct {
	solution solution
}

var (
	// INITIAL_RELAXATION_NOT_FEASIBLE is returned when the LP relaxation of
	// the root node (before any branching) has no feasible solution.
	INITIAL_RELAXATION_NOT_FEASIBLE = errors.New("initial relaxation is not feasible")

	// NO_INTEGER_FEASIBLE_SOLUTION is returned when the enumeration tree was
	// exhausted without finding an integer-feasible incumbent.
	NO_INTEGER_FEASIBLE_SOLUTION = errors.New("no integer feasible solution found")
)

// expectedFailures maps simplex failure modes to the branch-and-bound
// decision they correspond to. These are expected outcomes of a subproblem
// solve, not program bugs, and therefore never warrant a panic.
var expectedFailures = map[error]bnbDecision{
	lp.ErrInfeasible: SUBPROBLEM_NOT_FEASIBLE,
	lp.ErrSingular:   SUBPROBLEM_IS_DEGENERATE,
}

// toInitialSubProblem converts the problem's inequalities (if any) to
// equalities via slack variables, producing the root node of the
// branch-and-bound enumeration tree.
func (p milpProblem) toInitialSubProblem() subProblem {
	cNew := p.c
	Anew := p.A
	bNew := p.b
	intNew := p.integralityConstraints

	if p.G != nil {
		cNew, Anew, bNew = convertToEqualities(p.c, p.A, p.b, p.G, p.h)

		intNew = make([]bool, len(cNew))
		copy(intNew, p.integralityConstraints)
	}

	Anew, bNew = removeEmptyRows(Anew, bNew)

	return subProblem{
		id:                     0,
		c:                      cNew,
		A:                      Anew,
		b:                      bNew,
		integralityConstraints: intNew,
		branchHeuristic:        p.branchingHeuristic,
		bnbConstraints:         []bnbConstraint{},
	}
}

// solve runs branch-and-bound on the problem, distributing enumeration tree
// nodes over the given number of workers. Cancelling ctx aborts the search
// and returns the best incumbent found so far together with ctx.Err().
func (p milpProblem) solve(ctx context.Context, workers int, instrumentation BnbMiddleware) (milpSolution, error) {
	if workers <= 0 {
		panic("ilp: number of workers may not be lower than one")
	}

	if len(p.integralityConstraints) != len(p.c) {
		panic("ilp: integrality constraints vector is not same length as vector c")
	}

	root := p.toInitialSubProblem()

	tree := newEnumerationTree(instrumentation)
	incumbent, rootInfeasible := tree.startSearch(ctx, root, workers)

	if err := ctx.Err(); err != nil {
		if incumbent == nil {
			return milpSolution{}, err
		}
		return milpSolution{solution: *incumbent}, err
	}

	if incumbent == nil {
		if rootInfeasible {
			return milpSolution{}, INITIAL_RELAXATION_NOT_FEASIBLE
		}
		return milpSolution{}, NO_INTEGER_FEASIBLE_SOLUTION
	}

	// drop the slack variables appended by convertToEqualities
	trimmed := *incumbent
	trimmed.x = trimmed.x[:len(p.c)]

	return milpSolution{solution: trimmed}, nil
}
