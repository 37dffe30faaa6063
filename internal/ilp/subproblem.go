package ilp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// subProblem is a single node of the branch-and-bound enumeration tree: the
// original problem's constraints plus whatever additional bounds
// branch-and-bound has accumulated on the path from the root.
type subProblem struct {
	id     int64
	parent int64

	// same meaning as in milpProblem; must not be modified in place.
	c []float64
	A *mat.Dense
	b []float64
	G *mat.Dense
	h []float64

	integralityConstraints []bool
	branchHeuristic        BranchHeuristic

	// additional inequality constraints accumulated while descending the tree
	bnbConstraints []bnbConstraint
}

// bnbConstraint is one branch-and-bound bound added on a single variable:
// gsharp . x <= hsharp.
type bnbConstraint struct {
	branchedVariable int
	hsharp           float64
	gsharp           []float64
}

// solution is the result of solving a single subProblem's LP relaxation.
type solution struct {
	problem *subProblem
	x       []float64
	z       float64
	err     error
}

// combineInequalities returns the full G, h pair for this subproblem: the
// original problem's inequalities (if any) stacked with the
// branch-and-bound bounds accumulated on the path from the root.
func (p subProblem) combineInequalities() (*mat.Dense, []float64) {
	if len(p.bnbConstraints) == 0 {
		if p.G != nil {
			return mat.DenseCopyOf(p.G), p.h
		}
		return nil, nil
	}

	h := p.h

	var bnbGvects []float64
	for _, constr := range p.bnbConstraints {
		bnbGvects = append(bnbGvects, constr.gsharp...)
		h = append(h, constr.hsharp)
	}
	bnbG := mat.NewDense(len(p.bnbConstraints), len(p.c), bnbGvects)

	if p.G == nil || p.G.IsZero() {
		return bnbG, h
	}

	origRows, _ := p.G.Dims()
	bnbRows, _ := bnbG.Dims()

	Gnew := mat.NewDense(origRows+bnbRows, len(p.c), nil)
	Gnew.Stack(p.G, bnbG)

	return Gnew, h
}

// convertToEqualities rewrites a problem with inequalities (G, h) into an
// equivalent problem with only equalities (A, b) by introducing one
// nonnegative slack variable per inequality row.
func convertToEqualities(c []float64, A *mat.Dense, b []float64, G *mat.Dense, h []float64) (cNew []float64, aNew *mat.Dense, bNew []float64) {
	if G == nil {
		panic("ilp: G matrix is nil")
	}

	if insane := sanityCheckDimensions(c, A, b, G, h); insane != nil {
		panic(insane)
	}

	nVar := len(c)
	nCons := len(b)
	nIneq := len(h)

	nNewVar := nVar + nIneq
	nNewCons := nCons + nIneq

	cNew = make([]float64, nNewVar)
	copy(cNew, c)

	bNew = make([]float64, nNewCons)
	copy(bNew, b)
	copy(bNew[nCons:], h)

	aNew = mat.NewDense(nNewCons, nNewVar, nil)

	if A != nil {
		aNew.Slice(0, nCons, 0, nVar).(*mat.Dense).Copy(A)
	}

	aNew.Slice(nCons, nNewCons, 0, nVar).(*mat.Dense).Copy(G)

	bottomRight := aNew.Slice(nCons, nNewCons, nVar, nVar+nIneq).(*mat.Dense)
	for i := 0; i < nIneq; i++ {
		bottomRight.Set(i, i, 1)
	}

	if insane := sanityCheckDimensions(cNew, aNew, bNew, nil, nil); insane != nil {
		panic(insane)
	}

	return
}

// solve runs gonum's dense simplex on this subproblem's LP relaxation,
// folding in any branch-and-bound bounds via slack variables first.
func (p subProblem) solve() solution {
	G, h := p.combineInequalities()

	var z float64
	var x []float64
	var err error

	if G != nil {
		c, A, b := convertToEqualities(p.c, p.A, p.b, G, h)
		z, x, err = lp.Simplex(c, A, b, 0, nil)
		if err == nil && len(x) != len(p.c) {
			x = x[:len(p.c)]
		}
	} else {
		z, x, err = lp.Simplex(p.c, p.A, p.b, 0, nil)
	}

	return solution{
		problem: &p,
		x:       x,
		z:       z,
		err:     err,
	}
}

// branch splits the solution into two subproblems along the variable
// chosen by the parent problem's branching heuristic: one constrained to
// floor(value) or below, the other to ceil(value) or above. If the
// heuristic picks a variable whose value is already integral, the first
// fractional integrality-constrained variable is branched on instead.
func (s solution) branch() (p1, p2 subProblem) {
	branchOn := 0
	switch s.problem.branchHeuristic {
	case BRANCH_MAXFUN:
		branchOn = maxFunBranchPoint(s.problem.c, s.problem.integralityConstraints)
	case BRANCH_MOST_INFEASIBLE:
		branchOn = mostInfeasibleBranchPoint(s.x, s.problem.integralityConstraints)
	case BRANCH_NAIVE:
		branchOn = s.naiveBranchPoint()
	default:
		panic("ilp: unknown branching heuristic")
	}

	if math.Abs(s.x[branchOn]-math.Round(s.x[branchOn])) <= integerFeasibilityTolerance {
		for i, constrained := range s.problem.integralityConstraints {
			if constrained && math.Abs(s.x[i]-math.Round(s.x[i])) > integerFeasibilityTolerance {
				branchOn = i
				break
			}
		}
	}

	currentCoeff := s.x[branchOn]

	p1 = s.problem.getChild(branchOn, 1, math.Floor(currentCoeff))
	p2 = s.problem.getChild(branchOn, -1, -(math.Floor(currentCoeff) + 1))

	p1.id = 2*s.problem.id + 1
	p2.id = 2*s.problem.id + 2
	p1.parent = s.problem.id
	p2.parent = s.problem.id

	return
}

// getChild inherits everything from the parent problem, appending one new
// branch-and-bound bound: factor*x[branchOn] <= smallerOrEqualThan.
func (p subProblem) getChild(branchOn int, factor float64, smallerOrEqualThan float64) subProblem {
	child := p.copy()
	newConstraint := bnbConstraint{
		branchedVariable: branchOn,
		hsharp:           smallerOrEqualThan,
		gsharp:           make([]float64, len(p.c)),
	}
	newConstraint.gsharp[branchOn] = factor

	child.bnbConstraints = append(child.bnbConstraints, newConstraint)

	return child
}

// copy returns a shallow copy of p with its own bnbConstraints slice, so
// that appending a bound on one branch never mutates its sibling.
func (p *subProblem) copy() subProblem {
	new := subProblem{
		id:                     p.id,
		parent:                 p.parent,
		c:                      p.c,
		A:                      p.A,
		b:                      p.b,
		G:                      p.G,
		h:                      p.h,
		branchHeuristic:        p.branchHeuristic,
		bnbConstraints:         make([]bnbConstraint, len(p.bnbConstraints)),
		integralityConstraints: p.integralityConstraints,
	}

	copy(new.bnbConstraints, p.bnbConstraints)

	return new
}

// sanityCheckDimensions validates that the constraint matrices and vectors
// describing a problem are mutually consistent.
func sanityCheckDimensions(c []float64, A *mat.Dense, b []float64, G *mat.Dense, h []float64) error {
	if G == nil && A == nil {
		return errors.New("ilp: no constraint matrices provided")
	}

	if G != nil {
		if h == nil {
			return errors.New("ilp: h vector is nil while G matrix is provided")
		}
		rG, cG := G.Dims()
		if rG != len(h) {
			return errors.New("ilp: number of rows in G matrix does not match length of h")
		}
		if cG != len(c) {
			return errors.New("ilp: number of columns in G matrix does not match number of variables")
		}
	}

	if h != nil && G == nil {
		return errors.New("ilp: G matrix is nil while h vector is provided")
	}

	if A != nil {
		rA, cA := A.Dims()
		if rA != len(b) {
			return errors.New("ilp: number of rows in A matrix does not match length of b")
		}
		if cA != len(c) {
			return errors.New("ilp: number of columns in A matrix does not match number of variables")
		}
	}

	if b != nil && A == nil {
		return errors.New("ilp: A matrix is nil while b vector is provided")
	}

	return nil
}
