// Package ilp implements a small branch-and-bound solver for mixed-integer
// linear programs: binary and general integer variables, linear equality
// and inequality constraints, and a linear objective.
//
// It is deliberately narrow: no continuous-only LP shortcuts, no warm
// starts, no presolve beyond dropping structurally empty rows. Callers that
// need a single MILP solved to optimality and read back by variable name
// are the intended audience; the lexicographic, multi-stage re-solving
// needed by higher-level callers is expected to live outside this package,
// reusing a fresh Problem per stage.
package ilp

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Problem is the abstract MILP problem representation: a set of variables,
// a set of linear constraints over them, and an optimization sense.
type Problem struct {
	// minimizes by default
	maximize bool

	variables   []*Variable
	constraints []*Constraint

	// branching heuristic to use for branch-and-bound (defaults to BRANCH_MAXFUN)
	branchingHeuristic BranchHeuristic

	// number of workers used to traverse the branch-and-bound enumeration tree
	workers int

	// optional observer of branch-and-bound decisions; defaults to a no-op
	instrumentation BnbMiddleware
}

// Variable is a decision variable of the MILP problem.
type Variable struct {
	name string

	// coefficient of the variable in the objective function
	coefficient float64

	// integrality constraint
	integer bool

	// bounds, inclusive
	upper float64
	lower float64
}

// expression is a coefficient applied to a variable, for use in constraints.
type expression struct {
	coef     float64
	variable *Variable
}

// Constraint is a single linear constraint: a sum of expressions related to
// a right-hand side by either equality or "smaller than or equal to".
type Constraint struct {
	expressions []expression
	rhs         float64

	// true for an inequality (<=), false for an equality (==)
	inequality bool

	problem *Problem
}

// NewProblem initiates a new, empty MILP problem abstraction with a single
// branch-and-bound worker.
func NewProblem() Problem {
	return Problem{
		workers: 1,
	}
}

// AddVariable adds a variable and returns a reference to it. Defaults to no
// integrality constraint, a zero objective coefficient, and a [0, +Inf) domain.
func (p *Problem) AddVariable(name string) *Variable {
	v := Variable{
		name:        name,
		coefficient: 0,
		integer:     false,
		upper:       math.Inf(1),
		lower:       0,
	}

	p.variables = append(p.variables, &v)

	return &v
}

// Name returns the variable's name, as given to AddVariable.
func (v *Variable) Name() string {
	return v.name
}

// Coefficient returns the variable's current objective coefficient.
func (v *Variable) Coefficient() float64 {
	return v.coefficient
}

// SetCoeff sets the value of the variable in the objective function.
func (v *Variable) SetCoeff(coef float64) *Variable {
	v.coefficient = coef
	return v
}

// IsInteger marks the variable as integer-constrained. Combine with
// UpperBound(1) for a binary variable.
func (v *Variable) IsInteger() *Variable {
	v.integer = true
	return v
}

// UpperBound sets the inclusive upper bound of this variable.
func (v *Variable) UpperBound(bound float64) *Variable {
	v.upper = bound
	return v
}

// LowerBound sets the inclusive lower bound of this variable.
func (v *Variable) LowerBound(bound float64) *Variable {
	v.lower = bound
	return v
}

// Binary is shorthand for IsInteger().UpperBound(1).LowerBound(0).
func (v *Variable) Binary() *Variable {
	return v.IsInteger().UpperBound(1).LowerBound(0)
}

// AddConstraint starts a new constraint on the problem and returns it for
// further configuration (AddExpression, then EqualTo or
// SmallerThanOrEqualTo).
func (p *Problem) AddConstraint() *Constraint {
	c := &Constraint{
		problem: p,
	}
	p.constraints = append(p.constraints, c)

	return c
}

// EqualTo finalizes the constraint as an equality with the given right-hand side.
func (c *Constraint) EqualTo(val float64) *Constraint {
	c.inequality = false
	c.rhs = val
	return c
}

// SmallerThanOrEqualTo finalizes the constraint as "<= val".
func (c *Constraint) SmallerThanOrEqualTo(val float64) *Constraint {
	c.inequality = true
	c.rhs = val
	return c
}

// AddExpression appends coef*v to the left-hand side of the constraint. The
// variable must already have been added to the same Problem; otherwise this
// panics.
func (c *Constraint) AddExpression(coef float64, v *Variable) *Constraint {
	c.problem.getVariableIndex(v)

	c.expressions = append(c.expressions, expression{coef: coef, variable: v})
	return c
}

// Maximize sets the optimization sense to maximization.
func (p *Problem) Maximize() {
	p.maximize = true
}

// Minimize sets the optimization sense to minimization. This is the default.
func (p *Problem) Minimize() {
	p.maximize = false
}

// BranchingHeuristic selects the variable-selection rule used during
// branch-and-bound.
func (p *Problem) BranchingHeuristic(choice BranchHeuristic) {
	p.branchingHeuristic = choice
}

// Workers sets the number of goroutines used to traverse the
// branch-and-bound enumeration tree. Must be at least 1.
func (p *Problem) Workers(n int) {
	if n < 1 {
		panic("ilp: workers must be at least 1")
	}
	p.workers = n
}

// Instrument registers an observer that is notified of every subproblem
// created and every branch-and-bound decision made while solving. Useful
// for diagnosing a stage that is slow or appears stuck.
func (p *Problem) Instrument(mw BnbMiddleware) {
	p.instrumentation = mw
}

// checkExpression reports whether e's variable is one of p's variables.
func (p *Problem) checkExpression(e expression) bool {
	for _, v := range p.variables {
		if v == e.variable {
			return true
		}
	}
	return false
}

// getVariableIndex returns the index of v within p.variables using a linear
// search, panicking if v does not belong to p.
func (p *Problem) getVariableIndex(v *Variable) int {
	for i, va := range p.variables {
		if v == va {
			return i
		}
	}
	panic("ilp: variable pointer not found in Problem")
}

// toSolveable converts the abstract Problem to its concrete numerical
// representation, folding variable bounds into the inequality system.
func (p *Problem) toSolveable() *milpProblem {
	var c []float64
	var integrality []bool
	for _, v := range p.variables {
		k := v.coefficient
		if p.maximize {
			// minimize by default; negate to turn maximization into minimization
			k = k * -1
		}

		c = append(c, k)
		integrality = append(integrality, v.integer)
	}

	var b []float64
	var Adata []float64
	var h []float64
	var Gdata []float64
	for _, constraint := range p.constraints {
		row := make([]float64, len(p.variables))
		for _, exp := range constraint.expressions {
			i := p.getVariableIndex(exp.variable)
			row[i] = exp.coef
		}

		if constraint.inequality {
			Gdata = append(Gdata, row...)
			h = append(h, constraint.rhs)
		} else {
			Adata = append(Adata, row...)
			b = append(b, constraint.rhs)
		}
	}

	var A *mat.Dense
	if len(b) > 0 {
		A = mat.NewDense(len(b), len(p.variables), Adata)
	}

	// fold variable bounds into the inequality system
	for _, v := range p.variables {
		if !math.IsInf(v.upper, 1) {
			row := make([]float64, len(p.variables))
			row[p.getVariableIndex(v)] = 1
			Gdata = append(Gdata, row...)
			h = append(h, v.upper)
		}

		if v.lower > 0 {
			row := make([]float64, len(p.variables))
			row[p.getVariableIndex(v)] = -1
			Gdata = append(Gdata, row...)
			h = append(h, -v.lower)
		}
	}

	var G *mat.Dense
	if len(h) > 0 {
		G = mat.NewDense(len(h), len(p.variables), Gdata)
	}

	return &milpProblem{
		c:                      c,
		A:                      A,
		b:                      b,
		G:                      G,
		h:                      h,
		integralityConstraints: integrality,
		branchingHeuristic:     p.branchingHeuristic,
	}
}

// Solve converts the abstract Problem to its numerical form, runs
// branch-and-bound until optimality, a context cancellation, or exhaustion
// of the enumeration tree, and returns the resulting Solution.
func (p *Problem) Solve(ctx context.Context) (*Solution, error) {
	mw := p.instrumentation
	if mw == nil {
		mw = dummyMiddleware{}
	}

	milp := p.toSolveable()

	soln, err := milp.solve(ctx, p.workers, mw)
	if err != nil {
		return nil, err
	}

	objective := soln.solution.z
	if p.maximize {
		objective = -objective
	}

	solution := Solution{
		Objective: objective,
		byName:    make(map[string]float64, len(p.variables)),
	}

	for i, v := range p.variables {
		val := soln.solution.x[i]

		solution.Coefficients = append(solution.Coefficients, struct {
			Name string
			Coef float64
		}{Name: v.name, Coef: val})

		solution.byName[v.name] = val
	}

	return &solution, nil
}

// Solution contains the results of a solved Problem.
type Solution struct {
	// Objective is reported in the Problem's own optimization sense: the
	// true maximum for a maximized Problem, the true minimum otherwise.
	Objective float64

	// Coefficients holds the variables and their optimal values in the
	// order they were originally added to the Problem.
	Coefficients []struct {
		Name string
		Coef float64
	}

	byName map[string]float64
}

// GetValueFor retrieves the optimal value for a decision variable by name.
func (s *Solution) GetValueFor(varName string) (float64, error) {
	val, ok := s.byName[varName]
	if !ok {
		return 0, fmt.Errorf("ilp: variable %q not found in Solution", varName)
	}
	return val, nil
}
