package engine

import (
	"fmt"
	"sort"

	"github.com/sep-course/assign-engine/internal/domain"
	"github.com/sep-course/assign-engine/internal/ilp"
)

// objTerm is one coef*variable addend of a linear objective, kept around so
// the same expression can be both set as the active objective and, once a
// stage's optimum is known, re-added as a lock-in constraint (§4.5).
type objTerm struct {
	coef float64
	v    *ilp.Variable
}

// friendPair is an unordered, deduplicated pair of matriculation numbers
// (§9's "implement with a set of ordered pairs (min(a,b), max(a,b))").
type friendPair struct {
	a, b domain.MatrNumber
}

// friendPairs derives the instance's deduplicated friend relation.
func friendPairs(inst domain.Instance) []friendPair {
	seen := make(map[friendPair]bool)
	var pairs []friendPair
	for _, s := range inst.SortedStudents() {
		for _, f := range s.Friends {
			if f == s.MatrNumber {
				continue
			}
			a, b := s.MatrNumber, f
			if a > b {
				a, b = b, a
			}
			key := friendPair{a: a, b: b}
			if !seen[key] {
				seen[key] = true
				pairs = append(pairs, key)
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	return pairs
}

// ratingEligible computes §4.4's O1 exclusion set: students with too few
// positive project ratings do not count toward O1. Materialized once per
// Engine and treated as read-only thereafter (§9).
func ratingEligible(inst domain.Instance) map[domain.MatrNumber]bool {
	eligible := make(map[domain.MatrNumber]bool, len(inst.Students))
	for _, s := range inst.Students {
		eligible[s.MatrNumber] = inst.EligibleForRating(s)
	}
	return eligible
}

// o1Terms builds O1's rating objective over the eligible subset of students.
func o1Terms(inst domain.Instance, v *variables, eligible map[domain.MatrNumber]bool) []objTerm {
	var terms []objTerm
	for _, s := range inst.SortedStudents() {
		if !eligible[s.MatrNumber] {
			continue
		}
		for pid, rating := range s.ProjectRatings {
			x, ok := v.x[xKey{Matr: s.MatrNumber, Project: pid}]
			if !ok {
				continue
			}
			terms = append(terms, objTerm{coef: float64(rating), v: x})
		}
	}
	return terms
}

// o2Terms builds O2's programming-role objective: each filled role credited
// by the student's own skill in that language.
func o2Terms(inst domain.Instance, v *variables) []objTerm {
	var terms []objTerm
	for key, q := range v.q {
		student, ok := inst.StudentByMatr(key.Matr)
		if !ok {
			continue
		}
		skill, ok := student.Skill(key.Lang)
		if !ok {
			continue
		}
		terms = append(terms, objTerm{coef: float64(skill), v: q})
	}
	return terms
}

// o3Terms builds O3's friend-co-location objective, introducing the
// auxiliary y[a,b,p] clamp variables and constraints as it goes (§4.4, §9).
func o3Terms(problem *ilp.Problem, inst domain.Instance, v *variables) []objTerm {
	var terms []objTerm
	for _, pair := range friendPairs(inst) {
		for _, pid := range inst.SortedProjectIDs() {
			xa, okA := v.x[xKey{Matr: pair.a, Project: pid}]
			xb, okB := v.x[xKey{Matr: pair.b, Project: pid}]
			if !okA || !okB {
				continue
			}

			name := fmt.Sprintf("y_%d_%d_%d", pair.a, pair.b, pid)
			y := problem.AddVariable(name).Binary()

			problem.AddConstraint().AddExpression(1, y).AddExpression(-1, xa).SmallerThanOrEqualTo(0)
			problem.AddConstraint().AddExpression(1, y).AddExpression(-1, xb).SmallerThanOrEqualTo(0)

			terms = append(terms, objTerm{coef: 1, v: y})
		}
	}
	return terms
}

// o4Objective builds O4's size-deviation objective: for each project a
// signed deviation d[p] from opt_size is split into non-negative dPos/dNeg
// halves, and a shared M is constrained to be at least their sum for every
// project, so minimizing M minimizes the worst project's |d[p]| (§4.4).
// Returns the single-variable objective term (coefficient 1, variable M).
func o4Objective(problem *ilp.Problem, inst domain.Instance, v *variables) []objTerm {
	m := problem.AddVariable("size_deviation_M").IsInteger().LowerBound(0)

	for _, pid := range inst.SortedProjectIDs() {
		p := inst.Projects[pid]
		optSize := p.OptSize()

		dPos := problem.AddVariable(fmt.Sprintf("d_pos_%d", pid)).IsInteger().LowerBound(0).UpperBound(float64(p.Capacity))
		dNeg := problem.AddVariable(fmt.Sprintf("d_neg_%d", pid)).IsInteger().LowerBound(0).UpperBound(float64(p.Capacity))

		// Σ_s x[s,p] - dPos + dNeg == opt_size  <=>  Σ x[s,p] - dPos + dNeg - opt_size == 0
		eq := problem.AddConstraint()
		for _, s := range inst.SortedStudents() {
			eq.AddExpression(1, v.x[xKey{Matr: s.MatrNumber, Project: pid}])
		}
		eq.AddExpression(-1, dPos)
		eq.AddExpression(1, dNeg)
		eq.EqualTo(float64(optSize))

		// M >= dPos + dNeg  <=>  dPos + dNeg - M <= 0
		problem.AddConstraint().
			AddExpression(1, dPos).
			AddExpression(1, dNeg).
			AddExpression(-1, m).
			SmallerThanOrEqualTo(0)
	}

	return []objTerm{{coef: 1, v: m}}
}

// setObjective applies terms as the active objective coefficients, summing
// coefficients when a variable appears more than once.
func setObjective(problem *ilp.Problem, terms []objTerm) {
	seen := make(map[*ilp.Variable]float64)
	order := make([]*ilp.Variable, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t.v]; !ok {
			order = append(order, t.v)
		}
		seen[t.v] += t.coef
	}
	for _, v := range order {
		v.SetCoeff(seen[v])
	}
}

// lockIn appends the lock-in constraint for a stage that achieved value v*
// under maximize (true) or minimize (false) sense, with tolerance alpha
// (§4.5). For maximize: Σterms >= alpha*v*, expressed as -Σterms <= -alpha*v*.
// For minimize: Σterms <= alpha*v*.
func lockIn(problem *ilp.Problem, terms []objTerm, maximize bool, alpha, vStar float64) {
	c := problem.AddConstraint()
	if maximize {
		for _, t := range terms {
			c.AddExpression(-t.coef, t.v)
		}
		c.SmallerThanOrEqualTo(-alpha * vStar)
		return
	}
	for _, t := range terms {
		c.AddExpression(t.coef, t.v)
	}
	c.SmallerThanOrEqualTo(alpha * vStar)
}
