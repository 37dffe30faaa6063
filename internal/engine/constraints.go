package engine

import (
	"github.com/sep-course/assign-engine/internal/domain"
	"github.com/sep-course/assign-engine/internal/ilp"
)

// addFeasibilityConstraints wires F1-F5 (§4.2) into problem.
func addFeasibilityConstraints(problem *ilp.Problem, inst domain.Instance, v *variables) {
	projectIDs := inst.SortedProjectIDs()
	students := inst.SortedStudents()

	// F1: for every student, exactly one project.
	for _, s := range students {
		c := problem.AddConstraint()
		for _, pid := range projectIDs {
			c.AddExpression(1, v.x[xKey{Matr: s.MatrNumber, Project: pid}])
		}
		c.EqualTo(1)
	}

	for _, pid := range projectIDs {
		p := inst.Projects[pid]

		// F2: upper capacity.
		cap := problem.AddConstraint()
		for _, s := range students {
			cap.AddExpression(1, v.x[xKey{Matr: s.MatrNumber, Project: pid}])
		}
		cap.SmallerThanOrEqualTo(float64(p.Capacity))

		// F3: Σ x[s,p] - u[p]*capacity <= 0  (empty-or-used upper hook).
		used := problem.AddConstraint()
		for _, s := range students {
			used.AddExpression(1, v.x[xKey{Matr: s.MatrNumber, Project: pid}])
		}
		used.AddExpression(-float64(p.Capacity), v.u[pid])
		used.SmallerThanOrEqualTo(0)

		// F4: Σ x[s,p] - u[p]*min_capacity >= 0, i.e. -Σx[s,p] + u[p]*min_capacity <= 0.
		minUsed := problem.AddConstraint()
		for _, s := range students {
			minUsed.AddExpression(-1, v.x[xKey{Matr: s.MatrNumber, Project: pid}])
		}
		minUsed.AddExpression(float64(p.MinCapacity), v.u[pid])
		minUsed.SmallerThanOrEqualTo(0)

		// F5: veto.
		for _, veto := range p.Veto {
			if x, ok := v.x[xKey{Matr: veto.MatrNumber, Project: pid}]; ok {
				problem.AddConstraint().AddExpression(1, x).EqualTo(0)
			}
		}
	}
}

// addRoleConstraints wires R1-R2 (§4.3) into problem.
func addRoleConstraints(problem *ilp.Problem, inst domain.Instance, v *variables) {
	students := inst.SortedStudents()

	// R1: Σ_l q[l,s,p] <= x[s,p] for every (s,p).
	for _, s := range students {
		for _, pid := range inst.SortedProjectIDs() {
			var qs []*ilp.Variable
			for key, q := range v.q {
				if key.Matr == s.MatrNumber && key.Project == pid {
					qs = append(qs, q)
				}
			}
			if len(qs) == 0 {
				continue
			}
			c := problem.AddConstraint()
			for _, q := range qs {
				c.AddExpression(1, q)
			}
			c.AddExpression(-1, v.x[xKey{Matr: s.MatrNumber, Project: pid}])
			c.SmallerThanOrEqualTo(0)
		}
	}

	// R2: Σ_s q[l,s,p] <= programming_requirements[p][l].
	for _, pid := range inst.SortedProjectIDs() {
		p := inst.Projects[pid]
		for lang, cap := range p.ProgrammingRequirements {
			var qs []*ilp.Variable
			for key, q := range v.q {
				if key.Lang == lang && key.Project == pid {
					qs = append(qs, q)
				}
			}
			if len(qs) == 0 {
				continue
			}
			c := problem.AddConstraint()
			for _, q := range qs {
				c.AddExpression(1, q)
			}
			c.SmallerThanOrEqualTo(float64(cap))
		}
	}
}
