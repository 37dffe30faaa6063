package engine

import (
	"fmt"

	"github.com/sep-course/assign-engine/internal/domain"
	"github.com/sep-course/assign-engine/internal/ilp"
)

// xKey identifies an x[s,p] assignment variable.
type xKey struct {
	Matr    domain.MatrNumber
	Project int
}

// qKey identifies a q[l,s,p] role variable.
type qKey struct {
	Lang    string
	Matr    domain.MatrNumber
	Project int
}

// variables holds the decision-variable layer (§4.1) for one stage's fresh
// ilp.Problem. A new set is built for every stage since each stage solves a
// freshly constructed Problem (the ilp package does not support mutating an
// already-solved Problem in place).
type variables struct {
	x map[xKey]*ilp.Variable
	u map[int]*ilp.Variable
	q map[qKey]*ilp.Variable
}

// buildVariables allocates x[s,p], u[p] and q[l,s,p] on problem, following
// the sparsity rule for q: only created when project p requires language l
// and student s has rated l.
func buildVariables(problem *ilp.Problem, inst domain.Instance) *variables {
	v := &variables{
		x: make(map[xKey]*ilp.Variable),
		u: make(map[int]*ilp.Variable),
		q: make(map[qKey]*ilp.Variable),
	}

	projectIDs := inst.SortedProjectIDs()

	for _, s := range inst.SortedStudents() {
		for _, pid := range projectIDs {
			name := fmt.Sprintf("x_%d_%d", s.MatrNumber, pid)
			v.x[xKey{Matr: s.MatrNumber, Project: pid}] = problem.AddVariable(name).Binary()
		}
	}

	for _, pid := range projectIDs {
		name := fmt.Sprintf("u_%d", pid)
		v.u[pid] = problem.AddVariable(name).Binary()
	}

	for _, pid := range projectIDs {
		p := inst.Projects[pid]
		for lang := range p.ProgrammingRequirements {
			for _, s := range inst.SortedStudents() {
				if _, rated := s.Skill(lang); !rated {
					continue
				}
				name := fmt.Sprintf("q_%s_%d_%d", lang, s.MatrNumber, pid)
				v.q[qKey{Lang: lang, Matr: s.MatrNumber, Project: pid}] = problem.AddVariable(name).Binary()
			}
		}
	}

	return v
}
