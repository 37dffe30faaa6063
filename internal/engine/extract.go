package engine

import (
	"fmt"

	"github.com/sep-course/assign-engine/internal/domain"
	"github.com/sep-course/assign-engine/internal/ilp"
)

// assignmentThreshold is the read-back cutoff for a binary decision
// variable to count as "set" (§4.6).
const assignmentThreshold = 0.5

// extractSolution materializes a domain.Solution from any solved stage's
// problem, reading back x[s,p] and q[l,s,p] (§4.6). Student lists per
// project are emitted in matriculation-number ascending order.
func extractSolution(soln *ilp.Solution, inst domain.Instance, v *variables) (domain.Solution, error) {
	out := domain.NewSolution()

	for _, pid := range inst.SortedProjectIDs() {
		out.Projects[pid] = nil
	}

	for _, s := range inst.SortedStudents() {
		placedProject := -1
		for _, pid := range inst.SortedProjectIDs() {
			x := v.x[xKey{Matr: s.MatrNumber, Project: pid}]
			val, err := soln.GetValueFor(x.Name())
			if err != nil {
				return domain.Solution{}, err
			}
			if val >= assignmentThreshold {
				placedProject = pid
				break
			}
		}
		if placedProject == -1 {
			return domain.Solution{}, &ExtractionError{Reason: "student not placed in any project", Matr: s.MatrNumber}
		}

		out.Projects[placedProject] = append(out.Projects[placedProject], s)
		out.Roles[s.MatrNumber] = readRole(soln, v, s, placedProject)
	}

	return out, nil
}

// readRole returns the student's active role (0 if none) within project pid.
func readRole(soln *ilp.Solution, v *variables, s domain.Student, pid int) int {
	for key, q := range v.q {
		if key.Matr != s.MatrNumber || key.Project != pid {
			continue
		}
		val, err := soln.GetValueFor(q.Name())
		if err != nil || val < assignmentThreshold {
			continue
		}
		skill, ok := s.Skill(key.Lang)
		if ok {
			return skill
		}
	}
	return 0
}

// ExtractionError indicates the solver returned a solution that does not
// read back cleanly, which under F1 should be impossible for an optimal
// integer-feasible MILP solve.
type ExtractionError struct {
	Reason string
	Matr   domain.MatrNumber
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("engine: extraction failed for student %d: %s", e.Matr, e.Reason)
}
