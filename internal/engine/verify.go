package engine

import (
	"fmt"

	"github.com/sep-course/assign-engine/internal/domain"
)

// VerificationError reports a Solution that fails one of F1-F5. Per §4.7
// this is a programming error in the core: the solver's constraints should
// make it impossible, so its occurrence is fatal and diagnostic.
type VerificationError struct {
	Rule    string
	Project int
	Matr    domain.MatrNumber
	Detail  string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("engine: verification failed (%s) project=%d student=%d: %s",
		e.Rule, e.Project, e.Matr, e.Detail)
}

// Verify independently re-checks F1-F5 against raw instance data, never
// touching solver variables, per §4.7's requirement that the verifier share
// no code path with the solver layer.
func Verify(inst domain.Instance, sol domain.Solution) error {
	if err := verifySinglePlacement(inst, sol); err != nil {
		return err
	}
	if err := verifyCapacities(inst, sol); err != nil {
		return err
	}
	if err := verifyVetoes(inst, sol); err != nil {
		return err
	}
	if err := verifyRoles(inst, sol); err != nil {
		return err
	}
	return nil
}

// verifySinglePlacement checks F1: every student placed in exactly one project.
func verifySinglePlacement(inst domain.Instance, sol domain.Solution) error {
	count := make(map[domain.MatrNumber]int, len(inst.Students))
	for _, students := range sol.Projects {
		for _, s := range students {
			count[s.MatrNumber]++
		}
	}
	for _, s := range inst.Students {
		if count[s.MatrNumber] != 1 {
			return &VerificationError{Rule: "F1", Matr: s.MatrNumber,
				Detail: fmt.Sprintf("placed in %d projects, want exactly 1", count[s.MatrNumber])}
		}
	}
	return nil
}

// verifyCapacities checks F2-F4: a used project's size lies in
// [min_capacity, capacity]; an unused project is empty.
func verifyCapacities(inst domain.Instance, sol domain.Solution) error {
	for pid, p := range inst.Projects {
		n := len(sol.Projects[pid])
		if n == 0 {
			continue
		}
		if n < p.MinCapacity || n > p.Capacity {
			return &VerificationError{Rule: "F2-F4", Project: pid,
				Detail: fmt.Sprintf("size %d outside [%d,%d]", n, p.MinCapacity, p.Capacity)}
		}
	}
	return nil
}

// verifyVetoes checks F5: no vetoed student is placed in the project that vetoes them.
func verifyVetoes(inst domain.Instance, sol domain.Solution) error {
	for pid, p := range inst.Projects {
		for _, veto := range p.Veto {
			for _, s := range sol.Projects[pid] {
				if s.MatrNumber == veto.MatrNumber {
					return &VerificationError{Rule: "F5", Project: pid, Matr: s.MatrNumber,
						Detail: "vetoed student placed in vetoing project"}
				}
			}
		}
	}
	return nil
}

// verifyRoles checks invariants 4-5 of §8: every non-zero role is backed by
// an actual skill at the student's own project, and per-language role
// counts respect programming_requirements.
func verifyRoles(inst domain.Instance, sol domain.Solution) error {
	langCount := make(map[int]map[string]int)

	for pid, students := range sol.Projects {
		langCount[pid] = make(map[string]int)
		p := inst.Projects[pid]

		for _, s := range students {
			role := sol.Roles[s.MatrNumber]
			if role == 0 {
				continue
			}

			matched := false
			for lang := range p.ProgrammingRequirements {
				if skill, ok := s.Skill(lang); ok && skill == role {
					matched = true
					langCount[pid][lang]++
					break
				}
			}
			if !matched {
				return &VerificationError{Rule: "invariant-4", Project: pid, Matr: s.MatrNumber,
					Detail: fmt.Sprintf("role %d does not match any required-language skill", role)}
			}
		}
	}

	for pid, counts := range langCount {
		p := inst.Projects[pid]
		for lang, n := range counts {
			if cap, ok := p.ProgrammingRequirements[lang]; ok && n > cap {
				return &VerificationError{Rule: "invariant-5", Project: pid,
					Detail: fmt.Sprintf("language %q: %d roles assigned, cap %d", lang, n, cap)}
			}
		}
	}
	return nil
}
