package domain

import (
	"fmt"
	"strings"
)

// ValidationError aggregates every invariant violation found while
// validating an Instance. It mirrors the reference implementation's
// Pydantic validators, which all run and report together rather than
// failing fast on the first violation.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("instance validation failed (%d violations):\n  - %s",
		len(e.Violations), strings.Join(e.Violations, "\n  - "))
}

func (e *ValidationError) add(format string, args ...any) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

// Validate checks every instance-level invariant from spec §3/§6 and
// returns an aggregated *ValidationError, or nil if the instance is legal.
func (inst Instance) Validate() error {
	verr := &ValidationError{}

	inst.validateNames(verr)
	inst.validateMatrNumbers(verr)
	inst.validateRatings(verr)
	inst.validateSkills(verr)
	inst.validateFriends(verr)
	inst.validateProjects(verr)
	inst.validateCapacitySum(verr)
	inst.validateVetoes(verr)

	if len(verr.Violations) == 0 {
		return nil
	}
	return verr
}

func (inst Instance) validateNames(verr *ValidationError) {
	for _, s := range inst.Students {
		if strings.TrimSpace(s.LastName) == "" {
			verr.add("student %d: last_name must not be empty", s.MatrNumber)
		}
		if strings.TrimSpace(s.FirstName) == "" {
			verr.add("student %d: first_name must not be empty", s.MatrNumber)
		}
	}
}

func (inst Instance) validateMatrNumbers(verr *ValidationError) {
	seen := make(map[MatrNumber]bool, len(inst.Students))
	for _, s := range inst.Students {
		if s.MatrNumber < 0 || s.MatrNumber > MaxMatrNumber {
			verr.add("student %d: matr_number must be in [0, %d]", s.MatrNumber, MaxMatrNumber)
		}
		if seen[s.MatrNumber] {
			verr.add("duplicate matriculation number %d", s.MatrNumber)
		}
		seen[s.MatrNumber] = true
	}
}

func (inst Instance) validateRatings(verr *ValidationError) {
	for _, s := range inst.Students {
		for pid, rating := range s.ProjectRatings {
			if rating < 1 || rating > 5 {
				verr.add("student %d: rating %d for project %d must be in [1,5]", s.MatrNumber, rating, pid)
			}
			if _, ok := inst.Projects[pid]; !ok {
				verr.add("student %d: rates unknown project %d", s.MatrNumber, pid)
			}
		}
	}
}

func (inst Instance) validateSkills(verr *ValidationError) {
	for _, s := range inst.Students {
		for lang, skill := range s.ProgrammingLanguageRatings {
			if skill < 1 || skill > 4 {
				verr.add("student %d: skill %d for language %q must be in [1,4]", s.MatrNumber, skill, lang)
			}
		}
	}
}

func (inst Instance) validateFriends(verr *ValidationError) {
	known := make(map[MatrNumber]bool, len(inst.Students))
	for _, s := range inst.Students {
		known[s.MatrNumber] = true
	}
	for _, s := range inst.Students {
		if len(s.Friends) > 2 {
			verr.add("student %d: at most 2 friends allowed, got %d", s.MatrNumber, len(s.Friends))
		}
		for _, f := range s.Friends {
			if !known[f] {
				verr.add("student %d: friend reference %d does not exist", s.MatrNumber, f)
			}
			if f == s.MatrNumber {
				verr.add("student %d: cannot list themself as a friend", s.MatrNumber)
			}
		}
	}
}

func (inst Instance) validateProjects(verr *ValidationError) {
	for id, p := range inst.Projects {
		if p.ID != id {
			verr.add("project key %d does not match project.id %d", id, p.ID)
		}
		if id < 0 {
			verr.add("project %d: id must be non-negative", id)
		}
		if p.Capacity < 5 {
			verr.add("project %d: capacity must be >= 5, got %d", id, p.Capacity)
		}
		if p.MinCapacity < 5 {
			verr.add("project %d: min_capacity must be >= 5, got %d", id, p.MinCapacity)
		}
		if p.MinCapacity > p.Capacity {
			verr.add("project %d: min_capacity %d exceeds capacity %d", id, p.MinCapacity, p.Capacity)
		}
		for lang, n := range p.ProgrammingRequirements {
			if n < 0 {
				verr.add("project %d: programming_requirements[%q] must be >= 0, got %d", id, lang, n)
			}
		}
	}
}

func (inst Instance) validateCapacitySum(verr *ValidationError) {
	sum := 0
	for _, p := range inst.Projects {
		sum += p.Capacity
	}
	if sum < len(inst.Students) {
		verr.add("sum of project capacities %d is below student count %d", sum, len(inst.Students))
	}
}

func (inst Instance) validateVetoes(verr *ValidationError) {
	known := make(map[MatrNumber]bool, len(inst.Students))
	for _, s := range inst.Students {
		known[s.MatrNumber] = true
	}
	for id, p := range inst.Projects {
		for _, v := range p.Veto {
			if !known[v.MatrNumber] {
				verr.add("project %d: veto references unknown student %d", id, v.MatrNumber)
			}
		}
	}
}
