package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sep-course/assign-engine/internal/domain"
)

func TestVerify_OK(t *testing.T) {
	students := []domain.Student{{MatrNumber: 1}, {MatrNumber: 2}, {MatrNumber: 3}, {MatrNumber: 4}, {MatrNumber: 5}}
	inst := domain.Instance{
		Students: students,
		Projects: map[int]domain.Project{
			0: {ID: 0, Capacity: 5, MinCapacity: 5},
		},
	}
	sol := domain.NewSolution()
	sol.Projects[0] = students

	assert.NoError(t, Verify(inst, sol))
}

func TestVerify_DetectsMissingPlacement(t *testing.T) {
	inst := domain.Instance{
		Students: []domain.Student{{MatrNumber: 1}, {MatrNumber: 2}},
		Projects: map[int]domain.Project{0: {ID: 0, Capacity: 5, MinCapacity: 5}},
	}
	sol := domain.NewSolution()
	sol.Projects[0] = []domain.Student{{MatrNumber: 1}}

	err := Verify(inst, sol)
	assert.Error(t, err)
	verr, ok := err.(*VerificationError)
	if assert.True(t, ok) {
		assert.Equal(t, "F1", verr.Rule)
	}
}

func TestVerify_DetectsVeto(t *testing.T) {
	students := []domain.Student{{MatrNumber: 1}, {MatrNumber: 2}, {MatrNumber: 3}, {MatrNumber: 4}, {MatrNumber: 5}}
	inst := domain.Instance{
		Students: students,
		Projects: map[int]domain.Project{
			0: {ID: 0, Capacity: 5, MinCapacity: 5, Veto: []domain.VetoRef{{MatrNumber: 1}}},
		},
	}
	sol := domain.NewSolution()
	sol.Projects[0] = students

	err := Verify(inst, sol)
	assert.Error(t, err)
	assert.Equal(t, "F5", err.(*VerificationError).Rule)
}

func TestVerify_DetectsUndersizedUsedProject(t *testing.T) {
	inst := domain.Instance{
		Students: []domain.Student{{MatrNumber: 1}},
		Projects: map[int]domain.Project{0: {ID: 0, Capacity: 5, MinCapacity: 5}},
	}
	sol := domain.NewSolution()
	sol.Projects[0] = []domain.Student{{MatrNumber: 1}}

	// Only 1 placed, but the project is "used" and requires >= 5: F1 passes
	// (single placement across the whole instance) while F2-F4 must catch it.
	err := Verify(inst, sol)
	assert.Error(t, err)
	assert.Equal(t, "F2-F4", err.(*VerificationError).Rule)
}

func TestVerify_DetectsBadRole(t *testing.T) {
	students := []domain.Student{
		{MatrNumber: 1, ProgrammingLanguageRatings: map[string]int{"python": 3}},
		{MatrNumber: 2}, {MatrNumber: 3}, {MatrNumber: 4}, {MatrNumber: 5},
	}
	inst := domain.Instance{
		Students: students,
		Projects: map[int]domain.Project{
			0: {ID: 0, Capacity: 5, MinCapacity: 5, ProgrammingRequirements: map[string]int{"python": 1}},
		},
	}
	sol := domain.NewSolution()
	sol.Projects[0] = students
	sol.Roles[1] = 4 // student's real python skill is 3, not 4

	err := Verify(inst, sol)
	assert.Error(t, err)
	assert.Equal(t, "invariant-4", err.(*VerificationError).Rule)
}
