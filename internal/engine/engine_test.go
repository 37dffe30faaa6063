package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sep-course/assign-engine/internal/domain"
)

// scenario 1: trivial fit (spec §8, scenario 1).
func TestEngine_Scenario_TrivialFit(t *testing.T) {
	var students []domain.Student
	for i := 0; i < 15; i++ {
		students = append(students, domain.Student{
			LastName: "Student", FirstName: "Trivial",
			MatrNumber:     domain.MatrNumber(1000000 + i),
			ProjectRatings: map[int]int{0: 5, 1: 5, 2: 5},
		})
	}
	inst := domain.Instance{
		Students: students,
		Projects: map[int]domain.Project{
			0: {ID: 0, Name: "P0", Capacity: 5, MinCapacity: 5},
			1: {ID: 1, Name: "P1", Capacity: 5, MinCapacity: 5},
			2: {ID: 2, Name: "P2", Capacity: 5, MinCapacity: 5},
		},
	}
	require.NoError(t, inst.Validate())

	eng := NewEngine(inst, WithWorkers(2))
	sol, err := eng.Solve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sol)

	assert.Equal(t, 4, eng.Stage())
	assert.Len(t, sol.Projects[0], 5)
	assert.Len(t, sol.Projects[1], 5)
	assert.Len(t, sol.Projects[2], 5)

	totalRating := 0
	for pid, placed := range sol.Projects {
		for _, s := range placed {
			totalRating += s.ProjectRatings[pid]
		}
	}
	assert.Equal(t, 75, totalRating)

	for _, role := range sol.Roles {
		assert.Equal(t, 0, role)
	}

	assert.NoError(t, Verify(inst, *sol))
}

// scenario 2: a vetoed student must not end up in the vetoing project.
func TestEngine_Scenario_Veto(t *testing.T) {
	const vetoed = domain.MatrNumber(1000001)

	var students []domain.Student
	students = append(students, domain.Student{
		LastName: "Student", FirstName: "Vetoed",
		MatrNumber:     vetoed,
		ProjectRatings: map[int]int{0: 5, 1: 1},
	})
	for i := 0; i < 9; i++ {
		students = append(students, domain.Student{
			LastName: "Student", FirstName: "Other",
			MatrNumber:     domain.MatrNumber(2000000 + i),
			ProjectRatings: map[int]int{0: 3, 1: 3},
		})
	}

	inst := domain.Instance{
		Students: students,
		Projects: map[int]domain.Project{
			0: {ID: 0, Name: "P0", Capacity: 5, MinCapacity: 5,
				Veto: []domain.VetoRef{{MatrNumber: vetoed}}},
			1: {ID: 1, Name: "P1", Capacity: 5, MinCapacity: 5},
		},
	}
	require.NoError(t, inst.Validate())

	eng := NewEngine(inst, WithWorkers(2))
	sol, err := eng.Solve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sol)

	for _, s := range sol.Projects[0] {
		assert.NotEqual(t, vetoed, s.MatrNumber)
	}
	assert.NoError(t, Verify(inst, *sol))
}

// scenario 4: a friend pair rating projects identically ends up co-located.
func TestEngine_Scenario_FriendPair(t *testing.T) {
	students := []domain.Student{
		{LastName: "Student", FirstName: "A", MatrNumber: 100, ProjectRatings: map[int]int{0: 3, 1: 3}, Friends: []domain.MatrNumber{101}},
		{LastName: "Student", FirstName: "B", MatrNumber: 101, ProjectRatings: map[int]int{0: 3, 1: 3}, Friends: []domain.MatrNumber{100}},
	}
	for i := 0; i < 8; i++ {
		students = append(students, domain.Student{
			LastName: "Student", FirstName: "Other",
			MatrNumber:     domain.MatrNumber(3000000 + i),
			ProjectRatings: map[int]int{0: 3, 1: 3},
		})
	}

	inst := domain.Instance{
		Students: students,
		Projects: map[int]domain.Project{
			0: {ID: 0, Name: "P0", Capacity: 5, MinCapacity: 5},
			1: {ID: 1, Name: "P1", Capacity: 5, MinCapacity: 5},
		},
	}
	require.NoError(t, inst.Validate())

	eng := NewEngine(inst, WithWorkers(2))
	sol, err := eng.Solve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sol)

	p100, ok100 := sol.ProjectOf(100)
	p101, ok101 := sol.ProjectOf(101)
	require.True(t, ok100)
	require.True(t, ok101)
	assert.Equal(t, p100, p101)

	assert.NoError(t, Verify(inst, *sol))
}

// scenario 6: an infeasible veto must surface as a stage failure, not a crash.
func TestEngine_Scenario_InfeasibleVeto(t *testing.T) {
	var students []domain.Student
	for i := 0; i < 6; i++ {
		students = append(students, domain.Student{
			LastName: "Student", FirstName: "Vetoed",
			MatrNumber:     domain.MatrNumber(4000000 + i),
			ProjectRatings: map[int]int{0: 3, 1: 3},
		})
	}
	var vetoAll []domain.VetoRef
	for _, s := range students {
		vetoAll = append(vetoAll, domain.VetoRef{MatrNumber: s.MatrNumber})
	}

	inst := domain.Instance{
		Students: students,
		Projects: map[int]domain.Project{
			0: {ID: 0, Name: "P0", Capacity: 5, MinCapacity: 5, Veto: vetoAll},
			1: {ID: 1, Name: "P1", Capacity: 5, MinCapacity: 5},
		},
	}
	require.NoError(t, inst.Validate())

	eng := NewEngine(inst, WithWorkers(2))
	sol, err := eng.Solve(context.Background())

	assert.Error(t, err)
	assert.Nil(t, sol)
	assert.Equal(t, 0, eng.Stage())
}

// Idempotence law: solve_next_objective past stage 4 returns the same
// solution and leaves stage at 4.
func TestEngine_Idempotent_PastStage4(t *testing.T) {
	inst := trivialInstance(t)

	eng := NewEngine(inst, WithWorkers(2))
	first, err := eng.Solve(context.Background())
	require.NoError(t, err)

	second, err := eng.SolveNextObjective(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, eng.Stage())
	assert.Same(t, first, second)
}

func trivialInstance(t *testing.T) domain.Instance {
	t.Helper()
	var students []domain.Student
	for i := 0; i < 5; i++ {
		students = append(students, domain.Student{
			LastName: "Student", FirstName: "Trivial",
			MatrNumber:     domain.MatrNumber(5000000 + i),
			ProjectRatings: map[int]int{0: 5},
		})
	}
	inst := domain.Instance{
		Students: students,
		Projects: map[int]domain.Project{
			0: {ID: 0, Name: "P0", Capacity: 5, MinCapacity: 5},
		},
	}
	require.NoError(t, inst.Validate())
	return inst
}
