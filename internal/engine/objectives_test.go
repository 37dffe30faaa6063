package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sep-course/assign-engine/internal/domain"
	"github.com/sep-course/assign-engine/internal/ilp"
)

func smallInstance() domain.Instance {
	return domain.Instance{
		Students: []domain.Student{
			{MatrNumber: 1, ProjectRatings: map[int]int{0: 5, 1: 1},
				ProgrammingLanguageRatings: map[string]int{"python": 4}},
			{MatrNumber: 2, ProjectRatings: map[int]int{0: 2, 1: 2},
				ProgrammingLanguageRatings: map[string]int{"python": 2}},
		},
		Projects: map[int]domain.Project{
			0: {ID: 0, Capacity: 5, MinCapacity: 5, ProgrammingRequirements: map[string]int{"python": 1}},
			1: {ID: 1, Capacity: 5, MinCapacity: 5},
		},
	}
}

func TestO1Terms_ExcludesIneligibleStudents(t *testing.T) {
	inst := smallInstance()
	problem := ilp.NewProblem()
	v := buildVariables(&problem, inst)

	eligible := map[domain.MatrNumber]bool{1: true, 2: false}
	terms := o1Terms(inst, v, eligible)

	for _, term := range terms {
		assert.NotEqual(t, "x_2_0", term.v.Name())
		assert.NotEqual(t, "x_2_1", term.v.Name())
	}
	assert.Len(t, terms, 2) // student 1's two ratings only
}

func TestO2Terms_CreditsOwnSkill(t *testing.T) {
	inst := smallInstance()
	problem := ilp.NewProblem()
	v := buildVariables(&problem, inst)

	terms := o2Terms(inst, v)
	require.Len(t, terms, 2) // q exists only for project 0 (requires python)

	for _, term := range terms {
		switch term.v.Name() {
		case "q_python_1_0":
			assert.Equal(t, float64(4), term.coef)
		case "q_python_2_0":
			assert.Equal(t, float64(2), term.coef)
		default:
			t.Fatalf("unexpected term variable %s", term.v.Name())
		}
	}
}

func TestSetObjective_SumsDuplicateVariables(t *testing.T) {
	problem := ilp.NewProblem()
	v := problem.AddVariable("v")

	setObjective(&problem, []objTerm{{coef: 2, v: v}, {coef: 3, v: v}})

	assert.Equal(t, float64(5), v.Coefficient())
}

func TestLockIn_MaximizeDirection(t *testing.T) {
	problem := ilp.NewProblem()
	v := problem.AddVariable("v").Binary()

	// Locking in a maximize-sense objective at v*=1 with alpha=1 forces v == 1
	// (since v is binary, -v <= -1 is only satisfiable at v = 1).
	lockIn(&problem, []objTerm{{coef: 1, v: v}}, true, 1.0, 1.0)
	problem.Minimize()

	soln, err := problem.Solve(context.Background())
	require.NoError(t, err)
	val, err := soln.GetValueFor("v")
	require.NoError(t, err)
	assert.Equal(t, float64(1), val)
}

func TestFriendPairs_SelfPairDropped(t *testing.T) {
	inst := domain.Instance{
		Students: []domain.Student{
			{MatrNumber: 5, Friends: []domain.MatrNumber{5}},
		},
	}
	assert.Empty(t, friendPairs(inst))
}
