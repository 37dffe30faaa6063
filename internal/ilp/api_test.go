package ilp

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestProblem_checkExpression(t *testing.T) {
	prob := NewProblem()
	v := prob.AddVariable("v1").SetCoeff(1)

	expr1 := expression{variable: v, coef: 2}
	assert.True(t, prob.checkExpression(expr1))

	expr2 := expression{variable: &Variable{coefficient: 1, integer: false}, coef: 1}
	assert.False(t, prob.checkExpression(expr2))
}

func TestProblem_toSolveableA(t *testing.T) {
	prob := NewProblem()

	v1 := prob.AddVariable("v1").SetCoeff(-1)
	v2 := prob.AddVariable("v2").SetCoeff(-2)
	v3 := prob.AddVariable("v3").SetCoeff(1)
	v4 := prob.AddVariable("v4").SetCoeff(3)

	prob.AddConstraint().AddExpression(1, v1).EqualTo(5)
	prob.AddConstraint().AddExpression(3, v2).EqualTo(2)
	prob.AddConstraint().AddExpression(1, v3).EqualTo(2)
	prob.AddConstraint().AddExpression(1, v4).SmallerThanOrEqualTo(2)

	solveable := prob.toSolveable()
	expected := milpProblem{
		c: []float64{-1, -2, 1, 3},
		A: mat.NewDense(3, 4, []float64{
			1, 0, 0, 0,
			0, 3, 0, 0,
			0, 0, 1, 0,
		}),
		b: []float64{5, 2, 2},
		G: mat.NewDense(1, 4, []float64{
			0, 0, 0, 1,
		}),
		h:                      []float64{2},
		integralityConstraints: []bool{false, false, false, false},
	}

	assert.Equal(t, expected, *solveable)

	soln, err := prob.Solve(context.Background())
	assert.NoError(t, err)

	getVal := func(n string) float64 {
		x, err := soln.GetValueFor(n)
		assert.NoError(t, err)
		return x
	}

	assert.Equal(t, float64(5), getVal("v1"))
	assert.Equal(t, float64(0.6666666666666666), getVal("v2"))
	assert.Equal(t, float64(2), getVal("v3"))
	assert.Equal(t, float64(0), getVal("v4"))
}

func TestProblem_toSolveableB(t *testing.T) {
	prob := NewProblem()

	v1 := prob.AddVariable("v1").SetCoeff(-1)
	v2 := prob.AddVariable("v2").IsInteger().SetCoeff(-2)
	v3 := prob.AddVariable("v3").IsInteger().SetCoeff(1)

	prob.AddConstraint().AddExpression(1, v1).EqualTo(5)
	prob.AddConstraint().AddExpression(3, v2).EqualTo(2)
	prob.AddConstraint().AddExpression(1, v3).EqualTo(2)

	solveable := prob.toSolveable()
	expected := milpProblem{
		c: []float64{-1, -2, 1},
		A: mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, 3, 0,
			0, 0, 1,
		}),
		b:                      []float64{5, 2, 2},
		G:                      nil,
		h:                      nil,
		integralityConstraints: []bool{false, true, true},
	}

	assert.Equal(t, expected, *solveable)
}

func TestProblem_Solve_Maximize(t *testing.T) {
	prob := NewProblem()
	prob.Maximize()

	x := prob.AddVariable("x").SetCoeff(3).Binary()
	y := prob.AddVariable("y").SetCoeff(5).Binary()

	prob.AddConstraint().AddExpression(1, x).AddExpression(1, y).SmallerThanOrEqualTo(1)

	soln, err := prob.Solve(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, float64(5), soln.Objective)

	xv, _ := soln.GetValueFor("x")
	yv, _ := soln.GetValueFor("y")
	assert.Equal(t, float64(0), xv)
	assert.Equal(t, float64(1), yv)
}

func TestSolution_GetValueFor_Unknown(t *testing.T) {
	s := Solution{byName: map[string]float64{"a": 1}}
	_, err := s.GetValueFor("b")
	assert.Error(t, err)
}

// adapted from Gonum's lp.Simplex.
func getRandomProblem(pZero float64, m, n int, rnd *rand.Rand) Problem {
	if m == 0 || n == 0 {
		panic("m==n not allowed")
	}
	randValue := func() float64 {
		v := rnd.Float64()
		if v < pZero {
			return 0
		}
		return rnd.NormFloat64()
	}

	boolgenerator := NewBoolGen(rnd)
	prob := NewProblem()

	var vars []*Variable
	for i := 0; i < m; i++ {
		v := prob.AddVariable(fmt.Sprintf("%v", i)).SetCoeff(randValue())
		if boolgenerator.Bool() {
			v.IsInteger()
		}
		vars = append(vars, v)
	}

	for i := 0; i < n; i++ {
		c := prob.AddConstraint()
		for _, v := range vars {
			c.AddExpression(randValue(), v)
		}
		if boolgenerator.Bool() {
			c.EqualTo(randValue())
		} else {
			c.SmallerThanOrEqualTo(randValue())
		}
	}

	return prob
}
