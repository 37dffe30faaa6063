package ilp

import "math"

// BranchHeuristic selects which integer-constrained variable to branch on
// at each split of the enumeration tree.
type BranchHeuristic int

const (
	BRANCH_MAXFUN          BranchHeuristic = 0
	BRANCH_MOST_INFEASIBLE BranchHeuristic = 1
	BRANCH_NAIVE           BranchHeuristic = 2
)

// naiveBranchPoint cycles through the integrality-constrained variables in
// index order, starting after whichever one was branched on last.
func (s solution) naiveBranchPoint() int {
	branchOn := 0

	if len(s.problem.bnbConstraints) == 0 {
		for i := range s.problem.integralityConstraints {
			if s.problem.integralityConstraints[i] {
				branchOn = i
			}
		}
		return branchOn
	}

	lastBranchedVariable := s.problem.bnbConstraints[len(s.problem.bnbConstraints)-1].branchedVariable

	cursor := lastBranchedVariable
	for {
		if cursor == len(s.problem.c)-1 {
			cursor = -1
		}
		cursor++
		if s.problem.integralityConstraints[cursor] {
			branchOn = cursor
			break
		}
	}

	return branchOn
}

// maxFunBranchPoint chooses the integrality-constrained variable with the
// largest absolute objective coefficient.
func maxFunBranchPoint(c []float64, integralityConstraints []bool) int {
	if len(c) != len(integralityConstraints) {
		panic("ilp: number of variables not equal to number of integrality constraints")
	}

	var candidateValue float64
	currentCandidate := 0

	for i, v := range c {
		if integralityConstraints[i] {
			if math.Abs(v) >= candidateValue {
				currentCandidate = i
				candidateValue = math.Abs(v)
			}
		}
	}

	return currentCandidate
}

// mostInfeasibleBranchPoint chooses the integrality-constrained variable
// whose fractional part is closest to one half.
func mostInfeasibleBranchPoint(c []float64, integralityConstraints []bool) int {
	if len(c) != len(integralityConstraints) {
		panic("ilp: number of variables not equal to number of integrality constraints")
	}

	candidateRemainder := 1.0
	currentCandidate := 0

	for i, v := range c {
		if integralityConstraints[i] {
			_, f := math.Modf(v)
			if d := math.Abs(0.5 - f); d <= candidateRemainder {
				currentCandidate = i
				candidateRemainder = d
			}
		}
	}

	return currentCandidate
}
