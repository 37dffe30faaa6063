package ilp

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
)

// bnbDecision names the outcome of processing one branch-and-bound node.
type bnbDecision string

const (
	SUBPROBLEM_IS_DEGENERATE        bnbDecision = "subproblem contains a degenerate (singular) matrix"
	SUBPROBLEM_NOT_FEASIBLE         bnbDecision = "subproblem has no feasible solution"
	WORSE_THAN_INCUMBENT            bnbDecision = "worse than incumbent"
	BETTER_THAN_INCUMBENT_BRANCHING bnbDecision = "better than incumbent but fractional, so branching"
	BETTER_THAN_INCUMBENT_FEASIBLE  bnbDecision = "better than incumbent and integer feasible, so replacing incumbent"
	INITIAL_RX_FEASIBLE_FOR_IP      bnbDecision = "initial relaxation is feasible for IP"
	INITIAL_RELAXATION_LEGAL        bnbDecision = "initial relaxation is legal"
)

// integerFeasibilityTolerance is how far a variable's value may be from the
// nearest integer before it is considered fractional.
const integerFeasibilityTolerance = 1e-6

// feasibleForIP reports whether every integrality-constrained entry of
// solution is within integerFeasibilityTolerance of an integer.
func feasibleForIP(integralityConstraints []bool, solution []float64) bool {
	for i, constrained := range integralityConstraints {
		if !constrained {
			continue
		}
		if math.Abs(solution[i]-math.Round(solution[i])) > integerFeasibilityTolerance {
			return false
		}
	}
	return true
}

// enumerationTree drives a concurrent branch-and-bound search over the
// subproblems descending from a root LP relaxation, tracking the best
// integer-feasible incumbent found so far.
type enumerationTree struct {
	mw BnbMiddleware

	mu        sync.Mutex
	incumbent *solution

	rootInfeasible atomic.Bool
}

func newEnumerationTree(mw BnbMiddleware) *enumerationTree {
	if mw == nil {
		mw = dummyMiddleware{}
	}
	return &enumerationTree{mw: mw}
}

// startSearch explores the tree rooted at root using the given number of
// concurrent workers, returning the best incumbent (nil if none was found)
// and whether the root relaxation itself was infeasible.
func (t *enumerationTree) startSearch(ctx context.Context, root subProblem, workers int) (*solution, bool) {
	stack := &subproblemStack{}
	var outstanding atomic.Int64

	t.mw.NewSubProblem(root)
	outstanding.Add(1)
	stack.push(root)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.worker(ctx, stack, &outstanding)
		}()
	}
	wg.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.incumbent, t.rootInfeasible.Load()
}

func (t *enumerationTree) worker(ctx context.Context, stack *subproblemStack, outstanding *atomic.Int64) {
	for {
		if ctx.Err() != nil {
			return
		}

		p, ok := stack.pop()
		if !ok {
			if outstanding.Load() == 0 {
				return
			}
			// another worker is about to push this node's siblings; yield and retry
			runtime.Gosched()
			continue
		}

		t.processNode(p, stack, outstanding)
	}
}

// processNode solves a single subproblem's LP relaxation and either prunes
// it, accepts it as a new incumbent, or branches it into two children
// pushed back onto the stack.
func (t *enumerationTree) processNode(p subProblem, stack *subproblemStack, outstanding *atomic.Int64) {
	defer outstanding.Add(-1)

	isRoot := p.id == 0 && len(p.bnbConstraints) == 0

	s := p.solve()

	if s.err != nil {
		decision, known := expectedFailures[s.err]
		if !known {
			decision = SUBPROBLEM_NOT_FEASIBLE
		}
		if isRoot {
			t.rootInfeasible.Store(true)
		}
		t.mw.ProcessDecision(s, decision)
		return
	}

	if !t.improvesIncumbent(s.z) {
		t.mw.ProcessDecision(s, WORSE_THAN_INCUMBENT)
		return
	}

	if feasibleForIP(p.integralityConstraints, s.x) {
		t.setIncumbentIfBetter(s)
		decision := BETTER_THAN_INCUMBENT_FEASIBLE
		if isRoot {
			decision = INITIAL_RX_FEASIBLE_FOR_IP
		}
		t.mw.ProcessDecision(s, decision)
		return
	}

	decision := BETTER_THAN_INCUMBENT_BRANCHING
	if isRoot {
		decision = INITIAL_RELAXATION_LEGAL
	}
	t.mw.ProcessDecision(s, decision)

	c1, c2 := s.branch()
	t.mw.NewSubProblem(c1)
	t.mw.NewSubProblem(c2)
	outstanding.Add(2)
	stack.push(c1)
	stack.push(c2)
}

// improvesIncumbent reports whether z (a minimization objective value)
// would improve on the current incumbent, without holding the lock for the
// duration of the node's own solve.
func (t *enumerationTree) improvesIncumbent(z float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.incumbent == nil || z < t.incumbent.z
}

func (t *enumerationTree) setIncumbentIfBetter(s solution) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.incumbent == nil || s.z < t.incumbent.z {
		copied := s
		t.incumbent = &copied
	}
}

// subproblemStack is a mutex-guarded LIFO worklist of subproblems shared by
// the search's workers.
type subproblemStack struct {
	mu    sync.Mutex
	items []subProblem
}

func (q *subproblemStack) push(p subProblem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, p)
}

func (q *subproblemStack) pop() (subProblem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if n == 0 {
		return subProblem{}, false
	}
	p := q.items[n-1]
	q.items = q.items[:n-1]
	return p, true
}
