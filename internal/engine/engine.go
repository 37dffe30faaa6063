// Package engine implements the lexicographic MILP assignment engine: it
// builds the variable and constraint layers from a domain.Instance, solves
// the four objectives in priority order (§4.5), and extracts and verifies
// the resulting domain.Solution.
package engine

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/sep-course/assign-engine/internal/domain"
	"github.com/sep-course/assign-engine/internal/ilp"
	"github.com/sep-course/assign-engine/internal/progress"
)

// Tolerance coefficients for the lexicographic lock-in constraints (§4.5).
const (
	alpha1 = 1.0
	alpha2 = 0.99
	alpha3 = 0.99
)

// StageError reports that a stage's MILP solve did not terminate optimally.
// Per §4.8, the engine freezes at the previous stage's cached solution.
type StageError struct {
	Stage int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("engine: stage %d failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Engine drives one Instance through the Init -> S1 -> S2 -> S3 -> S4 -> Done
// lexicographic solve (§4.5). An Engine is constructed once per instance and
// is not reusable across instances (§3 Lifecycles).
type Engine struct {
	inst     domain.Instance
	eligible map[domain.MatrNumber]bool
	workers  int
	logger   *logrus.Logger
	progress *progress.Cell

	stage  int
	v1, v2, v3 float64
	cached *domain.Solution
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithWorkers sets the number of branch-and-bound worker goroutines used by
// every stage's solve. Defaults to runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger overrides the engine's structured logger.
func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithProgressCell attaches a progress cell updated after every stage
// transition (§6's progress channel).
func WithProgressCell(c *progress.Cell) Option {
	return func(e *Engine) { e.progress = c }
}

// NewEngine constructs an Engine for inst. inst is assumed already validated
// (Validation errors are an ingestion-layer concern per §7).
func NewEngine(inst domain.Instance, opts ...Option) *Engine {
	e := &Engine{
		inst:     inst,
		eligible: ratingEligible(inst),
		workers:  runtime.NumCPU(),
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stage returns the number of stages completed so far, 0..4.
func (e *Engine) Stage() int {
	return e.stage
}

// Solve executes S1 through S4 end-to-end and returns the final cached
// solution (§4.5 "solve (one-shot)").
func (e *Engine) Solve(ctx context.Context) (*domain.Solution, error) {
	for e.stage < 4 {
		if _, err := e.SolveNextObjective(ctx); err != nil {
			return e.cached, err
		}
	}
	return e.cached, nil
}

// SolveNextObjective advances the engine by exactly one stage transition.
// Past stage 4 it is idempotent: it returns the cached solution without
// re-optimizing (§9's resolved open question, and the Idempotence law).
func (e *Engine) SolveNextObjective(ctx context.Context) (*domain.Solution, error) {
	if e.stage >= 4 {
		return e.cached, nil
	}

	target := e.stage + 1

	problem, vars, terms, maximize := e.buildStageProblem(target)

	soln, err := problem.Solve(ctx)
	if err != nil {
		e.logger.WithFields(logrus.Fields{"stage": target, "err": err}).Warn("stage failed")
		e.setProgress(-1)
		return e.cached, &StageError{Stage: target, Err: err}
	}

	vStar, err := computeValue(soln, terms)
	if err != nil {
		return e.cached, &StageError{Stage: target, Err: err}
	}

	e.logger.WithFields(logrus.Fields{"stage": target, "value": vStar}).Info("stage solved")

	switch target {
	case 1:
		e.v1 = vStar
	case 2:
		e.v2 = vStar
	case 3:
		e.v3 = vStar
	}

	if target == 4 {
		sol, err := extractSolution(soln, e.inst, vars)
		if err != nil {
			return e.cached, &StageError{Stage: target, Err: err}
		}
		if err := Verify(e.inst, sol); err != nil {
			return e.cached, err
		}
		e.cached = &sol
	} else {
		// Stage 1-3 still produce a valid, extractable solution; cache it so
		// solve_next_objective callers polling progress always have the most
		// recent feasible assignment (§4.8 "most recent cached solution").
		sol, err := extractSolution(soln, e.inst, vars)
		if err == nil {
			if verr := Verify(e.inst, sol); verr == nil {
				e.cached = &sol
			}
		}
	}

	_ = maximize // sense already baked into buildStageProblem/lockIn
	e.stage = target
	e.setProgress(float64(target) / 4.0)

	return e.cached, nil
}

func (e *Engine) setProgress(frac float64) {
	if e.progress != nil {
		e.progress.Set(frac)
	}
}

// computeValue sums terms' coefficients weighted by their read-back values.
// Computed in Go from the solved Problem's variables rather than trusted
// from its Objective field, so the lock-in value is independent of the
// solver's internal maximize/minimize sign convention.
func computeValue(soln *ilp.Solution, terms []objTerm) (float64, error) {
	var total float64
	for _, t := range terms {
		val, err := soln.GetValueFor(t.v.Name())
		if err != nil {
			return 0, err
		}
		total += t.coef * val
	}
	return total, nil
}

// buildStageProblem constructs a fresh ilp.Problem for stage `target`,
// re-adding every prior stage's lock-in constraint, and returns the terms
// and optimization sense of `target`'s own objective.
func (e *Engine) buildStageProblem(target int) (*ilp.Problem, *variables, []objTerm, bool) {
	problem := ilp.NewProblem()
	problem.Workers(e.workers)

	vars := buildVariables(&problem, e.inst)
	addFeasibilityConstraints(&problem, e.inst, vars)
	addRoleConstraints(&problem, e.inst, vars)

	if target > 1 {
		lockIn(&problem, o1Terms(e.inst, vars, e.eligible), true, alpha1, e.v1)
	}
	if target > 2 {
		lockIn(&problem, o2Terms(e.inst, vars), true, alpha2, e.v2)
	}
	if target > 3 {
		lockIn(&problem, o3Terms(&problem, e.inst, vars), true, alpha3, e.v3)
	}

	var terms []objTerm
	maximize := true

	switch target {
	case 1:
		terms = o1Terms(e.inst, vars, e.eligible)
	case 2:
		terms = o2Terms(e.inst, vars)
	case 3:
		terms = o3Terms(&problem, e.inst, vars)
	case 4:
		terms = o4Objective(&problem, e.inst, vars)
		maximize = false
	}

	setObjective(&problem, terms)
	if maximize {
		problem.Maximize()
	} else {
		problem.Minimize()
	}

	return &problem, vars, terms, maximize
}
