package timetabler

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/limaJavier/classtimetable/pkg/model"
	"github.com/limaJavier/classtimetable/pkg/sat"
)

// NewSATTimetabler encodes the problem as CNF for an external DIMACS solver. The objective is not
// optimized; it is only reported for the decoded assignment.
func NewSATTimetabler(solver sat.SATSolver, timeout time.Duration, logger *zap.Logger) Timetabler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newConstraintTimetabler(&satBackend{solver: solver, logger: logger}, timeout, logger)
}

type satBackend struct {
	solver sat.SATSolver
	logger *zap.Logger
}

func (backend *satBackend) name() string {
	return "sat"
}

func (backend *satBackend) solve(ctx context.Context, problem *Problem) ([]Assignment, error) {
	state, err := newSatState(problem)
	if err != nil {
		return nil, err
	}

	instance := buildSat(state, []func(state satState) [][]int64{
		completenessConstraints,
		cohortConstraints,
		sharedSlotConstraints,
		spreadConstraints,
		studentConstraints,
		occupancyConstraints,
	})
	backend.logger.Debug("built SAT instance",
		zap.Uint64("variables", instance.Variables), zap.Int("clauses", len(instance.Clauses)))

	solution, err := backend.solver.Solve(ctx, instance)
	if ctx.Err() != nil {
		return nil, errInfeasible
	}
	if err != nil {
		return nil, fmt.Errorf("SAT solver failed: %w", err)
	}
	if solution == nil {
		backend.logger.Info("SAT instance is unsatisfiable")
		return nil, errInfeasible
	}

	assignments := backend.decode(state, solution)
	score := evaluate(problem, assignments)
	backend.logger.Debug("decoded SAT model",
		zap.Int("studentBackToBack", score.StudentBackToBack),
		zap.Int("lecturerBackToBack", score.LecturerBackToBack),
		zap.Int("imbalance", score.Imbalance))
	return assignments, nil
}

func newSatState(problem *Problem) (satState, error) {
	candidates := make([][]model.Slot, len(problem.Sessions))
	for session := range problem.Sessions {
		candidates[session] = problem.CandidateSlots(session)
		if len(candidates[session]) == 0 {
			return satState{}, errInfeasible
		}
	}

	values := max(model.SlotsPerWeek, len(problem.Resources), len(problem.Lecturers))
	return satState{
		problem:    problem,
		indexer:    newIndexer(len(problem.Sessions), values),
		candidates: candidates,
	}, nil
}

func buildSat(state satState, constraints []func(state satState) [][]int64) sat.SAT {
	instance := sat.SAT{
		Variables: state.indexer.Variables(),
		Clauses:   [][]int64{},
	}
	for _, constraint := range constraints {
		instance.Clauses = append(instance.Clauses, constraint(state)...)
	}
	return instance
}

// decode reads the true literals back into assignments; a decision the model leaves open falls
// back to the first value of its domain.
func (backend *satBackend) decode(state satState, solution sat.SATSolution) []Assignment {
	problem := state.problem
	assignments := make([]Assignment, len(problem.Sessions))
	decided := make([][literalKinds]bool, len(problem.Sessions))

	for _, literal := range solution.Positives() {
		if uint64(literal) > state.indexer.Variables() {
			continue
		}
		// Literals outside a session's domains appear in no clause and carry no decision.
		kind, session, value := state.indexer.Attributes(literal)
		switch {
		case kind == slotLiteral && slices.Contains(state.candidates[session], model.SlotFromIndex(value)):
			assignments[session].Slot = model.SlotFromIndex(value)
		case kind == resourceLiteral && slices.Contains(problem.ResourceDomains[session], value):
			assignments[session].Resource = value
		case kind == lecturerLiteral && slices.Contains(problem.LecturerDomains[session], value):
			assignments[session].Lecturer = value
		default:
			continue
		}
		decided[session][kind] = true
	}

	for session := range assignments {
		assignments[session].Session = session
		if !decided[session][slotLiteral] {
			assignments[session].Slot = state.candidates[session][0]
		}
		if !decided[session][resourceLiteral] {
			assignments[session].Resource = problem.ResourceDomains[session][0]
		}
		if !decided[session][lecturerLiteral] {
			assignments[session].Lecturer = problem.LecturerDomains[session][0]
		}
		if decided[session] != [literalKinds]bool{true, true, true} {
			backend.logger.Warn("SAT model left a decision open, using fallback", zap.Int("session", session))
		}
	}
	return assignments
}
