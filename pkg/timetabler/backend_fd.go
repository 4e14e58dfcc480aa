package timetabler

import (
	"context"
	"fmt"
	"time"

	mk "github.com/gitrdm/gokando/pkg/minikanren"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/limaJavier/classtimetable/pkg/model"
)

const DefaultMaxSolutions = 32

// NewFDTimetabler solves the problem as a finite-domain model and keeps the best enumerated
// solution, tightening the per-day load cap while budget remains.
func NewFDTimetabler(timeout time.Duration, maxSolutions int, logger *zap.Logger) Timetabler {
	if maxSolutions <= 0 {
		maxSolutions = DefaultMaxSolutions
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return newConstraintTimetabler(&fdBackend{maxSolutions: maxSolutions, logger: logger}, timeout, logger)
}

type fdBackend struct {
	maxSolutions int
	logger       *zap.Logger
}

// fdVariables holds the per-session variables of one model.
type fdVariables struct {
	slots     []*mk.FDVariable
	days      []*mk.FDVariable
	resources []*mk.FDVariable
	lecturers []*mk.FDVariable
}

func (backend *fdBackend) name() string {
	return "fd"
}

func (backend *fdBackend) solve(ctx context.Context, problem *Problem) ([]Assignment, error) {
	best, bestScore, err := backend.enumerate(ctx, problem, 0)
	if err != nil {
		return nil, err
	}

	floor := (len(problem.Sessions) + model.DaysPerWeek - 1) / model.DaysPerWeek
	bestLoads := dayLoads(best)
	for capacity := lo.Max(bestLoads[:]) - 1; capacity >= floor && ctx.Err() == nil; {
		deadline, ok := ctx.Deadline()
		if !ok {
			break
		}
		stepCtx, cancel := context.WithTimeout(ctx, time.Until(deadline)/4)
		candidate, score, err := backend.enumerate(stepCtx, problem, capacity)
		cancel()
		if err != nil {
			break
		}

		if score.Total() < bestScore.Total() {
			best, bestScore = candidate, score
		}
		candidateLoads := dayLoads(candidate)
		capacity = min(capacity, lo.Max(candidateLoads[:])) - 1
	}

	backend.logger.Debug("finite-domain search finished",
		zap.Int("studentBackToBack", bestScore.StudentBackToBack),
		zap.Int("lecturerBackToBack", bestScore.LecturerBackToBack),
		zap.Int("imbalance", bestScore.Imbalance))
	return best, nil
}

// enumerate collects up to maxSolutions solutions of the model, optionally capped per day, and
// returns the one with the lowest objective.
func (backend *fdBackend) enumerate(ctx context.Context, problem *Problem, dayCapacity int) ([]Assignment, Score, error) {
	fdModel, variables, err := buildModel(problem, dayCapacity)
	if err != nil {
		return nil, Score{}, err
	}

	solver := mk.NewSolver(fdModel)
	solutions, err := solver.Solve(ctx, backend.maxSolutions)
	if len(solutions) == 0 {
		if err != nil && ctx.Err() == nil {
			backend.logger.Debug("finite-domain solver stopped", zap.Error(err))
		}
		return nil, Score{}, errInfeasible
	}

	best, bestScore := lowestScore(problem, lo.Map(solutions, func(solution []int, _ int) []Assignment {
		return backend.decode(problem, variables, solution)
	}))
	return best, bestScore, nil
}

// lowestScore keeps the first candidate with the lowest objective.
func lowestScore(problem *Problem, candidates [][]Assignment) ([]Assignment, Score) {
	var best []Assignment
	var bestScore Score
	for i, assignments := range candidates {
		score := evaluate(problem, assignments)
		if i == 0 || score.Total() < bestScore.Total() {
			best, bestScore = assignments, score
		}
	}
	return best, bestScore
}

func buildModel(problem *Problem, dayCapacity int) (*mk.Model, fdVariables, error) {
	sessions := len(problem.Sessions)
	fdModel := mk.NewModel()
	variables := fdVariables{
		slots:     make([]*mk.FDVariable, sessions),
		days:      make([]*mk.FDVariable, sessions),
		resources: make([]*mk.FDVariable, sessions),
		lecturers: make([]*mk.FDVariable, sessions),
	}

	for i := range sessions {
		candidates := problem.CandidateSlots(i)
		if len(candidates) == 0 {
			return nil, variables, errInfeasible
		}
		slots := lo.Map(candidates, func(slot model.Slot, _ int) int { return slot.Index() + 1 })
		resources := lo.Map(problem.ResourceDomains[i], func(resource int, _ int) int { return resource + 1 })
		lecturers := lo.Map(problem.LecturerDomains[i], func(lecturer int, _ int) int { return lecturer + 1 })

		variables.slots[i] = fdModel.NewVariableWithName(mk.NewBitSetDomainFromValues(model.SlotsPerWeek, slots), fmt.Sprintf("slot_%d", i))
		variables.days[i] = fdModel.NewVariableWithName(mk.NewBitSetDomain(model.DaysPerWeek), fmt.Sprintf("day_%d", i))
		variables.resources[i] = fdModel.NewVariableWithName(mk.NewBitSetDomainFromValues(len(problem.Resources), resources), fmt.Sprintf("res_%d", i))
		variables.lecturers[i] = fdModel.NewVariableWithName(mk.NewBitSetDomainFromValues(len(problem.Lecturers), lecturers), fmt.Sprintf("lec_%d", i))

		fdModel.AddConstraint(&dayChannel{slot: variables.slots[i], day: variables.days[i]})
		if len(problem.Options.CrossDepartmentSessions) > 0 {
			addOccupancyRules(fdModel, problem, variables, i)
		}
	}

	if err := addPairRules(fdModel, problem, variables); err != nil {
		return nil, variables, err
	}
	if err := addSpreadRules(fdModel, problem, variables); err != nil {
		return nil, variables, err
	}
	if dayCapacity > 0 {
		fdModel.AddConstraint(&dayLoadRule{days: variables.days, capacity: dayCapacity})
	}
	return fdModel, variables, nil
}

// addOccupancyRules keeps a session off resources and lecturers already committed elsewhere.
func addOccupancyRules(fdModel *mk.Model, problem *Problem, variables fdVariables, session int) {
	fdModel.AddConstraint(&pairRule{
		kind:   "ResourceOccupied",
		first:  variables.slots[session],
		second: variables.resources[session],
		forbidden: func(slot, resource int) bool {
			return !problem.Occupancy.Resources.Free(resource-1, slotOf(slot))
		},
	})
	fdModel.AddConstraint(&pairRule{
		kind:   "LecturerOccupied",
		first:  variables.slots[session],
		second: variables.lecturers[session],
		forbidden: func(slot, lecturer int) bool {
			return !problem.Occupancy.Lecturers.Free(lecturer-1, slotOf(slot))
		},
	})
}

// addPairRules posts the clash and single-cohort rules between sessions, plus the student
// back-to-back rule when enabled.
func addPairRules(fdModel *mk.Model, problem *Problem, variables fdVariables) error {
	sessions := len(problem.Sessions)
	everySpreads := lo.EveryBy(lo.Range(sessions), problem.Spreads)

	if everySpreads && sessions > 1 {
		distinct, err := mk.NewAllDifferent(variables.slots)
		if err != nil {
			return err
		}
		fdModel.AddConstraint(distinct)
	}

	for i := range sessions {
		for j := i + 1; j < sessions; j++ {
			switch {
			case everySpreads:
			case !problem.SameCourse(i, j):
				different, err := mk.NewInequality(variables.slots[i], variables.slots[j], mk.NotEqual)
				if err != nil {
					return err
				}
				fdModel.AddConstraint(different)
			case !problem.Spreads(i):
				fdModel.AddConstraint(&tupleRule{
					kind: "SharedSlot",
					variables: []*mk.FDVariable{
						variables.slots[i], variables.resources[i], variables.lecturers[i],
						variables.slots[j], variables.resources[j], variables.lecturers[j],
					},
					forbidden: func(values []int) bool {
						return values[0] == values[3] && (values[1] == values[4] || values[2] == values[5])
					},
				})
			}

			if problem.Options.AvoidBackToBackStudents {
				fdModel.AddConstraint(&pairRule{
					kind:   "StudentBackToBack",
					first:  variables.slots[i],
					second: variables.slots[j],
					forbidden: func(first, second int) bool {
						return adjacent(slotOf(first), slotOf(second))
					},
				})
			}
		}
	}
	return nil
}

// addSpreadRules puts the sessions of every spreading course on distinct days.
func addSpreadRules(fdModel *mk.Model, problem *Problem, variables fdVariables) error {
	byCourse := lo.GroupBy(lo.Range(len(problem.Sessions)), func(session int) int {
		return problem.Sessions[session].Course
	})
	for _, sessions := range byCourse {
		if len(sessions) < 2 || !problem.Spreads(sessions[0]) {
			continue
		}
		if len(sessions) > model.DaysPerWeek {
			return errInfeasible
		}
		distinct, err := mk.NewAllDifferent(lo.Map(sessions, func(session int, _ int) *mk.FDVariable {
			return variables.days[session]
		}))
		if err != nil {
			return err
		}
		fdModel.AddConstraint(distinct)
	}
	return nil
}

// decode reads one solution. A variable left without a usable value falls back to the first value
// of its domain.
func (backend *fdBackend) decode(problem *Problem, variables fdVariables, solution []int) []Assignment {
	value := func(variable *mk.FDVariable, fallback int, limit int) int {
		id := variable.ID()
		if id < len(solution) && solution[id] >= 1 && solution[id] <= limit {
			return solution[id] - 1
		}
		backend.logger.Warn("solution misses a value, using fallback", zap.Int("variable", variable.ID()))
		return fallback
	}

	assignments := make([]Assignment, len(problem.Sessions))
	for i := range problem.Sessions {
		slot := value(variables.slots[i], problem.CandidateSlots(i)[0].Index(), model.SlotsPerWeek)
		assignments[i] = Assignment{
			Session:  i,
			Slot:     model.SlotFromIndex(slot),
			Resource: value(variables.resources[i], problem.ResourceDomains[i][0], len(problem.Resources)),
			Lecturer: value(variables.lecturers[i], problem.LecturerDomains[i][0], len(problem.Lecturers)),
		}
	}
	return assignments
}
