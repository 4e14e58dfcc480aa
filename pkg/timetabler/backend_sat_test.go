package timetabler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/limaJavier/classtimetable/pkg/model"
	"github.com/limaJavier/classtimetable/pkg/sat"
)

type stubSATSolver struct {
	solution sat.SATSolution
	calls    int
}

func (solver *stubSATSolver) Solve(ctx context.Context, instance sat.SAT) (sat.SATSolution, error) {
	solver.calls++
	return solver.solution, nil
}

// blockingSATSolver never answers before its deadline.
type blockingSATSolver struct{}

func (blockingSATSolver) Solve(ctx context.Context, instance sat.SAT) (sat.SATSolution, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func spreadProblem() *Problem {
	options := model.DefaultOptions()
	options.SpreadCourseSessions = true
	options.AvoidBackToBackStudents = true
	return NewProblem(testResources(), testLecturers(), testCourses(), options, nil)
}

// handAssignments spreads sessions over the mornings: one per day, then two hours later.
func handAssignments(problem *Problem) []Assignment {
	assignments := make([]Assignment, len(problem.Sessions))
	for i := range problem.Sessions {
		assignments[i] = Assignment{
			Session:  i,
			Slot:     model.Slot{Day: model.Day(i % model.DaysPerWeek), Hour: 2 * (i / model.DaysPerWeek)},
			Resource: problem.ResourceDomains[i][0],
			Lecturer: problem.LecturerDomains[i][0],
		}
	}
	return assignments
}

// encode turns assignments into a full truth assignment of the encoding.
func encode(state satState, assignments []Assignment) sat.SATSolution {
	solution := make(sat.SATSolution, 0, state.indexer.Variables())
	for variable := int64(1); uint64(variable) <= state.indexer.Variables(); variable++ {
		kind, session, value := state.indexer.Attributes(variable)
		assignment := assignments[session]
		positive := (kind == slotLiteral && assignment.Slot.Index() == value) ||
			(kind == resourceLiteral && assignment.Resource == value) ||
			(kind == lecturerLiteral && assignment.Lecturer == value)
		if positive {
			solution = append(solution, variable)
		} else {
			solution = append(solution, -variable)
		}
	}
	return solution
}

func satInstance(t *testing.T, problem *Problem) (satState, sat.SAT) {
	t.Helper()
	state, err := newSatState(problem)
	require.NoError(t, err)
	return state, buildSat(state, []func(state satState) [][]int64{
		completenessConstraints,
		cohortConstraints,
		sharedSlotConstraints,
		spreadConstraints,
		studentConstraints,
		occupancyConstraints,
	})
}

func TestSatEncodingAcceptsValidAssignment(t *testing.T) {
	//** Arrange
	problem := spreadProblem()
	state, instance := satInstance(t, problem)
	assignments := handAssignments(problem)
	requireValidAssignments(t, problem, assignments)

	//** Act
	solution := encode(state, assignments)

	//** Assert
	assert.True(t, sat.AssertSATSolution(instance, solution))
}

func TestSatEncodingRejectsInvalidAssignments(t *testing.T) {
	problem := spreadProblem()
	state, instance := satInstance(t, problem)

	sharedSlot := handAssignments(problem)
	sharedSlot[3].Slot = sharedSlot[0].Slot // different courses in one slot
	assert.False(t, sat.AssertSATSolution(instance, encode(state, sharedSlot)))

	sameDay := handAssignments(problem)
	sameDay[1].Slot = model.Slot{Day: model.Monday, Hour: 4} // spreading course repeats Monday
	assert.False(t, sat.AssertSATSolution(instance, encode(state, sameDay)))

	backToBack := handAssignments(problem)
	backToBack[5].Slot = model.Slot{Day: model.Monday, Hour: 1}
	assert.False(t, sat.AssertSATSolution(instance, encode(state, backToBack)))
}

func TestSatEncodingRespectsOccupancy(t *testing.T) {
	options := model.DefaultOptions()
	options.CrossDepartmentSessions = fillResource("r1", model.Slot{Day: model.Monday, Hour: 0})
	courses := []model.Course{{ID: "c1", Name: "Algorithms", Code: "CS101"}}
	problem := NewProblem(testResources()[:1], testLecturers()[:1], courses, options, nil)
	state, instance := satInstance(t, problem)

	assert.Equal(t, []model.Slot{{Day: model.Monday, Hour: 0}}, state.candidates[0])
	assert.True(t, sat.AssertSATSolution(instance, encode(state, []Assignment{{Slot: model.Slot{Day: model.Monday, Hour: 0}}})))
}

func TestSatBackendDecodesSolverModel(t *testing.T) {
	//** Arrange
	problem := spreadProblem()
	state, _ := satInstance(t, problem)
	assignments := handAssignments(problem)
	solver := &stubSATSolver{solution: encode(state, assignments)}

	//** Act
	decoded, err := NewSATTimetabler(solver, time.Second, zap.NewNop()).Build(context.Background(), problem)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, assignments, decoded)
	assert.Equal(t, 1, solver.calls)
}

func TestSatBackendUnsatisfiable(t *testing.T) {
	solver := &stubSATSolver{}
	problem := spreadProblem()

	_, err := NewSATTimetabler(solver, time.Second, zap.NewNop()).Build(context.Background(), problem)

	assert.ErrorIs(t, err, errInfeasible)
	assert.Equal(t, 2, solver.calls)
}
