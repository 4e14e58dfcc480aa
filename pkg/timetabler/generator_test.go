package timetabler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/limaJavier/classtimetable/pkg/errors"
	"github.com/limaJavier/classtimetable/pkg/metrics"
	"github.com/limaJavier/classtimetable/pkg/model"
)

var engines = map[string]Config{
	"greedy":        {Engine: EngineGreedy},
	"constraint-fd": {Engine: EngineConstraint, Backend: BackendFD, Timeout: 2 * time.Second, MaxSolutions: 8},
}

func requireTimetableProperties(t *testing.T, courses []model.Course, timetable model.Timetable, options model.Options) {
	t.Helper()
	perCourse := timetable.SessionsPerCourse()
	for _, course := range courses {
		require.Equal(t, course.RequiredSessions(), perCourse[course.ID], "course %v", course.ID)
	}
	require.False(t, HasConflicts(timetable))

	for i, first := range timetable.Sessions {
		firstSlot, ok := first.Slot()
		require.True(t, ok)
		for _, second := range timetable.Sessions[i+1:] {
			secondSlot, _ := second.Slot()
			if firstSlot == secondSlot {
				require.Equal(t, first.CourseID, second.CourseID)
				require.NotEqual(t, first.ResourceID, second.ResourceID)
				require.NotEqual(t, first.LecturerID, second.LecturerID)
			}
			if options.SpreadCourseSessions && first.CourseID == second.CourseID {
				require.NotEqual(t, first.DayOfWeek, second.DayOfWeek)
			}
			if options.AvoidBackToBackStudents {
				require.False(t, adjacent(firstSlot, secondSlot))
			}
		}
	}
}

func TestGenerateSpreadScenario(t *testing.T) {
	courses := []model.Course{
		{ID: "c1", Name: "Algorithms", Code: "CS101", RequiredSessionsPerWeek: 2},
		{ID: "c2", Name: "Databases", Code: "CS102", RequiredSessionsPerWeek: 2},
		{ID: "c3", Name: "Networks", Code: "CS103", RequiredSessionsPerWeek: 2},
	}
	options := model.DefaultOptions()
	options.SpreadCourseSessions = true

	for name, config := range engines {
		t.Run(name, func(t *testing.T) {
			//** Arrange
			generator := NewGenerator(config, WithSeed(7))

			//** Act
			timetable, err := generator.GenerateWithOptions(context.Background(), testResources(), testLecturers()[:2], courses, options)

			//** Assert
			require.NoError(t, err)
			assert.Len(t, timetable.Sessions, 6)
			assert.NotEmpty(t, timetable.ID)
			requireTimetableProperties(t, courses, timetable, options)
		})
	}
}

func TestGenerateWithEveryOption(t *testing.T) {
	options := model.DefaultOptions()
	options.SpreadCourseSessions = true
	options.AvoidBackToBackStudents = true
	options.AvoidBackToBackClasses = true
	options.PreferEvenDistribution = true

	for name, config := range engines {
		t.Run(name, func(t *testing.T) {
			generator := NewGenerator(config, WithSeed(11))

			timetable, err := generator.GenerateWithOptions(context.Background(), testResources(), testLecturers(), testCourses(), options)

			require.NoError(t, err)
			requireTimetableProperties(t, testCourses(), timetable, options)
			for _, session := range timetable.Sessions {
				assert.Equal(t, session.TimetableID, timetable.ID)
				assert.Equal(t, model.GeneralDepartment, session.Department)
			}
		})
	}
}

func TestGenerateIncompleteScenario(t *testing.T) {
	// One resource with one free slot of the week: two courses cannot both be placed.
	courses := []model.Course{
		{ID: "c1", Name: "Algorithms", Code: "CS101"},
		{ID: "c2", Name: "Databases", Code: "CS102"},
	}
	options := model.DefaultOptions()
	options.CrossDepartmentSessions = fillResource("r1", model.Slot{Day: model.Monday, Hour: 0})

	for name, config := range engines {
		t.Run(name, func(t *testing.T) {
			//** Arrange
			config.Timeout = 100 * time.Millisecond
			collector := metrics.New()
			generator := NewGenerator(config, WithSeed(3), WithMetrics(collector))

			//** Act
			_, err := generator.GenerateWithOptions(context.Background(), testResources()[:1], testLecturers()[:1], courses, options)

			//** Assert
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrIncompleteSchedule))

			var incomplete *model.IncompleteScheduleError
			require.True(t, errors.As(err, &incomplete))
			assert.True(t, strings.HasPrefix(incomplete.Error(), "Cannot generate complete timetable."))
			assert.Len(t, incomplete.Unscheduled(), 1)
			assert.Equal(t, 1, incomplete.Diagnostics.Resources)
			assert.Equal(t, "greedy", incomplete.Diagnostics.Engine)
		})
	}
}

func TestGenerateCrossDepartmentScenario(t *testing.T) {
	options := model.DefaultOptions()
	options.CrossDepartmentSessions = []model.TimetableSession{
		{ID: "x1", ResourceID: "r1", LecturerID: "other", DayOfWeek: "Monday", StartTime: "10:00"},
		{ID: "bad", ResourceID: "r1", DayOfWeek: "Someday", StartTime: "10:00"},
	}
	courses := []model.Course{{ID: "c1", Name: "Algorithms", Code: "CS101", RequiredSessionsPerWeek: 5, AssignedResourceID: "r1"}}

	for name, config := range engines {
		t.Run(name, func(t *testing.T) {
			generator := NewGenerator(config, WithSeed(5))

			timetable, err := generator.GenerateWithOptions(context.Background(), testResources(), testLecturers(), courses, options)

			require.NoError(t, err)
			requireTimetableProperties(t, courses, timetable, options)
			for _, session := range timetable.Sessions {
				assert.Equal(t, "r1", session.ResourceID)
				assert.False(t, session.DayOfWeek == "Monday" && session.StartTime == "10:00")
			}
		})
	}
}

func TestGenerateWithoutResources(t *testing.T) {
	generator := NewGenerator(Config{Engine: EngineConstraint, Timeout: 50 * time.Millisecond})

	_, err := generator.Generate(context.Background(), nil, testLecturers(), testCourses())

	var incomplete *model.IncompleteScheduleError
	require.True(t, errors.As(err, &incomplete))
	assert.Len(t, incomplete.Unscheduled(), len(testCourses()))
}

func TestGenerateWithoutCourses(t *testing.T) {
	timetable, err := NewGenerator(DefaultConfig()).Generate(context.Background(), testResources(), testLecturers(), nil)

	require.NoError(t, err)
	assert.Empty(t, timetable.Sessions)
}

func TestGenerateFallsBackToGreedy(t *testing.T) {
	//** Arrange
	collector := metrics.New()
	config := Config{Engine: EngineConstraint, Backend: BackendSAT, Timeout: 50 * time.Millisecond}
	generator := NewGenerator(config, WithSeed(1), WithMetrics(collector), WithSATSolver(&stubSATSolver{}))

	//** Act
	timetable, err := generator.Generate(context.Background(), testResources(), testLecturers(), testCourses())

	//** Assert
	require.NoError(t, err)
	requireTimetableProperties(t, testCourses(), timetable, model.DefaultOptions())
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Fallbacks()))
}

func TestGenerateRunMetadata(t *testing.T) {
	generator := NewGenerator(Config{Engine: EngineGreedy}, WithSeed(9))
	courses := []model.Course{{Name: "No Id", Department: "Physics"}}

	timetable, err := generator.Run(context.Background(), Request{
		Resources:    testResources(),
		Lecturers:    testLecturers(),
		Courses:      courses,
		Options:      model.DefaultOptions(),
		AcademicTerm: "Autumn",
		AcademicYear: "2025",
		Department:   "Physics",
	})

	require.NoError(t, err)
	assert.Equal(t, "Autumn", timetable.AcademicTerm)
	assert.Equal(t, "Physics", timetable.Department)
	assert.False(t, timetable.GeneratedAt.IsZero())
	require.Len(t, timetable.Sessions, 1)
	session := timetable.Sessions[0]
	assert.True(t, strings.HasPrefix(session.CourseID, "course_"))
	assert.Equal(t, "Physics", session.Department)
	assert.Equal(t, "LECTURE", session.SessionType)
	assert.Len(t, lo.Uniq([]string{session.ID, timetable.ID}), 2)
}

func TestHasConflictsIsIdempotent(t *testing.T) {
	timetable := model.Timetable{Sessions: []model.TimetableSession{
		{ID: "a", CourseID: "c1", ResourceID: "r1", LecturerID: "l1", DayOfWeek: "Monday", StartTime: "09:00"},
		{ID: "b", CourseID: "c2", ResourceID: "r1", LecturerID: "l2", DayOfWeek: "Monday", StartTime: "9:00"},
	}}

	assert.True(t, HasConflicts(timetable))
	assert.Equal(t, HasConflicts(timetable), HasConflicts(timetable))
}

func TestGenerateGreedyAfterDeadline(t *testing.T) {
	for name, config := range engines {
		t.Run(name, func(t *testing.T) {
			//** Arrange
			generator := NewGenerator(config, WithSeed(5))
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			//** Act
			timetable, err := generator.Generate(ctx, testResources(), testLecturers(), testCourses())

			//** Assert
			require.NoError(t, err)
			requireTimetableProperties(t, testCourses(), timetable, model.DefaultOptions())
		})
	}
}

func TestRunBudget(t *testing.T) {
	assert.Equal(t, 4*time.Second, NewGenerator(Config{Timeout: time.Second}).RunBudget())
	assert.Equal(t, runBudgetFactor*DefaultTimeout, NewGenerator(Config{}).RunBudget())
}

func TestGenerateRejectsDuplicatedCourseIds(t *testing.T) {
	//** Arrange
	generator := NewGenerator(Config{Engine: EngineGreedy}, WithSeed(3))
	courses := []model.Course{{ID: "c1", Name: "A", Code: "A"}, {ID: "c1", Name: "B", Code: "B"}}

	//** Act
	_, err := generator.Generate(context.Background(), testResources(), testLecturers(), courses)

	//** Assert
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.ErrorContains(t, err, `duplicated course id "c1"`)
	var incomplete *model.IncompleteScheduleError
	assert.False(t, errors.As(err, &incomplete))
}
