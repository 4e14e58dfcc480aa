package timetabler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/limaJavier/classtimetable/pkg/model"
)

func TestPlanDepartments(t *testing.T) {
	//** Arrange
	generator := NewGenerator(Config{Engine: EngineGreedy}, WithSeed(21))
	request := BatchRequest{
		Resources: testResources()[:1],
		Lecturers: testLecturers(),
		Departments: []model.DepartmentInput{
			{
				Name:      "Computing",
				Lecturers: []model.Lecturer{{ID: "l1", Name: "Ada Lovelace"}},
				Courses:   []model.Course{{ID: "c1", Name: "Algorithms", Code: "CS101", RequiredSessionsPerWeek: 20}},
			},
			{
				Name:    "Maths",
				Courses: []model.Course{{ID: "m1", Name: "Calculus", Code: "MA101", RequiredSessionsPerWeek: 20}},
			},
		},
		Options:      model.DefaultOptions(),
		AcademicTerm: "Spring",
		AcademicYear: "2026",
	}
	request.Options.MaxHoursPerDay = 8

	//** Act
	plan := generator.PlanDepartments(context.Background(), request)

	//** Assert
	require.Empty(t, plan.Errors)
	require.Len(t, plan.Timetables, 2)
	assert.Empty(t, plan.Conflicts)
	assert.Len(t, plan.Timetables["Computing"].Sessions, 20)
	assert.Len(t, plan.Timetables["Maths"].Sessions, 20)
	assert.Equal(t, "Maths", plan.Timetables["Maths"].Department)
}

func TestPlanDepartmentsReportsFailures(t *testing.T) {
	generator := NewGenerator(Config{Engine: EngineGreedy}, WithSeed(2))
	request := BatchRequest{
		Resources: testResources()[:1],
		Lecturers: testLecturers(),
		Departments: []model.DepartmentInput{
			{Name: "Computing", Courses: []model.Course{{ID: "c1", Name: "Algorithms", Code: "CS101", RequiredSessionsPerWeek: 40}}},
			{Name: "Maths", Courses: []model.Course{{ID: "m1", Name: "Calculus", Code: "MA101"}}},
		},
		Options: model.Options{MaxHoursPerDay: 8},
	}

	plan := generator.PlanDepartments(context.Background(), request)

	assert.Contains(t, plan.Timetables, "Computing")
	assert.Contains(t, plan.Errors, "Maths")
}

func TestEnsureAssignedLecturers(t *testing.T) {
	pool := testLecturers()
	courses := []model.Course{{ID: "c1", AssignedLecturerID: "l2"}, {ID: "c2", AssignedLecturerID: "missing"}}

	lecturers := ensureAssignedLecturers([]model.Lecturer{{ID: "l1"}}, courses, pool, zap.NewNop())

	require.Len(t, lecturers, 2)
	assert.Equal(t, "l2", lecturers[1].ID)
	assert.Equal(t, pool, ensureAssignedLecturers(nil, courses, pool, zap.NewNop()))
}

func TestResolveResourceConflicts(t *testing.T) {
	//** Arrange
	session := func(id, course, lecturer string) model.TimetableSession {
		return model.TimetableSession{
			ID: id, CourseID: course, ResourceID: "r1", ResourceName: "Main Hall", LecturerID: lecturer,
			DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:00",
		}
	}
	timetables := map[string]model.Timetable{
		"Computing": {Sessions: []model.TimetableSession{session("a", "c1", "l1")}},
		"Maths":     {Sessions: []model.TimetableSession{session("b", "m1", "l2")}},
	}
	conflicts := model.FindResourceConflicts(timetables)
	require.Len(t, conflicts["Computing"], 1)

	//** Act
	resolved := resolveResourceConflicts(timetables, conflicts, nil, model.DefaultOptions(), zap.NewNop())

	//** Assert
	assert.Equal(t, 1, resolved)
	assert.Empty(t, model.FindResourceConflicts(timetables))
	assert.Equal(t, "09:00", timetables["Computing"].Sessions[0].StartTime)
	moved := timetables["Maths"].Sessions[0]
	assert.Equal(t, "Monday", moved.DayOfWeek)
	assert.Equal(t, "10:00", moved.StartTime)
	assert.Equal(t, "11:00", moved.EndTime)
}

func TestResolveResourceConflictsKeepsCourseSpread(t *testing.T) {
	//** Arrange
	session := func(id, course, resource, lecturer string, slot model.Slot) model.TimetableSession {
		return model.TimetableSession{
			ID: id, CourseID: course, ResourceID: resource, LecturerID: lecturer,
			DayOfWeek: slot.Day.String(), StartTime: model.StartTime(slot.Hour), EndTime: model.EndTime(slot.Hour),
		}
	}
	computing := model.Timetable{}
	for hour := range model.HoursPerDay {
		slot := model.Slot{Day: model.Monday, Hour: hour}
		computing.Sessions = append(computing.Sessions, session(fmt.Sprintf("a%v", hour), "c1", "r1", "l1", slot))
	}
	timetables := map[string]model.Timetable{
		"Computing": computing,
		"Maths": {Sessions: []model.TimetableSession{
			session("b", "m1", "r1", "l2", model.Slot{Day: model.Monday}),
			session("c", "m1", "r2", "l3", model.Slot{Day: model.Tuesday}),
		}},
	}
	courses := map[string][]model.Course{"Maths": {{ID: "m1", SpreadCourseSessions: true}}}
	conflicts := model.FindResourceConflicts(timetables)

	//** Act
	resolved := resolveResourceConflicts(timetables, conflicts, courses, model.DefaultOptions(), zap.NewNop())

	//** Assert
	assert.Equal(t, 1, resolved)
	assert.Empty(t, model.FindResourceConflicts(timetables))
	moved := timetables["Maths"].Sessions[0]
	assert.Equal(t, "Wednesday", moved.DayOfWeek)
	assert.Equal(t, "09:00", moved.StartTime)
}

func TestPlanDepartmentsBudgetsEachDepartment(t *testing.T) {
	//** Arrange
	config := Config{Engine: EngineConstraint, Backend: BackendSAT, Timeout: 50 * time.Millisecond}
	generator := NewGenerator(config, WithSeed(4), WithSATSolver(blockingSATSolver{}))
	request := BatchRequest{
		Resources: testResources(),
		Lecturers: testLecturers(),
		Departments: []model.DepartmentInput{
			{Name: "A", Courses: []model.Course{{ID: "a1", Name: "A", Code: "A"}}},
			{Name: "B", Courses: []model.Course{{ID: "b1", Name: "B", Code: "B"}}},
		},
		Options: model.DefaultOptions(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	//** Act
	plan := generator.PlanDepartments(ctx, request)

	//** Assert
	require.Empty(t, plan.Errors)
	assert.Len(t, plan.Timetables, 2)
	assert.Len(t, plan.Timetables["B"].Sessions, 1)
}

func TestPlanDepartmentsStopsWhenCancelled(t *testing.T) {
	generator := NewGenerator(Config{Engine: EngineGreedy}, WithSeed(4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := generator.PlanDepartments(ctx, BatchRequest{
		Resources:   testResources(),
		Lecturers:   testLecturers(),
		Departments: []model.DepartmentInput{{Name: "A", Courses: []model.Course{{ID: "a1"}}}},
		Options:     model.DefaultOptions(),
	})

	assert.Empty(t, plan.Timetables)
	require.Contains(t, plan.Errors, "A")
	assert.ErrorIs(t, plan.Errors["A"], context.Canceled)
}
