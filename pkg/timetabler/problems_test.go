package timetabler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/classtimetable/pkg/model"
)

func loadProblem(t *testing.T, name string) model.Input {
	t.Helper()
	input, err := model.InputFromJson(filepath.Join("..", "..", "testdata", "problems", name))
	require.NoError(t, err)
	return input
}

func TestGenerateSmallProblemFile(t *testing.T) {
	//** Arrange
	input := loadProblem(t, "small.json")
	options := input.GenerationOptions(model.DefaultOptions())
	generator := NewGenerator(Config{Engine: EngineGreedy}, WithSeed(13))

	//** Act
	timetable, err := generator.Run(context.Background(), Request{
		Resources:    input.Resources,
		Lecturers:    input.Lecturers,
		Courses:      input.Courses,
		Options:      options,
		AcademicTerm: input.AcademicTerm,
		AcademicYear: input.AcademicYear,
		Department:   input.Department,
	})

	//** Assert
	require.NoError(t, err)
	requireTimetableProperties(t, input.Courses, timetable, options)
	assert.Equal(t, "Computing", timetable.Department)
	for _, session := range timetable.Sessions {
		if session.CourseID == "c1" {
			assert.Equal(t, "l1", session.LecturerID)
		}
		if session.SessionType == "LAB" {
			assert.Equal(t, "r3", session.ResourceID)
		}
	}
}

func TestPlanDepartmentsProblemFile(t *testing.T) {
	//** Arrange
	input := loadProblem(t, "departments.json")
	options := input.GenerationOptions(model.DefaultOptions())
	generator := NewGenerator(Config{Engine: EngineGreedy}, WithSeed(17))

	//** Act
	plan := generator.PlanDepartments(context.Background(), BatchRequest{
		Resources:    input.Resources,
		Lecturers:    input.Lecturers,
		Departments:  input.Departments,
		Options:      options,
		AcademicTerm: input.AcademicTerm,
		AcademicYear: input.AcademicYear,
	})

	//** Assert
	require.Empty(t, plan.Errors)
	require.Len(t, plan.Timetables, 3)
	assert.Empty(t, plan.Conflicts)
	for _, department := range input.Departments {
		timetable := plan.Timetables[department.Name]
		requireTimetableProperties(t, department.Courses, timetable, options)
		assert.Equal(t, "Autumn", timetable.AcademicTerm)
	}
	for _, session := range plan.Timetables["Maths"].Sessions {
		assert.Equal(t, "l3", session.LecturerID)
	}
}
