package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const problemJson = `{
	"academicTerm": "Spring",
	"academicYear": "2025",
	"department": "Computing",
	"resources": [
		{"id": "r1", "name": "Main Hall", "type": "LECTURE_HALL", "capacity": 120, "available": true},
		{"id": "r2", "name": "Lab 1", "type": "COMPUTER_LAB", "capacity": 30, "available": false}
	],
	"lecturers": [{"id": "l1", "name": "Ada"}],
	"courses": [
		{"id": "c1", "name": "Algorithms", "code": "CS101", "numberOfLectures": 2, "numberOfLabs": 1, "assignedLecturerId": "l1"}
	],
	"options": {
		"avoidBackToBackStudents": true,
		"maxHoursPerDay": 4,
		"crossDepartmentSessions": [
			{"id": "x", "resourceId": "r1", "lecturerId": "l9", "dayOfWeek": "Monday", "startTime": "10:00"}
		]
	},
	"onlyAvailableResources": true
}`

func TestInputFromJson(t *testing.T) {
	//** Arrange
	file := filepath.Join(t.TempDir(), "problem.json")
	require.NoError(t, os.WriteFile(file, []byte(problemJson), 0666))

	//** Act
	input, err := InputFromJson(file)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, "Spring", input.AcademicTerm)
	require.Len(t, input.Resources, 2)
	assert.Equal(t, 120, input.Resources[0].Capacity)
	require.Len(t, input.Courses, 1)
	assert.Equal(t, 3, input.Courses[0].RequiredSessions())
	assert.Equal(t, "l1", input.Courses[0].AssignedLecturerID)
	assert.False(t, input.Batch())

	options := input.GenerationOptions(DefaultOptions())
	assert.True(t, options.AvoidBackToBackStudents)
	assert.Equal(t, 4, options.MaxHoursPerDay)
	require.Len(t, options.CrossDepartmentSessions, 1)
	assert.Equal(t, "r1", options.CrossDepartmentSessions[0].ResourceID)
	assert.Equal(t, "Monday", options.CrossDepartmentSessions[0].DayOfWeek)
	assert.Len(t, options.FilterResources(input.Resources), 1)
}

func TestInputValidation(t *testing.T) {
	_, err := InputFromBytes([]byte(`{"resources": [{"name": "no id"}]}`))
	assert.Error(t, err)

	_, err = InputFromBytes([]byte(`{"resources": []}`))
	assert.Error(t, err)

	_, err = InputFromBytes([]byte(`{"resources": [{"id": "r"}, {"id": "r"}]}`))
	assert.Error(t, err)

	_, err = InputFromBytes([]byte(`{"resources": [{"id": "r"}], "courses": [{"id": "c1", "name": "A"}, {"id": "c1", "name": "B"}]}`))
	assert.ErrorContains(t, err, `duplicated course id "c1"`)

	_, err = InputFromBytes([]byte(`{"resources": [{"id": "r"}], "lecturers": [{"id": "l"}, {"id": "l"}]}`))
	assert.ErrorContains(t, err, `duplicated lecturer id "l"`)

	_, err = InputFromBytes([]byte(`{"resources": [{"id": "r"}], "departments": [{"name": "Maths", "courses": [{"id": "m"}, {"id": "m"}]}]}`))
	assert.ErrorContains(t, err, "department Maths")

	_, err = InputFromBytes([]byte(`{"resources": [{"id": "r"}], "courses": [{"name": "A"}, {"name": "B"}]}`))
	assert.NoError(t, err)

	_, err = InputFromBytes([]byte(`{"resources": [{"id": "r"}], "options": {"maxHoursPerDay": 12}}`))
	assert.Error(t, err)

	_, err = InputFromBytes([]byte(`{"resources": [{"id": "r"}], "lecturers": [{"id": "l"}]}`))
	assert.NoError(t, err)
}

func TestGenerationOptionsDefaults(t *testing.T) {
	options := Input{}.GenerationOptions(DefaultOptions())

	assert.Equal(t, 6, options.MaxHoursPerDay)
	assert.Nil(t, options.ResourceFilter)
	assert.Equal(t, 8, Options{}.HoursCap())
}

func TestProblemFiles(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "testdata", "problems", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			input, err := InputFromJson(file)

			require.NoError(t, err)
			assert.NotEmpty(t, input.Resources)
			assert.True(t, len(input.Courses) > 0 || input.Batch())
		})
	}
}
