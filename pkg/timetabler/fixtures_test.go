package timetabler

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/limaJavier/classtimetable/pkg/model"
)

func testResources() []model.Resource {
	return []model.Resource{
		{ID: "r1", Name: "Main Hall", Type: "LECTURE_HALL", Capacity: 120, Available: true},
		{ID: "r2", Name: "Room 2", Type: "CLASSROOM", Capacity: 40, Available: true},
		{ID: "r3", Name: "Computer Lab", Type: "COMPUTER_LAB", Capacity: 30, Available: true},
	}
}

func testLecturers() []model.Lecturer {
	return []model.Lecturer{
		{ID: "l1", Name: "Ada Lovelace"},
		{ID: "l2", Name: "Alan Turing"},
		{ID: "teacher1", Name: "Ivan Sutherland"},
	}
}

func testCourses() []model.Course {
	return []model.Course{
		{ID: "c1", Name: "Algorithms", Code: "CS101", NumberOfLectures: 2, NumberOfLabs: 1, AssignedLecturerID: "l1"},
		{ID: "c2", Name: "Databases", Code: "CS102", NumberOfLectures: 2},
		{ID: "c3", Name: "Networks", Code: "CS103", RequiredSessionsPerWeek: 2},
	}
}

func testRandom() *rand.Rand {
	return rand.New(rand.NewPCG(42, 1024))
}

// fillResource books every slot of a resource except the given ones.
func fillResource(resourceID string, free ...model.Slot) []model.TimetableSession {
	sessions := make([]model.TimetableSession, 0, model.SlotsPerWeek)
	for index := range model.SlotsPerWeek {
		slot := model.SlotFromIndex(index)
		if containsSlot(free, slot) {
			continue
		}
		sessions = append(sessions, model.TimetableSession{
			ID:         "x",
			ResourceID: resourceID,
			LecturerID: "external",
			DayOfWeek:  slot.Day.String(),
			StartTime:  model.StartTime(slot.Hour),
		})
	}
	return sessions
}

func containsSlot(slots []model.Slot, slot model.Slot) bool {
	for _, candidate := range slots {
		if candidate == slot {
			return true
		}
	}
	return false
}

// requireValidAssignments checks every hard rule on an assignment list.
func requireValidAssignments(t *testing.T, problem *Problem, assignments []Assignment) {
	t.Helper()
	for i, first := range assignments {
		require.True(t, problem.Occupancy.Resources.Free(first.Resource, first.Slot), "resource occupied elsewhere")
		require.True(t, problem.Occupancy.Lecturers.Free(first.Lecturer, first.Slot), "lecturer occupied elsewhere")
		require.Contains(t, problem.ResourceDomains[first.Session], first.Resource)
		require.Contains(t, problem.LecturerDomains[first.Session], first.Lecturer)

		for _, second := range assignments[i+1:] {
			require.NotEqual(t, first.Session, second.Session, "session placed twice")
			if first.Slot == second.Slot {
				require.True(t, problem.SameCourse(first.Session, second.Session), "two courses share a slot")
				require.NotEqual(t, first.Resource, second.Resource, "resource clash")
				require.NotEqual(t, first.Lecturer, second.Lecturer, "lecturer clash")
			}
			if problem.Options.AvoidBackToBackStudents {
				require.False(t, adjacent(first.Slot, second.Slot), "back-to-back sessions")
			}
			if problem.SameCourse(first.Session, second.Session) && problem.Spreads(first.Session) {
				require.NotEqual(t, first.Slot.Day, second.Slot.Day, "spread course repeats a day")
			}
		}
	}
}
