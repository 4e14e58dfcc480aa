package timetabler

import (
	"sort"

	"github.com/google/uuid"

	"github.com/limaJavier/classtimetable/pkg/model"
)

// decodeSessions turns assignments into timetable sessions ordered by day and hour.
func decodeSessions(problem *Problem, assignments []Assignment, timetableID string) []model.TimetableSession {
	ordered := make([]Assignment, len(assignments))
	copy(ordered, assignments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Slot.Index() < ordered[j].Slot.Index()
	})

	sessions := make([]model.TimetableSession, 0, len(ordered))
	for _, assignment := range ordered {
		pending := problem.Sessions[assignment.Session]
		course := problem.Courses[pending.Course]
		resource := problem.Resources[assignment.Resource]
		lecturer := problem.Lecturers[assignment.Lecturer]

		sessions = append(sessions, model.TimetableSession{
			ID:           uuid.NewString(),
			TimetableID:  timetableID,
			CourseID:     course.ID,
			CourseName:   course.Name,
			CourseCode:   course.Code,
			LecturerID:   lecturer.ID,
			LecturerName: lecturer.Name,
			ResourceID:   resource.ID,
			ResourceName: resource.Name,
			DayOfWeek:    assignment.Slot.Day.String(),
			StartTime:    model.StartTime(assignment.Slot.Hour),
			EndTime:      model.EndTime(assignment.Slot.Hour),
			SessionType:  pending.Kind.String(),
			Department:   course.Department,
		})
	}
	return sessions
}
