package model

import (
	"fmt"
	"strings"
)

// Shortfall describes a course that did not receive all of its sessions.
type Shortfall struct {
	CourseID   string `json:"courseId"`
	CourseName string `json:"courseName"`
	CourseCode string `json:"courseCode"`
	Scheduled  int    `json:"scheduled"`
	Required   int    `json:"required"`
}

type Diagnostics struct {
	Resources int    `json:"resources"`
	Lecturers int    `json:"lecturers"`
	Courses   int    `json:"courses"`
	Engine    string `json:"engine"`
}

// IncompleteScheduleError is the only generation failure surfaced to callers.
type IncompleteScheduleError struct {
	Shortfalls  []Shortfall `json:"shortfalls"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

func (err *IncompleteScheduleError) Unscheduled() []Shortfall {
	var unscheduled []Shortfall
	for _, shortfall := range err.Shortfalls {
		if shortfall.Scheduled == 0 {
			unscheduled = append(unscheduled, shortfall)
		}
	}
	return unscheduled
}

func (err *IncompleteScheduleError) Partial() []Shortfall {
	var partial []Shortfall
	for _, shortfall := range err.Shortfalls {
		if shortfall.Scheduled > 0 && shortfall.Scheduled < shortfall.Required {
			partial = append(partial, shortfall)
		}
	}
	return partial
}

// Overscheduled lists courses that received more sessions than they require.
func (err *IncompleteScheduleError) Overscheduled() []Shortfall {
	var overscheduled []Shortfall
	for _, shortfall := range err.Shortfalls {
		if shortfall.Scheduled > shortfall.Required {
			overscheduled = append(overscheduled, shortfall)
		}
	}
	return overscheduled
}

func (err *IncompleteScheduleError) Error() string {
	var builder strings.Builder
	builder.WriteString("Cannot generate complete timetable.\n")

	if unscheduled := err.Unscheduled(); len(unscheduled) > 0 {
		fmt.Fprintf(&builder, "\nThe following %d course(s) could not be scheduled:\n", len(unscheduled))
		for _, shortfall := range unscheduled {
			fmt.Fprintf(&builder, "\t- %v (%v): 0/%d sessions\n", shortfall.CourseName, shortfall.CourseCode, shortfall.Required)
		}
	}
	if partial := err.Partial(); len(partial) > 0 {
		fmt.Fprintf(&builder, "\nThe following %d course(s) were only partially scheduled:\n", len(partial))
		for _, shortfall := range partial {
			fmt.Fprintf(&builder, "\t- %v (%v): %d/%d sessions\n", shortfall.CourseName, shortfall.CourseCode, shortfall.Scheduled, shortfall.Required)
		}
	}
	if overscheduled := err.Overscheduled(); len(overscheduled) > 0 {
		fmt.Fprintf(&builder, "\nThe following %d course(s) received more sessions than required:\n", len(overscheduled))
		for _, shortfall := range overscheduled {
			fmt.Fprintf(&builder, "\t- %v (%v): %d/%d sessions\n", shortfall.CourseName, shortfall.CourseCode, shortfall.Scheduled, shortfall.Required)
		}
	}

	builder.WriteString("\nDiagnostic information:\n")
	fmt.Fprintf(&builder, "\t- Resources: %d\n", err.Diagnostics.Resources)
	fmt.Fprintf(&builder, "\t- Lecturers: %d\n", err.Diagnostics.Lecturers)
	fmt.Fprintf(&builder, "\t- Courses: %d\n", err.Diagnostics.Courses)
	fmt.Fprintf(&builder, "\t- Engine: %v\n", err.Diagnostics.Engine)

	builder.WriteString("\nPossible causes:\n")
	builder.WriteString("\t- Not enough resources or lecturers for the weekly load\n")
	builder.WriteString("\t- Too many courses competing for the same slots\n")
	builder.WriteString("\t- Cross-department sessions already occupy the required resources or lecturers\n")

	builder.WriteString("\nRecommendations:\n")
	builder.WriteString("\t- Add resources or lecturers\n")
	builder.WriteString("\t- Reduce the number of concurrent sessions or relax generation options\n")
	builder.WriteString("\t- Try the other generation engine\n")

	return builder.String()
}

// VerifyCompleteness checks that every course received exactly its required number of sessions.
func VerifyCompleteness(courses []Course, timetable Timetable, diagnostics Diagnostics) error {
	scheduled := timetable.SessionsPerCourse()

	var shortfalls []Shortfall
	for _, course := range courses {
		required := course.RequiredSessions()
		if scheduled[course.ID] == required {
			continue
		}
		shortfalls = append(shortfalls, Shortfall{
			CourseID:   course.ID,
			CourseName: course.Name,
			CourseCode: course.Code,
			Scheduled:  scheduled[course.ID],
			Required:   required,
		})
	}

	if len(shortfalls) == 0 {
		return nil
	}
	return &IncompleteScheduleError{Shortfalls: shortfalls, Diagnostics: diagnostics}
}
