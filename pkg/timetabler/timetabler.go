package timetabler

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/limaJavier/classtimetable/pkg/model"
)

// errInfeasible means no complete assignment was found within the search budget.
var errInfeasible = errors.New("no complete assignment found within budget")

// Timetabler is a solving strategy. Build may return a partial assignment list; completeness is
// enforced afterwards by the verifier.
type Timetabler interface {
	Name() string
	Build(ctx context.Context, problem *Problem) ([]Assignment, error)
}

// Assignment places the pending session at index Session.
type Assignment struct {
	Session  int
	Slot     model.Slot
	Resource int
	Lecturer int
}

// Problem is the per-call, read-only view shared by every strategy.
type Problem struct {
	Resources []model.Resource
	Lecturers []model.Lecturer
	Courses   []model.Course
	Sessions  []model.PendingSession
	Options   model.Options

	// Per-session compatible indices into Resources and Lecturers.
	ResourceDomains [][]int
	LecturerDomains [][]int

	// Slots already committed by other departments.
	Occupancy model.Occupancy
}

func NewProblem(resources []model.Resource, lecturers []model.Lecturer, courses []model.Course, options model.Options, logger *zap.Logger) *Problem {
	if logger == nil {
		logger = zap.NewNop()
	}

	resources = options.FilterResources(resources)
	courses = model.NormalizeCourses(courses, logger)
	sessions := model.ExpandSessions(courses)

	courseResources := make([][]int, len(courses))
	courseLecturers := make([][]int, len(courses))
	for i, course := range courses {
		courseResources[i] = model.ResourceDomain(course, resources, logger)
		courseLecturers[i] = model.LecturerDomain(course, lecturers, logger)
	}

	problem := &Problem{
		Resources:       resources,
		Lecturers:       lecturers,
		Courses:         courses,
		Sessions:        sessions,
		Options:         options,
		ResourceDomains: make([][]int, len(sessions)),
		LecturerDomains: make([][]int, len(sessions)),
	}
	for i, session := range sessions {
		problem.ResourceDomains[i] = courseResources[session.Course]
		problem.LecturerDomains[i] = courseLecturers[session.Course]
	}
	problem.Occupancy, _ = model.SeedOccupancy(options.CrossDepartmentSessions, resources, lecturers, logger)

	return problem
}

// Schedulable is false when no session can receive a resource or a lecturer.
func (problem *Problem) Schedulable() bool {
	return len(problem.Resources) > 0 && len(problem.Lecturers) > 0
}

func (problem *Problem) Course(session int) model.Course {
	return problem.Courses[problem.Sessions[session].Course]
}

func (problem *Problem) SameCourse(session1, session2 int) bool {
	return problem.Sessions[session1].Course == problem.Sessions[session2].Course
}

// Spreads reports whether the sessions of the course owning session must use distinct days.
func (problem *Problem) Spreads(session int) bool {
	return problem.Options.Spreads(problem.Course(session))
}

// CandidateSlots lists the slots where at least one compatible resource and lecturer are free.
func (problem *Problem) CandidateSlots(session int) []model.Slot {
	slots := make([]model.Slot, 0, model.SlotsPerWeek)
	for index := range model.SlotsPerWeek {
		slot := model.SlotFromIndex(index)
		if problem.anyFree(problem.Occupancy.Resources, problem.ResourceDomains[session], slot) &&
			problem.anyFree(problem.Occupancy.Lecturers, problem.LecturerDomains[session], slot) {
			slots = append(slots, slot)
		}
	}
	return slots
}

func (problem *Problem) anyFree(grid model.Grid, domain []int, slot model.Slot) bool {
	for _, entity := range domain {
		if grid.Free(entity, slot) {
			return true
		}
	}
	return false
}

// Diagnostics summarizes the run for the completeness report.
func (problem *Problem) Diagnostics(engine string) model.Diagnostics {
	return model.Diagnostics{
		Resources: len(problem.Resources),
		Lecturers: len(problem.Lecturers),
		Courses:   len(problem.Courses),
		Engine:    engine,
	}
}
