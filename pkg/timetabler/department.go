package timetabler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/limaJavier/classtimetable/pkg/model"
)

// DepartmentPlan is the outcome of a batch run over several departments sharing resources.
type DepartmentPlan struct {
	Timetables map[string]model.Timetable
	Errors     map[string]error
	// Conflicts left after resolution, per department.
	Conflicts map[string][]model.ResourceConflict
	Resolved  int
}

// BatchRequest describes departments generated one after the other against shared resources.
type BatchRequest struct {
	Resources    []model.Resource
	Lecturers    []model.Lecturer // pool for lecturers assigned to a department's courses
	Departments  []model.DepartmentInput
	Options      model.Options
	AcademicTerm string
	AcademicYear string
}

// PlanDepartments generates departments sequentially, each under its own RunBudget. Each department
// sees the sessions generated so far by the others as occupied slots; cross-department resource
// clashes left afterwards are resolved by moving sessions where possible. Cancelling ctx stops the
// batch, its deadline does not.
func (generator *Generator) PlanDepartments(ctx context.Context, request BatchRequest) DepartmentPlan {
	plan := DepartmentPlan{
		Timetables: make(map[string]model.Timetable),
		Errors:     make(map[string]error),
	}

	committed := slices.Clone(request.Options.CrossDepartmentSessions)
	for _, department := range request.Departments {
		options := request.Options
		options.CrossDepartmentSessions = committed

		if errors.Is(ctx.Err(), context.Canceled) {
			plan.Errors[department.Name] = fmt.Errorf("department %v not generated: %w", department.Name, ctx.Err())
			continue
		}

		lecturers := ensureAssignedLecturers(department.Lecturers, department.Courses, request.Lecturers, generator.logger)
		departmentCtx, cancel := generator.departmentContext(ctx)
		timetable, err := generator.Run(departmentCtx, Request{
			Resources:    request.Resources,
			Lecturers:    lecturers,
			Courses:      department.Courses,
			Options:      options,
			AcademicTerm: request.AcademicTerm,
			AcademicYear: request.AcademicYear,
			Department:   department.Name,
		})
		cancel()
		if err != nil {
			plan.Errors[department.Name] = err
			continue
		}

		plan.Timetables[department.Name] = timetable
		committed = append(slices.Clone(committed), timetable.Sessions...)
	}

	conflicts := model.FindResourceConflicts(plan.Timetables)
	if len(conflicts) > 0 {
		courses := lo.SliceToMap(request.Departments, func(department model.DepartmentInput) (string, []model.Course) {
			return department.Name, department.Courses
		})
		plan.Resolved = resolveResourceConflicts(plan.Timetables, conflicts, courses, request.Options, generator.logger)
		conflicts = model.FindResourceConflicts(plan.Timetables)
	}
	plan.Conflicts = conflicts

	generator.logger.Info("department batch finished",
		zap.Int("departments", len(request.Departments)),
		zap.Int("generated", len(plan.Timetables)),
		zap.Int("failed", len(plan.Errors)),
		zap.Int("resolvedConflicts", plan.Resolved))
	return plan
}

// departmentContext detaches a department from the caller's deadline but not from its cancellation.
func (generator *Generator) departmentContext(ctx context.Context) (context.Context, context.CancelFunc) {
	departmentCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generator.RunBudget())
	stop := context.AfterFunc(ctx, func() {
		if errors.Is(ctx.Err(), context.Canceled) {
			cancel()
		}
	})
	return departmentCtx, func() {
		stop()
		cancel()
	}
}

// ensureAssignedLecturers adds to a department's lecturers the ones its courses are assigned to.
// A department without lecturers uses the whole pool.
func ensureAssignedLecturers(lecturers []model.Lecturer, courses []model.Course, pool []model.Lecturer, logger *zap.Logger) []model.Lecturer {
	if len(lecturers) == 0 {
		return pool
	}

	result := slices.Clone(lecturers)
	for _, course := range courses {
		if course.AssignedLecturerID == "" || lo.ContainsBy(result, func(lecturer model.Lecturer) bool {
			return lecturer.ID == course.AssignedLecturerID
		}) {
			continue
		}
		if lecturer, ok := lo.Find(pool, func(lecturer model.Lecturer) bool {
			return lecturer.ID == course.AssignedLecturerID
		}); ok {
			result = append(result, lecturer)
			logger.Debug("added assigned lecturer to department pool",
				zap.String("course", course.ID), zap.String("lecturer", lecturer.ID))
		}
	}
	return result
}

type weekGrid = [model.DaysPerWeek][model.HoursPerDay]bool // true means busy

// resolveResourceConflicts moves the second session of each clash to a slot where its resource and
// lecturer are free in every department and its own department keeps the single-cohort rule.
// courses holds each department's courses, keyed like timetables.
func resolveResourceConflicts(timetables map[string]model.Timetable, conflicts map[string][]model.ResourceConflict, courses map[string][]model.Course, options model.Options, logger *zap.Logger) int {
	resources := make(map[string]*weekGrid)
	lecturers := make(map[string]*weekGrid)
	mark := func(grids map[string]*weekGrid, id string, slot model.Slot, busy bool) {
		if id == "" {
			return
		}
		if grids[id] == nil {
			grids[id] = &weekGrid{}
		}
		grids[id][slot.Day][slot.Hour] = busy
	}
	busy := func(grids map[string]*weekGrid, id string, slot model.Slot) bool {
		return grids[id] != nil && grids[id][slot.Day][slot.Hour]
	}

	for _, timetable := range timetables {
		for _, session := range timetable.Sessions {
			if slot, ok := session.Slot(); ok {
				mark(resources, session.ResourceID, slot, true)
				mark(lecturers, session.LecturerID, slot, true)
			}
		}
	}

	departments := lo.Keys(conflicts)
	slices.Sort(departments)

	resolved := 0
	for _, department := range departments {
		for _, conflict := range conflicts[department] {
			if conflict.Department1 != department {
				continue
			}
			timetable := timetables[conflict.Department2]
			index := slices.IndexFunc(timetable.Sessions, func(session model.TimetableSession) bool {
				return session.ID == conflict.Session2.ID
			})
			if index < 0 {
				continue
			}
			session := timetable.Sessions[index]
			from, _ := session.Slot()

			target, ok := lo.Find(lo.Map(lo.Range(model.SlotsPerWeek), func(i int, _ int) model.Slot { return model.SlotFromIndex(i) }), func(slot model.Slot) bool {
				return !busy(resources, session.ResourceID, slot) &&
					!busy(lecturers, session.LecturerID, slot) &&
					departmentAllows(timetable, index, slot, options, courses[conflict.Department2])
			})
			if !ok {
				logger.Warn("cannot resolve resource conflict", zap.String("conflict", conflict.String()))
				continue
			}

			session.DayOfWeek = target.Day.String()
			session.StartTime = model.StartTime(target.Hour)
			session.EndTime = model.EndTime(target.Hour)
			timetable.Sessions[index] = session
			timetables[conflict.Department2] = timetable

			// The resource stays busy at the old slot; the lecturer only if it teaches the other session.
			mark(lecturers, session.LecturerID, from, conflict.Session1.LecturerID == session.LecturerID)
			mark(resources, session.ResourceID, target, true)
			mark(lecturers, session.LecturerID, target, true)
			resolved++
			logger.Info("resolved resource conflict",
				zap.String("conflict", conflict.String()),
				zap.String("movedTo", target.Day.String()+" "+session.StartTime))
		}
	}
	return resolved
}

// departmentAllows checks the moved session against the rest of its own timetable.
func departmentAllows(timetable model.Timetable, moved int, target model.Slot, options model.Options, courses []model.Course) bool {
	course := timetable.Sessions[moved].CourseID
	definition, _ := lo.Find(courses, func(candidate model.Course) bool { return candidate.ID == course })
	spreads := options.Spreads(definition)
	for i, other := range timetable.Sessions {
		slot, ok := other.Slot()
		if i == moved || !ok {
			continue
		}
		if slot == target && other.CourseID != course {
			return false
		}
		if options.AvoidBackToBackStudents && adjacent(slot, target) {
			return false
		}
		if spreads && other.CourseID == course && slot.Day == target.Day {
			return false
		}
	}
	return true
}
