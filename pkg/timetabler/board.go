package timetabler

import (
	"slices"

	"github.com/limaJavier/classtimetable/pkg/model"
)

// board tracks one run's placements as an arena of assignments addressed by index, plus the
// boolean grids derived from it.
type board struct {
	problem   *Problem
	resources model.Grid
	lecturers model.Grid
	placed    []Assignment
	bySlot    [model.SlotsPerWeek][]int // arena indices per slot
}

func newBoard(problem *Problem) *board {
	return &board{
		problem:   problem,
		resources: slices.Clone(problem.Occupancy.Resources),
		lecturers: slices.Clone(problem.Occupancy.Lecturers),
		placed:    make([]Assignment, 0, len(problem.Sessions)),
	}
}

// fits checks every hard rule for placing session at slot with the given resource and lecturer.
func (b *board) fits(session int, slot model.Slot, resource, lecturer int) bool {
	return b.resources.Free(resource, slot) &&
		b.lecturers.Free(lecturer, slot) &&
		b.cohortFree(session, slot) &&
		b.studentsFree(slot) &&
		b.spreadFree(session, slot.Day, -1)
}

// cohortFree holds when no session of another course occupies the slot.
func (b *board) cohortFree(session int, slot model.Slot) bool {
	for _, index := range b.bySlot[slot.Index()] {
		if !b.problem.SameCourse(b.placed[index].Session, session) {
			return false
		}
	}
	return true
}

// studentsFree holds when back-to-back sessions for students are allowed or both neighbouring
// hours of the day are empty.
func (b *board) studentsFree(slot model.Slot) bool {
	if !b.problem.Options.AvoidBackToBackStudents {
		return true
	}
	for _, hour := range []int{slot.Hour - 1, slot.Hour + 1} {
		if hour >= 0 && hour < model.HoursPerDay && len(b.bySlot[model.Slot{Day: slot.Day, Hour: hour}.Index()]) > 0 {
			return false
		}
	}
	return true
}

// spreadFree holds when the session's course does not spread or has no other session that day.
// ignore is an arena index to leave out of the check.
func (b *board) spreadFree(session int, day model.Day, ignore int) bool {
	if !b.problem.Spreads(session) {
		return true
	}
	for hour := range model.HoursPerDay {
		for _, index := range b.bySlot[model.Slot{Day: day, Hour: hour}.Index()] {
			if index != ignore && b.problem.SameCourse(b.placed[index].Session, session) {
				return false
			}
		}
	}
	return true
}

func (b *board) place(assignment Assignment) int {
	index := len(b.placed)
	b.placed = append(b.placed, assignment)
	b.resources.Occupy(assignment.Resource, assignment.Slot)
	b.lecturers.Occupy(assignment.Lecturer, assignment.Slot)
	b.bySlot[assignment.Slot.Index()] = append(b.bySlot[assignment.Slot.Index()], index)
	return index
}

// move relocates an already placed assignment in place.
func (b *board) move(index int, slot model.Slot) {
	assignment := b.placed[index]
	b.resources.Release(assignment.Resource, assignment.Slot)
	b.lecturers.Release(assignment.Lecturer, assignment.Slot)
	from := assignment.Slot.Index()
	b.bySlot[from] = slices.DeleteFunc(b.bySlot[from], func(i int) bool { return i == index })

	assignment.Slot = slot
	b.placed[index] = assignment
	b.resources.Occupy(assignment.Resource, slot)
	b.lecturers.Occupy(assignment.Lecturer, slot)
	b.bySlot[slot.Index()] = append(b.bySlot[slot.Index()], index)
}

// hoursOf counts a lecturer's committed hours on a day, cross-department ones included.
func (b *board) hoursOf(lecturer int, day model.Day) int {
	return b.lecturers.BusyHours(lecturer, day)
}

func (b *board) dayLoad(day model.Day) int {
	load := 0
	for hour := range model.HoursPerDay {
		load += len(b.bySlot[model.Slot{Day: day, Hour: hour}.Index()])
	}
	return load
}

// courseDays counts, per day, the placed sessions of a course.
func (b *board) courseDays(course int) [model.DaysPerWeek]int {
	var days [model.DaysPerWeek]int
	for _, assignment := range b.placed {
		if b.problem.Sessions[assignment.Session].Course == course {
			days[assignment.Slot.Day]++
		}
	}
	return days
}
