package timetabler

import (
	"github.com/samber/lo"

	"github.com/limaJavier/classtimetable/pkg/model"
)

// satState is shared by the clause generators of one encoding.
type satState struct {
	problem    *Problem
	indexer    indexer
	candidates [][]model.Slot
}

func (state satState) slot(session int, slot model.Slot) int64 {
	return state.indexer.Index(slotLiteral, session, slot.Index())
}

func (state satState) resource(session, resource int) int64 {
	return state.indexer.Index(resourceLiteral, session, resource)
}

func (state satState) lecturer(session, lecturer int) int64 {
	return state.indexer.Index(lecturerLiteral, session, lecturer)
}

// exactlyOne is one at-least-one clause plus pairwise at-most-one clauses.
func exactlyOne(literals []int64) [][]int64 {
	clauses := [][]int64{literals}
	for i := range len(literals) - 1 {
		for j := i + 1; j < len(literals); j++ {
			clauses = append(clauses, []int64{-literals[i], -literals[j]})
		}
	}
	return clauses
}

// completenessConstraints give every session exactly one slot, resource and lecturer.
func completenessConstraints(state satState) [][]int64 {
	clauses := make([][]int64, 0)
	for session := range state.problem.Sessions {
		clauses = append(clauses, exactlyOne(lo.Map(state.candidates[session], func(slot model.Slot, _ int) int64 {
			return state.slot(session, slot)
		}))...)
		clauses = append(clauses, exactlyOne(lo.Map(state.problem.ResourceDomains[session], func(resource int, _ int) int64 {
			return state.resource(session, resource)
		}))...)
		clauses = append(clauses, exactlyOne(lo.Map(state.problem.LecturerDomains[session], func(lecturer int, _ int) int64 {
			return state.lecturer(session, lecturer)
		}))...)
	}
	return clauses
}

// cohortConstraints keep sessions of different courses out of the same slot, which also rules out
// any resource or lecturer clash between them.
func cohortConstraints(state satState) [][]int64 {
	clauses := make([][]int64, 0)
	forEachPair(state.problem, func(session1, session2 int) {
		if state.problem.SameCourse(session1, session2) {
			return
		}
		for _, slot := range lo.Intersect(state.candidates[session1], state.candidates[session2]) {
			clauses = append(clauses, []int64{-state.slot(session1, slot), -state.slot(session2, slot)})
		}
	})
	return clauses
}

// sharedSlotConstraints forbid two sessions of one course sharing a slot from also sharing a
// resource or a lecturer. Spreading courses never share a day, so they are skipped.
func sharedSlotConstraints(state satState) [][]int64 {
	clauses := make([][]int64, 0)
	forEachPair(state.problem, func(session1, session2 int) {
		if !state.problem.SameCourse(session1, session2) || state.problem.Spreads(session1) {
			return
		}
		resources := lo.Intersect(state.problem.ResourceDomains[session1], state.problem.ResourceDomains[session2])
		lecturers := lo.Intersect(state.problem.LecturerDomains[session1], state.problem.LecturerDomains[session2])

		for _, slot := range lo.Intersect(state.candidates[session1], state.candidates[session2]) {
			for _, resource := range resources {
				clauses = append(clauses, []int64{
					-state.slot(session1, slot), -state.slot(session2, slot),
					-state.resource(session1, resource), -state.resource(session2, resource),
				})
			}
			for _, lecturer := range lecturers {
				clauses = append(clauses, []int64{
					-state.slot(session1, slot), -state.slot(session2, slot),
					-state.lecturer(session1, lecturer), -state.lecturer(session2, lecturer),
				})
			}
		}
	})
	return clauses
}

// spreadConstraints keep two sessions of a spreading course on different days.
func spreadConstraints(state satState) [][]int64 {
	clauses := make([][]int64, 0)
	forEachPair(state.problem, func(session1, session2 int) {
		if !state.problem.SameCourse(session1, session2) || !state.problem.Spreads(session1) {
			return
		}
		for _, slot1 := range state.candidates[session1] {
			for _, slot2 := range state.candidates[session2] {
				if slot1.Day == slot2.Day {
					clauses = append(clauses, []int64{-state.slot(session1, slot1), -state.slot(session2, slot2)})
				}
			}
		}
	})
	return clauses
}

// studentConstraints forbid any two sessions in adjacent hours of a day.
func studentConstraints(state satState) [][]int64 {
	clauses := make([][]int64, 0)
	if !state.problem.Options.AvoidBackToBackStudents {
		return clauses
	}
	forEachPair(state.problem, func(session1, session2 int) {
		for _, slot1 := range state.candidates[session1] {
			for _, slot2 := range state.candidates[session2] {
				if adjacent(slot1, slot2) {
					clauses = append(clauses, []int64{-state.slot(session1, slot1), -state.slot(session2, slot2)})
				}
			}
		}
	})
	return clauses
}

// occupancyConstraints keep sessions off resources and lecturers committed by other departments.
func occupancyConstraints(state satState) [][]int64 {
	clauses := make([][]int64, 0)
	occupancy := state.problem.Occupancy
	for session := range state.problem.Sessions {
		for _, slot := range state.candidates[session] {
			for _, resource := range state.problem.ResourceDomains[session] {
				if !occupancy.Resources.Free(resource, slot) {
					clauses = append(clauses, []int64{-state.slot(session, slot), -state.resource(session, resource)})
				}
			}
			for _, lecturer := range state.problem.LecturerDomains[session] {
				if !occupancy.Lecturers.Free(lecturer, slot) {
					clauses = append(clauses, []int64{-state.slot(session, slot), -state.lecturer(session, lecturer)})
				}
			}
		}
	}
	return clauses
}

func forEachPair(problem *Problem, action func(session1, session2 int)) {
	for session1 := range len(problem.Sessions) - 1 {
		for session2 := session1 + 1; session2 < len(problem.Sessions); session2++ {
			action(session1, session2)
		}
	}
}
