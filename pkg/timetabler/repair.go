package timetabler

import (
	"slices"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/limaJavier/classtimetable/pkg/model"
)

// repairReport counts what the repair pass changed.
type repairReport struct {
	Rematched int
	Moved     int
	Dropped   int
}

// repair replays assignments on a fresh board. An assignment that collides with what is already
// placed first tries a resource re-matching inside its slot, then a move to another slot keeping
// its resource and lecturer; when both fail it is dropped so the verifier reports the shortfall.
func repair(problem *Problem, assignments []Assignment, logger *zap.Logger) ([]Assignment, repairReport) {
	var report repairReport
	b := newBoard(problem)

	for _, assignment := range assignments {
		if b.fits(assignment.Session, assignment.Slot, assignment.Resource, assignment.Lecturer) {
			b.place(assignment)
			continue
		}
		if b.rematch(assignment) {
			report.Rematched++
			continue
		}
		if slot, ok := b.relocation(assignment); ok {
			assignment.Slot = slot
			b.place(assignment)
			report.Moved++
			logger.Debug("relocated conflicting session",
				zap.String("course", problem.Course(assignment.Session).ID),
				zap.String("day", slot.Day.String()),
				zap.String("startTime", model.StartTime(slot.Hour)))
			continue
		}

		report.Dropped++
		logger.Warn("dropping session that could not be repaired",
			zap.String("course", problem.Course(assignment.Session).ID),
			zap.Int("ordinal", problem.Sessions[assignment.Session].Ordinal))
	}

	if report != (repairReport{}) {
		logger.Info("repaired assignment",
			zap.Int("rematched", report.Rematched),
			zap.Int("moved", report.Moved),
			zap.Int("dropped", report.Dropped))
	}
	return b.placed, report
}

// rematch redistributes the resources of the assignments sharing the slot so the newcomer fits.
// It only applies when the resource is the sole obstacle.
func (b *board) rematch(assignment Assignment) bool {
	slot := assignment.Slot
	if !b.lecturers.Free(assignment.Lecturer, slot) ||
		!b.cohortFree(assignment.Session, slot) ||
		!b.studentsFree(slot) ||
		!b.spreadFree(assignment.Session, slot.Day, -1) {
		return false
	}

	members := append(slices.Clone(b.bySlot[slot.Index()]), -1) // -1 stands for the newcomer
	session := func(member int) int {
		if member < 0 {
			return assignment.Session
		}
		return b.placed[member].Session
	}

	resources := lo.Uniq(lo.FlatMap(members, func(member int, _ int) []int {
		return lo.Filter(b.problem.ResourceDomains[session(member)], func(resource int, _ int) bool {
			return b.problem.Occupancy.Resources.Free(resource, slot)
		})
	}))
	if len(resources) < len(members) {
		return false
	}

	neighbors := func(memberAny any, resourceAny any) (bool, error) {
		return slices.Contains(b.problem.ResourceDomains[session(memberAny.(int))], resourceAny.(int)), nil
	}
	membersAny := lo.Map(members, func(member int, _ int) any { return member })
	resourcesAny := lo.Map(resources, func(resource int, _ int) any { return resource })

	graph, err := bipartitegraph.NewBipartiteGraph(membersAny, resourcesAny, neighbors)
	if err != nil {
		return false
	}
	matching := graph.LargestMatching()
	if len(matching) < len(members) {
		return false
	}

	for _, member := range members[:len(members)-1] {
		b.resources.Release(b.placed[member].Resource, slot)
	}
	for _, edge := range matching {
		member, resource := members[edge.Node1], resources[edge.Node2-len(members)]
		if member < 0 {
			assignment.Resource = resource
			continue
		}
		b.placed[member].Resource = resource
		b.resources.Occupy(resource, slot)
	}
	b.place(assignment)
	return true
}

// relocation looks for a slot where the assignment fits unchanged: the same day first, then the
// remaining days from the least loaded.
func (b *board) relocation(assignment Assignment) (model.Slot, bool) {
	days := lo.Filter(lo.Range(model.DaysPerWeek), func(day int, _ int) bool { return day != int(assignment.Slot.Day) })
	slices.SortStableFunc(days, func(first, second int) int {
		return b.dayLoad(model.Day(first)) - b.dayLoad(model.Day(second))
	})
	days = append([]int{int(assignment.Slot.Day)}, days...)

	for _, day := range days {
		for hour := range model.HoursPerDay {
			slot := model.Slot{Day: model.Day(day), Hour: hour}
			if slot == assignment.Slot {
				continue
			}
			if b.fits(assignment.Session, slot, assignment.Resource, assignment.Lecturer) {
				return slot, true
			}
		}
	}
	return model.Slot{}, false
}
