package timetabler

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/limaJavier/classtimetable/pkg/model"
)

const (
	greedyPasses      = 3
	specialtyLecturer = "teacher1"
)

// Rooms never handed out by the greedy engine, compared trimmed and case-insensitively.
var deniedRooms = []string{"gy", "a5", "a6", "ac4"}

type greedyTimetabler struct {
	random *rand.Rand
	logger *zap.Logger
}

// NewGreedyTimetabler places sessions one at a time without backtracking. A committed session is
// never undone; sessions left over are retried in later passes.
func NewGreedyTimetabler(random *rand.Rand, logger *zap.Logger) Timetabler {
	if random == nil {
		random = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &greedyTimetabler{random: random, logger: logger}
}

func (timetabler *greedyTimetabler) Name() string {
	return "greedy"
}

func (timetabler *greedyTimetabler) Build(ctx context.Context, problem *Problem) ([]Assignment, error) {
	if !problem.Schedulable() {
		timetabler.logger.Warn("nothing to schedule with",
			zap.Int("resources", len(problem.Resources)), zap.Int("lecturers", len(problem.Lecturers)))
		return nil, nil
	}

	pool := allowedResources(problem.Resources)
	if len(pool) == 0 {
		timetabler.logger.Warn("every resource is excluded from greedy placement")
		return nil, nil
	}

	b := newBoard(problem)
	pending := lo.Range(len(problem.Sessions))
	for pass := 0; pass < greedyPasses && len(pending) > 0; pass++ {
		if err := ctx.Err(); err != nil {
			return b.placed, err
		}
		pending = lo.Reject(pending, func(session int, _ int) bool {
			return timetabler.place(b, session, pool)
		})
		timetabler.logger.Debug("greedy pass finished", zap.Int("pass", pass+1), zap.Int("pending", len(pending)))
	}

	if len(pending) > 0 {
		timetabler.logger.Warn("greedy placement left sessions unscheduled", zap.Int("sessions", len(pending)))
	}
	return b.placed, nil
}

// place commits the session to the first free slot for a randomly picked resource and lecturer.
func (timetabler *greedyTimetabler) place(b *board, session int, pool []int) bool {
	problem := b.problem
	resources := resourceCandidates(problem, session, pool)
	lecturers := lecturerCandidates(problem, session)
	resource := resources[timetabler.random.IntN(len(resources))]
	lecturer := lecturers[timetabler.random.IntN(len(lecturers))]

	for _, day := range timetabler.dayOrder(b, session) {
		if b.hoursOf(lecturer, day) >= problem.Options.HoursCap() {
			continue
		}
		for _, hour := range timetabler.hourOrder(b, lecturer, day) {
			slot := model.Slot{Day: day, Hour: hour}
			if b.fits(session, slot, resource, lecturer) {
				b.place(Assignment{Session: session, Slot: slot, Resource: resource, Lecturer: lecturer})
				return true
			}
		}
	}
	return false
}

func (timetabler *greedyTimetabler) dayOrder(b *board, session int) []model.Day {
	days := lo.Map(lo.Range(model.DaysPerWeek), func(day int, _ int) model.Day { return model.Day(day) })

	switch {
	case b.problem.Spreads(session):
		used := b.courseDays(b.problem.Sessions[session].Course)
		slices.SortStableFunc(days, func(first, second model.Day) int { return used[first] - used[second] })
	case b.problem.Options.PreferEvenDistribution:
		timetabler.random.Shuffle(len(days), func(i, j int) { days[i], days[j] = days[j], days[i] })
	}
	return days
}

func (timetabler *greedyTimetabler) hourOrder(b *board, lecturer int, day model.Day) []int {
	hours := lo.Range(model.HoursPerDay)
	if !b.problem.Options.AvoidBackToBackClasses {
		timetabler.random.Shuffle(len(hours), func(i, j int) { hours[i], hours[j] = hours[j], hours[i] })
		return hours
	}

	hours = lo.Reject(hours, func(hour int, _ int) bool {
		return lo.SomeBy(neighbours(hour), func(neighbour int) bool {
			return !b.lecturers.Free(lecturer, model.Slot{Day: day, Hour: neighbour})
		})
	})
	adjacency := func(hour int) int {
		return lo.SumBy(neighbours(hour), func(neighbour int) int {
			return len(b.bySlot[model.Slot{Day: day, Hour: neighbour}.Index()])
		})
	}
	slices.SortStableFunc(hours, func(first, second int) int { return adjacency(first) - adjacency(second) })
	return hours
}

// neighbours lists the in-day hours adjacent to hour.
func neighbours(hour int) []int {
	return lo.Filter([]int{hour - 1, hour + 1}, func(neighbour int, _ int) bool {
		return neighbour >= 0 && neighbour < model.HoursPerDay
	})
}

func allowedResources(resources []model.Resource) []int {
	return lo.Filter(lo.Range(len(resources)), func(index int, _ int) bool {
		name := strings.ToLower(strings.TrimSpace(resources[index].Name))
		return !slices.Contains(deniedRooms, name)
	})
}

func virtualReality(course model.Course) bool {
	return strings.Contains(course.Name, "Virtual Reality") || strings.Contains(course.Code, "VR")
}

func labRoom(resource model.Resource) bool {
	return strings.Contains(resource.Name, "Lab") || strings.Contains(resource.Name, "Polly Vacher")
}

func resourceCandidates(problem *Problem, session int, pool []int) []int {
	course := problem.Course(session)

	if course.AssignedResourceID != "" {
		if assigned, ok := lo.Find(pool, func(index int) bool {
			return problem.Resources[index].ID == course.AssignedResourceID
		}); ok {
			return []int{assigned}
		}
	}
	if virtualReality(course) {
		if labs := lo.Filter(pool, func(index int, _ int) bool { return labRoom(problem.Resources[index]) }); len(labs) > 0 {
			return labs
		}
	}
	if domain := lo.Intersect(pool, problem.ResourceDomains[session]); len(domain) > 0 {
		return domain
	}
	return pool
}

func lecturerCandidates(problem *Problem, session int) []int {
	course := problem.Course(session)

	if assigned, ok := model.AssignedLecturer(course, problem.Lecturers); ok {
		return []int{assigned}
	}
	if virtualReality(course) {
		if _, index, ok := lo.FindIndexOf(problem.Lecturers, func(lecturer model.Lecturer) bool {
			return lecturer.ID == specialtyLecturer
		}); ok {
			return []int{index}
		}
		if _, index, ok := lo.FindIndexOf(problem.Lecturers, func(lecturer model.Lecturer) bool {
			return strings.EqualFold(lecturer.ID, specialtyLecturer)
		}); ok {
			return []int{index}
		}
	}
	return lo.Range(len(problem.Lecturers))
}
