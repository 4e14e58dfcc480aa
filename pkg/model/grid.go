package model

import (
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Grid is an [entity][day][hour] availability structure; true means free.
type Grid [][DaysPerWeek][HoursPerDay]bool

func NewGrid(entities int) Grid {
	grid := make(Grid, entities)
	for entity := range grid {
		for day := range DaysPerWeek {
			for hour := range HoursPerDay {
				grid[entity][day][hour] = true
			}
		}
	}
	return grid
}

func (grid Grid) Free(entity int, slot Slot) bool {
	return grid[entity][slot.Day][slot.Hour]
}

func (grid Grid) Occupy(entity int, slot Slot) {
	grid[entity][slot.Day][slot.Hour] = false
}

func (grid Grid) Release(entity int, slot Slot) {
	grid[entity][slot.Day][slot.Hour] = true
}

// BusyHours counts the occupied hours of an entity on a day.
func (grid Grid) BusyHours(entity int, day Day) int {
	return lo.CountBy(grid[entity][day][:], func(free bool) bool { return !free })
}

// Occupancy pairs the resource and lecturer grids of one generation run.
type Occupancy struct {
	Resources Grid
	Lecturers Grid
}

func NewOccupancy(resources, lecturers int) Occupancy {
	return Occupancy{Resources: NewGrid(resources), Lecturers: NewGrid(lecturers)}
}

// SeedOccupancy marks the slots taken by sessions committed elsewhere. Sessions whose day or start
// time cannot be parsed are skipped with a warning; ids unknown to this run constrain nothing.
func SeedOccupancy(sessions []TimetableSession, resources []Resource, lecturers []Lecturer, logger *zap.Logger) (occupancy Occupancy, skipped int) {
	if logger == nil {
		logger = zap.NewNop()
	}

	occupancy = NewOccupancy(len(resources), len(lecturers))
	resourceIndex := indexByID(resources, func(resource Resource) string { return resource.ID })
	lecturerIndex := indexByID(lecturers, func(lecturer Lecturer) string { return lecturer.ID })

	for _, session := range sessions {
		slot, ok := session.Slot()
		if !ok {
			logger.Warn("skipping cross-department session with malformed slot",
				zap.String("session", session.ID),
				zap.String("day", session.DayOfWeek),
				zap.String("startTime", session.StartTime))
			skipped++
			continue
		}
		if index, ok := resourceIndex[session.ResourceID]; ok {
			occupancy.Resources.Occupy(index, slot)
		}
		if index, ok := lecturerIndex[session.LecturerID]; ok {
			occupancy.Lecturers.Occupy(index, slot)
		}
	}

	logger.Debug("seeded occupancy from cross-department sessions",
		zap.Int("sessions", len(sessions)), zap.Int("skipped", skipped))
	return occupancy, skipped
}

func indexByID[T any](items []T, id func(T) string) map[string]int {
	index := make(map[string]int, len(items))
	for i, item := range items {
		if _, ok := index[id(item)]; !ok {
			index[id(item)] = i
		}
	}
	return index
}
