package model

import (
	"fmt"
	"sort"
	"strings"
)

type ConflictKind int

const (
	ResourceClash ConflictKind = iota
	LecturerClash
)

func (kind ConflictKind) String() string {
	if kind == LecturerClash {
		return "lecturer"
	}
	return "resource"
}

func (kind ConflictKind) MarshalText() ([]byte, error) {
	return []byte(kind.String()), nil
}

// Conflict points at two sessions (by position) sharing a day, start time and resource or lecturer.
type Conflict struct {
	First  int          `json:"first"`
	Second int          `json:"second"`
	Kind   ConflictKind `json:"kind"`
}

func slotKey(session TimetableSession) string {
	return strings.ToLower(strings.TrimSpace(session.DayOfWeek)) + "@" + normalizeStartTime(session.StartTime)
}

// "9:00" and "09:00" denote the same start.
func normalizeStartTime(startTime string) string {
	if hour, ok := ParseStartTime(startTime); ok {
		return StartTime(hour)
	}
	return strings.TrimSpace(startTime)
}

// FindConflicts lists every double booking of a resource or lecturer in the timetable.
func FindConflicts(timetable Timetable) []Conflict {
	bySlot := make(map[string][]int)
	for i, session := range timetable.Sessions {
		key := slotKey(session)
		bySlot[key] = append(bySlot[key], i)
	}

	conflicts := make([]Conflict, 0)
	for _, indices := range bySlot {
		for i := range len(indices) - 1 {
			for j := i + 1; j < len(indices); j++ {
				first, second := timetable.Sessions[indices[i]], timetable.Sessions[indices[j]]
				if first.ResourceID != "" && first.ResourceID == second.ResourceID {
					conflicts = append(conflicts, Conflict{First: indices[i], Second: indices[j], Kind: ResourceClash})
				}
				if first.LecturerID != "" && first.LecturerID == second.LecturerID {
					conflicts = append(conflicts, Conflict{First: indices[i], Second: indices[j], Kind: LecturerClash})
				}
			}
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].First != conflicts[j].First {
			return conflicts[i].First < conflicts[j].First
		}
		if conflicts[i].Second != conflicts[j].Second {
			return conflicts[i].Second < conflicts[j].Second
		}
		return conflicts[i].Kind < conflicts[j].Kind
	})
	return conflicts
}

// HasConflicts reports whether two sessions share (day, start time) and a resource or lecturer.
func HasConflicts(timetable Timetable) bool {
	seenResources := make(map[string]bool)
	seenLecturers := make(map[string]bool)
	for _, session := range timetable.Sessions {
		key := slotKey(session)
		if session.ResourceID != "" {
			if seenResources[key+"#"+session.ResourceID] {
				return true
			}
			seenResources[key+"#"+session.ResourceID] = true
		}
		if session.LecturerID != "" {
			if seenLecturers[key+"#"+session.LecturerID] {
				return true
			}
			seenLecturers[key+"#"+session.LecturerID] = true
		}
	}
	return false
}

// ResourceConflict is a resource booked at the same slot by two departments.
type ResourceConflict struct {
	ResourceID   string           `json:"resourceId"`
	ResourceName string           `json:"resourceName"`
	Day          string           `json:"day"`
	TimeSlot     string           `json:"timeSlot"`
	Department1  string           `json:"department1"`
	Department2  string           `json:"department2"`
	Session1     TimetableSession `json:"session1"`
	Session2     TimetableSession `json:"session2"`
}

func (conflict ResourceConflict) String() string {
	return fmt.Sprintf("%v is used by %v and %v on %v at %v",
		conflict.ResourceName, conflict.Department1, conflict.Department2, conflict.Day, conflict.TimeSlot)
}

// FindResourceConflicts compares every pair of department timetables and reports, per department,
// the resources it shares at the same slot with another department.
func FindResourceConflicts(timetables map[string]Timetable) map[string][]ResourceConflict {
	departments := make([]string, 0, len(timetables))
	for department := range timetables {
		departments = append(departments, department)
	}
	sort.Strings(departments)

	conflicts := make(map[string][]ResourceConflict)
	for i := range len(departments) - 1 {
		for j := i + 1; j < len(departments); j++ {
			department1, department2 := departments[i], departments[j]

			booked := make(map[string]TimetableSession)
			for _, session := range timetables[department1].Sessions {
				if session.ResourceID != "" {
					booked[slotKey(session)+"#"+session.ResourceID] = session
				}
			}

			for _, session := range timetables[department2].Sessions {
				other, ok := booked[slotKey(session)+"#"+session.ResourceID]
				if session.ResourceID == "" || !ok {
					continue
				}
				conflict := ResourceConflict{
					ResourceID:   session.ResourceID,
					ResourceName: session.ResourceName,
					Day:          session.DayOfWeek,
					TimeSlot:     normalizeStartTime(session.StartTime),
					Department1:  department1,
					Department2:  department2,
					Session1:     other,
					Session2:     session,
				}
				conflicts[department1] = append(conflicts[department1], conflict)
				conflicts[department2] = append(conflicts[department2], conflict)
			}
		}
	}
	return conflicts
}
