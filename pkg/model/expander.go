package model

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	UnnamedCourse     = "Unnamed Course"
	GeneralDepartment = "General"
)

type SessionKind int

const (
	Lecture SessionKind = iota
	Lab
)

func (kind SessionKind) String() string {
	if kind == Lab {
		return "LAB"
	}
	return "LECTURE"
}

// PendingSession is one atomic weekly occurrence of a course still waiting for a slot.
type PendingSession struct {
	Index   int // position in the expanded list
	Course  int // index into the normalized course list
	Ordinal int // 0-based occurrence within its course
	Kind    SessionKind
}

// NormalizeCourses returns a defaulted copy of courses; nothing is dropped.
func NormalizeCourses(courses []Course, logger *zap.Logger) []Course {
	if logger == nil {
		logger = zap.NewNop()
	}

	normalized := make([]Course, len(courses))
	for i, course := range courses {
		if strings.TrimSpace(course.ID) == "" {
			course.ID = "course_" + uuid.NewString()
			logger.Warn("course without id, generated one", zap.Int("position", i), zap.String("id", course.ID))
		}
		if strings.TrimSpace(course.Name) == "" {
			course.Name = UnnamedCourse
			logger.Warn("course without name, defaulted", zap.String("course", course.ID))
		}
		if strings.TrimSpace(course.Code) == "" {
			course.Code = "CODE-" + course.ID[:min(5, len(course.ID))]
			logger.Warn("course without code, defaulted", zap.String("course", course.ID), zap.String("code", course.Code))
		}
		if course.DurationHours <= 0 {
			course.DurationHours = 1
			logger.Warn("non-positive duration, defaulted to 1 hour", zap.String("course", course.ID))
		}
		if strings.TrimSpace(course.Department) == "" {
			course.Department = GeneralDepartment
		}
		if course.NumberOfLectures < 0 {
			course.NumberOfLectures = 0
		}
		if course.NumberOfLabs < 0 {
			course.NumberOfLabs = 0
		}
		if course.NumberOfLectures+course.NumberOfLabs == 0 && course.RequiredSessionsPerWeek <= 0 {
			logger.Info("no session count specified, defaulting to 1 session", zap.String("course", course.ID))
		}
		if strings.TrimSpace(course.RequiredRoomType) == "" {
			if course.NumberOfLabs > 0 {
				course.RequiredRoomType = RoomTypeLab
			} else {
				course.RequiredRoomType = RoomTypeLectureHall
			}
		}
		normalized[i] = course
	}
	return normalized
}

// ExpandSessions flattens courses into pending sessions: course order, lectures before labs.
func ExpandSessions(courses []Course) []PendingSession {
	sessions := make([]PendingSession, 0, TotalSessions(courses))
	for courseIndex, course := range courses {
		required := course.RequiredSessions()
		lectures := required
		if course.NumberOfLectures+course.NumberOfLabs > 0 {
			lectures = course.NumberOfLectures
		}

		for ordinal := range required {
			kind := Lecture
			if ordinal >= lectures {
				kind = Lab
			}
			sessions = append(sessions, PendingSession{
				Index:   len(sessions),
				Course:  courseIndex,
				Ordinal: ordinal,
				Kind:    kind,
			})
		}
	}
	return sessions
}

func TotalSessions(courses []Course) int {
	total := 0
	for _, course := range courses {
		total += course.RequiredSessions()
	}
	return total
}
