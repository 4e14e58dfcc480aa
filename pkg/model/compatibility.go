package model

import (
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	RoomTypeLab         = "LAB"
	RoomTypeLectureHall = "LECTURE_HALL"
)

// RoomTypeMatches reports whether a resource type satisfies a required room type tag.
func RoomTypeMatches(required, resourceType string) bool {
	required = strings.ToUpper(strings.TrimSpace(required))
	resourceType = strings.ToUpper(strings.TrimSpace(resourceType))
	if required == "" {
		return true
	}

	switch required {
	case RoomTypeLab:
		return strings.Contains(resourceType, "LAB")
	case RoomTypeLectureHall:
		return strings.Contains(resourceType, "HALL") || strings.Contains(resourceType, "ROOM")
	default:
		return resourceType != "" && strings.Contains(resourceType, required)
	}
}

// ResourceDomain returns the indices of the resources a course may use. A known pre-assigned
// resource collapses the domain to one index; an empty match falls back to every resource.
func ResourceDomain(course Course, resources []Resource, logger *zap.Logger) []int {
	if logger == nil {
		logger = zap.NewNop()
	}

	if course.AssignedResourceID != "" {
		if _, index, ok := lo.FindIndexOf(resources, func(resource Resource) bool {
			return resource.ID == course.AssignedResourceID
		}); ok {
			return []int{index}
		}
		logger.Warn("assigned resource not found, ignoring assignment",
			zap.String("course", course.ID), zap.String("resource", course.AssignedResourceID))
	}

	domain := make([]int, 0, len(resources))
	for index, resource := range resources {
		if RoomTypeMatches(course.RequiredRoomType, resource.Type) {
			domain = append(domain, index)
		}
	}
	if len(domain) == 0 {
		logger.Debug("no resource matches room type, using all resources",
			zap.String("course", course.ID), zap.String("roomType", course.RequiredRoomType))
		return lo.Range(len(resources))
	}
	return domain
}

// LecturerDomain returns the pre-assigned lecturer when it exists, else every lecturer.
func LecturerDomain(course Course, lecturers []Lecturer, logger *zap.Logger) []int {
	if logger == nil {
		logger = zap.NewNop()
	}

	if index, ok := AssignedLecturer(course, lecturers); ok {
		return []int{index}
	}
	if course.AssignedLecturerID != "" {
		logger.Warn("assigned lecturer not found, ignoring assignment",
			zap.String("course", course.ID), zap.String("lecturer", course.AssignedLecturerID))
	}
	return lo.Range(len(lecturers))
}

// AssignedLecturer resolves a course's pre-assigned lecturer id.
func AssignedLecturer(course Course, lecturers []Lecturer) (int, bool) {
	if course.AssignedLecturerID == "" {
		return -1, false
	}
	_, index, ok := lo.FindIndexOf(lecturers, func(lecturer Lecturer) bool {
		return lecturer.ID == course.AssignedLecturerID
	})
	return index, ok
}
