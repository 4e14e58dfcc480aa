package model

import (
	"time"

	"github.com/samber/lo"
)

const (
	DaysPerWeek = 5
	HoursPerDay = 8
	// FirstHour is the wall-clock hour of slot 0.
	FirstHour = 9
	// SlotsPerWeek is the size of the weekly grid.
	SlotsPerWeek = DaysPerWeek * HoursPerDay
)

type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

var dayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

func (day Day) String() string {
	if day < Monday || day > Friday {
		return "Unknown"
	}
	return dayNames[day]
}

// Slot is a (day, hour) coordinate of the weekly grid; Hour is an index into the daily window.
type Slot struct {
	Day  Day
	Hour int
}

func SlotFromIndex(index int) Slot {
	return Slot{Day: Day(index / HoursPerDay), Hour: index % HoursPerDay}
}

func (slot Slot) Index() int {
	return int(slot.Day)*HoursPerDay + slot.Hour
}

func (slot Slot) Valid() bool {
	return slot.Day >= Monday && slot.Day <= Friday && slot.Hour >= 0 && slot.Hour < HoursPerDay
}

type Resource struct {
	ID        string `json:"id" mapstructure:"id" csv:"id" validate:"required"`
	Name      string `json:"name" mapstructure:"name" csv:"name"`
	Type      string `json:"type" mapstructure:"type" csv:"type"`
	Capacity  int    `json:"capacity" mapstructure:"capacity" csv:"capacity" validate:"gte=0"`
	Available bool   `json:"available" mapstructure:"available" csv:"available"`
}

type Lecturer struct {
	ID         string `json:"id" mapstructure:"id" csv:"id" validate:"required"`
	Name       string `json:"name" mapstructure:"name" csv:"name"`
	Department string `json:"department,omitempty" mapstructure:"department" csv:"department"`
}

type Course struct {
	ID                      string `json:"id" mapstructure:"id"`
	Name                    string `json:"name" mapstructure:"name"`
	Code                    string `json:"code" mapstructure:"code"`
	Department              string `json:"department" mapstructure:"department"`
	CreditHours             int    `json:"creditHours" mapstructure:"creditHours"`
	DurationHours           int    `json:"durationHours" mapstructure:"durationHours"`
	RequiredSessionsPerWeek int    `json:"requiredSessionsPerWeek" mapstructure:"requiredSessionsPerWeek"`
	NumberOfLectures        int    `json:"numberOfLectures" mapstructure:"numberOfLectures"`
	NumberOfLabs            int    `json:"numberOfLabs" mapstructure:"numberOfLabs"`
	RequiredRoomType        string `json:"requiredRoomType,omitempty" mapstructure:"requiredRoomType"`
	AssignedLecturerID      string `json:"assignedLecturerId,omitempty" mapstructure:"assignedLecturerId"`
	AssignedResourceID      string `json:"assignedResourceId,omitempty" mapstructure:"assignedResourceId"`
	LecturerName            string `json:"lecturerName,omitempty" mapstructure:"lecturerName"`
	AssignedRoom            string `json:"assignedRoom,omitempty" mapstructure:"assignedRoom"`
	SpreadCourseSessions    bool   `json:"spreadCourseSessions" mapstructure:"spreadCourseSessions"`
}

// RequiredSessions is lectures+labs when set, else the weekly requirement, else 1.
func (course Course) RequiredSessions() int {
	if total := course.NumberOfLectures + course.NumberOfLabs; total > 0 {
		return total
	}
	if course.RequiredSessionsPerWeek > 0 {
		return course.RequiredSessionsPerWeek
	}
	return 1
}

type TimetableSession struct {
	ID           string `json:"id" csv:"id"`
	TimetableID  string `json:"timetableId,omitempty" csv:"timetable_id"`
	CourseID     string `json:"courseId" csv:"course_id"`
	CourseName   string `json:"courseName" csv:"course_name"`
	CourseCode   string `json:"courseCode" csv:"course_code"`
	LecturerID   string `json:"lecturerId" csv:"lecturer_id"`
	LecturerName string `json:"lecturerName" csv:"lecturer_name"`
	ResourceID   string `json:"resourceId" csv:"resource_id"`
	ResourceName string `json:"resourceName" csv:"resource_name"`
	DayOfWeek    string `json:"dayOfWeek" csv:"day"`
	StartTime    string `json:"startTime" csv:"start_time"`
	EndTime      string `json:"endTime" csv:"end_time"`
	SessionType  string `json:"sessionType" csv:"session_type"`
	Department   string `json:"department,omitempty" csv:"department"`
}

// Slot resolves the session's day name and start time; ok is false for malformed values.
func (session TimetableSession) Slot() (slot Slot, ok bool) {
	day, ok := ParseDay(session.DayOfWeek)
	if !ok {
		return Slot{}, false
	}
	hour, ok := ParseStartTime(session.StartTime)
	if !ok {
		return Slot{}, false
	}
	return Slot{Day: day, Hour: hour}, true
}

type Timetable struct {
	ID           string             `json:"id"`
	AcademicTerm string             `json:"academicTerm,omitempty"`
	AcademicYear string             `json:"academicYear,omitempty"`
	Department   string             `json:"department,omitempty"`
	GeneratedAt  time.Time          `json:"generatedAt"`
	Sessions     []TimetableSession `json:"sessions"`
}

// SessionsPerCourse tallies scheduled sessions by course id.
func (timetable Timetable) SessionsPerCourse() map[string]int {
	return lo.CountValuesBy(timetable.Sessions, func(session TimetableSession) string {
		return session.CourseID
	})
}
