package model

import "github.com/samber/lo"

// ResourceFilter decides whether a resource may be used by a generation run.
type ResourceFilter func(resource Resource) bool

// AvailableResources keeps resources flagged available. It is not installed by default.
func AvailableResources(resource Resource) bool {
	return resource.Available
}

// Options are the per-call generation switches.
type Options struct {
	// AvoidBackToBackClasses applies to lecturers.
	AvoidBackToBackClasses  bool               `json:"avoidBackToBackClasses" mapstructure:"avoidBackToBackClasses"`
	AvoidBackToBackStudents bool               `json:"avoidBackToBackStudents" mapstructure:"avoidBackToBackStudents"`
	PreferEvenDistribution  bool               `json:"preferEvenDistribution" mapstructure:"preferEvenDistribution"`
	SpreadCourseSessions    bool               `json:"spreadCourseSessions" mapstructure:"spreadCourseSessions"`
	MaxHoursPerDay          int                `json:"maxHoursPerDay" mapstructure:"maxHoursPerDay" validate:"gte=0,lte=8"`
	ResourceFilter          ResourceFilter     `json:"-" mapstructure:"-"`
	CrossDepartmentSessions []TimetableSession `json:"crossDepartmentSessions,omitempty" mapstructure:"crossDepartmentSessions"`
}

func DefaultOptions() Options {
	return Options{MaxHoursPerDay: 6}
}

// Spreads reports whether a course's sessions must land on distinct days.
func (options Options) Spreads(course Course) bool {
	return options.SpreadCourseSessions || course.SpreadCourseSessions
}

// HoursCap is the per-day lecturer cap, HoursPerDay when unset.
func (options Options) HoursCap() int {
	if options.MaxHoursPerDay <= 0 {
		return HoursPerDay
	}
	return options.MaxHoursPerDay
}

// FilterResources applies the resource filter; a nil filter keeps everything.
func (options Options) FilterResources(resources []Resource) []Resource {
	if options.ResourceFilter == nil {
		return resources
	}
	return lo.Filter(resources, func(resource Resource, _ int) bool {
		return options.ResourceFilter(resource)
	})
}
