package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// DepartmentInput is one department of a batch run; resources are shared across departments.
type DepartmentInput struct {
	Name      string     `json:"name" mapstructure:"name" validate:"required"`
	Courses   []Course   `json:"courses" mapstructure:"courses"`
	Lecturers []Lecturer `json:"lecturers" mapstructure:"lecturers" validate:"dive"`
}

// Input is the problem file consumed by the command line tools and the HTTP API.
type Input struct {
	AcademicTerm           string            `json:"academicTerm" mapstructure:"academicTerm"`
	AcademicYear           string            `json:"academicYear" mapstructure:"academicYear"`
	Department             string            `json:"department" mapstructure:"department"`
	Resources              []Resource        `json:"resources" mapstructure:"resources" validate:"dive"`
	Lecturers              []Lecturer        `json:"lecturers" mapstructure:"lecturers" validate:"dive"`
	Courses                []Course          `json:"courses" mapstructure:"courses"`
	Departments            []DepartmentInput `json:"departments" mapstructure:"departments" validate:"dive"`
	Options                *Options          `json:"options" mapstructure:"options"`
	OnlyAvailableResources bool              `json:"onlyAvailableResources" mapstructure:"onlyAvailableResources"`
}

var validate = validator.New()

func InputFromJson(file string) (Input, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Input{}, err
	}
	return InputFromBytes(bytes)
}

func InputFromBytes(bytes []byte) (Input, error) {
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Input{}, err
	}

	var input Input
	if err := mapstructure.Decode(inputJson, &input); err != nil {
		return Input{}, fmt.Errorf("cannot decode input: %w", err)
	}
	if err := input.Validate(); err != nil {
		return Input{}, err
	}
	return input, nil
}

// Validate checks structural problems that cannot be defaulted away.
func (input Input) Validate() error {
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	if len(input.Resources) == 0 {
		return fmt.Errorf("invalid input: at least one resource is required")
	}
	if err := CheckIdentities(input.Resources, input.Lecturers, input.Courses); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	for _, department := range input.Departments {
		if err := CheckIdentities(nil, department.Lecturers, department.Courses); err != nil {
			return fmt.Errorf("invalid input: department %v: %w", department.Name, err)
		}
	}
	return nil
}

// CheckIdentities rejects duplicated ids. Blank course ids are allowed since normalization fills
// them with unique ones.
func CheckIdentities(resources []Resource, lecturers []Lecturer, courses []Course) error {
	if duplicated := lo.FindDuplicatesBy(resources, func(resource Resource) string { return resource.ID }); len(duplicated) > 0 {
		return fmt.Errorf("duplicated resource id %q", duplicated[0].ID)
	}
	if duplicated := lo.FindDuplicatesBy(lecturers, func(lecturer Lecturer) string { return lecturer.ID }); len(duplicated) > 0 {
		return fmt.Errorf("duplicated lecturer id %q", duplicated[0].ID)
	}
	identified := lo.Filter(courses, func(course Course, _ int) bool { return strings.TrimSpace(course.ID) != "" })
	if duplicated := lo.FindDuplicatesBy(identified, func(course Course) string { return strings.TrimSpace(course.ID) }); len(duplicated) > 0 {
		return fmt.Errorf("duplicated course id %q", duplicated[0].ID)
	}
	return nil
}

// GenerationOptions resolves the options of the file over the given defaults.
func (input Input) GenerationOptions(defaults Options) Options {
	options := defaults
	if input.Options != nil {
		options = *input.Options
		options.ResourceFilter = defaults.ResourceFilter
	}
	if input.OnlyAvailableResources {
		options.ResourceFilter = AvailableResources
	}
	return options
}

// Batch reports whether the file describes several departments.
func (input Input) Batch() bool {
	return len(input.Departments) > 0
}
