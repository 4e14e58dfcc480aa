package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/limaJavier/classtimetable/pkg/errors"
	"github.com/limaJavier/classtimetable/pkg/model"
	"github.com/limaJavier/classtimetable/pkg/response"
	"github.com/limaJavier/classtimetable/pkg/timetabler"
)

type timetableGenerator interface {
	Run(ctx context.Context, request timetabler.Request) (model.Timetable, error)
	PlanDepartments(ctx context.Context, request timetabler.BatchRequest) timetabler.DepartmentPlan
}

// TimetableHandler exposes generation and conflict checking endpoints.
type TimetableHandler struct {
	generator timetableGenerator
	defaults  model.Options
	logger    *zap.Logger
}

// NewTimetableHandler constructs the handler. defaults apply to problems without options.
func NewTimetableHandler(generator *timetabler.Generator, defaults model.Options, logger *zap.Logger) *TimetableHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableHandler{generator: generator, defaults: defaults, logger: logger}
}

type departmentFailure struct {
	Error  *appErrors.Error               `json:"error"`
	Report *model.IncompleteScheduleError `json:"report,omitempty"`
}

type departmentPlanResponse struct {
	Timetables map[string]model.Timetable          `json:"timetables"`
	Failures   map[string]departmentFailure        `json:"failures,omitempty"`
	Conflicts  map[string][]model.ResourceConflict `json:"conflicts,omitempty"`
	Resolved   int                                 `json:"resolvedConflicts"`
}

type conflictsRequest struct {
	Timetable  *model.Timetable           `json:"timetable"`
	Timetables map[string]model.Timetable `json:"timetables"`
}

type conflictsResponse struct {
	HasConflicts      bool                                `json:"hasConflicts"`
	Conflicts         []model.Conflict                    `json:"conflicts"`
	ResourceConflicts map[string][]model.ResourceConflict `json:"resourceConflicts,omitempty"`
}

// Generate builds a timetable from a problem document. Documents listing departments are planned
// as a batch over the shared resources.
func (h *TimetableHandler) Generate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read payload"))
		return
	}
	input, err := model.InputFromBytes(body)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	options := input.GenerationOptions(h.defaults)

	if input.Batch() {
		h.plan(c, input, options)
		return
	}

	timetable, err := h.generator.Run(c.Request.Context(), timetabler.Request{
		Resources:    input.Resources,
		Lecturers:    input.Lecturers,
		Courses:      input.Courses,
		Options:      options,
		AcademicTerm: input.AcademicTerm,
		AcademicYear: input.AcademicYear,
		Department:   input.Department,
	})
	if err != nil {
		var incomplete *model.IncompleteScheduleError
		if errors.As(err, &incomplete) {
			response.Error(c, err, map[string]interface{}{"report": incomplete})
			return
		}
		h.logger.Error("timetable generation failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Created(c, timetable, map[string]interface{}{"sessions": len(timetable.Sessions)})
}

func (h *TimetableHandler) plan(c *gin.Context, input model.Input, options model.Options) {
	plan := h.generator.PlanDepartments(c.Request.Context(), timetabler.BatchRequest{
		Resources:    input.Resources,
		Lecturers:    input.Lecturers,
		Departments:  input.Departments,
		Options:      options,
		AcademicTerm: input.AcademicTerm,
		AcademicYear: input.AcademicYear,
	})

	payload := departmentPlanResponse{
		Timetables: plan.Timetables,
		Failures:   make(map[string]departmentFailure, len(plan.Errors)),
		Conflicts:  plan.Conflicts,
		Resolved:   plan.Resolved,
	}
	for department, err := range plan.Errors {
		failure := departmentFailure{Error: appErrors.FromError(err)}
		errors.As(err, &failure.Report)
		payload.Failures[department] = failure
	}

	if len(plan.Timetables) == 0 && len(plan.Errors) > 0 {
		response.Error(c, appErrors.ErrIncompleteSchedule, map[string]interface{}{"failures": payload.Failures})
		return
	}
	response.Created(c, payload, map[string]interface{}{
		"departments": len(input.Departments),
		"failed":      len(plan.Errors),
	})
}

// Conflicts audits a timetable for double bookings and, across departments, for shared resources.
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	var req conflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflicts payload"))
		return
	}
	if req.Timetable == nil && len(req.Timetables) == 0 {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "timetable or timetables is required"))
		return
	}

	payload := conflictsResponse{Conflicts: []model.Conflict{}}
	if req.Timetable != nil {
		payload.Conflicts = model.FindConflicts(*req.Timetable)
		payload.HasConflicts = timetabler.HasConflicts(*req.Timetable)
	}
	if len(req.Timetables) > 0 {
		payload.ResourceConflicts = model.FindResourceConflicts(req.Timetables)
		for _, timetable := range req.Timetables {
			payload.HasConflicts = payload.HasConflicts || timetabler.HasConflicts(timetable)
		}
		payload.HasConflicts = payload.HasConflicts || len(payload.ResourceConflicts) > 0
	}
	response.JSON(c, http.StatusOK, payload)
}
