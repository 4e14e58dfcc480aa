package timetabler

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/limaJavier/classtimetable/pkg/errors"
	"github.com/limaJavier/classtimetable/pkg/metrics"
	"github.com/limaJavier/classtimetable/pkg/model"
	"github.com/limaJavier/classtimetable/pkg/sat"
)

const (
	EngineConstraint = "constraint"
	EngineGreedy     = "greedy"

	BackendFD  = "fd"
	BackendSAT = "sat"

	defaultSATSolver = "kissat"

	// Two constraint attempts take three timeouts; the rest is left for greedy placement and repair.
	runBudgetFactor = 4
)

// Config selects the solving strategy and its budget.
type Config struct {
	Engine       string
	Backend      string
	Timeout      time.Duration
	MaxSolutions int
}

func DefaultConfig() Config {
	return Config{
		Engine:       EngineConstraint,
		Backend:      BackendFD,
		Timeout:      DefaultTimeout,
		MaxSolutions: DefaultMaxSolutions,
	}
}

// Request is one generation call.
type Request struct {
	Resources    []model.Resource
	Lecturers    []model.Lecturer
	Courses      []model.Course
	Options      model.Options
	AcademicTerm string
	AcademicYear string
	Department   string
}

// Generator runs the configured engine, falls back to greedy placement, repairs the result and
// refuses to return incomplete or conflicting timetables.
type Generator struct {
	config    Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	satSolver sat.SATSolver
	seed      *uint64
}

type GeneratorOption func(*Generator)

func WithLogger(logger *zap.Logger) GeneratorOption {
	return func(generator *Generator) {
		if logger != nil {
			generator.logger = logger
		}
	}
}

func WithMetrics(metrics *metrics.Metrics) GeneratorOption {
	return func(generator *Generator) {
		generator.metrics = metrics
	}
}

func WithSATSolver(solver sat.SATSolver) GeneratorOption {
	return func(generator *Generator) {
		generator.satSolver = solver
	}
}

// WithSeed makes greedy placement reproducible.
func WithSeed(seed uint64) GeneratorOption {
	return func(generator *Generator) {
		generator.seed = &seed
	}
}

func NewGenerator(config Config, opts ...GeneratorOption) *Generator {
	defaults := DefaultConfig()
	config.Engine = strings.ToLower(strings.TrimSpace(config.Engine))
	config.Backend = strings.ToLower(strings.TrimSpace(config.Backend))
	if config.Engine == "" {
		config.Engine = defaults.Engine
	}
	if config.Backend == "" {
		config.Backend = defaults.Backend
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxSolutions <= 0 {
		config.MaxSolutions = defaults.MaxSolutions
	}

	generator := &Generator{config: config, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(generator)
	}
	return generator
}

// RunBudget is the deadline a caller should give one Run call.
func (generator *Generator) RunBudget() time.Duration {
	return runBudgetFactor * generator.config.Timeout
}

// Generate schedules with the default options.
func (generator *Generator) Generate(ctx context.Context, resources []model.Resource, lecturers []model.Lecturer, courses []model.Course) (model.Timetable, error) {
	return generator.GenerateWithOptions(ctx, resources, lecturers, courses, model.DefaultOptions())
}

func (generator *Generator) GenerateWithOptions(ctx context.Context, resources []model.Resource, lecturers []model.Lecturer, courses []model.Course, options model.Options) (model.Timetable, error) {
	return generator.Run(ctx, Request{
		Resources: resources,
		Lecturers: lecturers,
		Courses:   courses,
		Options:   options,
	})
}

// Run generates a complete timetable or fails with an error wrapping *model.IncompleteScheduleError.
func (generator *Generator) Run(ctx context.Context, request Request) (model.Timetable, error) {
	start := time.Now()
	logger := generator.logger.With(zap.String("department", request.Department))
	if err := model.CheckIdentities(request.Resources, request.Lecturers, request.Courses); err != nil {
		logger.Error("rejected generation request", zap.Error(err))
		return model.Timetable{}, apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, apperrors.ErrValidation.Message)
	}

	problem := NewProblem(request.Resources, request.Lecturers, request.Courses, request.Options, logger)
	logger.Info("generating timetable",
		zap.Int("resources", len(problem.Resources)),
		zap.Int("lecturers", len(problem.Lecturers)),
		zap.Int("courses", len(problem.Courses)),
		zap.Int("sessions", len(problem.Sessions)))

	engine, assignments := generator.build(ctx, problem, logger)
	assignments, report := repair(problem, assignments, logger)
	generator.metrics.RecordRepair(report.Rematched, report.Moved, report.Dropped)

	timetable := model.Timetable{
		ID:           uuid.NewString(),
		AcademicTerm: request.AcademicTerm,
		AcademicYear: request.AcademicYear,
		Department:   request.Department,
		GeneratedAt:  time.Now().UTC(),
	}
	timetable.Sessions = decodeSessions(problem, assignments, timetable.ID)

	if err := model.VerifyCompleteness(problem.Courses, timetable, problem.Diagnostics(engine)); err != nil {
		generator.metrics.ObserveGeneration(engine, "incomplete", time.Since(start), 0)
		logger.Error("timetable is incomplete", zap.String("engine", engine), zap.Error(err))
		return model.Timetable{}, apperrors.Wrap(err, apperrors.ErrIncompleteSchedule.Code, apperrors.ErrIncompleteSchedule.Status, apperrors.ErrIncompleteSchedule.Message)
	}
	if conflicts := model.FindConflicts(timetable); len(conflicts) > 0 {
		generator.metrics.ObserveGeneration(engine, "conflicts", time.Since(start), 0)
		logger.Error("timetable failed the conflict audit", zap.Int("conflicts", len(conflicts)))
		return model.Timetable{}, apperrors.ErrSolverFailure
	}

	generator.metrics.ObserveGeneration(engine, "complete", time.Since(start), len(timetable.Sessions))
	logger.Info("timetable generated",
		zap.String("engine", engine),
		zap.String("timetable", timetable.ID),
		zap.Int("sessions", len(timetable.Sessions)),
		zap.Duration("elapsed", time.Since(start)))
	return timetable, nil
}

func (generator *Generator) build(ctx context.Context, problem *Problem, logger *zap.Logger) (string, []Assignment) {
	if generator.config.Engine != EngineGreedy {
		constraint := generator.constraintTimetabler(logger)
		assignments, err := constraint.Build(ctx, problem)
		if err == nil {
			return constraint.Name(), assignments
		}
		generator.metrics.RecordFallback()
		logger.Warn("constraint engine failed, falling back to greedy placement",
			zap.String("engine", constraint.Name()), zap.Error(err))
	}

	// Greedy placement is bounded by its passes and must run even once the budget is spent.
	greedy := NewGreedyTimetabler(generator.random(), logger)
	assignments, err := greedy.Build(context.WithoutCancel(ctx), problem)
	if err != nil {
		logger.Warn("greedy placement interrupted", zap.Error(err))
	}
	return greedy.Name(), assignments
}

func (generator *Generator) constraintTimetabler(logger *zap.Logger) Timetabler {
	if generator.config.Backend == BackendSAT {
		solver := generator.satSolver
		if solver == nil {
			solver, _ = sat.NewSolver(defaultSATSolver, sat.Paths{})
		}
		return NewSATTimetabler(solver, generator.config.Timeout, logger)
	}
	return NewFDTimetabler(generator.config.Timeout, generator.config.MaxSolutions, logger)
}

func (generator *Generator) random() *rand.Rand {
	if generator.seed == nil {
		return nil
	}
	return rand.New(rand.NewPCG(*generator.seed, *generator.seed))
}

// HasConflicts reports resource or lecturer double bookings in a timetable.
func HasConflicts(timetable model.Timetable) bool {
	return model.HasConflicts(timetable)
}
