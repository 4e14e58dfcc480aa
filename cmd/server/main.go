package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/limaJavier/classtimetable/internal/handler"
	"github.com/limaJavier/classtimetable/internal/middleware"
	"github.com/limaJavier/classtimetable/pkg/config"
	"github.com/limaJavier/classtimetable/pkg/logger"
	"github.com/limaJavier/classtimetable/pkg/metrics"
	"github.com/limaJavier/classtimetable/pkg/model"
	"github.com/limaJavier/classtimetable/pkg/sat"
	"github.com/limaJavier/classtimetable/pkg/timetabler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	collector := metrics.New()
	opts := []timetabler.GeneratorOption{timetabler.WithLogger(logr), timetabler.WithMetrics(collector)}
	if cfg.Solver.Backend == timetabler.BackendSAT {
		paths, err := sat.LoadPaths(cfg.Solver.SATConfigPath)
		if err != nil {
			logr.Fatal("cannot load SAT solver paths", zap.Error(err))
		}
		solver, err := sat.NewSolver(cfg.Solver.SATSolver, paths)
		if err != nil {
			logr.Fatal("cannot create SAT solver", zap.Error(err))
		}
		opts = append(opts, timetabler.WithSATSolver(solver))
	}

	generator := timetabler.NewGenerator(timetabler.Config{
		Engine:       cfg.Solver.Engine,
		Backend:      cfg.Solver.Backend,
		Timeout:      cfg.Solver.Timeout,
		MaxSolutions: cfg.Solver.MaxSolutions,
	}, opts...)

	timetables := handler.NewTimetableHandler(generator, defaultOptions(cfg), logr)
	observability := handler.NewMetricsHandler(collector)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(collector))

	r.GET("/health", observability.Health)
	r.GET("/metrics", observability.Prometheus)
	r.POST("/timetables", timetables.Generate)
	r.POST("/timetables/conflicts", timetables.Conflicts)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "engine", cfg.Solver.Engine, "backend", cfg.Solver.Backend)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func defaultOptions(cfg *config.Config) model.Options {
	return model.Options{
		AvoidBackToBackClasses:  cfg.Generation.AvoidBackToBack,
		AvoidBackToBackStudents: cfg.Generation.AvoidBackToBackStudents,
		PreferEvenDistribution:  cfg.Generation.PreferEvenDistribution,
		SpreadCourseSessions:    cfg.Generation.SpreadCourseSessions,
		MaxHoursPerDay:          cfg.Generation.MaxHoursPerDay,
	}
}
