package timetabler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const DefaultTimeout = 30 * time.Second

// backend encodes a problem for one constraint engine and returns a complete assignment or
// errInfeasible when none was found before ctx expired.
type backend interface {
	name() string
	solve(ctx context.Context, problem *Problem) ([]Assignment, error)
}

type constraintTimetabler struct {
	backend backend
	timeout time.Duration
	logger  *zap.Logger
}

func newConstraintTimetabler(backend backend, timeout time.Duration, logger *zap.Logger) Timetabler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &constraintTimetabler{backend: backend, timeout: timeout, logger: logger}
}

func (timetabler *constraintTimetabler) Name() string {
	return "constraint-" + timetabler.backend.name()
}

// Build gives the backend the configured budget, then one more attempt with twice as much.
func (timetabler *constraintTimetabler) Build(ctx context.Context, problem *Problem) ([]Assignment, error) {
	if len(problem.Sessions) == 0 {
		return nil, nil
	}
	if !problem.Schedulable() {
		return nil, errInfeasible
	}

	budget := timetabler.timeout
	for attempt := 1; attempt <= 2; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, budget)
		start := time.Now()
		assignments, err := timetabler.backend.solve(attemptCtx, problem)
		cancel()

		if err == nil {
			timetabler.logger.Info("constraint model solved",
				zap.String("backend", timetabler.backend.name()),
				zap.Int("attempt", attempt),
				zap.Int("sessions", len(assignments)),
				zap.Duration("elapsed", time.Since(start)))
			return assignments, nil
		}
		if !errors.Is(err, errInfeasible) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, errInfeasible
		}

		timetabler.logger.Warn("no complete assignment within budget",
			zap.String("backend", timetabler.backend.name()),
			zap.Int("attempt", attempt),
			zap.Duration("budget", budget))
		budget *= 2
	}
	return nil, errInfeasible
}
