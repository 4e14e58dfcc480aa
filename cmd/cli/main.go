package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/limaJavier/classtimetable/pkg/config"
	"github.com/limaJavier/classtimetable/pkg/csvio"
	apperrors "github.com/limaJavier/classtimetable/pkg/errors"
	"github.com/limaJavier/classtimetable/pkg/logger"
	"github.com/limaJavier/classtimetable/pkg/model"
	"github.com/limaJavier/classtimetable/pkg/sat"
	"github.com/limaJavier/classtimetable/pkg/timetabler"
)

const (
	exitComplete   = 10
	exitConflicts  = 15
	exitIncomplete = 20
)

var (
	validEngines  = []string{timetabler.EngineConstraint, timetabler.EngineGreedy}
	validBackends = []string{timetabler.BackendFD, timetabler.BackendSAT}
	validFormats  = []string{"json", "csv"}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Define arguments
	filePathPtr := flag.String("file", "", "Path to the input file")
	outFilePathPtr := flag.String("out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	formatPtr := flag.String("format", "json", `Output format. Allowed values are "json" and "csv"`)
	enginePtr := flag.String("engine", cfg.Solver.Engine, `Engine used to build the timetable. Allowed values are "constraint" and "greedy"`)
	backendPtr := flag.String("backend", cfg.Solver.Backend, `Constraint backend. Allowed values are "fd" and "sat"`)
	solverPtr := flag.String("solver", cfg.Solver.SATSolver, fmt.Sprintf("SAT-Solver used by the sat backend. Allowed values are: %v", strings.Join(sat.Names(), ", ")))
	timeoutPtr := flag.Duration("timeout", cfg.Solver.Timeout, "Search budget of the constraint engine")
	seedPtr := flag.Uint64("seed", 0, "Seed for greedy placement; 0 picks a random one")
	resourcesPtr := flag.String("resources", "", "Optional CSV file replacing the resources of the input file")
	lecturersPtr := flag.String("lecturers", "", "Optional CSV file replacing the lecturers of the input file")
	delimPtr := flag.String("delim", ",", "Delimiter of the CSV files")
	flag.Parse()
	engine := strings.ToLower(*enginePtr)
	backend := strings.ToLower(*backendPtr)
	solverName := strings.ToLower(*solverPtr)
	format := strings.ToLower(*formatPtr)
	delim := []rune(*delimPtr)

	// Validate arguments
	if !slices.Contains(validEngines, engine) {
		log.Fatalf("%v is not a valid engine", engine)
	} else if !slices.Contains(validBackends, backend) {
		log.Fatalf("%v is not a valid backend", backend)
	} else if backend == timetabler.BackendSAT && !slices.Contains(sat.Names(), solverName) {
		log.Fatalf("%v is not a valid solver", solverName)
	} else if !slices.Contains(validFormats, format) {
		log.Fatalf("%v is not a valid format", format)
	} else if len(delim) != 1 {
		log.Fatalf("delimiter must be a single character: %q", *delimPtr)
	} else if *filePathPtr == "" {
		log.Fatal("an input file must be specified")
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	// Extract input
	input, err := model.InputFromJson(*filePathPtr)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}
	if *resourcesPtr != "" {
		if input.Resources, err = csvio.LoadResources(*resourcesPtr, delim[0]); err != nil {
			log.Fatalf("cannot load resources: %v", err)
		}
	}
	if *lecturersPtr != "" {
		if input.Lecturers, err = csvio.LoadLecturers(*lecturersPtr, delim[0]); err != nil {
			log.Fatalf("cannot load lecturers: %v", err)
		}
	}

	// Initialize engine
	opts := []timetabler.GeneratorOption{timetabler.WithLogger(logr)}
	if *seedPtr != 0 {
		opts = append(opts, timetabler.WithSeed(*seedPtr))
	}
	if backend == timetabler.BackendSAT {
		paths, err := sat.LoadPaths(satConfigPath(cfg.Solver.SATConfigPath))
		if err != nil {
			log.Fatalf("cannot load SAT solver paths: %v", err)
		}
		solver, err := sat.NewSolver(solverName, paths)
		if err != nil {
			log.Fatalf("cannot create SAT solver: %v", err)
		}
		opts = append(opts, timetabler.WithSATSolver(solver))
	}
	generator := timetabler.NewGenerator(timetabler.Config{
		Engine:       engine,
		Backend:      backend,
		Timeout:      *timeoutPtr,
		MaxSolutions: cfg.Solver.MaxSolutions,
	}, opts...)
	options := input.GenerationOptions(defaultOptions(cfg))

	// Batches budget every department on their own.
	ctx := context.Background()
	if !input.Batch() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, generator.RunBudget())
		defer cancel()
	}

	var (
		output   any
		sessions []model.TimetableSession
		exitCode = exitComplete
	)
	if input.Batch() {
		plan := generator.PlanDepartments(ctx, timetabler.BatchRequest{
			Resources:    input.Resources,
			Lecturers:    input.Lecturers,
			Departments:  input.Departments,
			Options:      options,
			AcademicTerm: input.AcademicTerm,
			AcademicYear: input.AcademicYear,
		})
		for _, department := range sortedKeys(plan.Errors) {
			fmt.Fprintf(os.Stderr, "%v: %v\n", department, describe(plan.Errors[department]))
		}
		for _, department := range sortedKeys(plan.Conflicts) {
			for _, conflict := range plan.Conflicts[department] {
				fmt.Fprintln(os.Stderr, conflict.String())
			}
		}
		switch {
		case len(plan.Errors) > 0:
			exitCode = exitIncomplete
		case len(plan.Conflicts) > 0:
			exitCode = exitConflicts
		}
		output = plan.Timetables
		for _, department := range sortedKeys(plan.Timetables) {
			sessions = append(sessions, plan.Timetables[department].Sessions...)
		}
	} else {
		timetable, err := generator.Run(ctx, timetabler.Request{
			Resources:    input.Resources,
			Lecturers:    input.Lecturers,
			Courses:      input.Courses,
			Options:      options,
			AcademicTerm: input.AcademicTerm,
			AcademicYear: input.AcademicYear,
			Department:   input.Department,
		})
		var incomplete *model.IncompleteScheduleError
		switch {
		case errors.As(err, &incomplete):
			fmt.Fprintln(os.Stderr, incomplete.Error())
			os.Exit(exitIncomplete)
		case errors.Is(err, apperrors.ErrSolverFailure):
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitConflicts)
		case err != nil:
			logr.Fatal("an error occurred during timetable construction", zap.Error(err))
		}
		output = timetable
		sessions = timetable.Sessions
	}

	// Build output
	var buffer bytes.Buffer
	if format == "csv" {
		if err := csvio.ExportSessions(&buffer, sessions, delim[0]); err != nil {
			log.Fatalf("an error occurred while building output csv: %v", err)
		}
	} else {
		encoder := json.NewEncoder(&buffer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			log.Fatalf("an error occurred while building output json: %v", err)
		}
	}

	// Verify outfile is empty, if so then write the results to the Standard Output
	if *outFilePathPtr == "" {
		fmt.Print(buffer.String())
	} else if err := os.WriteFile(*outFilePathPtr, buffer.Bytes(), 0666); err != nil {
		log.Fatalf("an error occurred while writing to the output file: %v", err)
	}

	os.Exit(exitCode)
}

func sortedKeys[V any](values map[string]V) []string {
	keys := lo.Keys(values)
	slices.Sort(keys)
	return keys
}

func describe(err error) string {
	var incomplete *model.IncompleteScheduleError
	if errors.As(err, &incomplete) {
		return incomplete.Error()
	}
	return err.Error()
}

// satConfigPath falls back to a config.json next to the executable.
func satConfigPath(configured string) string {
	if _, err := os.Stat(configured); err == nil || filepath.IsAbs(configured) {
		return configured
	}
	execPath, err := os.Executable()
	if err != nil {
		return configured
	}
	return path.Join(path.Dir(execPath), filepath.Base(configured))
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
