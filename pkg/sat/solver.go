package sat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

const (
	exitSatisfiable   = 10
	exitUnsatisfiable = 20
)

// SATSolver returns a solution of a satisfiable instance and nil for an unsatisfiable one; both
// are valid outputs with a nil error.
type SATSolver interface {
	Solve(ctx context.Context, instance SAT) (SATSolution, error)
}

// Paths maps a solver name to its executable. Unlisted solvers are looked up on PATH by name.
type Paths map[string]string

// LoadPaths reads a JSON object of solver executables, e.g. {"kissat": "/opt/kissat/bin/kissat"}.
// A missing file yields empty paths.
func LoadPaths(file string) (Paths, error) {
	bytes, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return Paths{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("cannot read solver config: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return nil, fmt.Errorf("cannot parse solver config: %w", err)
	}

	var paths Paths
	if err := mapstructure.Decode(raw, &paths); err != nil {
		return nil, fmt.Errorf("cannot decode solver config: %w", err)
	}
	return paths, nil
}

func (paths Paths) executable(solver string) string {
	if path, ok := paths[solver]; ok && path != "" {
		return path
	}
	return solver
}

// Names lists the supported solvers.
func Names() []string {
	return []string{"kissat", "cadical", "cryptominisat", "minisat", "glucose", "slime"}
}

// NewSolver builds the named solver wrapper.
func NewSolver(name string, paths Paths) (SATSolver, error) {
	executable := paths.executable(name)
	switch strings.ToLower(name) {
	case "kissat":
		return &stdinSolver{name: name, path: executable, args: []string{"-q", "--relaxed"}}, nil
	case "cadical":
		return &stdinSolver{name: name, path: executable, args: []string{"-q"}}, nil
	case "cryptominisat":
		return &stdinSolver{name: name, path: executable, args: []string{"--verb", "0"}}, nil
	case "minisat", "glucose":
		return &outputFileSolver{name: name, path: executable, args: []string{"-verb=0"}}, nil
	case "slime":
		return &inputFileSolver{name: name, path: executable}, nil
	default:
		return nil, fmt.Errorf("unknown SAT solver %q, expected one of %v", name, Names())
	}
}

// run executes a solver and maps the competition exit codes: 10 satisfiable, 20 unsatisfiable.
func run(ctx context.Context, name string, cmd *exec.Cmd) (stdout string, satisfiable bool, err error) {
	var stdOut, stdErr bytes.Buffer
	cmd.Stdout = &stdOut
	cmd.Stderr = &stdErr

	err = cmd.Run()
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil && exitCode != exitSatisfiable && exitCode != exitUnsatisfiable {
		return "", false, fmt.Errorf("an error occurred during %v execution: %v : %v", name, err, stdErr.String())
	}
	return stdOut.String(), exitCode == exitSatisfiable, nil
}

// stdinSolver reads DIMACS from standard input and prints "v" lines.
type stdinSolver struct {
	name string
	path string
	args []string
}

func (solver *stdinSolver) Solve(ctx context.Context, instance SAT) (SATSolution, error) {
	cmd := exec.CommandContext(ctx, solver.path, solver.args...)
	cmd.Stdin = strings.NewReader(instance.ToDIMACS())

	output, satisfiable, err := run(ctx, solver.name, cmd)
	if err != nil || !satisfiable {
		return nil, err
	}
	return parseSolution(output)
}

// inputFileSolver reads DIMACS from a file argument and prints "v" lines.
type inputFileSolver struct {
	name string
	path string
}

func (solver *inputFileSolver) Solve(ctx context.Context, instance SAT) (SATSolution, error) {
	input, err := writeTemp(instance)
	if err != nil {
		return nil, err
	}
	defer os.Remove(input)

	cmd := exec.CommandContext(ctx, solver.path, input)
	output, satisfiable, err := run(ctx, solver.name, cmd)
	if err != nil || !satisfiable {
		return nil, err
	}
	return parseSolution(output)
}

// outputFileSolver reads DIMACS from a file and writes the model to a second file, minisat style.
type outputFileSolver struct {
	name string
	path string
	args []string
}

func (solver *outputFileSolver) Solve(ctx context.Context, instance SAT) (SATSolution, error) {
	input, err := writeTemp(instance)
	if err != nil {
		return nil, err
	}
	defer os.Remove(input)

	outputFile, err := os.CreateTemp("", solver.name+"_output-*.cnf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	outputFile.Close()
	defer os.Remove(outputFile.Name())

	cmd := exec.CommandContext(ctx, solver.path, append(solver.args, input, outputFile.Name())...)
	_, satisfiable, err := run(ctx, solver.name, cmd)
	if err != nil || !satisfiable {
		return nil, err
	}

	file, err := os.Open(outputFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()
	output, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}
	return parseModelFile(string(output))
}

func writeTemp(instance SAT) (string, error) {
	file, err := os.CreateTemp("", "dimacs-*.cnf")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	if _, err := file.WriteString(instance.ToDIMACS()); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to write DIMACS to temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to close temporary file: %w", err)
	}
	return file.Name(), nil
}

// parseSolution collects the literals of every "v" line, dropping the terminating 0.
func parseSolution(solverOutput string) (SATSolution, error) {
	lines := lo.Filter(strings.Split(solverOutput, "\n"), func(line string, _ int) bool {
		return len(line) > 0 && line[0] == 'v'
	})
	return parseLiterals(lo.FlatMap(lines, func(line string, _ int) []string {
		return strings.Fields(line[1:])
	}))
}

// parseModelFile reads a minisat style result file: a SAT/UNSAT header then the literals.
func parseModelFile(solverOutput string) (SATSolution, error) {
	lines := strings.Split(strings.TrimSpace(solverOutput), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != "SAT" {
		return nil, nil
	}
	return parseLiterals(strings.Fields(lines[1]))
}

func parseLiterals(fields []string) (SATSolution, error) {
	solution := make(SATSolution, 0, len(fields))
	for _, field := range fields {
		literal, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal in solver output: %w", err)
		}
		if literal != 0 {
			solution = append(solution, literal)
		}
	}
	return solution, nil
}
