package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"

	"github.com/limaJavier/classtimetable/pkg/model"
	"github.com/limaJavier/classtimetable/pkg/timetabler"
)

const (
	executablePath         = "../../bin/classtimetable"
	problemsDirectory      = "../../testdata/problems/"
	resultsFile            = "benchmark_results.csv"
	timeout                = "30s"
	MB             float32 = 1024 * 1024
)

type ResultType int

const (
	complete ResultType = iota
	conflicts
	incomplete
)

var resultTypes = map[ResultType]string{
	complete:   "complete",
	conflicts:  "conflicts",
	incomplete: "incomplete",
}

type TestMetadata struct {
	Name        string
	Departments int
	Resources   int
	Lecturers   int
	Courses     int
	Sessions    int
}

type EngineMetadata struct {
	Engine  string
	Backend string
	Solver  string
}

func (engine EngineMetadata) String() string {
	if engine.Engine == timetabler.EngineGreedy {
		return engine.Engine
	}
	if engine.Backend == timetabler.BackendSAT {
		return fmt.Sprintf("%v-%v-%v", engine.Engine, engine.Backend, engine.Solver)
	}
	return fmt.Sprintf("%v-%v", engine.Engine, engine.Backend)
}

type BenchmarkResult struct {
	Engine        string  `csv:"Engine"`
	Test          string  `csv:"Test"`
	Departments   int     `csv:"Departments"`
	Resources     int     `csv:"Resources"`
	Lecturers     int     `csv:"Lecturers"`
	Courses       int     `csv:"Courses"`
	Sessions      int     `csv:"Sessions"`
	Duration      int64   `csv:"Duration(ms)"`
	Memory        float32 `csv:"Memory(MB)"`
	CpuPercentage int64   `csv:"CPU(%)"`
	Result        string  `csv:"Result"`
}

func main() {
	tests := getTests()
	engines := getEngines()
	results := make([]*BenchmarkResult, 0, len(tests)*len(engines))

	for _, test := range tests {
		for _, engine := range engines {
			fmt.Printf("Benchmarking test \"%v\" with engine \"%v\"\n", test.Name, engine)

			duration, maxMemory, cpuPercentage, result := measure(engine, test.Name)

			results = append(results, &BenchmarkResult{
				Engine:        engine.String(),
				Test:          test.Name,
				Departments:   test.Departments,
				Resources:     test.Resources,
				Lecturers:     test.Lecturers,
				Courses:       test.Courses,
				Sessions:      test.Sessions,
				Duration:      duration,
				Memory:        maxMemory,
				CpuPercentage: cpuPercentage,
				Result:        resultTypes[result],
			})
		}
	}

	toCsv(results)
}

func getTests() []TestMetadata {
	files, err := filepath.Glob(filepath.Join(problemsDirectory, "*.json"))
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	tests := make([]TestMetadata, 0, len(files))
	for _, filename := range files {
		input, err := model.InputFromJson(filename)
		if err != nil {
			log.Fatalf("cannot parse input file: %v", err)
		}

		courses := input.Courses
		for _, department := range input.Departments {
			courses = append(courses, department.Courses...)
		}
		tests = append(tests, TestMetadata{
			Name:        filename,
			Departments: len(input.Departments),
			Resources:   len(input.Resources),
			Lecturers:   len(input.Lecturers),
			Courses:     len(courses),
			Sessions:    lo.SumBy(courses, model.Course.RequiredSessions),
		})
	}

	return tests
}

func getEngines() []EngineMetadata {
	return []EngineMetadata{
		{Engine: timetabler.EngineGreedy},
		{Engine: timetabler.EngineConstraint, Backend: timetabler.BackendFD},
		{Engine: timetabler.EngineConstraint, Backend: timetabler.BackendSAT, Solver: "kissat"},
		{Engine: timetabler.EngineConstraint, Backend: timetabler.BackendSAT, Solver: "cadical"},
		{Engine: timetabler.EngineConstraint, Backend: timetabler.BackendSAT, Solver: "minisat"},
	}
}

func measure(engine EngineMetadata, testFile string) (duration int64, maxMemory float32, cpuPercentage int64, result ResultType) {
	args := []string{"-v", executablePath, "-engine", engine.Engine, "-file", testFile, "-out", os.DevNull, "-timeout", timeout}
	if engine.Backend != "" {
		args = append(args, "-backend", engine.Backend)
	}
	if engine.Solver != "" {
		args = append(args, "-solver", engine.Solver)
	}
	cmd := exec.Command("/usr/bin/time", args...)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	cmd.Run()
	switch cmd.ProcessState.ExitCode() {
	case 10:
		result = complete
	case 15:
		result = conflicts
	case 20:
		result = incomplete
	default:
		log.Fatalf("an error occurred during the execution \"classtimetable\" at test \"%v\" using engine \"%v\": %v\n", testFile, engine, stdErr.String())
	}
	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	duration = parseDurationLine(getLine("wall clock"))
	maxMemory = parseMemoryLine(getLine("maximum resident set size"))
	cpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))

	return duration, maxMemory, cpuPercentage, result
}

func toCsv(results []*BenchmarkResult) {
	file, err := os.Create(resultsFile)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&results, file); err != nil {
		log.Panicf("cannot write CSV records: %v", err)
	}
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsStr := parts[len(parts)-1]
	secondsParts := strings.Split(secondsStr, ".")

	var duration int64
	if len(parts) == 3 { // h:mm:ss
		hours := lo.Must(strconv.Atoi(parts[0]))
		minutes := lo.Must(strconv.Atoi(parts[1]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else if len(parts) == 2 { // m:ss
		minutes := lo.Must(strconv.Atoi(parts[0]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else {
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return duration
}

// parseMemoryLine converts the kilobytes reported by time into megabytes.
func parseMemoryLine(line string) float32 {
	memoryStr := strings.Split(line, ":")[1][1:]
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) * 1024 / MB
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.Split(line, ":")[1][1:]
	percentageStr = percentageStr[:len(percentageStr)-1]
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
