package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/limaJavier/classtimetable/pkg/timetabler"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, int64(60*1000+1000+120), parseDuration("00:01:01.12"))
	assert.Equal(t, int64(60*60*1000+60*1000+1000+120), parseDuration("01:01:01.12"))
	assert.Equal(t, int64(60*1000+1000+120), parseDuration("1:01.12"))
	assert.Equal(t, int64(120), parseDuration("0:00.12"))
	assert.Equal(t, int64(120), parseDuration("00:00:00.12"))
}

func TestParseTimeLines(t *testing.T) {
	assert.Equal(t, int64(2150), parseDurationLine("\tElapsed (wall clock) time (h:mm:ss or m:ss): 0:02.15"))
	assert.Equal(t, float32(2), parseMemoryLine("\tMaximum resident set size (kbytes): 2048"))
	assert.Equal(t, int64(97), parseCpuPercentageLine("\tPercent of CPU this job got: 97%"))
}

func TestEngineMetadataString(t *testing.T) {
	assert.Equal(t, "greedy", EngineMetadata{Engine: timetabler.EngineGreedy, Backend: timetabler.BackendFD}.String())
	assert.Equal(t, "constraint-fd", EngineMetadata{Engine: timetabler.EngineConstraint, Backend: timetabler.BackendFD}.String())
	assert.Equal(t, "constraint-sat-kissat", EngineMetadata{Engine: timetabler.EngineConstraint, Backend: timetabler.BackendSAT, Solver: "kissat"}.String())
}
