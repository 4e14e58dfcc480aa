package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/gocarina/gocsv"

	"github.com/limaJavier/classtimetable/pkg/model"
)

// ExportSessions writes the sessions ordered by day and start time, one row per session.
func ExportSessions(out io.Writer, sessions []model.TimetableSession, delim rune) error {
	rows := slices.Clone(sessions)
	slices.SortStableFunc(rows, func(a, b model.TimetableSession) int {
		slotA, _ := a.Slot()
		slotB, _ := b.Slot()
		return slotA.Index() - slotB.Index()
	})

	writer := csv.NewWriter(out)
	writer.Comma = delim
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("cannot export sessions: %w", err)
	}
	return nil
}

// LoadResources reads a resource table with id, name, type, capacity and available columns.
func LoadResources(path string, delim rune) ([]model.Resource, error) {
	var resources []model.Resource
	if err := load(path, delim, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// LoadLecturers reads a lecturer table with id, name and department columns.
func LoadLecturers(path string, delim rune) ([]model.Lecturer, error) {
	var lecturers []model.Lecturer
	if err := load(path, delim, &lecturers); err != nil {
		return nil, err
	}
	return lecturers, nil
}

func load(path string, delim rune, out any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %v: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = delim
	if err := gocsv.UnmarshalCSV(reader, out); err != nil {
		return fmt.Errorf("failed to parse %v: %w", path, err)
	}
	return nil
}
