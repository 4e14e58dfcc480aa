package timetabler

import (
	"github.com/samber/lo"

	"github.com/limaJavier/classtimetable/pkg/model"
)

const studentBackToBackWeight = 20

// Score breaks down the minimized objective of an assignment.
type Score struct {
	StudentBackToBack  int
	LecturerBackToBack int
	Imbalance          int
}

// Total weighs student back-to-back pairs above everything else; load balance is always counted.
func (score Score) Total() int {
	return studentBackToBackWeight*score.StudentBackToBack + score.LecturerBackToBack + score.Imbalance
}

func evaluate(problem *Problem, assignments []Assignment) Score {
	var score Score

	for i := range len(assignments) - 1 {
		for j := i + 1; j < len(assignments); j++ {
			first, second := assignments[i], assignments[j]
			if !adjacent(first.Slot, second.Slot) {
				continue
			}
			if problem.Options.AvoidBackToBackStudents {
				score.StudentBackToBack++
			}
			if problem.Options.AvoidBackToBackClasses && first.Lecturer == second.Lecturer {
				score.LecturerBackToBack++
			}
		}
	}

	score.Imbalance = imbalance(dayLoads(assignments))
	return score
}

func adjacent(first, second model.Slot) bool {
	return first.Day == second.Day && (first.Hour-second.Hour == 1 || second.Hour-first.Hour == 1)
}

func dayLoads(assignments []Assignment) [model.DaysPerWeek]int {
	var loads [model.DaysPerWeek]int
	for _, assignment := range assignments {
		loads[assignment.Slot.Day]++
	}
	return loads
}

func imbalance(loads [model.DaysPerWeek]int) int {
	return lo.Max(loads[:]) - lo.Min(loads[:])
}
