package sat

import "math/rand/v2"

// GenerateSATInstance builds a random CNF; each clause holds every variable with probability 1/2
// and at least one literal.
func GenerateSATInstance(random *rand.Rand, variables uint64, clauses int) SAT {
	instance := SAT{
		Variables: variables,
		Clauses:   make([][]int64, clauses),
	}

	sign := func() int64 {
		if random.Float32() < 0.5 {
			return -1
		}
		return 1
	}

	for i := range clauses {
		instance.Clauses[i] = make([]int64, 0, variables)
		for j := range variables {
			if random.Float32() < 0.5 {
				instance.Clauses[i] = append(instance.Clauses[i], sign()*(1+int64(j)))
			}
		}
		if len(instance.Clauses[i]) == 0 {
			instance.Clauses[i] = append(instance.Clauses[i], sign()*(1+random.Int64N(int64(variables))))
		}
	}
	return instance
}

// AssertSATSolution checks that a solution is contradiction free and satisfies every clause.
func AssertSATSolution(instance SAT, solution SATSolution) bool {
	literals := make(map[int64]bool)
	for _, literal := range solution {
		if literals[literal] || literals[-literal] {
			return false
		}
		literals[literal] = true
	}

	for _, clause := range instance.Clauses {
		satisfied := false
		for _, literal := range clause {
			if literals[literal] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}
