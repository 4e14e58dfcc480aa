package timetabler

import (
	"fmt"

	mk "github.com/gitrdm/gokando/pkg/minikanren"
	"github.com/samber/lo"

	"github.com/limaJavier/classtimetable/pkg/model"
)

// Finite-domain values are 1-based: slot, day, resource and lecturer variables hold index+1.

func boundValue(domain mk.Domain) int {
	value := 0
	domain.IterateValues(func(v int) { value = v })
	return value
}

func slotOf(value int) model.Slot {
	return model.SlotFromIndex(value - 1)
}

// pairRule forbids combinations of two variables. It prunes the other variable once one side is
// bound and fails when both are bound to a forbidden pair.
type pairRule struct {
	kind          string
	first, second *mk.FDVariable
	forbidden     func(first, second int) bool
}

func (rule *pairRule) Variables() []*mk.FDVariable {
	return []*mk.FDVariable{rule.first, rule.second}
}

func (rule *pairRule) Type() string {
	return rule.kind
}

func (rule *pairRule) String() string {
	return fmt.Sprintf("%s(%d, %d)", rule.kind, rule.first.ID(), rule.second.ID())
}

func (rule *pairRule) Propagate(solver *mk.Solver, state *mk.SolverState) (*mk.SolverState, error) {
	first := solver.GetDomain(state, rule.first.ID())
	second := solver.GetDomain(state, rule.second.ID())

	if first.IsSingleton() && second.IsSingleton() {
		if rule.forbidden(boundValue(first), boundValue(second)) {
			return nil, fmt.Errorf("%s: forbidden pair", rule.kind)
		}
		return state, nil
	}

	newState := state
	if first.IsSingleton() {
		value := boundValue(first)
		pruned, err := prune(second, func(other int) bool { return rule.forbidden(value, other) })
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rule.kind, err)
		}
		if pruned.Count() != second.Count() {
			newState, _ = solver.SetDomain(newState, rule.second.ID(), pruned)
		}
	}
	if second.IsSingleton() {
		value := boundValue(second)
		pruned, err := prune(first, func(other int) bool { return rule.forbidden(other, value) })
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rule.kind, err)
		}
		if pruned.Count() != first.Count() {
			newState, _ = solver.SetDomain(newState, rule.first.ID(), pruned)
		}
	}
	return newState, nil
}

// tupleRule forbids combinations over any number of variables by forward checking: it prunes the
// last unbound variable and fails when a fully bound tuple is forbidden.
type tupleRule struct {
	kind      string
	variables []*mk.FDVariable
	forbidden func(values []int) bool
}

func (rule *tupleRule) Variables() []*mk.FDVariable {
	return rule.variables
}

func (rule *tupleRule) Type() string {
	return rule.kind
}

func (rule *tupleRule) String() string {
	return fmt.Sprintf("%s%v", rule.kind, lo.Map(rule.variables, func(v *mk.FDVariable, _ int) int { return v.ID() }))
}

func (rule *tupleRule) Propagate(solver *mk.Solver, state *mk.SolverState) (*mk.SolverState, error) {
	values := make([]int, len(rule.variables))
	unbound := -1
	for i, variable := range rule.variables {
		domain := solver.GetDomain(state, variable.ID())
		if !domain.IsSingleton() {
			if unbound >= 0 {
				return state, nil
			}
			unbound = i
			continue
		}
		values[i] = boundValue(domain)
	}

	if unbound < 0 {
		if rule.forbidden(values) {
			return nil, fmt.Errorf("%s: forbidden tuple", rule.kind)
		}
		return state, nil
	}

	domain := solver.GetDomain(state, rule.variables[unbound].ID())
	pruned, err := prune(domain, func(value int) bool {
		values[unbound] = value
		return rule.forbidden(values)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rule.kind, err)
	}
	if pruned.Count() == domain.Count() {
		return state, nil
	}
	newState, _ := solver.SetDomain(state, rule.variables[unbound].ID(), pruned)
	return newState, nil
}

// dayChannel keeps a day variable arc consistent with its slot variable.
type dayChannel struct {
	slot, day *mk.FDVariable
}

func (channel *dayChannel) Variables() []*mk.FDVariable {
	return []*mk.FDVariable{channel.slot, channel.day}
}

func (channel *dayChannel) Type() string {
	return "DayChannel"
}

func (channel *dayChannel) String() string {
	return fmt.Sprintf("DayChannel(%d, %d)", channel.slot.ID(), channel.day.ID())
}

func (channel *dayChannel) Propagate(solver *mk.Solver, state *mk.SolverState) (*mk.SolverState, error) {
	slots := solver.GetDomain(state, channel.slot.ID())
	days := solver.GetDomain(state, channel.day.ID())

	supported := make(map[int]bool, model.DaysPerWeek)
	slots.IterateValues(func(value int) {
		supported[int(slotOf(value).Day)+1] = true
	})

	newDays, err := prune(days, func(day int) bool { return !supported[day] })
	if err != nil {
		return nil, fmt.Errorf("DayChannel: %w", err)
	}
	newSlots, err := prune(slots, func(value int) bool { return !newDays.Has(int(slotOf(value).Day) + 1) })
	if err != nil {
		return nil, fmt.Errorf("DayChannel: %w", err)
	}

	newState := state
	if newDays.Count() != days.Count() {
		newState, _ = solver.SetDomain(newState, channel.day.ID(), newDays)
	}
	if newSlots.Count() != slots.Count() {
		newState, _ = solver.SetDomain(newState, channel.slot.ID(), newSlots)
	}
	return newState, nil
}

// dayLoadRule caps the number of sessions held on any day.
type dayLoadRule struct {
	days     []*mk.FDVariable
	capacity int
}

func (rule *dayLoadRule) Variables() []*mk.FDVariable {
	return rule.days
}

func (rule *dayLoadRule) Type() string {
	return "DayLoad"
}

func (rule *dayLoadRule) String() string {
	return fmt.Sprintf("DayLoad(%d vars, cap %d)", len(rule.days), rule.capacity)
}

func (rule *dayLoadRule) Propagate(solver *mk.Solver, state *mk.SolverState) (*mk.SolverState, error) {
	var loads [model.DaysPerWeek + 1]int
	domains := make([]mk.Domain, len(rule.days))
	for i, variable := range rule.days {
		domains[i] = solver.GetDomain(state, variable.ID())
		if domains[i].IsSingleton() {
			loads[boundValue(domains[i])]++
		}
	}

	full := make([]int, 0, model.DaysPerWeek)
	for day := 1; day <= model.DaysPerWeek; day++ {
		if loads[day] > rule.capacity {
			return nil, fmt.Errorf("DayLoad: day %d holds %d sessions, cap %d", day, loads[day], rule.capacity)
		}
		if loads[day] == rule.capacity {
			full = append(full, day)
		}
	}
	if len(full) == 0 {
		return state, nil
	}

	newState := state
	for i, domain := range domains {
		if domain.IsSingleton() {
			continue
		}
		pruned, err := prune(domain, func(day int) bool { return lo.Contains(full, day) })
		if err != nil {
			return nil, fmt.Errorf("DayLoad: %w", err)
		}
		if pruned.Count() != domain.Count() {
			newState, _ = solver.SetDomain(newState, rule.days[i].ID(), pruned)
		}
	}
	return newState, nil
}

// prune removes every value matching drop and reports a wipe-out as an error.
func prune(domain mk.Domain, drop func(value int) bool) (mk.Domain, error) {
	removals := make([]int, 0)
	domain.IterateValues(func(value int) {
		if drop(value) {
			removals = append(removals, value)
		}
	})

	pruned := domain
	for _, value := range removals {
		pruned = pruned.Remove(value)
	}
	if pruned.Count() == 0 {
		return nil, fmt.Errorf("domain empty after pruning")
	}
	return pruned, nil
}
