package sfa

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/predicate"
)

// RemoveEpsilons eliminates ε-moves by folding each state's ε-closure
// into direct predicated moves and direct finality (spec §4.3).
func RemoveEpsilons[S alphabet.Symbol](m *Automaton[S]) *Automaton[S] {
	closure := make([][]int, m.numStates)
	for s := 0; s < m.numStates; s++ {
		closure[s] = epsilonClosure(m, s)
	}
	b := NewBuilder(m.alg, m.numStates)
	b.SetInitial(m.initial)
	for s := 0; s < m.numStates; s++ {
		for _, r := range closure[s] {
			if m.IsFinal(r) {
				b.SetFinal(s)
			}
			for _, mv := range m.Moves(r) {
				if !mv.IsEpsilon() {
					b.AddMove(s, mv.Target, *mv.Pred)
				}
			}
		}
	}
	return b.Build()
}

func epsilonClosure[S alphabet.Symbol](m *Automaton[S], s int) []int {
	seen := bitset.New(uint(m.numStates))
	seen.Set(uint(s))
	work := []int{s}
	out := []int{s}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		for _, mv := range m.Moves(cur) {
			if mv.IsEpsilon() && !seen.Test(uint(mv.Target)) {
				seen.Set(uint(mv.Target))
				work = append(work, mv.Target)
				out = append(out, mv.Target)
			}
		}
	}
	return out
}

// subset is a canonical, hashable representation of a set of NFA
// states reached during subset construction.
type subset string

func subsetKey(states []int) subset {
	sorted := append([]int{}, states...)
	sort.Ints(sorted)
	b := make([]byte, 0, len(sorted)*4)
	for _, s := range sorted {
		b = append(b, byte(s), byte(s>>8), byte(s>>16), byte(s>>24))
	}
	return subset(b)
}

// Determinize computes an equivalent deterministic SFA via
// minterm-based subset construction (spec §4.3): ε-moves are removed
// first, then for each frontier subset the minterms of its outgoing
// predicates partition Σ, and one subset-automaton move is taken per
// minterm that leads to a non-empty target set. The result is not
// total: symbols with no target have no move (see MakeTotal).
func Determinize[S alphabet.Symbol](m *Automaton[S]) *Automaton[S] {
	m = RemoveEpsilons(m)
	alg := m.alg
	b := NewBuilder(alg, 0)

	ids := map[subset]int{}
	members := map[subset][]int{}
	getOrCreate := func(states []int) (int, bool) {
		k := subsetKey(states)
		if id, ok := ids[k]; ok {
			return id, false
		}
		id := b.AddState()
		ids[k] = id
		members[k] = states
		for _, s := range states {
			if m.IsFinal(s) {
				b.SetFinal(id)
				break
			}
		}
		return id, true
	}

	startStates := []int{m.initial}
	startID, _ := getOrCreate(startStates)
	b.SetInitial(startID)

	work := []subset{subsetKey(startStates)}
	for len(work) > 0 {
		k := work[len(work)-1]
		work = work[:len(work)-1]
		states := members[k]
		srcID := ids[k]

		var preds []predicate.Predicate[S]
		for _, s := range states {
			for _, mv := range m.Moves(s) {
				preds = append(preds, *mv.Pred)
			}
		}
		if len(preds) == 0 {
			continue
		}
		minterms := alg.Minterms(preds...)
		for _, mt := range minterms {
			targetSet := map[int]struct{}{}
			for _, s := range states {
				for _, mv := range m.Moves(s) {
					if alg.Implies(mt, *mv.Pred) {
						targetSet[mv.Target] = struct{}{}
					}
				}
			}
			if len(targetSet) == 0 {
				continue
			}
			targets := make([]int, 0, len(targetSet))
			for t := range targetSet {
				targets = append(targets, t)
			}
			tk := subsetKey(targets)
			tgtID, isNew := getOrCreate(targets)
			if isNew {
				work = append(work, tk)
			}
			b.AddMove(srcID, tgtID, mt)
		}
	}
	return b.Build()
}

// MakeTotal adds a non-final sink state and routes every "missing"
// minterm of predicates leaving each state to it, so that the result
// has an outgoing move for every symbol of Σ in every state (a
// prerequisite for Complement, spec §4.3).
func MakeTotal[S alphabet.Symbol](m *Automaton[S]) *Automaton[S] {
	alg := m.alg
	b := NewBuilder(alg, m.numStates)
	for s := 0; s < m.numStates; s++ {
		if m.IsFinal(s) {
			b.SetFinal(s)
		}
	}
	b.SetInitial(m.initial)
	sink := b.AddState()
	b.AddMove(sink, sink, alg.True())

	for s := 0; s < m.numStates; s++ {
		var preds []predicate.Predicate[S]
		for _, mv := range m.Moves(s) {
			b.AddMove(s, mv.Target, *mv.Pred)
			preds = append(preds, *mv.Pred)
		}
		covered := alg.False()
		for _, p := range preds {
			covered = alg.Or(covered, p)
		}
		missing := alg.Minus(alg.True(), covered)
		if alg.Satisfiable(missing) {
			b.AddMove(s, sink, missing)
		}
	}
	// Deliberately unpruned: the sink is non-co-reachable by
	// construction, and pruning it here would undo totalisation before
	// Complement gets a chance to flip finality and make it relevant.
	return b.BuildUnpruned()
}
