package sfa

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/armcheck/armc/internal/alphabet"
)

type pairKey struct{ a, b int }

// Product computes the synchronous product M1 × M2 (spec §4.3): states
// are pairs, an edge label is the conjunction of the two operands'
// labels (dropped if unsatisfiable), and a pair state is final iff both
// components are final. Built lazily from the initial pair via a
// worklist, never materialising unreachable pairs.
func Product[S alphabet.Symbol](m1, m2 *Automaton[S]) *Automaton[S] {
	requireSameAlgebra("Product", m1.alg, m2.alg)
	alg := m1.alg
	b := NewBuilder(alg, 0)
	ids := map[pairKey]int{}
	getID := func(p pairKey) (int, bool) {
		id, ok := ids[p]
		return id, ok
	}
	newState := func(p pairKey) int {
		id := b.AddState()
		ids[p] = id
		if m1.IsFinal(p.a) && m2.IsFinal(p.b) {
			b.SetFinal(id)
		}
		return id
	}

	start := pairKey{m1.initial, m2.initial}
	startID := newState(start)
	b.SetInitial(startID)

	work := []pairKey{start}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		src := ids[p]

		for _, mv1 := range m1.Moves(p.a) {
			if mv1.IsEpsilon() {
				np := pairKey{mv1.Target, p.b}
				tgt, ok := getID(np)
				if !ok {
					tgt = newState(np)
					work = append(work, np)
				}
				b.AddEpsilon(src, tgt)
				continue
			}
			for _, mv2 := range m2.Moves(p.b) {
				if mv2.IsEpsilon() {
					continue
				}
				conj := alg.And(*mv1.Pred, *mv2.Pred)
				if !alg.Satisfiable(conj) {
					continue
				}
				np := pairKey{mv1.Target, mv2.Target}
				tgt, ok := getID(np)
				if !ok {
					tgt = newState(np)
					work = append(work, np)
				}
				b.AddMove(src, tgt, conj)
			}
		}
		for _, mv2 := range m2.Moves(p.b) {
			if mv2.IsEpsilon() {
				np := pairKey{p.a, mv2.Target}
				tgt, ok := getID(np)
				if !ok {
					tgt = newState(np)
					work = append(work, np)
				}
				b.AddEpsilon(src, tgt)
			}
		}
	}
	return b.Build()
}

// Sum computes the classical union via a fresh start state with
// ε-moves to each operand's start (spec §4.3).
func Sum[S alphabet.Symbol](ms ...*Automaton[S]) *Automaton[S] {
	if len(ms) == 0 {
		panic("sfa: Sum of zero automata")
	}
	alg := ms[0].alg
	for _, m := range ms[1:] {
		requireSameAlgebra("Sum", alg, m.alg)
	}
	b := NewBuilder(alg, 1)
	b.SetInitial(0)
	offsets := make([]int, len(ms))
	for i, m := range ms {
		offsets[i] = b.numStates
		for s := 0; s < m.numStates; s++ {
			id := b.AddState()
			if m.IsFinal(s) {
				b.SetFinal(id)
			}
		}
	}
	for i, m := range ms {
		off := offsets[i]
		for s := 0; s < m.numStates; s++ {
			for _, mv := range m.Moves(s) {
				if mv.IsEpsilon() {
					b.AddEpsilon(off+s, off+mv.Target)
				} else {
					b.AddMove(off+s, off+mv.Target, *mv.Pred)
				}
			}
		}
		b.AddEpsilon(0, off+m.initial)
	}
	return b.Build()
}

// ProductIsEmpty is the hot emptiness check named in spec §4.3: it
// performs a lazy synchronous product traversal with a map of visited
// state pairs, stopping at the first final pair, and never materialises the
// product automaton.
func ProductIsEmpty[S alphabet.Symbol](m1, m2 *Automaton[S]) bool {
	requireSameAlgebra("ProductIsEmpty", m1.alg, m2.alg)
	alg := m1.alg
	type key = pairKey
	visited := map[key]struct{}{}
	start := key{m1.initial, m2.initial}
	work := []key{start}
	visited[start] = struct{}{}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		if m1.IsFinal(p.a) && m2.IsFinal(p.b) {
			return false
		}
		for _, mv1 := range m1.Moves(p.a) {
			if mv1.IsEpsilon() {
				np := key{mv1.Target, p.b}
				if _, ok := visited[np]; !ok {
					visited[np] = struct{}{}
					work = append(work, np)
				}
				continue
			}
			for _, mv2 := range m2.Moves(p.b) {
				if mv2.IsEpsilon() {
					continue
				}
				if !alg.Satisfiable(alg.And(*mv1.Pred, *mv2.Pred)) {
					continue
				}
				np := key{mv1.Target, mv2.Target}
				if _, ok := visited[np]; !ok {
					visited[np] = struct{}{}
					work = append(work, np)
				}
			}
		}
		for _, mv2 := range m2.Moves(p.b) {
			if mv2.IsEpsilon() {
				np := key{p.a, mv2.Target}
				if _, ok := visited[np]; !ok {
					visited[np] = struct{}{}
					work = append(work, np)
				}
			}
		}
	}
	return true
}

// IsEmpty reports whether L(m) = ∅: reachability of a final state
// (spec §4.3).
func IsEmpty[S alphabet.Symbol](m *Automaton[S]) bool {
	seen := bitset.New(uint(m.numStates))
	work := []int{m.initial}
	seen.Set(uint(m.initial))
	if m.IsFinal(m.initial) {
		return false
	}
	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]
		for _, mv := range m.Moves(s) {
			if !seen.Test(uint(mv.Target)) {
				seen.Set(uint(mv.Target))
				if m.IsFinal(mv.Target) {
					return false
				}
				work = append(work, mv.Target)
			}
		}
	}
	return true
}

// Complement computes ¬M via Determinize → MakeTotal → flip finality
// (spec §4.3).
func Complement[S alphabet.Symbol](m *Automaton[S]) *Automaton[S] {
	det := MakeTotal(Determinize(m))
	b := NewBuilder(det.alg, det.numStates)
	b.SetInitial(det.initial)
	finalSet := map[int]struct{}{}
	for s := 0; s < det.numStates; s++ {
		if !det.IsFinal(s) {
			finalSet[s] = struct{}{}
		}
		for _, mv := range det.Moves(s) {
			if mv.IsEpsilon() {
				b.AddEpsilon(s, mv.Target)
			} else {
				b.AddMove(s, mv.Target, *mv.Pred)
			}
		}
	}
	b.finals = finalSet
	return b.Build()
}

// Difference computes M1 ∧ ¬M2 (spec §4.3).
func Difference[S alphabet.Symbol](m1, m2 *Automaton[S]) *Automaton[S] {
	requireSameAlgebra("Difference", m1.alg, m2.alg)
	return Product(m1, Complement(m2))
}

// Equivalent decides language equivalence by checking both directions
// of Difference are empty (spec §4.3/§9: "equality of automata is
// language equivalence, which is expensive — callers must opt in
// explicitly").
func Equivalent[S alphabet.Symbol](m1, m2 *Automaton[S]) bool {
	return IsEmpty(Difference(m1, m2)) && IsEmpty(Difference(m2, m1))
}

// IsSubsetOf reports whether L(m1) ⊆ L(m2).
func IsSubsetOf[S alphabet.Symbol](m1, m2 *Automaton[S]) bool {
	return IsEmpty(Difference(m1, m2))
}
