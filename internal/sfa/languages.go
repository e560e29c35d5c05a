package sfa

import "github.com/armcheck/armc/internal/alphabet"

// Reverse computes the automaton for the reversed language (spec
// §4.3). A fresh start state ε-transitions to every original final
// state; the only final state of the result is the original initial
// state; every move is flipped source↔target.
func Reverse[S alphabet.Symbol](m *Automaton[S]) *Automaton[S] {
	b := NewBuilder(m.alg, m.numStates+1)
	newStart := m.numStates
	b.SetInitial(newStart)
	b.SetFinal(m.initial)
	for s := 0; s < m.numStates; s++ {
		for _, mv := range m.Moves(s) {
			if mv.IsEpsilon() {
				b.AddEpsilon(mv.Target, s)
			} else {
				b.AddMove(mv.Target, s, *mv.Pred)
			}
		}
	}
	for _, f := range m.Finals() {
		b.AddEpsilon(newStart, f)
	}
	return b.Build()
}

// PrefixLanguage computes the automaton for the set of prefixes of
// words in L(m): every state becomes final, since reaching any state
// at all is now enough to accept (spec §4.3).
func PrefixLanguage[S alphabet.Symbol](m *Automaton[S]) *Automaton[S] {
	b := NewBuilder(m.alg, m.numStates)
	b.SetInitial(m.initial)
	for s := 0; s < m.numStates; s++ {
		b.SetFinal(s)
		for _, mv := range m.Moves(s) {
			if mv.IsEpsilon() {
				b.AddEpsilon(s, mv.Target)
			} else {
				b.AddMove(s, mv.Target, *mv.Pred)
			}
		}
	}
	return b.Build()
}

// SuffixLanguage computes the automaton for the set of suffixes of
// words in L(m): a fresh start state ε-transitions into every original
// state, so a run may begin partway through (spec §4.3).
func SuffixLanguage[S alphabet.Symbol](m *Automaton[S]) *Automaton[S] {
	b := NewBuilder(m.alg, m.numStates+1)
	newStart := m.numStates
	b.SetInitial(newStart)
	for s := 0; s < m.numStates; s++ {
		if m.IsFinal(s) {
			b.SetFinal(s)
		}
		for _, mv := range m.Moves(s) {
			if mv.IsEpsilon() {
				b.AddEpsilon(s, mv.Target)
			} else {
				b.AddMove(s, mv.Target, *mv.Pred)
			}
		}
		b.AddEpsilon(newStart, s)
	}
	return b.Build()
}

// lengthChain builds the "n-word-length automaton" of spec §4.3: a
// chain of n+1 states, all final, every edge labelled TRUE.
func lengthChain[S alphabet.Symbol](m *Automaton[S], n int) *Automaton[S] {
	b := NewBuilder(m.alg, n+1)
	b.SetInitial(0)
	for i := 0; i <= n; i++ {
		b.SetFinal(i)
		if i < n {
			b.AddMove(i, i+1, m.alg.True())
		}
	}
	return b.BuildUnpruned()
}

// BoundedLanguage computes the automaton for {w ∈ L(m) : |w| ≤ n}, via
// product with the n-word-length automaton (spec §4.3).
func BoundedLanguage[S alphabet.Symbol](m *Automaton[S], n int) *Automaton[S] {
	return Product(m, lengthChain(m, n))
}

// ForwardStateLanguage computes Lf(q): the language from q to m's
// original final states (spec §4.3).
func ForwardStateLanguage[S alphabet.Symbol](m *Automaton[S], q int) *Automaton[S] {
	cp := m.shallowCopy()
	cp.initial = q
	cp.displayBase, cp.displayOrder = 0, nil
	return pruneUnreachableAndDead(cp)
}

// BackwardStateLanguage computes Lb(q): the language from m's original
// initial state to q (spec §4.3).
func BackwardStateLanguage[S alphabet.Symbol](m *Automaton[S], q int) *Automaton[S] {
	cp := m.shallowCopy()
	cp.finals = map[int]struct{}{q: {}}
	cp.displayBase, cp.displayOrder = 0, nil
	return pruneUnreachableAndDead(cp)
}

// ForwardTraceLanguage computes the prefixes of Lf(q) (spec §4.3).
func ForwardTraceLanguage[S alphabet.Symbol](m *Automaton[S], q int) *Automaton[S] {
	return PrefixLanguage(ForwardStateLanguage(m, q))
}

// BackwardTraceLanguage computes the dual of ForwardTraceLanguage: the
// suffixes of Lb(q), i.e. the tail segments of every run from m's
// initial state that passes through q (spec §4.3: "Dually for
// backward").
func BackwardTraceLanguage[S alphabet.Symbol](m *Automaton[S], q int) *Automaton[S] {
	return SuffixLanguage(BackwardStateLanguage(m, q))
}
