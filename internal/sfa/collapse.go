package sfa

import "github.com/armcheck/armc/internal/alphabet"

// Equivalence decides whether states s and rep of m should be merged
// by Collapse. Implementations are client-supplied (spec §4.3/§4.5):
// the predicate-language and finite-length-language abstraction
// strategies each provide one.
type Equivalence[S alphabet.Symbol] func(m *Automaton[S], s, rep int) bool

// Collapse quotients m's states by equiv (spec §4.3): states are
// visited in ascending order; each joins the first existing class
// whose representative satisfies equiv(m, s, rep), else it starts a
// new class. Moves are rewritten through the resulting state→
// representative map. Merging states can only add words, so
// L(m) ⊆ L(Collapse(m)) — this is the engine of abstraction.
func Collapse[S alphabet.Symbol](m *Automaton[S], equiv Equivalence[S]) *Automaton[S] {
	reps := make([]int, 0, m.numStates)
	classOf := make([]int, m.numStates)

	for s := 0; s < m.numStates; s++ {
		joined := false
		for ci, rep := range reps {
			if equiv(m, s, rep) {
				classOf[s] = ci
				joined = true
				break
			}
		}
		if !joined {
			classOf[s] = len(reps)
			reps = append(reps, s)
		}
	}

	b := NewBuilder(m.alg, len(reps))
	for ci, rep := range reps {
		if name, ok := m.StateName(rep); ok {
			b.SetStateName(ci, name)
		}
	}
	b.SetInitial(classOf[m.initial])
	for s := 0; s < m.numStates; s++ {
		// A class is final if ANY of its members was final, not just its
		// representative: the representative only decides class
		// membership, and marking finality from it alone would drop
		// acceptance whenever a final state merges into a non-final
		// representative's class, breaking "collapse only adds words".
		if m.IsFinal(s) {
			b.SetFinal(classOf[s])
		}
	}
	for s := 0; s < m.numStates; s++ {
		src := classOf[s]
		for _, mv := range m.Moves(s) {
			tgt := classOf[mv.Target]
			if mv.IsEpsilon() {
				b.AddEpsilon(src, tgt)
			} else {
				b.AddMove(src, tgt, *mv.Pred)
			}
		}
	}
	return b.Build()
}
