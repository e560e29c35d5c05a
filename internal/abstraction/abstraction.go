// Package abstraction implements the abstraction interface of spec
// §4.5 and its two realisations: predicate-language abstraction
// (§4.5.1) and finite-length-language abstraction (§4.5.2).
package abstraction

import (
	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/sfa"
)

// Strategy is implemented by both abstraction flavours (spec §4.5).
// Collapse must be sound: L(m) ⊆ L(Collapse(m)). Refine strengthens
// the strategy's internal state so that a subsequent Collapse call on
// the same m would no longer contain the failing replay automaton x
// (spec: "after refinement X ⊄ Collapse(M)").
type Strategy[S alphabet.Symbol] interface {
	Collapse(m *sfa.Automaton[S]) *sfa.Automaton[S]
	StatesAreEquivalent(m *sfa.Automaton[S], q, qPrime int) bool
	Refine(m, x *sfa.Automaton[S])
}

func sameSet[K comparable](a, b map[K]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
