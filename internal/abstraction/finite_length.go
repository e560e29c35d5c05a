package abstraction

import (
	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/sfa"
)

// Flavor selects which bounded state language Collapse compares (spec
// §4.5.2's "choice of flavour fixed by configuration").
type Flavor int

const (
	FlavorForwardState Flavor = iota
	FlavorBackwardState
	FlavorForwardTrace
	FlavorBackwardTrace
)

// IncrementBasis selects what Refine's bound increment is measured
// against (spec §4.5.2: "1, |M|, or |X|").
type IncrementBasis int

const (
	IncrementOne IncrementBasis = iota
	IncrementSizeOfM
	IncrementSizeOfX
)

// FiniteLengthStrategy maintains the integer bound n of spec §4.5.2.
type FiniteLengthStrategy[S alphabet.Symbol] struct {
	n              int
	flavor         Flavor
	basis          IncrementBasis
	halveIncrement bool
}

// NewFiniteLengthStrategy builds a strategy with initial bound n0
// (already resolved by the driver from INITIAL_BOUND/HALVE_INITIAL_BOUND).
func NewFiniteLengthStrategy[S alphabet.Symbol](n0 int, flavor Flavor, basis IncrementBasis, halveIncrement bool) *FiniteLengthStrategy[S] {
	return &FiniteLengthStrategy[S]{n: n0, flavor: flavor, basis: basis, halveIncrement: halveIncrement}
}

// Bound returns the current n.
func (st *FiniteLengthStrategy[S]) Bound() int { return st.n }

func (st *FiniteLengthStrategy[S]) languageFor(m *sfa.Automaton[S], s int) *sfa.Automaton[S] {
	var base *sfa.Automaton[S]
	switch st.flavor {
	case FlavorForwardState:
		base = sfa.ForwardStateLanguage(m, s)
	case FlavorBackwardState:
		base = sfa.BackwardStateLanguage(m, s)
	case FlavorForwardTrace:
		base = sfa.ForwardTraceLanguage(m, s)
	default:
		base = sfa.BackwardTraceLanguage(m, s)
	}
	return sfa.BoundedLanguage(base, st.n)
}

// StatesAreEquivalent implements spec §4.5.2: q and q′ are equivalent
// iff their bounded state (or trace) languages up to n coincide.
func (st *FiniteLengthStrategy[S]) StatesAreEquivalent(m *sfa.Automaton[S], q, qPrime int) bool {
	return sfa.Equivalent(st.languageFor(m, q), st.languageFor(m, qPrime))
}

// Collapse quotients m by bounded-language equality (spec §4.5.2/§4.3).
func (st *FiniteLengthStrategy[S]) Collapse(m *sfa.Automaton[S]) *sfa.Automaton[S] {
	// Memoise per state: languageFor is expensive (a state- or
	// trace-language copy plus a Product with the length chain), and
	// Collapse calls the equivalence against every existing class
	// representative.
	cache := make([]*sfa.Automaton[S], m.NumStates())
	langOf := func(s int) *sfa.Automaton[S] {
		if cache[s] == nil {
			cache[s] = st.languageFor(m, s)
		}
		return cache[s]
	}
	return sfa.Collapse(m, func(_ *sfa.Automaton[S], s, rep int) bool {
		return sfa.Equivalent(langOf(s), langOf(rep))
	})
}

// Refine increases n by an increment of 1, |M|, or |X| (optionally
// halved), per spec §4.5.2.
func (st *FiniteLengthStrategy[S]) Refine(m, x *sfa.Automaton[S]) {
	increment := 1
	switch st.basis {
	case IncrementSizeOfM:
		increment = m.NumStates()
	case IncrementSizeOfX:
		increment = x.NumStates()
	}
	if st.halveIncrement {
		increment /= 2
	}
	if increment < 1 {
		increment = 1
	}
	st.n += increment
}
