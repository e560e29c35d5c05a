package sfa

import "github.com/armcheck/armc/internal/alphabet"

// Normalize computes the canonical display order of spec §4.3: the
// initial state is shown at offset, the (other) final states occupy
// the next contiguous block, and the remaining states follow. It does
// not touch the automaton's local state indexing — every other
// operation in this package keeps working on m unchanged — it only
// attaches presentation metadata read by DisplayID, DisplayOrder and
// DisplayBase, which is what spec §4.3's "canonical form used for
// disjointness across several automata" actually needs: a
// deterministic external id scheme, not a second copy of the automaton.
// The printers of internal/format do not read this metadata; they
// write local state ids.
//
// Because the order is recomputed purely from m's local structure
// (initial state, final set, state count) and Normalize never mutates
// that structure, calling Normalize twice with the same offset yields
// the same display order both times — the idempotence required by
// spec §8.
func Normalize[S alphabet.Symbol](m *Automaton[S], offset int) *Automaton[S] {
	order := make([]int, 0, m.numStates)
	placed := make([]bool, m.numStates)

	order = append(order, m.initial)
	placed[m.initial] = true

	for _, f := range m.Finals() {
		if !placed[f] {
			order = append(order, f)
			placed[f] = true
		}
	}
	for s := 0; s < m.numStates; s++ {
		if !placed[s] {
			order = append(order, s)
			placed[s] = true
		}
	}

	cp := m.shallowCopy()
	cp.displayBase = offset
	cp.displayOrder = order
	return cp
}

// DisplayID returns the exposed id for local state s after Normalize,
// or s itself if the automaton was never normalized.
func (m *Automaton[S]) DisplayID(s int) int {
	if m.displayOrder == nil {
		return s
	}
	for i, ls := range m.displayOrder {
		if ls == s {
			return m.displayBase + i
		}
	}
	return s
}

// DisplayOrder returns the local ids in display order (position i is
// shown as DisplayBase()+i), or nil if the automaton was never
// normalized.
func (m *Automaton[S]) DisplayOrder() []int { return m.displayOrder }

// DisplayBase returns the offset passed to Normalize, or 0 if the
// automaton was never normalized.
func (m *Automaton[S]) DisplayBase() int { return m.displayBase }
