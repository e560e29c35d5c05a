// Package sfa implements symbolic finite automata over a predicate
// algebra (spec §3, §4.3): states are plain integers, moves are
// labelled by predicates, and every constructor eliminates unreachable
// and dead (non-co-reachable) states before returning.
package sfa

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/predicate"
)

// Move is a single labelled transition. Pred == nil means this is an
// ε-move (spec §3: "An ε-move has no predicate (distinct from FALSE)").
type Move[S alphabet.Symbol] struct {
	Source, Target int
	Pred           *predicate.Predicate[S]
}

// IsEpsilon reports whether m carries no predicate at all.
func (m Move[S]) IsEpsilon() bool { return m.Pred == nil }

// Automaton is an immutable-by-convention SFA: every exported operation
// returns a fresh value, never mutates the receiver (spec §3
// "Lifecycle").
type Automaton[S alphabet.Symbol] struct {
	alg        *predicate.Algebra[S]
	numStates  int
	initial    int
	finals     map[int]struct{}
	out        [][]Move[S] // out[s] = moves leaving s
	in         [][]Move[S] // lazily built reverse index; nil until needed
	name       string
	stateNames map[int]string

	// displayBase/displayOrder are set by Normalize and read only by
	// DisplayID/DisplayOrder/DisplayBase (the format printers write
	// local ids): displayOrder[i] is the local state id shown at position
	// i, so its exposed id is displayBase+i. They never affect local
	// indexing used by every other operation in this package.
	displayBase  int
	displayOrder []int
}

// Algebra returns the predicate algebra this automaton's move labels
// are drawn from.
func (m *Automaton[S]) Algebra() *predicate.Algebra[S] { return m.alg }

// NumStates returns the number of states, all dense-indexed in
// [0, NumStates()).
func (m *Automaton[S]) NumStates() int { return m.numStates }

// Initial returns the initial state id.
func (m *Automaton[S]) Initial() int { return m.initial }

// IsFinal reports whether s is a final state.
func (m *Automaton[S]) IsFinal(s int) bool {
	_, ok := m.finals[s]
	return ok
}

// Finals returns the set of final state ids, in ascending order.
func (m *Automaton[S]) Finals() []int {
	out := make([]int, 0, len(m.finals))
	for s := range m.finals {
		out = append(out, s)
	}
	sortInts(out)
	return out
}

// Moves returns the moves leaving s. The caller must not mutate the
// result.
func (m *Automaton[S]) Moves(s int) []Move[S] { return m.out[s] }

// MovesInto returns the moves entering s, building the reverse index on
// first use (spec's SPEC_FULL.md: "built lazily and cached").
func (m *Automaton[S]) MovesInto(s int) []Move[S] {
	m.ensureReverseIndex()
	return m.in[s]
}

func (m *Automaton[S]) ensureReverseIndex() {
	if m.in != nil {
		return
	}
	in := make([][]Move[S], m.numStates)
	for _, moves := range m.out {
		for _, mv := range moves {
			in[mv.Target] = append(in[mv.Target], mv)
		}
	}
	m.in = in
}

// Name returns the automaton's optional name, or "" if unset.
func (m *Automaton[S]) Name() string { return m.name }

// StateName returns the optional name bound to s, and whether one was
// set.
func (m *Automaton[S]) StateName(s int) (string, bool) {
	n, ok := m.stateNames[s]
	return n, ok
}

// WithName returns a copy of m carrying the given name.
func (m *Automaton[S]) WithName(name string) *Automaton[S] {
	cp := m.shallowCopy()
	cp.name = name
	return cp
}

func (m *Automaton[S]) shallowCopy() *Automaton[S] {
	return &Automaton[S]{
		alg: m.alg, numStates: m.numStates, initial: m.initial,
		finals: m.finals, out: m.out, name: m.name, stateNames: m.stateNames,
	}
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// IncompatibleAlphabetsError is raised whenever two operands of a binary
// SFA/SFT operation are defined over different alphabets (spec §4.3,
// §7 SFAError/SFTError).
type IncompatibleAlphabetsError struct {
	Op string
}

func (e *IncompatibleAlphabetsError) Error() string {
	return fmt.Sprintf("sfa: incompatible alphabets in %s", e.Op)
}

func requireSameAlgebra[S alphabet.Symbol](op string, a, b *predicate.Algebra[S]) {
	if !a.Sigma().Equal(b.Sigma()) {
		panic(&IncompatibleAlphabetsError{Op: op})
	}
}

// Builder assembles an Automaton incrementally, then Build() prunes
// unreachable/dead states to restore the §3 invariants.
type Builder[S alphabet.Symbol] struct {
	alg        *predicate.Algebra[S]
	numStates  int
	initial    int
	finals     map[int]struct{}
	out        [][]Move[S]
	name       string
	stateNames map[int]string
}

// NewBuilder starts a builder over alg with n pre-allocated states.
func NewBuilder[S alphabet.Symbol](alg *predicate.Algebra[S], n int) *Builder[S] {
	return &Builder[S]{
		alg: alg, numStates: n, finals: map[int]struct{}{},
		out: make([][]Move[S], n),
	}
}

// AddState allocates one more state and returns its id.
func (b *Builder[S]) AddState() int {
	b.out = append(b.out, nil)
	id := b.numStates
	b.numStates++
	return id
}

// SetInitial designates s as the initial state.
func (b *Builder[S]) SetInitial(s int) { b.initial = s }

// SetFinal marks s as final.
func (b *Builder[S]) SetFinal(s int) { b.finals[s] = struct{}{} }

// SetName sets the automaton's name.
func (b *Builder[S]) SetName(name string) { b.name = name }

// SetStateName binds a display name to s.
func (b *Builder[S]) SetStateName(s int, name string) {
	if b.stateNames == nil {
		b.stateNames = map[int]string{}
	}
	b.stateNames[s] = name
}

// AddMove adds a predicated move.
func (b *Builder[S]) AddMove(from, to int, p predicate.Predicate[S]) {
	b.out[from] = append(b.out[from], Move[S]{Source: from, Target: to, Pred: &p})
}

// AddEpsilon adds an ε-move.
func (b *Builder[S]) AddEpsilon(from, to int) {
	b.out[from] = append(b.out[from], Move[S]{Source: from, Target: to})
}

// Build finalises the automaton, eliminating unreachable and dead
// states (spec §3 invariants).
func (b *Builder[S]) Build() *Automaton[S] {
	return pruneUnreachableAndDead(b.BuildUnpruned())
}

// BuildUnpruned finalises the automaton without eliminating
// unreachable/dead states. Build calls it before pruning; MakeTotal and
// lengthChain use it directly. MakeTotal's whole purpose is to make the
// transition function syntactically total, and a trap sink state is by
// construction non-co-reachable, so the normal pruning pass would
// immediately undo the totalisation.
func (b *Builder[S]) BuildUnpruned() *Automaton[S] {
	return &Automaton[S]{
		alg: b.alg, numStates: b.numStates, initial: b.initial,
		finals: b.finals, out: b.out, name: b.name, stateNames: b.stateNames,
	}
}

// reachableFrom performs a bitset-visited BFS over out-moves starting
// at roots, following ε and predicated moves alike (topology only).
func reachableFrom[S alphabet.Symbol](m *Automaton[S], roots []int) *bitset.BitSet {
	seen := bitset.New(uint(m.numStates))
	work := append([]int{}, roots...)
	for _, r := range roots {
		seen.Set(uint(r))
	}
	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]
		for _, mv := range m.out[s] {
			if !seen.Test(uint(mv.Target)) {
				seen.Set(uint(mv.Target))
				work = append(work, mv.Target)
			}
		}
	}
	return seen
}

// coReachable performs the dual traversal over the reverse index,
// starting from the final states.
func coReachable[S alphabet.Symbol](m *Automaton[S]) *bitset.BitSet {
	m.ensureReverseIndex()
	seen := bitset.New(uint(m.numStates))
	work := make([]int, 0, len(m.finals))
	for s := range m.finals {
		seen.Set(uint(s))
		work = append(work, s)
	}
	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]
		for _, mv := range m.in[s] {
			if !seen.Test(uint(mv.Source)) {
				seen.Set(uint(mv.Source))
				work = append(work, mv.Source)
			}
		}
	}
	return seen
}

// pruneUnreachableAndDead drops every state not both reachable from the
// initial state and co-reachable to some final state, renumbering the
// survivors densely from 0.
func pruneUnreachableAndDead[S alphabet.Symbol](m *Automaton[S]) *Automaton[S] {
	if m.numStates == 0 {
		return m
	}
	reach := reachableFrom(m, []int{m.initial})
	live := coReachable(m)
	keep := bitset.New(uint(m.numStates))
	for i := uint(0); i < uint(m.numStates); i++ {
		if reach.Test(i) && live.Test(i) {
			keep.Set(i)
		}
	}
	// The initial state is always kept even if it has no path to a
	// final state, so that an automaton with an empty language still
	// has a well-defined initial state to operate on.
	keep.Set(uint(m.initial))

	remap := make(map[int]int, keep.Count())
	newID := 0
	for i := uint(0); i < uint(m.numStates); i++ {
		if keep.Test(i) {
			remap[int(i)] = newID
			newID++
		}
	}

	out := make([][]Move[S], newID)
	for oldSrc, moves := range m.out {
		newSrc, ok := remap[oldSrc]
		if !ok {
			continue
		}
		for _, mv := range moves {
			newTgt, ok := remap[mv.Target]
			if !ok {
				continue
			}
			out[newSrc] = append(out[newSrc], Move[S]{Source: newSrc, Target: newTgt, Pred: mv.Pred})
		}
	}
	finals := make(map[int]struct{}, len(m.finals))
	for s := range m.finals {
		if ns, ok := remap[s]; ok {
			finals[ns] = struct{}{}
		}
	}
	var stateNames map[int]string
	if m.stateNames != nil {
		stateNames = make(map[int]string, len(m.stateNames))
		for s, n := range m.stateNames {
			if ns, ok := remap[s]; ok {
				stateNames[ns] = n
			}
		}
	}
	return &Automaton[S]{
		alg: m.alg, numStates: newID, initial: remap[m.initial],
		finals: finals, out: out, name: m.name, stateNames: stateNames,
	}
}
