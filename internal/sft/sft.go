// Package sft implements symbolic finite transducers over a label
// algebra (spec §3, §4.4): states are plain integers, moves are
// labelled by labels, and the implicit-state/lazy-worklist style of
// internal/sfa carries over directly.
package sft

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/label"
)

// Move is a single labelled transducer transition. Lab == nil means a
// structural ε-move (spec §3: "no predicate at all", the SFT analogue
// of an SFA ε-move — distinct from a label whose input or output side
// is individually ε, see package label's doc comment).
type Move[S alphabet.Symbol] struct {
	Source, Target int
	Lab            *label.Label[S]
}

// IsEpsilon reports whether m carries no label at all.
func (m Move[S]) IsEpsilon() bool { return m.Lab == nil }

// Transducer is an immutable-by-convention SFT.
type Transducer[S alphabet.Symbol] struct {
	alg        *label.Algebra[S]
	numStates  int
	initial    int
	finals     map[int]struct{}
	out        [][]Move[S]
	in         [][]Move[S]
	name       string
	stateNames map[int]string
}

func (t *Transducer[S]) Algebra() *label.Algebra[S] { return t.alg }
func (t *Transducer[S]) NumStates() int             { return t.numStates }
func (t *Transducer[S]) Initial() int               { return t.initial }

func (t *Transducer[S]) IsFinal(s int) bool {
	_, ok := t.finals[s]
	return ok
}

func (t *Transducer[S]) Finals() []int {
	out := make([]int, 0, len(t.finals))
	for s := range t.finals {
		out = append(out, s)
	}
	sortInts(out)
	return out
}

func (t *Transducer[S]) Moves(s int) []Move[S] { return t.out[s] }

func (t *Transducer[S]) MovesInto(s int) []Move[S] {
	t.ensureReverseIndex()
	return t.in[s]
}

func (t *Transducer[S]) ensureReverseIndex() {
	if t.in != nil {
		return
	}
	in := make([][]Move[S], t.numStates)
	for _, moves := range t.out {
		for _, mv := range moves {
			in[mv.Target] = append(in[mv.Target], mv)
		}
	}
	t.in = in
}

func (t *Transducer[S]) Name() string { return t.name }

func (t *Transducer[S]) StateName(s int) (string, bool) {
	n, ok := t.stateNames[s]
	return n, ok
}

func (t *Transducer[S]) WithName(name string) *Transducer[S] {
	cp := t.shallowCopy()
	cp.name = name
	return cp
}

func (t *Transducer[S]) shallowCopy() *Transducer[S] {
	return &Transducer[S]{
		alg: t.alg, numStates: t.numStates, initial: t.initial,
		finals: t.finals, out: t.out, name: t.name, stateNames: t.stateNames,
	}
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// IncompatibleAlphabetsError mirrors sfa.IncompatibleAlphabetsError for
// SFT binary operations (spec §7 SFTError).
type IncompatibleAlphabetsError struct{ Op string }

func (e *IncompatibleAlphabetsError) Error() string {
	return fmt.Sprintf("sft: incompatible alphabets in %s", e.Op)
}

func requireSameAlgebra[S alphabet.Symbol](op string, a, b *label.Algebra[S]) {
	// Compares the *label.Algebra pointers only, not their Σ: two
	// algebras built separately over the same Σ are reported as
	// incompatible, so callers construct both operands over algebras
	// drawn from the same alphabet.Registry.
	if a != b {
		panic(&IncompatibleAlphabetsError{Op: op})
	}
}

// Builder assembles a Transducer incrementally.
type Builder[S alphabet.Symbol] struct {
	alg        *label.Algebra[S]
	numStates  int
	initial    int
	finals     map[int]struct{}
	out        [][]Move[S]
	name       string
	stateNames map[int]string
}

func NewBuilder[S alphabet.Symbol](alg *label.Algebra[S], n int) *Builder[S] {
	return &Builder[S]{alg: alg, numStates: n, finals: map[int]struct{}{}, out: make([][]Move[S], n)}
}

func (b *Builder[S]) AddState() int {
	b.out = append(b.out, nil)
	id := b.numStates
	b.numStates++
	return id
}

func (b *Builder[S]) SetInitial(s int) { b.initial = s }
func (b *Builder[S]) SetFinal(s int)   { b.finals[s] = struct{}{} }
func (b *Builder[S]) SetName(name string) { b.name = name }

func (b *Builder[S]) SetStateName(s int, name string) {
	if b.stateNames == nil {
		b.stateNames = map[int]string{}
	}
	b.stateNames[s] = name
}

func (b *Builder[S]) AddMove(from, to int, l label.Label[S]) {
	b.out[from] = append(b.out[from], Move[S]{Source: from, Target: to, Lab: &l})
}

func (b *Builder[S]) AddEpsilon(from, to int) {
	b.out[from] = append(b.out[from], Move[S]{Source: from, Target: to})
}

// Build finalises the transducer, eliminating unreachable and dead
// states (spec §3 invariants, same as sfa.Builder.Build).
func (b *Builder[S]) Build() *Transducer[S] {
	return pruneUnreachableAndDead(b.BuildUnpruned())
}

func (b *Builder[S]) BuildUnpruned() *Transducer[S] {
	return &Transducer[S]{
		alg: b.alg, numStates: b.numStates, initial: b.initial,
		finals: b.finals, out: b.out, name: b.name, stateNames: b.stateNames,
	}
}

func reachableFrom[S alphabet.Symbol](t *Transducer[S], roots []int) *bitset.BitSet {
	seen := bitset.New(uint(t.numStates))
	work := append([]int{}, roots...)
	for _, r := range roots {
		seen.Set(uint(r))
	}
	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]
		for _, mv := range t.out[s] {
			if !seen.Test(uint(mv.Target)) {
				seen.Set(uint(mv.Target))
				work = append(work, mv.Target)
			}
		}
	}
	return seen
}

func coReachable[S alphabet.Symbol](t *Transducer[S]) *bitset.BitSet {
	t.ensureReverseIndex()
	seen := bitset.New(uint(t.numStates))
	work := make([]int, 0, len(t.finals))
	for s := range t.finals {
		seen.Set(uint(s))
		work = append(work, s)
	}
	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]
		for _, mv := range t.in[s] {
			if !seen.Test(uint(mv.Source)) {
				seen.Set(uint(mv.Source))
				work = append(work, mv.Source)
			}
		}
	}
	return seen
}

func pruneUnreachableAndDead[S alphabet.Symbol](t *Transducer[S]) *Transducer[S] {
	if t.numStates == 0 {
		return t
	}
	reach := reachableFrom(t, []int{t.initial})
	live := coReachable(t)
	keep := bitset.New(uint(t.numStates))
	for i := uint(0); i < uint(t.numStates); i++ {
		if reach.Test(i) && live.Test(i) {
			keep.Set(i)
		}
	}
	keep.Set(uint(t.initial))

	remap := make(map[int]int, keep.Count())
	newID := 0
	for i := uint(0); i < uint(t.numStates); i++ {
		if keep.Test(i) {
			remap[int(i)] = newID
			newID++
		}
	}

	out := make([][]Move[S], newID)
	for oldSrc, moves := range t.out {
		newSrc, ok := remap[oldSrc]
		if !ok {
			continue
		}
		for _, mv := range moves {
			newTgt, ok := remap[mv.Target]
			if !ok {
				continue
			}
			out[newSrc] = append(out[newSrc], Move[S]{Source: newSrc, Target: newTgt, Lab: mv.Lab})
		}
	}
	finals := make(map[int]struct{}, len(t.finals))
	for s := range t.finals {
		if ns, ok := remap[s]; ok {
			finals[ns] = struct{}{}
		}
	}
	var stateNames map[int]string
	if t.stateNames != nil {
		stateNames = make(map[int]string, len(t.stateNames))
		for s, n := range t.stateNames {
			if ns, ok := remap[s]; ok {
				stateNames[ns] = n
			}
		}
	}
	return &Transducer[S]{
		alg: t.alg, numStates: newID, initial: remap[t.initial],
		finals: finals, out: out, name: t.name, stateNames: stateNames,
	}
}
