package sfa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/sfa"
)

type sym string

func (s sym) String() string { return string(s) }

func testAlgebra() *predicate.Algebra[sym] {
	sigma := alphabet.New(sym("a"), sym("b"), sym("c"))
	return predicate.NewAlgebra(sigma)
}

// epsClosure and simulate give the tests an independent, minimal NFA
// run so that language assertions don't depend on any one operation
// under test being correct.
func epsClosure(m *sfa.Automaton[sym], states map[int]bool) map[int]bool {
	seen := map[int]bool{}
	work := make([]int, 0, len(states))
	for s := range states {
		seen[s] = true
		work = append(work, s)
	}
	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]
		for _, mv := range m.Moves(s) {
			if mv.IsEpsilon() && !seen[mv.Target] {
				seen[mv.Target] = true
				work = append(work, mv.Target)
			}
		}
	}
	return seen
}

func simulate(m *sfa.Automaton[sym], word []sym) bool {
	alg := m.Algebra()
	cur := epsClosure(m, map[int]bool{m.Initial(): true})
	for _, sy := range word {
		next := map[int]bool{}
		for s := range cur {
			for _, mv := range m.Moves(s) {
				if mv.IsEpsilon() {
					continue
				}
				if alg.Implies(predicate.In_(sy), *mv.Pred) {
					next[mv.Target] = true
				}
			}
		}
		cur = epsClosure(m, next)
	}
	for s := range cur {
		if m.IsFinal(s) {
			return true
		}
	}
	return false
}

func w(syms ...string) []sym {
	out := make([]sym, len(syms))
	for i, s := range syms {
		out[i] = sym(s)
	}
	return out
}

// exactlyA accepts the single word "a".
func exactlyA(alg *predicate.Algebra[sym]) *sfa.Automaton[sym] {
	b := sfa.NewBuilder(alg, 2)
	b.SetInitial(0)
	b.SetFinal(1)
	b.AddMove(0, 1, predicate.In_(sym("a")))
	return b.Build()
}

// exactlyB accepts the single word "b".
func exactlyB(alg *predicate.Algebra[sym]) *sfa.Automaton[sym] {
	b := sfa.NewBuilder(alg, 2)
	b.SetInitial(0)
	b.SetFinal(1)
	b.AddMove(0, 1, predicate.In_(sym("b")))
	return b.Build()
}

// containing builds an automaton accepting any word over {a,b,c}
// containing at least one occurrence of sy.
func containing(alg *predicate.Algebra[sym], sy sym) *sfa.Automaton[sym] {
	b := sfa.NewBuilder(alg, 2)
	b.SetInitial(0)
	b.SetFinal(1)
	b.AddMove(0, 0, predicate.NotIn_(sy))
	b.AddMove(0, 1, predicate.In_(sy))
	b.AddMove(1, 1, alg.True())
	return b.Build()
}

func TestBuildPrunesUnreachableAndDead(t *testing.T) {
	alg := testAlgebra()
	b := sfa.NewBuilder(alg, 4)
	b.SetInitial(0)
	b.SetFinal(1)
	b.AddMove(0, 1, predicate.In_(sym("a"))) // reachable, co-reachable
	b.AddMove(0, 3, predicate.In_(sym("b"))) // reachable, never reaches a final: dead
	b.AddMove(3, 3, alg.True())
	// state 2 is never referenced by any move: unreachable.
	m := b.Build()

	assert.Equal(t, 2, m.NumStates())
	assert.Equal(t, []int{1}, m.Finals())
	assert.True(t, simulate(m, w("a")))
	assert.False(t, simulate(m, w("b")))
}

func TestSumIsUnion(t *testing.T) {
	alg := testAlgebra()
	m := sfa.Sum(exactlyA(alg), exactlyB(alg))

	assert.True(t, simulate(m, w("a")))
	assert.True(t, simulate(m, w("b")))
	assert.False(t, simulate(m, w("c")))
	assert.False(t, simulate(m, w("a", "b")))
}

func TestProductIsIntersection(t *testing.T) {
	alg := testAlgebra()
	hasA := containing(alg, sym("a"))
	hasB := containing(alg, sym("b"))
	m := sfa.Product(hasA, hasB)

	assert.True(t, simulate(m, w("a", "b")))
	assert.True(t, simulate(m, w("b", "c", "a")))
	assert.False(t, simulate(m, w("a", "c")))
	assert.False(t, simulate(m, w("c")))
}

func TestProductIsEmptyMatchesIsEmptyOfProduct(t *testing.T) {
	alg := testAlgebra()
	hasA := containing(alg, sym("a"))
	hasB := containing(alg, sym("b"))

	assert.False(t, sfa.ProductIsEmpty(hasA, hasB))
	assert.False(t, sfa.IsEmpty(sfa.Product(hasA, hasB)))

	onlyA := exactlyA(alg)
	onlyB := exactlyB(alg)
	assert.True(t, sfa.ProductIsEmpty(onlyA, onlyB))
	assert.True(t, sfa.IsEmpty(sfa.Product(onlyA, onlyB)))
}

func TestComplement(t *testing.T) {
	alg := testAlgebra()
	m := sfa.Complement(exactlyA(alg))

	assert.False(t, simulate(m, w("a")))
	assert.True(t, simulate(m, w("b")))
	assert.True(t, simulate(m, w()))
	assert.True(t, simulate(m, w("a", "a")))
}

func TestDifferenceAndSubsetAndEquivalent(t *testing.T) {
	alg := testAlgebra()
	hasA := containing(alg, sym("a"))
	onlyA := exactlyA(alg)

	assert.True(t, sfa.IsSubsetOf(onlyA, hasA))
	assert.False(t, sfa.IsSubsetOf(hasA, onlyA))
	assert.True(t, sfa.Equivalent(onlyA, onlyA))
	assert.False(t, sfa.Equivalent(onlyA, hasA))

	diff := sfa.Difference(hasA, onlyA)
	assert.True(t, simulate(diff, w("a", "a")))
	assert.True(t, simulate(diff, w("a", "a", "b")))
	assert.False(t, simulate(diff, w("a")))
}

// ambiguous has two states whose outgoing predicates overlap, forcing
// Determinize to actually enumerate minterms rather than copy moves
// one-for-one.
func ambiguous(alg *predicate.Algebra[sym]) *sfa.Automaton[sym] {
	b := sfa.NewBuilder(alg, 3)
	b.SetInitial(0)
	b.SetFinal(1)
	b.SetFinal(2)
	b.AddMove(0, 1, predicate.In_(sym("a"), sym("b")))
	b.AddMove(0, 2, predicate.In_(sym("b"), sym("c")))
	return b.Build()
}

func TestDeterminizePreservesLanguage(t *testing.T) {
	alg := testAlgebra()
	m := ambiguous(alg)
	det := sfa.Determinize(m)

	for _, word := range [][]sym{w("a"), w("b"), w("c"), w(), w("a", "b")} {
		assert.Equalf(t, simulate(m, word), simulate(det, word), "word=%v", word)
	}
	// Determinize must leave exactly one move per state per symbol class.
	for s := 0; s < det.NumStates(); s++ {
		seen := map[sym]bool{}
		for _, mv := range det.Moves(s) {
			for _, sy := range []sym{"a", "b", "c"} {
				if det.Algebra().Implies(predicate.In_(sy), *mv.Pred) {
					require.Falsef(t, seen[sy], "state %d has two moves matching %q", s, sy)
					seen[sy] = true
				}
			}
		}
	}
}

func TestMakeTotalIsTotal(t *testing.T) {
	alg := testAlgebra()
	total := sfa.MakeTotal(sfa.Determinize(ambiguous(alg)))
	for s := 0; s < total.NumStates(); s++ {
		for _, sy := range []sym{"a", "b", "c"} {
			matched := false
			for _, mv := range total.Moves(s) {
				if alg.Implies(predicate.In_(sy), *mv.Pred) {
					matched = true
					break
				}
			}
			assert.Truef(t, matched, "state %d missing a move on %q", s, sy)
		}
	}
}

func TestMinimizePreservesLanguageAndReducesStates(t *testing.T) {
	alg := testAlgebra()
	// Two states that are behaviourally identical (both final, both
	// dead ends) should collapse into one.
	b := sfa.NewBuilder(alg, 3)
	b.SetInitial(0)
	b.SetFinal(1)
	b.SetFinal(2)
	b.AddMove(0, 1, predicate.In_(sym("a")))
	b.AddMove(0, 2, predicate.In_(sym("b")))
	m := b.Build()

	min := sfa.Minimize(m)
	assert.Less(t, min.NumStates(), m.NumStates())
	for _, word := range [][]sym{w("a"), w("b"), w("c"), w()} {
		assert.Equalf(t, simulate(m, word), simulate(min, word), "word=%v", word)
	}
}

func TestRemoveEpsilonsPreservesLanguage(t *testing.T) {
	alg := testAlgebra()
	b := sfa.NewBuilder(alg, 3)
	b.SetInitial(0)
	b.SetFinal(2)
	b.AddEpsilon(0, 1)
	b.AddMove(1, 2, predicate.In_(sym("a")))
	m := b.Build()

	noEps := sfa.RemoveEpsilons(m)
	assert.True(t, simulate(noEps, w("a")))
	assert.False(t, simulate(noEps, w("b")))
	for s := 0; s < noEps.NumStates(); s++ {
		for _, mv := range noEps.Moves(s) {
			assert.False(t, mv.IsEpsilon())
		}
	}
}

func TestReverse(t *testing.T) {
	alg := testAlgebra()
	b := sfa.NewBuilder(alg, 3)
	b.SetInitial(0)
	b.SetFinal(2)
	b.AddMove(0, 1, predicate.In_(sym("a")))
	b.AddMove(1, 2, predicate.In_(sym("b")))
	m := b.Build()

	rev := sfa.Reverse(m)
	assert.True(t, simulate(rev, w("b", "a")))
	assert.False(t, simulate(rev, w("a", "b")))
}

func TestPrefixLanguage(t *testing.T) {
	alg := testAlgebra()
	b := sfa.NewBuilder(alg, 3)
	b.SetInitial(0)
	b.SetFinal(2)
	b.AddMove(0, 1, predicate.In_(sym("a")))
	b.AddMove(1, 2, predicate.In_(sym("b")))
	m := b.Build()

	pre := sfa.PrefixLanguage(m)
	assert.True(t, simulate(pre, w()))
	assert.True(t, simulate(pre, w("a")))
	assert.True(t, simulate(pre, w("a", "b")))
	assert.False(t, simulate(pre, w("b")))
}

func TestSuffixLanguage(t *testing.T) {
	alg := testAlgebra()
	b := sfa.NewBuilder(alg, 3)
	b.SetInitial(0)
	b.SetFinal(2)
	b.AddMove(0, 1, predicate.In_(sym("a")))
	b.AddMove(1, 2, predicate.In_(sym("b")))
	m := b.Build()

	suf := sfa.SuffixLanguage(m)
	assert.True(t, simulate(suf, w("a", "b")))
	assert.True(t, simulate(suf, w("b")))
	assert.False(t, simulate(suf, w("a")))
}

func TestBoundedLanguage(t *testing.T) {
	alg := testAlgebra()
	hasA := containing(alg, sym("a"))
	bounded := sfa.BoundedLanguage(hasA, 1)

	assert.True(t, simulate(bounded, w("a")))
	assert.False(t, simulate(bounded, w("c", "a")), "length 2 exceeds the bound of 1")
	assert.False(t, simulate(bounded, w("c")))
}

func TestForwardAndBackwardStateLanguage(t *testing.T) {
	alg := testAlgebra()
	b := sfa.NewBuilder(alg, 3)
	b.SetInitial(0)
	b.SetFinal(2)
	b.AddMove(0, 1, predicate.In_(sym("a")))
	b.AddMove(1, 2, predicate.In_(sym("b")))
	m := b.Build()

	fwd := sfa.ForwardStateLanguage(m, 1)
	assert.True(t, simulate(fwd, w("b")))
	assert.False(t, simulate(fwd, w("a", "b")))

	bwd := sfa.BackwardStateLanguage(m, 1)
	assert.True(t, simulate(bwd, w("a")))
	assert.False(t, simulate(bwd, w("a", "b")))
}

func TestCollapseIsSound(t *testing.T) {
	alg := testAlgebra()
	m := ambiguous(alg)

	// Merge every state into one class: this is the coarsest possible
	// over-approximation and must still satisfy L(m) ⊆ L(collapsed).
	mergeAll := func(*sfa.Automaton[sym], int, int) bool { return true }
	collapsed := sfa.Collapse(m, mergeAll)

	assert.True(t, sfa.IsSubsetOf(m, collapsed))
	assert.Equal(t, 1, collapsed.NumStates())
}

func TestCollapseIdentityEquivalenceIsLosslessUpToLanguage(t *testing.T) {
	alg := testAlgebra()
	m := ambiguous(alg)

	identity := func(_ *sfa.Automaton[sym], s, rep int) bool { return s == rep }
	collapsed := sfa.Collapse(m, identity)

	assert.True(t, sfa.Equivalent(m, collapsed))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	alg := testAlgebra()
	m := ambiguous(alg)

	once := sfa.Normalize(m, 5)
	twice := sfa.Normalize(once, 5)

	require.Equal(t, once.DisplayOrder(), twice.DisplayOrder())
	assert.Equal(t, once.DisplayBase(), twice.DisplayBase())
	for s := 0; s < once.NumStates(); s++ {
		assert.Equal(t, once.DisplayID(s), twice.DisplayID(s))
	}
	assert.Equal(t, 5, once.DisplayID(once.Initial()))
}
