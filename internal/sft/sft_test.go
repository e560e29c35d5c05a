package sft_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/label"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/sfa"
	"github.com/armcheck/armc/internal/sft"
)

type sym string

func (s sym) String() string { return string(s) }

func algebras() (*predicate.Algebra[sym], *label.Algebra[sym]) {
	sigma := alphabet.New(sym("a"), sym("b"), sym("c"))
	predAlg := predicate.NewAlgebra(sigma)
	return predAlg, label.NewAlgebra(predAlg)
}

func w(syms ...string) []sym {
	out := make([]sym, len(syms))
	for i, s := range syms {
		out[i] = sym(s)
	}
	return out
}

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

func anyStar(predAlg *predicate.Algebra[sym]) *sfa.Automaton[sym] {
	b := sfa.NewBuilder(predAlg, 1)
	b.SetInitial(0)
	b.SetFinal(0)
	b.AddMove(0, 0, predAlg.True())
	return b.Build()
}

func exactly(predAlg *predicate.Algebra[sym], sy sym) *sfa.Automaton[sym] {
	b := sfa.NewBuilder(predAlg, 2)
	b.SetInitial(0)
	b.SetFinal(1)
	b.AddMove(0, 1, predicate.In_(sy))
	return b.Build()
}

// filterA passes through only "a" symbols, unchanged.
func filterA(labAlg *label.Algebra[sym]) *sft.Transducer[sym] {
	b := sft.NewBuilder(labAlg, 1)
	b.SetInitial(0)
	b.SetFinal(0)
	b.AddMove(0, 0, label.Identity(predicate.In_(sym("a"))))
	return b.Build()
}

// rename maps a single occurrence of from to to.
func rename(labAlg *label.Algebra[sym], from, to sym) *sft.Transducer[sym] {
	b := sft.NewBuilder(labAlg, 2)
	b.SetInitial(0)
	b.SetFinal(1)
	b.AddMove(0, 1, label.Pair(predicate.In_(from), predicate.In_(to)))
	return b.Build()
}

func TestApplyIdentityFilter(t *testing.T) {
	predAlg, labAlg := algebras()
	tau := filterA(labAlg)
	out := sft.Apply(tau, anyStar(predAlg))

	assert.True(t, simulate(out, w("a")))
	assert.True(t, simulate(out, w("a", "a")))
	assert.False(t, simulate(out, w("b")))
	assert.False(t, simulate(out, w("a", "b")))
}

func TestApplyRename(t *testing.T) {
	predAlg, labAlg := algebras()
	tau := rename(labAlg, sym("a"), sym("b"))
	out := sft.Apply(tau, exactly(predAlg, sym("a")))

	assert.True(t, simulate(out, w("b")))
	assert.False(t, simulate(out, w("a")))
}

func TestInvertRoundTrips(t *testing.T) {
	predAlg, labAlg := algebras()
	tau := rename(labAlg, sym("a"), sym("b"))
	inv := sft.Invert(tau)

	out := sft.Apply(inv, exactly(predAlg, sym("b")))
	assert.True(t, simulate(out, w("a")))
	assert.False(t, simulate(out, w("b")))

	roundTrip := sft.Invert(inv)
	out2 := sft.Apply(roundTrip, exactly(predAlg, sym("a")))
	assert.True(t, simulate(out2, w("b")))
}

func TestComposeChainsRenames(t *testing.T) {
	predAlg, labAlg := algebras()
	aToB := rename(labAlg, sym("a"), sym("b"))
	bToC := rename(labAlg, sym("b"), sym("c"))
	composed := sft.Compose(aToB, bToC)

	out := sft.Apply(composed, exactly(predAlg, sym("a")))
	assert.True(t, simulate(out, w("c")))
	assert.False(t, simulate(out, w("b")))
}

func TestUnionOfRenames(t *testing.T) {
	predAlg, labAlg := algebras()
	aToB := rename(labAlg, sym("a"), sym("b"))
	bToA := rename(labAlg, sym("b"), sym("a"))
	u := sft.Union(aToB, bToA)

	outA := sft.Apply(u, exactly(predAlg, sym("a")))
	assert.True(t, simulate(outA, w("b")))
	outB := sft.Apply(u, exactly(predAlg, sym("b")))
	assert.True(t, simulate(outB, w("a")))
}

func TestDomainAndRange(t *testing.T) {
	_, labAlg := algebras()
	tau := rename(labAlg, sym("a"), sym("b"))

	dom := sft.Domain(tau)
	assert.True(t, simulate(dom, w("a")))
	assert.False(t, simulate(dom, w("b")))

	rng := sft.Range(tau)
	assert.True(t, simulate(rng, w("b")))
	assert.False(t, simulate(rng, w("a")))
}
