package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/render"
	"github.com/armcheck/armc/internal/sfa"
)

type sym string

func (s sym) String() string { return string(s) }

func TestDOTSFAContainsStatesAndMoves(t *testing.T) {
	sigma := alphabet.New(sym("a"), sym("b"))
	alg := predicate.NewAlgebra(sigma)
	b := sfa.NewBuilder(alg, 2)
	b.SetInitial(0)
	b.SetFinal(1)
	b.SetName("chain")
	b.AddMove(0, 1, predicate.In_(sym("a")))
	m := b.Build()

	dot := render.DOTSFA(m)
	require.True(t, strings.HasPrefix(dot, "digraph"))
	assert.Contains(t, dot, "doublecircle")
	assert.Contains(t, dot, "in{a}")
	assert.Contains(t, dot, "s0 -> s1")
}
