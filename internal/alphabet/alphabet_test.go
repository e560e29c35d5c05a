package alphabet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armcheck/armc/internal/alphabet"
)

type sym string

func (s sym) String() string { return string(s) }

func TestSigmaEqualIgnoresOrderAndDuplicates(t *testing.T) {
	a := alphabet.New(sym("a"), sym("b"), sym("a"))
	b := alphabet.New(sym("b"), sym("a"))
	assert.True(t, a.Equal(b))
	assert.Equal(t, 2, a.Len())
}

func TestRegistryGetOrCreateReturnsCanonicalValue(t *testing.T) {
	reg := alphabet.NewRegistry[sym, *int]()
	calls := 0
	create := func(alphabet.Sigma[sym]) *int {
		calls++
		v := calls
		return &v
	}

	sigmaAB := alphabet.New(sym("a"), sym("b"))
	first := reg.GetOrCreate(sigmaAB, create)
	second := reg.GetOrCreate(sigmaAB, create)

	require.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

// TestRegistryIsAdditive backs Len's doc comment: distinct alphabets
// each get their own entry, and re-requesting an already-seen alphabet
// never grows the table.
func TestRegistryIsAdditive(t *testing.T) {
	reg := alphabet.NewRegistry[sym, *int]()
	create := func(alphabet.Sigma[sym]) *int { v := 0; return &v }

	sigmaAB := alphabet.New(sym("a"), sym("b"))
	sigmaXY := alphabet.New(sym("x"), sym("y"))

	reg.GetOrCreate(sigmaAB, create)
	assert.Equal(t, 1, reg.Len())

	reg.GetOrCreate(sigmaAB, create)
	assert.Equal(t, 1, reg.Len())

	reg.GetOrCreate(sigmaXY, create)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryDistinguishesAlphabetsBySymbolSet(t *testing.T) {
	reg := alphabet.NewRegistry[sym, *int]()
	calls := 0
	create := func(alphabet.Sigma[sym]) *int {
		calls++
		v := calls
		return &v
	}

	sigmaAB := alphabet.New(sym("a"), sym("b"))
	sigmaABC := alphabet.New(sym("a"), sym("b"), sym("c"))

	first := reg.GetOrCreate(sigmaAB, create)
	second := reg.GetOrCreate(sigmaABC, create)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, calls)
}
