package format_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/format"
	"github.com/armcheck/armc/internal/label"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/sfa"
	"github.com/armcheck/armc/internal/sft"
)

func algebras() (*predicate.Algebra[format.Symbol], *label.Algebra[format.Symbol]) {
	sigma := alphabet.New(format.Symbol("a"), format.Symbol("b"))
	predAlg := predicate.NewAlgebra(sigma)
	return predAlg, label.NewAlgebra(predAlg)
}

func exactlyAB(alg *predicate.Algebra[format.Symbol]) *sfa.Automaton[format.Symbol] {
	b := sfa.NewBuilder(alg, 3)
	b.SetInitial(0)
	b.SetFinal(2)
	b.SetName("exactlyAB")
	b.SetStateName(0, "start")
	b.AddMove(0, 1, predicate.In_(format.Symbol("a")))
	b.AddMove(1, 2, predicate.In_(format.Symbol("b")))
	return b.Build()
}

func renameAB(labAlg *label.Algebra[format.Symbol]) *sft.Transducer[format.Symbol] {
	b := sft.NewBuilder(labAlg, 2)
	b.SetInitial(0)
	b.SetFinal(1)
	b.SetName("renameAB")
	b.AddMove(0, 1, label.Pair(predicate.In_(format.Symbol("a")), predicate.In_(format.Symbol("b"))))
	return b.Build()
}

func TestTimbukSFARoundTrips(t *testing.T) {
	predAlg, _ := algebras()
	m := exactlyAB(predAlg)

	var buf bytes.Buffer
	require.NoError(t, format.PrintTimbukSFA(&buf, m))

	back, err := format.ParseTimbukSFA(&buf, predAlg)
	require.NoError(t, err)

	assert.True(t, sfa.Equivalent(m, back))
	assert.Equal(t, m.NumStates(), back.NumStates())
	name, ok := back.StateName(0)
	assert.True(t, ok)
	assert.Equal(t, "start", name)
}

func TestTimbukSFTRoundTrips(t *testing.T) {
	_, labAlg := algebras()
	tr := renameAB(labAlg)

	var buf bytes.Buffer
	require.NoError(t, format.PrintTimbukSFT(&buf, tr))

	back, err := format.ParseTimbukSFT(&buf, labAlg)
	require.NoError(t, err)

	assert.Equal(t, tr.NumStates(), back.NumStates())
	mv := back.Moves(0)
	require.Len(t, mv, 1)
	assert.False(t, mv[0].Lab.IsIdentity())
	assert.Equal(t, predicate.In_(format.Symbol("a")), mv[0].Lab.In())
	assert.Equal(t, predicate.In_(format.Symbol("b")), mv[0].Lab.Out())
}

func TestTimbukSFTIdentityRoundTrips(t *testing.T) {
	_, labAlg := algebras()
	b := sft.NewBuilder(labAlg, 2)
	b.SetInitial(0)
	b.SetFinal(1)
	b.AddMove(0, 1, label.Identity(predicate.In_(format.Symbol("a"))))
	tr := b.Build()

	var buf bytes.Buffer
	require.NoError(t, format.PrintTimbukSFT(&buf, tr))
	back, err := format.ParseTimbukSFT(&buf, labAlg)
	require.NoError(t, err)
	assert.True(t, back.Moves(0)[0].Lab.IsIdentity())
}

func TestFSASFARoundTrips(t *testing.T) {
	predAlg, _ := algebras()
	m := exactlyAB(predAlg)

	var buf bytes.Buffer
	require.NoError(t, format.PrintFSASFA(&buf, m))

	back, err := format.ParseFSASFA(&buf, predAlg)
	require.NoError(t, err)
	assert.True(t, sfa.Equivalent(m, back))
}

func TestFSASFTRoundTrips(t *testing.T) {
	_, labAlg := algebras()
	tr := renameAB(labAlg)

	var buf bytes.Buffer
	require.NoError(t, format.PrintFSASFT(&buf, tr))

	back, err := format.ParseFSASFT(&buf, labAlg)
	require.NoError(t, err)
	require.Len(t, back.Moves(0), 1)
	assert.False(t, back.Moves(0)[0].Lab.IsIdentity())
}

func TestFSMSFARoundTrips(t *testing.T) {
	predAlg, _ := algebras()
	m := exactlyAB(predAlg)

	var buf bytes.Buffer
	require.NoError(t, format.PrintFSMSFA(&buf, m, nil))

	back, err := format.ParseFSMSFA(&buf, predAlg, nil)
	require.NoError(t, err)
	assert.True(t, sfa.Equivalent(m, back))
}

func TestFSMSymbolTableRoundTrips(t *testing.T) {
	predAlg, _ := algebras()

	var symBuf bytes.Buffer
	require.NoError(t, format.WriteSymbolTable(&symBuf, predAlg))
	symtab, err := format.ParseSymbolTable(&symBuf)
	require.NoError(t, err)

	m := exactlyAB(predAlg)
	var buf bytes.Buffer
	require.NoError(t, format.PrintFSMSFA(&buf, m, symtab))

	back, err := format.ParseFSMSFA(&buf, predAlg, symtab)
	require.NoError(t, err)
	assert.True(t, sfa.Equivalent(m, back))
}

func TestFSMSFTRoundTrips(t *testing.T) {
	_, labAlg := algebras()
	tr := renameAB(labAlg)

	var buf bytes.Buffer
	require.NoError(t, format.PrintFSMSFT(&buf, tr, nil))

	back, err := format.ParseFSMSFT(&buf, labAlg, nil)
	require.NoError(t, err)
	require.Len(t, back.Moves(0), 1)
	assert.False(t, back.Moves(0)[0].Lab.IsIdentity())
}
