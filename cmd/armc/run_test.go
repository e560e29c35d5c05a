package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/config"
	"github.com/armcheck/armc/internal/format"
	"github.com/armcheck/armc/internal/label"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/sfa"
	"github.com/armcheck/armc/internal/sft"
)

// writeFixture prints m/t to path in Timbuk form, a concrete textual
// input the CLI pipeline parses straight back through buildAlgebras.
func writeFixtureSFA(t *testing.T, dir, name string, m *sfa.Automaton[format.Symbol]) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	require.NoError(t, format.PrintTimbukSFA(&buf, m))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func writeFixtureSFT(t *testing.T, dir, name string, tr *sft.Transducer[format.Symbol]) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	require.NoError(t, format.PrintTimbukSFT(&buf, tr))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func fixtureAlgebras() (*predicate.Algebra[format.Symbol], *label.Algebra[format.Symbol]) {
	sigma := alphabet.New(format.Symbol("a"), format.Symbol("b"))
	predAlg := predicate.NewAlgebra(sigma)
	return predAlg, label.NewAlgebra(predAlg)
}

func exactlyOne(alg *predicate.Algebra[format.Symbol], s format.Symbol) *sfa.Automaton[format.Symbol] {
	b := sfa.NewBuilder(alg, 2)
	b.SetInitial(0)
	b.SetFinal(1)
	b.AddMove(0, 1, predicate.In_(s))
	return b.Build()
}

func identityTau(labAlg *label.Algebra[format.Symbol], alg *predicate.Algebra[format.Symbol]) *sft.Transducer[format.Symbol] {
	b := sft.NewBuilder(labAlg, 1)
	b.SetInitial(0)
	b.SetFinal(0)
	b.AddMove(0, 0, label.Identity(alg.True()))
	return b.Build()
}

func renameTau(labAlg *label.Algebra[format.Symbol], alg *predicate.Algebra[format.Symbol], from, to format.Symbol) *sft.Transducer[format.Symbol] {
	b := sft.NewBuilder(labAlg, 1)
	b.SetInitial(0)
	b.SetFinal(0)
	b.AddMove(0, 0, label.Pair(predicate.In_(from), predicate.In_(to)))
	b.AddMove(0, 0, label.Identity(alg.Not(predicate.In_(from))))
	return b.Build()
}

func baseConfig(t *testing.T, dir, initPath, badPath string, tauPaths []string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.InitFilePath = initPath
	cfg.BadFilePath = badPath
	cfg.TauFilePaths = tauPaths
	cfg.AutomataFormat = string(format.Timbuk)
	cfg.OutputDirectory = filepath.Join(dir, "out")
	cfg.PredicateLanguages = nil
	cfg.InitialBound = "One"
	cfg.BoundIncrement = "One"
	return cfg
}

func TestRunCheckDoesNotTouchOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	predAlg, labAlg := fixtureAlgebras()
	initPath := writeFixtureSFA(t, dir, "init.ta", exactlyOne(predAlg, "a"))
	badPath := writeFixtureSFA(t, dir, "bad.ta", exactlyOne(predAlg, "b"))
	tauPath := writeFixtureSFT(t, dir, "tau.ta", identityTau(labAlg, predAlg))

	cfg := baseConfig(t, dir, initPath, badPath, []string{tauPath})

	verdict, err := run(cfg, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "config and inputs are well-formed", verdict)

	_, err = os.Stat(cfg.OutputDirectory)
	assert.True(t, os.IsNotExist(err))
}

func TestRunHoldsWhenBadUnreachable(t *testing.T) {
	dir := t.TempDir()
	predAlg, labAlg := fixtureAlgebras()
	initPath := writeFixtureSFA(t, dir, "init.ta", exactlyOne(predAlg, "a"))
	badPath := writeFixtureSFA(t, dir, "bad.ta", exactlyOne(predAlg, "b"))
	tauPath := writeFixtureSFT(t, dir, "tau.ta", identityTau(labAlg, predAlg))

	cfg := baseConfig(t, dir, initPath, badPath, []string{tauPath})

	var steps []int
	verdict, err := run(cfg, false, func(loop, i, states int) { steps = append(steps, states) })
	require.NoError(t, err)
	assert.Equal(t, "HOLDS", verdict)
	assert.NotEmpty(t, steps)

	_, err = os.Stat(filepath.Join(cfg.OutputDirectory, "armc-input"))
	assert.NoError(t, err)
}

func TestRunViolatedWritesCounterexample(t *testing.T) {
	dir := t.TempDir()
	predAlg, labAlg := fixtureAlgebras()
	initPath := writeFixtureSFA(t, dir, "init.ta", exactlyOne(predAlg, "a"))
	badPath := writeFixtureSFA(t, dir, "bad.ta", exactlyOne(predAlg, "b"))
	tauPath := writeFixtureSFT(t, dir, "tau.ta", renameTau(labAlg, predAlg, "a", "b"))

	cfg := baseConfig(t, dir, initPath, badPath, []string{tauPath})
	cfg.PrintAutomata = true

	verdict, err := run(cfg, false, nil)
	require.NoError(t, err)
	assert.Contains(t, verdict, "VIOLATED")

	cexDir := filepath.Join(cfg.OutputDirectory, "armc-counterexample")
	entries, err := os.ReadDir(cexDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	loopDir := filepath.Join(cfg.OutputDirectory, "armc-loop-0")
	_, err = os.Stat(loopDir)
	assert.NoError(t, err)
}

func TestRunImmediateOverlapIsError(t *testing.T) {
	dir := t.TempDir()
	predAlg, labAlg := fixtureAlgebras()
	initPath := writeFixtureSFA(t, dir, "init.ta", exactlyOne(predAlg, "a"))
	badPath := writeFixtureSFA(t, dir, "bad.ta", exactlyOne(predAlg, "a"))
	tauPath := writeFixtureSFT(t, dir, "tau.ta", identityTau(labAlg, predAlg))

	cfg := baseConfig(t, dir, initPath, badPath, []string{tauPath})

	_, err := run(cfg, false, nil)
	assert.Error(t, err)
}

func TestRunRejectsDotAutomataFormat(t *testing.T) {
	dir := t.TempDir()
	predAlg, labAlg := fixtureAlgebras()
	initPath := writeFixtureSFA(t, dir, "init.ta", exactlyOne(predAlg, "a"))
	badPath := writeFixtureSFA(t, dir, "bad.ta", exactlyOne(predAlg, "b"))
	tauPath := writeFixtureSFT(t, dir, "tau.ta", identityTau(labAlg, predAlg))

	cfg := baseConfig(t, dir, initPath, badPath, []string{tauPath})
	cfg.AutomataFormat = string(format.DOT)

	_, err := run(cfg, true, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "visualisation-only")
}
