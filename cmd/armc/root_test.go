package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armcheck/armc/internal/config"
)

// execRoot runs rootCmd with args against a fresh buffer, restoring
// the command's registered flag values afterwards so test cases don't
// leak state into each other (cobra.Command is a package-level var).
func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestGenerateConfigWritesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "armc.properties")

	out, err := execRoot(t, "-g", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = os.Stat(path)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().InitFilePath, cfg.InitFilePath)
}

func TestCheckFlagReportsWellFormedConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "armc.properties")
	cfg := config.Default()
	cfg.PredicateLanguages = nil
	cfg.InitialBound = "One"
	cfg.BoundIncrement = "One"
	cfg.FiniteLengthLanguages = []string{filepath.Join(dir, "init.fsa")}
	require.NoError(t, config.Save(cfg, configPath))

	initPath := filepath.Join(dir, "init.fsa")
	badPath := filepath.Join(dir, "bad.fsa")
	tauPath := filepath.Join(dir, "tau.fsa")

	predAlg, labAlg := fixtureAlgebras()
	writeFixtureSFA(t, dir, "init.fsa", exactlyOne(predAlg, "a"))
	writeFixtureSFA(t, dir, "bad.fsa", exactlyOne(predAlg, "b"))
	writeFixtureSFT(t, dir, "tau.fsa", identityTau(labAlg, predAlg))

	out, err := execRoot(t, "-c", configPath, "--check", "-i", initPath, "-b", badPath, "-t", tauPath)
	require.NoError(t, err)
	assert.Contains(t, out, "well-formed")
}

func TestMissingConfigFileIsError(t *testing.T) {
	dir := t.TempDir()
	_, err := execRoot(t, "-c", filepath.Join(dir, "missing.properties"))
	assert.Error(t, err)
}
