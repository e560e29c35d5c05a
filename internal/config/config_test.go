package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armcheck/armc/internal/armcerr"
	"github.com/armcheck/armc/internal/config"
)

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "armc.properties")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const predicateBody = `# comment
INIT_FILE_PATH = init.fsa
BAD_FILE_PATH = bad.fsa
TAU_FILE_PATHS = tau.fsa

COMPUTATION_DIRECTION = Forward
LANGUAGE_DIRECTION = Forward
TIMEOUT = 00:01:30
VERBOSE = NO
PRINT_AUTOMATA = YES
AUTOMATA_FORMAT = TIMBUK
OUTPUT_DIRECTORY = out
IMAGE_FORMAT =

PREDICATE_LANGUAGES = Bad
INITIAL_PREDICATE = Bad
INCLUDE_GUARD = YES
INCLUDE_ACTION = YES
HEURISTIC = ImportantStates
`

func TestLoadPredicateConfig(t *testing.T) {
	path := writeTemp(t, predicateBody)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "init.fsa", cfg.InitFilePath)
	assert.Equal(t, []string{"tau.fsa"}, cfg.TauFilePaths)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.True(t, cfg.PrintAutomata)
	assert.True(t, cfg.UsesPredicateAbstraction())
	assert.Equal(t, "ImportantStates", cfg.Heuristic)
}

func TestLoadRejectsDuplicateKey(t *testing.T) {
	path := writeTemp(t, predicateBody+"\nINIT_FILE_PATH = again.fsa\n")
	_, err := config.Load(path)
	require.Error(t, err)
	kind, ok := armcerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, armcerr.KindConfig, kind)
}

func TestLoadRejectsMissingKey(t *testing.T) {
	body := `INIT_FILE_PATH = init.fsa
BAD_FILE_PATH = bad.fsa
TAU_FILE_PATHS = tau.fsa
COMPUTATION_DIRECTION = Forward
LANGUAGE_DIRECTION = Forward
TIMEOUT = 00:00:00
VERBOSE = NO
PRINT_AUTOMATA = NO
AUTOMATA_FORMAT = TIMBUK
OUTPUT_DIRECTORY = out
PREDICATE_LANGUAGES = Bad
INITIAL_PREDICATE = Bad
INCLUDE_GUARD = YES
`
	_, err := config.Load(writeTemp(t, body))
	require.Error(t, err)
	kind, ok := armcerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, armcerr.KindConfig, kind)
}

func TestLoadRejectsBothAbstractionsUnset(t *testing.T) {
	body := `INIT_FILE_PATH = init.fsa
BAD_FILE_PATH = bad.fsa
TAU_FILE_PATHS = tau.fsa
COMPUTATION_DIRECTION = Forward
LANGUAGE_DIRECTION = Forward
TIMEOUT = 00:00:00
VERBOSE = NO
PRINT_AUTOMATA = NO
AUTOMATA_FORMAT = TIMBUK
OUTPUT_DIRECTORY = out
`
	_, err := config.Load(writeTemp(t, body))
	require.Error(t, err)
}

func TestLoadFiniteLengthConfig(t *testing.T) {
	body := `INIT_FILE_PATH = init.fsa
BAD_FILE_PATH = bad.fsa
TAU_FILE_PATHS = tau.fsa
COMPUTATION_DIRECTION = Forward
LANGUAGE_DIRECTION = Backward
TIMEOUT = 1.00:00:00
VERBOSE = YES
PRINT_AUTOMATA = NO
AUTOMATA_FORMAT = FSA
OUTPUT_DIRECTORY = out
FINITE_LENGTH_LANGUAGES = Init
TRACE_LANGUAGES = NO
INITIAL_BOUND = One
HALVE_INITIAL_BOUND = NO
BOUND_INCREMENT = X
HALVE_BOUND_INCREMENT = NO
`
	cfg, err := config.Load(writeTemp(t, body))
	require.NoError(t, err)
	assert.False(t, cfg.UsesPredicateAbstraction())
	assert.Equal(t, 24*time.Hour, cfg.Timeout)
	assert.Equal(t, "X", cfg.BoundIncrement)
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.ApplyOverrides("custom-init.fsa", "", "custom-tau.fsa")
	assert.Equal(t, "custom-init.fsa", cfg.InitFilePath)
	assert.Equal(t, "bad.fsa", cfg.BadFilePath)
	assert.Equal(t, []string{"custom-tau.fsa"}, cfg.TauFilePaths)
}

func TestSaveAndReloadRoundTrips(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	path := filepath.Join(dir, "armc.properties")
	require.NoError(t, config.Save(cfg, path))

	reloaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestDumpYAMLWritesFile(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	require.NoError(t, config.DumpYAML(cfg, dir))
	_, err := os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
}
