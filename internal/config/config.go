// Package config loads and saves the configuration file of spec §6: a
// line-based `KEY = value` grammar with a fixed set of recognised keys,
// grouped into general, predicate-abstraction and finite-length-
// abstraction sections. Duplicate or missing keys are fatal
// (`armcerr.ConfigError`), per spec §7.
//
// The native format is parsed by a small hand-rolled scanner (see
// SPEC_FULL.md for why a generic `.properties` library doesn't fit);
// loaded configs are additionally dumped as YAML for provenance, which
// does use a real library (`gopkg.in/yaml.v3`) since that format has no
// bespoke grammar to fight.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/armcheck/armc/internal/armcerr"
)

// Config holds every key of spec §6's configuration file.
type Config struct {
	// General
	InitFilePath         string        `yaml:"init_file_path"`
	BadFilePath          string        `yaml:"bad_file_path"`
	TauFilePaths         []string      `yaml:"tau_file_paths"`
	ComputationDirection string        `yaml:"computation_direction"` // Forward|Backward
	LanguageDirection    string        `yaml:"language_direction"`    // Forward|Backward
	Timeout              time.Duration `yaml:"timeout"`
	Verbose              bool          `yaml:"verbose"`
	PrintAutomata        bool          `yaml:"print_automata"`
	AutomataFormat       string        `yaml:"automata_format"` // DOT|TIMBUK|FSA|FSM
	OutputDirectory      string        `yaml:"output_directory"`
	ImageFormat          string        `yaml:"image_format"` // gif|jpg|pdf|png|svg|""

	// Predicate abstraction
	PredicateLanguages []string `yaml:"predicate_languages,omitempty"`
	InitialPredicate   string   `yaml:"initial_predicate,omitempty"` // Init|Bad|Both
	IncludeGuard       bool     `yaml:"include_guard"`
	IncludeAction      bool     `yaml:"include_action"`
	Heuristic          string   `yaml:"heuristic,omitempty"` // ImportantStates|KeyStates|""

	// Finite-length abstraction
	FiniteLengthLanguages []string `yaml:"finite_length_languages,omitempty"`
	TraceLanguages        bool     `yaml:"trace_languages"`
	InitialBound          string   `yaml:"initial_bound,omitempty"` // One|Init|Bad
	HalveInitialBound     bool     `yaml:"halve_initial_bound"`
	BoundIncrement        string   `yaml:"bound_increment,omitempty"` // One|X|M
	HalveBoundIncrement   bool     `yaml:"halve_bound_increment"`
}

// UsesPredicateAbstraction reports whether PREDICATE_LANGUAGES (rather
// than FINITE_LENGTH_LANGUAGES) was the selected abstraction, per spec
// §6's "exactly one of ... must be set".
func (c *Config) UsesPredicateAbstraction() bool { return len(c.PredicateLanguages) > 0 }

// ApplyOverrides applies the CLI's -i/-b/-t flags (spec §6), each
// replacing the corresponding config value when non-empty. -t replaces
// the whole TAU_FILE_PATHS list with the single given path.
func (c *Config) ApplyOverrides(initPath, badPath, tauPath string) {
	if initPath != "" {
		c.InitFilePath = initPath
	}
	if badPath != "" {
		c.BadFilePath = badPath
	}
	if tauPath != "" {
		c.TauFilePaths = []string{tauPath}
	}
}

// Default returns the configuration written by -g/--generate-config: a
// complete, valid, predicate-abstraction-selecting config with the
// smallest reasonable defaults for every key.
func Default() *Config {
	return &Config{
		InitFilePath:         "init.fsa",
		BadFilePath:          "bad.fsa",
		TauFilePaths:         []string{"tau.fsa"},
		ComputationDirection: "Forward",
		LanguageDirection:    "Forward",
		Timeout:              0,
		Verbose:              false,
		PrintAutomata:        true,
		AutomataFormat:       "TIMBUK",
		OutputDirectory:      "armc-output",
		ImageFormat:          "",

		PredicateLanguages: []string{"Bad"},
		InitialPredicate:   "Bad",
		IncludeGuard:       true,
		IncludeAction:      true,
		Heuristic:          "",
	}
}

var keyPattern = regexp.MustCompile(`^([A-Z_]+)\s*=\s*(.*)$`)

// rawLoad scans the KEY = value grammar into an ordered map, rejecting
// duplicate keys outright (spec §6: "Duplicate ... keys are fatal").
func rawLoad(r io.Reader) (map[string]string, []string, error) {
	raw := map[string]string{}
	var order []string
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := keyPattern.FindStringSubmatch(line)
		if m == nil {
			return nil, nil, armcerr.ConfigError(
				fmt.Sprintf("line %d: not a KEY = value line: %q", lineNo, line), nil)
		}
		key, value := m[1], strings.TrimSpace(m[2])
		if _, dup := raw[key]; dup {
			return nil, nil, armcerr.ConfigError(
				fmt.Sprintf("duplicate key %q", key), nil)
		}
		raw[key] = value
		order = append(order, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, armcerr.ConfigError("reading config", err)
	}
	return raw, order, nil
}

// Load parses path into a Config, per spec §6.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, armcerr.ConfigError("opening config file", err)
	}
	defer f.Close()

	raw, _, err := rawLoad(f)
	if err != nil {
		return nil, err
	}
	return fromRaw(raw)
}

func fromRaw(raw map[string]string) (*Config, error) {
	c := &Config{}
	var err error

	required := func(key string) (string, bool) {
		v, ok := raw[key]
		if !ok {
			err = firstErr(err, armcerr.ConfigError(fmt.Sprintf("missing required key %q", key), nil))
		}
		return v, ok
	}
	oneOf := func(key, value string, allowed ...string) string {
		for _, a := range allowed {
			if value == a {
				return value
			}
		}
		err = firstErr(err, armcerr.ConfigError(
			fmt.Sprintf("%s: invalid value %q, want one of %v", key, value, allowed), nil))
		return value
	}
	yesNo := func(key, value string) bool {
		switch value {
		case "YES":
			return true
		case "NO":
			return false
		default:
			err = firstErr(err, armcerr.ConfigError(
				fmt.Sprintf("%s: invalid value %q, want YES or NO", key, value), nil))
			return false
		}
	}

	if v, ok := required("INIT_FILE_PATH"); ok {
		c.InitFilePath = v
	}
	if v, ok := required("BAD_FILE_PATH"); ok {
		c.BadFilePath = v
	}
	if v, ok := required("TAU_FILE_PATHS"); ok {
		c.TauFilePaths = splitPathList(v)
	}
	if v, ok := required("COMPUTATION_DIRECTION"); ok {
		c.ComputationDirection = oneOf("COMPUTATION_DIRECTION", v, "Forward", "Backward")
	}
	if v, ok := required("LANGUAGE_DIRECTION"); ok {
		c.LanguageDirection = oneOf("LANGUAGE_DIRECTION", v, "Forward", "Backward")
	}
	if v, ok := required("TIMEOUT"); ok {
		d, perr := parseTimeout(v)
		if perr != nil {
			err = firstErr(err, armcerr.ConfigError("TIMEOUT", perr))
		}
		c.Timeout = d
	}
	if v, ok := required("VERBOSE"); ok {
		c.Verbose = yesNo("VERBOSE", v)
	}
	if v, ok := required("PRINT_AUTOMATA"); ok {
		c.PrintAutomata = yesNo("PRINT_AUTOMATA", v)
	}
	if v, ok := required("AUTOMATA_FORMAT"); ok {
		c.AutomataFormat = oneOf("AUTOMATA_FORMAT", v, "DOT", "TIMBUK", "FSA", "FSM")
	}
	if v, ok := required("OUTPUT_DIRECTORY"); ok {
		c.OutputDirectory = v
	}
	if v, ok := raw["IMAGE_FORMAT"]; ok && v != "" {
		c.ImageFormat = oneOf("IMAGE_FORMAT", v, "gif", "jpg", "pdf", "png", "svg")
	}

	predRaw, hasPred := raw["PREDICATE_LANGUAGES"]
	finRaw, hasFin := raw["FINITE_LENGTH_LANGUAGES"]
	switch {
	case hasPred && predRaw != "" && (!hasFin || finRaw == ""):
		c.PredicateLanguages = splitPathList(predRaw)
		if v, ok := required("INITIAL_PREDICATE"); ok {
			c.InitialPredicate = oneOf("INITIAL_PREDICATE", v, "Init", "Bad", "Both")
		}
		if v, ok := required("INCLUDE_GUARD"); ok {
			c.IncludeGuard = yesNo("INCLUDE_GUARD", v)
		}
		if v, ok := required("INCLUDE_ACTION"); ok {
			c.IncludeAction = yesNo("INCLUDE_ACTION", v)
		}
		if v, ok := raw["HEURISTIC"]; ok && v != "" {
			c.Heuristic = oneOf("HEURISTIC", v, "ImportantStates", "KeyStates")
		}
	case hasFin && finRaw != "" && (!hasPred || predRaw == ""):
		c.FiniteLengthLanguages = splitPathList(finRaw)
		if v, ok := required("TRACE_LANGUAGES"); ok {
			c.TraceLanguages = yesNo("TRACE_LANGUAGES", v)
		}
		if v, ok := required("INITIAL_BOUND"); ok {
			c.InitialBound = oneOf("INITIAL_BOUND", v, "One", "Init", "Bad")
		}
		if v, ok := required("HALVE_INITIAL_BOUND"); ok {
			c.HalveInitialBound = yesNo("HALVE_INITIAL_BOUND", v)
		}
		if v, ok := required("BOUND_INCREMENT"); ok {
			c.BoundIncrement = oneOf("BOUND_INCREMENT", v, "One", "X", "M")
		}
		if v, ok := required("HALVE_BOUND_INCREMENT"); ok {
			c.HalveBoundIncrement = yesNo("HALVE_BOUND_INCREMENT", v)
		}
	default:
		err = firstErr(err, armcerr.ConfigError(
			"exactly one of PREDICATE_LANGUAGES / FINITE_LENGTH_LANGUAGES must be set", nil))
	}

	for key := range raw {
		if !recognisedKeys[key] {
			err = firstErr(err, armcerr.ConfigError(fmt.Sprintf("unknown key %q", key), nil))
		}
	}

	if err != nil {
		return nil, err
	}
	return c, nil
}

var recognisedKeys = map[string]bool{
	"INIT_FILE_PATH": true, "BAD_FILE_PATH": true, "TAU_FILE_PATHS": true,
	"COMPUTATION_DIRECTION": true, "LANGUAGE_DIRECTION": true, "TIMEOUT": true,
	"VERBOSE": true, "PRINT_AUTOMATA": true, "AUTOMATA_FORMAT": true,
	"OUTPUT_DIRECTORY": true, "IMAGE_FORMAT": true,
	"PREDICATE_LANGUAGES": true, "INITIAL_PREDICATE": true,
	"INCLUDE_GUARD": true, "INCLUDE_ACTION": true, "HEURISTIC": true,
	"FINITE_LENGTH_LANGUAGES": true, "TRACE_LANGUAGES": true,
	"INITIAL_BOUND": true, "HALVE_INITIAL_BOUND": true,
	"BOUND_INCREMENT": true, "HALVE_BOUND_INCREMENT": true,
}

func firstErr(existing, next error) error {
	if existing != nil {
		return existing
	}
	return next
}

func splitPathList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, string(os.PathListSeparator))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func yn(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// Save writes c back out in the native KEY = value grammar, the same
// format Load reads and -g/--generate-config produces.
func Save(c *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return armcerr.ConfigError("creating config directory", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return armcerr.ConfigError("creating config file", err)
	}
	defer f.Close()

	lines := []string{
		"INIT_FILE_PATH = " + c.InitFilePath,
		"BAD_FILE_PATH = " + c.BadFilePath,
		"TAU_FILE_PATHS = " + strings.Join(c.TauFilePaths, string(os.PathListSeparator)),
		"COMPUTATION_DIRECTION = " + c.ComputationDirection,
		"LANGUAGE_DIRECTION = " + c.LanguageDirection,
		"TIMEOUT = " + formatTimeout(c.Timeout),
		"VERBOSE = " + yn(c.Verbose),
		"PRINT_AUTOMATA = " + yn(c.PrintAutomata),
		"AUTOMATA_FORMAT = " + c.AutomataFormat,
		"OUTPUT_DIRECTORY = " + c.OutputDirectory,
		"IMAGE_FORMAT = " + c.ImageFormat,
		"",
	}
	if c.UsesPredicateAbstraction() {
		lines = append(lines,
			"PREDICATE_LANGUAGES = "+strings.Join(c.PredicateLanguages, string(os.PathListSeparator)),
			"INITIAL_PREDICATE = "+c.InitialPredicate,
			"INCLUDE_GUARD = "+yn(c.IncludeGuard),
			"INCLUDE_ACTION = "+yn(c.IncludeAction),
			"HEURISTIC = "+c.Heuristic,
		)
	} else {
		lines = append(lines,
			"FINITE_LENGTH_LANGUAGES = "+strings.Join(c.FiniteLengthLanguages, string(os.PathListSeparator)),
			"TRACE_LANGUAGES = "+yn(c.TraceLanguages),
			"INITIAL_BOUND = "+c.InitialBound,
			"HALVE_INITIAL_BOUND = "+yn(c.HalveInitialBound),
			"BOUND_INCREMENT = "+c.BoundIncrement,
			"HALVE_BOUND_INCREMENT = "+yn(c.HalveBoundIncrement),
		)
	}

	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		return armcerr.ConfigError("writing config file", err)
	}
	return nil
}

// DumpYAML serialises c into dir/config.yaml for provenance (SPEC_FULL.md:
// "in addition to, not a replacement for" the native format).
func DumpYAML(c *Config, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return armcerr.ConfigError("creating provenance directory", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return armcerr.ConfigError("marshalling config to YAML", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644); err != nil {
		return armcerr.ConfigError("writing config.yaml", err)
	}
	return nil
}

var timeoutPattern = regexp.MustCompile(`^(?:(\d+)\.)?(\d{1,2}):(\d{2}):(\d{2})(?:\.(\d{1,7}))?$`)

// parseTimeout parses the `[d.]hh:mm:ss[.fffffff]` grammar of spec §6;
// zero (in any of its spellings, e.g. "00:00:00") disables the timeout.
// The fractional part, when present, counts ten-millionths of a second
// (.NET-style ticks), matching the precision the grammar's seven-digit
// cap implies.
func parseTimeout(s string) (time.Duration, error) {
	m := timeoutPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, errors.Errorf("invalid timeout %q, want [d.]hh:mm:ss[.fffffff]", s)
	}
	days, hours, mins, secs := 0, 0, 0, 0
	if m[1] != "" {
		days, _ = strconv.Atoi(m[1])
	}
	hours, _ = strconv.Atoi(m[2])
	mins, _ = strconv.Atoi(m[3])
	secs, _ = strconv.Atoi(m[4])

	d := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(mins)*time.Minute +
		time.Duration(secs)*time.Second

	if m[5] != "" {
		frac := m[5] + strings.Repeat("0", 7-len(m[5]))
		ticks, _ := strconv.Atoi(frac)
		d += time.Duration(ticks) * 100 * time.Nanosecond
	}
	return d, nil
}

// formatTimeout renders d back into spec §6's grammar, inverse of
// parseTimeout.
func formatTimeout(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	mins := d / time.Minute
	d -= mins * time.Minute
	secs := d / time.Second
	d -= secs * time.Second
	ticks := d / (100 * time.Nanosecond)

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%d.", days)
	}
	fmt.Fprintf(&b, "%02d:%02d:%02d", hours, mins, secs)
	if ticks > 0 {
		fmt.Fprintf(&b, ".%07d", ticks)
	}
	return b.String()
}

// SortedKeys is a small debug helper returning the recognised key names
// in a stable order.
func SortedKeys() []string {
	out := make([]string, 0, len(recognisedKeys))
	for k := range recognisedKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
