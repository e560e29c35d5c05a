package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/armcheck/armc/internal/armc"
	"github.com/armcheck/armc/internal/config"
	"github.com/armcheck/armc/internal/format"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/render"
	"github.com/armcheck/armc/internal/sfa"
	"github.com/armcheck/armc/internal/sft"
)

// run executes one verification against cfg, writing spec §6's
// OUTPUT_DIRECTORY filesystem layout as it goes, and returns the final
// verdict line printed to stdout. progress, when non-nil, is called
// once per inner-loop step so the caller can render a running summary.
func run(cfg *config.Config, check bool, progress func(loop, i, states int)) (string, error) {
	kind := format.Kind(cfg.AutomataFormat)
	if err := parseKind(kind); err != nil {
		return "", err
	}

	inputPaths := append([]string{cfg.InitFilePath, cfg.BadFilePath}, cfg.TauFilePaths...)
	inputPaths = append(inputPaths, cfg.PredicateLanguages...)
	inputPaths = append(inputPaths, cfg.FiniteLengthLanguages...)

	predAlg, labAlg, err := buildAlgebras(inputPaths, kind)
	if err != nil {
		return "", err
	}

	init, err := loadSFA(cfg.InitFilePath, kind, predAlg)
	if err != nil {
		return "", err
	}
	bad, err := loadSFA(cfg.BadFilePath, kind, predAlg)
	if err != nil {
		return "", err
	}
	taus := make([]*sft.Transducer[format.Symbol], 0, len(cfg.TauFilePaths))
	for _, p := range cfg.TauFilePaths {
		tau, err := loadSFT(p, kind, labAlg)
		if err != nil {
			return "", err
		}
		taus = append(taus, tau)
	}

	strategy, err := buildStrategy(cfg, kind, predAlg, init, bad, taus)
	if err != nil {
		return "", err
	}

	if check {
		return "config and inputs are well-formed", nil
	}

	if err := os.RemoveAll(cfg.OutputDirectory); err != nil {
		return "", fmt.Errorf("clearing output directory: %w", err)
	}

	names := newNamer()
	inputDir := filepath.Join(cfg.OutputDirectory, "armc-input")

	// Dumps in FSM form need a symbol table of their own: the shared
	// algebra's Σ may carry non-numeric symbol names even though FSM's
	// transition columns are always numeric ids.
	var symtab *format.SymbolTable
	if kind == format.FSM {
		symtab, err = writeSymbolTable(inputDir, predAlg)
		if err != nil {
			return "", err
		}
	}

	if err := dumpInputs(inputDir, cfg, kind, init, bad, taus, names, symtab); err != nil {
		return "", err
	}

	opts := armc.Options[format.Symbol]{
		Backward: cfg.ComputationDirection == "Backward",
		Timeout:  cfg.Timeout,
	}
	opts.OnStep = func(loop, i int, m, mAlpha *sfa.Automaton[format.Symbol]) error {
		if progress != nil {
			progress(loop, i, mAlpha.NumStates())
		}
		if !cfg.PrintAutomata {
			return nil
		}
		return dumpStep(cfg, kind, loop, i, m, mAlpha, names, symtab)
	}
	if cfg.PrintAutomata {
		opts.OnReplay = func(loop, idx int, x *sfa.Automaton[format.Symbol]) error {
			return dumpReplay(cfg, kind, loop, idx, x, names, symtab)
		}
	}

	result, err := armc.Verify(opts, init, bad, taus, strategy)
	if err != nil {
		return "", err
	}

	logrus.WithField("verdict", result.Verdict).Info("verification complete")

	if result.Verdict == armc.Holds {
		return "HOLDS", nil
	}

	if err := dumpCounterexample(cfg, kind, result.Counterexample, names, symtab); err != nil {
		return "", err
	}
	return "VIOLATED (counterexample written to " +
		filepath.Join(cfg.OutputDirectory, "armc-counterexample") + ")", nil
}

// namer gives every unnamed dumped automaton a name made of a short
// random uuid prefix, fixed for one run, and a loop/index tag, so names
// are consistent within a run and differ between runs (file names
// themselves still follow the loop/step index layout).
type namer struct{ run string }

func newNamer() *namer { return &namer{run: uuid.NewString()[:8]} }

// nameSFA tags m with a run-unique fallback name when it has none, so
// printed Timbuk/FSA automata stay distinguishable across repeated
// debugging runs into the same OUTPUT_DIRECTORY.
func (n *namer) nameSFA(m *sfa.Automaton[format.Symbol], fallback string) *sfa.Automaton[format.Symbol] {
	if m.Name() != "" {
		return m
	}
	return m.WithName(n.run + "-" + fallback)
}

func (n *namer) nameSFT(t *sft.Transducer[format.Symbol], fallback string) *sft.Transducer[format.Symbol] {
	if t.Name() != "" {
		return t
	}
	return t.WithName(n.run + "-" + fallback)
}

// writeSymbolTable derives a symbol table from alg's Σ, writes it
// alongside the other armc-input/ provenance files, and returns it for
// reuse by every other FSM dump of this run (so ids stay consistent
// across init/bad/tau and every Mᵢ/Xᵢ snapshot).
func writeSymbolTable(dir string, alg *predicate.Algebra[format.Symbol]) (*format.SymbolTable, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, "symbols.syms")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	if err := format.WriteSymbolTable(f, alg); err != nil {
		f.Close()
		return nil, err
	}
	f.Close()

	f, err = os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reopening %s: %w", path, err)
	}
	defer f.Close()
	return format.ParseSymbolTable(f)
}

func dumpInputs(dir string, cfg *config.Config, kind format.Kind, init, bad *sfa.Automaton[format.Symbol], taus []*sft.Transducer[format.Symbol], names *namer, symtab *format.SymbolTable) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := printSFA(filepath.Join(dir, "init"+extFor(kind)), kind, names.nameSFA(init, "init"), symtab); err != nil {
		return err
	}
	if err := printSFA(filepath.Join(dir, "bad"+extFor(kind)), kind, names.nameSFA(bad, "bad"), symtab); err != nil {
		return err
	}
	for idx, tau := range taus {
		tagged := names.nameSFT(tau, fmt.Sprintf("tau-%d", idx))
		if err := printSFT(filepath.Join(dir, fmt.Sprintf("tau-%d%s", idx, extFor(kind))), kind, tagged, symtab); err != nil {
			return err
		}
	}
	return config.DumpYAML(cfg, dir)
}

func dumpStep(cfg *config.Config, kind format.Kind, loop, i int, m, mAlpha *sfa.Automaton[format.Symbol], names *namer, symtab *format.SymbolTable) error {
	dir := filepath.Join(cfg.OutputDirectory, fmt.Sprintf("armc-loop-%d", loop))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	mTag := fmt.Sprintf("loop%d-M%d", loop, i)
	if err := printSFA(filepath.Join(dir, fmt.Sprintf("M%d%s", i, extFor(kind))), kind, names.nameSFA(m, mTag), symtab); err != nil {
		return err
	}
	mAlphaTag := fmt.Sprintf("loop%d-M%d+", loop, i)
	mAlpha = names.nameSFA(mAlpha, mAlphaTag)
	if err := printSFA(filepath.Join(dir, fmt.Sprintf("M%d+%s", i, extFor(kind))), kind, mAlpha, symtab); err != nil {
		return err
	}
	return dumpImage(cfg, dir, fmt.Sprintf("M%d+", i), mAlpha)
}

func dumpReplay(cfg *config.Config, kind format.Kind, loop, idx int, x *sfa.Automaton[format.Symbol], names *namer, symtab *format.SymbolTable) error {
	dir := filepath.Join(cfg.OutputDirectory, fmt.Sprintf("armc-loop-%d", loop))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tag := fmt.Sprintf("loop%d-X%d", loop, idx)
	return printSFA(filepath.Join(dir, fmt.Sprintf("X%d%s", idx, extFor(kind))), kind, names.nameSFA(x, tag), symtab)
}

func dumpCounterexample(cfg *config.Config, kind format.Kind, cex *armc.Counterexample[format.Symbol], names *namer, symtab *format.SymbolTable) error {
	dir := filepath.Join(cfg.OutputDirectory, "armc-counterexample")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for i, m := range cex.M {
		tag := fmt.Sprintf("cex-M%d", i)
		if err := printSFA(filepath.Join(dir, fmt.Sprintf("M%d%s", i, extFor(kind))), kind, names.nameSFA(m, tag), symtab); err != nil {
			return err
		}
	}
	// cex.X is stored ℓ-down-to-0; re-index on disk 0-up-to-ℓ to match M/MAlpha.
	for i, x := range cex.X {
		idx := len(cex.X) - 1 - i
		tag := fmt.Sprintf("cex-X%d", idx)
		if err := printSFA(filepath.Join(dir, fmt.Sprintf("X%d%s", idx, extFor(kind))), kind, names.nameSFA(x, tag), symtab); err != nil {
			return err
		}
	}
	return nil
}

func dumpImage(cfg *config.Config, dir, name string, m *sfa.Automaton[format.Symbol]) error {
	if cfg.ImageFormat == "" {
		return nil
	}
	dotSource := render.DOTSFA(m)
	outPath := filepath.Join(dir, name+"."+cfg.ImageFormat)
	return render.RenderImage(dotSource, render.ImageFormat(cfg.ImageFormat), outPath, nil)
}

func extFor(kind format.Kind) string {
	switch kind {
	case format.Timbuk:
		return ".ta"
	case format.FSA:
		return ".fsa"
	case format.FSM:
		return ".fsm"
	default:
		return ".txt"
	}
}
