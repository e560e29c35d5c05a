package main

import (
	"fmt"

	"github.com/armcheck/armc/internal/abstraction"
	"github.com/armcheck/armc/internal/armcerr"
	"github.com/armcheck/armc/internal/config"
	"github.com/armcheck/armc/internal/format"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/sfa"
	"github.com/armcheck/armc/internal/sft"
)

// buildStrategy constructs the configured abstraction (spec §4.5),
// seeding it from whichever of {Init, Bad, dom(τᵢ), range(τᵢ)}
// INITIAL_PREDICATE names, always adding dom/range of every τᵢ, plus
// any extra predicate automata PREDICATE_LANGUAGES names by path
// (DESIGN.md records this as the Open-Question resolution: that key
// is a path list of additional seed automata, parallel to
// TAU_FILE_PATHS, not a second selector over the canonical set).
func buildStrategy(cfg *config.Config, kind format.Kind, predAlg *predicate.Algebra[format.Symbol], init, bad *sfa.Automaton[format.Symbol], taus []*sft.Transducer[format.Symbol]) (abstraction.Strategy[format.Symbol], error) {
	if cfg.UsesPredicateAbstraction() {
		return buildPredicateLanguageStrategy(cfg, kind, predAlg, init, bad, taus)
	}
	return buildFiniteLengthStrategy(cfg, init, bad)
}

func buildPredicateLanguageStrategy(cfg *config.Config, kind format.Kind, predAlg *predicate.Algebra[format.Symbol], init, bad *sfa.Automaton[format.Symbol], taus []*sft.Transducer[format.Symbol]) (abstraction.Strategy[format.Symbol], error) {
	var seeds []*sfa.Automaton[format.Symbol]
	switch cfg.InitialPredicate {
	case "Init":
		seeds = append(seeds, init)
	case "Bad":
		seeds = append(seeds, bad)
	case "Both":
		seeds = append(seeds, init, bad)
	default:
		return nil, armcerr.ConfigError(fmt.Sprintf("INITIAL_PREDICATE: unrecognised %q", cfg.InitialPredicate), nil)
	}
	for _, tau := range taus {
		seeds = append(seeds, sft.Domain(tau), sft.Range(tau))
	}
	for _, p := range cfg.PredicateLanguages {
		extra, err := loadSFA(p, kind, predAlg)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, extra)
	}

	direction := abstraction.Forward
	if cfg.LanguageDirection == "Backward" {
		direction = abstraction.Backward
	}
	heuristic := abstraction.HeuristicNone
	switch cfg.Heuristic {
	case "ImportantStates":
		heuristic = abstraction.HeuristicImportantStates
	case "KeyStates":
		heuristic = abstraction.HeuristicKeyStates
	}
	return abstraction.NewPredicateLanguageStrategy(predAlg, direction, heuristic, seeds...), nil
}

func buildFiniteLengthStrategy(cfg *config.Config, init, bad *sfa.Automaton[format.Symbol]) (abstraction.Strategy[format.Symbol], error) {
	n0 := 1
	switch cfg.InitialBound {
	case "One":
		n0 = 1
	case "Init":
		n0 = init.NumStates()
	case "Bad":
		n0 = bad.NumStates()
	default:
		return nil, armcerr.ConfigError(fmt.Sprintf("INITIAL_BOUND: unrecognised %q", cfg.InitialBound), nil)
	}
	if cfg.HalveInitialBound {
		n0 /= 2
	}
	if n0 < 1 {
		n0 = 1
	}

	basis := abstraction.IncrementOne
	switch cfg.BoundIncrement {
	case "X":
		basis = abstraction.IncrementSizeOfX
	case "M":
		basis = abstraction.IncrementSizeOfM
	}

	flavor := abstraction.FlavorForwardState
	switch {
	case cfg.TraceLanguages && cfg.LanguageDirection == "Backward":
		flavor = abstraction.FlavorBackwardTrace
	case cfg.TraceLanguages:
		flavor = abstraction.FlavorForwardTrace
	case cfg.LanguageDirection == "Backward":
		flavor = abstraction.FlavorBackwardState
	}

	return abstraction.NewFiniteLengthStrategy[format.Symbol](n0, flavor, basis, cfg.HalveBoundIncrement), nil
}
