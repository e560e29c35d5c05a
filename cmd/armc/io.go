package main

import (
	"fmt"
	"os"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/armcerr"
	"github.com/armcheck/armc/internal/format"
	"github.com/armcheck/armc/internal/label"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/sfa"
	"github.com/armcheck/armc/internal/sft"
)

// parseKind validates that kind is one of the three formats the
// parser/printer collaborator contract actually round-trips (spec §6:
// DOT is "for visualisation only", so it can never name an input
// file's format).
func parseKind(kind format.Kind) error {
	switch kind {
	case format.Timbuk, format.FSA, format.FSM:
		return nil
	default:
		return armcerr.ConfigError(fmt.Sprintf("AUTOMATA_FORMAT %q cannot be used to parse input automata (DOT is visualisation-only)", kind), nil)
	}
}

// symtabFor returns the FSM external symbol file for path (spec §6:
// "optional external symbol files"), by the `<path>.syms` convention,
// or nil if none exists.
func symtabFor(path string) (*format.SymbolTable, error) {
	f, err := os.Open(path + ".syms")
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, armcerr.ParserError("opening symbol table", err)
	}
	defer f.Close()
	return format.ParseSymbolTable(f)
}

// scanAlphabet discovers every symbol mentioned across paths, per kind.
func scanAlphabet(paths []string, kind format.Kind) ([]format.Symbol, error) {
	var all []format.Symbol
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, armcerr.ParserError("opening "+p, err)
		}
		var syms []format.Symbol
		switch kind {
		case format.Timbuk, format.FSA:
			syms, err = format.ScanAlphabet(f)
		case format.FSM:
			symtab, serr := symtabFor(p)
			if serr != nil {
				f.Close()
				return nil, serr
			}
			syms, err = format.ScanAlphabetFSM(f, symtab)
		default:
			err = armcerr.ParserError(fmt.Sprintf("unsupported input format %q", kind), nil)
		}
		f.Close()
		if err != nil {
			return nil, err
		}
		all = append(all, syms...)
	}
	return all, nil
}

// algebraRegistry and labelRegistry are the process-wide tables of
// spec §3 ("Predicate algebras are shared: an in-memory table keyed by
// Σ … returns a canonical algebra per alphabet") — driver-owned, since
// cmd/armc is the only place a run ever mints an Algebra for real use.
// Keeping both keyed by the same Σ, rather than just the predicate one,
// matters: internal/sft's requireSameAlgebra checks *label.Algebra
// identity by pointer, so two label.Algebra values built over the same
// Σ but via separate label.NewAlgebra calls would wrongly be treated
// as incompatible.
var (
	algebraRegistry = alphabet.NewRegistry[format.Symbol, *predicate.Algebra[format.Symbol]]()
	labelRegistry   = alphabet.NewRegistry[format.Symbol, *label.Algebra[format.Symbol]]()
)

// buildAlgebras merges the symbols of every path into one Σ and
// builds the shared predicate/label algebras every automaton in this
// run is parsed against (spec §4.6 setup step 1).
func buildAlgebras(paths []string, kind format.Kind) (*predicate.Algebra[format.Symbol], *label.Algebra[format.Symbol], error) {
	syms, err := scanAlphabet(paths, kind)
	if err != nil {
		return nil, nil, err
	}
	seen := map[format.Symbol]struct{}{}
	unique := make([]format.Symbol, 0, len(syms))
	for _, s := range syms {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			unique = append(unique, s)
		}
	}
	sigma := alphabet.New(unique...)

	predAlg := algebraRegistry.GetOrCreate(sigma, predicate.NewAlgebra[format.Symbol])
	labAlg := labelRegistry.GetOrCreate(sigma, func(alphabet.Sigma[format.Symbol]) *label.Algebra[format.Symbol] {
		return label.NewAlgebra(predAlg)
	})
	return predAlg, labAlg, nil
}

func loadSFA(path string, kind format.Kind, alg *predicate.Algebra[format.Symbol]) (*sfa.Automaton[format.Symbol], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, armcerr.ParserError("opening "+path, err)
	}
	defer f.Close()

	switch kind {
	case format.Timbuk:
		return format.ParseTimbukSFA(f, alg)
	case format.FSA:
		return format.ParseFSASFA(f, alg)
	case format.FSM:
		symtab, err := symtabFor(path)
		if err != nil {
			return nil, err
		}
		return format.ParseFSMSFA(f, alg, symtab)
	default:
		return nil, armcerr.ParserError(fmt.Sprintf("unsupported input format %q", kind), nil)
	}
}

func loadSFT(path string, kind format.Kind, alg *label.Algebra[format.Symbol]) (*sft.Transducer[format.Symbol], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, armcerr.ParserError("opening "+path, err)
	}
	defer f.Close()

	switch kind {
	case format.Timbuk:
		return format.ParseTimbukSFT(f, alg)
	case format.FSA:
		return format.ParseFSASFT(f, alg)
	case format.FSM:
		symtab, err := symtabFor(path)
		if err != nil {
			return nil, err
		}
		return format.ParseFSMSFT(f, alg, symtab)
	default:
		return nil, armcerr.ParserError(fmt.Sprintf("unsupported input format %q", kind), nil)
	}
}

// printSFA writes m in kind's textual form. symtab is only consulted
// for format.FSM (nil means "ids are their own decimal names"); it is
// ignored for the other formats.
func printSFA(path string, kind format.Kind, m *sfa.Automaton[format.Symbol], symtab *format.SymbolTable) error {
	f, err := os.Create(path)
	if err != nil {
		return armcerr.AutomatonError("creating "+path, err)
	}
	defer f.Close()

	switch kind {
	case format.Timbuk:
		return format.PrintTimbukSFA(f, m)
	case format.FSA:
		return format.PrintFSASFA(f, m)
	case format.FSM:
		return format.PrintFSMSFA(f, m, symtab)
	default:
		return armcerr.ParserError(fmt.Sprintf("unsupported output format %q", kind), nil)
	}
}

func printSFT(path string, kind format.Kind, t *sft.Transducer[format.Symbol], symtab *format.SymbolTable) error {
	f, err := os.Create(path)
	if err != nil {
		return armcerr.AutomatonError("creating "+path, err)
	}
	defer f.Close()

	switch kind {
	case format.Timbuk:
		return format.PrintTimbukSFT(f, t)
	case format.FSA:
		return format.PrintFSASFT(f, t)
	case format.FSM:
		return format.PrintFSMSFT(f, t, symtab)
	default:
		return armcerr.ParserError(fmt.Sprintf("unsupported output format %q", kind), nil)
	}
}
