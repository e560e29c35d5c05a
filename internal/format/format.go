// Package format implements the automaton/transducer file formats of
// spec §6's collaborator contract: a parser returns `(initial, finals,
// moves, optional alphabet, optional name, optional state-name map)`
// and a symmetric printer emits the same textual formats. Four formats
// are named: Timbuk, FSA, FSM and DOT. DOT is "for visualisation only"
// (spec §6) and is handled entirely by `internal/render`, which shells
// out to the `dot` binary; this package covers the three formats the
// core actually round-trips through (Timbuk, FSA, FSM).
//
// All three parsers and printers are fixed to the Symbol type below
// rather than left generic over sfa.Automaton's type parameter: a text
// format is inherently a mapping between strings and symbols, and every
// literal alphabet in spec.md's examples and testable scenarios (§8) is
// a handful of short textual tokens (`a`, `b`, ...). The generic core
// (`internal/sfa`, `internal/sft`, `internal/predicate`, `internal/label`)
// stays parameterised; only this I/O boundary commits to a concrete
// symbol representation, the way a real collaborator contract would.
package format

import (
	"fmt"

	"github.com/armcheck/armc/internal/armcerr"
)

// Symbol is the alphabet element type every file-format collaborator
// reads and writes: a short text token, e.g. "a" or "b".
type Symbol string

func (s Symbol) String() string { return string(s) }

// Kind names one of the four formats of spec §6's `AUTOMATA_FORMAT` key.
type Kind string

const (
	Timbuk Kind = "TIMBUK"
	FSA    Kind = "FSA"
	FSM    Kind = "FSM"
	DOT    Kind = "DOT"
)

func parseErrf(format string, args ...interface{}) error {
	return armcerr.ParserError(fmt.Sprintf(format, args...), nil)
}

func wrapParseErr(msg string, err error) error {
	if err == nil {
		return nil
	}
	return armcerr.ParserError(msg, err)
}
