package format

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/armcheck/armc/internal/label"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/sfa"
	"github.com/armcheck/armc/internal/sft"
)

// FSM is the AT&T-style numeric-column format spec §6 names: each
// non-blank line is either a 3- or 4-column transition
// (`src dst ilabel [olabel]`, numeric symbol ids, state 0 implicitly
// initial) or a 1-column final-state declaration (`state`). Symbol ids
// are resolved against an optional external symbol file — a sequence
// of `name id` lines — when one is supplied; without one, an id's text
// form is just its decimal string. This is the one format where a
// predicate (a set of symbols) cannot be written as a single move:
// FSM has no set-valued label syntax, so printing decomposes every SFA
// predicate move into one single-symbol move per element of its
// inclusive set (lossless — the union of those single-symbol moves
// denotes exactly the same relation as the original predicate move —
// just less compact than Timbuk/FSA's grouped form).

// SymbolTable is the optional external symbol file: id <-> name.
type SymbolTable struct {
	nameToID map[Symbol]int
	idToName map[int]Symbol
}

// ParseSymbolTable reads a `name id` per line external symbol file.
func ParseSymbolTable(r io.Reader) (*SymbolTable, error) {
	t := &SymbolTable{nameToID: map[Symbol]int{}, idToName: map[int]Symbol{}}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, parseErrf("fsm: bad symbol table line %q", line)
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, wrapParseErr("fsm: symbol table id", err)
		}
		t.nameToID[Symbol(fields[0])] = id
		t.idToName[id] = Symbol(fields[0])
	}
	if err := sc.Err(); err != nil {
		return nil, wrapParseErr("fsm: reading symbol table", err)
	}
	return t, nil
}

func (t *SymbolTable) decode(idStr string) (Symbol, error) {
	if t == nil {
		return Symbol(idStr), nil
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return "", wrapParseErr("fsm: symbol id", err)
	}
	if name, ok := t.idToName[id]; ok {
		return name, nil
	}
	return Symbol(idStr), nil
}

func (t *SymbolTable) encode(s Symbol) string {
	if t != nil {
		if id, ok := t.nameToID[s]; ok {
			return strconv.Itoa(id)
		}
	}
	return string(s)
}

// ParseFSMSFA parses an SFA in FSM form. symtab may be nil.
func ParseFSMSFA(r io.Reader, alg *predicate.Algebra[Symbol], symtab *SymbolTable) (*sfa.Automaton[Symbol], error) {
	lines, maxState, err := fsmScanLines(r)
	if err != nil {
		return nil, err
	}
	b := sfa.NewBuilder(alg, maxState+1)
	b.SetInitial(0)
	for _, ln := range lines {
		if len(ln) == 1 {
			s, err := strconv.Atoi(ln[0])
			if err != nil {
				return nil, wrapParseErr("fsm: final state", err)
			}
			b.SetFinal(s)
			continue
		}
		if len(ln) < 3 {
			return nil, parseErrf("fsm: bad transition line %v", ln)
		}
		src, err := strconv.Atoi(ln[0])
		if err != nil {
			return nil, wrapParseErr("fsm: src", err)
		}
		dst, err := strconv.Atoi(ln[1])
		if err != nil {
			return nil, wrapParseErr("fsm: dst", err)
		}
		sym, err := symtab.decode(ln[2])
		if err != nil {
			return nil, err
		}
		b.AddMove(src, dst, predicate.In_(sym))
	}
	return b.Build(), nil
}

// fsmScanLines splits every non-blank, non-comment line into
// whitespace-delimited fields, tracking the largest state id seen so
// the automaton can be sized.
func fsmScanLines(r io.Reader) ([][]string, int, error) {
	sc := bufio.NewScanner(r)
	var lines [][]string
	maxState := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		lines = append(lines, fields)
		limit := len(fields)
		if limit > 2 {
			limit = 2
		}
		for _, f := range fields[:limit] {
			if n, err := strconv.Atoi(f); err == nil && n > maxState {
				maxState = n
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, 0, wrapParseErr("fsm: reading input", err)
	}
	return lines, maxState, nil
}

// ScanAlphabetFSM discovers every symbol mentioned in an FSM source's
// transition columns, decoding through symtab when one is supplied
// (symtab may be nil, in which case a column's decimal text is its own
// symbol name). Used by callers that need to build a shared
// predicate.Algebra before the real ParseFSMSFA/ParseFSMSFT pass.
func ScanAlphabetFSM(r io.Reader, symtab *SymbolTable) ([]Symbol, error) {
	lines, _, err := fsmScanLines(r)
	if err != nil {
		return nil, err
	}
	seen := map[Symbol]struct{}{}
	for _, ln := range lines {
		if len(ln) < 3 {
			continue
		}
		end := len(ln)
		if end > 4 {
			end = 4
		}
		for _, col := range ln[2:end] {
			if col == "" {
				continue
			}
			sym, err := symtab.decode(col)
			if err != nil {
				return nil, err
			}
			seen[sym] = struct{}{}
		}
	}
	out := make([]Symbol, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	return out, nil
}

// PrintFSMSFA emits m in FSM form, decomposing each predicate move
// into one line per symbol in its inclusive set.
func PrintFSMSFA(w io.Writer, m *sfa.Automaton[Symbol], symtab *SymbolTable) error {
	bw := bufio.NewWriter(w)
	if err := fsmWriteTransitionsSFA(bw, m, symtab); err != nil {
		return err
	}
	for _, f := range m.Finals() {
		fmt.Fprintf(bw, "%d\n", f)
	}
	return wrapParseErr("fsm: writing automaton", bw.Flush())
}

func fsmWriteTransitionsSFA(bw *bufio.Writer, m *sfa.Automaton[Symbol], symtab *SymbolTable) error {
	for s := 0; s < m.NumStates(); s++ {
		for _, mv := range m.Moves(s) {
			if mv.IsEpsilon() {
				return parseErrf("fsm: cannot represent an ε-move (fsm has no epsilon column)")
			}
			for _, sym := range m.Algebra().InclusiveSet(*mv.Pred) {
				fmt.Fprintf(bw, "%d %d %s\n", mv.Source, mv.Target, symtab.encode(sym))
			}
		}
	}
	return nil
}

// ParseFSMSFT parses an SFT in FSM form: each transition line carries
// both an input and an output symbol id (`src dst ilabel olabel`).
func ParseFSMSFT(r io.Reader, alg *label.Algebra[Symbol], symtab *SymbolTable) (*sft.Transducer[Symbol], error) {
	lines, maxState, err := fsmScanLines(r)
	if err != nil {
		return nil, err
	}
	b := sft.NewBuilder(alg, maxState+1)
	b.SetInitial(0)
	for _, ln := range lines {
		if len(ln) == 1 {
			s, err := strconv.Atoi(ln[0])
			if err != nil {
				return nil, wrapParseErr("fsm: final state", err)
			}
			b.SetFinal(s)
			continue
		}
		if len(ln) < 4 {
			return nil, parseErrf("fsm: SFT transition line needs src dst ilabel olabel, got %v", ln)
		}
		src, err := strconv.Atoi(ln[0])
		if err != nil {
			return nil, wrapParseErr("fsm: src", err)
		}
		dst, err := strconv.Atoi(ln[1])
		if err != nil {
			return nil, wrapParseErr("fsm: dst", err)
		}
		in, err := symtab.decode(ln[2])
		if err != nil {
			return nil, err
		}
		out, err := symtab.decode(ln[3])
		if err != nil {
			return nil, err
		}
		if in == out {
			b.AddMove(src, dst, label.Identity(predicate.In_(in)))
		} else {
			b.AddMove(src, dst, label.Pair(predicate.In_(in), predicate.In_(out)))
		}
	}
	return b.Build(), nil
}

// PrintFSMSFT emits t in FSM form. An identity label is written as one
// `a a` line per symbol of its predicate. A non-identity label whose
// predicate is a multi-symbol set is decomposed pairwise across the
// in/out inclusive sets; an ε-move has no FSM representation, matching
// PrintFSMSFA's limitation.
func PrintFSMSFT(w io.Writer, t *sft.Transducer[Symbol], symtab *SymbolTable) error {
	bw := bufio.NewWriter(w)
	preds := t.Algebra().Predicates()
	for s := 0; s < t.NumStates(); s++ {
		for _, mv := range t.Moves(s) {
			if mv.IsEpsilon() {
				return parseErrf("fsm: cannot represent an ε-move (fsm has no epsilon column)")
			}
			l := *mv.Lab
			if l.InEpsilon() || l.OutEpsilon() {
				return parseErrf("fsm: cannot represent a label with an ε side (fsm requires both columns)")
			}
			if l.IsIdentity() {
				for _, sym := range preds.InclusiveSet(l.In()) {
					fmt.Fprintf(bw, "%d %d %s %s\n", mv.Source, mv.Target, symtab.encode(sym), symtab.encode(sym))
				}
				continue
			}
			for _, in := range preds.InclusiveSet(l.In()) {
				for _, out := range preds.InclusiveSet(l.Out()) {
					fmt.Fprintf(bw, "%d %d %s %s\n", mv.Source, mv.Target, symtab.encode(in), symtab.encode(out))
				}
			}
		}
	}
	for _, f := range t.Finals() {
		fmt.Fprintf(bw, "%d\n", f)
	}
	return wrapParseErr("fsm: writing transducer", bw.Flush())
}

// WriteSymbolTable emits an external symbol file from the algebra's Σ.
func WriteSymbolTable(w io.Writer, alg *predicate.Algebra[Symbol]) error {
	bw := bufio.NewWriter(w)
	for i, s := range alg.Sigma().Symbols() {
		fmt.Fprintf(bw, "%s %d\n", s.String(), i)
	}
	return wrapParseErr("fsm: writing symbol table", bw.Flush())
}
