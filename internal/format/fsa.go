package format

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/armcheck/armc/internal/label"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/sfa"
	"github.com/armcheck/armc/internal/sft"
)

// FSA is the Prolog-style format spec §6 names: a single `fa(...)`
// term whose arguments are the automaton's name, state list, initial
// state, final-state list, transition list and predicate module
// (`fsa_preds` or `fsa_frozen` — both accepted on parse, both written
// as `fsa_preds`; the module only distinguishes which predicate
// representation a real FSA toolchain would use internally, and this
// package always uses the `(kind, S⊆Σ)` representation of
// `internal/predicate` regardless). Epsilon (a structural ε-move) is
// written `[]`, matching spec §6's "epsilon as []".
//
// Transitions are `trans(Src,Label,Dst)` for an SFA and
// `trans(Src,InLabel,OutLabel,Dst)` for an SFT. An SFT transition with
// InLabel and OutLabel textually equal (and not `[]`) is read back as
// an IDENTITY label: `label.Pair(p,p)` and `label.Identity(p)` denote
// the same relation, so collapsing that distinction in this format
// only (Timbuk keeps it, via its explicit `@` marker) loses no
// semantics, only which of two equivalent internal shapes round-trips.
// A structural ε-move is `trans(Src,[],[],Dst)` for an SFT — the
// otherwise-unconstructable "both sides ε" pair repurposed as that
// sentinel.

// tokenizer

type tokKind int

const (
	tokAtom tokKind = iota
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokDot
	tokEOF
)

type token struct {
	kind tokKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '%': // Prolog-style line comment
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '[':
			toks = append(toks, token{tokLBracket, "["})
			i++
		case c == ']':
			toks = append(toks, token{tokRBracket, "]"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '.' && (i+1 >= len(s) || s[i+1] == ' ' || s[i+1] == '\n' || s[i+1] == '\r' || s[i+1] == '\t'):
			toks = append(toks, token{tokDot, "."})
			i++
		default:
			start := i
			for i < len(s) && !strings.ContainsRune("()[], \t\n\r", rune(s[i])) {
				if s[i] == '{' {
					depth := 1
					i++
					for i < len(s) && depth > 0 {
						if s[i] == '{' {
							depth++
						} else if s[i] == '}' {
							depth--
						}
						i++
					}
					continue
				}
				i++
			}
			if i == start {
				return nil, parseErrf("fsa: unexpected character %q", string(c))
			}
			toks = append(toks, token{tokAtom, s[start:i]})
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

// term is a minimal Prolog term: an atom, a list, or a compound
// (functor + args).
type term struct {
	atom    string
	isList  bool
	list    []term
	functor string
	args    []term
}

type termParser struct {
	toks []token
	pos  int
}

func (p *termParser) peek() token { return p.toks[p.pos] }
func (p *termParser) next() token { t := p.toks[p.pos]; p.pos++; return t }

func (p *termParser) parseTerm() (term, error) {
	t := p.peek()
	switch t.kind {
	case tokLBracket:
		p.next()
		var items []term
		if p.peek().kind != tokRBracket {
			for {
				item, err := p.parseTerm()
				if err != nil {
					return term{}, err
				}
				items = append(items, item)
				if p.peek().kind == tokComma {
					p.next()
					continue
				}
				break
			}
		}
		if p.peek().kind != tokRBracket {
			return term{}, parseErrf("fsa: expected ]")
		}
		p.next()
		return term{isList: true, list: items}, nil
	case tokAtom:
		p.next()
		if p.peek().kind == tokLParen {
			p.next()
			var args []term
			if p.peek().kind != tokRParen {
				for {
					arg, err := p.parseTerm()
					if err != nil {
						return term{}, err
					}
					args = append(args, arg)
					if p.peek().kind == tokComma {
						p.next()
						continue
					}
					break
				}
			}
			if p.peek().kind != tokRParen {
				return term{}, parseErrf("fsa: expected )")
			}
			p.next()
			return term{functor: t.text, args: args}, nil
		}
		return term{atom: t.text}, nil
	default:
		return term{}, parseErrf("fsa: unexpected token %q", t.text)
	}
}

func parseFSATerm(r io.Reader) (term, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return term{}, wrapParseErr("fsa: reading input", err)
	}
	toks, err := tokenize(string(data))
	if err != nil {
		return term{}, err
	}
	p := &termParser{toks: toks}
	root, err := p.parseTerm()
	if err != nil {
		return term{}, err
	}
	if root.functor != "fa" {
		return term{}, parseErrf("fsa: expected fa(...) term, got functor %q", root.functor)
	}
	return root, nil
}

// stateIndex maps each atom in a Prolog state list to a dense integer
// id, in list order.
func stateIndex(states term) (map[string]int, int, error) {
	if !states.isList {
		return nil, 0, parseErrf("fsa: state list is not a list")
	}
	idx := map[string]int{}
	for i, s := range states.list {
		if s.atom == "" {
			return nil, 0, parseErrf("fsa: state list entry is not an atom")
		}
		if _, dup := idx[s.atom]; dup {
			return nil, 0, parseErrf("fsa: duplicate state %q", s.atom)
		}
		idx[s.atom] = i
	}
	return idx, len(states.list), nil
}

func intList(t term, idx map[string]int) ([]int, error) {
	if !t.isList {
		return nil, parseErrf("fsa: expected a list")
	}
	out := make([]int, 0, len(t.list))
	for _, e := range t.list {
		id, ok := idx[e.atom]
		if !ok {
			return nil, parseErrf("fsa: unknown state %q", e.atom)
		}
		out = append(out, id)
	}
	return out, nil
}

func fsaPred(tok string) (predicate.Predicate[Symbol], error) {
	return parsePredicateExpr(tok)
}

// ParseFSASFA parses an SFA in FSA (Prolog `fa(...)`) form.
func ParseFSASFA(r io.Reader, alg *predicate.Algebra[Symbol]) (*sfa.Automaton[Symbol], error) {
	root, err := parseFSATerm(r)
	if err != nil {
		return nil, err
	}
	if len(root.args) < 5 {
		return nil, parseErrf("fsa: fa/N term needs at least 5 arguments")
	}
	name := root.args[0].atom
	idx, n, err := stateIndex(root.args[1])
	if err != nil {
		return nil, err
	}
	initID, ok := idx[root.args[2].atom]
	if !ok {
		return nil, parseErrf("fsa: unknown initial state %q", root.args[2].atom)
	}
	finals, err := intList(root.args[3], idx)
	if err != nil {
		return nil, err
	}

	b := sfa.NewBuilder(alg, n)
	b.SetInitial(initID)
	for _, f := range finals {
		b.SetFinal(f)
	}
	if name != "" {
		b.SetName(name)
	}
	for atom, id := range idx {
		b.SetStateName(id, atom)
	}

	if !root.args[4].isList {
		return nil, parseErrf("fsa: transition list is not a list")
	}
	for _, tr := range root.args[4].list {
		if tr.functor != "trans" || len(tr.args) != 3 {
			return nil, parseErrf("fsa: expected trans(Src,Label,Dst)")
		}
		src, ok := idx[tr.args[0].atom]
		if !ok {
			return nil, parseErrf("fsa: unknown state %q", tr.args[0].atom)
		}
		dst, ok := idx[tr.args[2].atom]
		if !ok {
			return nil, parseErrf("fsa: unknown state %q", tr.args[2].atom)
		}
		labelTok := tr.args[1].atom
		if labelTok == "[]" {
			b.AddEpsilon(src, dst)
			continue
		}
		p, err := fsaPred(labelTok)
		if err != nil {
			return nil, err
		}
		b.AddMove(src, dst, p)
	}
	return b.Build(), nil
}

func quoteStateName(s string) string {
	if s == "" {
		return "s"
	}
	return s
}

func stateAtoms(numStates int, names map[int]string) []string {
	out := make([]string, numStates)
	for i := range out {
		if n, ok := names[i]; ok {
			out[i] = quoteStateName(n)
		} else {
			out[i] = fmt.Sprintf("s%d", i)
		}
	}
	return out
}

func collectNames(numStates int, stateName func(int) (string, bool)) map[int]string {
	out := map[int]string{}
	for i := 0; i < numStates; i++ {
		if n, ok := stateName(i); ok {
			out[i] = n
		}
	}
	return out
}

// PrintFSASFA emits m as a `fa(...)` term.
func PrintFSASFA(w io.Writer, m *sfa.Automaton[Symbol]) error {
	bw := bufio.NewWriter(w)
	atoms := stateAtoms(m.NumStates(), collectNames(m.NumStates(), m.StateName))
	name := m.Name()
	if name == "" {
		name = "armc"
	}
	fmt.Fprintf(bw, "fa(%s,\n   [%s],\n   %s,\n   [%s],\n   [",
		name, strings.Join(atoms, ","), atoms[m.Initial()], joinAtoms(atoms, m.Finals()))
	first := true
	for s := 0; s < m.NumStates(); s++ {
		for _, mv := range m.Moves(s) {
			if !first {
				fmt.Fprint(bw, ",\n    ")
			}
			first = false
			labelTok := "[]"
			if !mv.IsEpsilon() {
				labelTok = mv.Pred.String()
			}
			fmt.Fprintf(bw, "trans(%s,%s,%s)", atoms[mv.Source], labelTok, atoms[mv.Target])
		}
	}
	fmt.Fprintf(bw, "],\n   fsa_preds).\n")
	return wrapParseErr("fsa: writing automaton", bw.Flush())
}

func joinAtoms(atoms []string, ids []int) string {
	sorted := append([]int{}, ids...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = atoms[id]
	}
	return strings.Join(parts, ",")
}

// ParseFSASFT parses an SFT in FSA form (trans/4: Src,InLabel,OutLabel,Dst).
func ParseFSASFT(r io.Reader, alg *label.Algebra[Symbol]) (*sft.Transducer[Symbol], error) {
	root, err := parseFSATerm(r)
	if err != nil {
		return nil, err
	}
	if len(root.args) < 5 {
		return nil, parseErrf("fsa: fa/N term needs at least 5 arguments")
	}
	name := root.args[0].atom
	idx, n, err := stateIndex(root.args[1])
	if err != nil {
		return nil, err
	}
	initID, ok := idx[root.args[2].atom]
	if !ok {
		return nil, parseErrf("fsa: unknown initial state %q", root.args[2].atom)
	}
	finals, err := intList(root.args[3], idx)
	if err != nil {
		return nil, err
	}

	b := sft.NewBuilder(alg, n)
	b.SetInitial(initID)
	for _, f := range finals {
		b.SetFinal(f)
	}
	if name != "" {
		b.SetName(name)
	}
	for atom, id := range idx {
		b.SetStateName(id, atom)
	}

	if !root.args[4].isList {
		return nil, parseErrf("fsa: transition list is not a list")
	}
	for _, tr := range root.args[4].list {
		if tr.functor != "trans" || len(tr.args) != 4 {
			return nil, parseErrf("fsa: expected trans(Src,InLabel,OutLabel,Dst)")
		}
		src, ok := idx[tr.args[0].atom]
		if !ok {
			return nil, parseErrf("fsa: unknown state %q", tr.args[0].atom)
		}
		dst, ok := idx[tr.args[3].atom]
		if !ok {
			return nil, parseErrf("fsa: unknown state %q", tr.args[3].atom)
		}
		inTok, outTok := tr.args[1].atom, tr.args[2].atom
		switch {
		case inTok == "[]" && outTok == "[]":
			b.AddEpsilon(src, dst)
		case inTok == "[]":
			p, err := fsaPred(outTok)
			if err != nil {
				return nil, err
			}
			b.AddMove(src, dst, label.PairEpsilonIn(p))
		case outTok == "[]":
			p, err := fsaPred(inTok)
			if err != nil {
				return nil, err
			}
			b.AddMove(src, dst, label.PairEpsilonOut(p))
		case inTok == outTok:
			p, err := fsaPred(inTok)
			if err != nil {
				return nil, err
			}
			b.AddMove(src, dst, label.Identity(p))
		default:
			pin, err := fsaPred(inTok)
			if err != nil {
				return nil, err
			}
			pout, err := fsaPred(outTok)
			if err != nil {
				return nil, err
			}
			b.AddMove(src, dst, label.Pair(pin, pout))
		}
	}
	return b.Build(), nil
}

// PrintFSASFT emits t as a `fa(...)` term with trans/4 transitions.
func PrintFSASFT(w io.Writer, t *sft.Transducer[Symbol]) error {
	bw := bufio.NewWriter(w)
	atoms := stateAtoms(t.NumStates(), collectNames(t.NumStates(), t.StateName))
	name := t.Name()
	if name == "" {
		name = "armc"
	}
	fmt.Fprintf(bw, "fa(%s,\n   [%s],\n   %s,\n   [%s],\n   [",
		name, strings.Join(atoms, ","), atoms[t.Initial()], joinAtoms(atoms, t.Finals()))
	first := true
	for s := 0; s < t.NumStates(); s++ {
		for _, mv := range t.Moves(s) {
			if !first {
				fmt.Fprint(bw, ",\n    ")
			}
			first = false
			inTok, outTok := "[]", "[]"
			if !mv.IsEpsilon() {
				l := *mv.Lab
				if l.IsIdentity() {
					inTok, outTok = l.In().String(), l.In().String()
				} else {
					if !l.InEpsilon() {
						inTok = l.In().String()
					}
					if !l.OutEpsilon() {
						outTok = l.Out().String()
					}
				}
			}
			fmt.Fprintf(bw, "trans(%s,%s,%s,%s)", atoms[mv.Source], inTok, outTok, atoms[mv.Target])
		}
	}
	fmt.Fprintf(bw, "],\n   fsa_preds).\n")
	return wrapParseErr("fsa: writing transducer", bw.Flush())
}
