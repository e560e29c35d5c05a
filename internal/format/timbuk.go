package format

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/armcheck/armc/internal/label"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/sfa"
	"github.com/armcheck/armc/internal/sft"
)

// Timbuk's header is a handful of `Key: value` lines followed by a
// `Transitions:` marker, then one `<label>(<src>) -> <dst>` line per
// move. The label grammar is the one spec §6 names: `in{...}`/
// `not_in{...}` (or `predicate.Predicate.String`'s textual form
// generally), a bare single-symbol abbreviation, `eps` for a
// structural ε-move, and for transducers `X/Y` or `@P/@P` for identity
// (matching `label.Label.String`, except ε sides print as `[]` there
// and as `[]` here too, so the printer and `Label.String` agree).

var timbukHeaderLine = regexp.MustCompile(`^(\w+):\s*(.*)$`)
var timbukTransitionLine = regexp.MustCompile(`^(.+)\((\d+)\)\s*->\s*(\d+)$`)

type timbukHeader struct {
	name       string
	numStates  int
	initial    int
	hasInitial bool
	finals     []int
	stateNames map[int]string
}

func parseTimbukHeader(sc *bufio.Scanner) (timbukHeader, error) {
	h := timbukHeader{initial: -1, stateNames: map[int]string{}}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "Transitions:" {
			return h, nil
		}
		m := timbukHeaderLine.FindStringSubmatch(line)
		if m == nil {
			return h, parseErrf("timbuk: bad header line %q", line)
		}
		key, val := m[1], strings.TrimSpace(m[2])
		switch key {
		case "Name":
			h.name = val
		case "States":
			n, err := strconv.Atoi(val)
			if err != nil {
				return h, wrapParseErr("timbuk: States", err)
			}
			h.numStates = n
		case "Initial":
			n, err := strconv.Atoi(val)
			if err != nil {
				return h, wrapParseErr("timbuk: Initial", err)
			}
			h.initial, h.hasInitial = n, true
		case "Final":
			for _, tok := range strings.Fields(val) {
				n, err := strconv.Atoi(tok)
				if err != nil {
					return h, wrapParseErr("timbuk: Final", err)
				}
				h.finals = append(h.finals, n)
			}
		case "StateNames":
			for _, tok := range strings.Fields(val) {
				parts := strings.SplitN(tok, "=", 2)
				if len(parts) != 2 {
					return h, parseErrf("timbuk: bad StateNames entry %q", tok)
				}
				id, err := strconv.Atoi(parts[0])
				if err != nil {
					return h, wrapParseErr("timbuk: StateNames", err)
				}
				h.stateNames[id] = parts[1]
			}
		default:
			return h, parseErrf("timbuk: unknown header key %q", key)
		}
	}
	return h, parseErrf("timbuk: missing Transitions: section")
}

func parsePredicateExpr(tok string) (predicate.Predicate[Symbol], error) {
	if m := regexp.MustCompile(`^in\{(.*)\}$`).FindStringSubmatch(tok); m != nil {
		return predicate.In_(symbolsOf(m[1])...), nil
	}
	if m := regexp.MustCompile(`^not_in\{(.*)\}$`).FindStringSubmatch(tok); m != nil {
		return predicate.NotIn_(symbolsOf(m[1])...), nil
	}
	if tok == "" {
		return predicate.Predicate[Symbol]{}, parseErrf("timbuk: empty predicate expression")
	}
	// Bare single-symbol abbreviation.
	return predicate.In_(Symbol(tok)), nil
}

func symbolsOf(list string) []Symbol {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]Symbol, 0, len(parts))
	for _, p := range parts {
		out = append(out, Symbol(strings.TrimSpace(p)))
	}
	return out
}

// ParseTimbukSFA parses an SFA in Timbuk form.
func ParseTimbukSFA(r io.Reader, alg *predicate.Algebra[Symbol]) (*sfa.Automaton[Symbol], error) {
	sc := bufio.NewScanner(r)
	h, err := parseTimbukHeader(sc)
	if err != nil {
		return nil, err
	}
	if !h.hasInitial {
		return nil, parseErrf("timbuk: missing Initial:")
	}
	b := sfa.NewBuilder(alg, h.numStates)
	b.SetInitial(h.initial)
	for _, f := range h.finals {
		b.SetFinal(f)
	}
	if h.name != "" {
		b.SetName(h.name)
	}
	for id, name := range h.stateNames {
		b.SetStateName(id, name)
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := timbukTransitionLine.FindStringSubmatch(line)
		if m == nil {
			return nil, parseErrf("timbuk: bad transition line %q", line)
		}
		labelTok, src, dst := strings.TrimSpace(m[1]), m[2], m[3]
		srcN, _ := strconv.Atoi(src)
		dstN, _ := strconv.Atoi(dst)
		if labelTok == "eps" {
			b.AddEpsilon(srcN, dstN)
			continue
		}
		p, err := parsePredicateExpr(labelTok)
		if err != nil {
			return nil, err
		}
		b.AddMove(srcN, dstN, p)
	}
	if err := sc.Err(); err != nil {
		return nil, wrapParseErr("timbuk: reading transitions", err)
	}
	return b.Build(), nil
}

// PrintTimbukSFA emits m in Timbuk form.
func PrintTimbukSFA(w io.Writer, m *sfa.Automaton[Symbol]) error {
	bw := bufio.NewWriter(w)
	if m.Name() != "" {
		fmt.Fprintf(bw, "Name: %s\n", m.Name())
	}
	fmt.Fprintf(bw, "States: %d\n", m.NumStates())
	fmt.Fprintf(bw, "Initial: %d\n", m.Initial())
	fmt.Fprintf(bw, "Final: %s\n", joinInts(m.Finals()))
	if names := stateNamesLine(m); names != "" {
		fmt.Fprintf(bw, "StateNames: %s\n", names)
	}
	fmt.Fprintln(bw, "Transitions:")
	for s := 0; s < m.NumStates(); s++ {
		for _, mv := range m.Moves(s) {
			if mv.IsEpsilon() {
				fmt.Fprintf(bw, "eps(%d) -> %d\n", mv.Source, mv.Target)
				continue
			}
			fmt.Fprintf(bw, "%s(%d) -> %d\n", mv.Pred.String(), mv.Source, mv.Target)
		}
	}
	return wrapParseErr("timbuk: writing automaton", bw.Flush())
}

func joinInts(xs []int) string {
	sorted := append([]int{}, xs...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, x := range sorted {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " ")
}

func stateNamesLine(m interface {
	NumStates() int
	StateName(int) (string, bool)
}) string {
	var parts []string
	for s := 0; s < m.NumStates(); s++ {
		if name, ok := m.StateName(s); ok {
			parts = append(parts, fmt.Sprintf("%d=%s", s, name))
		}
	}
	return strings.Join(parts, " ")
}

// parseLabel parses an SFT label token: "eps" for a structural
// ε-move, "@P/@P" for IDENTITY(P) (matching label.Label.String; the
// short "@P" is accepted too, and the two sides of "@P/@P" must be the
// same text), "[]/Y" / "X/[]" for a PAIR with one ε side, or "X/Y" for
// a plain PAIR.
func parseLabel(tok string) (*label.Label[Symbol], error) {
	if tok == "eps" {
		return nil, nil
	}
	if strings.HasPrefix(tok, "@") {
		body := strings.TrimPrefix(tok, "@")
		if i := strings.Index(body, "/@"); i >= 0 {
			if body[:i] != body[i+2:] {
				return nil, parseErrf("timbuk: invalid identity label %q (sides differ)", tok)
			}
			body = body[:i]
		}
		p, err := parsePredicateExpr(body)
		if err != nil {
			return nil, err
		}
		l := label.Identity(p)
		return &l, nil
	}
	parts := strings.SplitN(tok, "/", 2)
	if len(parts) != 2 {
		return nil, parseErrf("timbuk: bad SFT label %q", tok)
	}
	in, out := parts[0], parts[1]
	switch {
	case in == "[]" && out == "[]":
		return nil, parseErrf("timbuk: label %q has both sides ε, which is unconstructable (use eps for a structural ε-move)", tok)
	case in == "[]":
		p, err := parsePredicateExpr(out)
		if err != nil {
			return nil, err
		}
		l := label.PairEpsilonIn(p)
		return &l, nil
	case out == "[]":
		p, err := parsePredicateExpr(in)
		if err != nil {
			return nil, err
		}
		l := label.PairEpsilonOut(p)
		return &l, nil
	default:
		pin, err := parsePredicateExpr(in)
		if err != nil {
			return nil, err
		}
		pout, err := parsePredicateExpr(out)
		if err != nil {
			return nil, err
		}
		l := label.Pair(pin, pout)
		return &l, nil
	}
}

func printLabel(l label.Label[Symbol]) string {
	if l.IsIdentity() {
		p := l.In().String()
		return "@" + p + "/@" + p
	}
	in, out := "[]", "[]"
	if !l.InEpsilon() {
		in = l.In().String()
	}
	if !l.OutEpsilon() {
		out = l.Out().String()
	}
	return in + "/" + out
}

// ParseTimbukSFT parses an SFT in Timbuk form.
func ParseTimbukSFT(r io.Reader, alg *label.Algebra[Symbol]) (*sft.Transducer[Symbol], error) {
	sc := bufio.NewScanner(r)
	h, err := parseTimbukHeader(sc)
	if err != nil {
		return nil, err
	}
	if !h.hasInitial {
		return nil, parseErrf("timbuk: missing Initial:")
	}
	b := sft.NewBuilder(alg, h.numStates)
	b.SetInitial(h.initial)
	for _, f := range h.finals {
		b.SetFinal(f)
	}
	if h.name != "" {
		b.SetName(h.name)
	}
	for id, name := range h.stateNames {
		b.SetStateName(id, name)
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := timbukTransitionLine.FindStringSubmatch(line)
		if m == nil {
			return nil, parseErrf("timbuk: bad transition line %q", line)
		}
		labelTok, src, dst := strings.TrimSpace(m[1]), m[2], m[3]
		srcN, _ := strconv.Atoi(src)
		dstN, _ := strconv.Atoi(dst)
		lab, err := parseLabel(labelTok)
		if err != nil {
			return nil, err
		}
		if lab == nil {
			b.AddEpsilon(srcN, dstN)
		} else {
			b.AddMove(srcN, dstN, *lab)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, wrapParseErr("timbuk: reading transitions", err)
	}
	return b.Build(), nil
}

// PrintTimbukSFT emits t in Timbuk form.
func PrintTimbukSFT(w io.Writer, t *sft.Transducer[Symbol]) error {
	bw := bufio.NewWriter(w)
	if t.Name() != "" {
		fmt.Fprintf(bw, "Name: %s\n", t.Name())
	}
	fmt.Fprintf(bw, "States: %d\n", t.NumStates())
	fmt.Fprintf(bw, "Initial: %d\n", t.Initial())
	fmt.Fprintf(bw, "Final: %s\n", joinInts(t.Finals()))
	if names := stateNamesLine(t); names != "" {
		fmt.Fprintf(bw, "StateNames: %s\n", names)
	}
	fmt.Fprintln(bw, "Transitions:")
	for s := 0; s < t.NumStates(); s++ {
		for _, mv := range t.Moves(s) {
			if mv.IsEpsilon() {
				fmt.Fprintf(bw, "eps(%d) -> %d\n", mv.Source, mv.Target)
				continue
			}
			fmt.Fprintf(bw, "%s(%d) -> %d\n", printLabel(*mv.Lab), mv.Source, mv.Target)
		}
	}
	return wrapParseErr("timbuk: writing transducer", bw.Flush())
}
