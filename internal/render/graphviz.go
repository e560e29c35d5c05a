// Package render emits Graphviz DOT source for SFAs and SFTs (spec §6:
// "DOT (for visualisation only)") and, when an image format is
// configured, shells out to the external `dot` binary to rasterise it.
// Adapted from the teacher's KripkeStructure.GenerateGraphviz/
// SaveGraphviz: the DOT-building shape (strings.Builder, one node
// block then one edge block) is kept, generalised from a single
// hard-coded KripkeStructure to the generic sfa.Automaton/sft.Transducer
// spec §6 names; SaveGraphviz's print-only stub is replaced with an
// actual subprocess call that returns real errors.
package render

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/armcerr"
	"github.com/armcheck/armc/internal/sfa"
	"github.com/armcheck/armc/internal/sft"
	"github.com/armcheck/armc/internal/stats"
)

// DOTSFA renders m as Graphviz DOT source.
func DOTSFA[S alphabet.Symbol](m *sfa.Automaton[S]) string {
	var sb strings.Builder
	name := m.Name()
	if name == "" {
		name = "M"
	}
	sb.WriteString("digraph " + dotQuoteIdent(name) + " {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=circle];\n\n")

	sb.WriteString("  __start [shape=point];\n")
	fmt.Fprintf(&sb, "  __start -> %s;\n\n", dotNode(m, m.Initial()))

	for s := 0; s < m.NumStates(); s++ {
		shape := "circle"
		if m.IsFinal(s) {
			shape = "doublecircle"
		}
		fmt.Fprintf(&sb, "  %s [shape=%s,label=%q];\n", dotNode(m, s), shape, dotStateLabel(m, s))
	}
	sb.WriteString("\n")

	for s := 0; s < m.NumStates(); s++ {
		for _, mv := range m.Moves(s) {
			label := "ε"
			if !mv.IsEpsilon() {
				label = mv.Pred.String()
			}
			fmt.Fprintf(&sb, "  %s -> %s [label=%q];\n", dotNode(m, mv.Source), dotNode(m, mv.Target), label)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// DOTSFT renders t as Graphviz DOT source.
func DOTSFT[S alphabet.Symbol](t *sft.Transducer[S]) string {
	var sb strings.Builder
	name := t.Name()
	if name == "" {
		name = "Tau"
	}
	sb.WriteString("digraph " + dotQuoteIdent(name) + " {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=circle];\n\n")

	sb.WriteString("  __start [shape=point];\n")
	fmt.Fprintf(&sb, "  __start -> s%d;\n\n", t.Initial())

	for s := 0; s < t.NumStates(); s++ {
		shape := "circle"
		if t.IsFinal(s) {
			shape = "doublecircle"
		}
		label := fmt.Sprintf("%d", s)
		if n, ok := t.StateName(s); ok {
			label = n
		}
		fmt.Fprintf(&sb, "  s%d [shape=%s,label=%q];\n", s, shape, label)
	}
	sb.WriteString("\n")

	for s := 0; s < t.NumStates(); s++ {
		for _, mv := range t.Moves(s) {
			label := "ε"
			if !mv.IsEpsilon() {
				label = mv.Lab.String()
			}
			fmt.Fprintf(&sb, "  s%d -> s%d [label=%q];\n", mv.Source, mv.Target, label)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func dotQuoteIdent(s string) string {
	return fmt.Sprintf("%q", s)
}

func dotNode[S alphabet.Symbol](m *sfa.Automaton[S], s int) string {
	return fmt.Sprintf("s%d", s)
}

func dotStateLabel[S alphabet.Symbol](m *sfa.Automaton[S], s int) string {
	if n, ok := m.StateName(s); ok {
		return n
	}
	return fmt.Sprintf("%d", s)
}

// ImageFormat is one of spec §6's IMAGE_FORMAT values.
type ImageFormat string

const (
	GIF ImageFormat = "gif"
	JPG ImageFormat = "jpg"
	PDF ImageFormat = "pdf"
	PNG ImageFormat = "png"
	SVG ImageFormat = "svg"
)

// RenderImage pipes dotSource into an external `dot -T<format>` process
// and writes its stdout to outPath, pausing sw around the subprocess
// call (spec §5: "stopwatch ... paused around I/O").
func RenderImage(dotSource string, format ImageFormat, outPath string, sw *stats.Stopwatch) error {
	if sw != nil {
		sw.Pause()
		defer sw.Resume()
	}

	cmd := exec.Command("dot", "-T"+string(format))
	cmd.Stdin = strings.NewReader(dotSource)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return armcerr.ARMCError(fmt.Sprintf("dot: %s", strings.TrimSpace(stderr.String())), err)
	}

	if err := os.WriteFile(outPath, stdout.Bytes(), 0o644); err != nil {
		return armcerr.ARMCError("writing rendered image", err)
	}
	return nil
}

// SaveGraphviz writes dotSource to outPath verbatim (the `.dot` file
// itself, independent of any rasterised image).
func SaveGraphviz(dotSource, outPath string) error {
	if err := os.WriteFile(outPath, []byte(dotSource), 0o644); err != nil {
		return armcerr.ARMCError("writing DOT file", err)
	}
	return nil
}
