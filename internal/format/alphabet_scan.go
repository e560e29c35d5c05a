package format

import (
	"io"
	"regexp"
	"sort"

	"github.com/armcheck/armc/internal/armcerr"
)

var (
	bracketGroup  = regexp.MustCompile(`\b(?:in|not_in)\{([^}]*)\}`)
	pairLabel     = regexp.MustCompile(`([A-Za-z0-9_]+)/([A-Za-z0-9_]+|\[\])`)
	timbukBareAbv = regexp.MustCompile(`^([A-Za-z0-9_]+)\(\d+\)\s*->\s*\d+$`)
)

// ScanAlphabet discovers every symbol mentioned in a Timbuk or FSA
// source (both use the same `in{…}`/`not_in{…}`/bare-symbol/`X/Y`
// grammar for labels, per spec §6), so the caller can build one shared
// predicate.Algebra before parsing init/bad/tau against it. It does
// not validate the file's structure; ParseTimbukSFA/ParseFSASFA do
// that on the real pass.
func ScanAlphabet(r io.Reader) ([]Symbol, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, armcerr.ParserError("scanning alphabet", err)
	}
	text := string(data)

	seen := map[Symbol]struct{}{}
	add := func(s string) {
		if s == "" || s == "[]" {
			return
		}
		seen[Symbol(s)] = struct{}{}
	}

	for _, m := range bracketGroup.FindAllStringSubmatch(text, -1) {
		for _, sym := range symbolsOf(m[1]) {
			add(string(sym))
		}
	}
	for _, m := range pairLabel.FindAllStringSubmatch(text, -1) {
		add(m[1])
		add(m[2])
	}
	for _, line := range splitLines(text) {
		if m := timbukBareAbv.FindStringSubmatch(line); m != nil {
			add(m[1])
		}
	}

	out := make([]Symbol, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func splitLines(text string) []string {
	var lines []string
	start := 0
	for i, c := range text {
		if c == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	lines = append(lines, text[start:])
	return lines
}
