package sfa

import (
	"sort"
	"strconv"
	"strings"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/predicate"
)

// Minimize computes a language-equivalent automaton with the fewest
// states, via Moore-style partition refinement over the minterm
// partition of Σ induced by every predicate appearing in the automaton
// (spec §4.3: "Hopcroft-style on minimisation... implementation free").
func Minimize[S alphabet.Symbol](m *Automaton[S]) *Automaton[S] {
	alg := m.alg
	total := MakeTotal(Determinize(m))

	var allPreds []predicate.Predicate[S]
	for s := 0; s < total.numStates; s++ {
		for _, mv := range total.Moves(s) {
			allPreds = append(allPreds, *mv.Pred)
		}
	}
	minterms := alg.Minterms(allPreds...)

	// targetOf[s][i] = the state reached from s on minterms[i].
	targetOf := make([][]int, total.numStates)
	for s := 0; s < total.numStates; s++ {
		targetOf[s] = make([]int, len(minterms))
		for i, mt := range minterms {
			targetOf[s][i] = -1
			for _, mv := range total.Moves(s) {
				if alg.Implies(mt, *mv.Pred) {
					targetOf[s][i] = mv.Target
					break
				}
			}
		}
	}

	block := make([]int, total.numStates)
	for s := 0; s < total.numStates; s++ {
		if total.IsFinal(s) {
			block[s] = 1
		}
	}

	prevCount := maxBlock(block) + 1
	for {
		sig := make([]string, total.numStates)
		for s := 0; s < total.numStates; s++ {
			var sb strings.Builder
			sb.WriteString(strconv.Itoa(block[s]))
			for i := range minterms {
				sb.WriteByte('|')
				t := targetOf[s][i]
				if t < 0 {
					sb.WriteString("x")
				} else {
					sb.WriteString(strconv.Itoa(block[t]))
				}
			}
			sig[s] = sb.String()
		}
		newBlock, numBlocks := relabel(sig)
		block = newBlock
		if numBlocks == prevCount {
			break
		}
		prevCount = numBlocks
	}

	b := NewBuilder(alg, maxBlock(block)+1)
	representative := make([]int, maxBlock(block)+1)
	for s := 0; s < total.numStates; s++ {
		representative[block[s]] = s
	}
	for bl, rep := range representative {
		if total.IsFinal(rep) {
			b.SetFinal(bl)
		}
		for i, mt := range minterms {
			t := targetOf[rep][i]
			if t >= 0 {
				b.AddMove(bl, block[t], mt)
			}
		}
	}
	b.SetInitial(block[total.initial])
	return b.Build()
}

func maxBlock(block []int) int {
	mx := 0
	for _, b := range block {
		if b > mx {
			mx = b
		}
	}
	return mx
}

// relabel groups states by identical signature strings into fresh,
// deterministically ordered block ids.
func relabel(sig []string) ([]int, int) {
	uniq := map[string]int{}
	keys := append([]string{}, sig...)
	sort.Strings(keys)
	dedup := keys[:0]
	seen := map[string]bool{}
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			dedup = append(dedup, k)
		}
	}
	for i, k := range dedup {
		uniq[k] = i
	}
	out := make([]int, len(sig))
	for i, s := range sig {
		out[i] = uniq[s]
	}
	return out, len(dedup)
}
