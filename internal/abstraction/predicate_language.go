package abstraction

import (
	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/sfa"
)

// Direction selects whether λ-propagation (and seeding) runs forward
// (from final states, via reverse moves) or backward (from the
// initial state, via forward moves), per spec §4.5.1's LANGUAGE_DIRECTION.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Heuristic selects the optional refinement heuristic of spec §4.5.1.
type Heuristic int

const (
	HeuristicNone Heuristic = iota
	HeuristicImportantStates
	HeuristicKeyStates
)

type piState struct {
	pi, state int
}

// PredicateLanguageStrategy maintains Π, the growing set of predicate
// automata seeded from configuration and extended by Refine (spec
// §4.5.1).
type PredicateLanguageStrategy[S alphabet.Symbol] struct {
	predAlg   *predicate.Algebra[S]
	direction Direction
	heuristic Heuristic
	pi        []*sfa.Automaton[S]
	// ignore[i] is the set of pi[i]'s states excluded from λ
	// propagation by a refinement heuristic. Entries are only ever
	// added, never removed, across successive Refine calls, which is
	// what "persisted across refinements by union" means here: once a
	// π member's ignore set is fixed at the point it's added, nothing
	// later shrinks it.
	ignore []map[int]struct{}

	cacheM      *sfa.Automaton[S]
	cacheLambda []map[piState]struct{}
}

// NewPredicateLanguageStrategy builds a strategy seeded with Π = seeds
// (spec: "seeded from configuration with any subset of
// {Init, Bad, dom(τᵢ), range(τᵢ)}" — the caller assembles that set).
func NewPredicateLanguageStrategy[S alphabet.Symbol](predAlg *predicate.Algebra[S], direction Direction, heuristic Heuristic, seeds ...*sfa.Automaton[S]) *PredicateLanguageStrategy[S] {
	return &PredicateLanguageStrategy[S]{
		predAlg:   predAlg,
		direction: direction,
		heuristic: heuristic,
		pi:        append([]*sfa.Automaton[S]{}, seeds...),
		ignore:    make([]map[int]struct{}, len(seeds)),
	}
}

func (st *PredicateLanguageStrategy[S]) ignored(idx, state int) bool {
	if st.ignore[idx] == nil {
		return false
	}
	_, ok := st.ignore[idx][state]
	return ok
}

// lambda computes λ: states(m) → 𝒫(Π-states) by the fixed-point
// propagation of spec §4.5.1, via an explicit work-list (no recursion,
// per the §9 design note) so that cycles in m or in a π member are
// handled by push, which skips any (Π-index, Π-state) already in lam.
func (st *PredicateLanguageStrategy[S]) lambda(m *sfa.Automaton[S]) []map[piState]struct{} {
	lam := make([]map[piState]struct{}, m.NumStates())
	for i := range lam {
		lam[i] = map[piState]struct{}{}
	}
	type item struct{ sm, idx, sp int }
	var work []item
	push := func(sm, idx, sp int) {
		if st.ignored(idx, sp) {
			return
		}
		k := piState{idx, sp}
		if _, ok := lam[sm][k]; ok {
			return
		}
		lam[sm][k] = struct{}{}
		work = append(work, item{sm, idx, sp})
	}

	for idx, p := range st.pi {
		if st.direction == Forward {
			for _, fm := range m.Finals() {
				for _, fp := range p.Finals() {
					push(fm, idx, fp)
				}
			}
		} else {
			push(m.Initial(), idx, p.Initial())
		}
	}

	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		p := st.pi[cur.idx]

		var mMoves, pMoves []sfa.Move[S]
		if st.direction == Forward {
			mMoves = m.MovesInto(cur.sm)
			pMoves = p.MovesInto(cur.sp)
		} else {
			mMoves = m.Moves(cur.sm)
			pMoves = p.Moves(cur.sp)
		}
		neighbor := func(mv sfa.Move[S]) int {
			if st.direction == Forward {
				return mv.Source
			}
			return mv.Target
		}

		for _, mv := range mMoves {
			if mv.IsEpsilon() {
				push(neighbor(mv), cur.idx, cur.sp)
				continue
			}
			for _, pv := range pMoves {
				if pv.IsEpsilon() {
					continue
				}
				if st.predAlg.Satisfiable(st.predAlg.And(*mv.Pred, *pv.Pred)) {
					push(neighbor(mv), cur.idx, neighbor(pv))
				}
			}
		}
		for _, pv := range pMoves {
			if pv.IsEpsilon() {
				push(cur.sm, cur.idx, neighbor(pv))
			}
		}
	}
	return lam
}

func (st *PredicateLanguageStrategy[S]) lambdaFor(m *sfa.Automaton[S]) []map[piState]struct{} {
	if st.cacheM == m {
		return st.cacheLambda
	}
	lam := st.lambda(m)
	st.cacheM, st.cacheLambda = m, lam
	return lam
}

// StatesAreEquivalent implements spec §4.5.1's definition: q and q′
// are equivalent iff λ(q) = λ(q′).
func (st *PredicateLanguageStrategy[S]) StatesAreEquivalent(m *sfa.Automaton[S], q, qPrime int) bool {
	lam := st.lambdaFor(m)
	return sameSet(lam[q], lam[qPrime])
}

// Collapse quotients m by λ-equality (spec §4.5.1/§4.3 Collapse).
func (st *PredicateLanguageStrategy[S]) Collapse(m *sfa.Automaton[S]) *sfa.Automaton[S] {
	lam := st.lambdaFor(m)
	return sfa.Collapse(m, func(_ *sfa.Automaton[S], s, rep int) bool {
		return sameSet(lam[s], lam[rep])
	})
}

// Refine appends x to Π and, if a heuristic is configured, restricts
// which of x's states actually participate in λ propagation (spec
// §4.5.1's "Refinement heuristics").
func (st *PredicateLanguageStrategy[S]) Refine(m, x *sfa.Automaton[S]) {
	idx := len(st.pi)
	st.pi = append(st.pi, x)
	st.ignore = append(st.ignore, nil)
	st.cacheM = nil

	if st.heuristic == HeuristicNone {
		return
	}

	important := st.importantStates(m, x, idx)
	if st.heuristic == HeuristicKeyStates {
		keys := sortedKeys(important)
		for _, k := range keys {
			if st.tryIgnoreAllBut(m, x, idx, []int{k}) {
				st.commitIgnore(idx, x, []int{k})
				return
			}
		}
		for i := 0; i < len(keys); i++ {
			for j := i + 1; j < len(keys); j++ {
				pair := []int{keys[i], keys[j]}
				if st.tryIgnoreAllBut(m, x, idx, pair) {
					st.commitIgnore(idx, x, pair)
					return
				}
			}
		}
		// No single state or pair worked: fall through to
		// ImportantStates, same as spec's documented fallback.
	}
	st.commitIgnore(idx, x, sortedKeys(important))
}

// importantStates is I: the x-states that appear in any λ(s_M) once x
// is the newest (fully unignored) π member.
func (st *PredicateLanguageStrategy[S]) importantStates(m, x *sfa.Automaton[S], idx int) map[int]struct{} {
	st.cacheM = nil
	lam := st.lambda(m)
	important := map[int]struct{}{}
	for _, sig := range lam {
		for k := range sig {
			if k.pi == idx {
				important[k.state] = struct{}{}
			}
		}
	}
	return important
}

// tryIgnoreAllBut checks, without committing, whether ignoring every
// x-state except keep still yields Collapse(m) ∩ x = ∅.
func (st *PredicateLanguageStrategy[S]) tryIgnoreAllBut(m, x *sfa.Automaton[S], idx int, keep []int) bool {
	saved := st.ignore[idx]
	st.ignore[idx] = complementOf(x.NumStates(), keep)
	st.cacheM = nil
	lam := st.lambda(m)
	collapsed := sfa.Collapse(m, func(_ *sfa.Automaton[S], s, rep int) bool {
		return sameSet(lam[s], lam[rep])
	})
	ok := sfa.ProductIsEmpty(collapsed, x)
	st.ignore[idx] = saved
	st.cacheM = nil
	return ok
}

func (st *PredicateLanguageStrategy[S]) commitIgnore(idx int, x *sfa.Automaton[S], keep []int) {
	st.ignore[idx] = complementOf(x.NumStates(), keep)
	st.cacheM = nil
}

func complementOf(n int, keep []int) map[int]struct{} {
	keepSet := map[int]struct{}{}
	for _, k := range keep {
		keepSet[k] = struct{}{}
	}
	out := map[int]struct{}{}
	for s := 0; s < n; s++ {
		if _, ok := keepSet[s]; !ok {
			out[s] = struct{}{}
		}
	}
	return out
}
