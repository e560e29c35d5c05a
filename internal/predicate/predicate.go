// Package predicate implements the boolean algebra on subsets of a
// finite alphabet Σ described in spec §3 and §4.1: predicates are kept
// in an explicit (kind, S⊆Σ) representation rather than normalised into
// any single canonical form, so two structurally different predicates
// may denote the same set — every comparison goes through Equivalent,
// never Go's == on the struct.
package predicate

import (
	"fmt"
	"sort"

	"github.com/armcheck/armc/internal/alphabet"
)

// Kind distinguishes the inclusive and complemented representations of
// spec §3.
type Kind int

const (
	// In denotes ⟦(IN,S)⟧ = S.
	In Kind = iota
	// NotIn denotes ⟦(NOT_IN,S)⟧ = Σ ∖ S.
	NotIn
)

func (k Kind) String() string {
	if k == In {
		return "in"
	}
	return "not_in"
}

// Predicate is an immutable (kind, S) pair over some alphabet. Values
// are never mutated in place; every operation below returns a fresh
// Predicate.
type Predicate[S alphabet.Symbol] struct {
	kind Kind
	set  map[S]struct{}
}

// Kind reports whether p is in inclusive or complemented form.
func (p Predicate[S]) Kind() Kind { return p.kind }

// Set returns the raw S of (kind, S), in no particular order. Callers
// that need determinism should sort by String().
func (p Predicate[S]) Set() []S {
	out := make([]S, 0, len(p.set))
	for s := range p.set {
		out = append(out, s)
	}
	return out
}

func newPredicate[S alphabet.Symbol](kind Kind, set map[S]struct{}) Predicate[S] {
	return Predicate[S]{kind: kind, set: set}
}

func setOf[S alphabet.Symbol](symbols ...S) map[S]struct{} {
	m := make(map[S]struct{}, len(symbols))
	for _, s := range symbols {
		m[s] = struct{}{}
	}
	return m
}

// In builds an inclusive predicate (IN, {symbols}).
func In_[S alphabet.Symbol](symbols ...S) Predicate[S] {
	return newPredicate(In, setOf(symbols...))
}

// NotIn builds a complemented predicate (NOT_IN, {symbols}).
func NotIn_[S alphabet.Symbol](symbols ...S) Predicate[S] {
	return newPredicate(NotIn, setOf(symbols...))
}

// Algebra is the boolean algebra on subsets of a fixed Σ, shared by
// every automaton built over that Σ (spec §3: "an in-memory table keyed
// by Σ... returns a canonical algebra per alphabet").
type Algebra[S alphabet.Symbol] struct {
	sigma alphabet.Sigma[S]
}

// NewAlgebra constructs the algebra for sigma directly. Core code should
// generally go through a shared alphabet.Registry instead of calling
// this repeatedly, so that automata over the same Σ share one Algebra
// value; NewAlgebra itself is cheap and side-effect free, so sharing is
// an optimisation, not a correctness requirement.
func NewAlgebra[S alphabet.Symbol](sigma alphabet.Sigma[S]) *Algebra[S] {
	return &Algebra[S]{sigma: sigma}
}

// Sigma returns the alphabet this algebra is defined over.
func (a *Algebra[S]) Sigma() alphabet.Sigma[S] { return a.sigma }

// True returns (NOT_IN, ∅), per spec §3 invariant (ii).
func (a *Algebra[S]) True() Predicate[S] {
	return newPredicate[S](NotIn, map[S]struct{}{})
}

// False returns (IN, ∅). Per spec §9's open question, False is treated
// as an algebra-derived constant exactly like True, never instance
// state.
func (a *Algebra[S]) False() Predicate[S] {
	return newPredicate[S](In, map[S]struct{}{})
}

// Not computes ¬P: flips the kind, keeps S unchanged (spec §4.1 table).
func (a *Algebra[S]) Not(p Predicate[S]) Predicate[S] {
	kind := In
	if p.kind == In {
		kind = NotIn
	}
	return newPredicate(kind, p.set)
}

func union[S alphabet.Symbol](a, b map[S]struct{}) map[S]struct{} {
	out := make(map[S]struct{}, len(a)+len(b))
	for s := range a {
		out[s] = struct{}{}
	}
	for s := range b {
		out[s] = struct{}{}
	}
	return out
}

func intersect[S alphabet.Symbol](a, b map[S]struct{}) map[S]struct{} {
	out := make(map[S]struct{})
	for s := range a {
		if _, ok := b[s]; ok {
			out[s] = struct{}{}
		}
	}
	return out
}

func minus[S alphabet.Symbol](a, b map[S]struct{}) map[S]struct{} {
	out := make(map[S]struct{})
	for s := range a {
		if _, ok := b[s]; !ok {
			out[s] = struct{}{}
		}
	}
	return out
}

// And computes p ∧ q following the sign-case table of spec §4.1.
func (a *Algebra[S]) And(p, q Predicate[S]) Predicate[S] {
	switch {
	case p.kind == In && q.kind == In:
		return newPredicate(In, intersect(p.set, q.set))
	case p.kind == In && q.kind == NotIn:
		return newPredicate(In, minus(p.set, q.set))
	case p.kind == NotIn && q.kind == In:
		return newPredicate(In, minus(q.set, p.set))
	default: // NotIn, NotIn
		return newPredicate(NotIn, union(p.set, q.set))
	}
}

// Or computes p ∨ q, dually to And (spec §4.1).
func (a *Algebra[S]) Or(p, q Predicate[S]) Predicate[S] {
	return a.Not(a.And(a.Not(p), a.Not(q)))
}

// Minus computes p ∖ q = p ∧ ¬q.
func (a *Algebra[S]) Minus(p, q Predicate[S]) Predicate[S] {
	return a.And(p, a.Not(q))
}

// Xor computes the symmetric difference p △ q = (p∖q) ∨ (q∖p).
func (a *Algebra[S]) Xor(p, q Predicate[S]) Predicate[S] {
	return a.Or(a.Minus(p, q), a.Minus(q, p))
}

// InclusiveSet materialises ⟦p⟧ ∩ Σ as a finite set.
func (a *Algebra[S]) InclusiveSet(p Predicate[S]) []S {
	if p.kind == In {
		out := make([]S, 0, len(p.set))
		for _, s := range a.sigma.Symbols() {
			if _, ok := p.set[s]; ok {
				out = append(out, s)
			}
		}
		return out
	}
	out := make([]S, 0, a.sigma.Len())
	for _, s := range a.sigma.Symbols() {
		if _, ok := p.set[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Satisfiable reports whether ⟦p⟧ ∩ Σ ≠ ∅.
func (a *Algebra[S]) Satisfiable(p Predicate[S]) bool {
	if p.kind == In {
		for _, s := range a.sigma.Symbols() {
			if _, ok := p.set[s]; ok {
				return true
			}
		}
		return false
	}
	// NOT_IN: satisfiable unless S ⊇ Σ.
	for _, s := range a.sigma.Symbols() {
		if _, ok := p.set[s]; !ok {
			return true
		}
	}
	return false
}

// Equivalent reports whether p and q denote the same subset of Σ.
func (a *Algebra[S]) Equivalent(p, q Predicate[S]) bool {
	return !a.Satisfiable(a.Xor(p, q))
}

// Implies reports whether ⟦p⟧ ∩ Σ ⊆ ⟦q⟧ ∩ Σ.
func (a *Algebra[S]) Implies(p, q Predicate[S]) bool {
	return !a.Satisfiable(a.Minus(p, q))
}

// Simplify picks the (kind, S) representation with the smaller S,
// keeping the denotation unchanged (spec §4.1: "Operations produce
// canonical-enough forms to keep S small").
func (a *Algebra[S]) Simplify(p Predicate[S]) Predicate[S] {
	complementSize := a.sigma.Len() - len(p.set)
	if complementSize < len(p.set) {
		kind := NotIn
		if p.kind == NotIn {
			kind = In
		}
		complement := make(map[S]struct{}, complementSize)
		for _, s := range a.sigma.Symbols() {
			if _, ok := p.set[s]; !ok {
				complement[s] = struct{}{}
			}
		}
		return newPredicate(kind, complement)
	}
	return p
}

// Minterms enumerates all non-empty intersections of each ps[i] or its
// complement, per spec §4.1 ("used for determinisation/minimisation").
// The result is returned in a deterministic order (by each minterm's
// inclusive symbol list, compared as strings via mintermKey, not by
// the generating sign vector) so that callers depending on stable iteration
// (Normalize, output-directory naming) get reproducible results.
//
// Implemented as an explicit iterative walk over the 2^n sign vectors
// rather than recursion, per the "no deep recursion on graph
// traversals" design note — n here is typically small (the number of
// distinct predicates labelling one state's outgoing moves), but the
// bound is not enforced by any caller, so recursion depth would
// otherwise scale with it.
func (a *Algebra[S]) Minterms(ps ...Predicate[S]) []Predicate[S] {
	n := len(ps)
	if n == 0 {
		if a.Satisfiable(a.True()) {
			return []Predicate[S]{a.True()}
		}
		return nil
	}
	var out []Predicate[S]
	total := 1 << n
	for mask := 0; mask < total; mask++ {
		m := a.True()
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				m = a.And(m, ps[i])
			} else {
				m = a.And(m, a.Not(ps[i]))
			}
		}
		if a.Satisfiable(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return mintermKey(a, out[i]) < mintermKey(a, out[j])
	})
	return out
}

func mintermKey[S alphabet.Symbol](a *Algebra[S], p Predicate[S]) string {
	set := a.InclusiveSet(p)
	var buf []byte
	for _, s := range set {
		buf = append(buf, []byte(fmt.Sprint(s))...)
		buf = append(buf, 0)
	}
	return string(buf)
}

// String renders a predicate in the Timbuk-ish textual form used by the
// format package's printers, e.g. "in{a,b}" or "not_in{}".
func (p Predicate[S]) String() string {
	set := p.Set()
	sort.Slice(set, func(i, j int) bool { return fmt.Sprint(set[i]) < fmt.Sprint(set[j]) })
	elems := ""
	for i, s := range set {
		if i > 0 {
			elems += ","
		}
		elems += fmt.Sprint(s)
	}
	return fmt.Sprintf("%s{%s}", p.kind, elems)
}
