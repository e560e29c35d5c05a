// Package label implements the transducer edge-label algebra of spec
// §3/§4.2: a label is either IDENTITY(Pᵢ), denoting {(a,a) : a ∈ ⟦Pᵢ⟧},
// or PAIR(Pᵢ,Pₒ), denoting ⟦Pᵢ⟧ × ⟦Pₒ⟧, with either predicate slot
// possibly the nullable ε marker (empty input/output on that side).
// ε here is deliberately not the same thing as an SFT ε-move (which has
// no predicate at all) — see sft.Move.
package label

import (
	"fmt"

	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/predicate"
)

// Label is an immutable transducer edge label.
type Label[S alphabet.Symbol] struct {
	identity bool
	// in is nil exactly when the input is ε; out is nil when the output
	// is ε and always for an identity label (whose output is in).
	in  *predicate.Predicate[S]
	out *predicate.Predicate[S]
}

// IsIdentity reports whether this is an IDENTITY(Pᵢ) label.
func (l Label[S]) IsIdentity() bool { return l.identity }

// InEpsilon reports whether the input side of l is ε.
func (l Label[S]) InEpsilon() bool { return l.in == nil }

// OutEpsilon reports whether the output side of l is ε. Always false for
// an identity label (its output is its input predicate).
func (l Label[S]) OutEpsilon() bool { return !l.identity && l.out == nil }

// In returns the input predicate. Panics if InEpsilon() — callers must
// check first, mirroring how Move distinguishes ε-moves from predicated
// moves at the type level.
func (l Label[S]) In() predicate.Predicate[S] {
	if l.in == nil {
		panic("label: In() on an ε input")
	}
	return *l.in
}

// Out returns the effective output predicate: for PAIR labels, the out
// field; for IDENTITY labels, the same predicate as In (spec §4.2:
// "out(L) = Pₒ for PAIR(Pᵢ,Pₒ) else Pᵢ").
func (l Label[S]) Out() predicate.Predicate[S] {
	if l.identity {
		return l.In()
	}
	if l.out == nil {
		panic("label: Out() on an ε output")
	}
	return *l.out
}

// Identity builds IDENTITY(p).
func Identity[S alphabet.Symbol](p predicate.Predicate[S]) Label[S] {
	return Label[S]{identity: true, in: &p}
}

// Pair builds PAIR(pin, pout).
func Pair[S alphabet.Symbol](pin, pout predicate.Predicate[S]) Label[S] {
	return Label[S]{in: &pin, out: &pout}
}

// PairEpsilonIn builds PAIR(ε, pout): an edge that emits pout while
// consuming no input symbol.
func PairEpsilonIn[S alphabet.Symbol](pout predicate.Predicate[S]) Label[S] {
	return Label[S]{out: &pout}
}

// PairEpsilonOut builds PAIR(pin, ε): an edge that consumes pin while
// emitting no output symbol.
func PairEpsilonOut[S alphabet.Symbol](pin predicate.Predicate[S]) Label[S] {
	return Label[S]{in: &pin}
}

// False builds the unsatisfiable PAIR(FALSE, FALSE) label, used by
// Combine when a composition collapses to the empty relation.
func False[S alphabet.Symbol](alg *predicate.Algebra[S]) Label[S] {
	f := alg.False()
	return Pair(f, f)
}

// Algebra carries the predicate.Algebra a label algebra is defined
// over, mirroring how predicate.Algebra is Σ-scoped.
type Algebra[S alphabet.Symbol] struct {
	preds *predicate.Algebra[S]
}

// NewAlgebra builds a label algebra over preds.
func NewAlgebra[S alphabet.Symbol](preds *predicate.Algebra[S]) *Algebra[S] {
	return &Algebra[S]{preds: preds}
}

// Predicates returns the predicate algebra labels are built from, for
// callers (package sft's Apply/Domain/Range) that need to build plain
// SFAs out of a label's components.
func (a *Algebra[S]) Predicates() *predicate.Algebra[S] { return a.preds }

// Satisfiable reports whether l denotes a non-empty relation: both
// sides, where present, must be satisfiable (an ε side is vacuously
// satisfiable — it imposes no constraint).
func (a *Algebra[S]) Satisfiable(l Label[S]) bool {
	if !l.InEpsilon() && !a.preds.Satisfiable(l.In()) {
		return false
	}
	if l.identity {
		return true
	}
	if !l.OutEpsilon() && !a.preds.Satisfiable(l.Out()) {
		return false
	}
	return true
}

// Combine implements series composition (spec §4.2). L1 feeds L2: the
// conjunction "out(L1) ∧ L2.in" gates whether any symbol pair can pass
// through both labels; an ε side is treated as an unconstrained pass
// (the neutral element of ∧, i.e. True), since "no symbol written/read
// on this side" imposes no filter on the other transducer's matching
// side — this is the one place the spec leaves the ε interaction with
// Combine unstated, so the convention is recorded here rather than in
// spec.md itself.
func (a *Algebra[S]) Combine(l1, l2 Label[S]) Label[S] {
	out1 := a.sideOrTrue(l1, true)
	in2 := a.sideOrTrue(l2, false)
	gate := a.preds.And(out1, in2)
	if !a.preds.Satisfiable(gate) {
		return False(a.preds)
	}
	if l1.identity || l2.identity {
		return Identity(a.preds.And(a.inOrTrue(l1), a.outOf(l2)))
	}
	return Pair(a.inOrTrue(l1), a.outOf(l2))
}

// sideOrTrue returns l's output predicate (out=true) or input predicate
// (out=false), substituting True() for an ε side.
func (a *Algebra[S]) sideOrTrue(l Label[S], out bool) predicate.Predicate[S] {
	if out {
		if l.OutEpsilon() {
			return a.preds.True()
		}
		return l.Out()
	}
	if l.InEpsilon() {
		return a.preds.True()
	}
	return l.In()
}

func (a *Algebra[S]) inOrTrue(l Label[S]) predicate.Predicate[S] {
	if l.InEpsilon() {
		return a.preds.True()
	}
	return l.In()
}

func (a *Algebra[S]) outOf(l Label[S]) predicate.Predicate[S] {
	return a.sideOrTrue(l, true)
}

// And computes the component-wise conjunction of two labels: inputs
// conjoined always; outputs conjoined only "if neither is identity"
// (spec §4.2) — an identity label has no independent output to conjoin.
func (a *Algebra[S]) And(l1, l2 Label[S]) Label[S] {
	in := a.preds.And(a.inOrTrue(l1), a.inOrTrue(l2))
	if l1.identity || l2.identity {
		return Identity(in)
	}
	out := a.preds.And(a.outOf(l1), a.outOf(l2))
	return Pair(in, out)
}

// Or computes the component-wise disjunction, dually to And.
func (a *Algebra[S]) Or(l1, l2 Label[S]) Label[S] {
	in := a.preds.Or(a.inOrTrue(l1), a.inOrTrue(l2))
	if l1.identity || l2.identity {
		return Identity(in)
	}
	out := a.preds.Or(a.outOf(l1), a.outOf(l2))
	return Pair(in, out)
}

// String renders a label in the Timbuk-ish "X/Y" or "@P/@P" form named
// by spec §6.
func (l Label[S]) String() string {
	if l.identity {
		return fmt.Sprintf("@%s/@%s", l.In(), l.In())
	}
	in := "[]"
	if !l.InEpsilon() {
		in = l.In().String()
	}
	out := "[]"
	if !l.OutEpsilon() {
		out = l.Out().String()
	}
	return fmt.Sprintf("%s/%s", in, out)
}
