package sft

import (
	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/label"
	"github.com/armcheck/armc/internal/predicate"
	"github.com/armcheck/armc/internal/sfa"
)

type pairKey struct{ a, b int }

// Apply computes an SFA accepting {τ(w) : w ∈ L(m)} via the forward
// product traversal of spec §4.4.
func Apply[S alphabet.Symbol](tau *Transducer[S], m *sfa.Automaton[S]) *sfa.Automaton[S] {
	palg := tau.alg
	predAlg := palg.Predicates()
	b := sfa.NewBuilder(predAlg, 0)

	ids := map[pairKey]int{}
	newState := func(k pairKey) int {
		id := b.AddState()
		ids[k] = id
		if tau.IsFinal(k.a) && m.IsFinal(k.b) {
			b.SetFinal(id)
		}
		return id
	}
	getOrCreate := func(k pairKey) (int, bool) {
		if id, ok := ids[k]; ok {
			return id, false
		}
		return newState(k), true
	}

	start := pairKey{tau.Initial(), m.Initial()}
	startID := newState(start)
	b.SetInitial(startID)

	work := []pairKey{start}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		src := ids[p]

		for _, tmv := range tau.Moves(p.a) {
			if tmv.IsEpsilon() {
				np := pairKey{tmv.Target, p.b}
				tgt, isNew := getOrCreate(np)
				if isNew {
					work = append(work, np)
				}
				b.AddEpsilon(src, tgt)
				continue
			}
			l := *tmv.Lab
			if l.InEpsilon() {
				np := pairKey{tmv.Target, p.b}
				tgt, isNew := getOrCreate(np)
				if isNew {
					work = append(work, np)
				}
				if l.OutEpsilon() {
					b.AddEpsilon(src, tgt)
				} else {
					b.AddMove(src, tgt, l.Out())
				}
				continue
			}
			lin := l.In()
			for _, mmv := range m.Moves(p.b) {
				if mmv.IsEpsilon() {
					continue
				}
				conj := predAlg.And(lin, *mmv.Pred)
				if !predAlg.Satisfiable(conj) {
					continue
				}
				np := pairKey{tmv.Target, mmv.Target}
				tgt, isNew := getOrCreate(np)
				if isNew {
					work = append(work, np)
				}
				switch {
				case l.IsIdentity():
					b.AddMove(src, tgt, conj)
				case l.OutEpsilon():
					b.AddEpsilon(src, tgt)
				default:
					outp := l.Out()
					if predAlg.Satisfiable(outp) {
						b.AddMove(src, tgt, outp)
					}
				}
			}
		}
		for _, mmv := range m.Moves(p.b) {
			if mmv.IsEpsilon() {
				np := pairKey{p.a, mmv.Target}
				tgt, isNew := getOrCreate(np)
				if isNew {
					work = append(work, np)
				}
				b.AddEpsilon(src, tgt)
			}
		}
	}
	return b.Build()
}

// Invert swaps input/output on every non-identity label; identity
// labels are preserved (spec §4.4).
func Invert[S alphabet.Symbol](t *Transducer[S]) *Transducer[S] {
	b := NewBuilder(t.alg, t.numStates)
	b.SetInitial(t.initial)
	for s := range t.finals {
		b.SetFinal(s)
	}
	for s := 0; s < t.numStates; s++ {
		for _, mv := range t.Moves(s) {
			if mv.IsEpsilon() {
				b.AddEpsilon(s, mv.Target)
				continue
			}
			l := *mv.Lab
			if l.IsIdentity() {
				b.AddMove(s, mv.Target, l)
				continue
			}
			switch {
			case !l.InEpsilon() && !l.OutEpsilon():
				b.AddMove(s, mv.Target, label.Pair(l.Out(), l.In()))
			case l.InEpsilon() && !l.OutEpsilon():
				b.AddMove(s, mv.Target, label.PairEpsilonOut(l.Out()))
			case !l.InEpsilon() && l.OutEpsilon():
				b.AddMove(s, mv.Target, label.PairEpsilonIn(l.In()))
			default:
				// Both sides ε: no label constructor denotes this (it
				// carries no information either way), so the move is
				// equivalent to a structural ε both before and after
				// inversion.
				b.AddEpsilon(s, mv.Target)
			}
		}
	}
	return b.Build()
}

// Compose computes τ₁ ; τ₂ via synchronous product with Combine on
// labels; composites that turn out unsatisfiable are dropped (spec
// §4.4).
func Compose[S alphabet.Symbol](t1, t2 *Transducer[S]) *Transducer[S] {
	requireSameAlgebra("Compose", t1.alg, t2.alg)
	alg := t1.alg
	b := NewBuilder(alg, 0)
	ids := map[pairKey]int{}
	newState := func(k pairKey) int {
		id := b.AddState()
		ids[k] = id
		if t1.IsFinal(k.a) && t2.IsFinal(k.b) {
			b.SetFinal(id)
		}
		return id
	}
	getOrCreate := func(k pairKey) (int, bool) {
		if id, ok := ids[k]; ok {
			return id, false
		}
		return newState(k), true
	}

	start := pairKey{t1.initial, t2.initial}
	startID := newState(start)
	b.SetInitial(startID)

	work := []pairKey{start}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		src := ids[p]

		for _, mv1 := range t1.Moves(p.a) {
			if mv1.IsEpsilon() {
				np := pairKey{mv1.Target, p.b}
				tgt, isNew := getOrCreate(np)
				if isNew {
					work = append(work, np)
				}
				b.AddEpsilon(src, tgt)
				continue
			}
			for _, mv2 := range t2.Moves(p.b) {
				if mv2.IsEpsilon() {
					continue
				}
				combined := alg.Combine(*mv1.Lab, *mv2.Lab)
				if !alg.Satisfiable(combined) {
					continue
				}
				np := pairKey{mv1.Target, mv2.Target}
				tgt, isNew := getOrCreate(np)
				if isNew {
					work = append(work, np)
				}
				b.AddMove(src, tgt, combined)
			}
		}
		for _, mv2 := range t2.Moves(p.b) {
			if mv2.IsEpsilon() {
				np := pairKey{p.a, mv2.Target}
				tgt, isNew := getOrCreate(np)
				if isNew {
					work = append(work, np)
				}
				b.AddEpsilon(src, tgt)
			}
		}
	}
	return b.Build()
}

// Union computes the classical union of ts via a fresh start state
// ε-linked to each operand's start (spec §4.4).
func Union[S alphabet.Symbol](ts ...*Transducer[S]) *Transducer[S] {
	if len(ts) == 0 {
		panic("sft: Union of zero transducers")
	}
	alg := ts[0].alg
	for _, t := range ts[1:] {
		requireSameAlgebra("Union", alg, t.alg)
	}
	b := NewBuilder(alg, 1)
	b.SetInitial(0)
	offsets := make([]int, len(ts))
	for i, t := range ts {
		offsets[i] = b.numStates
		for s := 0; s < t.numStates; s++ {
			id := b.AddState()
			if t.IsFinal(s) {
				b.SetFinal(id)
			}
		}
	}
	for i, t := range ts {
		off := offsets[i]
		for s := 0; s < t.numStates; s++ {
			for _, mv := range t.Moves(s) {
				if mv.IsEpsilon() {
					b.AddEpsilon(off+s, off+mv.Target)
				} else {
					b.AddMove(off+s, off+mv.Target, *mv.Lab)
				}
			}
		}
		b.AddEpsilon(0, off+t.initial)
	}
	return b.Build()
}

// Domain projects every label to its input side and reinterprets the
// result as an SFA (spec §4.4): a structural or input-side ε becomes
// an SFA ε-move, an identity label projects to its own predicate.
func Domain[S alphabet.Symbol](t *Transducer[S]) *sfa.Automaton[S] {
	return project(t, func(l label.Label[S]) (predicate.Predicate[S], bool) {
		if l.InEpsilon() {
			return predicate.Predicate[S]{}, false
		}
		return l.In(), true
	})
}

// Range projects every label to its output side, dually to Domain.
func Range[S alphabet.Symbol](t *Transducer[S]) *sfa.Automaton[S] {
	return project(t, func(l label.Label[S]) (predicate.Predicate[S], bool) {
		if l.OutEpsilon() {
			return predicate.Predicate[S]{}, false
		}
		return l.Out(), true
	})
}

func project[S alphabet.Symbol](t *Transducer[S], side func(label.Label[S]) (predicate.Predicate[S], bool)) *sfa.Automaton[S] {
	predAlg := t.alg.Predicates()
	b := sfa.NewBuilder(predAlg, t.numStates)
	b.SetInitial(t.initial)
	for s := range t.finals {
		b.SetFinal(s)
	}
	for s := 0; s < t.numStates; s++ {
		for _, mv := range t.Moves(s) {
			if mv.IsEpsilon() {
				b.AddEpsilon(s, mv.Target)
				continue
			}
			if p, ok := side(*mv.Lab); ok {
				b.AddMove(s, mv.Target, p)
			} else {
				b.AddEpsilon(s, mv.Target)
			}
		}
	}
	return b.Build()
}
