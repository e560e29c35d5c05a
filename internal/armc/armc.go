// Package armc implements the CEGAR driver of spec §4.6: an outer
// abstraction-refinement loop around an inner forward-reachability
// phase and a backward replay/spuriousness check. Verify is the single
// entry point; errors (setup failures, timeout) are returned as
// `error`, never encoded in the result, per spec §7's "errors are not
// outcomes" split between verification outcomes and failures.
package armc

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/armcheck/armc/internal/abstraction"
	"github.com/armcheck/armc/internal/alphabet"
	"github.com/armcheck/armc/internal/armcerr"
	"github.com/armcheck/armc/internal/sfa"
	"github.com/armcheck/armc/internal/sft"
	"github.com/armcheck/armc/internal/stats"
)

// Verdict is the driver's outcome.
type Verdict int

const (
	Holds Verdict = iota
	Violated
)

func (v Verdict) String() string {
	if v == Holds {
		return "HOLDS"
	}
	return "VIOLATED"
}

// Counterexample is the trace of spec §3: Mᵢ indices run 0..ℓ (the last
// has no abstraction, since the inner loop breaks before collapsing
// it); Xᵢ indices, per spec §4.6's ordering note, are stored ℓ down to
// 0, the order the replay phase naturally produces them in.
type Counterexample[S alphabet.Symbol] struct {
	M      []*sfa.Automaton[S] // M₀ .. Mℓ
	MAlpha []*sfa.Automaton[S] // M₀^α .. Mℓ₋₁^α
	X      []*sfa.Automaton[S] // Xℓ .. X₀
	Length int                 // ℓ
}

// Result is Verify's successful outcome.
type Result[S alphabet.Symbol] struct {
	Verdict        Verdict
	Counterexample *Counterexample[S]
}

// Options configures a single Verify call (spec §6's COMPUTATION_DIRECTION
// and TIMEOUT keys, already resolved by the caller's config layer).
type Options[S alphabet.Symbol] struct {
	// Backward, when true, swaps Init↔Bad and τ↔τ⁻¹ before running the
	// identical algorithm (spec §4.6 setup step 5).
	Backward bool
	// Timeout disables the timeout check when zero.
	Timeout time.Duration

	// OnStep, when set, is called after each inner-loop push with the
	// (loop, i, Mᵢ, Mᵢ^α) that spec §6's armc-loop-<k>/ directory dumps.
	OnStep func(loop, i int, m, mAlpha *sfa.Automaton[S]) error
	// OnReplay, when set, is called with each Xᵢ the replay phase
	// computes, in the same ℓ-down-to-0 order Counterexample.X keeps.
	OnReplay func(loop, idx int, x *sfa.Automaton[S]) error
}

type snapshot[S alphabet.Symbol] struct {
	m     *sfa.Automaton[S]
	alpha *sfa.Automaton[S]
}

// Verify runs the CEGAR loop of spec §4.6 to decide whether
// post*(init) ∩ bad = ∅ under the transition relation encoded by taus,
// using strategy as the configured abstraction (already seeded by the
// caller from whichever of {Init, Bad, dom(τᵢ), range(τᵢ)} or bound
// configuration spec §4.5 names).
func Verify[S alphabet.Symbol](opts Options[S], init, bad *sfa.Automaton[S], taus []*sft.Transducer[S], strategy abstraction.Strategy[S]) (*Result[S], error) {
	if len(taus) == 0 {
		return nil, armcerr.SFTError("union of zero transducers", nil)
	}
	tau := sft.Union(taus...)
	tauInv := sft.Invert(tau)

	if opts.Backward {
		init, bad = bad, init
		tau, tauInv = tauInv, tau
	}

	if !sfa.ProductIsEmpty(init, bad) {
		return nil, armcerr.ARMCError("initial property violation: Init ∩ Bad ≠ ∅", nil)
	}

	sw := stats.New(time.Now)
	for {
		result, refined, err := verifyStep(sw.Loops(), opts, init, tau, tauInv, bad, strategy, sw)
		if err != nil {
			return nil, err
		}
		if !refined {
			return result, nil
		}
		sw.IncLoops()
		logrus.WithFields(logrus.Fields{"loops": sw.Loops(), "elapsed": sw.Elapsed()}).
			Info("refinement iteration complete, restarting forward phase")
	}
}

// verifyStep runs one outer-loop iteration (spec §4.6: "Each iteration
// is a VerifyStep"): the inner forward phase, then, if it found a
// candidate counterexample, the replay/spuriousness phase. refined
// reports whether a refinement happened (caller should loop again);
// when refined is false, result holds the final HOLDS/VIOLATED answer.
func verifyStep[S alphabet.Symbol](loop int, opts Options[S], init *sfa.Automaton[S], tau *sft.Transducer[S], tauInv *sft.Transducer[S], bad *sfa.Automaton[S], strategy abstraction.Strategy[S], sw *stats.Stopwatch) (*Result[S], bool, error) {
	sw.ResetI()
	var seq []snapshot[S]
	m := init
	i := 0
	for {
		if i > 0 {
			if !sfa.ProductIsEmpty(m, bad) {
				x := sfa.Minimize(sfa.Determinize(sfa.Product(m, bad)))
				logrus.WithFields(logrus.Fields{"i": i}).Debug("candidate counterexample found, entering replay")
				return replay(loop, opts, seq, x, m, tauInv, strategy, sw)
			}
		}
		mAlpha := sfa.Minimize(sfa.Determinize(strategy.Collapse(m)))
		if i > 0 && sfa.Equivalent(mAlpha, seq[len(seq)-1].alpha) {
			logrus.WithFields(logrus.Fields{"i": i}).Info("fixed point reached")
			return &Result[S]{Verdict: Holds}, false, nil
		}
		if sw.TimedOut(opts.Timeout) {
			return nil, false, armcerr.ARMCError("timeout", nil)
		}
		seq = append(seq, snapshot[S]{m: m, alpha: mAlpha})
		if opts.OnStep != nil {
			sw.Pause()
			err := opts.OnStep(loop, i, m, mAlpha)
			sw.Resume()
			if err != nil {
				return nil, false, err
			}
		}
		i++
		sw.IncI()
		logrus.WithFields(logrus.Fields{"i": i, "states": mAlpha.NumStates()}).Debug("inner loop step")
		m = sfa.Minimize(sfa.Determinize(sft.Apply(tau, mAlpha)))
	}
}

// replay implements spec §4.6's replay/spuriousness phase: walk seq
// from the most recent entry to the oldest, pulling x back through
// τ⁻¹ at each step and checking whether it still intersects that
// step's (un-collapsed) M.
func replay[S alphabet.Symbol](loop int, opts Options[S], seq []snapshot[S], xTop *sfa.Automaton[S], mTop *sfa.Automaton[S], tauInv *sft.Transducer[S], strategy abstraction.Strategy[S], sw *stats.Stopwatch) (*Result[S], bool, error) {
	xs := []*sfa.Automaton[S]{xTop}
	if opts.OnReplay != nil {
		sw.Pause()
		err := opts.OnReplay(loop, len(seq), xTop)
		sw.Resume()
		if err != nil {
			return nil, false, err
		}
	}
	x := xTop
	for idx := len(seq) - 1; idx >= 0; idx-- {
		snap := seq[idx]
		pre := sft.Apply(tauInv, x)
		x = sfa.Minimize(sfa.Determinize(sfa.Product(pre, snap.alpha)))
		xs = append(xs, x)
		if opts.OnReplay != nil {
			sw.Pause()
			err := opts.OnReplay(loop, idx, x)
			sw.Resume()
			if err != nil {
				return nil, false, err
			}
		}
		if sfa.ProductIsEmpty(x, snap.m) {
			logrus.WithFields(logrus.Fields{"at": idx}).Debug("replay found spurious counterexample, refining")
			strategy.Refine(snap.m, x)
			return nil, true, nil
		}
	}

	ms := make([]*sfa.Automaton[S], 0, len(seq)+1)
	alphas := make([]*sfa.Automaton[S], 0, len(seq))
	for _, snap := range seq {
		ms = append(ms, snap.m)
		alphas = append(alphas, snap.alpha)
	}
	ms = append(ms, mTop)

	return &Result[S]{
		Verdict: Violated,
		Counterexample: &Counterexample[S]{
			M:      ms,
			MAlpha: alphas,
			X:      xs,
			Length: len(seq),
		},
	}, false, nil
}
