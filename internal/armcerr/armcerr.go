// Package armcerr defines the error kinds of spec §7. Each kind is a
// distinct Go type so the driver (and tests) can discriminate via
// errors.As; every kind wraps its cause, if any, with
// github.com/pkg/errors so stack context survives to the CLI's
// stderr report.
package armcerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind names an error kind for logging and the --verbose trace.
type Kind string

const (
	KindConfig    Kind = "ConfigError"
	KindAutomaton Kind = "AutomatonError"
	KindSFA       Kind = "SFAError"
	KindSFT       Kind = "SFTError"
	KindParser    Kind = "ParserError"
	KindARMC      Kind = "ARMCError"
)

type kindedError struct {
	kind Kind
	msg  string
	err  error
}

func (e *kindedError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *kindedError) Unwrap() error { return e.err }

// Kind reports which of the six spec §7 kinds produced this error.
func (e *kindedError) Kind() Kind { return e.kind }

func newKinded(kind Kind, msg string, err error) error {
	return &kindedError{kind: kind, msg: msg, err: errors.WithStack(err)}
}

// ConfigError: bad file format, unknown/duplicate/missing property, bad
// value, abstraction-selection conflict.
func ConfigError(msg string, cause error) error { return newKinded(KindConfig, msg, cause) }

// AutomatonError: invalid state-name map; transition uses a symbol
// outside Σ.
func AutomatonError(msg string, cause error) error { return newKinded(KindAutomaton, msg, cause) }

// SFAError: state not in states; incompatible alphabets.
func SFAError(msg string, cause error) error { return newKinded(KindSFA, msg, cause) }

// SFTError: incompatible alphabets; union of zero transducers.
func SFTError(msg string, cause error) error { return newKinded(KindSFT, msg, cause) }

// ParserError: unknown format, format-specific syntax violations,
// duplicate states or labels, unknown final state, missing start
// symbol, unsupported tree-automaton arity, invalid identity label.
func ParserError(msg string, cause error) error { return newKinded(KindParser, msg, cause) }

// ARMCError: initial-property violation, timeout.
func ARMCError(msg string, cause error) error { return newKinded(KindARMC, msg, cause) }

// KindOf extracts the Kind from err, if it (or something it wraps) is
// one of ours.
func KindOf(err error) (Kind, bool) {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind(), true
	}
	return "", false
}
