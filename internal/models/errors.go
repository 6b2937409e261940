package models

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a computational error.
type Kind string

const (
	// KindInvalidInput is a bad prime or bad n handed to a stage.
	KindInvalidInput Kind = "INVALID_INPUT"
	// KindDegeneratePrime means Q degenerates mod p or ω(p) left [0, deg Q].
	KindDegeneratePrime Kind = "DEGENERATE_PRIME"
	// KindConvergence means the Euler product failed to stabilize.
	KindConvergence Kind = "CONVERGENCE"
	// KindDomain means the primality test was given an out-of-domain value.
	KindDomain Kind = "DOMAIN"
)

// Stage names the batch stage that failed.
type Stage string

const (
	StageShielding   Stage = "shielding"
	StageLocalFactor Stage = "local-factor"
	StageEuler       Stage = "euler-product"
	StagePrimeCount  Stage = "prime-count"
	StageReplay      Stage = "replay"
	StageOutput      Stage = "output"
)

// Error is a computational failure. Subject names the variable that
// triggered it ("p" or "n"), At its value and Value the measured quantity.
type Error struct {
	Kind    Kind
	Stage   Stage
	Subject string
	At      int64
	Value   string
	Message string
	Cause   error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrDegeneratePrime = &Error{Kind: KindDegeneratePrime}
	ErrConvergence     = &Error{Kind: KindConvergence}
	ErrDomain          = &Error{Kind: KindDomain}
)

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s]", e.Kind)
	if e.Stage != "" {
		msg += " " + string(e.Stage)
	}
	if e.Subject != "" {
		msg += fmt.Sprintf(" at %s=%d", e.Subject, e.At)
	}
	msg += ": " + e.Message
	if e.Value != "" {
		msg += fmt.Sprintf(" (measured %s)", e.Value)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Stage == "" && t.Subject == "" && t.Message == "" && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// InvalidInput creates an invalid-input error about subject=at.
func InvalidInput(stage Stage, subject string, at int64, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Stage:   stage,
		Subject: subject,
		At:      at,
		Message: fmt.Sprintf(format, args...),
	}
}

// DegeneratePrime creates a degenerate-prime error for prime p with the
// measured value (usually ω(p)).
func DegeneratePrime(stage Stage, p int64, value interface{}, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindDegeneratePrime,
		Stage:   stage,
		Subject: "p",
		At:      p,
		Value:   fmt.Sprint(value),
		Message: fmt.Sprintf(format, args...),
	}
}

// Convergence creates a convergence error at truncation limit (or prime) at.
func Convergence(stage Stage, subject string, at int64, value float64, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindConvergence,
		Stage:   stage,
		Subject: subject,
		At:      at,
		Value:   fmt.Sprintf("%g", value),
		Message: fmt.Sprintf(format, args...),
	}
}

// Domain creates a domain error for the value computed at n.
func Domain(stage Stage, n int64, value interface{}, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindDomain,
		Stage:   stage,
		Subject: "n",
		At:      n,
		Value:   fmt.Sprint(value),
		Message: fmt.Sprintf(format, args...),
	}
}
