package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestLocalFactorValidate(t *testing.T) {
	tests := []struct {
		name    string
		factor  LocalFactor
		wantErr bool
	}{
		{
			name:    "valid shielded factor",
			factor:  LocalFactor{Prime: 2, Omega: 0, Value: 2.0, Regime: RegimeShielded},
			wantErr: false,
		},
		{
			name:    "valid splitting factor",
			factor:  LocalFactor{Prime: 283, Omega: 46, Value: FactorValue(283, 46), Regime: RegimeSplitting},
			wantErr: false,
		},
		{
			name:    "prime below two",
			factor:  LocalFactor{Prime: 1, Omega: 0, Value: 1.0},
			wantErr: true,
		},
		{
			name:    "omega above degree",
			factor:  LocalFactor{Prime: 283, Omega: 47, Value: 0.8},
			wantErr: true,
		},
		{
			name:    "negative omega",
			factor:  LocalFactor{Prime: 283, Omega: -1, Value: 1.1},
			wantErr: true,
		},
		{
			name:    "zero factor",
			factor:  LocalFactor{Prime: 5, Omega: 0, Value: 0},
			wantErr: true,
		},
		{
			name:    "NaN factor",
			factor:  LocalFactor{Prime: 5, Omega: 0, Value: math.NaN()},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.factor.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("LocalFactor.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocalFactorType(t *testing.T) {
	tests := []struct {
		factor LocalFactor
		want   string
	}{
		{LocalFactor{Prime: 281, Omega: 0}, "shielded"},
		{LocalFactor{Prime: 283, Omega: 46}, "splitting"},
		{LocalFactor{Prime: 293, Omega: 0}, "inert"},
		{LocalFactor{Prime: 293, Omega: 3}, "partial"},
	}
	for _, tt := range tests {
		if got := tt.factor.Type(); got != tt.want {
			t.Errorf("Type() for p=%d ω=%d = %q, want %q", tt.factor.Prime, tt.factor.Omega, got, tt.want)
		}
	}
}

func TestFactorValue(t *testing.T) {
	if got := FactorValue(2, 0); got != 2.0 {
		t.Errorf("FactorValue(2, 0) = %v, want 2", got)
	}
	if got, want := FactorValue(283, 46), 237.0/282.0; got != want {
		t.Errorf("FactorValue(283, 46) = %v, want %v", got, want)
	}
}

func TestCheckpointValidate(t *testing.T) {
	tests := []struct {
		name    string
		cp      Checkpoint
		wantErr bool
	}{
		{
			name:    "first checkpoint",
			cp:      Checkpoint{Truncation: 100, Value: 8.31, Primes: 25},
			wantErr: false,
		},
		{
			name:    "later checkpoint",
			cp:      Checkpoint{Truncation: 1000, Value: 9.15, RelativeDelta: 0.1, HasPrevious: true, Primes: 168, SplittingPrimes: 4},
			wantErr: false,
		},
		{
			name:    "first checkpoint with delta",
			cp:      Checkpoint{Truncation: 100, Value: 8.31, RelativeDelta: 0.5, Primes: 25},
			wantErr: true,
		},
		{
			name:    "non-positive value",
			cp:      Checkpoint{Truncation: 100, Value: 0, Primes: 25},
			wantErr: true,
		},
		{
			name:    "more splitting primes than primes",
			cp:      Checkpoint{Truncation: 100, Value: 1, Primes: 2, SplittingPrimes: 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cp.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Checkpoint.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPrimeCountRecord(t *testing.T) {
	r := NewPrimeCountRecord(1000, 34, 0.5, 68)
	if r.Predicted != 34 {
		t.Errorf("Predicted = %v, want 34", r.Predicted)
	}
	if r.AbsoluteError != 0 {
		t.Errorf("AbsoluteError = %v, want 0", r.AbsoluteError)
	}
	if r.RelativeError != 0 {
		t.Errorf("RelativeError = %v, want 0", r.RelativeError)
	}

	over := NewPrimeCountRecord(1000, 34, 0.2, 176.56449313034733)
	if math.Abs(over.AbsoluteError-1.31289862606947) > 1e-9 {
		t.Errorf("AbsoluteError = %v, want 1.31289862606947", over.AbsoluteError)
	}
	if math.Abs(over.RelativeError-over.AbsoluteError/34) > 1e-15 {
		t.Errorf("RelativeError = %v, want AbsoluteError/34", over.RelativeError)
	}

	under := NewPrimeCountRecord(2000, 62, 0.18911, 313.764)
	if under.AbsoluteError >= 0 || math.Abs(under.AbsoluteError+2.66408996) > 1e-9 {
		t.Errorf("AbsoluteError = %v, want -2.66408996", under.AbsoluteError)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	zero := NewPrimeCountRecord(1, 0, 0.18, 0)
	if zero.RelativeError != 0 {
		t.Errorf("RelativeError with no observations = %v, want 0", zero.RelativeError)
	}
	if zero.AbsoluteError != 0 {
		t.Errorf("AbsoluteError with no observations = %v, want 0", zero.AbsoluteError)
	}

	bad := PrimeCountRecord{X: 10, Observed: 11}
	if err := bad.Validate(); err == nil {
		t.Error("expected error when observed exceeds x")
	}
}

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("stage failed: %w", DegeneratePrime(StageLocalFactor, 283, 47, "omega out of range"))

	if !errors.Is(err, ErrDegeneratePrime) {
		t.Error("expected errors.Is to match ErrDegeneratePrime")
	}
	if errors.Is(err, ErrConvergence) {
		t.Error("did not expect errors.Is to match ErrConvergence")
	}

	kind, ok := KindOf(err)
	if !ok || kind != KindDegeneratePrime {
		t.Errorf("KindOf() = %v, %v", kind, ok)
	}

	msg := err.Error()
	for _, part := range []string{"DEGENERATE_PRIME", "local-factor", "p=283", "measured 47"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error message %q missing %q", msg, part)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := &Error{Kind: KindDomain, Stage: StagePrimeCount, Message: "bad value", Cause: cause}
	if !errors.Is(e, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if _, ok := KindOf(cause); ok {
		t.Error("plain errors have no kind")
	}
}
