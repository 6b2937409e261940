package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rewired-gh/batemanhorn/internal/models"
)

func sampleFactors() []models.LocalFactor {
	return []models.LocalFactor{
		{Prime: 2, Omega: 0, Value: 2, Regime: models.RegimeShielded},
		{Prime: 3, Omega: 0, Value: 1.5, Regime: models.RegimeShielded},
		{Prime: 281, Omega: 0, Value: models.FactorValue(281, 0), Regime: models.RegimeShielded},
		{Prime: 283, Omega: 46, Value: models.FactorValue(283, 46), Regime: models.RegimeSplitting},
		{Prime: 293, Omega: 0, Value: models.FactorValue(293, 0), Regime: models.RegimeGeneral},
		{Prime: 659, Omega: 46, Value: models.FactorValue(659, 46), Regime: models.RegimeSplitting},
	}
}

func TestLocalFactorsRoundTrip(t *testing.T) {
	s := New(t.TempDir(), 0, 0)
	want := sampleFactors()

	if err := s.WriteLocalFactors("Q(n)=n^47-(n-1)^47 local factors", want); err != nil {
		t.Fatalf("WriteLocalFactors failed: %v", err)
	}

	got, err := s.ReadLocalFactors()
	if err != nil {
		t.Fatalf("ReadLocalFactors failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("local factors mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalFactorsFileLayout(t *testing.T) {
	s := New(t.TempDir(), 0, 0)
	if err := s.WriteLocalFactors("run abc\nsecond line", sampleFactors()[:4]); err != nil {
		t.Fatalf("WriteLocalFactors failed: %v", err)
	}

	data, err := os.ReadFile(s.Path(LocalFactorsFile))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{
		"# run abc second line",
		"Prime_p,omega_Q,Factor,Type",
		"2,0,2,shielded",
		"3,0,1.5,shielded",
		"281,0,1.0035714285714286,shielded",
		"283,46,0.8404255319148937,splitting",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("file layout mismatch (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(s.Path(LocalFactorsFile) + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestSelectLocalFactors(t *testing.T) {
	all := sampleFactors()

	if got := SelectLocalFactors(all, ModeFull, 1); len(got) != len(all) {
		t.Errorf("full mode: expected %d rows, got %d", len(all), len(got))
	}

	got := SelectLocalFactors(all, ModeSummary, 1)
	var primes []int64
	for _, f := range got {
		primes = append(primes, f.Prime)
	}
	if diff := cmp.Diff([]int64{2, 3, 281, 283}, primes); diff != "" {
		t.Errorf("summary rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"full", ModeFull, false},
		{"summary", ModeSummary, false},
		{"", "", true},
		{"FULL", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReadLocalFactorsRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind bool // expect an INVALID_INPUT *models.Error
	}{
		{"bad header", "p,omega,factor,type\n2,0,2,shielded\n", false},
		{"unparsable prime", "Prime_p,omega_Q,Factor,Type\nx,0,2,shielded\n", false},
		{"omega out of range", "Prime_p,omega_Q,Factor,Type\n283,47,0.5,splitting\n", true},
		{"unordered", "Prime_p,omega_Q,Factor,Type\n3,0,1.5,shielded\n2,0,2,shielded\n", true},
		{"non-positive factor", "Prime_p,omega_Q,Factor,Type\n2,0,0,shielded\n", true},
		{"wrong field count", "Prime_p,omega_Q,Factor,Type\n2,0,2\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, LocalFactorsFile), []byte(tt.body), 0o644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			_, err := New(dir, 0, 0).ReadLocalFactors()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.kind && !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := New(t.TempDir(), 0, 0).ReadLocalFactors()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestStaleTempFileRemoved(t *testing.T) {
	s := New(t.TempDir(), 0, 0)
	if err := s.WriteLocalFactors("", sampleFactors()); err != nil {
		t.Fatalf("WriteLocalFactors failed: %v", err)
	}
	stale := s.Path(LocalFactorsFile) + ".tmp"
	if err := os.WriteFile(stale, []byte("partial"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := s.ReadLocalFactors(); err != nil {
		t.Fatalf("ReadLocalFactors failed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale temp file should have been removed")
	}
}

func TestConvergenceRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nested", "data"), 0, 0)
	want := []models.Checkpoint{
		{Truncation: 100, Value: 8.31135737891573},
		{Truncation: 1000, Value: 9.15106517883943, RelativeDelta: 0.10103136727748853, HasPrevious: true, SplittingPrimes: 3},
		{Truncation: 10000, Value: 8.639270832372702, RelativeDelta: 0.05592729769318887, HasPrevious: true, SplittingPrimes: 28},
	}
	if err := s.WriteConvergence("convergence", want); err != nil {
		t.Fatalf("WriteConvergence failed: %v", err)
	}
	got, err := s.ReadConvergence()
	if err != nil {
		t.Fatalf("ReadConvergence failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("checkpoints mismatch (-want +got):\n%s", diff)
	}
}

func TestWritePrimeCounts(t *testing.T) {
	s := New(t.TempDir(), 0, 0)
	records := []models.PrimeCountRecord{
		models.NewPrimeCountRecord(1000, 34, 0.2, 176.56449313034733),
		models.NewPrimeCountRecord(2000, 62, 0.18911, 313.764),
	}
	if err := s.WritePrimeCounts("counts", records); err != nil {
		t.Fatalf("WritePrimeCounts failed: %v", err)
	}
	data, err := os.ReadFile(s.Path(PrimeCountsFile))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{
		"# counts",
		"x,Observed_piQ,Predicted,Li_x,Absolute_Error,Relative_Error_pct",
		"1000,34,35.3129,176.5645,1.3129,3.8615",
		"2000,62,59.3359,313.764,-2.6641,-4.2969",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("prime counts mismatch (-want +got):\n%s", diff)
	}
}
