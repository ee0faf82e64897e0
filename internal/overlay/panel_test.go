package overlay

import (
	"strings"
	"testing"
)

func TestSettingsMutatorsInvalidateExceptMaxSamples(t *testing.T) {
	calls := 0
	s := NewSettings(8, 0.01, 0.3, 1024, func() { calls++ })

	s.SetBounces(4)
	s.SetContributionClamp(0.02)
	s.SetResolutionFactor(0.5)
	if calls != 3 {
		t.Fatalf("expected 3 invalidations, got %d", calls)
	}

	s.SetMaxSamples(2048)
	if calls != 3 {
		t.Fatalf("expected SetMaxSamples not to invalidate, calls=%d", calls)
	}
	if s.MaxSamples != 2048 {
		t.Fatalf("expected MaxSamples to update, got %d", s.MaxSamples)
	}
}

func TestStatsStringIncludesSampleBudget(t *testing.T) {
	s := Stats{FrameRate: 60, AverageFrameRate: 58.5, SampleCount: 10, MaxSamples: 1024}
	got := s.String()
	if got == "" {
		t.Fatal("expected non-empty stats string")
	}
	if !strings.Contains(got, "10 / 1024") {
		t.Fatalf("expected stats string to include the sample budget \"10 / 1024\", got %q", got)
	}
}
