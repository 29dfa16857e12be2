package reindex

import (
	"errors"
	"testing"
	"time"
)

func TestNewEmbedded(t *testing.T) {
	r := NewEmbedded("p-1")
	if r.ProductID() != "p-1" {
		t.Errorf("ProductID() = %q", r.ProductID())
	}
	if r.Status() != StatusEmbedded {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusEmbedded)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewFailed(t *testing.T) {
	err := errors.New("provider down")
	r := NewFailed("p-2", err)
	if r.Status() != StatusFailed {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusFailed)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}

func TestReport_SuccessRate(t *testing.T) {
	tests := []struct {
		name string
		r    Report
		want float64
	}{
		{"nothing selected", Report{}, 0},
		{"all ok", Report{Total: 4, Processed: 4}, 1},
		{"partial", Report{Total: 10, Processed: 7, Errors: 3}, 0.7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.SuccessRate(); got != tc.want {
				t.Errorf("SuccessRate() = %g, want %g", got, tc.want)
			}
		})
	}
}

func TestReport_Remaining(t *testing.T) {
	r := Report{Total: 10, Processed: 4, Errors: 1}
	if r.Remaining() != 5 {
		t.Errorf("Remaining() = %d, want 5", r.Remaining())
	}
}

func TestReport_Duration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := Report{StartedAt: start}
	if d := r.Duration(start.Add(time.Minute)); d != time.Minute {
		t.Errorf("running job duration = %s", d)
	}
	r.FinishedAt = start.Add(30 * time.Second)
	if d := r.Duration(start.Add(time.Hour)); d != 30*time.Second {
		t.Errorf("finished job duration = %s", d)
	}
}

func TestStats_CoveragePercentage(t *testing.T) {
	if (Stats{}).CoveragePercentage() != 0 {
		t.Error("empty catalog coverage should be 0")
	}
	s := Stats{TotalProducts: 8, Missing: 2}
	if s.CoveragePercentage() != 75 {
		t.Errorf("CoveragePercentage() = %g, want 75", s.CoveragePercentage())
	}
}
