package embedding

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/prodex/internal/domain"
)

var t0 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func TestNewRecord_Valid(t *testing.T) {
	vec := []float32{0.1, 0.2, 0.3}
	r, err := NewRecord("p-1", vec, 3, "model-a", "hash", t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vec[0] = 9
	if r.Vector()[0] != 0.1 {
		t.Error("vector must be copied")
	}
	if r.Dim() != 3 {
		t.Errorf("Dim() = %d", r.Dim())
	}
}

func TestNewRecord_RejectsWrongDimension(t *testing.T) {
	_, err := NewRecord("p-1", []float32{1, 2}, 3, "m", "h", t0)
	if !errors.Is(err, domain.ErrInvalidVector) {
		t.Fatalf("expected ErrInvalidVector, got %v", err)
	}
}

func TestNewRecord_RejectsZeroVector(t *testing.T) {
	_, err := NewRecord("p-1", []float32{0, 0, 0}, 3, "m", "h", t0)
	if !errors.Is(err, domain.ErrInvalidVector) {
		t.Fatalf("expected ErrInvalidVector, got %v", err)
	}
}

func TestNewRecord_RequiresID(t *testing.T) {
	if _, err := NewRecord("", []float32{1}, 1, "m", "h", t0); err == nil {
		t.Fatal("expected error")
	}
}

func TestStaleFor(t *testing.T) {
	tests := []struct {
		name      string
		rec       Record
		hash      string
		model     string
		updatedAt time.Time
		want      bool
	}{
		{
			name: "same hash and model",
			rec:  Reconstruct("p", []float32{1}, "m1", "h1", t0),
			hash: "h1", model: "m1", updatedAt: t0.Add(time.Hour),
			want: false,
		},
		{
			name: "hash changed",
			rec:  Reconstruct("p", []float32{1}, "m1", "h1", t0),
			hash: "h2", model: "m1", updatedAt: t0,
			want: true,
		},
		{
			name: "model changed",
			rec:  Reconstruct("p", []float32{1}, "m1", "h1", t0),
			hash: "h1", model: "m2", updatedAt: t0,
			want: true,
		},
		{
			name: "legacy record, product updated later",
			rec:  Reconstruct("p", []float32{1}, "", "", t0),
			hash: "h1", model: "m1", updatedAt: t0.Add(time.Second),
			want: true,
		},
		{
			name: "legacy record, product older",
			rec:  Reconstruct("p", []float32{1}, "", "", t0),
			hash: "h1", model: "m1", updatedAt: t0.Add(-time.Second),
			want: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.StaleFor(tc.hash, tc.model, tc.updatedAt); got != tc.want {
				t.Errorf("StaleFor() = %v, want %v", got, tc.want)
			}
		})
	}
}
