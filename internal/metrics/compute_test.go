package metrics

import (
	"math"
	"testing"

	"protocol-stats/internal/domain"
)

func TestComputePercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	if got := computePercentile(sorted, 0.50); got != 3 {
		t.Errorf("expected median 3, got %v", got)
	}
	if got := computePercentile(sorted, 0.25); got != 2 {
		t.Errorf("expected p25 2, got %v", got)
	}
	// 0.1 * 4 = 0.4 -> 1 + 0.4*(2-1)
	if got := computePercentile(sorted, 0.10); math.Abs(got-1.4) > 1e-9 {
		t.Errorf("expected p10 1.4, got %v", got)
	}
	if got := computePercentile(nil, 0.5); got != 0 {
		t.Errorf("expected 0 for empty, got %v", got)
	}
}

func TestComputeMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 0},
		{"rising volume", []float64{1, 2, 3, 4}, 0},
		{"level series", []float64{10, 5, 8, 2, 12}, 8},
		{"token price", []float64{1.0, 1.2, 0.9, 1.1, 0.6, 1.3}, 0.6},
		{"negative values", []float64{-1, -3, 2, -4}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeMaxDrawdown(tt.values); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("computeMaxDrawdown(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize("all", []float64{3, 1, 2})

	if s.Count != 3 {
		t.Fatalf("expected count 3, got %d", s.Count)
	}
	if *s.Min != 1 || *s.Max != 3 {
		t.Errorf("expected min 1 max 3, got %v %v", *s.Min, *s.Max)
	}
	if *s.Mean != 2 || *s.Median != 2 {
		t.Errorf("expected mean/median 2, got %v %v", *s.Mean, *s.Median)
	}
	if *s.Total != 6 {
		t.Errorf("expected total 6, got %v", *s.Total)
	}
	if *s.Last != 2 {
		t.Errorf("expected last 2 (chronological), got %v", *s.Last)
	}
	if s.Stddev == nil || *s.Stddev != 1 {
		t.Errorf("expected stddev 1, got %v", s.Stddev)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize("all", nil)
	if s.Count != 0 || s.Min != nil || s.Mean != nil || s.Last != nil {
		t.Errorf("expected NULL summary, got %+v", s)
	}
}

func TestSummarizeOptional_SkipsNull(t *testing.T) {
	s := SummarizeOptional("apr", []*float64{nil, domain.Float(4), nil, domain.Float(6)})
	if s.Count != 2 || *s.Mean != 5 {
		t.Errorf("expected count 2 mean 5, got %d %v", s.Count, s.Mean)
	}
	if s.Stddev == nil {
		t.Error("expected stddev for 2 values")
	}
}

func TestMeanOf(t *testing.T) {
	if MeanOf(nil) != nil {
		t.Error("expected nil mean for no values")
	}
	if got := MeanOf([]*float64{domain.Float(1), nil, domain.Float(3)}); got == nil || *got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
}
