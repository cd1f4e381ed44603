package scoring

import (
	"math"
	"testing"
)

func TestClampScore(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want int
	}{
		{"zero", 0, 0},
		{"negative", -12.5, 0},
		{"truncates", 366.99, 366},
		{"max", 1000, 1000},
		{"above max", 1000.4, 1000},
		{"NaN", math.NaN(), 0},
		{"+Inf", math.Inf(1), 1000},
		{"-Inf", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampScore(tt.raw); got != tt.want {
				t.Errorf("ClampScore(%v) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}
