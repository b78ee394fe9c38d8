package analysis

import (
	"math"
	"testing"
)

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "hermoso depto luminoso", "hermoso depto luminoso", 1.0},
		{"case insensitive", "Hermoso Depto", "hermoso depto", 1.0},
		{"disjoint", "uno dos tres", "cuatro cinco seis", 0.0},
		{"partial overlap", "a b", "b c", 1.0 / 3.0},
		{"both empty", "", "", 0.0},
		{"one empty", "algo", "", 0.0},
		{"repeated words collapse", "sol sol sol", "sol", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JaccardSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("JaccardSimilarity(%q, %q) = %.4f; want %.4f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
