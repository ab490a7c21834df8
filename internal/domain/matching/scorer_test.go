package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"tamoxifen", "tamoxifon", 1},
		{"interpheron", "interferon", 2},
		// Runes, not bytes: one umlaut is one edit.
		{"folinsaure", "folinsäure", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
		assert.Equal(t, tt.want, LevenshteinDistance(tt.b, tt.a), "%q vs %q reversed", tt.b, tt.a)
	}
}

func TestLevenshteinScorer_Bounds(t *testing.T) {
	s := NewLevenshteinScorer()

	assert.Equal(t, 1.0, s.Score("Tamoxifen", "Tamoxifen"))
	assert.Equal(t, 1.0, s.Score("  tamoxifen ", "TAMOXIFEN"))
	assert.Equal(t, 1.0, s.Score("", ""))
	assert.Equal(t, 0.0, s.Score("abc", "xyz"))
}

func TestLevenshteinScorer_Gradient(t *testing.T) {
	s := NewLevenshteinScorer()

	near := s.Score("Interpheron alpha-2a", "Interferon alpha-2a")
	far := s.Score("Interpheron alpha-2a", "Tamoxifen")

	assert.Greater(t, near, 0.8)
	assert.Less(t, far, 0.5)
	assert.Greater(t, near, far)
}

func TestScorerFunc(t *testing.T) {
	s := ScorerFunc(func(fragment, text string) float64 { return 0.5 })
	assert.Equal(t, 0.5, s.Score("a", "b"))
}
