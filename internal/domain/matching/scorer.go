package matching

// Scorer computes a similarity score in [0, 1] between a text fragment and a
// vocabulary entry text.  1 means identical, 0 means no similarity.
// Implementations must be pure and safe for concurrent use; the matcher
// calls Score from multiple worker goroutines.
type Scorer interface {
	Score(fragment, text string) float64
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(fragment, text string) float64

func (f ScorerFunc) Score(fragment, text string) float64 {
	return f(fragment, text)
}

// LevenshteinDistance computes the minimum number of single-character edits
// (insertions, deletions, substitutions) required to transform a into b.
// It operates on runes, not bytes, so umlauts count as one character.
// Uses the two-row dynamic programming variant with O(min) memory.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// levenshteinScorer scores by normalised edit distance:
// 1 - distance/maxLen over the case-normalised inputs.
type levenshteinScorer struct{}

// NewLevenshteinScorer returns the default Scorer used by the matching
// pipeline.  Two identical strings score 1.0; strings with nothing in
// common score 0.0.
func NewLevenshteinScorer() Scorer {
	return levenshteinScorer{}
}

func (levenshteinScorer) Score(fragment, text string) float64 {
	a := normalize(fragment)
	b := normalize(text)
	if a == b {
		return 1.0
	}

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := LevenshteinDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
