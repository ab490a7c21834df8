package matching

import (
	"github.com/medcodelab/substance-mapper/internal/domain/vocabulary"
)

// Candidate pairs a vocabulary entry with its similarity score against one
// fragment.  Candidates keep the vocabulary's entry order, which later breaks
// ties deterministically.
type Candidate struct {
	Entry vocabulary.Entry
	Score float64
}

// generateCandidates scores fragment against every vocabulary entry and keeps
// those at or above threshold, preserving entry order.  A fragment that
// matches nothing yields an empty slice, which is not an error.
func generateCandidates(fragment string, vocab *vocabulary.Vocabulary, scorer Scorer, threshold float64) []Candidate {
	if vocab.IsEmpty() {
		return nil
	}

	var candidates []Candidate
	for _, entry := range vocab.Entries() {
		score := scorer.Score(fragment, entry.Text)
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		if score >= threshold {
			candidates = append(candidates, Candidate{Entry: entry, Score: score})
		}
	}
	return candidates
}
