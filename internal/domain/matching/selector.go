package matching

import "strings"

// Outcome labels how a fragment's winning candidate was selected.  The
// values double as metric label values, so they are stable strings.
type Outcome string

const (
	// OutcomeExact means the fragment equalled an entry text after
	// case normalisation.
	OutcomeExact Outcome = "exact"
	// OutcomeContainment means one of fragment and entry text contained
	// the other.
	OutcomeContainment Outcome = "containment"
	// OutcomeDistance means the entry with the minimum edit distance won.
	OutcomeDistance Outcome = "distance"
	// OutcomeNone means no candidate cleared the threshold.
	OutcomeNone Outcome = "none"
)

// selectMatch picks the winning candidate for fragment with a fixed
// precedence: exact case-normalised equality beats substring containment,
// which beats minimum edit distance.  Within a tier, ties resolve to the
// smaller edit distance, then the higher score and then the earlier
// candidate, so the result depends only on the inputs and the vocabulary
// order.
func selectMatch(fragment string, candidates []Candidate) (Candidate, Outcome) {
	if len(candidates) == 0 {
		return Candidate{}, OutcomeNone
	}

	frag := normalize(fragment)

	// Tier 1: exact equality after normalisation.
	if c, ok := bestBy(candidates, func(c Candidate) (bool, int) {
		if normalize(c.Entry.Text) == frag {
			return true, 0
		}
		return false, 0
	}); ok {
		return c, OutcomeExact
	}

	// Tier 2: containment either way round, so "Filgrastim." still finds
	// "Filgrastim" and a bare "alpha-2a" mention finds the full entry.
	// Several containing entries rank by edit distance, as in tier 3.
	if c, ok := bestBy(candidates, func(c Candidate) (bool, int) {
		text := normalize(c.Entry.Text)
		if strings.Contains(frag, text) || strings.Contains(text, frag) {
			return true, LevenshteinDistance(frag, text)
		}
		return false, 0
	}); ok {
		return c, OutcomeContainment
	}

	// Tier 3: minimum edit distance.
	c, _ := bestBy(candidates, func(c Candidate) (bool, int) {
		return true, LevenshteinDistance(frag, normalize(c.Entry.Text))
	})
	return c, OutcomeDistance
}

// bestBy returns the eligible candidate with the lowest rank; rank ties go to
// the higher score, score ties to the earlier candidate.
func bestBy(candidates []Candidate, eligible func(Candidate) (bool, int)) (Candidate, bool) {
	var (
		best     Candidate
		bestRank int
		found    bool
	)
	for _, c := range candidates {
		ok, rank := eligible(c)
		if !ok {
			continue
		}
		if !found || rank < bestRank || (rank == bestRank && c.Score > best.Score) {
			best = c
			bestRank = rank
			found = true
		}
	}
	return best, found
}
