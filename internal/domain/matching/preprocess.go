package matching

import (
	"regexp"
	"strings"
)

// Clinical free text abbreviates or misspells a handful of very common
// substances so often that fuzzy matching alone is unreliable for them.
// The preprocessor rewrites those mentions to their canonical names and
// strips filler words before the text is split into fragments.

var (
	// 5-FU and its many variants stand for fluorouracil.
	fiveFURe = regexp.MustCompile(`(?i)5 fu|5fu|5-fu|5_fu|Fluoruracil|flourouracil|5-fluoruuracil|5-fluoro-uracil|5-fluoruracil|floururacil|5-fluorounacil|flourouraci|5-fluourouracil`)

	// Frequent misspelling of gemcitabin, with or without a "Mono" suffix.
	gemcitabinRe = regexp.MustCompile(`(?i)Gemcibatin(?:e)?(?: Mono)?`)

	// The reference list names the albumin-bound formulation "Paclitaxel nab".
	nabPaclitaxelRe = regexp.MustCompile(`(?i)\bnab[\s\-]?Paclitaxel\b`)

	// Calciumfolinat is recorded under folinsäure.
	calciumfolinatRe = regexp.MustCompile(`(?i)\b(Calciumfolinat)\b`)
)

// minWordLen is the minimum word length kept by removeShortWords; shorter
// tokens are dose units and stray abbreviations that only add noise.
const minWordLen = 3

// Preprocessor normalises known abbreviations and misspellings in free text.
// The zero value is not usable; construct with NewPreprocessor.
type Preprocessor struct {
	enabled bool
}

// NewPreprocessor returns a Preprocessor.  When enabled is false, Apply
// returns its input unchanged.
func NewPreprocessor(enabled bool) *Preprocessor {
	return &Preprocessor{enabled: enabled}
}

// Apply rewrites known substance variants to their canonical names and drops
// words shorter than three characters.  The result is trimmed.
func (p *Preprocessor) Apply(text string) string {
	if !p.enabled {
		return text
	}
	text = fiveFURe.ReplaceAllString(text, "fluorouracil")
	text = gemcitabinRe.ReplaceAllString(text, "gemcitabin")
	text = nabPaclitaxelRe.ReplaceAllString(text, "Paclitaxel nab")
	text = calciumfolinatRe.ReplaceAllString(text, "folinsäure")
	text = removeShortWords(text)
	return strings.TrimSpace(text)
}

// removeShortWords drops whitespace-separated words shorter than minWordLen
// characters.  Delimiters like "," and "+" survive because they attach to
// their neighbouring words.
func removeShortWords(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if len([]rune(w)) >= minWordLen {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
