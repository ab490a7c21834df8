// Package matching implements the substance mention matching pipeline:
// splitting free text into fragments, generating threshold-filtered
// candidates from the reference vocabulary, selecting the best match per
// fragment with a deterministic precedence, and aggregating the selected
// canonical texts into one value per input record.
package matching

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalize maps text to its comparison form: NFC so that composed and
// decomposed umlauts compare equal, trimmed, and lower-cased.  Diacritics
// are preserved; "Folinsäure" and "FOLINSÄURE" normalise to the same string
// but "Folinsaure" does not.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
