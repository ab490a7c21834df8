package matching

import (
	"regexp"
	"strings"

	"github.com/medcodelab/substance-mapper/pkg/errors"
)

// DefaultSplitPattern separates multi-substance mentions on comma, semicolon,
// plus, and the whole words "und" and "oder".  Whitespace alone never splits:
// "Interferon alpha" stays one fragment.
const DefaultSplitPattern = `[,;+]|\b(?i:und|oder)\b`

// Splitter cuts a free-text mention into an ordered sequence of trimmed,
// non-empty fragments.
type Splitter struct {
	re *regexp.Regexp
}

// NewSplitter compiles pattern into a Splitter.  An empty pattern selects
// DefaultSplitPattern.  A pattern that does not compile is a configuration
// error reported before any record is processed.
func NewSplitter(pattern string) (*Splitter, error) {
	if pattern == "" {
		pattern = DefaultSplitPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Configuration(errors.ErrCodeSplitPatternInvalid,
			"split pattern does not compile").WithDetail(pattern).WithCause(err)
	}
	return &Splitter{re: re}, nil
}

// MustNewSplitter is NewSplitter panicking on error, for use with the
// built-in pattern and in tests.
func MustNewSplitter(pattern string) *Splitter {
	s, err := NewSplitter(pattern)
	if err != nil {
		panic(err)
	}
	return s
}

// Split returns the ordered fragments of text.  Each fragment is trimmed of
// surrounding whitespace; empty fragments are dropped, so ",," or a trailing
// delimiter never produces blanks.  Empty or blank input yields an empty
// sequence.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	parts := s.re.Split(text, -1)
	fragments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fragments = append(fragments, p)
	}
	return fragments
}
