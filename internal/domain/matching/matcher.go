package matching

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/medcodelab/substance-mapper/internal/domain/vocabulary"
	"github.com/medcodelab/substance-mapper/pkg/errors"
)

// DefaultJoinDelimiter joins the selected canonical texts of one record.
const DefaultJoinDelimiter = "; "

// Options configures a Matcher.  Validation happens once, in NewMatcher,
// before any record is processed.
type Options struct {
	// Threshold is the minimum similarity score a candidate must reach,
	// in (0, 1].
	Threshold float64

	// OnlyFirstMatch stops a record at the first fragment that yields a
	// selection; later fragments are ignored.
	OnlyFirstMatch bool

	// MaxPerMatchID caps how often the same vocabulary ID may appear in
	// one record's output.  Must be at least 1.  Ignored when
	// OnlyFirstMatch is set, since that mode selects at most one match.
	MaxPerMatchID int

	// SplitPattern overrides DefaultSplitPattern when non-empty.
	SplitPattern string

	// JoinDelimiter overrides DefaultJoinDelimiter when non-empty.
	JoinDelimiter string

	// Preprocess enables rewriting of known abbreviations and
	// misspellings before splitting.
	Preprocess bool

	// Workers bounds the batch concurrency.  Zero or negative means 1.
	Workers int
}

// Validate checks the option ranges and the split pattern.  Any violation is
// a configuration error; nothing is processed with invalid options.
func (o Options) Validate() error {
	if o.Threshold <= 0 || o.Threshold > 1 {
		return errors.Configuration(errors.ErrCodeThresholdInvalid,
			"threshold must be in (0, 1]")
	}
	if o.MaxPerMatchID < 1 {
		return errors.Configuration(errors.ErrCodeMaxPerMatchIDInvalid,
			"max per match id must be at least 1")
	}
	if _, err := NewSplitter(o.SplitPattern); err != nil {
		return err
	}
	return nil
}

// FragmentMatch records the selection made for one fragment.
type FragmentMatch struct {
	Fragment string           `json:"fragment"`
	Entry    vocabulary.Entry `json:"entry"`
	Score    float64          `json:"score"`
	Outcome  Outcome          `json:"outcome"`

	// Candidates is how many entries cleared the threshold for this
	// fragment before selection.
	Candidates int `json:"candidates"`
}

// Result is the outcome for one input record.  Output is always set, to the
// empty string when nothing matched, so results stay positionally aligned
// with their inputs.
type Result struct {
	Input   string          `json:"input"`
	Output  string          `json:"output"`
	Matches []FragmentMatch `json:"matches,omitempty"`

	// Fragments is the number of fragments the record split into.
	Fragments int `json:"fragments"`
}

// Matcher maps free-text substance mentions to canonical vocabulary texts.
// It is immutable after construction and safe for concurrent use.
type Matcher struct {
	opts     Options
	splitter *Splitter
	pre      *Preprocessor
	scorer   Scorer
}

// NewMatcher validates opts and builds a Matcher using scorer for candidate
// generation.  A nil scorer selects the edit-distance scorer.
func NewMatcher(opts Options, scorer Scorer) (*Matcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if scorer == nil {
		scorer = NewLevenshteinScorer()
	}
	if opts.JoinDelimiter == "" {
		opts.JoinDelimiter = DefaultJoinDelimiter
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	splitter, err := NewSplitter(opts.SplitPattern)
	if err != nil {
		return nil, err
	}

	return &Matcher{
		opts:     opts,
		splitter: splitter,
		pre:      NewPreprocessor(opts.Preprocess),
		scorer:   scorer,
	}, nil
}

// Options returns the validated options the Matcher runs with.
func (m *Matcher) Options() Options {
	return m.opts
}

// Match processes a single record against vocab.  An empty vocabulary or a
// record with no qualifying fragment yields an empty Output, never an error.
func (m *Matcher) Match(vocab *vocabulary.Vocabulary, record string) Result {
	res := Result{Input: record}

	fragments := m.splitter.Split(m.pre.Apply(record))
	res.Fragments = len(fragments)

	for _, frag := range fragments {
		candidates := generateCandidates(frag, vocab, m.scorer, m.opts.Threshold)
		selected, outcome := selectMatch(frag, candidates)
		if outcome == OutcomeNone {
			continue
		}
		res.Matches = append(res.Matches, FragmentMatch{
			Fragment:   frag,
			Entry:      selected.Entry,
			Score:      selected.Score,
			Outcome:    outcome,
			Candidates: len(candidates),
		})
		if m.opts.OnlyFirstMatch {
			break
		}
	}

	if !m.opts.OnlyFirstMatch {
		res.Matches = capPerID(res.Matches, m.opts.MaxPerMatchID)
	}

	res.Output = joinMatches(res.Matches, m.opts.JoinDelimiter)
	return res
}

// MatchBatch processes records concurrently with the configured worker bound
// and returns one Result per record, in input order.  It stops early only
// when ctx is cancelled.
func (m *Matcher) MatchBatch(ctx context.Context, vocab *vocabulary.Vocabulary, records []string) ([]Result, error) {
	results := make([]Result, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)

	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = m.Match(vocab, record)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// outcomeWeight orders selection outcomes for duplicate capping: stronger
// rules survive, weaker duplicates are dropped first.
func outcomeWeight(o Outcome) int {
	switch o {
	case OutcomeExact:
		return 0
	case OutcomeContainment:
		return 1
	case OutcomeDistance:
		return 2
	default:
		return 3
	}
}

// capPerID limits occurrences of the same vocabulary ID to max, dropping the
// lowest-precedence duplicates first and, within equal precedence, the later
// ones.  Surviving matches keep fragment order.
func capPerID(matches []FragmentMatch, max int) []FragmentMatch {
	if len(matches) <= max {
		return matches
	}

	type ranked struct {
		pos int
		m   FragmentMatch
	}
	byID := make(map[string][]ranked)
	for pos, m := range matches {
		byID[m.Entry.ID] = append(byID[m.Entry.ID], ranked{pos: pos, m: m})
	}

	keep := make(map[int]bool, len(matches))
	for _, group := range byID {
		if len(group) > max {
			sort.SliceStable(group, func(i, j int) bool {
				wi, wj := outcomeWeight(group[i].m.Outcome), outcomeWeight(group[j].m.Outcome)
				if wi != wj {
					return wi < wj
				}
				return group[i].pos < group[j].pos
			})
			group = group[:max]
		}
		for _, r := range group {
			keep[r.pos] = true
		}
	}

	kept := make([]FragmentMatch, 0, len(matches))
	for pos, m := range matches {
		if keep[pos] {
			kept = append(kept, m)
		}
	}
	return kept
}

func joinMatches(matches []FragmentMatch, delimiter string) string {
	if len(matches) == 0 {
		return ""
	}
	out := matches[0].Entry.Text
	for _, m := range matches[1:] {
		out += delimiter + m.Entry.Text
	}
	return out
}
