// Package httpcsv fetches the reference vocabulary from a remote delimited
// file, the distribution format of the cancer registry substance list.
package httpcsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/medcodelab/substance-mapper/internal/domain/vocabulary"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/logging"
	"github.com/medcodelab/substance-mapper/pkg/errors"
)

// Config locates the remote file and names its columns.
type Config struct {
	URL          string
	IDColumn     string
	TextColumn   string
	Separator    string
	FetchTimeout time.Duration
}

// Provider implements vocabulary.Provider over a remote CSV resource.
type Provider struct {
	cfg    Config
	client *http.Client
	logger logging.Logger
}

func NewProvider(cfg Config, log logging.Logger) (*Provider, error) {
	if cfg.URL == "" {
		return nil, errors.New(errors.ErrCodeValidation, "vocabulary URL required")
	}
	if cfg.IDColumn == "" || cfg.TextColumn == "" {
		return nil, errors.New(errors.ErrCodeValidation, "vocabulary column names required")
	}
	if cfg.Separator == "" {
		cfg.Separator = ";"
	}
	if len([]rune(cfg.Separator)) != 1 {
		return nil, errors.New(errors.ErrCodeValidation, "separator must be a single character")
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 30 * time.Second
	}

	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.FetchTimeout},
		logger: log,
	}, nil
}

// Fetch downloads and parses the reference list.  The returned vocabulary
// preserves file order with duplicates removed.
func (p *Provider) Fetch(ctx context.Context) (*vocabulary.Vocabulary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVocabularyFetchFailed, "invalid vocabulary request")
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVocabularyFetchFailed, "vocabulary fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeVocabularyFetchFailed,
			fmt.Sprintf("vocabulary fetch returned status %d", resp.StatusCode))
	}

	reader := csv.NewReader(resp.Body)
	reader.Comma = []rune(p.cfg.Separator)[0]
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVocabularyParseFailed, "vocabulary parse failed")
	}
	if len(records) == 0 {
		return vocabulary.New(nil), nil
	}

	idIdx, textIdx, err := columnIndices(records[0], p.cfg.IDColumn, p.cfg.TextColumn)
	if err != nil {
		return nil, err
	}

	entries := make([]vocabulary.Entry, 0, len(records)-1)
	for _, row := range records[1:] {
		if idIdx >= len(row) || textIdx >= len(row) {
			continue
		}
		entries = append(entries, vocabulary.Entry{ID: row[idIdx], Text: row[textIdx]})
	}

	vocab := vocabulary.New(entries)
	p.logger.Info("Vocabulary fetched",
		logging.String("url", p.cfg.URL),
		logging.Int("entries", vocab.Len()),
		logging.String("version", vocab.Version()),
		logging.Duration("elapsed", time.Since(start)),
	)
	return vocab, nil
}

func columnIndices(header []string, idColumn, textColumn string) (int, int, error) {
	idIdx, textIdx := -1, -1
	for i, name := range header {
		switch name {
		case idColumn:
			idIdx = i
		case textColumn:
			textIdx = i
		}
	}
	if idIdx < 0 {
		return 0, 0, errors.New(errors.ErrCodeVocabularyParseFailed,
			fmt.Sprintf("id column %q not found in header", idColumn))
	}
	if textIdx < 0 {
		return 0, 0, errors.New(errors.ErrCodeVocabularyParseFailed,
			fmt.Sprintf("text column %q not found in header", textColumn))
	}
	return idIdx, textIdx, nil
}
