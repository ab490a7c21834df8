package httpcsv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/logging"
	"github.com/medcodelab/substance-mapper/pkg/errors"
)

const sampleCSV = `Code;Substanz;Anmerkung
S01;Tamoxifen;
S02;Leuprorelin;hormone
S03;Folinsäure;
S01;Tamoxifen;duplicate row
`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProvider(Config{
		URL:        srv.URL,
		IDColumn:   "Code",
		TextColumn: "Substanz",
		Separator:  ";",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	return p
}

func TestNewProvider_Validation(t *testing.T) {
	log := logging.NewNopLogger()

	_, err := NewProvider(Config{IDColumn: "Code", TextColumn: "Substanz"}, log)
	assert.Error(t, err)

	_, err = NewProvider(Config{URL: "http://example.test", TextColumn: "Substanz"}, log)
	assert.Error(t, err)

	_, err = NewProvider(Config{URL: "http://example.test", IDColumn: "Code", TextColumn: "Substanz", Separator: ";;"}, log)
	assert.Error(t, err)
}

func TestProvider_Fetch(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	})

	vocab, err := p.Fetch(context.Background())
	require.NoError(t, err)

	// Duplicate row dropped, order preserved.
	require.Equal(t, 3, vocab.Len())
	assert.Equal(t, "Tamoxifen", vocab.Entries()[0].Text)
	assert.Equal(t, "S01", vocab.Entries()[0].ID)
	assert.Equal(t, "Folinsäure", vocab.Entries()[2].Text)
	assert.NotEmpty(t, vocab.Version())
}

func TestProvider_FetchHTTPError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeVocabularyFetchFailed))
}

func TestProvider_FetchMissingColumn(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Kennung;Name\nS01;Tamoxifen\n"))
	})

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeVocabularyParseFailed))
}

func TestProvider_FetchEmptyBody(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	vocab, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, vocab.IsEmpty())
}

func TestProvider_FetchContextCancelled(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Fetch(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeVocabularyFetchFailed))
}
