package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vocabCSV = `Code;Substanz
S01;Tamoxifen
S02;Leuprorelin
S03;Letrozol
`

// newVocabServer serves the reference CSV and returns a config file pointing
// at it.
func newVocabServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, vocabCSV)
	}))
	t.Cleanup(srv.Close)

	cfgPath := filepath.Join(t.TempDir(), "submap.yaml")
	cfg := fmt.Sprintf("vocabulary:\n  url: %s\n", srv.URL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestMatchCmd_PositionalRecords(t *testing.T) {
	cfgPath := newVocabServer(t)

	out, err := runCommand(t, "match", "-q", "--config", cfgPath,
		"Tamoxifen und Letrozol", "unbekannt xyz")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Tamoxifen; Letrozol", lines[0])
	assert.Equal(t, "", lines[1])
}

func TestMatchCmd_OnlyFirstMatchFlag(t *testing.T) {
	cfgPath := newVocabServer(t)

	out, err := runCommand(t, "match", "-q", "--config", cfgPath,
		"--only-first-match", "Tamoxifen und Letrozol")
	require.NoError(t, err)
	assert.Equal(t, "Tamoxifen\n", out)
}

func TestMatchCmd_File(t *testing.T) {
	cfgPath := newVocabServer(t)

	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.csv")
	outPath := filepath.Join(dir, "out.csv")
	input := "id;substanz\n1;Tamoxifen\n2;Leuprorelim\n3;nichts passendes hier\n"
	require.NoError(t, os.WriteFile(inPath, []byte(input), 0o600))

	_, err := runCommand(t, "match", "-q", "--config", cfgPath,
		"--in", inPath, "--column", "substanz", "--out", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "id;substanz;substanz_matched", lines[0])
	assert.Equal(t, "1;Tamoxifen;Tamoxifen", lines[1])
	// One edit away from the canonical entry, matched by distance.
	assert.Equal(t, "2;Leuprorelim;Leuprorelin", lines[2])
	assert.Equal(t, "3;nichts passendes hier;", lines[3])
}

func TestMatchCmd_NoInput(t *testing.T) {
	_, err := runCommand(t, "match", "-q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provide records")
}

func TestMatchCmd_ColumnRequiredWithIn(t *testing.T) {
	_, err := runCommand(t, "match", "-q", "--in", "whatever.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--column is required")
}

func TestMatchCmd_MissingColumn(t *testing.T) {
	cfgPath := newVocabServer(t)

	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(inPath, []byte("a;b\n1;2\n"), 0o600))

	_, err := runCommand(t, "match", "-q", "--config", cfgPath,
		"--in", inPath, "--column", "substanz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "substanz" not found`)
}

func TestVocabFetchCmd(t *testing.T) {
	cfgPath := newVocabServer(t)

	out, err := runCommand(t, "vocab", "fetch", "-q", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Entries: 3")
	assert.Contains(t, out, "Version: ")
}

func TestVocabFetchCmd_Show(t *testing.T) {
	cfgPath := newVocabServer(t)

	out, err := runCommand(t, "vocab", "fetch", "--show", "-q", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "S02\tLeuprorelin")
}

func TestRootCommand_Version(t *testing.T) {
	out, err := runCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "submap")
}
