package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcodelab/substance-mapper/pkg/errors"
)

const sampleInput = `id;substanz;kommentar
1;Tamoxifen;adjuvant
2;5-FU und Leuprorelin;
3;;leer
`

func TestRead(t *testing.T) {
	table, err := Read(strings.NewReader(sampleInput), ';')
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "substanz", "kommentar"}, table.Header)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Tamoxifen", table.Rows[0][1])
}

func TestRead_EmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""), ';')
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestColumn(t *testing.T) {
	table, err := Read(strings.NewReader(sampleInput), ';')
	require.NoError(t, err)

	values, err := table.Column("substanz")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tamoxifen", "5-FU und Leuprorelin", ""}, values)
}

func TestColumn_RaggedRows(t *testing.T) {
	table, err := Read(strings.NewReader("a;b\nx\ny;z\n"), ';')
	require.NoError(t, err)

	values, err := table.Column("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "z"}, values)
}

func TestColumn_NotFound(t *testing.T) {
	table, err := Read(strings.NewReader(sampleInput), ';')
	require.NoError(t, err)

	_, err = table.Column("missing")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestAppendColumn(t *testing.T) {
	table, err := Read(strings.NewReader(sampleInput), ';')
	require.NoError(t, err)

	require.NoError(t, table.AppendColumn("substanz_ref", []string{"Tamoxifen", "fluorouracil; Leuprorelin", ""}))

	assert.Equal(t, "substanz_ref", table.Header[3])
	assert.Equal(t, "fluorouracil; Leuprorelin", table.Rows[1][3])

	// Row count unchanged.
	assert.Len(t, table.Rows, 3)
}

func TestAppendColumn_LengthMismatch(t *testing.T) {
	table, err := Read(strings.NewReader(sampleInput), ';')
	require.NoError(t, err)

	err = table.AppendColumn("out", []string{"only one"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestWrite_RoundTrip(t *testing.T) {
	table, err := Read(strings.NewReader(sampleInput), ';')
	require.NoError(t, err)
	require.NoError(t, table.AppendColumn("ref", []string{"a", "b", "c"}))

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf))

	reread, err := Read(&buf, ';')
	require.NoError(t, err)
	assert.Equal(t, table.Header, reread.Header)
	require.Len(t, reread.Rows, 3)
	assert.Equal(t, "b", reread.Rows[1][3])
}
