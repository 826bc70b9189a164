package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_HeaderMode(t *testing.T) {
	path := writeFile(t, "aeropuertos.csv",
		"local;oaci;denominacion;provincia\n"+
			"COR;SACO;Córdoba;Córdoba\n"+
			"RCU;SAOC;Río Cuarto;Córdoba\n")

	tbl, err := Load(path, LoadOptions{Delimiter: ';'})
	require.NoError(t, err)

	assert.Equal(t, []string{"local", "oaci", "denominacion", "provincia"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, path, tbl.Source)
	assert.Equal(t, "Río Cuarto", tbl.Cell(1, "denominacion").String)
}

func TestLoad_ExplicitColumns(t *testing.T) {
	// The first line is data, not a header.
	path := writeFile(t, "202401.csv",
		"01/03/2024,10:15,Regular,Doméstico,Despegue\n"+
			"02/03/2024,11:00,Regular,Doméstico,Aterrizaje\n")

	cols := []string{"Fecha UTC", "Hora UTC", "Clase de Vuelo", "Clasificación Vuelo", "Tipo de Movimiento"}
	tbl, err := Load(path, LoadOptions{Columns: cols})
	require.NoError(t, err)

	assert.Equal(t, cols, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "01/03/2024", tbl.Cell(0, "Fecha UTC").String)
	assert.Equal(t, "Aterrizaje", tbl.Cell(1, "Tipo de Movimiento").String)
}

func TestLoad_SkipsMalformedLines(t *testing.T) {
	path := writeFile(t, "ragged.csv",
		"a,b,c\n"+
			"1,2,3\n"+
			"1,2\n"+
			"1,2,3,4\n"+
			"4,5,6\n")

	tbl, err := Load(path, LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, 2, tbl.Skipped)
	assert.Equal(t, "4", tbl.Cell(1, "a").String)
}

func TestRead_UnclosedQuoteDoesNotSwallowLines(t *testing.T) {
	content := "a,b,c\n" +
		"1,2,3\n" +
		"4,\"5,6\n" +
		"7,8,9\n" +
		"10,11,12\n" +
		"13,14,15\n"

	tbl, err := Read(strings.NewReader(content), LoadOptions{})
	require.NoError(t, err)

	require.Equal(t, 4, tbl.Len())
	assert.Equal(t, 1, tbl.Skipped)
	assert.Equal(t, "7", tbl.Cell(1, "a").String)
	assert.Equal(t, "15", tbl.Cell(3, "c").String)

	dataLines := strings.Count(content, "\n") - 1
	assert.Equal(t, dataLines, tbl.Len()+tbl.Skipped)
}

func TestRead_QuotedNewlineKept(t *testing.T) {
	tbl, err := Read(strings.NewReader("a,b\n\"x\ny\",2\n3,4\n"), LoadOptions{})
	require.NoError(t, err)

	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, 0, tbl.Skipped)
	assert.Equal(t, "x\ny", tbl.Cell(0, "a").String)
}

func TestLoad_RowCountNeverExceedsLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		opts    LoadOptions
	}{
		{"header mode", "x,y\n1,2\n3,4\n5\n", LoadOptions{}},
		{"explicit columns", "1,2\n3,4\n5,6\n", LoadOptions{Columns: []string{"x", "y"}}},
		{"blank lines", "x,y\n\n1,2\n\n", LoadOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Read(strings.NewReader(tt.content), tt.opts)
			require.NoError(t, err)

			lines := strings.Count(tt.content, "\n")
			if len(tt.opts.Columns) == 0 {
				lines--
			}
			assert.LessOrEqual(t, tbl.Len(), lines)
		})
	}
}

func TestLoad_EmptyCellsAreMissing(t *testing.T) {
	tbl, err := Read(strings.NewReader("a;b;c\n1; ;\"\"\n"), LoadOptions{Delimiter: ';'})
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	assert.True(t, tbl.Cell(0, "a").Valid)
	assert.False(t, tbl.Cell(0, "b").Valid)
	assert.False(t, tbl.Cell(0, "c").Valid)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"), LoadOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileAccess)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	_, err := Load(path, LoadOptions{})
	assert.ErrorIs(t, err, ErrNoHeader)

	// With explicit columns an empty file is just an empty table.
	tbl, err := Load(path, LoadOptions{Columns: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestRead_StripsBOM(t *testing.T) {
	tbl, err := Read(strings.NewReader("\ufefflocal;oaci\nCOR;SACO\n"), LoadOptions{Delimiter: ';'})
	require.NoError(t, err)

	assert.Equal(t, "local", tbl.Columns[0])
	assert.True(t, tbl.HasColumn("local"))
}

func TestRead_Latin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String("provincia\nCórdoba\nNeuquén\n")
	require.NoError(t, err)

	tbl, err := Read(bytes.NewReader([]byte(encoded)), LoadOptions{Encoding: Latin1})
	require.NoError(t, err)

	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Córdoba", tbl.Cell(0, "provincia").String)
	assert.Equal(t, "Neuquén", tbl.Cell(1, "provincia").String)
}

func TestRead_InvalidOptions(t *testing.T) {
	_, err := Read(strings.NewReader("a\n1\n"), LoadOptions{Delimiter: '"'})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = Read(strings.NewReader("a\n1\n"), LoadOptions{Encoding: "ebcdic"})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestRead_BlankHeaderNames(t *testing.T) {
	tbl, err := Read(strings.NewReader("a,,c\n1,2,3\n"), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "column_2", "c"}, tbl.Columns)
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		input   string
		want    Encoding
		wantErr bool
	}{
		{"", UTF8, false},
		{"UTF-8", UTF8, false},
		{"ISO-8859-1", Latin1, false},
		{"latin1", Latin1, false},
		{"cp1252", Windows1252, false},
		{"utf-16", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEncoding(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
