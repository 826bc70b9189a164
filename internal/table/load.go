package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrFileAccess wraps failures to open or read a source file.
	ErrFileAccess = errors.New("file access")

	// ErrNoHeader is returned when a file loaded in header mode has no lines.
	ErrNoHeader = errors.New("no header row")

	// ErrInvalidOptions is returned for unusable delimiters or encodings.
	ErrInvalidOptions = errors.New("invalid load options")
)

// Encoding names the character set of a source file.
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	Latin1      Encoding = "latin1"
	Windows1252 Encoding = "windows-1252"
)

// ParseEncoding resolves common spellings of the supported encodings.
// The empty string means UTF-8.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf8", "utf-8":
		return UTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return Latin1, nil
	case "windows-1252", "cp1252", "win1252":
		return Windows1252, nil
	default:
		return "", fmt.Errorf("%w: unsupported encoding %q", ErrInvalidOptions, s)
	}
}

// decoder returns the transformer that turns file bytes into UTF-8.
// The UTF-8 path strips a leading BOM and replaces invalid sequences with
// U+FFFD instead of failing the load.
func (e Encoding) decoder() transform.Transformer {
	switch e {
	case Latin1:
		return charmap.ISO8859_1.NewDecoder()
	case Windows1252:
		return charmap.Windows1252.NewDecoder()
	default:
		return xunicode.BOMOverride(xunicode.UTF8.NewDecoder())
	}
}

// LoadOptions controls how a file is split into rows.
type LoadOptions struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune

	// Columns, when set, are the column names in order and the file is read
	// as headerless: its first line is data. When empty the first line is
	// the header.
	Columns []string

	// Encoding of the file. Empty means UTF-8.
	Encoding Encoding
}

func (o LoadOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

func (o LoadOptions) validate() error {
	d := o.delimiter()
	if d == '"' || d == '\r' || d == '\n' || d == utf8.RuneError || !utf8.ValidRune(d) {
		return fmt.Errorf("%w: delimiter %q", ErrInvalidOptions, d)
	}
	if o.Encoding != "" {
		if _, err := ParseEncoding(string(o.Encoding)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the delimited file at path into a Table.
//
// Lines that do not split into exactly one field per column, or that the
// CSV reader cannot parse, are skipped and counted in Table.Skipped. When a
// rejected record spans several lines, each of those lines is kept or
// skipped on its own. A path that cannot be opened or read fails the whole
// load with ErrFileAccess.
func Load(path string, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	defer f.Close()

	t, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	t.Source = path
	return t, nil
}

// Read parses delimited text from r. See Load for the row rules.
func Read(r io.Reader, opts LoadOptions) (*Table, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	enc, _ := ParseEncoding(string(opts.Encoding))

	data, err := io.ReadAll(transform.NewReader(r, enc.decoder()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	comma := opts.delimiter()
	cr := newCSVReader(bytes.NewReader(data), comma)

	var t *Table
	if len(opts.Columns) > 0 {
		t = New(opts.Columns...)
	}

	for {
		start := cr.InputOffset()
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) || t == nil {
				return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
			}
		}

		if t == nil {
			t = New(headerNames(record)...)
			continue
		}

		if err == nil && len(record) == len(t.Columns) {
			t.appendRecord(record)
			continue
		}

		// An unbalanced quote makes the reader run on into the following
		// lines. Those lines are parsed again one at a time.
		t.readLines(data[start:cr.InputOffset()], comma)
	}

	if t == nil {
		return nil, ErrNoHeader
	}
	return t, nil
}

func newCSVReader(r io.Reader, comma rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// readLines parses each physical line of a rejected span on its own. Lines
// with one field per column become rows; every other non-blank line counts
// as skipped.
func (t *Table) readLines(span []byte, comma rune) {
	for _, line := range bytes.Split(span, []byte("\n")) {
		if len(bytes.TrimRight(line, "\r")) == 0 {
			continue
		}
		record, err := newCSVReader(bytes.NewReader(line), comma).Read()
		if err != nil || len(record) != len(t.Columns) {
			t.Skipped++
			continue
		}
		t.appendRecord(record)
	}
}

func (t *Table) appendRecord(record []string) {
	row := make(Row, len(record))
	for i, v := range record {
		row[i] = ToText(v)
	}
	t.Rows = append(t.Rows, row)
}

// headerNames cleans a header record. Blank names get a positional name so
// every column stays addressable.
func headerNames(record []string) []string {
	names := make([]string, len(record))
	for i, h := range record {
		name := CleanCell(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		names[i] = name
	}
	return names
}
