// Package aviation turns raw airport and ministry report tables into typed
// records, filters them and computes the aggregates the dashboard shows.
//
// The package has no I/O and no state. Every function takes its input as
// arguments and returns new slices; nothing is modified in place.
package aviation

import (
	"cmp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/aerodash/aerodash/internal/table"
)

// FieldType is the coerced type of a dataset column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldTime
	FieldNumeric
	FieldCoordinate
)

func (t FieldType) String() string {
	switch t {
	case FieldDate:
		return "date"
	case FieldTime:
		return "time"
	case FieldNumeric:
		return "numeric"
	case FieldCoordinate:
		return "coordinate"
	default:
		return "text"
	}
}

// FieldSpec describes one column of a dataset.
type FieldSpec struct {
	Key      string    // Filter and API name: "province"
	Name     string    // Canonical column header: "provincia"
	Aliases  []string  // Other accepted headers, matched with Fold
	Type     FieldType // Coerced type
	Required bool      // Row is dropped when the value is missing after coercion
	Label    string    // Display name for option lists
}

// Accepts reports whether a raw cell satisfies the field once coerced.
// Text must be non-empty. Numeric fields hold counts, so negative values
// are rejected along with anything that does not parse.
func (f FieldSpec) Accepts(s string) bool {
	switch f.Type {
	case FieldDate:
		return ParseDate(s).Valid
	case FieldTime:
		return ParseClock(s).Valid
	case FieldNumeric:
		n := ParseNumber(s)
		return n.Valid && n.Float64 >= 0
	case FieldCoordinate:
		return ParseCoordinate(s).Valid
	default:
		return strings.TrimSpace(s) != ""
	}
}

// Dataset describes the shape of one kind of source file.
type Dataset struct {
	Key       string
	Label     string
	Delimiter rune
	// Header is false for files whose columns are supplied explicitly.
	Header bool
	Fields []FieldSpec
}

// AirportDataset is the airport detail file. Its header row names the
// columns, so headers are matched against names and aliases.
var AirportDataset = Dataset{
	Key:       "airports",
	Label:     "Aeropuertos",
	Delimiter: ';',
	Header:    true,
	Fields: []FieldSpec{
		{Key: "id", Name: "local", Aliases: []string{"id", "codigo", "codigo local"}, Label: "Código local"},
		{Key: "oaci", Name: "oaci", Aliases: []string{"icao"}, Label: "OACI"},
		{Key: "iata", Name: "iata", Label: "IATA"},
		{Key: "name", Name: "denominacion", Aliases: []string{"nombre"}, Label: "Denominación"},
		{Key: "province", Name: "provincia", Label: "Provincia"},
		{Key: "type", Name: "tipo", Aliases: []string{"tipo de aerodromo"}, Label: "Tipo"},
		{Key: "control", Name: "control", Label: "Control"},
		{Key: "state", Name: "estado", Aliases: []string{"condicion"}, Label: "Estado"},
		{Key: "latitude", Name: "latitud", Aliases: []string{"lat"}, Type: FieldCoordinate, Label: "Latitud"},
		{Key: "longitude", Name: "longitud", Aliases: []string{"lon", "long"}, Type: FieldCoordinate, Label: "Longitud"},
		{Key: "elevation", Name: "elevacion", Aliases: []string{"elev"}, Type: FieldNumeric, Label: "Elevación"},
	},
}

// MovementDataset is the ministry flight movement report. Report files have
// no header row; the field order below is the column order of every file.
var MovementDataset = Dataset{
	Key:       "movements",
	Label:     "Informe del Ministerio",
	Delimiter: ',',
	Header:    false,
	Fields: []FieldSpec{
		{Key: "date", Name: "Fecha UTC", Type: FieldDate, Required: true, Label: "Fecha"},
		{Key: "time", Name: "Hora UTC", Type: FieldTime, Label: "Hora"},
		{Key: "class", Name: "Clase de Vuelo", Aliases: []string{"Clase de Vuelo (todos los vuelos)"}, Label: "Clase de Vuelo"},
		{Key: "classification", Name: "Clasificación Vuelo", Label: "Clasificación"},
		{Key: "movement", Name: "Tipo de Movimiento", Label: "Tipo de Movimiento"},
		{Key: "airport", Name: "Aeropuerto", Required: true, Label: "Aeropuerto"},
		{Key: "origin", Name: "Origen/Destino", Label: "Origen/Destino"},
		{Key: "airline", Name: "Aerolinea Nombre", Required: true, Label: "Aerolínea"},
		{Key: "aircraft", Name: "Aeronave", Label: "Aeronave"},
		{Key: "passengers", Name: "Pasajeros", Type: FieldNumeric, Label: "Pasajeros"},
		{Key: "pax", Name: "PAX", Type: FieldNumeric, Required: true, Label: "PAX"},
		{Key: "quality", Name: "Calidad dato", Label: "Calidad"},
	},
}

var datasets = map[string]Dataset{
	AirportDataset.Key:  AirportDataset,
	MovementDataset.Key: MovementDataset,
}

// GetDataset returns a dataset by key.
func GetDataset(key string) (Dataset, bool) {
	d, ok := datasets[key]
	return d, ok
}

// Datasets returns all datasets sorted by key.
func Datasets() []Dataset {
	out := make([]Dataset, 0, len(datasets))
	for _, d := range datasets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// LoadOptions returns the options for reading one of the dataset's files.
// A zero delimiter falls back to the dataset's own. Headerless datasets
// supply their canonical columns.
func (d Dataset) LoadOptions(delimiter rune, enc table.Encoding) table.LoadOptions {
	opts := table.LoadOptions{
		Delimiter: cmp.Or(delimiter, d.Delimiter),
		Encoding:  enc,
	}
	if !d.Header {
		opts.Columns = d.Columns()
	}
	return opts
}

// Rejects returns the key of the first required field, in field order,
// whose value is not accepted. ok is false when every required field is.
func (d Dataset) Rejects(value func(key string) string) (key string, ok bool) {
	for _, f := range d.Fields {
		if f.Required && !f.Accepts(value(f.Key)) {
			return f.Key, true
		}
	}
	return "", false
}

// Columns returns the canonical column names in order.
func (d Dataset) Columns() []string {
	cols := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = f.Name
	}
	return cols
}

// Field returns the spec for a field key.
func (d Dataset) Field(key string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldLabel returns the display label of a field, or key itself when the
// field is unknown or unlabeled.
func (d Dataset) FieldLabel(key string) string {
	if f, ok := d.Field(key); ok && f.Label != "" {
		return f.Label
	}
	return key
}

// Keys returns the field keys in order.
func (d Dataset) Keys() []string {
	keys := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Resolve maps field keys to positions in columns. Header names are
// compared with Fold, so "Denominación", "DENOMINACION" and "denominacion"
// all match. Fields with no matching column are absent from the result.
func (d Dataset) Resolve(columns []string) map[string]int {
	folded := make(map[string]int, len(columns))
	for i, c := range columns {
		k := Fold(c)
		if _, dup := folded[k]; !dup {
			folded[k] = i
		}
	}

	positions := make(map[string]int, len(d.Fields))
	for _, f := range d.Fields {
		for _, name := range append([]string{f.Name}, f.Aliases...) {
			if i, ok := folded[Fold(name)]; ok {
				positions[f.Key] = i
				break
			}
		}
	}
	return positions
}

// Missing returns the canonical names of fields that Resolve could not find.
func (d Dataset) Missing(positions map[string]int) []string {
	var missing []string
	for _, f := range d.Fields {
		if _, ok := positions[f.Key]; !ok {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Fold reduces a header name to a comparison key: accents removed, lower
// case, runs of whitespace collapsed and no spaces around '/'.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(strings.Join(strings.Fields(out), " "))
	return strings.ReplaceAll(strings.ReplaceAll(out, " /", "/"), "/ ", "/")
}
