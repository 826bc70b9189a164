package aviation

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/skypies/geo"

	"github.com/aerodash/aerodash/internal/table"
)

// AirportRecord is one row of the airport detail file. Text fields are empty
// when the source cell was empty. Geography is optional and typed: a
// coordinate the file did not have, or could not parse, has Valid=false.
type AirportRecord struct {
	Identifier string
	OACI       string
	IATA       string
	Name       string
	Province   string
	Type       string
	Control    string
	State      string

	Latitude  pgtype.Float8
	Longitude pgtype.Float8
	Elevation pgtype.Float8
}

// HasPosition reports whether both coordinates are present.
func (a AirportRecord) HasPosition() bool {
	return a.Latitude.Valid && a.Longitude.Valid
}

// Position returns the airport location. ok is false if either coordinate
// is missing.
func (a AirportRecord) Position() (ll geo.Latlong, ok bool) {
	if !a.HasPosition() {
		return geo.Latlong{}, false
	}
	return geo.Latlong{Lat: a.Latitude.Float64, Long: a.Longitude.Float64}, true
}

var airportText = map[string]func(AirportRecord) string{
	"id":        func(a AirportRecord) string { return a.Identifier },
	"oaci":      func(a AirportRecord) string { return a.OACI },
	"iata":      func(a AirportRecord) string { return a.IATA },
	"name":      func(a AirportRecord) string { return a.Name },
	"province":  func(a AirportRecord) string { return a.Province },
	"type":      func(a AirportRecord) string { return a.Type },
	"control":   func(a AirportRecord) string { return a.Control },
	"state":     func(a AirportRecord) string { return a.State },
	"latitude":  func(a AirportRecord) string { return FormatNumber(a.Latitude) },
	"longitude": func(a AirportRecord) string { return FormatNumber(a.Longitude) },
	"elevation": func(a AirportRecord) string { return FormatNumber(a.Elevation) },
}

// Value returns the text of a field by key. ok is false for unknown keys.
func (a AirportRecord) Value(key string) (string, bool) {
	fn, ok := airportText[key]
	if !ok {
		return "", false
	}
	return fn(a), true
}

// NormalizeAirports converts an airport table to records. Headers are
// matched to fields through AirportDataset, so column order and accents do
// not matter. Columns the file lacks leave their field empty or invalid.
// Airport rows are never dropped; the report lists the unmatched fields.
func NormalizeAirports(t *table.Table) ([]AirportRecord, NormalizeReport) {
	report := NormalizeReport{Read: t.Len()}
	if t == nil {
		return []AirportRecord{}, report
	}

	pos := AirportDataset.Resolve(t.Columns)
	report.MissingColumns = AirportDataset.Missing(pos)

	cell := func(row table.Row, key string) string {
		i, ok := pos[key]
		if !ok || i >= len(row) || !row[i].Valid {
			return ""
		}
		return row[i].String
	}

	records := make([]AirportRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, AirportRecord{
			Identifier: cell(row, "id"),
			OACI:       cell(row, "oaci"),
			IATA:       cell(row, "iata"),
			Name:       cell(row, "name"),
			Province:   cell(row, "province"),
			Type:       cell(row, "type"),
			Control:    cell(row, "control"),
			State:      cell(row, "state"),
			Latitude:   ParseCoordinate(cell(row, "latitude")),
			Longitude:  ParseCoordinate(cell(row, "longitude")),
			Elevation:  ParseCoordinate(cell(row, "elevation")),
		})
	}
	report.Kept = len(records)
	return records, report
}
