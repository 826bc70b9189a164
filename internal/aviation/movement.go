package aviation

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aerodash/aerodash/internal/table"
)

// MovementRecord is one flight movement from a ministry report. After
// NormalizeMovements, Date is valid, Airport and Airline are non-empty and
// PAX is a finite non-negative number.
type MovementRecord struct {
	Date              pgtype.Date
	Time              pgtype.Time
	FlightClass       string
	Classification    string
	MovementType      string
	Airport           string
	OriginDestination string
	Airline           string
	Aircraft          string
	Passengers        pgtype.Float8
	PAX               float64
	Quality           string
}

var movementText = map[string]func(MovementRecord) string{
	"date":           func(m MovementRecord) string { return FormatDate(m.Date) },
	"time":           func(m MovementRecord) string { return FormatClock(m.Time) },
	"class":          func(m MovementRecord) string { return m.FlightClass },
	"classification": func(m MovementRecord) string { return m.Classification },
	"movement":       func(m MovementRecord) string { return m.MovementType },
	"airport":        func(m MovementRecord) string { return m.Airport },
	"origin":         func(m MovementRecord) string { return m.OriginDestination },
	"airline":        func(m MovementRecord) string { return m.Airline },
	"aircraft":       func(m MovementRecord) string { return m.Aircraft },
	"passengers":     func(m MovementRecord) string { return FormatNumber(m.Passengers) },
	"pax":            func(m MovementRecord) string { return FormatNumber(pgtype.Float8{Float64: m.PAX, Valid: true}) },
	"quality":        func(m MovementRecord) string { return m.Quality },
}

// Value returns the text of a field by key. ok is false for unknown keys.
func (m MovementRecord) Value(key string) (string, bool) {
	fn, ok := movementText[key]
	if !ok {
		return "", false
	}
	return fn(m), true
}

// NormalizeReport counts what normalization did to a table.
// A dropped row is counted once, under the first required field it failed,
// in MovementDataset field order.
type NormalizeReport struct {
	Read int // Rows in the input table
	Kept int // Rows in the output

	BadDate        int // Date missing or not day/month/year
	MissingAirport int
	MissingAirline int
	BadPAX         int // PAX missing, not numeric or negative
	Other          int // Any other required field

	// MissingColumns lists dataset fields the table had no column for.
	MissingColumns []string
}

// Dropped returns the number of rows removed.
func (r NormalizeReport) Dropped() int {
	return r.BadDate + r.MissingAirport + r.MissingAirline + r.BadPAX + r.Other
}

func (r *NormalizeReport) drop(key string) {
	switch key {
	case "date":
		r.BadDate++
	case "airport":
		r.MissingAirport++
	case "airline":
		r.MissingAirline++
	case "pax":
		r.BadPAX++
	default:
		r.Other++
	}
}

// NormalizeMovements coerces a report table to typed records:
//
//  1. "Fecha UTC" is parsed as day/month/year; failures become the invalid marker.
//  2. "PAX" is parsed as a number; failures become the invalid marker.
//  3. Rows are dropped when a required field of MovementDataset is not
//     accepted: date, airport, airline and a non-negative PAX.
//
// Column positions come from MovementDataset, so a table loaded with the
// canonical column list and one loaded with the older "Clase de Vuelo (todos
// los vuelos)" spelling normalize the same way. Input row order is kept.
func NormalizeMovements(t *table.Table) ([]MovementRecord, NormalizeReport) {
	report := NormalizeReport{Read: t.Len()}
	records := make([]MovementRecord, 0, t.Len())
	if t == nil {
		return records, report
	}

	pos := MovementDataset.Resolve(t.Columns)
	report.MissingColumns = MovementDataset.Missing(pos)

	cell := func(row table.Row, key string) string {
		i, ok := pos[key]
		if !ok || i >= len(row) || !row[i].Valid {
			return ""
		}
		return row[i].String
	}

	for _, row := range t.Rows {
		if key, rejected := MovementDataset.Rejects(func(k string) string { return cell(row, k) }); rejected {
			report.drop(key)
			continue
		}

		m := MovementRecord{
			Date:              ParseDate(cell(row, "date")),
			Time:              ParseClock(cell(row, "time")),
			FlightClass:       cell(row, "class"),
			Classification:    cell(row, "classification"),
			MovementType:      cell(row, "movement"),
			Airport:           cell(row, "airport"),
			OriginDestination: cell(row, "origin"),
			Airline:           cell(row, "airline"),
			Aircraft:          cell(row, "aircraft"),
			Passengers:        ParseNumber(cell(row, "passengers")),
			PAX:               ParseNumber(cell(row, "pax")).Float64,
			Quality:           cell(row, "quality"),
		}
		records = append(records, m)
	}

	report.Kept = len(records)
	return records, report
}
