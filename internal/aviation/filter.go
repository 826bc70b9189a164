package aviation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/aerodash/aerodash/internal/table"
)

var (
	// ErrUnknownField is returned for a criterion on a field the dataset does
	// not define.
	ErrUnknownField = errors.New("unknown filter field")

	// ErrUncoercedRange is returned for a range criterion on a field that is
	// not a coerced date. Raw text dates cannot be compared to range bounds.
	ErrUncoercedRange = errors.New("range filter requires a coerced date field")

	// ErrInvalidRange is returned when a range starts after it ends.
	ErrInvalidRange = errors.New("range start is after range end")
)

// Criterion is one filter constraint. An equality criterion keeps records
// whose field equals any of Values; a range criterion keeps records whose
// date lies in [From, To], both ends inclusive.
type Criterion struct {
	Field  string
	Values []string

	Range bool
	From  time.Time // zero means the earliest date in the input
	To    time.Time // zero means the latest date in the input
}

// Equals returns an equality (membership) criterion. With no values the
// criterion matches everything.
func Equals(field string, values ...string) Criterion {
	return Criterion{Field: field, Values: values}
}

// Between returns an inclusive date range criterion.
func Between(field string, from, to time.Time) Criterion {
	return Criterion{Field: field, Range: true, From: from, To: to}
}

func (c Criterion) String() string {
	if c.Range {
		return fmt.Sprintf("%s in [%s, %s]", c.Field, formatBound(c.From), formatBound(c.To))
	}
	return fmt.Sprintf("%s in {%s}", c.Field, strings.Join(c.Values, ", "))
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.Format(time.DateOnly)
}

// Criteria is a conjunction: a record is kept only if every criterion
// matches. Because each criterion is a pure predicate on one record, the
// order of criteria never changes the result.
type Criteria []Criterion

// And returns a copy of c with more criteria appended.
func (c Criteria) And(more ...Criterion) Criteria {
	out := make(Criteria, 0, len(c)+len(more))
	out = append(out, c...)
	return append(out, more...)
}

// ApplyAirports returns the airports matching every criterion. Airports
// carry no coerced date, so any range criterion is ErrUncoercedRange.
func ApplyAirports(records []AirportRecord, criteria Criteria) ([]AirportRecord, error) {
	preds := make([]func(AirportRecord) bool, 0, len(criteria))
	for _, c := range criteria {
		if _, ok := AirportDataset.Field(c.Field); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, c.Field)
		}
		if c.Range {
			return nil, fmt.Errorf("%w: %q", ErrUncoercedRange, c.Field)
		}
		if len(c.Values) == 0 {
			continue
		}
		get := airportText[c.Field]
		allowed := valueSet(c.Values)
		preds = append(preds, func(a AirportRecord) bool {
			_, ok := allowed[get(a)]
			return ok
		})
	}
	return keep(records, preds), nil
}

// ApplyMovements returns the movements matching every criterion. Range
// bounds left zero default to DateBounds of records, so a range is always
// derived from normalized dates and never from raw text.
func ApplyMovements(records []MovementRecord, criteria Criteria) ([]MovementRecord, error) {
	lo, hi, _ := DateBounds(records)

	preds := make([]func(MovementRecord) bool, 0, len(criteria))
	for _, c := range criteria {
		spec, ok := MovementDataset.Field(c.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, c.Field)
		}

		if c.Range {
			if spec.Type != FieldDate {
				return nil, fmt.Errorf("%w: %q", ErrUncoercedRange, c.Field)
			}
			from, to := day(c.From), day(c.To)
			if c.From.IsZero() {
				from = lo
			}
			if c.To.IsZero() {
				to = hi
			}
			if !c.From.IsZero() && !c.To.IsZero() && from.After(to) {
				return nil, fmt.Errorf("%w: %s", ErrInvalidRange, c)
			}
			preds = append(preds, func(m MovementRecord) bool {
				d := m.Date.Time
				return m.Date.Valid && !d.Before(from) && !d.After(to)
			})
			continue
		}

		if len(c.Values) == 0 {
			continue
		}
		get := movementText[c.Field]
		allowed := valueSet(c.Values)
		preds = append(preds, func(m MovementRecord) bool {
			_, ok := allowed[get(m)]
			return ok
		})
	}
	return keep(records, preds), nil
}

// ApplyTable narrows a raw table by equality on column names. Raw cells are
// uncoerced text, so range criteria are rejected with ErrUncoercedRange.
func ApplyTable(t *table.Table, criteria Criteria) (*table.Table, error) {
	if t == nil {
		t = table.New()
	}
	out := table.New(t.Columns...)
	out.Source, out.Skipped = t.Source, t.Skipped
	out.Rows = append([]table.Row(nil), t.Rows...)

	for _, c := range criteria {
		if c.Range {
			return nil, fmt.Errorf("%w: column %q", ErrUncoercedRange, c.Field)
		}
		if !out.HasColumn(c.Field) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, c.Field)
		}
		if len(c.Values) == 0 {
			continue
		}
		next, err := out.Where(c.Field, c.Values...)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// DateBounds returns the earliest and latest valid movement dates. ok is
// false when no record has a valid date.
func DateBounds(records []MovementRecord) (from, to time.Time, ok bool) {
	for _, m := range records {
		if !m.Date.Valid {
			continue
		}
		d := m.Date.Time
		if !ok || d.Before(from) {
			from = d
		}
		if !ok || d.After(to) {
			to = d
		}
		ok = true
	}
	return from, to, ok
}

// DistinctAirports returns the sorted distinct non-empty values of an
// airport field. These are the filter option lists.
func DistinctAirports(records []AirportRecord, field string) ([]string, error) {
	get, ok := airportText[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return distinct(records, get), nil
}

// DistinctMovements returns the sorted distinct non-empty values of a
// movement field.
func DistinctMovements(records []MovementRecord, field string) ([]string, error) {
	get, ok := movementText[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return distinct(records, get), nil
}

func distinct[R any](records []R, get func(R) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		v := get(r)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	SortStrings(out)
	return out
}

// SortStrings sorts values in Spanish collation order, so "Córdoba" sorts
// before "Corrientes" and "Ñandú" after "Neuquén".
func SortStrings(values []string) {
	collate.New(language.Spanish).SortStrings(values)
}

func keep[R any](records []R, preds []func(R) bool) []R {
	out := make([]R, 0, len(records))
next:
	for _, r := range records {
		for _, p := range preds {
			if !p(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

func valueSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.TrimSpace(v)] = struct{}{}
	}
	return set
}

// day truncates t to midnight UTC of its calendar day.
func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
