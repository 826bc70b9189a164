package aviation

// convert.go coerces report cells to typed values.
//
// Every Parse* function returns a pgtype value with Valid=false when the
// input is missing or does not parse. That invalid value is the
// "unparseable" marker: it never raises, and the normalizer drops rows whose
// required fields carry it.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateLayout is the day/month/year format of the report "Fecha UTC" column.
// Day and month may have one or two digits; the year has four.
const DateLayout = "2/1/2006"

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var clockLayouts = []string{"15:04", "15:04:05"}

// ParseDate parses a day/month/year date. "01/03/2024" is March 1, 2024.
func ParseDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// ParseClock parses an HH:MM (or HH:MM:SS) time of day.
func ParseClock(s string) pgtype.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Time{Valid: false}
	}
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		secs := int64(t.Hour()*3600 + t.Minute()*60 + t.Second())
		return pgtype.Time{Microseconds: secs * int64(time.Second/time.Microsecond), Valid: true}
	}
	return pgtype.Time{Valid: false}
}

// ParseNumber parses a plain decimal number after trimming surrounding
// whitespace. Grouped digits such as "1,234" or "1 234" are not numbers, and
// neither are "N/D", "-", NaN or infinities: all give the invalid marker.
func ParseNumber(s string) pgtype.Float8 {
	return parseFloat(strings.TrimSpace(s))
}

// ParseCoordinate parses a latitude, longitude or elevation. The airport
// file is semicolon separated and may use a decimal comma, so "-31,3236"
// is accepted alongside "-31.3236".
func ParseCoordinate(s string) pgtype.Float8 {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Float8{Valid: false}
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return parseFloat(s)
}

func parseFloat(s string) pgtype.Float8 {
	if !numericRegex.MatchString(s) {
		return pgtype.Float8{Valid: false}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// FormatDate renders a date the way the API and filters expect it.
func FormatDate(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(time.DateOnly)
}

// FormatClock renders a time of day as HH:MM.
func FormatClock(t pgtype.Time) string {
	if !t.Valid {
		return ""
	}
	mins := t.Microseconds / int64(time.Minute/time.Microsecond)
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// FormatNumber renders a number without trailing zeros.
func FormatNumber(f pgtype.Float8) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'f', -1, 64)
}
