package table

// convert.go turns raw file cells into nullable text.
//
// Government CSV exports carry a few recurring artifacts: padding spaces,
// non-breaking spaces, spreadsheet formula wrappers (="value") and stray
// quotes left behind by lazy quoting. CleanCell removes them; ToText maps
// what is left to a pgtype.Text that is invalid when nothing remains.

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// ToText converts a raw cell to pgtype.Text.
// Returns invalid (the missing marker) if the cleaned cell is empty.
func ToText(s string) pgtype.Text {
	s = CleanCell(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace, including non-breaking spaces
// - Removes spreadsheet formula prefix (="...")
// - Removes one pair of surrounding quotes
func CleanCell(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.TrimSpace(s)

	if len(s) >= 3 && strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
