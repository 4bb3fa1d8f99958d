package dbx

import "time"

// SQLite has no native time type; repositories store timestamps as
// RFC 3339 text. The layout is fixed-width (fractional seconds always
// padded to nine digits, always UTC) so that the string order of two
// columns equals their time order; range predicates like `expiry < ?`
// and `ORDER BY created_at` depend on that.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t in the canonical column format (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses a timestamp column written by FormatTime. The parse
// layout is the permissive RFC 3339 form, so trimmed-fraction values are
// accepted too.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
