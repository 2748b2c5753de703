package format

import (
	"database/sql"
	"strconv"
)

// OrDash renders a nullable string column, falling back to a dash for
// unanswered fields. The value is escaped for HTML parse mode.
func OrDash(s sql.NullString) string {
	if s.Valid && s.String != "" {
		return EscapeHTML(s.String)
	}
	return "—"
}

// IntOrDash renders a nullable integer column the same way.
func IntOrDash(i sql.NullInt64) string {
	if i.Valid {
		return strconv.FormatInt(i.Int64, 10)
	}
	return "—"
}
