package format

import (
	"database/sql"
	"testing"
)

func TestEscapeHTML(t *testing.T) {
	cases := map[string]string{
		"plain":          "plain",
		"<b>жирний</b>":  "&lt;b&gt;жирний&lt;/b&gt;",
		"Tom & Jerry":    "Tom &amp; Jerry",
		"1 < 2 > 0":      "1 &lt; 2 &gt; 0",
		"":               "",
		"вже &amp; текст": "вже &amp;amp; текст",
	}
	for in, want := range cases {
		if got := EscapeHTML(in); got != want {
			t.Errorf("EscapeHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOrDash(t *testing.T) {
	if got := OrDash(sql.NullString{}); got != "—" {
		t.Errorf("null string = %q, want dash", got)
	}
	if got := OrDash(sql.NullString{Valid: true, String: "<x>"}); got != "&lt;x&gt;" {
		t.Errorf("valid string = %q, want escaped", got)
	}
	if got := IntOrDash(sql.NullInt64{}); got != "—" {
		t.Errorf("null int = %q, want dash", got)
	}
	if got := IntOrDash(sql.NullInt64{Valid: true, Int64: 29}); got != "29" {
		t.Errorf("valid int = %q, want 29", got)
	}
}
