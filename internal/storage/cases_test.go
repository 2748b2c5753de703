package storage

import (
	"testing"
	"time"
)

func TestFormatCaseID(t *testing.T) {
	created := time.Date(2025, time.January, 1, 14, 30, 0, 0, time.UTC)
	got := FormatCaseID(created, 1)
	if got != "01/01/2025 1" {
		t.Fatalf("FormatCaseID = %q, want %q", got, "01/01/2025 1")
	}
}

func TestAllowedFormColumn(t *testing.T) {
	for _, col := range []string{"name", "age", "location", "event_details", "help_type", "description"} {
		if !AllowedFormColumn(col) {
			t.Errorf("column %q unexpectedly rejected", col)
		}
	}
	for _, col := range []string{"blocked", "chat_id", "case_id", "id", "name; DROP TABLE cases"} {
		if AllowedFormColumn(col) {
			t.Errorf("column %q unexpectedly allowed", col)
		}
	}
}
