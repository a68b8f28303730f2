package main

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("2030-06-03 20:15")
	if err != nil {
		t.Fatalf("parseTimestamp: %v", err)
	}
	want := time.Date(2030, time.June, 3, 20, 15, 0, 0, time.Local)
	if !ts.Equal(want) {
		t.Errorf("parseTimestamp = %v, want %v", ts, want)
	}

	if _, err := parseTimestamp("yesterday"); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
	if _, err := parseTimestamp(""); err == nil {
		t.Error("expected error for empty timestamp")
	}
}

func TestStateLabel(t *testing.T) {
	if got := stateLabel("scheduled"); got != "Scheduled" {
		t.Errorf("stateLabel(scheduled) = %q", got)
	}
	if got := stateLabel("running"); got != "Running" {
		t.Errorf("stateLabel(running) = %q", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(0); got != "-" {
		t.Errorf("formatElapsed(0) = %q", got)
	}
	if got := formatElapsed(90); got != "1m30s" {
		t.Errorf("formatElapsed(90) = %q", got)
	}
}
