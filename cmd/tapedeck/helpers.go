package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tapedeck/internal/ipc"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTimestamp accepts RFC 3339 or local date-time forms.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q (expected e.g. 2006-01-02 15:04)", value)
}

func parseSlot(arg string) (int, error) {
	slot, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || slot < 0 {
		return 0, fmt.Errorf("invalid slot %q", arg)
	}
	return slot, nil
}

func parseRecordingID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid recording id %q", arg)
	}
	return id, nil
}

// stateLabel renders internal state names for terminal display.
func stateLabel(state string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(state, "_", " "))
}

func formatElapsed(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	d := time.Duration(seconds * float64(time.Second))
	return d.Truncate(time.Second).String()
}

func formatWindow(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.Local().Format("2006-01-02 15:04"), end.Local().Format("15:04"))
}

func recordingRows(recordings []ipc.Recording) [][]string {
	rows := make([][]string, 0, len(recordings))
	for _, rec := range recordings {
		series := ""
		if rec.Recurring {
			series = "series"
		}
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			strconv.Itoa(rec.Card),
			rec.Title,
			rec.Channel,
			formatWindow(rec.Start, rec.End),
			strings.Join(rec.Profiles, ","),
			stateLabel(rec.State),
			series,
		})
	}
	return rows
}

var recordingColumns = []column{
	{name: "ID", right: true},
	{name: "Card", right: true},
	{name: "Title"},
	{name: "Channel"},
	{name: "Window"},
	{name: "Profiles"},
	{name: "State"},
	{name: ""},
}
