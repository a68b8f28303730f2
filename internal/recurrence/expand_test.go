package recurrence

import (
	"testing"
	"time"

	"tapedeck/internal/recording"
)

func anchorEntry(kind recording.RecurrenceType, start time.Time, count int) recording.Entry {
	return recording.Entry{
		Title:       "show",
		Channel:     "7",
		Start:       start,
		End:         start.Add(time.Hour),
		Filename:    "show.avi",
		Profiles:    []string{"standard"},
		IsRecurring: true,
		Recurrence:  kind,
		Count:       count,
		StartNumber: 1,
		Mangling:    recording.ManglingNumbered,
	}
}

func TestExpandWeekly(t *testing.T) {
	start := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	occurrences, err := Expand(anchorEntry(recording.RecurrenceWeekly, start, 3))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(occurrences) != 3 {
		t.Fatalf("expanded to %d occurrences, want 3", len(occurrences))
	}

	wantDays := []int{1, 8, 15}
	seenFilenames := make(map[string]bool)
	for i, occ := range occurrences {
		want := time.Date(2024, time.January, wantDays[i], 8, 0, 0, 0, time.UTC)
		if !occ.Start.Equal(want) {
			t.Errorf("occurrence %d start = %v, want %v", i, occ.Start, want)
		}
		if !occ.End.Equal(want.Add(time.Hour)) {
			t.Errorf("occurrence %d end = %v, want %v", i, occ.End, want.Add(time.Hour))
		}
		if seenFilenames[occ.Filename] {
			t.Errorf("duplicate mangled filename %q", occ.Filename)
		}
		seenFilenames[occ.Filename] = true
		if occ.StartNumber != i+1 {
			t.Errorf("occurrence %d start number = %d, want %d", i, occ.StartNumber, i+1)
		}
	}
}

func TestExpandSharesOneRecurrenceID(t *testing.T) {
	start := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	occurrences, err := Expand(anchorEntry(recording.RecurrenceDaily, start, 4))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	id := occurrences[0].RecurrenceID
	if id == "" {
		t.Fatal("expansion assigned no recurrence id")
	}
	for _, occ := range occurrences {
		if occ.RecurrenceID != id {
			t.Errorf("occurrence %q has id %q, want %q", occ.Title, occ.RecurrenceID, id)
		}
		if occ.SeriesTitle != "show" || occ.SeriesFilename != "show.avi" {
			t.Errorf("occurrence %q lost its series base values", occ.Title)
		}
	}
}

func TestExpandWeekdaysSkipsWeekends(t *testing.T) {
	// 2024-01-06 is a Saturday; the first weekday occurrence is Monday the 8th.
	start := time.Date(2024, time.January, 6, 19, 30, 0, 0, time.UTC)
	occurrences, err := Expand(anchorEntry(recording.RecurrenceWeekdays, start, 6))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	wantDays := []int{8, 9, 10, 11, 12, 15}
	for i, occ := range occurrences {
		if occ.Start.Day() != wantDays[i] {
			t.Errorf("occurrence %d on day %d, want %d", i, occ.Start.Day(), wantDays[i])
		}
		if wd := occ.Start.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("occurrence %d fell on %v", i, wd)
		}
	}
}

func TestExpandWeekendsOnly(t *testing.T) {
	// 2024-01-03 is a Wednesday; the first weekend occurrence is Saturday the 6th.
	start := time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)
	occurrences, err := Expand(anchorEntry(recording.RecurrenceWeekends, start, 4))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	wantDays := []int{6, 7, 13, 14}
	for i, occ := range occurrences {
		if occ.Start.Day() != wantDays[i] {
			t.Errorf("occurrence %d on day %d, want %d", i, occ.Start.Day(), wantDays[i])
		}
	}
}

func TestExpandUnboundedUsesHorizon(t *testing.T) {
	start := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	occurrences, err := Expand(anchorEntry(recording.RecurrenceDaily, start, 0))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(occurrences) != Horizon {
		t.Errorf("unbounded rule expanded to %d occurrences, want horizon of %d", len(occurrences), Horizon)
	}
}

func TestExpandRejectsNonRecurring(t *testing.T) {
	entry := anchorEntry(recording.RecurrenceDaily, time.Now(), 3)
	entry.IsRecurring = false
	if _, err := Expand(entry); err == nil {
		t.Fatal("expected an error for a non-recurring entry")
	}
}

func TestExpandPreservesStartNumberOffset(t *testing.T) {
	start := time.Date(2024, time.February, 5, 8, 0, 0, 0, time.UTC)
	anchor := anchorEntry(recording.RecurrenceDaily, start, 2)
	anchor.StartNumber = 7
	occurrences, err := Expand(anchor)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if occurrences[0].StartNumber != 7 || occurrences[1].StartNumber != 8 {
		t.Errorf("start numbers = %d, %d, want 7, 8",
			occurrences[0].StartNumber, occurrences[1].StartNumber)
	}
	if occurrences[0].Title != "show 7" {
		t.Errorf("first title = %q, want %q", occurrences[0].Title, "show 7")
	}
}
