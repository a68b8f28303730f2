package recurrence

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"tapedeck/internal/recording"
)

// Horizon bounds expansion when a rule carries no occurrence count.
const Horizon = 30

// Expand generates the concrete occurrences of a recurrence rule anchored at
// the given entry. Occurrences preserve the anchor's time of day and
// duration, share one recurrence id, and carry their own sequence number so
// a later save can recompute the minimum live number. Expansion is fully
// deterministic: re-running with the same anchor and start number reproduces
// the same set.
func Expand(anchor recording.Entry) ([]recording.Entry, error) {
	if !anchor.IsRecurring {
		return nil, fmt.Errorf("entry %q is not recurring", anchor.Title)
	}
	if err := anchor.Validate(); err != nil {
		return nil, err
	}

	count := anchor.Count
	if count <= 0 {
		count = Horizon
	}

	recurrenceID := anchor.RecurrenceID
	if recurrenceID == "" {
		recurrenceID = uuid.NewString()
	}

	duration := anchor.Duration()
	start, err := firstOccurrence(anchor.Recurrence, anchor.Start)
	if err != nil {
		return nil, err
	}

	occurrences := make([]recording.Entry, 0, count)
	for i := 0; i < count; i++ {
		number := anchor.StartNumber + i
		occ := anchor.Clone()
		occ.ID = 0
		occ.RecurrenceID = recurrenceID
		occ.StartNumber = number
		occ.SeriesTitle = anchor.Title
		occ.SeriesFilename = anchor.Filename
		occ.Start = start
		occ.End = start.Add(duration)
		occ.Title = MangleTitle(anchor.Title, anchor.Mangling, anchor.ManglingPrefix, number)
		occ.Filename = MangleFilename(anchor.Filename, anchor.Mangling, anchor.ManglingPrefix, number)
		occ.State = recording.StateScheduled
		occurrences = append(occurrences, occ)

		start, err = nextOccurrence(anchor.Recurrence, start)
		if err != nil {
			return nil, err
		}
	}
	return occurrences, nil
}

// firstOccurrence snaps the anchor forward to the first day matching the
// rule. Daily and weekly rules start at the anchor itself.
func firstOccurrence(kind recording.RecurrenceType, start time.Time) (time.Time, error) {
	switch kind {
	case recording.RecurrenceDaily, recording.RecurrenceWeekly:
		return start, nil
	case recording.RecurrenceWeekdays, recording.RecurrenceWeekends:
		for i := 0; i < 7; i++ {
			if matchesDay(kind, start.Weekday()) {
				return start, nil
			}
			start = start.AddDate(0, 0, 1)
		}
		return time.Time{}, fmt.Errorf("no matching weekday for rule %q", kind)
	default:
		return time.Time{}, fmt.Errorf("unsupported recurrence type %q", kind)
	}
}

func nextOccurrence(kind recording.RecurrenceType, current time.Time) (time.Time, error) {
	switch kind {
	case recording.RecurrenceDaily:
		return current.AddDate(0, 0, 1), nil
	case recording.RecurrenceWeekly:
		return current.AddDate(0, 0, 7), nil
	case recording.RecurrenceWeekdays, recording.RecurrenceWeekends:
		next := current.AddDate(0, 0, 1)
		for i := 0; i < 7; i++ {
			if matchesDay(kind, next.Weekday()) {
				return next, nil
			}
			next = next.AddDate(0, 0, 1)
		}
		return time.Time{}, fmt.Errorf("no matching weekday for rule %q", kind)
	default:
		return time.Time{}, fmt.Errorf("unsupported recurrence type %q", kind)
	}
}

func matchesDay(kind recording.RecurrenceType, day time.Weekday) bool {
	weekend := day == time.Saturday || day == time.Sunday
	if kind == recording.RecurrenceWeekends {
		return weekend
	}
	return !weekend
}
