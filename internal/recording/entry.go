package recording

import (
	"strings"
	"time"
)

// Limits enforced at the API boundary. Oversized values are rejected with a
// ValidationError instead of being truncated.
const (
	MaxTitleLength    = 128
	MaxFilenameLength = 200
	MaxEntryProfiles  = 8
)

// RecurrenceType identifies how a recording rule repeats.
type RecurrenceType string

const (
	RecurrenceNone     RecurrenceType = "none"
	RecurrenceDaily    RecurrenceType = "daily"
	RecurrenceWeekly   RecurrenceType = "weekly"
	RecurrenceWeekdays RecurrenceType = "weekdays"
	RecurrenceWeekends RecurrenceType = "weekends"
)

// ParseRecurrenceType converts a string into a known RecurrenceType.
func ParseRecurrenceType(value string) (RecurrenceType, bool) {
	normalized := RecurrenceType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceWeekdays, RecurrenceWeekends:
		return normalized, true
	}
	return "", false
}

// ManglingMode selects the filename/title disambiguation applied across the
// occurrences of a recurrence group.
type ManglingMode string

const (
	ManglingNone     ManglingMode = "none"
	ManglingNumbered ManglingMode = "numbered"
	ManglingPrefixed ManglingMode = "prefixed"
)

// ParseManglingMode converts a string into a known ManglingMode.
func ParseManglingMode(value string) (ManglingMode, bool) {
	normalized := ManglingMode(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case ManglingNone, ManglingNumbered, ManglingPrefixed:
		return normalized, true
	}
	return "", false
}

// State tracks an entry's capture lifecycle inside the repository.
type State string

const (
	StateScheduled State = "scheduled"
	StateCapturing State = "capturing"
)

// Entry is one scheduled recording. Occurrences expanded from a recurrence
// rule are ordinary entries sharing a RecurrenceID.
type Entry struct {
	ID       int64
	Title    string
	Channel  string
	Start    time.Time
	End      time.Time
	Filename string
	Profiles []string

	IsRecurring    bool
	RecurrenceID   string
	Recurrence     RecurrenceType
	Count          int
	StartNumber    int
	Mangling       ManglingMode
	ManglingPrefix string

	// SeriesTitle and SeriesFilename hold the unmangled rule values every
	// occurrence was derived from; persistence saves the rule from these.
	SeriesTitle    string
	SeriesFilename string

	Card  int
	State State
}

// Duration returns the scheduled capture length.
func (e *Entry) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Overlaps reports whether two entries' [start, end) intervals intersect.
// Abutting intervals do not overlap.
func (e *Entry) Overlaps(other *Entry) bool {
	return e.Start.Before(other.End) && other.Start.Before(e.End)
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() Entry {
	cp := *e
	if e.Profiles != nil {
		cp.Profiles = make([]string, len(e.Profiles))
		copy(cp.Profiles, e.Profiles)
	}
	return cp
}

// Validate checks the invariants an entry must satisfy before insertion.
func (e *Entry) Validate() error {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if len(title) > MaxTitleLength {
		return &ValidationError{Field: "title", Reason: "exceeds maximum length"}
	}
	if strings.TrimSpace(e.Channel) == "" {
		return &ValidationError{Field: "channel", Reason: "is required"}
	}
	filename := strings.TrimSpace(e.Filename)
	if filename == "" {
		return &ValidationError{Field: "filename", Reason: "is required"}
	}
	if len(filename) > MaxFilenameLength {
		return &ValidationError{Field: "filename", Reason: "exceeds maximum length"}
	}
	if !e.Start.Before(e.End) {
		return &ValidationError{Field: "start", Reason: "must be before end"}
	}
	if len(e.Profiles) > MaxEntryProfiles {
		return &ValidationError{Field: "profiles", Reason: "exceeds maximum count"}
	}
	seen := make(map[string]struct{}, len(e.Profiles))
	for _, name := range e.Profiles {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Field: "profiles", Reason: "contains an empty name"}
		}
		if _, ok := seen[name]; ok {
			return &ValidationError{Field: "profiles", Reason: "contains duplicates"}
		}
		seen[name] = struct{}{}
	}
	if e.IsRecurring {
		if _, ok := ParseRecurrenceType(string(e.Recurrence)); !ok || e.Recurrence == RecurrenceNone {
			return &ValidationError{Field: "recurrence", Reason: "unknown type"}
		}
		if _, ok := ParseManglingMode(string(e.Mangling)); !ok {
			return &ValidationError{Field: "mangling", Reason: "unknown mode"}
		}
		if e.Mangling == ManglingPrefixed && strings.TrimSpace(e.ManglingPrefix) == "" {
			return &ValidationError{Field: "mangling_prefix", Reason: "is required for prefixed mangling"}
		}
		if e.Count < 0 {
			return &ValidationError{Field: "count", Reason: "must not be negative"}
		}
		if e.StartNumber < 0 {
			return &ValidationError{Field: "start_number", Reason: "must not be negative"}
		}
	}
	return nil
}
