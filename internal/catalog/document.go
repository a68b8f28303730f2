package catalog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"time"

	"tapedeck/internal/recording"
)

// SchemaVersion is the catalog format written by this build. Files carrying
// an older version are loaded and rewritten; files carrying a newer version
// are refused.
const SchemaVersion = 2

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// document is the on-disk shape of the catalog. Recurring series are stored
// as a single record holding the rule; occurrences are regenerated on load.
type document struct {
	XMLName xml.Name `xml:"recordings"`
	Version int      `xml:"version,attr"`
	Records []record `xml:"recording"`
}

type record struct {
	Channel  string    `xml:"channel,attr"`
	Title    string    `xml:"title"`
	Start    timestamp `xml:"start"`
	End      timestamp `xml:"end"`
	Filename string    `xml:"filename"`
	Profiles []string  `xml:"profile"`
	Rule     *rule     `xml:"rule,omitempty"`
}

type timestamp struct {
	Date string `xml:"date,attr"`
	Time string `xml:"time,attr"`
}

type rule struct {
	Type     string `xml:"type,attr"`
	Count    int    `xml:"count,attr"`
	Mangling string `xml:"mangling,attr"`
	Prefix   string `xml:"prefix,attr,omitempty"`
	First    int    `xml:"first,attr"`
}

func timestampFrom(t time.Time) timestamp {
	return timestamp{Date: t.Format(dateLayout), Time: t.Format(timeLayout)}
}

func (ts timestamp) toTime() (time.Time, error) {
	if ts.Date == "" || ts.Time == "" {
		return time.Time{}, errors.New("timestamp missing date or time attribute")
	}
	return time.ParseInLocation(dateLayout+" "+timeLayout, ts.Date+" "+ts.Time, time.Local)
}

// entryFromRecord maps one catalog record to an entry. It performs no
// repository-level validation; the caller inserts the result and handles
// rejection there.
func entryFromRecord(r record) (recording.Entry, error) {
	if r.Title == "" {
		return recording.Entry{}, errors.New("record missing title")
	}
	start, err := r.Start.toTime()
	if err != nil {
		return recording.Entry{}, fmt.Errorf("parse start: %w", err)
	}
	end, err := r.End.toTime()
	if err != nil {
		return recording.Entry{}, fmt.Errorf("parse end: %w", err)
	}

	entry := recording.Entry{
		Title:    r.Title,
		Channel:  r.Channel,
		Start:    start,
		End:      end,
		Filename: r.Filename,
		Profiles: append([]string(nil), r.Profiles...),
	}
	if r.Rule == nil {
		return entry, nil
	}

	kind, ok := recording.ParseRecurrenceType(r.Rule.Type)
	if !ok {
		return recording.Entry{}, fmt.Errorf("unknown recurrence type %q", r.Rule.Type)
	}
	mangling, ok := recording.ParseManglingMode(r.Rule.Mangling)
	if !ok {
		return recording.Entry{}, fmt.Errorf("unknown mangling mode %q", r.Rule.Mangling)
	}
	first := r.Rule.First
	if first <= 0 {
		// Schema v1 carried no first attribute.
		first = 1
	}
	entry.IsRecurring = true
	entry.Recurrence = kind
	entry.Count = r.Rule.Count
	entry.StartNumber = first
	entry.Mangling = mangling
	entry.ManglingPrefix = r.Rule.Prefix
	return entry, nil
}

func recordFromEntry(e recording.Entry) record {
	return record{
		Channel:  e.Channel,
		Title:    e.Title,
		Start:    timestampFrom(e.Start),
		End:      timestampFrom(e.End),
		Filename: e.Filename,
		Profiles: append([]string(nil), e.Profiles...),
	}
}

// seriesRecord collapses the live occurrences of one recurrence group into
// its master record. The representative is the occurrence with the lowest
// sequence number so a later load resumes the series where it stands.
func seriesRecord(group []recording.Entry) record {
	rep := group[0]
	for _, e := range group[1:] {
		if e.StartNumber < rep.StartNumber {
			rep = e
		}
	}
	title := rep.SeriesTitle
	if title == "" {
		title = rep.Title
	}
	filename := rep.SeriesFilename
	if filename == "" {
		filename = rep.Filename
	}
	return record{
		Channel:  rep.Channel,
		Title:    title,
		Start:    timestampFrom(rep.Start),
		End:      timestampFrom(rep.End),
		Filename: filename,
		Profiles: append([]string(nil), rep.Profiles...),
		Rule: &rule{
			Type:     string(rep.Recurrence),
			Count:    len(group),
			Mangling: string(rep.Mangling),
			Prefix:   rep.ManglingPrefix,
			First:    rep.StartNumber,
		},
	}
}

func documentFromEntries(entries []recording.Entry) *document {
	doc := &document{Version: SchemaVersion}
	seen := make(map[string]bool)
	for _, entry := range entries {
		if !entry.IsRecurring {
			doc.Records = append(doc.Records, recordFromEntry(entry))
			continue
		}
		if seen[entry.RecurrenceID] {
			continue
		}
		seen[entry.RecurrenceID] = true
		group := make([]recording.Entry, 0, entry.Count)
		for _, e := range entries {
			if e.IsRecurring && e.RecurrenceID == entry.RecurrenceID {
				group = append(group, e)
			}
		}
		doc.Records = append(doc.Records, seriesRecord(group))
	}
	return doc
}
