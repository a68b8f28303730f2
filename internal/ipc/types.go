package ipc

import (
	"time"

	"tapedeck/internal/recording"
)

// Recording is the wire representation of a scheduled entry.
type Recording struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Channel      string    `json:"channel"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Filename     string    `json:"filename"`
	Profiles     []string  `json:"profiles"`
	Card         int       `json:"card"`
	State        string    `json:"state"`
	Recurring    bool      `json:"recurring"`
	RecurrenceID string    `json:"recurrence_id,omitempty"`
}

func fromEntry(e recording.Entry) Recording {
	return Recording{
		ID:           e.ID,
		Title:        e.Title,
		Channel:      e.Channel,
		Start:        e.Start,
		End:          e.End,
		Filename:     e.Filename,
		Profiles:     append([]string(nil), e.Profiles...),
		Card:         e.Card,
		State:        string(e.State),
		Recurring:    e.IsRecurring,
		RecurrenceID: e.RecurrenceID,
	}
}

func fromEntries(entries []recording.Entry) []Recording {
	out := make([]Recording, 0, len(entries))
	for _, e := range entries {
		out = append(out, fromEntry(e))
	}
	return out
}

// AddRequest schedules one standalone recording.
type AddRequest struct {
	Title    string    `json:"title"`
	Channel  string    `json:"channel"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Filename string    `json:"filename"`
	Profiles []string  `json:"profiles"`
}

func (r AddRequest) toEntry() recording.Entry {
	return recording.Entry{
		Title:    r.Title,
		Channel:  r.Channel,
		Start:    r.Start,
		End:      r.End,
		Filename: r.Filename,
		Profiles: append([]string(nil), r.Profiles...),
	}
}

// AddResponse returns the stored recording with its assigned id and card.
type AddResponse struct {
	Recording Recording `json:"recording"`
}

// AddSeriesRequest schedules a recurrence rule.
type AddSeriesRequest struct {
	AddRequest
	Rule SeriesRule `json:"rule"`
}

// SeriesRule carries the recurrence parameters of a series request.
type SeriesRule struct {
	Type        string `json:"type"`
	Count       int    `json:"count"`
	StartNumber int    `json:"start_number"`
	Mangling    string `json:"mangling"`
	Prefix      string `json:"prefix,omitempty"`
}

// AddSeriesResponse returns every inserted occurrence.
type AddSeriesResponse struct {
	Occurrences []Recording `json:"occurrences"`
}

// RemoveRequest deletes a recording, or its whole series.
type RemoveRequest struct {
	ID     int64 `json:"id"`
	Series bool  `json:"series"`
}

// RemoveResponse lists what was removed.
type RemoveResponse struct {
	Removed []Recording `json:"removed"`
}

// ListRequest fetches one card's queue; a negative card means all queues.
type ListRequest struct {
	Card int `json:"card"`
}

// ListResponse contains the matching recordings ordered by card and start.
type ListResponse struct {
	Recordings []Recording `json:"recordings"`
}

// ProfilesRequest fetches the loaded profile set.
type ProfilesRequest struct{}

// ProfileInfo summarizes one transcoding profile for reporting.
type ProfileInfo struct {
	Name         string `json:"name"`
	VideoBitrate int    `json:"video_bitrate"`
	AudioBitrate int    `json:"audio_bitrate"`
	FrameWidth   int    `json:"frame_width"`
	FrameHeight  int    `json:"frame_height"`
	VideoCodec   string `json:"video_codec"`
	AudioCodec   string `json:"audio_codec"`
	Passes       int    `json:"passes"`
	Extension    string `json:"extension"`
	Default      bool   `json:"default"`
}

// ProfilesResponse lists profiles in definition order.
type ProfilesResponse struct {
	Profiles []ProfileInfo `json:"profiles"`
}

// JobsRequest fetches running and queued transcode jobs.
type JobsRequest struct{}

// JobStatus is the wire form of one transcode job snapshot.
type JobStatus struct {
	ID             int64   `json:"id"`
	Slot           int     `json:"slot"`
	Source         string  `json:"source"`
	Output         string  `json:"output"`
	Profile        string  `json:"profile"`
	State          string  `json:"state"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// JobsResponse lists jobs, running first.
type JobsResponse struct {
	Jobs []JobStatus `json:"jobs"`
}

// KillRequest terminates the encode occupying a worker slot.
type KillRequest struct {
	Slot int `json:"slot"`
}

// KillResponse reports whether a job was actually signaled.
type KillResponse struct {
	Signaled bool   `json:"signaled"`
	Message  string `json:"message"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse summarizes the daemon runtime.
type StatusResponse struct {
	Running       bool    `json:"running"`
	PID           int     `json:"pid"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Cards         int     `json:"cards"`
	Entries       int     `json:"entries"`
	Workers       int     `json:"workers"`
	Completed     int64   `json:"completed"`
	Failed        int64   `json:"failed"`
	Killed        int64   `json:"killed"`
	CatalogPath   string  `json:"catalog_path"`
	LockPath      string  `json:"lock_path"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse indicates the shutdown was initiated.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
