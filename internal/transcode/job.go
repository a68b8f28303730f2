package transcode

import "time"

// JobState tracks a job through its lifecycle. Terminal states are
// Completed, Failed, and Killed; there is no retry transition.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobKilled    JobState = "killed"
)

// Job is one encode of one source file with one profile. Entries referencing
// several profiles produce several jobs.
type Job struct {
	ID       int64
	Source   string
	Output   string
	Profile  string
	Slot     int
	State    JobState
	Created  time.Time
	Started  time.Time
	Finished time.Time
	Err      string
}

// Status is a point-in-time snapshot of a job for reporting.
type Status struct {
	ID      int64
	Slot    int
	Source  string
	Output  string
	Profile string
	State   JobState
	Elapsed time.Duration
}

func (j *Job) status(now time.Time) Status {
	st := Status{
		ID:      j.ID,
		Slot:    j.Slot,
		Source:  j.Source,
		Output:  j.Output,
		Profile: j.Profile,
		State:   j.State,
	}
	switch j.State {
	case JobRunning:
		st.Elapsed = now.Sub(j.Started)
	case JobCompleted, JobFailed, JobKilled:
		st.Elapsed = j.Finished.Sub(j.Started)
	}
	return st
}
