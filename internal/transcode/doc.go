// Package transcode runs external encoder subprocesses against captured
// files, one job per (file, profile) pair.
//
// Concurrency is bounded by a fixed worker pool while queueing stays
// unbounded. Encoder invocation goes through an Executor abstraction so the
// worker loop is testable without a real encoder. Failed jobs are never
// retried; outcomes surface through Status, counters, and the job history
// store.
package transcode
