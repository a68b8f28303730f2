// Package recording defines the scheduled-recording model and the per-card
// queue repository. Insertion is deterministic first-fit across cards, with
// the invariant that no two entries on the same card overlap in time.
package recording
