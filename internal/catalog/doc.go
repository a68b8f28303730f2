// Package catalog persists scheduled recordings as a versioned XML file.
//
// The on-disk document stores one record per standalone recording and one
// master record per recurrence series; occurrences are regenerated from the
// rule on load. Writes go through an atomic rename so a crash mid-save never
// leaves a truncated catalog behind.
package catalog
