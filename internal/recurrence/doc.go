// Package recurrence expands recurring recording rules into concrete
// occurrences and applies the title/filename mangling that keeps the
// occurrences of one series distinguishable.
package recurrence
