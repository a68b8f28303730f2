// Package daemon ties the repository, catalog, profiles, and transcode
// scheduler into one background process with single-instance locking and
// timer-driven capture lifecycle management.
package daemon
