// Package logs reads the service log file for `sebasite logs`.
//
// Tail returns the last N lines (or everything after a byte offset) with
// bounded memory, and Follow polls the file for appended lines until the
// context ends. Lines written by the JSON handler are decoded into Entry
// values so the CLI can filter by level or event type; plain text lines pass
// through unchanged.
package logs
