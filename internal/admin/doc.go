// Package admin implements the admin dashboard's create, edit and delete
// workflow for projects and news.
//
// The Controller owns the in-memory record lists and one form draft per
// collection. Writes go to the record store first; when it is unreachable
// the change is applied locally, persisted to the fallback cache and
// reported as degraded instead of failing. Degraded deletes are not
// reconciled: the next successful remote listing brings the record back,
// which is logged as a warning.
package admin
