// Package preflight provides readiness checks for the filesystem paths and
// external services sebasite depends on.
//
// The daemon logs RunAll results at startup; failures are reported but never
// block serving since reads fall back to the local cache. The CLI status
// command uses the *FromConfig helpers to display service health.
package preflight
