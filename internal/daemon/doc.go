// Package daemon coordinates the long-running sebasite process.
//
// It holds a flock-based lock so only one instance serves a data directory,
// owns the HTTP listener that fronts the site API, and reports runtime status
// for the CLI. Request handling lives in the site package; the daemon only
// concerns itself with startup, shutdown and high level coordination.
package daemon
