// Package localcache is the durable string key/value store that backs the
// record store when it is unreachable, and that remembers admin session tokens and
// language between runs.
//
// Two drivers are available. The json driver keeps every key in a single
// JSON object file, rewritten atomically and guarded by an advisory file
// lock so the CLI and the daemon can share it. The sqlite driver keeps the
// same keys in a kv table.
package localcache
