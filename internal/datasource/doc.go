// Package datasource composes the record store and the local fallback cache
// into the read path the site and admin controller use.
//
// Remote failures never reach callers of List: they are logged and the
// same-named cache key is served instead. Writes return a Result so callers
// can decide, with OrElse, how to continue when the remote store is down.
package datasource
