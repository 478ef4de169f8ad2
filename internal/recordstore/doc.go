// Package recordstore talks to the hosted record store that owns the
// projects and news collections.
//
// Backend is the raw JSON contract shared by the drivers: rest speaks the
// PostgREST dialect exposed by hosted Supabase projects, postgres writes to
// one JSONB table per collection through pgx, and offline fails every call so
// callers fall back to the local cache. Table wraps a Backend with typed
// marshalling. Every driver failure carries services.ErrRemoteUnavailable.
package recordstore
