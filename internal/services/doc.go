// Package services defines shared error markers and context helpers consumed
// by the data source, admin controller, and HTTP surface.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that tag failures as
//     remote outages, decode failures, validation problems, or auth failures so
//     callers can classify them with errors.Is.
//   - Context helpers that stamp correlation identifiers, collection names, and
//     operation names for logging.
//
// Use these helpers when wiring new components so failure containment and
// observability stay uniform across the site.
package services
