// Package records defines the Project and News records shared by the record
// store, the local fallback cache, and the site view-models.
//
// Records round-trip through JSON without loss: identifiers keep their number
// or string form, a project's images slice keeps the difference between
// absent and empty, and legacy single-image projects are read through
// ImageList and CoverImage so callers never branch on the storage format.
package records
