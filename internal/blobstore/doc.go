// Package blobstore stores exported project images as JPEG objects.
//
// Two drivers are provided: a filesystem store that keeps a JSON sidecar
// next to each object, and an S3-compatible store (AWS or MinIO). Export
// walks the project collection, turns every inline image back into a JPEG
// and uploads it under projects/<slug>/<n>.jpg.
package blobstore
