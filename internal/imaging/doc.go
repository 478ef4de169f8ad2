// Package imaging turns uploaded pictures into bounded, JPEG-encoded inline
// images (data URIs) suitable for storing inside project and news records.
//
// Images whose longer side exceeds the configured bound are scaled down
// proportionally; smaller images keep their size. Batches are processed
// concurrently but report results in selection order, and one unreadable
// file never discards the others.
package imaging
