// Package geoparquet writes STAC items as GeoParquet artifacts.
//
// Rows carry the item's identity, timestamps, a WKB-encoded geometry
// with its bounding box, and the raw properties and assets as JSON
// strings. Files embed the "geo" metadata block described by the
// GeoParquet 1.1 specification, so downstream readers recognize the
// geometry column without extra configuration.
//
// A Writer targets an object-storage bucket. The encoded file is
// buffered in memory and committed as a single put, so a partially
// encoded artifact is never visible to readers.
package geoparquet
