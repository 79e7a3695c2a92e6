// Package stac models STAC item documents and the spatial types used to
// filter them.
//
// An [Item] is the parsed per-granule metadata record fetched from its
// STAC JSON link: identifier, temporal range, GeoJSON geometry, flat
// property bag, and asset-link map. Items exist only in memory during
// aggregation and are never persisted standalone.
//
// [BBox] is a (west, south, east, north) bounding box with validation
// rules matching the catalog's coordinate conventions. Intersection tests
// are inclusive of the boundary.
package stac
