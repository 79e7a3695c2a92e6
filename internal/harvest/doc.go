// Package harvest orchestrates one day's catalog harvest.
//
// A Harvester drains the catalog client's page sequence for a
// {collection, day}, extracts item document links, optionally filters
// granules against a bounding box, and writes the day's link manifest.
// A day with zero granules is a valid outcome and still produces a
// (empty) manifest; only a failure of the underlying query leaves the
// day uncached.
package harvest
