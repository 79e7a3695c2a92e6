// Package aggregate builds monthly GeoParquet artifacts from cached
// link manifests.
//
// An Aggregator reads every daily manifest of a {collection, month},
// fetches the item documents through a bounded batch runner, orders the
// results along a Hilbert curve, and writes one partitioned artifact:
//
//	{version}/{collection}.{cver}/year={yyyy}/month={mm}/{collection}.{cver}-{yyyy}-{mm}.parquet
//
// Guardrails run in a fixed order: skip-existing first (no reads, no
// fetches), manifest completeness second (no fetches when incomplete
// and completeness is required), failure rate last (after fetching,
// before writing).
package aggregate
