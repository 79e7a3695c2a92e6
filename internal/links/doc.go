// Package links stores per-day item link manifests in object storage.
//
// A manifest is the cached list of STAC item document links for one
// {collection, day}, written as a single JSON object. Keys are
// deterministic:
//
//	links/{collection}.{version}/{yyyy}/{mm}/{yyyy-mm-dd}.json
//
// Writes are whole-object puts, so readers never observe a half-written
// manifest: object storage exposes each put atomically. A manifest is
// either absent or a complete representation of the day's catalog result
// at write time.
package links
