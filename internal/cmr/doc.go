// Package cmr provides a client for NASA's Common Metadata Repository
// granule search API.
//
// This package handles:
//   - Collection identifiers and their CMR concept IDs
//   - Cursor-based pagination via the CMR-Search-After header
//   - Retry with exponential backoff for individual page requests
//   - STAC JSON link extraction from granule results
//
// # Usage
//
//	client := cmr.NewClient(cmr.DefaultOptions(), logger)
//
//	pages := client.Search(cmr.SearchParams{
//	    Collection: cmr.HLSL30,
//	    Date:       cmr.Date{Year: 2024, Month: time.January, Day: 15},
//	})
//	for {
//	    granules, err := pages.Next(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    // ...
//	}
//
// A Pages sequence is finite and not restartable mid-stream; call Search
// again to re-query from the start.
package cmr
