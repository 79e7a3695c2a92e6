// Package progress provides progress reporting for long pipeline runs.
//
// This package outputs human-readable progress information to stdout,
// including completion percentage, fetch rate, and ETA.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    Label:      "HLSL30.v2.0 2024-01",
//	    TotalItems: totalLinks,
//	    TotalDays:  len(days),
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// Update as items complete
//	reporter.ItemCompleted()
//
// # Output Format
//
//	[hls] Aggregating: HLSL30.v2.0 2024-01
//	[hls] Items: 10240 | Days: 31 | Concurrency: 3 x 50
//	[hls] Progress: 45.2% | 4628 / 10240 items | 12 failed | Rate: 120 items/s | ETA: 46s
package progress
