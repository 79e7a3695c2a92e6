package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gocloud.dev/blob"

	"github.com/MAAP-Project/hls-stac-parquet/internal/aggregate"
	"github.com/MAAP-Project/hls-stac-parquet/internal/cmr"
	"github.com/MAAP-Project/hls-stac-parquet/internal/config"
	"github.com/MAAP-Project/hls-stac-parquet/internal/fetch"
	"github.com/MAAP-Project/hls-stac-parquet/internal/links"
	"github.com/MAAP-Project/hls-stac-parquet/internal/progress"
	"github.com/MAAP-Project/hls-stac-parquet/pkg/geoparquet"
)

func runAggregate(args []string) int {
	fs := flag.NewFlagSet("aggregate", flag.ExitOnError)

	collection := fs.String("collection", "", "Collection to aggregate: HLSL30 or HLSS30 (required)")
	month := fs.String("month", "", "Month to aggregate (YYYY-MM, required)")
	dest := fs.String("dest", "", "Destination bucket URL, e.g. s3://bucket or file:///path")
	version := fs.String("version", "", "Artifact layout version prefix (default v1)")
	requireComplete := fs.Bool("require-complete-links", false, "Abort unless every day of the month has a manifest")
	skipExisting := fs.Bool("skip-existing", false, "Skip the month if the artifact already exists")
	maxDays := fs.Int("max-days", 0, "Maximum days fetched concurrently (default 3)")
	maxPerDay := fs.Int("max-per-day", 0, "Maximum concurrent fetches within one day (default 50)")
	progressFlag := fs.Bool("progress", false, "Show progress output")
	configPath := fs.String("config", "", "Path to YAML config file")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: hls-stac-parquet aggregate [options]

Read a month's cached link manifests, fetch the item documents under
bounded concurrency, and write one partitioned GeoParquet artifact.
Nothing is written when the failure rate exceeds the configured
threshold.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	cfg = cfg.Merge(config.Config{
		Destination:         *dest,
		Version:             *version,
		MaxConcurrentDays:   *maxDays,
		MaxConcurrentPerDay: *maxPerDay,
		Progress:            *progressFlag,
		Verbose:             *verbose,
	})

	if *collection == "" || *month == "" {
		fmt.Fprintln(os.Stderr, "Error: -collection and -month are required")
		fs.Usage()
		return ExitInvalidArgs
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	coll, err := cmr.ParseCollection(*collection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	monthTime, err := time.Parse("2006-01", *month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -month %q: expected YYYY-MM\n", *month)
		return ExitInvalidArgs
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	bucket, err := blob.OpenBucket(ctx, cfg.Destination)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open bucket: %v\n", err)
		return ExitStorageError
	}
	defer bucket.Close()

	fetcher := fetch.NewFetcher(fetch.Options{
		Timeout:             cfg.Timeout,
		MaxIdleConnsPerHost: cfg.MaxConcurrentDays * cfg.MaxConcurrentPerDay,
		UserAgent:           cfg.ClientID,
		Retry:               retryPolicy(cfg),
	})
	scheduler := fetch.NewScheduler(fetcher, logger)

	var reporter *progress.Reporter
	defer func() {
		if reporter != nil {
			reporter.Stop()
		}
	}()

	opts := aggregate.Options{
		Version:              cfg.Version,
		FailureRateThreshold: cfg.FailureRateThreshold,
		MaxDays:              cfg.MaxConcurrentDays,
		MaxPerDay:            cfg.MaxConcurrentPerDay,
	}
	if cfg.Progress {
		opts.OnBatchStart = func(totalLinks, totalDays int) {
			reporter = progress.NewReporter(progress.Options{
				Label:      fmt.Sprintf("%s %s", coll.ID(), *month),
				TotalItems: totalLinks,
				TotalDays:  totalDays,
				MaxDays:    cfg.MaxConcurrentDays,
				MaxPerDay:  cfg.MaxConcurrentPerDay,
			})
			reporter.Start()
		}
		scheduler.SetProgress(func(date cmr.Date, done, total int, failed bool) {
			if reporter == nil {
				return
			}
			if failed {
				reporter.ItemFailed()
			} else {
				reporter.ItemCompleted()
			}
			if done == total {
				reporter.DayCompleted()
			}
		})
	}

	aggregator := aggregate.New(links.NewStore(bucket), scheduler,
		geoparquet.NewWriter(bucket), opts, logger)

	res, err := aggregator.AggregateMonth(ctx, aggregate.Request{
		Collection:           coll,
		Year:                 monthTime.Year(),
		Month:                monthTime.Month(),
		SkipExisting:         *skipExisting,
		RequireCompleteLinks: *requireComplete,
	})
	if reporter != nil {
		reporter.Stop()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return aggregateExitCode(err)
	}

	if !res.Written {
		fmt.Fprintf(os.Stderr, "[hls] Artifact already exists: %s\n", res.Key)
		return ExitSuccess
	}
	fmt.Fprintf(os.Stderr, "[hls] Wrote %s: %d items from %d links (%d failed)\n",
		res.Key, res.Items, res.Links, res.Failed)
	if len(res.MissingDays) > 0 {
		fmt.Fprintf(os.Stderr, "[hls] Warning: %d days had no manifest\n", len(res.MissingDays))
	}
	return ExitSuccess
}

// aggregateExitCode maps an aggregation failure to a process exit code.
func aggregateExitCode(err error) int {
	var incomplete *aggregate.IncompleteLinksError
	switch {
	case errors.As(err, &incomplete):
		return ExitIncompleteLinks
	case errors.Is(err, aggregate.ErrHighFailureRate):
		return ExitHighFailureRate
	case errors.Is(err, geoparquet.ErrWriteFailed):
		return ExitStorageError
	default:
		return ExitGeneralError
	}
}
