package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gocloud.dev/blob"

	"github.com/MAAP-Project/hls-stac-parquet/internal/cmr"
	"github.com/MAAP-Project/hls-stac-parquet/internal/config"
	"github.com/MAAP-Project/hls-stac-parquet/internal/harvest"
	"github.com/MAAP-Project/hls-stac-parquet/internal/links"
	"github.com/MAAP-Project/hls-stac-parquet/internal/retry"
	"github.com/MAAP-Project/hls-stac-parquet/internal/stac"
)

func runHarvest(args []string) int {
	fs := flag.NewFlagSet("harvest", flag.ExitOnError)

	collection := fs.String("collection", "", "Collection to harvest: HLSL30 or HLSS30 (required)")
	date := fs.String("date", "", "Single day to harvest (YYYY-MM-DD)")
	start := fs.String("start", "", "First day of a range to harvest (YYYY-MM-DD)")
	end := fs.String("end", "", "Last day of a range to harvest (YYYY-MM-DD)")
	dest := fs.String("dest", "", "Destination bucket URL, e.g. s3://bucket or file:///path")
	bboxFlag := fs.String("bbox", "", "Bounding box filter: west,south,east,north")
	protocolFlag := fs.String("protocol", "https", "Item link protocol: https or s3")
	skipExisting := fs.Bool("skip-existing", false, "Skip days whose manifest already exists")
	configPath := fs.String("config", "", "Path to YAML config file")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: hls-stac-parquet harvest [options]

Query the CMR catalog for each day's granules and cache the item
document links as per-day manifests in object storage. Days are
processed in order; a failed day stops the run without touching the
days already written.

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
	cfg = cfg.Merge(config.Config{Destination: *dest, Verbose: *verbose})

	if *collection == "" {
		fmt.Fprintln(os.Stderr, "Error: -collection is required")
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
	protocol, err := cmr.ParseProtocol(*protocolFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	first, last, err := parseDateRange(*date, *start, *end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	var bbox *stac.BBox
	if *bboxFlag != "" {
		parsed, err := stac.ParseBBox(*bboxFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
		bbox = &parsed
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

	client := cmr.NewClient(cmr.Options{
		BaseURL:  cfg.CatalogURL,
		ClientID: cfg.ClientID,
		PageSize: cfg.PageSize,
		Timeout:  cfg.Timeout,
		Retry:    retryPolicy(cfg),
	}, logger)
	harvester := harvest.New(client, links.NewStore(bucket), logger)

	written, skipped := 0, 0
	for d := first; !d.After(last); d = d.AddDays(1) {
		res, err := harvester.HarvestDay(ctx, harvest.Request{
			Collection:   coll,
			Date:         d,
			BoundingBox:  bbox,
			Protocol:     protocol,
			SkipExisting: *skipExisting,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return harvestExitCode(err)
		}
		if res.Written {
			written++
		} else {
			skipped++
		}
	}

	fmt.Fprintf(os.Stderr, "[hls] Harvest complete: %d days written, %d skipped\n", written, skipped)
	return ExitSuccess
}

// parseDateRange resolves the -date / -start / -end flags into an
// inclusive day range.
func parseDateRange(date, start, end string) (cmr.Date, cmr.Date, error) {
	if date != "" {
		if start != "" || end != "" {
			return cmr.Date{}, cmr.Date{}, errors.New("-date cannot be combined with -start/-end")
		}
		d, err := cmr.ParseDate(date)
		if err != nil {
			return cmr.Date{}, cmr.Date{}, err
		}
		return d, d, nil
	}
	if start == "" || end == "" {
		return cmr.Date{}, cmr.Date{}, errors.New("either -date or both -start and -end are required")
	}
	first, err := cmr.ParseDate(start)
	if err != nil {
		return cmr.Date{}, cmr.Date{}, err
	}
	last, err := cmr.ParseDate(end)
	if err != nil {
		return cmr.Date{}, cmr.Date{}, err
	}
	if last.Before(first) {
		return cmr.Date{}, cmr.Date{}, errors.New("-end is before -start")
	}
	return first, last, nil
}

// retryPolicy converts the retry section of the configuration.
func retryPolicy(cfg config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Retry.Attempts,
		Backoff:     cfg.Retry.Backoff,
		MaxBackoff:  cfg.Retry.MaxBackoff,
	}
}

// harvestExitCode maps a harvest failure to a process exit code.
func harvestExitCode(err error) int {
	switch {
	case errors.Is(err, cmr.ErrCatalogUnavailable):
		return ExitCatalogUnavailable
	case errors.Is(err, links.ErrStorageWrite):
		return ExitStorageError
	default:
		return ExitGeneralError
	}
}
