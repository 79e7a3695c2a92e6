package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MAAP-Project/hls-stac-parquet/internal/cmr"
	"github.com/MAAP-Project/hls-stac-parquet/internal/fetch"
	"github.com/MAAP-Project/hls-stac-parquet/internal/links"
	"github.com/MAAP-Project/hls-stac-parquet/internal/spatial"
	"github.com/MAAP-Project/hls-stac-parquet/internal/stac"
	"github.com/MAAP-Project/hls-stac-parquet/pkg/geoparquet"
)

// Common errors.
var (
	// ErrHighFailureRate indicates too many item fetches failed for the
	// artifact to be trustworthy. Nothing is written.
	ErrHighFailureRate = errors.New("aggregate: failure rate above threshold")

	// ErrNoLinks indicates the month's manifests contain no links at all.
	ErrNoLinks = errors.New("aggregate: no links for month")
)

// IncompleteLinksError reports which days of the month are missing a
// manifest. No fetches are made when completeness is required.
type IncompleteLinksError struct {
	MissingDays []cmr.Date
}

func (e *IncompleteLinksError) Error() string {
	days := make([]string, len(e.MissingDays))
	for i, d := range e.MissingDays {
		days[i] = d.String()
	}
	return fmt.Sprintf("aggregate: missing link manifests for %d days: %s",
		len(e.MissingDays), strings.Join(days, ", "))
}

// DefaultVersion is the artifact layout version prefix.
const DefaultVersion = "v1"

// DefaultFailureRateThreshold aborts the month when more than 5% of
// fetches fail.
const DefaultFailureRateThreshold = 0.05

// BatchRunner fetches a batch of per-day link lists under bounded
// concurrency.
type BatchRunner interface {
	RunBatch(ctx context.Context, days map[cmr.Date][]string, maxDays, maxPerDay int) map[cmr.Date][]fetch.Outcome
}

// ArtifactWriter stores finished artifacts.
type ArtifactWriter interface {
	Exists(ctx context.Context, key string) (bool, error)
	Write(ctx context.Context, key string, rows []geoparquet.Row) error
}

// Options configures an Aggregator.
type Options struct {
	// Version is the artifact layout version prefix.
	// Default: DefaultVersion
	Version string

	// FailureRateThreshold is the fraction of failed fetches above which
	// the month is aborted when complete links are required. Zero aborts
	// on any failure; negative values restore the default.
	// Default: DefaultFailureRateThreshold
	FailureRateThreshold float64

	// MaxDays bounds how many days are fetched concurrently.
	// Default: 3
	MaxDays int

	// MaxPerDay bounds concurrent fetches within one day.
	// Default: 50
	MaxPerDay int

	// OnBatchStart, if set, is invoked once before fetching begins with
	// the month's link and day totals.
	OnBatchStart func(totalLinks, totalDays int)
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Version:              DefaultVersion,
		FailureRateThreshold: DefaultFailureRateThreshold,
		MaxDays:              3,
		MaxPerDay:            50,
	}
}

// Request describes one month's aggregation.
type Request struct {
	Collection cmr.Collection
	Year       int
	Month      time.Month

	// SkipExisting suppresses the run when the artifact already exists.
	SkipExisting bool

	// RequireCompleteLinks aborts before fetching unless every expected
	// day of the month has a manifest.
	RequireCompleteLinks bool
}

// Result reports what an aggregation run did.
type Result struct {
	// Written is false when SkipExisting suppressed the run.
	Written bool

	// Key is the artifact's object key.
	Key string

	// Links is the number of item links across the month's manifests.
	Links int

	// Items is the number of rows written.
	Items int

	// Failed is the number of links whose fetch failed.
	Failed int

	// MissingDays lists expected days without a manifest. Empty when the
	// month was complete.
	MissingDays []cmr.Date
}

// OutputKey returns the artifact object key for a collection and month.
func OutputKey(version string, collection cmr.Collection, year int, month time.Month) string {
	return fmt.Sprintf("%s/%s/year=%04d/month=%02d/%s-%04d-%02d.parquet",
		version, collection.ID(), year, int(month), collection.ID(), year, int(month))
}

// Aggregator builds monthly artifacts.
type Aggregator struct {
	manifests *links.Store
	runner    BatchRunner
	writer    ArtifactWriter
	opts      Options
	logger    *zap.Logger
}

// New creates an Aggregator.
func New(manifests *links.Store, runner BatchRunner, writer ArtifactWriter, opts Options, logger *zap.Logger) *Aggregator {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.FailureRateThreshold < 0 {
		opts.FailureRateThreshold = DefaultFailureRateThreshold
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 3
	}
	if opts.MaxPerDay <= 0 {
		opts.MaxPerDay = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		manifests: manifests,
		runner:    runner,
		writer:    writer,
		opts:      opts,
		logger:    logger,
	}
}

// AggregateMonth builds one month's artifact.
func (a *Aggregator) AggregateMonth(ctx context.Context, req Request) (Result, error) {
	key := OutputKey(a.opts.Version, req.Collection, req.Year, req.Month)
	logger := a.logger.With(
		zap.String("collection", req.Collection.String()),
		zap.String("key", key),
	)

	if req.SkipExisting {
		exists, err := a.writer.Exists(ctx, key)
		if err != nil {
			return Result{}, err
		}
		if exists {
			logger.Info("artifact already exists, skipping")
			return Result{Written: false, Key: key}, nil
		}
	}

	days, missing, err := a.readManifests(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if len(missing) > 0 {
		if req.RequireCompleteLinks {
			return Result{}, &IncompleteLinksError{MissingDays: missing}
		}
		logger.Warn("aggregating with incomplete manifests",
			zap.Int("missing_days", len(missing)))
	}

	total := 0
	for _, dayLinks := range days {
		total += len(dayLinks)
	}
	if total == 0 {
		return Result{}, fmt.Errorf("%w: %s %04d-%02d", ErrNoLinks,
			req.Collection, req.Year, int(req.Month))
	}

	logger.Info("fetching item documents",
		zap.Int("days", len(days)),
		zap.Int("links", total))
	if a.opts.OnBatchStart != nil {
		a.opts.OnBatchStart(total, len(days))
	}
	outcomes := a.runner.RunBatch(ctx, days, a.opts.MaxDays, a.opts.MaxPerDay)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	items, failed := collectItems(outcomes)
	if req.RequireCompleteLinks {
		rate := float64(failed) / float64(total)
		if rate > a.opts.FailureRateThreshold {
			return Result{}, fmt.Errorf("%w: %d of %d failed (%.1f%%)",
				ErrHighFailureRate, failed, total, rate*100)
		}
	}
	if failed > 0 {
		logger.Warn("writing partial artifact",
			zap.Int("failed", failed),
			zap.Int("links", total))
	}

	rows, err := orderedRows(items)
	if err != nil {
		return Result{}, err
	}

	if err := a.writer.Write(ctx, key, rows); err != nil {
		return Result{}, err
	}

	logger.Info("wrote artifact",
		zap.Int("items", len(rows)),
		zap.Int("failed", failed))
	return Result{
		Written:     true,
		Key:         key,
		Links:       total,
		Items:       len(rows),
		Failed:      failed,
		MissingDays: missing,
	}, nil
}

// readManifests loads every expected day's manifest, returning the
// per-day link lists and the days that had none.
func (a *Aggregator) readManifests(ctx context.Context, req Request) (map[cmr.Date][]string, []cmr.Date, error) {
	expected := links.ExpectedDates(req.Collection, req.Year, req.Month)

	days := make(map[cmr.Date][]string, len(expected))
	var missing []cmr.Date
	for _, date := range expected {
		m, err := a.manifests.Read(ctx, req.Collection, date)
		if err != nil {
			if errors.Is(err, links.ErrManifestNotFound) {
				missing = append(missing, date)
				continue
			}
			return nil, nil, err
		}
		// Spatially close documents fetch together within a day.
		spatial.SortLinks(m.Links)
		days[date] = m.Links
	}
	return days, missing, nil
}

// collectItems splits batch outcomes into successfully fetched items
// and a failure count. Items are keyed by link, so a link cached under
// more than one day yields a single row even though every outcome
// counts toward the totals.
func collectItems(outcomes map[cmr.Date][]fetch.Outcome) (map[string]*stac.Item, int) {
	items := make(map[string]*stac.Item)
	failed := 0
	for _, dayOutcomes := range outcomes {
		for i := range dayOutcomes {
			if dayOutcomes[i].Err != nil {
				failed++
				continue
			}
			items[dayOutcomes[i].Link] = dayOutcomes[i].Item
		}
	}
	return items, failed
}

// orderedRows converts items to rows in Hilbert order.
func orderedRows(items map[string]*stac.Item) ([]geoparquet.Row, error) {
	ordered := make([]string, 0, len(items))
	for link := range items {
		ordered = append(ordered, link)
	}
	spatial.SortLinks(ordered)

	rows := make([]geoparquet.Row, 0, len(ordered))
	for _, link := range ordered {
		row, err := geoparquet.RowFromItem(items[link])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
