package fetch

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/MAAP-Project/hls-stac-parquet/internal/cmr"
	"github.com/MAAP-Project/hls-stac-parquet/internal/stac"
)

// Outcome is the result of fetching one link. Exactly one of Item and
// Err is set.
type Outcome struct {
	Link string
	Item *stac.Item
	Err  *Error
}

// ItemFetcher retrieves a single item document.
type ItemFetcher interface {
	Fetch(ctx context.Context, link string) (*stac.Item, error)
}

// ProgressFunc is invoked once per completed fetch.
type ProgressFunc func(date cmr.Date, done, total int, failed bool)

// Scheduler runs batches of per-day fetches under two-level admission
// control.
type Scheduler struct {
	fetcher  ItemFetcher
	logger   *zap.Logger
	progress ProgressFunc
}

// NewScheduler creates a Scheduler around the given fetcher.
func NewScheduler(fetcher ItemFetcher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{fetcher: fetcher, logger: logger}
}

// SetProgress registers a per-fetch progress callback. The callback may
// be invoked from multiple goroutines and must be safe for concurrent
// use. Must be called before RunBatch.
func (s *Scheduler) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// RunBatch fetches every link in days, admitting at most maxDays days
// concurrently and at most maxPerDay fetches within each admitted day.
// Failures do not stop the batch: every link gets an Outcome. On
// context cancellation the remaining links receive failed outcomes
// wrapping the context error.
func (s *Scheduler) RunBatch(ctx context.Context, days map[cmr.Date][]string, maxDays, maxPerDay int) map[cmr.Date][]Outcome {
	if maxDays <= 0 {
		maxDays = 1
	}
	if maxPerDay <= 0 {
		maxPerDay = 1
	}

	results := make(map[cmr.Date][]Outcome, len(days))
	for date, dayLinks := range days {
		results[date] = make([]Outcome, len(dayLinks))
	}

	admit := semaphore.NewWeighted(int64(maxDays))
	var g errgroup.Group

	for date, dayLinks := range days {
		// Admission is the cooperative cancellation point: once the
		// context is done, no further days start.
		if err := admit.Acquire(ctx, 1); err != nil {
			s.cancelDay(date, dayLinks, results[date], err)
			continue
		}

		date, dayLinks := date, dayLinks
		outcomes := results[date]
		g.Go(func() error {
			defer admit.Release(1)
			s.runDay(ctx, date, dayLinks, outcomes, maxPerDay)
			return nil
		})
	}

	g.Wait()
	return results
}

// runDay fetches one day's links with its own concurrency bound. The
// outcomes slice is owned exclusively by this day, and each goroutine
// writes a distinct index, so no locking is needed.
func (s *Scheduler) runDay(ctx context.Context, date cmr.Date, dayLinks []string, outcomes []Outcome, maxPerDay int) {
	sem := semaphore.NewWeighted(int64(maxPerDay))
	var g errgroup.Group
	var done atomic.Int64

	for i, link := range dayLinks {
		if err := sem.Acquire(ctx, 1); err != nil {
			s.cancelDay(date, dayLinks[i:], outcomes[i:], err)
			break
		}

		i, link := i, link
		g.Go(func() error {
			defer sem.Release(1)
			outcomes[i] = s.fetchOne(ctx, link)
			if s.progress != nil {
				s.progress(date, int(done.Add(1)), len(dayLinks), outcomes[i].Err != nil)
			}
			return nil
		})
	}

	g.Wait()

	failed := 0
	for i := range outcomes {
		if outcomes[i].Err != nil {
			failed++
		}
	}
	s.logger.Debug("day batch complete",
		zap.String("date", date.String()),
		zap.Int("links", len(dayLinks)),
		zap.Int("failed", failed))
}

// fetchOne runs a single fetch and normalizes its error to *Error.
func (s *Scheduler) fetchOne(ctx context.Context, link string) Outcome {
	item, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		var fe *Error
		if !errors.As(err, &fe) {
			fe = &Error{Kind: Transient, Link: link, Err: err}
		}
		return Outcome{Link: link, Err: fe}
	}
	return Outcome{Link: link, Item: item}
}

// cancelDay records failed outcomes for links that never started.
func (s *Scheduler) cancelDay(date cmr.Date, dayLinks []string, outcomes []Outcome, cause error) {
	for i, link := range dayLinks {
		outcomes[i] = Outcome{
			Link: link,
			Err:  &Error{Kind: Transient, Link: link, Err: cause},
		}
	}
	s.logger.Debug("day cancelled before completion",
		zap.String("date", date.String()),
		zap.Int("links", len(dayLinks)))
}
