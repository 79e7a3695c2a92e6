package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/MAAP-Project/hls-stac-parquet/internal/cmr"
	"github.com/MAAP-Project/hls-stac-parquet/internal/links"
	"github.com/MAAP-Project/hls-stac-parquet/internal/stac"
)

// Request describes one day's harvest. It is immutable per invocation.
type Request struct {
	Collection   cmr.Collection
	Date         cmr.Date
	BoundingBox  *stac.BBox
	Protocol     cmr.Protocol
	SkipExisting bool
}

// Result reports what a harvest run did.
type Result struct {
	// Written is false when SkipExisting suppressed the run.
	Written bool

	// LinkCount is the number of links in the written manifest.
	LinkCount int
}

// FailedError wraps a query failure for one day. The day is not partially
// cached: no manifest is written when the query fails.
type FailedError struct {
	Date cmr.Date
	Err  error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("harvest: day %s failed: %v", e.Date, e.Err)
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// Harvester runs daily catalog harvests.
type Harvester struct {
	catalog *cmr.Client
	store   *links.Store
	logger  *zap.Logger
}

// New creates a Harvester.
func New(catalog *cmr.Client, store *links.Store, logger *zap.Logger) *Harvester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{catalog: catalog, store: store, logger: logger}
}

// HarvestDay queries the catalog for one day and writes the day's link
// manifest. With SkipExisting set and a manifest already present it
// returns immediately without any network calls.
func (h *Harvester) HarvestDay(ctx context.Context, req Request) (Result, error) {
	logger := h.logger.With(
		zap.String("collection", req.Collection.String()),
		zap.String("date", req.Date.String()),
	)

	if req.SkipExisting {
		exists, err := h.store.Exists(ctx, req.Collection, req.Date)
		if err != nil {
			return Result{}, &FailedError{Date: req.Date, Err: err}
		}
		if exists {
			logger.Info("manifest already exists, skipping")
			return Result{Written: false}, nil
		}
	}

	dayLinks, err := h.collectLinks(ctx, req, logger)
	if err != nil {
		return Result{}, &FailedError{Date: req.Date, Err: err}
	}

	if err := h.store.Write(ctx, req.Collection, req.Date, dayLinks); err != nil {
		return Result{}, &FailedError{Date: req.Date, Err: err}
	}

	logger.Info("wrote link manifest", zap.Int("links", len(dayLinks)))
	return Result{Written: true, LinkCount: len(dayLinks)}, nil
}

// collectLinks drains the day's page sequence and extracts item links,
// filtering granules against the request bounding box when one is set.
func (h *Harvester) collectLinks(ctx context.Context, req Request, logger *zap.Logger) ([]string, error) {
	pages := h.catalog.Search(cmr.SearchParams{
		Collection:  req.Collection,
		Date:        req.Date,
		BoundingBox: req.BoundingBox,
	})

	var dayLinks []string
	for {
		granules, err := pages.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if req.BoundingBox != nil {
			granules = filterByBBox(granules, *req.BoundingBox)
		}

		pageLinks, skipped := cmr.ExtractItemLinks(granules, req.Protocol)
		if skipped > 0 {
			logger.Info("granules without matching item link",
				zap.Int("skipped", skipped),
				zap.String("protocol", string(req.Protocol)))
		}
		dayLinks = append(dayLinks, pageLinks...)
	}

	return dayLinks, nil
}

// filterByBBox keeps granules whose spatial extent intersects the box,
// inclusive of the boundary. Granules without parseable spatial
// information are kept.
func filterByBBox(granules []cmr.Granule, bbox stac.BBox) []cmr.Granule {
	kept := granules[:0:0]
	for i := range granules {
		bound, ok := granules[i].Bound()
		if !ok || bbox.IntersectsBound(bound) {
			kept = append(kept, granules[i])
		}
	}
	return kept
}
