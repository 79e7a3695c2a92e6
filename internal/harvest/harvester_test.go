package harvest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gocloud.dev/blob/memblob"

	"github.com/MAAP-Project/hls-stac-parquet/internal/cmr"
	"github.com/MAAP-Project/hls-stac-parquet/internal/links"
	"github.com/MAAP-Project/hls-stac-parquet/internal/retry"
	"github.com/MAAP-Project/hls-stac-parquet/internal/stac"
)

func testDate() cmr.Date {
	return cmr.Date{Year: 2024, Month: time.January, Day: 15}
}

func newCatalog(t *testing.T, handler http.Handler) (*cmr.Client, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	opts := cmr.DefaultOptions()
	opts.BaseURL = server.URL
	opts.Retry = retry.Policy{
		MaxAttempts: 2,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}
	return cmr.NewClient(opts, nil), &requests
}

func serveEntries(entries string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"feed":{"entry":[%s]}}`, entries)
	})
}

func TestHarvestDayWritesManifest(t *testing.T) {
	ctx := context.Background()
	client, _ := newCatalog(t, serveEntries(
		`{"title":"g1","links":[{"href":"https://x/a_stac.json"}]},
		 {"title":"g2","links":[{"href":"https://x/b_stac.json"}]}`))

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	store := links.NewStore(bucket)
	h := New(client, store, nil)

	res, err := h.HarvestDay(ctx, Request{
		Collection: cmr.HLSL30,
		Date:       testDate(),
		Protocol:   cmr.ProtocolHTTPS,
	})
	if err != nil {
		t.Fatalf("HarvestDay: %v", err)
	}
	if !res.Written || res.LinkCount != 2 {
		t.Errorf("unexpected result %+v", res)
	}

	m, err := store.Read(ctx, cmr.HLSL30, testDate())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(m.Links) != 2 {
		t.Errorf("expected 2 links in manifest, got %v", m.Links)
	}
}

func TestHarvestDayZeroGranules(t *testing.T) {
	ctx := context.Background()
	client, _ := newCatalog(t, serveEntries(``))

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	store := links.NewStore(bucket)
	h := New(client, store, nil)

	res, err := h.HarvestDay(ctx, Request{
		Collection: cmr.HLSL30,
		Date:       testDate(),
		Protocol:   cmr.ProtocolHTTPS,
	})
	if err != nil {
		t.Fatalf("HarvestDay: %v", err)
	}
	if !res.Written || res.LinkCount != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	// A zero-granule day is still cached as an empty manifest.
	m, err := store.Read(ctx, cmr.HLSL30, testDate())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(m.Links) != 0 {
		t.Errorf("expected empty manifest, got %v", m.Links)
	}
}

func TestHarvestDaySkipExisting(t *testing.T) {
	ctx := context.Background()
	client, requests := newCatalog(t, serveEntries(``))

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	store := links.NewStore(bucket)
	if err := store.Write(ctx, cmr.HLSL30, testDate(), []string{"https://x/a_stac.json"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	h := New(client, store, nil)
	res, err := h.HarvestDay(ctx, Request{
		Collection:   cmr.HLSL30,
		Date:         testDate(),
		Protocol:     cmr.ProtocolHTTPS,
		SkipExisting: true,
	})
	if err != nil {
		t.Fatalf("HarvestDay: %v", err)
	}
	if res.Written {
		t.Error("expected skipped day")
	}
	if requests.Load() != 0 {
		t.Errorf("expected zero catalog requests, got %d", requests.Load())
	}

	// The existing manifest is untouched.
	m, err := store.Read(ctx, cmr.HLSL30, testDate())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(m.Links) != 1 {
		t.Errorf("existing manifest modified: %v", m.Links)
	}
}

func TestHarvestDayBBoxFilter(t *testing.T) {
	ctx := context.Background()
	// Three granules: inside, outside, and one without spatial info.
	client, _ := newCatalog(t, serveEntries(
		`{"title":"inside","boxes":["0 0 10 10"],"links":[{"href":"https://x/in_stac.json"}]},
		 {"title":"outside","boxes":["40 40 50 50"],"links":[{"href":"https://x/out_stac.json"}]},
		 {"title":"nospatial","links":[{"href":"https://x/nospatial_stac.json"}]}`))

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	store := links.NewStore(bucket)
	h := New(client, store, nil)

	bbox := stac.BBox{-5, -5, 5, 5}
	res, err := h.HarvestDay(ctx, Request{
		Collection:  cmr.HLSL30,
		Date:        testDate(),
		BoundingBox: &bbox,
		Protocol:    cmr.ProtocolHTTPS,
	})
	if err != nil {
		t.Fatalf("HarvestDay: %v", err)
	}
	if res.LinkCount != 2 {
		t.Fatalf("expected 2 links (inside + no spatial info), got %d", res.LinkCount)
	}

	m, err := store.Read(ctx, cmr.HLSL30, testDate())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	for _, link := range m.Links {
		if link == "https://x/out_stac.json" {
			t.Error("granule outside bbox leaked into manifest")
		}
	}
}

func TestHarvestDayQueryFailure(t *testing.T) {
	ctx := context.Background()
	client, _ := newCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	store := links.NewStore(bucket)
	h := New(client, store, nil)

	_, err := h.HarvestDay(ctx, Request{
		Collection: cmr.HLSL30,
		Date:       testDate(),
		Protocol:   cmr.ProtocolHTTPS,
	})

	var failed *FailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected FailedError, got %v", err)
	}
	if failed.Date != testDate() {
		t.Errorf("unexpected failed date %v", failed.Date)
	}
	if !errors.Is(err, cmr.ErrCatalogUnavailable) {
		t.Errorf("expected wrapped ErrCatalogUnavailable, got %v", err)
	}

	// No partial manifest.
	if _, err := store.Read(ctx, cmr.HLSL30, testDate()); !errors.Is(err, links.ErrManifestNotFound) {
		t.Errorf("expected no manifest after failure, got %v", err)
	}
}
