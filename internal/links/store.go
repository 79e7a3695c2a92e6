package links

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/MAAP-Project/hls-stac-parquet/internal/cmr"
)

// Common errors.
var (
	// ErrManifestNotFound is returned by Read when no manifest exists for
	// the requested day.
	ErrManifestNotFound = errors.New("links: manifest not found")

	// ErrStorageWrite indicates a manifest put failed.
	ErrStorageWrite = errors.New("links: storage write failed")
)

// Manifest is the persisted link list for one collection and day.
type Manifest struct {
	Collection string   `json:"collection"`
	Date       string   `json:"date"`
	Links      []string `json:"links"`
}

// Key returns the manifest object key for a collection and day.
func Key(collection cmr.Collection, date cmr.Date) string {
	return fmt.Sprintf("links/%s/%04d/%02d/%s.json",
		collection.ID(), date.Year, int(date.Month), date)
}

// Store reads and writes link manifests in an object-storage bucket.
type Store struct {
	bucket *blob.Bucket
}

// NewStore creates a manifest store over the given bucket.
func NewStore(bucket *blob.Bucket) *Store {
	return &Store{bucket: bucket}
}

// Exists reports whether a manifest is present for the collection and day.
func (s *Store) Exists(ctx context.Context, collection cmr.Collection, date cmr.Date) (bool, error) {
	ok, err := s.bucket.Exists(ctx, Key(collection, date))
	if err != nil {
		return false, fmt.Errorf("links: check manifest: %w", err)
	}
	return ok, nil
}

// Write persists a manifest as one whole-object put, overwriting any
// previous manifest for the same day.
func (s *Store) Write(ctx context.Context, collection cmr.Collection, date cmr.Date, links []string) error {
	if links == nil {
		links = []string{}
	}
	m := Manifest{
		Collection: collection.String(),
		Date:       date.String(),
		Links:      links,
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("links: marshal manifest: %w", err)
	}
	opts := &blob.WriterOptions{ContentType: "application/json"}
	if err := s.bucket.WriteAll(ctx, Key(collection, date), data, opts); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStorageWrite, Key(collection, date), err)
	}
	return nil
}

// Read loads the manifest for a collection and day. Returns
// ErrManifestNotFound when absent.
func (s *Store) Read(ctx context.Context, collection cmr.Collection, date cmr.Date) (*Manifest, error) {
	key := Key(collection, date)
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, key)
		}
		return nil, fmt.Errorf("links: read manifest %s: %w", key, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("links: unmarshal manifest %s: %w", key, err)
	}
	return &m, nil
}

// ExpectedDates returns the days of the given month that must have a
// manifest for the month to be complete. For the collection's origin
// month the list starts at the origin day rather than the 1st.
func ExpectedDates(collection cmr.Collection, year int, month time.Month) []cmr.Date {
	origin := collection.OriginDate()
	dates := cmr.MonthDates(year, month)
	if year == origin.Year && month == origin.Month {
		trimmed := dates[:0]
		for _, d := range dates {
			if !d.Before(origin) {
				trimmed = append(trimmed, d)
			}
		}
		return trimmed
	}
	return dates
}
