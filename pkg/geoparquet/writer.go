package geoparquet

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/parquet-go/parquet-go"
	"gocloud.dev/blob"
)

// ErrWriteFailed indicates the artifact could not be stored.
var ErrWriteFailed = errors.New("geoparquet: write failed")

// contentType is the IANA-registered media type for parquet files.
const contentType = "application/vnd.apache.parquet"

// geoMetadata is the GeoParquet file metadata identifying the geometry
// column. Geometry types are left open: HLS items mix polygons and
// multipolygons across antimeridian-crossing tiles.
const geoMetadata = `{"version":"1.1.0","primary_column":"geometry","columns":{"geometry":{"encoding":"WKB","geometry_types":[]}}}`

// Writer stores GeoParquet artifacts in an object-storage bucket.
type Writer struct {
	bucket *blob.Bucket
}

// NewWriter creates a Writer over the given bucket.
func NewWriter(bucket *blob.Bucket) *Writer {
	return &Writer{bucket: bucket}
}

// Exists reports whether an artifact is already present at key.
func (w *Writer) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := w.bucket.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("geoparquet: check artifact: %w", err)
	}
	return ok, nil
}

// Write encodes rows and stores the artifact at key as a single put.
func (w *Writer) Write(ctx context.Context, key string, rows []Row) error {
	data, err := Encode(rows)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, key, err)
	}

	opts := &blob.WriterOptions{ContentType: contentType}
	if err := w.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, key, err)
	}
	return nil
}

// Encode serializes rows into a GeoParquet file.
func Encode(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	pw := parquet.NewGenericWriter[Row](&buf,
		parquet.KeyValueMetadata("geo", geoMetadata),
	)

	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			return nil, fmt.Errorf("write rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}
	return buf.Bytes(), nil
}
