package geoparquet

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"gocloud.dev/blob/memblob"

	"github.com/MAAP-Project/hls-stac-parquet/internal/stac"
)

func testItem(id string) *stac.Item {
	return &stac.Item{
		ID:         id,
		Collection: "HLSL30_2.0",
		Geometry: orb.Polygon{{
			{24, -28}, {25, -28}, {25, -27}, {24, -27}, {24, -28},
		}},
		BBox:    stac.BBox{24, -28, 25, -27},
		HasBBox: true,
		Properties: map[string]any{
			"datetime":       "2024-01-12T08:11:53Z",
			"start_datetime": "2024-01-12T08:11:53Z",
			"end_datetime":   "2024-01-12T08:12:17Z",
			"eo:cloud_cover": 12.0,
		},
		Assets: map[string]stac.Asset{
			"B01": {Href: "s3://bucket/" + id + ".B01.tif", Roles: []string{"data"}},
		},
	}
}

func TestRowFromItem(t *testing.T) {
	row, err := RowFromItem(testItem("item-1"))
	if err != nil {
		t.Fatalf("RowFromItem: %v", err)
	}

	if row.ID != "item-1" {
		t.Errorf("unexpected id %q", row.ID)
	}
	if row.Collection != "HLSL30_2.0" {
		t.Errorf("unexpected collection %q", row.Collection)
	}
	if row.Datetime == nil || !row.Datetime.Equal(time.Date(2024, 1, 12, 8, 11, 53, 0, time.UTC)) {
		t.Errorf("unexpected datetime %v", row.Datetime)
	}
	if row.Bbox != (Bounds{Xmin: 24, Ymin: -28, Xmax: 25, Ymax: -27}) {
		t.Errorf("unexpected bbox %+v", row.Bbox)
	}

	geom, err := wkb.Unmarshal(row.Geometry)
	if err != nil {
		t.Fatalf("decode WKB: %v", err)
	}
	if _, ok := geom.(orb.Polygon); !ok {
		t.Errorf("expected polygon geometry, got %T", geom)
	}

	if !bytes.Contains([]byte(row.Properties), []byte("eo:cloud_cover")) {
		t.Errorf("properties JSON missing key: %s", row.Properties)
	}
	if !bytes.Contains([]byte(row.Assets), []byte("B01.tif")) {
		t.Errorf("assets JSON missing asset: %s", row.Assets)
	}
}

func TestRowFromItemNoTimestamps(t *testing.T) {
	item := testItem("item-2")
	item.Properties = map[string]any{}

	row, err := RowFromItem(item)
	if err != nil {
		t.Fatalf("RowFromItem: %v", err)
	}
	if row.Datetime != nil || row.StartDatetime != nil || row.EndDatetime != nil {
		t.Error("expected nil timestamps for items without time properties")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	rows := make([]Row, 0, 3)
	for _, id := range []string{"a", "b", "c"} {
		row, err := RowFromItem(testItem(id))
		if err != nil {
			t.Fatalf("RowFromItem: %v", err)
		}
		rows = append(rows, row)
	}

	data, err := Encode(rows)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := parquet.Read[Row](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(decoded))
	}
	for i, row := range decoded {
		if row.ID != rows[i].ID {
			t.Errorf("row %d: id %q, want %q", i, row.ID, rows[i].ID)
		}
		if !bytes.Equal(row.Geometry, rows[i].Geometry) {
			t.Errorf("row %d: geometry mismatch", i)
		}
	}
}

func TestEncodeEmbedsGeoMetadata(t *testing.T) {
	row, err := RowFromItem(testItem("a"))
	if err != nil {
		t.Fatalf("RowFromItem: %v", err)
	}
	data, err := Encode([]Row{row})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	meta, ok := f.Lookup("geo")
	if !ok {
		t.Fatal("missing geo file metadata")
	}
	if !bytes.Contains([]byte(meta), []byte(`"primary_column":"geometry"`)) {
		t.Errorf("unexpected geo metadata: %s", meta)
	}
}

func TestEncodeEmpty(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := parquet.Read[Row](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("expected empty file, got %d rows", len(decoded))
	}
}

func TestWriterWriteAndExists(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	w := NewWriter(bucket)

	const key = "v1/HLSL30.v2.0/year=2024/month=01/HLSL30.v2.0-2024-01.parquet"

	exists, err := w.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("expected artifact absent")
	}

	row, err := RowFromItem(testItem("a"))
	if err != nil {
		t.Fatalf("RowFromItem: %v", err)
	}
	if err := w.Write(ctx, key, []Row{row}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	exists, err = w.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("expected artifact present")
	}

	data, err := bucket.ReadAll(ctx, key)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	decoded, err := parquet.Read[Row](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read stored parquet: %v", err)
	}
	if len(decoded) != 1 || decoded[0].ID != "a" {
		t.Errorf("unexpected stored rows %+v", decoded)
	}
}
