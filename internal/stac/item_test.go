package stac

import (
	"errors"
	"testing"
	"time"
)

const validItem = `{
	"type": "Feature",
	"id": "HLS.L30.T35JPM.2024012T081153.v2.0",
	"collection": "HLSL30_2.0",
	"geometry": {"type": "Polygon", "coordinates": [[[24,-28],[25,-28],[25,-27],[24,-27],[24,-28]]]},
	"bbox": [24, -28, 25, -27],
	"properties": {
		"datetime": "2024-01-12T08:11:53Z",
		"start_datetime": "2024-01-12T08:11:53Z",
		"end_datetime": "2024-01-12T08:12:17Z",
		"eo:cloud_cover": 12
	},
	"assets": {
		"B01": {"href": "s3://bucket/B01.tif", "roles": ["data"]}
	}
}`

func TestParseItem(t *testing.T) {
	item, err := ParseItem([]byte(validItem))
	if err != nil {
		t.Fatalf("ParseItem: %v", err)
	}

	if item.ID != "HLS.L30.T35JPM.2024012T081153.v2.0" {
		t.Errorf("unexpected id %q", item.ID)
	}
	if item.Collection != "HLSL30_2.0" {
		t.Errorf("unexpected collection %q", item.Collection)
	}
	if !item.HasBBox {
		t.Error("expected declared bbox")
	}
	if item.BBox != (BBox{24, -28, 25, -27}) {
		t.Errorf("unexpected bbox %v", item.BBox)
	}
	if _, ok := item.Assets["B01"]; !ok {
		t.Error("expected B01 asset")
	}

	want := time.Date(2024, time.January, 12, 8, 11, 53, 0, time.UTC)
	if !item.Datetime().Equal(want) {
		t.Errorf("Datetime = %v, want %v", item.Datetime(), want)
	}
	if item.EndDatetime().Before(item.StartDatetime()) {
		t.Error("end datetime before start datetime")
	}
}

func TestParseItemMalformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":     `{"type": "Feature"`,
		"not a feature":    `{"type": "FeatureCollection", "id": "x", "geometry": {"type": "Point", "coordinates": [0,0]}}`,
		"missing id":       `{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0,0]}}`,
		"missing geometry": `{"type": "Feature", "id": "x"}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseItem([]byte(doc))
			if !errors.Is(err, ErrMalformedItem) {
				t.Errorf("expected ErrMalformedItem, got %v", err)
			}
		})
	}
}

func TestItemBoundPrefersDeclaredBBox(t *testing.T) {
	item, err := ParseItem([]byte(validItem))
	if err != nil {
		t.Fatalf("ParseItem: %v", err)
	}

	bound := item.Bound()
	if bound.Min[0] != 24 || bound.Min[1] != -28 || bound.Max[0] != 25 || bound.Max[1] != -27 {
		t.Errorf("unexpected bound %+v", bound)
	}
}

func TestItemBoundFromGeometry(t *testing.T) {
	doc := `{
		"type": "Feature",
		"id": "x",
		"geometry": {"type": "Polygon", "coordinates": [[[1,2],[3,2],[3,4],[1,4],[1,2]]]},
		"properties": {}
	}`
	item, err := ParseItem([]byte(doc))
	if err != nil {
		t.Fatalf("ParseItem: %v", err)
	}
	if item.HasBBox {
		t.Error("expected no declared bbox")
	}

	bound := item.Bound()
	if bound.Min[0] != 1 || bound.Min[1] != 2 || bound.Max[0] != 3 || bound.Max[1] != 4 {
		t.Errorf("unexpected bound %+v", bound)
	}
}

func TestItemTimePropertiesAbsent(t *testing.T) {
	doc := `{
		"type": "Feature",
		"id": "x",
		"geometry": {"type": "Point", "coordinates": [0,0]},
		"properties": {"datetime": "not-a-time"}
	}`
	item, err := ParseItem([]byte(doc))
	if err != nil {
		t.Fatalf("ParseItem: %v", err)
	}
	if !item.Datetime().IsZero() {
		t.Errorf("expected zero time for unparseable datetime, got %v", item.Datetime())
	}
	if !item.StartDatetime().IsZero() {
		t.Errorf("expected zero time for absent start_datetime, got %v", item.StartDatetime())
	}
}
