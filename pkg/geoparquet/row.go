package geoparquet

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb/encoding/wkb"

	"github.com/MAAP-Project/hls-stac-parquet/internal/stac"
)

// Bounds is the per-row bounding box column mandated by GeoParquet for
// covered geometry columns.
type Bounds struct {
	Xmin float64 `parquet:"xmin"`
	Ymin float64 `parquet:"ymin"`
	Xmax float64 `parquet:"xmax"`
	Ymax float64 `parquet:"ymax"`
}

// Row is one STAC item in the output file.
type Row struct {
	ID            string     `parquet:"id,zstd"`
	Collection    string     `parquet:"collection,dict,zstd"`
	Datetime      *time.Time `parquet:"datetime,optional,timestamp(millisecond)"`
	StartDatetime *time.Time `parquet:"start_datetime,optional,timestamp(millisecond)"`
	EndDatetime   *time.Time `parquet:"end_datetime,optional,timestamp(millisecond)"`
	Geometry      []byte     `parquet:"geometry,zstd"`
	Bbox          Bounds     `parquet:"bbox"`
	Properties    string     `parquet:"properties,zstd"`
	Assets        string     `parquet:"assets,zstd"`
}

// RowFromItem converts a parsed STAC item into a Row.
func RowFromItem(item *stac.Item) (Row, error) {
	geom, err := wkb.Marshal(item.Geometry)
	if err != nil {
		return Row{}, fmt.Errorf("geoparquet: encode geometry for %s: %w", item.ID, err)
	}

	props, err := json.Marshal(item.Properties)
	if err != nil {
		return Row{}, fmt.Errorf("geoparquet: encode properties for %s: %w", item.ID, err)
	}
	assets, err := json.Marshal(item.Assets)
	if err != nil {
		return Row{}, fmt.Errorf("geoparquet: encode assets for %s: %w", item.ID, err)
	}

	bound := item.Bound()
	row := Row{
		ID:         item.ID,
		Collection: item.Collection,
		Geometry:   geom,
		Bbox: Bounds{
			Xmin: bound.Min.X(),
			Ymin: bound.Min.Y(),
			Xmax: bound.Max.X(),
			Ymax: bound.Max.Y(),
		},
		Properties: string(props),
		Assets:     string(assets),
	}

	if t := item.Datetime(); !t.IsZero() {
		row.Datetime = &t
	}
	if t := item.StartDatetime(); !t.IsZero() {
		row.StartDatetime = &t
	}
	if t := item.EndDatetime(); !t.IsZero() {
		row.EndDatetime = &t
	}

	return row, nil
}
