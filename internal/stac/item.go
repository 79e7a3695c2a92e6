package stac

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrMalformedItem is returned when a document body cannot be parsed as a
// STAC item. This is a permanent condition: re-fetching the same document
// will not help.
var ErrMalformedItem = errors.New("stac: malformed item document")

// Asset is one entry of a STAC item's asset-link map.
type Asset struct {
	Href  string   `json:"href"`
	Title string   `json:"title,omitempty"`
	Type  string   `json:"type,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Item is a parsed STAC item document.
type Item struct {
	ID         string
	Collection string
	Geometry   orb.Geometry
	BBox       BBox
	HasBBox    bool
	Properties map[string]any
	Assets     map[string]Asset
}

// itemJSON is the wire shape of a STAC item.
type itemJSON struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	Geometry   *geojson.Geometry `json:"geometry"`
	BBox       []float64         `json:"bbox"`
	Properties map[string]any    `json:"properties"`
	Assets     map[string]Asset  `json:"assets"`
}

// ParseItem parses a STAC item document. Any structural problem returns an
// error wrapping ErrMalformedItem so callers can classify it as permanent.
func ParseItem(data []byte) (*Item, error) {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedItem, err)
	}
	if raw.Type != "Feature" {
		return nil, fmt.Errorf("%w: type %q is not Feature", ErrMalformedItem, raw.Type)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedItem)
	}
	if raw.Geometry == nil {
		return nil, fmt.Errorf("%w: missing geometry", ErrMalformedItem)
	}

	item := &Item{
		ID:         raw.ID,
		Collection: raw.Collection,
		Geometry:   raw.Geometry.Geometry(),
		Properties: raw.Properties,
		Assets:     raw.Assets,
	}
	if len(raw.BBox) == 4 {
		copy(item.BBox[:], raw.BBox)
		item.HasBBox = true
	}
	return item, nil
}

// Bound returns the item's spatial extent, preferring the declared bbox
// over the geometry's computed bound.
func (it *Item) Bound() orb.Bound {
	if it.HasBBox {
		return it.BBox.Bound()
	}
	return it.Geometry.Bound()
}

// Datetime returns the item's nominal timestamp, or the zero time if the
// property is absent or unparseable.
func (it *Item) Datetime() time.Time {
	return it.timeProperty("datetime")
}

// StartDatetime returns the start of the item's temporal range.
func (it *Item) StartDatetime() time.Time {
	return it.timeProperty("start_datetime")
}

// EndDatetime returns the end of the item's temporal range.
func (it *Item) EndDatetime() time.Time {
	return it.timeProperty("end_datetime")
}

func (it *Item) timeProperty(key string) time.Time {
	s, ok := it.Properties[key].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
