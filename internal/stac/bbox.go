package stac

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// BBox is a geographic bounding box as (west, south, east, north).
type BBox [4]float64

// West, South, East, North return the named edges of the box.
func (b BBox) West() float64  { return b[0] }
func (b BBox) South() float64 { return b[1] }
func (b BBox) East() float64  { return b[2] }
func (b BBox) North() float64 { return b[3] }

// ParseBBox parses a comma-separated "west,south,east,north" string.
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("stac: bbox must have 4 values, got %d", len(parts))
	}
	var b BBox
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("stac: parse bbox value %q: %w", part, err)
		}
		b[i] = v
	}
	if err := b.Validate(); err != nil {
		return BBox{}, err
	}
	return b, nil
}

// Validate checks coordinate ranges and edge ordering.
func (b BBox) Validate() error {
	if b.West() < -180 || b.West() > 180 {
		return fmt.Errorf("stac: west must be between -180 and 180, got %v", b.West())
	}
	if b.East() < -180 || b.East() > 180 {
		return fmt.Errorf("stac: east must be between -180 and 180, got %v", b.East())
	}
	if b.South() < -90 || b.South() > 90 {
		return fmt.Errorf("stac: south must be between -90 and 90, got %v", b.South())
	}
	if b.North() < -90 || b.North() > 90 {
		return fmt.Errorf("stac: north must be between -90 and 90, got %v", b.North())
	}
	if b.West() >= b.East() {
		return fmt.Errorf("stac: west (%v) must be less than east (%v)", b.West(), b.East())
	}
	if b.South() >= b.North() {
		return fmt.Errorf("stac: south (%v) must be less than north (%v)", b.South(), b.North())
	}
	return nil
}

// Bound converts the box to an orb.Bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West(), b.South()},
		Max: orb.Point{b.East(), b.North()},
	}
}

// Intersects reports whether the two boxes overlap. Boxes that share only
// an edge or a corner still intersect.
func (b BBox) Intersects(other BBox) bool {
	return b.West() <= other.East() && other.West() <= b.East() &&
		b.South() <= other.North() && other.South() <= b.North()
}

// IntersectsBound reports whether the box overlaps an orb.Bound,
// inclusive of the boundary.
func (b BBox) IntersectsBound(bound orb.Bound) bool {
	return b.Intersects(BBox{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]})
}

// String formats the box as "west,south,east,north".
func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.West(), b.South(), b.East(), b.North())
}
