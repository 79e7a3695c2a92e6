package cmr

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Granule is one raw result record from a CMR granule search.
type Granule struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	TimeStart string     `json:"time_start"`
	TimeEnd   string     `json:"time_end"`
	Links     []Link     `json:"links"`
	Boxes     []string   `json:"boxes"`
	Polygons  [][]string `json:"polygons"`
}

// Link is one entry of a granule's link list.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// itemLinkSuffix identifies the per-granule STAC item document link.
const itemLinkSuffix = "stac.json"

// ItemLink returns the granule's STAC item document link for the requested
// protocol: the first link whose URL ends with the item document suffix and
// matches the protocol's scheme. ok is false when no link matches.
func (g *Granule) ItemLink(protocol Protocol) (url string, ok bool) {
	for _, link := range g.Links {
		if strings.HasSuffix(link.Href, itemLinkSuffix) && protocol.Matches(link.Href) {
			return link.Href, true
		}
	}
	return "", false
}

// Bound returns the granule's spatial extent, derived from its boxes or
// polygons. ok is false when the granule carries no parseable spatial
// information.
func (g *Granule) Bound() (bound orb.Bound, ok bool) {
	// CMR boxes are "south west north east".
	for _, box := range g.Boxes {
		parts := strings.Fields(box)
		if len(parts) != 4 {
			continue
		}
		coords, err := parseFloats(parts)
		if err != nil {
			continue
		}
		b := orb.Bound{
			Min: orb.Point{coords[1], coords[0]},
			Max: orb.Point{coords[3], coords[2]},
		}
		bound = extend(bound, b, ok)
		ok = true
	}

	// CMR polygons are space-separated "lat lon lat lon ..." rings.
	for _, ring := range g.Polygons {
		for _, points := range ring {
			parts := strings.Fields(points)
			if len(parts) < 2 || len(parts)%2 != 0 {
				continue
			}
			coords, err := parseFloats(parts)
			if err != nil {
				continue
			}
			for i := 0; i < len(coords); i += 2 {
				p := orb.Point{coords[i+1], coords[i]}
				b := orb.Bound{Min: p, Max: p}
				bound = extend(bound, b, ok)
				ok = true
			}
		}
	}

	return bound, ok
}

func parseFloats(parts []string) ([]float64, error) {
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func extend(acc, b orb.Bound, initialized bool) orb.Bound {
	if !initialized {
		return b
	}
	return acc.Union(b)
}
