package spatial

import (
	"regexp"
	"sort"

	"github.com/google/hilbert"
)

// hilbertOrder is the per-axis resolution of the curve (2^14 cells).
const hilbertOrder = 16384

// unmappedIndex sorts links without a usable tile after every curve
// index (the curve tops out at 2^28 - 1).
const unmappedIndex = 1 << 28

// tilePattern matches the MGRS tile component of an HLS granule name,
// e.g. ".T35JPM." in HLS.L30.T35JPM.2024012T081153.v2.0.
var tilePattern = regexp.MustCompile(`\.T([0-9]{2}[A-Z]{3})\.`)

// curve is shared by all lookups; NewHilbert only fails for a
// non-power-of-two order.
var curve, _ = hilbert.NewHilbert(hilbertOrder)

// latitude band letters, south to north, each spanning 8 degrees from
// 80S (I and O are skipped).
const bandLetters = "CDEFGHJKLMNPQRSTUVWX"

// TileFromLink extracts the MGRS tile identifier from an item link.
func TileFromLink(link string) (string, bool) {
	m := tilePattern.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// tileCenter approximates the center of an MGRS grid zone from the UTM
// zone number and latitude band. The 100km square letters are ignored;
// zone-level precision is enough for ordering.
func tileCenter(tile string) (lon, lat float64, ok bool) {
	if len(tile) != 5 {
		return 0, 0, false
	}
	zone := int(tile[0]-'0')*10 + int(tile[1]-'0')
	if zone < 1 || zone > 60 {
		return 0, 0, false
	}
	band := -1
	for i := 0; i < len(bandLetters); i++ {
		if bandLetters[i] == tile[2] {
			band = i
			break
		}
	}
	if band < 0 {
		return 0, 0, false
	}

	lon = float64(zone-1)*6 - 180 + 3
	lat = float64(band)*8 - 80 + 4
	return lon, lat, true
}

// Index returns the Hilbert curve index for an item link. Links without
// a recognizable tile map to unmappedIndex, past every real cell.
func Index(link string) int {
	tile, ok := TileFromLink(link)
	if !ok {
		return unmappedIndex
	}
	lon, lat, ok := tileCenter(tile)
	if !ok {
		return unmappedIndex
	}

	x := int((lon + 180) / 360 * hilbertOrder)
	y := int((lat + 90) / 180 * hilbertOrder)
	if x >= hilbertOrder {
		x = hilbertOrder - 1
	}
	if y >= hilbertOrder {
		y = hilbertOrder - 1
	}

	d, err := curve.MapInverse(x, y)
	if err != nil {
		return unmappedIndex
	}
	return d
}

// SortLinks orders links by Hilbert index, breaking ties on the link
// string. The input slice is sorted in place.
func SortLinks(links []string) {
	indexes := make(map[string]int, len(links))
	for _, link := range links {
		if _, seen := indexes[link]; !seen {
			indexes[link] = Index(link)
		}
	}
	sort.SliceStable(links, func(i, j int) bool {
		a, b := indexes[links[i]], indexes[links[j]]
		if a != b {
			return a < b
		}
		return links[i] < links[j]
	})
}
