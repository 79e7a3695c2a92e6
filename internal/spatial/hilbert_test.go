package spatial

import (
	"slices"
	"testing"
)

func TestTileFromLink(t *testing.T) {
	tests := []struct {
		link string
		tile string
		ok   bool
	}{
		{"https://x/HLS.L30.T35JPM.2024012T081153.v2.0_stac.json", "35JPM", true},
		{"s3://bucket/HLS.S30.T01CCV.2024012T081153.v2.0_stac.json", "01CCV", true},
		{"https://x/no-tile-here.json", "", false},
		{"https://x/HLS.L30.T5JPM.2024012.v2.0_stac.json", "", false}, // zone too short
	}

	for _, tt := range tests {
		tile, ok := TileFromLink(tt.link)
		if ok != tt.ok || tile != tt.tile {
			t.Errorf("TileFromLink(%q) = %q, %v; want %q, %v", tt.link, tile, ok, tt.tile, tt.ok)
		}
	}
}

func TestIndexDeterministic(t *testing.T) {
	link := "https://x/HLS.L30.T35JPM.2024012T081153.v2.0_stac.json"
	a, b := Index(link), Index(link)
	if a != b {
		t.Errorf("Index not deterministic: %d vs %d", a, b)
	}
	if a >= unmappedIndex {
		t.Errorf("mapped tile got unmapped index %d", a)
	}
}

func TestIndexUnmapped(t *testing.T) {
	if got := Index("https://x/garbage.json"); got != unmappedIndex {
		t.Errorf("expected unmapped index, got %d", got)
	}
	// Invalid zone number maps past every real cell too.
	if got := Index("https://x/HLS.L30.T99ZZZ.2024012.v2.0_stac.json"); got != unmappedIndex {
		t.Errorf("expected unmapped index for bad tile, got %d", got)
	}
}

func TestSortLinksNeighborsAdjacent(t *testing.T) {
	// Tiles in the same zone/band should sort closer to each other than
	// to a tile on the other side of the planet.
	links := []string{
		"https://x/HLS.L30.T01WAA.2024012.v2.0_stac.json", // far west, far north
		"https://x/HLS.L30.T35JPM.2024012.v2.0_stac.json",
		"https://x/HLS.L30.T35JPN.2024012.v2.0_stac.json", // same zone/band as above
	}
	SortLinks(links)

	i1 := slices.Index(links, "https://x/HLS.L30.T35JPM.2024012.v2.0_stac.json")
	i2 := slices.Index(links, "https://x/HLS.L30.T35JPN.2024012.v2.0_stac.json")
	if i1 < 0 || i2 < 0 || abs(i1-i2) != 1 {
		t.Errorf("same-tile-center links not adjacent after sort: %v", links)
	}
}

func TestSortLinksUnmappedLast(t *testing.T) {
	links := []string{
		"https://x/no-tile.json",
		"https://x/HLS.L30.T35JPM.2024012.v2.0_stac.json",
		"https://x/also-no-tile.json",
	}
	SortLinks(links)

	if links[0] != "https://x/HLS.L30.T35JPM.2024012.v2.0_stac.json" {
		t.Errorf("mapped link should sort first, got %v", links)
	}
	// Unmapped links keep deterministic lexical order at the end.
	if links[1] != "https://x/also-no-tile.json" || links[2] != "https://x/no-tile.json" {
		t.Errorf("unmapped links not in lexical order: %v", links)
	}
}

func TestSortLinksDeterministic(t *testing.T) {
	a := []string{
		"https://x/HLS.L30.T01CCV.2024012.v2.0_stac.json",
		"https://x/HLS.L30.T60WWV.2024012.v2.0_stac.json",
		"https://x/HLS.L30.T35JPM.2024012.v2.0_stac.json",
		"https://x/no-tile.json",
	}
	b := []string{a[3], a[2], a[1], a[0]}

	SortLinks(a)
	SortLinks(b)

	if !slices.Equal(a, b) {
		t.Errorf("sort depends on input order:\n%v\n%v", a, b)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
