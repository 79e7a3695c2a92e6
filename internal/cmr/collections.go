package cmr

import (
	"fmt"
	"strings"
	"time"
)

// Collection identifies an HLS dataset series in the CMR catalog.
type Collection string

// Supported collections.
const (
	HLSL30 Collection = "HLSL30"
	HLSS30 Collection = "HLSS30"
)

// collectionVersion is the product version shared by both HLS collections.
const collectionVersion = "v2.0"

var conceptIDs = map[Collection]string{
	HLSL30: "C2021957657-LPCLOUD",
	HLSS30: "C2021957295-LPCLOUD",
}

// Collection origin dates: the first day each collection has data.
var originDates = map[Collection]Date{
	HLSL30: {Year: 2013, Month: time.April, Day: 11},    // Landsat 8 launch
	HLSS30: {Year: 2015, Month: time.November, Day: 28}, // Sentinel-2A launch
}

// ParseCollection converts a string to a Collection.
func ParseCollection(s string) (Collection, error) {
	switch Collection(s) {
	case HLSL30, HLSS30:
		return Collection(s), nil
	}
	return "", fmt.Errorf("cmr: unknown collection %q (expected HLSL30 or HLSS30)", s)
}

// ConceptID returns the CMR concept ID used in granule search requests.
func (c Collection) ConceptID() string {
	return conceptIDs[c]
}

// ID returns the versioned collection identifier used in storage key layouts,
// e.g. "HLSL30.v2.0".
func (c Collection) ID() string {
	return fmt.Sprintf("%s.%s", string(c), collectionVersion)
}

// OriginDate returns the first day the collection has data. Months before
// the origin date have no granules and no link manifests.
func (c Collection) OriginDate() Date {
	return originDates[c]
}

func (c Collection) String() string {
	return string(c)
}

// Protocol selects the URL scheme of extracted item links.
type Protocol string

// Supported link protocols.
const (
	ProtocolHTTPS Protocol = "https"
	ProtocolS3    Protocol = "s3"
)

// ParseProtocol converts a string to a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(s) {
	case ProtocolHTTPS, ProtocolS3:
		return Protocol(s), nil
	}
	return "", fmt.Errorf("cmr: unknown protocol %q (expected https or s3)", s)
}

// Matches reports whether href uses the protocol's scheme. ProtocolHTTPS
// covers both http and https links.
func (p Protocol) Matches(href string) bool {
	if p == ProtocolS3 {
		return strings.HasPrefix(href, "s3://")
	}
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}
