// Package spatial orders item links along a Hilbert curve.
//
// Links carry an MGRS tile identifier in their file name. The tile's
// approximate center is mapped onto a 16384x16384 Hilbert curve and the
// resulting index used as a sort key, so spatially adjacent tiles land
// near each other in the output. Links without a recognizable tile sort
// to the end. The ordering is deterministic: ties break on the link
// string itself.
package spatial
