// Package compare decides whether two independently-sourced
// georeferencing descriptions of the same map agree. The two platforms
// share no control point identifiers, so points are paired by a
// deterministic sort instead; see Status.
package compare

import (
	"fmt"
	"math"
	"sort"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
)

const (
	// PixelTolerance is how far paired pixel coordinates may drift, in
	// the resource's native pixel grid.
	PixelTolerance = 1.0
	// GeoTolerance is the single geographic tolerance used everywhere:
	// 1e-4 degrees, roughly 11 m at the equator. Scanned-map GCPs set
	// in two different tools rarely agree tighter than that.
	GeoTolerance = 1e-4
)

// Status classifies the relationship between the source platform's
// georeferencing and a target-side annotation. Masks must already be in
// the same (top-down) coordinate system; the caller applies the
// coordinate bridge to the source mask before comparing.
//
// Pairing sorts each GCP set by resource x, then y. That assumes no two
// points share (or nearly share) an x coordinate in a way that would
// sort the sides differently; without shared identifiers it is the best
// available order.
func Status(sourceGCPs, targetGCPs []models.GCP, sourceMask, targetMask models.MaskPolygon) models.SyncStatus {
	switch {
	case len(sourceGCPs) == 0 && len(targetGCPs) == 0:
		return models.SyncStatus{State: models.SyncNone}
	case len(targetGCPs) == 0:
		return models.SyncStatus{State: models.SyncSourceOnly}
	case len(sourceGCPs) == 0:
		return models.SyncStatus{State: models.SyncTargetOnly}
	}

	if len(sourceGCPs) != len(targetGCPs) {
		// no point comparing pairs that cannot line up
		return models.SyncStatus{
			State: models.SyncMismatch,
			Differences: []string{fmt.Sprintf(
				"control point count differs: source has %d, target has %d",
				len(sourceGCPs), len(targetGCPs))},
		}
	}

	var diffs []string

	src := sortedGCPs(sourceGCPs)
	tgt := sortedGCPs(targetGCPs)
	for i := range src {
		s, g := src[i], tgt[i]
		if math.Abs(s.Resource.X-g.Resource.X) > PixelTolerance ||
			math.Abs(s.Resource.Y-g.Resource.Y) > PixelTolerance {
			diffs = append(diffs, fmt.Sprintf(
				"control point %d pixel position differs: source (%g, %g), target (%g, %g)",
				i+1, s.Resource.X, s.Resource.Y, g.Resource.X, g.Resource.Y))
		}
		if math.Abs(s.Lon-g.Lon) > GeoTolerance || math.Abs(s.Lat-g.Lat) > GeoTolerance {
			diffs = append(diffs, fmt.Sprintf(
				"control point %d geographic position differs: source (%g, %g), target (%g, %g)",
				i+1, s.Lon, s.Lat, g.Lon, g.Lat))
		}
	}

	diffs = append(diffs, maskDiffs(sourceMask, targetMask)...)

	if len(diffs) > 0 {
		return models.SyncStatus{State: models.SyncMismatch, Differences: diffs}
	}
	return models.SyncStatus{State: models.SyncMatch}
}

// maskDiffs compares the clipping polygons. A mask on exactly one side
// is reported as a difference: absence means "not clipped yet", which
// is a real editorial state, not an implicit full-image outline.
func maskDiffs(source, target models.MaskPolygon) []string {
	switch {
	case source == nil && target == nil:
		return nil
	case target == nil:
		return []string{"mask only in source"}
	case source == nil:
		return []string{"mask only in target"}
	}

	if len(source) != len(target) {
		return []string{fmt.Sprintf(
			"mask point count differs: source has %d, target has %d",
			len(source), len(target))}
	}

	var diffs []string
	src := sortedPoints(source)
	tgt := sortedPoints(target)
	for i := range src {
		if math.Abs(src[i].X-tgt[i].X) > PixelTolerance ||
			math.Abs(src[i].Y-tgt[i].Y) > PixelTolerance {
			diffs = append(diffs, fmt.Sprintf(
				"mask point %d differs: source (%g, %g), target (%g, %g)",
				i+1, src[i].X, src[i].Y, tgt[i].X, tgt[i].Y))
		}
	}
	return diffs
}

func sortedGCPs(gcps []models.GCP) []models.GCP {
	out := make([]models.GCP, len(gcps))
	copy(out, gcps)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resource.X != out[j].Resource.X {
			return out[i].Resource.X < out[j].Resource.X
		}
		return out[i].Resource.Y < out[j].Resource.Y
	})
	return out
}

func sortedPoints(pts models.MaskPolygon) []models.Point {
	out := make([]models.Point, len(pts))
	copy(out, pts)
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}
