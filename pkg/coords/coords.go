// Package coords converts between the two pixel coordinate conventions
// used by the bridged platforms: the target annotation format counts y
// from the top edge down, the legacy tile service counts it from the
// bottom edge up. The conversion is its own inverse, so the same
// functions serve both directions.
package coords

import "github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"

// FlipY mirrors a point across the horizontal midline of an image of the
// given height. Applying it twice returns the original point.
func FlipY(p models.Point, imageHeight float64) models.Point {
	return models.Point{X: p.X, Y: imageHeight - p.Y}
}

// FlipPolygon returns a new polygon with every point flipped. The input
// is not modified.
func FlipPolygon(poly models.MaskPolygon, imageHeight float64) models.MaskPolygon {
	if poly == nil {
		return nil
	}
	out := make(models.MaskPolygon, len(poly))
	for i, p := range poly {
		out[i] = FlipY(p, imageHeight)
	}
	return out
}

// FlipBBox converts a top-down region (x, y, w, h) into the bottom-up
// (minx, miny, maxx, maxy) order the legacy tile protocol expects.
// An imageHeight of 0 means a full-frame request, which the legacy
// service already treats as origin-relative, so no flip is applied.
func FlipBBox(x, y, w, h, imageHeight float64) (minX, minY, maxX, maxY float64) {
	if imageHeight == 0 {
		return x, y, x + w, y + h
	}
	return x, imageHeight - (y + h), x + w, imageHeight - y
}
