package models

import "time"

// Point is a position in resource (pixel) space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GCP is a ground control point: a pixel position on the scanned image
// paired with the geographic position it depicts.
//
// All external sources are mapped into this structure first; entries
// missing either half of the pair never make it this far.
type GCP struct {
	Resource Point   `json:"resource"` // pixel coords, top-down
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
}

// MaskPolygon is the clipping outline of the usable map content, in
// resource space. It is stored open: the first point is not repeated at
// the end.
type MaskPolygon []Point

// NormalizeMask strips a repeated closing point and rejects degenerate
// polygons. Returns nil when fewer than 3 distinct points remain.
func NormalizeMask(pts []Point) MaskPolygon {
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil
	}
	return MaskPolygon(pts)
}

// MapRecord is the normalized form of a single scanned map as described
// by the source platform. Immutable once fetched.
type MapRecord struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	Status       string      `json:"status"`
	GCPs         []GCP       `json:"gcps"`
	Mask         MaskPolygon `json:"mask,omitempty"`
	Description  string      `json:"description,omitempty"`
	SourceURI    string      `json:"source_uri,omitempty"`
	DateDepicted string      `json:"date_depicted,omitempty"`
	CreatedAt    time.Time   `json:"created_at,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at,omitempty"`
}

// LayerRecord is a mosaic: a named group of maps. The layer itself has
// no GCPs; its members are independent MapRecords.
type LayerRecord struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	MapIDs []string `json:"map_ids"`
}

// GeoreferencedMap is the canonical unit serialized into the target
// annotation format, singly or as part of a mosaic page. Coordinates
// here are always top-down.
type GeoreferencedMap struct {
	ImageID string      `json:"image_id"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	GCPs    []GCP       `json:"gcps"`
	Mask    MaskPolygon `json:"mask,omitempty"`
}
