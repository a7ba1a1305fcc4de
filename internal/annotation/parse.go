package annotation

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
)

// Parse normalizes an annotation payload into the internal model. Three
// shapes are accepted: a bare array of annotations, an annotation page
// with items, and a single annotation object. Anything unrecognized
// yields an empty slice, never an error: an unreadable payload means
// "no georeferencing here", the same as an empty one.
func Parse(raw []byte) []models.GeoreferencedMap {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return parseItems(arr)
	}

	var env struct {
		Type  string            `json:"type"`
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	switch env.Type {
	case "AnnotationPage":
		return parseItems(env.Items)
	case "Annotation":
		if m, ok := parseAnnotation(raw); ok {
			return []models.GeoreferencedMap{m}
		}
	}
	return nil
}

func parseItems(items []json.RawMessage) []models.GeoreferencedMap {
	var out []models.GeoreferencedMap
	for _, it := range items {
		if m, ok := parseAnnotation(it); ok {
			out = append(out, m)
		}
	}
	return out
}

func parseAnnotation(raw []byte) (models.GeoreferencedMap, bool) {
	var a Annotation
	if err := json.Unmarshal(raw, &a); err != nil {
		return models.GeoreferencedMap{}, false
	}
	if a.Motivation != "georeferencing" && a.Type != "Annotation" {
		return models.GeoreferencedMap{}, false
	}
	m := models.GeoreferencedMap{
		ImageID: a.Target.Source.ID,
		Width:   a.Target.Source.Width,
		Height:  a.Target.Source.Height,
	}
	for _, f := range a.Body.Features {
		m.GCPs = append(m.GCPs, models.GCP{
			Resource: models.Point{X: f.Properties.ResourceCoords[0], Y: f.Properties.ResourceCoords[1]},
			Lon:      f.Geometry.Coordinates[0],
			Lat:      f.Geometry.Coordinates[1],
		})
	}
	if a.Target.Selector != nil && a.Target.Selector.Type == "SvgSelector" {
		m.Mask = parseSVGPolygon(a.Target.Selector.Value)
	}
	if len(m.GCPs) == 0 && m.Mask == nil {
		return models.GeoreferencedMap{}, false
	}
	return m, true
}

// parseSVGPolygon pulls the points attribute out of an SvgSelector
// value. Only the polygon outline matters; the rest of the SVG wrapper
// is ignored.
func parseSVGPolygon(svg string) models.MaskPolygon {
	i := strings.Index(svg, "points=")
	if i < 0 {
		return nil
	}
	s := svg[i+len("points="):]
	if s == "" || (s[0] != '"' && s[0] != '\'') {
		return nil
	}
	quote := s[0]
	end := strings.IndexByte(s[1:], quote)
	if end < 0 {
		return nil
	}
	var pts []models.Point
	for _, pair := range strings.Fields(s[1 : 1+end]) {
		xy := strings.Split(pair, ",")
		if len(xy) != 2 {
			continue
		}
		x, errX := strconv.ParseFloat(xy[0], 64)
		y, errY := strconv.ParseFloat(xy[1], 64)
		if errX != nil || errY != nil {
			continue
		}
		pts = append(pts, models.Point{X: x, Y: y})
	}
	return models.NormalizeMask(pts)
}
