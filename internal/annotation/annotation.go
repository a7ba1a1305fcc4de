// Package annotation serializes georeferencing data into the target
// platform's JSON-LD georeference annotation format, and normalizes the
// several payload shapes that format arrives in back into the internal
// model.
package annotation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
)

const (
	annoContext   = "http://www.w3.org/ns/anno.jsonld"
	georefContext = "http://iiif.io/api/extension/georef/1/context.json"
)

type Feature struct {
	Type       string `json:"type"`
	Properties struct {
		ResourceCoords [2]float64 `json:"resourceCoords"`
	} `json:"properties"`
	Geometry struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	} `json:"geometry"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Source struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type SvgSelector struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Target struct {
	Type     string       `json:"type"`
	Source   Source       `json:"source"`
	Selector *SvgSelector `json:"selector,omitempty"`
}

type Annotation struct {
	Context    []string          `json:"@context"`
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Motivation string            `json:"motivation"`
	Target     Target            `json:"target"`
	Body       FeatureCollection `json:"body"`
}

type Page struct {
	Context string       `json:"@context"`
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Items   []Annotation `json:"items"`
}

// ForMap serializes one georeferenced map as a standalone annotation.
// Coordinates are expected top-down.
func ForMap(m models.GeoreferencedMap, annotationID string) Annotation {
	a := Annotation{
		Context:    []string{georefContext, annoContext},
		ID:         annotationID,
		Type:       "Annotation",
		Motivation: "georeferencing",
		Target: Target{
			Type: "SpecificResource",
			Source: Source{
				ID:     m.ImageID,
				Type:   "ImageService3",
				Width:  m.Width,
				Height: m.Height,
			},
		},
		Body: FeatureCollection{Type: "FeatureCollection"},
	}
	if m.Mask != nil {
		a.Target.Selector = &SvgSelector{
			Type:  "SvgSelector",
			Value: maskSVG(m),
		}
	}
	for _, g := range m.GCPs {
		var f Feature
		f.Type = "Feature"
		f.Properties.ResourceCoords = [2]float64{g.Resource.X, g.Resource.Y}
		f.Geometry.Type = "Point"
		f.Geometry.Coordinates = [2]float64{g.Lon, g.Lat}
		a.Body.Features = append(a.Body.Features, f)
	}
	return a
}

// NewPage wraps a set of georeferenced maps into one annotation page,
// the combined form served for mosaics.
func NewPage(maps []models.GeoreferencedMap, pageID string) Page {
	p := Page{
		Context: annoContext,
		ID:      pageID,
		Type:    "AnnotationPage",
	}
	for _, m := range maps {
		p.Items = append(p.Items, ForMap(m, m.ImageID+"/georef-annotation"))
	}
	return p
}

func maskSVG(m models.GeoreferencedMap) string {
	var pts []string
	for _, p := range m.Mask {
		pts = append(pts, fmtNum(p.X)+","+fmtNum(p.Y))
	}
	return fmt.Sprintf(`<svg width="%d" height="%d"><polygon points=%q /></svg>`,
		m.Width, m.Height, strings.Join(pts, " "))
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
