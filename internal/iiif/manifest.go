package iiif

import (
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
)

// Presentation-manifest types. Deliberately minimal: one canvas per
// map, enough metadata for the viewer's info panel.

type LangMap map[string][]string

func label(s string) LangMap {
	return LangMap{"en": {s}}
}

type MetadataEntry struct {
	Label LangMap `json:"label"`
	Value LangMap `json:"value"`
}

type PaintingBody struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Format  string         `json:"format"`
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	Service []imageService `json:"service"`
}

type imageService struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Profile string `json:"profile"`
}

type PaintingAnnotation struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Motivation string       `json:"motivation"`
	Body       PaintingBody `json:"body"`
	Target     string       `json:"target"`
}

type CanvasPage struct {
	ID    string               `json:"id"`
	Type  string               `json:"type"`
	Items []PaintingAnnotation `json:"items"`
}

type Canvas struct {
	ID     string       `json:"id"`
	Type   string       `json:"type"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Items  []CanvasPage `json:"items"`
}

type Manifest struct {
	Context  string          `json:"@context"`
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Label    LangMap         `json:"label"`
	Metadata []MetadataEntry `json:"metadata,omitempty"`
	Items    []Canvas        `json:"items"`
}

func newCanvas(origin string, rec *models.MapRecord) Canvas {
	svc := ServiceID(origin, rec.ID)
	canvasID := svc + "/canvas"
	return Canvas{
		ID:     canvasID,
		Type:   "Canvas",
		Width:  rec.Width,
		Height: rec.Height,
		Items: []CanvasPage{{
			ID:   canvasID + "/page",
			Type: "AnnotationPage",
			Items: []PaintingAnnotation{{
				ID:         canvasID + "/page/painting",
				Type:       "Annotation",
				Motivation: "painting",
				Body: PaintingBody{
					ID:     svc + "/full/max/0/default.png",
					Type:   "Image",
					Format: "image/png",
					Width:  rec.Width,
					Height: rec.Height,
					Service: []imageService{{
						ID:      svc,
						Type:    "ImageService3",
						Profile: "level1",
					}},
				},
				Target: canvasID,
			}},
		}},
	}
}

func mapMetadata(rec *models.MapRecord) []MetadataEntry {
	var md []MetadataEntry
	if rec.Description != "" {
		md = append(md, MetadataEntry{Label: label("Description"), Value: label(rec.Description)})
	}
	if rec.DateDepicted != "" {
		md = append(md, MetadataEntry{Label: label("Date depicted"), Value: label(rec.DateDepicted)})
	}
	if rec.SourceURI != "" {
		md = append(md, MetadataEntry{Label: label("Source"), Value: label(rec.SourceURI)})
	}
	if !rec.CreatedAt.IsZero() {
		md = append(md, MetadataEntry{Label: label("Created"), Value: label(rec.CreatedAt.Format("2006-01-02"))})
	}
	if !rec.UpdatedAt.IsZero() {
		md = append(md, MetadataEntry{Label: label("Updated"), Value: label(rec.UpdatedAt.Format("2006-01-02"))})
	}
	return md
}

// NewManifest builds the single-map presentation manifest.
func NewManifest(origin string, rec *models.MapRecord) Manifest {
	title := rec.Title
	if title == "" {
		title = "Map " + rec.ID
	}
	return Manifest{
		Context:  "http://iiif.io/api/presentation/3/context.json",
		ID:       ServiceID(origin, rec.ID) + "/manifest.json",
		Type:     "Manifest",
		Label:    label(title),
		Metadata: mapMetadata(rec),
		Items:    []Canvas{newCanvas(origin, rec)},
	}
}

// NewMosaicManifest builds the collection-level manifest, one canvas
// per member map that could be fetched.
func NewMosaicManifest(origin string, layer *models.LayerRecord, recs []*models.MapRecord) Manifest {
	name := layer.Name
	if name == "" {
		name = "Mosaic " + layer.ID
	}
	m := Manifest{
		Context: "http://iiif.io/api/presentation/3/context.json",
		ID:      origin + "/mosaic/" + layer.ID + "/manifest.json",
		Type:    "Manifest",
		Label:   label(name),
	}
	for _, rec := range recs {
		m.Items = append(m.Items, newCanvas(origin, rec))
	}
	return m
}
