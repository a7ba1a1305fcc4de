package annotation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
)

func sampleMap() models.GeoreferencedMap {
	return models.GeoreferencedMap{
		ImageID: "https://bridge.example.org/maps/123/iiif",
		Width:   4000,
		Height:  3000,
		GCPs: []models.GCP{
			{Resource: models.Point{X: 100, Y: 200}, Lon: 72.82, Lat: 18.95},
			{Resource: models.Point{X: 1500, Y: 900}, Lon: 72.86, Lat: 18.99},
		},
		Mask: models.MaskPolygon{{X: 10, Y: 20}, {X: 400, Y: 20}, {X: 400, Y: 600}},
	}
}

func TestForMap(t *testing.T) {
	a := ForMap(sampleMap(), "https://bridge.example.org/maps/123/annotation.json")

	assert.Equal(t, "Annotation", a.Type)
	assert.Equal(t, "georeferencing", a.Motivation)
	assert.Equal(t, "SpecificResource", a.Target.Type)
	assert.Equal(t, 4000, a.Target.Source.Width)
	require.NotNil(t, a.Target.Selector)
	assert.Contains(t, a.Target.Selector.Value, `points="10,20 400,20 400,600"`)

	require.Len(t, a.Body.Features, 2)
	assert.Equal(t, [2]float64{100, 200}, a.Body.Features[0].Properties.ResourceCoords)
	assert.Equal(t, [2]float64{72.82, 18.95}, a.Body.Features[0].Geometry.Coordinates)
}

func TestForMapNoMask(t *testing.T) {
	m := sampleMap()
	m.Mask = nil
	a := ForMap(m, "x")
	assert.Nil(t, a.Target.Selector)
}

func TestParseSingleAnnotation(t *testing.T) {
	raw, err := json.Marshal(ForMap(sampleMap(), "x"))
	require.NoError(t, err)

	maps := Parse(raw)
	require.Len(t, maps, 1)
	got := maps[0]
	assert.Equal(t, "https://bridge.example.org/maps/123/iiif", got.ImageID)
	assert.Equal(t, sampleMap().GCPs, got.GCPs)
	assert.Equal(t, sampleMap().Mask, got.Mask)
}

func TestParseAnnotationPage(t *testing.T) {
	page := NewPage([]models.GeoreferencedMap{sampleMap(), sampleMap()}, "https://bridge.example.org/mosaic/77/annotation.json")
	raw, err := json.Marshal(page)
	require.NoError(t, err)

	maps := Parse(raw)
	assert.Len(t, maps, 2)
}

func TestParseBareArray(t *testing.T) {
	a := ForMap(sampleMap(), "x")
	raw, err := json.Marshal([]Annotation{a})
	require.NoError(t, err)

	maps := Parse(raw)
	assert.Len(t, maps, 1)
}

func TestParseUnrecognizedShapes(t *testing.T) {
	assert.Empty(t, Parse([]byte(`{"type":"Manifest","items":[]}`)))
	assert.Empty(t, Parse([]byte(`{"hello":"world"}`)))
	assert.Empty(t, Parse([]byte(`not json at all`)))
	assert.Empty(t, Parse([]byte(`[]`)))
}

func TestParseClosedMaskNormalized(t *testing.T) {
	raw := []byte(`{
		"type": "Annotation",
		"motivation": "georeferencing",
		"target": {
			"type": "SpecificResource",
			"source": {"id": "img", "type": "ImageService3", "width": 100, "height": 100},
			"selector": {"type": "SvgSelector",
				"value": "<svg><polygon points=\"0,0 50,0 50,50 0,50 0,0\" /></svg>"}
		},
		"body": {"type": "FeatureCollection", "features": [
			{"type":"Feature","properties":{"resourceCoords":[1,2]},
			 "geometry":{"type":"Point","coordinates":[10,20]}}]}
	}`)
	maps := Parse(raw)
	require.Len(t, maps, 1)
	assert.Equal(t, models.MaskPolygon{{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 50}, {X: 0, Y: 50}}, maps[0].Mask)
}
