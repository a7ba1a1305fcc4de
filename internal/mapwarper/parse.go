package mapwarper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
)

// flexFloat tolerates the platform's habit of serializing numbers
// either bare or as quoted strings (lat/lon in particular). Absent or
// unparseable values leave ok false.
type flexFloat struct {
	val float64
	ok  bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.val = v
	f.ok = true
	return nil
}

type mapResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Title        string    `json:"title"`
		Description  string    `json:"description"`
		Width        int       `json:"width"`
		Height       int       `json:"height"`
		Status       string    `json:"status"`
		SourceURI    string    `json:"source_uri"`
		DateDepicted string    `json:"date_depicted"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	} `json:"attributes"`
}

func (r mapResource) toRecord() *models.MapRecord {
	a := r.Attributes
	return &models.MapRecord{
		ID:           r.ID,
		Title:        a.Title,
		Width:        a.Width,
		Height:       a.Height,
		Status:       a.Status,
		Description:  a.Description,
		SourceURI:    a.SourceURI,
		DateDepicted: a.DateDepicted,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func parseMapDoc(body []byte) (*models.MapRecord, error) {
	var doc struct {
		Data mapResource `json:"data"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode map doc: %w", err)
	}
	if doc.Data.ID == "" {
		return nil, fmt.Errorf("map doc has no id")
	}
	return doc.Data.toRecord(), nil
}

func parseMapListDoc(body []byte) ([]*models.MapRecord, error) {
	var doc struct {
		Data []mapResource `json:"data"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode map list doc: %w", err)
	}
	var recs []*models.MapRecord
	for _, r := range doc.Data {
		if r.ID != "" {
			recs = append(recs, r.toRecord())
		}
	}
	return recs, nil
}

type layerDoc struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
		Relationships struct {
			Maps struct {
				Data []struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"maps"`
		} `json:"relationships"`
	} `json:"data"`
}

func parseLayerDoc(body []byte) (*models.LayerRecord, error) {
	var doc layerDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode layer doc: %w", err)
	}
	if doc.Data.ID == "" {
		return nil, fmt.Errorf("layer doc has no id")
	}
	layer := &models.LayerRecord{
		ID:   doc.Data.ID,
		Name: doc.Data.Attributes.Name,
	}
	for _, m := range doc.Data.Relationships.Maps.Data {
		if m.ID != "" {
			layer.MapIDs = append(layer.MapIDs, m.ID)
		}
	}
	return layer, nil
}

type gcpDoc struct {
	Data []struct {
		Attributes struct {
			X   flexFloat `json:"x"`
			Y   flexFloat `json:"y"`
			Lat flexFloat `json:"lat"`
			Lon flexFloat `json:"lon"`
		} `json:"attributes"`
	} `json:"data"`
}

// parseGCPDoc keeps only fully-paired control points. Partial entries
// (a pixel position without geo coordinates, or the reverse) are
// dropped.
func parseGCPDoc(body []byte) ([]models.GCP, error) {
	var doc gcpDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode gcp doc: %w", err)
	}
	var gcps []models.GCP
	for _, d := range doc.Data {
		a := d.Attributes
		if !a.X.ok || !a.Y.ok || !a.Lat.ok || !a.Lon.ok {
			continue
		}
		gcps = append(gcps, models.GCP{
			Resource: models.Point{X: a.X.val, Y: a.Y.val},
			Lon:      a.Lon.val,
			Lat:      a.Lat.val,
		})
	}
	return gcps, nil
}

// parseGMLMask pulls the polygon out of the platform's GML mask export:
// a <gml:coordinates> element holding space-separated "x,y" pairs. A
// repeated closing point is stripped. Anything that does not yield at
// least a triangle comes back nil.
func parseGMLMask(body []byte) models.MaskPolygon {
	s := string(body)
	open := strings.Index(s, "<gml:coordinates")
	if open < 0 {
		return nil
	}
	s = s[open:]
	gt := strings.IndexByte(s, '>')
	if gt < 0 {
		return nil
	}
	s = s[gt+1:]
	end := strings.Index(s, "</gml:coordinates>")
	if end < 0 {
		return nil
	}
	var pts []models.Point
	for _, pair := range strings.Fields(s[:end]) {
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
