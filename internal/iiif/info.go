package iiif

import (
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
)

type TileSpec struct {
	Width        int   `json:"width"`
	Height       int   `json:"height"`
	ScaleFactors []int `json:"scaleFactors"`
}

type SizeSpec struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageInfo is the image-service descriptor consumers fetch before
// issuing tile requests.
type ImageInfo struct {
	Context  string     `json:"@context"`
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Protocol string     `json:"protocol"`
	Profile  string     `json:"profile"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Tiles    []TileSpec `json:"tiles"`
	Sizes    []SizeSpec `json:"sizes"`
}

// ServiceID is the base of all image requests for one map.
func ServiceID(origin, mapID string) string {
	return origin + "/maps/" + mapID + "/iiif"
}

func NewImageInfo(origin string, rec *models.MapRecord) ImageInfo {
	info := ImageInfo{
		Context:  "http://iiif.io/api/image/3/context.json",
		ID:       ServiceID(origin, rec.ID),
		Type:     "ImageService3",
		Protocol: "http://iiif.io/api/image",
		Profile:  "level1",
		Width:    rec.Width,
		Height:   rec.Height,
		Tiles: []TileSpec{
			{Width: 512, Height: 512, ScaleFactors: []int{1, 2, 4, 8, 16, 32}},
		},
	}
	// advertised downscales: halve until either side drops to 100
	for w, h := rec.Width, rec.Height; w > 100 && h > 100; w, h = w/2, h/2 {
		info.Sizes = append(info.Sizes, SizeSpec{Width: w, Height: h})
	}
	return info
}
