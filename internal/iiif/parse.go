// Package iiif implements the standardized tiled-image addressing
// grammar (region/size/rotation/quality.format) on top of the legacy
// tile service, plus the image-service and presentation descriptors
// consumers use to discover it.
package iiif

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Region is a pixel rectangle of the source image, top-down.
type Region struct {
	X, Y          int
	Width, Height int
	// Full marks a whole-image request, which the legacy service
	// addresses origin-relative (no vertical flip).
	Full bool
}

// Size is the requested output raster size.
type Size struct {
	Width, Height int
}

// num parses a number permissively: anything unparseable is 0. The
// grammar consumers send is frequently sloppy and the legacy backend
// tolerates it, so malformed values degrade instead of erroring.
func num(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func round(v float64) int {
	return int(math.Round(v))
}

// ParseRegion resolves a region path segment against the image size.
func ParseRegion(s string, imgW, imgH int) Region {
	switch {
	case s == "full":
		return Region{X: 0, Y: 0, Width: imgW, Height: imgH, Full: true}
	case s == "square":
		side := imgW
		if imgH < side {
			side = imgH
		}
		return Region{
			X:     (imgW - side) / 2,
			Y:     (imgH - side) / 2,
			Width: side, Height: side,
		}
	case strings.HasPrefix(s, "pct:"):
		parts := strings.Split(strings.TrimPrefix(s, "pct:"), ",")
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		// percentages round to whole pixels before any further math
		return Region{
			X:      round(float64(imgW) * num(parts[0]) / 100),
			Y:      round(float64(imgH) * num(parts[1]) / 100),
			Width:  round(float64(imgW) * num(parts[2]) / 100),
			Height: round(float64(imgH) * num(parts[3]) / 100),
		}
	default:
		parts := strings.Split(s, ",")
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		return Region{
			X:      round(num(parts[0])),
			Y:      round(num(parts[1])),
			Width:  round(num(parts[2])),
			Height: round(num(parts[3])),
		}
	}
}

// ParseSize resolves a size path segment against the already-resolved
// region. A leading ^ (upscaling allowed) is accepted and ignored: this
// layer never enforces a no-upscale rule, so the flag changes nothing.
func ParseSize(s string, region Region) Size {
	s = strings.TrimPrefix(s, "^")

	switch {
	case s == "max" || s == "full" || s == "":
		return Size{Width: region.Width, Height: region.Height}
	case strings.HasPrefix(s, "pct:"):
		pct := num(strings.TrimPrefix(s, "pct:"))
		return Size{
			Width:  round(float64(region.Width) * pct / 100),
			Height: round(float64(region.Height) * pct / 100),
		}
	case strings.HasPrefix(s, "!"):
		parts := strings.SplitN(strings.TrimPrefix(s, "!"), ",", 2)
		if len(parts) < 2 {
			parts = append(parts, "")
		}
		maxW, maxH := num(parts[0]), num(parts[1])
		if maxW <= 0 || maxH <= 0 || region.Width <= 0 || region.Height <= 0 {
			return Size{Width: region.Width, Height: region.Height}
		}
		regionRatio := float64(region.Width) / float64(region.Height)
		boxRatio := maxW / maxH
		if regionRatio > boxRatio {
			// region wider than the target box: width binds
			return Size{
				Width:  round(maxW),
				Height: round(maxW * float64(region.Height) / float64(region.Width)),
			}
		}
		return Size{
			Width:  round(maxH * float64(region.Width) / float64(region.Height)),
			Height: round(maxH),
		}
	default:
		parts := strings.SplitN(s, ",", 2)
		if len(parts) < 2 {
			parts = append(parts, "")
		}
		w, h := num(parts[0]), num(parts[1])
		switch {
		case w > 0 && h > 0:
			return Size{Width: round(w), Height: round(h)}
		case w > 0:
			if region.Width > 0 {
				return Size{Width: round(w), Height: round(w * float64(region.Height) / float64(region.Width))}
			}
			return Size{Width: round(w)}
		case h > 0:
			if region.Height > 0 {
				return Size{Width: round(h * float64(region.Width) / float64(region.Height)), Height: round(h)}
			}
			return Size{Height: round(h)}
		default:
			// neither dimension given: fall back to the region's own size
			return Size{Width: region.Width, Height: region.Height}
		}
	}
}

var formatMIME = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
}

// SplitQualityFormat splits the final "quality.format" path segment.
// A missing dot is the one hard client error in the whole grammar;
// an unknown extension falls back to image/png, which the legacy
// backend accepts.
func SplitQualityFormat(s string) (quality, mime string, err error) {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		return "", "", fmt.Errorf("missing format suffix in %q", s)
	}
	quality = s[:dot]
	ext := strings.ToLower(s[dot+1:])
	mime, ok := formatMIME[ext]
	if !ok {
		mime = "image/png"
	}
	return quality, mime, nil
}
