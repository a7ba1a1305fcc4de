package iiif

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/mapwarper"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/coords"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/utils"
)

type Handler struct {
	Maps *mapwarper.Client
}

func NewHandler(maps *mapwarper.Client) *Handler {
	return &Handler{Maps: maps}
}

// RegisterRoutes mounts the image API under the /maps group. The
// single-segment route carries the descriptor name or, for tile
// requests, the region; router wildcards at the same position must
// share a name, so both routes call it :resource.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/iiif/:resource", h.descriptor)
	rg.GET("/:id/iiif/:resource/:size/:rotation/:file", h.tile)
}

func (h *Handler) descriptor(c *gin.Context) {
	switch c.Param("resource") {
	case "info.json":
		h.info(c)
	case "manifest.json":
		h.manifest(c)
	case "mask.json":
		h.mask(c)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown resource"})
	}
}

func (h *Handler) info(c *gin.Context) {
	id := c.Param("id")
	rec, err := h.Maps.GetMap(c.Request.Context(), id)
	if err != nil {
		fail(c, id, err)
		return
	}
	utils.WriteLD(c, http.StatusOK, NewImageInfo(utils.RequestOrigin(c), rec))
}

func (h *Handler) manifest(c *gin.Context) {
	id := c.Param("id")
	rec, err := h.Maps.GetMap(c.Request.Context(), id)
	if err != nil {
		fail(c, id, err)
		return
	}
	utils.WriteLD(c, http.StatusOK, NewManifest(utils.RequestOrigin(c), rec))
}

func (h *Handler) mask(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	rec, err := h.Maps.GetMap(ctx, id)
	if err != nil {
		fail(c, id, err)
		return
	}
	mask, err := h.Maps.GetMask(ctx, id)
	if err != nil {
		fail(c, id, err)
		return
	}
	if mask == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no mask for map " + id})
		return
	}
	// mask arrives bottom-up; the annotation side of the bridge is
	// top-down
	flipped := coords.FlipPolygon(mask, float64(rec.Height))
	out := make([][]float64, len(flipped))
	for i, p := range flipped {
		out[i] = []float64{p.X, p.Y}
	}
	utils.WriteLD(c, http.StatusOK, gin.H{"coords": out})
}

// tile translates one region/size/rotation/quality.format request into
// a legacy WMS request and proxies the image back.
func (h *Handler) tile(c *gin.Context) {
	id := c.Param("id")

	_, mime, err := SplitQualityFormat(c.Param("file"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.Maps.GetMap(c.Request.Context(), id)
	if err != nil {
		fail(c, id, err)
		return
	}

	// the rotation segment is accepted for grammar compatibility but
	// not applied; the legacy backend cannot rotate
	region := ParseRegion(c.Param("resource"), rec.Width, rec.Height)
	size := ParseSize(c.Param("size"), region)

	imageHeight := float64(rec.Height)
	if region.Full {
		imageHeight = 0
	}
	tileURL := h.Maps.BuildTileRequestURL(
		id,
		float64(region.X), float64(region.Y),
		float64(region.Width), float64(region.Height),
		size.Width, size.Height,
		mime,
		imageHeight,
	)

	body, contentType, err := h.Maps.FetchTile(c.Request.Context(), tileURL)
	if err != nil {
		fail(c, id, err)
		return
	}
	if contentType == "" {
		contentType = mime
	}
	c.Data(http.StatusOK, contentType, body)
}

func fail(c *gin.Context, id string, err error) {
	if errors.Is(err, mapwarper.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "map " + id + " not found"})
		return
	}
	log.Printf("[iiif] upstream error for map %s: %v", id, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "upstream failure"})
}
