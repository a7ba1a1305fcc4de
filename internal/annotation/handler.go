package annotation

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/compare"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/iiif"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/mapwarper"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/coords"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/utils"
)

type Handler struct {
	Maps *mapwarper.Client
}

func NewHandler(maps *mapwarper.Client) *Handler {
	return &Handler{Maps: maps}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/annotation.json", h.annotation)
	rg.POST("/:id/sync-status", h.syncStatus)
}

// fetchGeoreferenced pulls metadata, GCPs and mask for one map and
// assembles the canonical top-down unit.
func (h *Handler) fetchGeoreferenced(c *gin.Context, id string) (*models.GeoreferencedMap, error) {
	ctx := c.Request.Context()
	rec, err := h.Maps.GetMap(ctx, id)
	if err != nil {
		return nil, err
	}
	gcps, err := h.Maps.GetGCPs(ctx, id)
	if err != nil {
		return nil, err
	}
	mask, err := h.Maps.GetMask(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.GeoreferencedMap{
		ImageID: iiif.ServiceID(utils.RequestOrigin(c), id),
		Width:   rec.Width,
		Height:  rec.Height,
		GCPs:    gcps,
		Mask:    coords.FlipPolygon(mask, float64(rec.Height)),
	}, nil
}

func (h *Handler) annotation(c *gin.Context) {
	id := c.Param("id")
	m, err := h.fetchGeoreferenced(c, id)
	if err != nil {
		fail(c, id, err)
		return
	}
	if len(m.GCPs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "map " + id + " has no control points"})
		return
	}
	annoID := utils.RequestOrigin(c) + "/maps/" + id + "/annotation.json"
	utils.WriteLD(c, http.StatusOK, ForMap(*m, annoID))
}

// syncStatus compares the platform's georeferencing against an
// annotation payload posted by the caller, typically pasted from the
// other platform. Comparison never errors on data state: absence on
// either or both sides is a classification, not a failure.
func (h *Handler) syncStatus(c *gin.Context) {
	id := c.Param("id")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	source, err := h.fetchGeoreferenced(c, id)
	if err != nil {
		fail(c, id, err)
		return
	}

	var target models.GeoreferencedMap
	if parsed := Parse(body); len(parsed) > 0 {
		target = parsed[0]
	}

	st := compare.Status(source.GCPs, target.GCPs, source.Mask, target.Mask)
	c.JSON(http.StatusOK, st)
}

func fail(c *gin.Context, id string, err error) {
	if errors.Is(err, mapwarper.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "map " + id + " not found"})
		return
	}
	log.Printf("[annotation] upstream error for map %s: %v", id, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "upstream failure"})
}
