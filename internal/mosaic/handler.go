package mosaic

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/iiif"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/mapwarper"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/utils"
)

type Handler struct {
	Agg *Aggregator
}

func NewHandler(agg *Aggregator) *Handler {
	return &Handler{Agg: agg}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/manifest.json", h.manifest)
	rg.GET("/:id/annotation.json", h.annotation)
}

func (h *Handler) annotation(c *gin.Context) {
	id := c.Param("id")
	// presence-only flag, the value is ignored
	_, refresh := c.GetQuery("refresh")

	payload, err := h.Agg.CombinedAnnotation(c.Request.Context(), id, utils.RequestOrigin(c), refresh)
	if err != nil {
		fail(c, id, err)
		return
	}
	utils.WriteLDBytes(c, http.StatusOK, payload)
}

func (h *Handler) manifest(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	layer, err := h.Agg.Source.GetLayer(ctx, id)
	if err != nil {
		fail(c, id, err)
		return
	}

	var recs []*models.MapRecord
	for _, mapID := range layer.MapIDs {
		rec, err := h.Agg.Source.GetMap(ctx, mapID)
		if err != nil {
			log.Printf("[mosaic] manifest for %s skipping map %s: %v", id, mapID, err)
			continue
		}
		recs = append(recs, rec)
	}
	utils.WriteLD(c, http.StatusOK, iiif.NewMosaicManifest(utils.RequestOrigin(c), layer, recs))
}

func fail(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, mapwarper.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "mosaic " + id + " not found"})
	case errors.Is(err, ErrNothingGeoreferenced):
		c.JSON(http.StatusNotFound, gin.H{"error": "mosaic " + id + " has no georeferenced maps"})
	default:
		log.Printf("[mosaic] upstream error for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upstream failure"})
	}
}
