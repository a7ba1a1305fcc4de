package utils

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WriteLD writes a JSON-LD response. These descriptors are rebuilt on
// every request, so clients are told not to cache them; only the mosaic
// aggregation result is cached, server side.
func WriteLD(c *gin.Context, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode failed"})
		return
	}
	WriteLDBytes(c, status, b)
}

// WriteLDBytes writes an already-serialized JSON-LD payload.
func WriteLDBytes(c *gin.Context, status int, b []byte) {
	c.Header("Cache-Control", "no-cache")
	c.Data(status, "application/ld+json", b)
}

// RequestOrigin reconstructs the serving origin (scheme://host) of the
// inbound request, honoring the usual proxy header.
func RequestOrigin(c *gin.Context) string {
	scheme := "http"
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = p
	} else if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
