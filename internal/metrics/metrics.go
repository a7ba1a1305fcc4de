package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapbridge_upstream_requests_total",
		Help: "Total requests to the mapwarper API, by resource kind",
	}, []string{"kind"})
	UpstreamFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapbridge_upstream_fail_total",
		Help: "Total failed mapwarper requests, by resource kind",
	}, []string{"kind"})
	UpstreamDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapbridge_upstream_duration_ms",
		Help:    "Mapwarper request duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
	})
	TileRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapbridge_tile_requests_total",
		Help: "Total translated tile requests proxied to the legacy service",
	})
	MosaicCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapbridge_mosaic_cache_hits_total",
		Help: "Total mosaic annotation cache hits",
	})
	MosaicCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapbridge_mosaic_cache_misses_total",
		Help: "Total mosaic annotation cache misses (including refresh bypasses)",
	})
	MosaicMapsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapbridge_mosaic_maps_skipped_total",
		Help: "Total member maps skipped during aggregation (fetch failed or no GCPs)",
	})
)

func init() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
		UpstreamFailTotal,
		UpstreamDurationMs,
		TileRequestsTotal,
		MosaicCacheHitsTotal,
		MosaicCacheMissesTotal,
		MosaicMapsSkippedTotal,
	)
}

// Handler exposes the prometheus registry for mounting on the router.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
