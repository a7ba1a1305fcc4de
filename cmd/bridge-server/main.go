package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/annotation"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/iiif"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/mapwarper"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/metrics"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/mosaic"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/database"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/utils"
)

func main() {
	cfg := utils.LoadConfig()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("cache migrate failed: %v", err)
	}

	client := mapwarper.NewClient(cfg.MapwarperURL)
	cache := mosaic.NewCache(db, cfg.CacheTTL)
	agg := mosaic.NewAggregator(client, cache, cfg.FetchWorkers)

	router := gin.Default()
	_ = router.SetTrustedProxies(nil)
	router.Use(cors(), requestID())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "upstream": cfg.MapwarperURL})
	})
	router.GET("/metrics", metrics.Handler())

	maps := router.Group("/maps")
	iiif.NewHandler(client).RegisterRoutes(maps)
	annotation.NewHandler(client).RegisterRoutes(maps)
	mosaic.NewHandler(agg).RegisterRoutes(router.Group("/mosaic"))

	httpSrv := &http.Server{
		Addr:    cfg.Listen,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("bridge server listening on %s (upstream %s)", cfg.Listen, cfg.MapwarperURL)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// cors keeps every surface readable from the annotation platform's
// browser clients.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Request-Id", uuid.NewString())
		c.Next()
	}
}
