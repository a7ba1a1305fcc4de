// Package mosaic combines the georeferencing of every member map of a
// collection into one annotation page, backed by a TTL cache.
package mosaic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/annotation"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/iiif"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/metrics"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/coords"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
)

// ErrNothingGeoreferenced means every member map was either not yet
// georeferenced or unfetchable. A legitimate data state, not a fetch
// failure: handlers report it as 404.
var ErrNothingGeoreferenced = errors.New("mosaic: no georeferenced maps in collection")

// MapSource is the slice of the platform client the aggregator needs.
// Satisfied by *mapwarper.Client.
type MapSource interface {
	GetMap(ctx context.Context, id string) (*models.MapRecord, error)
	GetLayer(ctx context.Context, id string) (*models.LayerRecord, error)
	GetGCPs(ctx context.Context, id string) ([]models.GCP, error)
	GetMask(ctx context.Context, id string) (models.MaskPolygon, error)
}

// cacheVariant records which platform the cached aggregation was built
// from. There is currently one source of truth, but the key carries it
// so differently-sourced aggregations can never collide.
const cacheVariant = "mapwarper"

type Aggregator struct {
	Source  MapSource
	Cache   *Cache
	Workers int
}

func NewAggregator(source MapSource, cache *Cache, workers int) *Aggregator {
	if workers <= 0 {
		workers = 5
	}
	return &Aggregator{Source: source, Cache: cache, Workers: workers}
}

// CombinedAnnotation returns the serialized annotation page for a
// collection. Cache hits within the TTL are returned as-is unless the
// caller asks for a refresh. The empty outcome is cached too, so a
// collection with nothing georeferenced does not trigger a fan-out on
// every request.
func (a *Aggregator) CombinedAnnotation(ctx context.Context, layerID, origin string, refresh bool) ([]byte, error) {
	if !refresh {
		if payload, ok := a.Cache.Get(ctx, layerID, origin, cacheVariant); ok {
			metrics.MosaicCacheHitsTotal.Inc()
			if len(payload) == 0 {
				return nil, ErrNothingGeoreferenced
			}
			return payload, nil
		}
	}
	metrics.MosaicCacheMissesTotal.Inc()

	layer, err := a.Source.GetLayer(ctx, layerID)
	if err != nil {
		return nil, err
	}

	maps := a.fanOut(ctx, layer.MapIDs, origin)
	if len(maps) == 0 {
		a.Cache.Put(ctx, layerID, origin, cacheVariant, []byte{})
		return nil, ErrNothingGeoreferenced
	}

	page := annotation.NewPage(maps, origin+"/mosaic/"+layerID+"/annotation.json")
	payload, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("serialize mosaic %s: %w", layerID, err)
	}
	a.Cache.Put(ctx, layerID, origin, cacheVariant, payload)
	return payload, nil
}

// fanOut fetches every member map through a bounded worker pool. A
// failed or ungeoreferenced member is skipped, never fatal. The result
// order is whatever the workers produced; consumers do not rely on it.
func (a *Aggregator) fanOut(ctx context.Context, mapIDs []string, origin string) []models.GeoreferencedMap {
	jobs := make(chan string)
	var (
		mu      sync.Mutex
		results []models.GeoreferencedMap
		wg      sync.WaitGroup
	)

	workers := a.Workers
	if len(mapIDs) < workers {
		workers = len(mapIDs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				m, ok := a.fetchOne(ctx, id, origin)
				if !ok {
					metrics.MosaicMapsSkippedTotal.Inc()
					continue
				}
				mu.Lock()
				results = append(results, m)
				mu.Unlock()
			}
		}()
	}
	for _, id := range mapIDs {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	return results
}

func (a *Aggregator) fetchOne(ctx context.Context, id, origin string) (models.GeoreferencedMap, bool) {
	rec, err := a.Source.GetMap(ctx, id)
	if err != nil {
		log.Printf("[mosaic] skipping map %s: %v", id, err)
		return models.GeoreferencedMap{}, false
	}
	gcps, err := a.Source.GetGCPs(ctx, id)
	if err != nil {
		log.Printf("[mosaic] skipping map %s: %v", id, err)
		return models.GeoreferencedMap{}, false
	}
	if len(gcps) == 0 {
		return models.GeoreferencedMap{}, false
	}
	mask, err := a.Source.GetMask(ctx, id)
	if err != nil {
		log.Printf("[mosaic] skipping map %s: %v", id, err)
		return models.GeoreferencedMap{}, false
	}
	return models.GeoreferencedMap{
		ImageID: iiif.ServiceID(origin, id),
		Width:   rec.Width,
		Height:  rec.Height,
		GCPs:    gcps,
		Mask:    coords.FlipPolygon(mask, float64(rec.Height)),
	}, true
}
