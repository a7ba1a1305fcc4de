package mosaic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/annotation"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/database"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
)

type stubSource struct {
	mu         sync.Mutex
	layer      *models.LayerRecord
	maps       map[string]*models.MapRecord
	gcps       map[string][]models.GCP
	masks      map[string]models.MaskPolygon
	broken     map[string]bool
	layerCalls int
}

func (s *stubSource) GetLayer(ctx context.Context, id string) (*models.LayerRecord, error) {
	s.mu.Lock()
	s.layerCalls++
	s.mu.Unlock()
	if s.layer == nil || s.layer.ID != id {
		return nil, errors.New("no such layer")
	}
	return s.layer, nil
}

func (s *stubSource) GetMap(ctx context.Context, id string) (*models.MapRecord, error) {
	if s.broken[id] {
		return nil, errors.New("upstream down")
	}
	rec, ok := s.maps[id]
	if !ok {
		return nil, errors.New("no such map")
	}
	return rec, nil
}

func (s *stubSource) GetGCPs(ctx context.Context, id string) ([]models.GCP, error) {
	return s.gcps[id], nil
}

func (s *stubSource) GetMask(ctx context.Context, id string) (models.MaskPolygon, error) {
	return s.masks[id], nil
}

func newStub() *stubSource {
	gcps := []models.GCP{
		{Resource: models.Point{X: 10, Y: 20}, Lon: 72.8, Lat: 18.9},
		{Resource: models.Point{X: 300, Y: 400}, Lon: 72.9, Lat: 19.0},
		{Resource: models.Point{X: 500, Y: 100}, Lon: 73.0, Lat: 19.1},
	}
	return &stubSource{
		layer: &models.LayerRecord{ID: "77", Name: "City Survey", MapIDs: []string{"1", "2", "3"}},
		maps: map[string]*models.MapRecord{
			"1": {ID: "1", Width: 1000, Height: 800},
			"2": {ID: "2", Width: 1000, Height: 800},
			"3": {ID: "3", Width: 1000, Height: 800},
		},
		gcps: map[string][]models.GCP{
			"1": gcps,
			"2": gcps,
			// map 3 has no control points
		},
		masks:  map[string]models.MaskPolygon{},
		broken: map[string]bool{},
	}
}

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	db, err := database.Open(database.Config{DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewCache(db, ttl)
}

func TestCombinedSkipsFailedAndEmpty(t *testing.T) {
	stub := newStub()
	stub.broken["2"] = true // map 2 fails, map 3 has no GCPs

	agg := NewAggregator(stub, newTestCache(t, time.Hour), 5)
	payload, err := agg.CombinedAnnotation(context.Background(), "77", "http://bridge.test", false)
	require.NoError(t, err)

	maps := annotation.Parse(payload)
	require.Len(t, maps, 1)
	assert.Equal(t, "http://bridge.test/maps/1/iiif", maps[0].ImageID)
}

func TestCombinedMaskFlippedTopDown(t *testing.T) {
	stub := newStub()
	stub.layer.MapIDs = []string{"1"}
	stub.masks["1"] = models.MaskPolygon{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}

	agg := NewAggregator(stub, newTestCache(t, time.Hour), 5)
	payload, err := agg.CombinedAnnotation(context.Background(), "77", "http://bridge.test", false)
	require.NoError(t, err)

	maps := annotation.Parse(payload)
	require.Len(t, maps, 1)
	// source mask is bottom-up; serialized mask is top-down (height 800)
	assert.Equal(t, models.MaskPolygon{{X: 0, Y: 800}, {X: 100, Y: 800}, {X: 100, Y: 700}}, maps[0].Mask)
}

func TestCombinedAllSkippedIsEmptyResult(t *testing.T) {
	stub := newStub()
	stub.broken["1"] = true
	stub.broken["2"] = true // and map 3 has no GCPs

	agg := NewAggregator(stub, newTestCache(t, time.Hour), 5)
	_, err := agg.CombinedAnnotation(context.Background(), "77", "http://bridge.test", false)
	assert.ErrorIs(t, err, ErrNothingGeoreferenced)

	// the empty outcome is cached: no second fan-out
	_, err = agg.CombinedAnnotation(context.Background(), "77", "http://bridge.test", false)
	assert.ErrorIs(t, err, ErrNothingGeoreferenced)
	assert.Equal(t, 1, stub.layerCalls)
}

func TestCacheHitReturnsIdenticalPayload(t *testing.T) {
	stub := newStub()
	agg := NewAggregator(stub, newTestCache(t, time.Hour), 5)

	first, err := agg.CombinedAnnotation(context.Background(), "77", "http://bridge.test", false)
	require.NoError(t, err)
	second, err := agg.CombinedAnnotation(context.Background(), "77", "http://bridge.test", false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, stub.layerCalls)
}

func TestRefreshBypassesCache(t *testing.T) {
	stub := newStub()
	agg := NewAggregator(stub, newTestCache(t, time.Hour), 5)

	_, err := agg.CombinedAnnotation(context.Background(), "77", "http://bridge.test", false)
	require.NoError(t, err)
	_, err = agg.CombinedAnnotation(context.Background(), "77", "http://bridge.test", true)
	require.NoError(t, err)

	assert.Equal(t, 2, stub.layerCalls)
}

func TestExpiredEntryRecomputed(t *testing.T) {
	stub := newStub()
	agg := NewAggregator(stub, newTestCache(t, time.Nanosecond), 5)

	_, err := agg.CombinedAnnotation(context.Background(), "77", "http://bridge.test", false)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = agg.CombinedAnnotation(context.Background(), "77", "http://bridge.test", false)
	require.NoError(t, err)

	assert.Equal(t, 2, stub.layerCalls)
}

func TestDifferentOriginsCachedSeparately(t *testing.T) {
	stub := newStub()
	agg := NewAggregator(stub, newTestCache(t, time.Hour), 5)

	a, err := agg.CombinedAnnotation(context.Background(), "77", "http://one.test", false)
	require.NoError(t, err)
	b, err := agg.CombinedAnnotation(context.Background(), "77", "http://two.test", false)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, stub.layerCalls)
}
