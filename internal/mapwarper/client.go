// Package mapwarper talks to the legacy georeferencing platform: its
// JSON:API endpoints for maps, layers and control points, its GML mask
// export, and its WMS tile service.
package mapwarper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/internal/metrics"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/coords"
	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
)

var (
	// ErrNotFound means the map or layer id is unknown upstream.
	ErrNotFound = errors.New("mapwarper: not found")
	// ErrUpstream covers unreachable upstream and non-2xx answers other
	// than 404.
	ErrUpstream = errors.New("mapwarper: upstream failure")
)

// memoTTL bounds how long a fetched MapRecord is shared between calls.
// Long enough for one logical request (a mosaic fan-out, a tile
// translate), short enough that upstream edits show up quickly.
const memoTTL = 60 * time.Second

type memoEntry struct {
	rec     *models.MapRecord
	fetched time.Time
}

type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu   sync.Mutex
	memo map[string]memoEntry
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		memo:    make(map[string]memoEntry),
	}
}

// get runs a GET against the upstream and hands back the body for 2xx.
// 404 maps to ErrNotFound, every other failure to ErrUpstream.
func (c *Client) get(ctx context.Context, kind, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(kind).Inc()
	t0 := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.UpstreamFailTotal.WithLabelValues(kind).Inc()
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamDurationMs.Observe(float64(time.Since(t0).Milliseconds()))

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamFailTotal.WithLabelValues(kind).Inc()
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstream, kind, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamFailTotal.WithLabelValues(kind).Inc()
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return body, nil
}

// GetMap fetches map metadata. Records are memoized briefly so the
// per-map call chain (metadata, then GCPs, then mask) and a mosaic
// fan-out do not refetch the same record.
func (c *Client) GetMap(ctx context.Context, id string) (*models.MapRecord, error) {
	c.mu.Lock()
	if e, ok := c.memo[id]; ok && time.Since(e.fetched) < memoTTL {
		c.mu.Unlock()
		return e.rec, nil
	}
	c.mu.Unlock()

	body, err := c.get(ctx, "map", c.BaseURL+"/api/v1/maps/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	rec, err := parseMapDoc(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	c.mu.Lock()
	c.memo[id] = memoEntry{rec: rec, fetched: time.Now()}
	c.mu.Unlock()
	return rec, nil
}

// FindMap resolves an id-or-title reference. The direct id fetch is
// authoritative; the title search runs only when the id is definitively
// unknown, never on transport failures, so an upstream outage cannot
// silently resolve to the wrong map.
func (c *Client) FindMap(ctx context.Context, ref string) (*models.MapRecord, error) {
	rec, err := c.GetMap(ctx, ref)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	q := url.Values{}
	q.Set("field", "title")
	q.Set("query", ref)
	body, err := c.get(ctx, "search", c.BaseURL+"/api/v1/maps?"+q.Encode())
	if err != nil {
		return nil, err
	}
	recs, err := parseMapListDoc(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

// GetLayer fetches a mosaic layer and its member map ids.
func (c *Client) GetLayer(ctx context.Context, id string) (*models.LayerRecord, error) {
	body, err := c.get(ctx, "layer", c.BaseURL+"/api/v1/layers/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	layer, err := parseLayerDoc(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return layer, nil
}

// GetGCPs fetches the control points of a map. A 404 means the map has
// simply not been georeferenced yet, which is a valid state: it yields
// an empty slice, not an error.
func (c *Client) GetGCPs(ctx context.Context, id string) ([]models.GCP, error) {
	body, err := c.get(ctx, "gcps", c.BaseURL+"/api/v1/maps/"+url.PathEscape(id)+"/gcps")
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	gcps, err := parseGCPDoc(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return gcps, nil
}

// GetMask fetches the clipping polygon of a map, still in the
// platform's bottom-up coordinates. Absence (404) is nil, nil.
func (c *Client) GetMask(ctx context.Context, id string) (models.MaskPolygon, error) {
	body, err := c.get(ctx, "mask", c.BaseURL+"/shared/masks/"+url.PathEscape(id)+".gml")
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parseGMLMask(body), nil
}

// BuildTileRequestURL assembles the legacy WMS request for a top-down
// pixel region. The vertical flip happens here, except for full-frame
// requests (imageHeight 0) which the legacy service already treats as
// origin-relative.
func (c *Client) BuildTileRequestURL(id string, x, y, w, h float64, outW, outH int, mime string, imageHeight float64) string {
	minX, minY, maxX, maxY := coords.FlipBBox(x, y, w, h, imageHeight)

	q := url.Values{}
	q.Set("SERVICE", "WMS")
	q.Set("VERSION", "1.1.1")
	q.Set("REQUEST", "GetMap")
	q.Set("LAYERS", "image")
	q.Set("STATUS", "unwarped")
	q.Set("SRS", "EPSG:4326")
	q.Set("BBOX", fmtCoord(minX)+","+fmtCoord(minY)+","+fmtCoord(maxX)+","+fmtCoord(maxY))
	q.Set("WIDTH", strconv.Itoa(outW))
	q.Set("HEIGHT", strconv.Itoa(outH))
	q.Set("FORMAT", mime)
	q.Set("TRANSPARENT", "false")
	return c.BaseURL + "/maps/wms/" + url.PathEscape(id) + "?" + q.Encode()
}

// FetchTile proxies one translated tile request and returns body and
// content type.
func (c *Client) FetchTile(ctx context.Context, tileURL string) ([]byte, string, error) {
	metrics.TileRequestsTotal.Inc()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tileURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: tile service returned %d", ErrUpstream, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
