package mapwarper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramSeraph/mapwarper-allmaps-bridge/pkg/models"
)

const mapJSON = `{"data":{"id":"123","type":"maps","attributes":{
	"title":"Bombay City 1909","description":"Survey sheet",
	"width":4000,"height":3000,"status":"warped",
	"source_uri":"https://example.org/sheet/9",
	"date_depicted":"1909",
	"created_at":"2020-01-02T10:00:00Z","updated_at":"2021-06-07T08:30:00Z"}}}`

const gcpJSON = `{"data":[
	{"attributes":{"x":100,"y":200,"lat":"18.95","lon":"72.82"}},
	{"attributes":{"x":1500.5,"y":900,"lat":18.99,"lon":72.86}},
	{"attributes":{"x":10,"y":20}},
	{"attributes":{"lat":"19.0","lon":"72.9"}}]}`

const maskGML = `<?xml version="1.0"?><wfs:FeatureCollection><gml:featureMember>
<gml:Polygon><gml:coordinates decimal="." cs="," ts=" ">10,20 400,20 400,600 10,600 10,20</gml:coordinates></gml:Polygon>
</gml:featureMember></wfs:FeatureCollection>`

const layerJSON = `{"data":{"id":"77","type":"layers",
	"attributes":{"name":"City Survey"},
	"relationships":{"maps":{"data":[{"id":"123","type":"maps"},{"id":"124","type":"maps"}]}}}}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL), srv
}

func TestGetMap(t *testing.T) {
	hits := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/maps/123", r.URL.Path)
		hits++
		_, _ = w.Write([]byte(mapJSON))
	}))

	rec, err := c.GetMap(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", rec.ID)
	assert.Equal(t, "Bombay City 1909", rec.Title)
	assert.Equal(t, 4000, rec.Width)
	assert.Equal(t, 3000, rec.Height)
	assert.Equal(t, "warped", rec.Status)
	assert.Equal(t, "1909", rec.DateDepicted)

	// second call inside the memo window does not refetch
	again, err := c.GetMap(context.Background(), "123")
	require.NoError(t, err)
	assert.Same(t, rec, again)
	assert.Equal(t, 1, hits)
}

func TestGetMapNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())
	_, err := c.GetMap(context.Background(), "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMapUpstreamError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	_, err := c.GetMap(context.Background(), "123")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFindMapDirectID(t *testing.T) {
	searched := false
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/maps" {
			searched = true
		}
		_, _ = w.Write([]byte(mapJSON))
	}))

	rec, err := c.FindMap(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", rec.ID)
	assert.False(t, searched, "id hit must not trigger a title search")
}

func TestFindMapFallsBackToTitleSearch(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/maps" {
			assert.Equal(t, "Bombay City 1909", r.URL.Query().Get("query"))
			assert.Equal(t, "title", r.URL.Query().Get("field"))
			_, _ = w.Write([]byte(`{"data":[` + `{"id":"123","type":"maps","attributes":{"title":"Bombay City 1909","width":4000,"height":3000}}]}`))
			return
		}
		http.NotFound(w, r)
	}))

	rec, err := c.FindMap(context.Background(), "Bombay City 1909")
	require.NoError(t, err)
	assert.Equal(t, "123", rec.ID)
}

func TestFindMapUpstreamFailureDoesNotSearch(t *testing.T) {
	searched := false
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/maps" {
			searched = true
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.FindMap(context.Background(), "123")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.False(t, searched, "a transport failure is not a definitive miss")
}

func TestFindMapNothingAnywhere(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/maps" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		http.NotFound(w, r)
	}))

	_, err := c.FindMap(context.Background(), "no such map")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetGCPs(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/maps/123/gcps", r.URL.Path)
		_, _ = w.Write([]byte(gcpJSON))
	}))

	gcps, err := c.GetGCPs(context.Background(), "123")
	require.NoError(t, err)
	// the two partial entries are dropped
	require.Len(t, gcps, 2)
	assert.Equal(t, models.Point{X: 100, Y: 200}, gcps[0].Resource)
	assert.Equal(t, 18.95, gcps[0].Lat)
	assert.Equal(t, 72.82, gcps[0].Lon)
	assert.Equal(t, models.Point{X: 1500.5, Y: 900}, gcps[1].Resource)
}

func TestGetGCPsAbsenceIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())
	gcps, err := c.GetGCPs(context.Background(), "123")
	require.NoError(t, err)
	assert.Empty(t, gcps)
}

func TestGetMask(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shared/masks/123.gml", r.URL.Path)
		_, _ = w.Write([]byte(maskGML))
	}))

	mask, err := c.GetMask(context.Background(), "123")
	require.NoError(t, err)
	// closing point stripped
	assert.Equal(t, models.MaskPolygon{
		{X: 10, Y: 20}, {X: 400, Y: 20}, {X: 400, Y: 600}, {X: 10, Y: 600},
	}, mask)
}

func TestGetMaskAbsenceIsNil(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())
	mask, err := c.GetMask(context.Background(), "123")
	require.NoError(t, err)
	assert.Nil(t, mask)
}

func TestGetLayer(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/layers/77", r.URL.Path)
		_, _ = w.Write([]byte(layerJSON))
	}))

	layer, err := c.GetLayer(context.Background(), "77")
	require.NoError(t, err)
	assert.Equal(t, "City Survey", layer.Name)
	assert.Equal(t, []string{"123", "124"}, layer.MapIDs)
}

func TestBuildTileRequestURL(t *testing.T) {
	c := NewClient("https://warper.example.org")
	u, err := url.Parse(c.BuildTileRequestURL("123", 10, 20, 100, 50, 100, 50, "image/png", 400))
	require.NoError(t, err)
	assert.Equal(t, "/maps/wms/123", u.Path)

	q := u.Query()
	// y axis flipped: miny = 400-(20+50), maxy = 400-20
	assert.Equal(t, "10,330,110,380", q.Get("BBOX"))
	assert.Equal(t, "100", q.Get("WIDTH"))
	assert.Equal(t, "50", q.Get("HEIGHT"))
	assert.Equal(t, "image/png", q.Get("FORMAT"))
	assert.Equal(t, "GetMap", q.Get("REQUEST"))
	assert.Equal(t, "unwarped", q.Get("STATUS"))
}

func TestBuildTileRequestURLFullFrame(t *testing.T) {
	c := NewClient("https://warper.example.org")
	u, err := url.Parse(c.BuildTileRequestURL("123", 0, 0, 640, 480, 640, 480, "image/jpeg", 0))
	require.NoError(t, err)
	// full-frame request: no inversion
	assert.Equal(t, "0,0,640,480", u.Query().Get("BBOX"))
}

func TestParseGMLMaskMalformed(t *testing.T) {
	assert.Nil(t, parseGMLMask([]byte("<xml>no coordinates here</xml>")))
	assert.Nil(t, parseGMLMask([]byte("<gml:coordinates>1,2 3,4</gml:coordinates>")))
}
