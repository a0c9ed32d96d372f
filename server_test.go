package sketchview

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) *Server {
	surfaces := NewMemorySurfaces("input", "output")
	e := New("input", "output",
		WithGenerator(NewLatencyGenerator(1)),
		WithSurfaces(surfaces),
		WithRenderer(ChartRenderer{Width: 400, Height: 300, Format: FormatSVG}))
	return NewServer(e, surfaces, FormatSVG, 50, 5000, zaptest.NewLogger(t))
}

func do(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeStats(t *testing.T, rec *httptest.ResponseRecorder) statsResponse {
	t.Helper()
	var resp statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServerSampleAndStats(t *testing.T) {
	assert := assert.New(t)
	s := newTestServer(t)

	rec := do(s, http.MethodGet, "/api/v1/stats")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("application/json", rec.Header().Get("Content-Type"))
	assert.Equal(0, decodeStats(t, rec).Input.ValueCount)

	rec = do(s, http.MethodPost, "/api/v1/sample?count=500")
	assert.Equal(http.StatusOK, rec.Code)
	stats := decodeStats(t, rec)
	assert.Equal(500, stats.Input.ValueCount)
	assert.True(stats.Output.BinCount > 0)

	rec = do(s, http.MethodPut, "/api/v1/bin-limit?value=16")
	assert.Equal(http.StatusOK, rec.Code)
	stats = decodeStats(t, rec)
	assert.Equal(uint16(16), stats.Output.BinLimit)
	assert.True(stats.Output.BinCount <= 16)
	assert.Equal(500, stats.Input.ValueCount)
}

func TestServerBadRequests(t *testing.T) {
	assert := assert.New(t)
	s := newTestServer(t)

	for _, tc := range []struct {
		method, target string
		code           int
	}{
		{http.MethodPost, "/api/v1/sample", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/sample?count=-1", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/sample?count=abc", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/sample?count=5001", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/sample?count=1125899906842624", http.StatusBadRequest},
		{http.MethodPut, "/api/v1/bin-limit?value=70000", http.StatusBadRequest},
		{http.MethodPut, "/api/v1/bin-limit", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/chart/input?buckets=x", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/chart/input/coord?x=1", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/chart/other", http.StatusNotFound},
		{http.MethodGet, "/api/v1/sample?count=1", http.StatusMethodNotAllowed},
	} {
		rec := do(s, tc.method, tc.target)
		assert.Equal(tc.code, rec.Code, "%s %s", tc.method, tc.target)
	}
}

func TestServerChartAndCoord(t *testing.T) {
	assert := assert.New(t)
	s := newTestServer(t)

	rec := do(s, http.MethodGet, "/api/v1/chart/output/coord?x=200&y=150")
	assert.Equal(http.StatusNotFound, rec.Code)

	do(s, http.MethodPost, "/api/v1/sample?count=1000")

	for _, name := range []string{"input", "output"} {
		rec = do(s, http.MethodGet, "/api/v1/chart/"+name)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal("image/svg+xml", rec.Header().Get("Content-Type"))
		assert.Contains(rec.Body.String(), "<svg")

		m := s.charts[name].Mapper()
		x, y := (m.Plot.Left+m.Plot.Right)/2, (m.Plot.Top+m.Plot.Bottom)/2
		rec = do(s, http.MethodGet, fmt.Sprintf("/api/v1/chart/%s/coord?x=%d&y=%d", name, x, y))
		require.Equal(t, http.StatusOK, rec.Code)
		var p Point
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		expected, _ := m.Coord(x, y)
		assert.Equal(expected, p)

		rec = do(s, http.MethodGet, "/api/v1/chart/"+name+"/coord?x=0&y=0")
		assert.Equal(http.StatusNotFound, rec.Code)
	}

	rec = do(s, http.MethodGet, "/api/v1/chart/input?buckets=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(len(s.charts["input"].Histogram().Buckets) <= 7)
}

func TestServerResponseTimes(t *testing.T) {
	assert := assert.New(t)
	s := newTestServer(t)

	var stats ResponseTimeStats
	require.NoError(t, json.Unmarshal(do(s, http.MethodGet, "/api/v1/server-stats").Body.Bytes(), &stats))
	assert.Equal(0, stats.Count)

	for i := 0; i < 3; i++ {
		do(s, http.MethodPost, "/api/v1/sample?count=10")
	}
	do(s, http.MethodPost, "/api/v1/sample?count=x")

	require.NoError(t, json.Unmarshal(do(s, http.MethodGet, "/api/v1/server-stats").Body.Bytes(), &stats))
	// The first server-stats call is counted as well.
	assert.Equal(5, stats.Count)
	assert.True(stats.P50 >= 0)
	assert.True(stats.P99 >= stats.P50)
}

func TestServerSampleLimit(t *testing.T) {
	assert := assert.New(t)
	s := newTestServer(t)

	rec := do(s, http.MethodPost, fmt.Sprintf("/api/v1/sample?count=%d", 1<<50))
	assert.Equal(http.StatusBadRequest, rec.Code)
	assert.Contains(rec.Body.String(), "exceeds limit 5000")
	assert.Equal(0, s.explorer.InputStats().ValueCount)

	rec = do(s, http.MethodPost, "/api/v1/sample?count=5000")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal(5000, decodeStats(t, rec).Input.ValueCount)

	surfaces := NewMemorySurfaces("input", "output")
	def := NewServer(New("input", "output", WithSurfaces(surfaces)), surfaces, FormatPNG, 10, 0, nil)
	assert.Equal(DefaultMaxSampleCount, def.maxCount)
}
