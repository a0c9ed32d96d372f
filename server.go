package sketchview

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/beorn7/perks/quantile"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const slowResponse = time.Second

// DefaultMaxSampleCount bounds the count of a single sample request.
const DefaultMaxSampleCount = 1000000

// Server exposes one Explorer over HTTP. Requests are serialized, so the
// explorer still only ever sees one caller at a time.
type Server struct {
	sync.Mutex
	explorer *Explorer
	surfaces *MemorySurfaces
	format   Format
	buckets  uint32
	maxCount int
	charts   map[string]*Chart
	logger   *zap.Logger
	router   *mux.Router
	timings  *responseTimes
}

// NewServer returns a server for e. The explorer must draw to surfaces, and
// format must match its renderer. buckets is the input bucket count used when
// a request does not name one. maxCount bounds a single sample request; zero
// means DefaultMaxSampleCount.
func NewServer(e *Explorer, surfaces *MemorySurfaces, format Format, buckets uint32, maxCount int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxCount <= 0 {
		maxCount = DefaultMaxSampleCount
	}
	s := &Server{
		explorer: e,
		surfaces: surfaces,
		format:   format,
		buckets:  buckets,
		maxCount: maxCount,
		charts:   make(map[string]*Chart, 2),
		logger:   logger,
		router:   mux.NewRouter(),
		timings:  newResponseTimes(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	logged := func(h http.HandlerFunc) http.Handler {
		return withResponseTimeLogging(h, s.logger, s.timings)
	}
	s.router.Handle("/api/v1/sample", logged(s.handleSample)).Methods(http.MethodPost)
	s.router.Handle("/api/v1/bin-limit", logged(s.handleBinLimit)).Methods(http.MethodPut)
	s.router.Handle("/api/v1/stats", logged(s.handleStats)).Methods(http.MethodGet)
	s.router.Handle("/api/v1/chart/{name:input|output}", logged(s.handleChart)).Methods(http.MethodGet)
	s.router.Handle("/api/v1/chart/{name:input|output}/coord", logged(s.handleCoord)).Methods(http.MethodGet)
	s.router.Handle("/api/v1/server-stats", logged(s.handleServerStats)).Methods(http.MethodGet)
}

// ServeHTTP ...
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type statsResponse struct {
	Input  InputStats  `json:"input"`
	Output OutputStats `json:"output"`
}

func (s *Server) stats() statsResponse {
	return statsResponse{Input: s.explorer.InputStats(), Output: s.explorer.OutputStats()}
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil || count < 0 {
		writeError(w, http.StatusBadRequest, errors.Errorf("invalid count %q", r.URL.Query().Get("count")))
		return
	}
	if count > s.maxCount {
		writeError(w, http.StatusBadRequest, errors.Errorf("count %d exceeds limit %d", count, s.maxCount))
		return
	}
	s.Lock()
	s.explorer.Sample(count)
	resp := s.stats()
	s.Unlock()
	writeJSON(w, resp)
}

func (s *Server) handleBinLimit(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.ParseUint(r.URL.Query().Get("value"), 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid bin limit"))
		return
	}
	s.Lock()
	s.explorer.SetBinLimit(uint16(limit))
	resp := s.stats()
	s.Unlock()
	writeJSON(w, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	resp := s.stats()
	s.Unlock()
	writeJSON(w, resp)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	buckets := s.buckets
	if raw := r.URL.Query().Get("buckets"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid bucket count"))
			return
		}
		buckets = uint32(n)
	}

	s.Lock()
	defer s.Unlock()

	var (
		chart *Chart
		err   error
		id    string
	)
	if name == "input" {
		chart, err = s.explorer.InputChart(buckets)
		id = s.explorer.inputSurface
	} else {
		chart, err = s.explorer.OutputChart()
		id = s.explorer.outputSurface
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.charts[name] = chart

	w.Header().Set("Content-Type", s.format.ContentType())
	w.Write(s.surfaces.Bytes(id))
}

func (s *Server) handleCoord(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, errors.New("x and y must be integers"))
		return
	}

	s.Lock()
	chart, ok := s.charts[name]
	s.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, errors.Errorf("no %s chart rendered yet", name))
		return
	}
	p, ok := chart.Coord(x, y)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("point outside plot area"))
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleServerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.timings.stats())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{err.Error()})
}

func withResponseTimeLogging(next http.Handler, log *zap.Logger, rt *responseTimes) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		next.ServeHTTP(w, r)
		d := time.Since(startTime)
		rt.observe(d)
		if d > slowResponse {
			log.Info("slow response",
				zap.String("uri", r.URL.RequestURI()),
				zap.Duration("took", d))
		}
	})
}

// ResponseTimeStats summarizes handler latency in milliseconds.
type ResponseTimeStats struct {
	Count int     `json:"count"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
	P99   float64 `json:"p99"`
}

// responseTimes keeps a targeted quantile stream of handler latencies.
type responseTimes struct {
	sync.Mutex
	stream *quantile.Stream
}

func newResponseTimes() *responseTimes {
	return &responseTimes{
		stream: quantile.NewTargeted(map[float64]float64{
			0.50: 0.05,
			0.90: 0.01,
			0.99: 0.001,
		}),
	}
}

func (rt *responseTimes) observe(d time.Duration) {
	rt.Lock()
	rt.stream.Insert(float64(d) / float64(time.Millisecond))
	rt.Unlock()
}

func (rt *responseTimes) stats() ResponseTimeStats {
	rt.Lock()
	defer rt.Unlock()
	return ResponseTimeStats{
		Count: rt.stream.Count(),
		P50:   rt.stream.Query(0.50),
		P90:   rt.stream.Query(0.90),
		P99:   rt.stream.Query(0.99),
	}
}
