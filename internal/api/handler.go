package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shakerwatch/shakerwatch/internal/compute"
	"github.com/shakerwatch/shakerwatch/internal/store"
	"github.com/shakerwatch/shakerwatch/internal/telemetry"
)

// Defaults are the live dashboard display defaults, applied when a request
// does not pass ?mesh=, ?threshold= or ?limit=. They reload via SetDefaults
// when the config file changes.
type Defaults struct {
	MeshType             string
	UtilizationThreshold float64
	ChartPointLimit      int
}

// Handler is the HTTP handler for all /api/v1/* endpoints plus /metrics.
// It reads datasets from the upload store and recomputes derived metrics on
// every request — the engine is pure, so identical requests yield identical
// responses.
type Handler struct {
	store          *store.Store
	mux            *http.ServeMux
	maxUploadBytes int64
	counters       counters

	mu          sync.RWMutex
	defaults    Defaults
	clientCount func() int // WebSocket hub client count, injected by main
	onUpload    func()     // hub poke, injected by main
}

// New creates a Handler wired to the given dataset store.
func New(st *store.Store, def Defaults, maxUploadBytes int64) *Handler {
	h := &Handler{
		store:          st,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
		defaults:       def,
	}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/meshes", h.meshes)
	h.mux.HandleFunc("/api/v1/overview", h.overview)
	h.mux.HandleFunc("/api/v1/datasets", h.datasets)
	h.mux.HandleFunc("/api/v1/datasets/", h.dataset) // subtree — extracts {id}/{op}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SetDefaults swaps the live display defaults. Called from the config watcher.
func (h *Handler) SetDefaults(def Defaults) {
	h.mu.Lock()
	h.defaults = def
	h.mu.Unlock()
	slog.Info("api: dashboard defaults updated",
		"mesh", def.MeshType,
		"utilization_threshold", def.UtilizationThreshold,
		"chart_point_limit", def.ChartPointLimit,
	)
}

// SetClientCount injects the WebSocket hub's client counter for /api/v1/health
// and /metrics. Safe to leave unset; the count then reads zero.
func (h *Handler) SetClientCount(fn func() int) {
	h.mu.Lock()
	h.clientCount = fn
	h.mu.Unlock()
}

// SetOnUpload injects a callback invoked after every accepted upload, used to
// trigger an immediate hub broadcast.
func (h *Handler) SetOnUpload(fn func()) {
	h.mu.Lock()
	h.onUpload = fn
	h.mu.Unlock()
}

func (h *Handler) getDefaults() Defaults {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.defaults
}

func (h *Handler) clients() int {
	h.mu.RLock()
	fn := h.clientCount
	h.mu.RUnlock()
	if fn == nil {
		return 0
	}
	return fn()
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — dataset and client counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:       "ok",
		DatasetCount: len(h.store.List()),
		ClientCount:  h.clients(),
	})
}

// meshes returns GET /api/v1/meshes — the mesh grade table.
func (h *Handler) meshes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	out := make([]MeshResponse, 0, len(compute.MeshTypes()))
	for _, name := range compute.MeshTypes() {
		c, _ := compute.Capacity(name)
		out = append(out, MeshResponse{Name: name, Capacity: c})
	}
	jsonResp(w, http.StatusOK, out)
}

// overview returns GET /api/v1/overview — the same payload the hub broadcasts.
func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.Overview())
}

// datasets handles /api/v1/datasets — POST uploads, GET lists.
func (h *Handler) datasets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.upload(w, r)
	case http.MethodGet:
		entries := h.store.List()
		out := make([]DatasetResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, h.toDatasetResponse(e))
		}
		jsonResp(w, http.StatusOK, out)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// upload handles POST /api/v1/datasets — a multipart CSV in the "file" field.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, hdr, err := r.FormFile("file")
	if err != nil {
		h.counters.uploadErrors.Add(1)
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonErr(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
			return
		}
		jsonErr(w, http.StatusBadRequest, "multipart form field \"file\" is required")
		return
	}
	defer file.Close()

	series, err := telemetry.ParseCSV(file)
	if err != nil {
		h.counters.uploadErrors.Add(1)
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	e := &store.Entry{
		ID:     uuid.NewString(),
		Name:   hdr.Filename,
		Series: series,
	}
	h.store.Put(e)

	h.counters.uploads.Add(1)
	h.counters.rowsParsed.Add(uint64(series.Len()))
	h.counters.rowsDropped.Add(uint64(series.Dropped))

	slog.Info("api: dataset uploaded",
		"id", e.ID,
		"name", e.Name,
		"rows", series.Len(),
		"dropped", series.Dropped,
	)

	h.mu.RLock()
	poke := h.onUpload
	h.mu.RUnlock()
	if poke != nil {
		poke()
	}

	jsonResp(w, http.StatusCreated, h.toDatasetResponse(e))
}

// dataset handles the /api/v1/datasets/{id}[/{op}] subtree.
func (h *Handler) dataset(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/datasets/")
	if rest == "" {
		h.datasets(w, r)
		return
	}
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, op := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		id, op = rest[:i], rest[i+1:]
	}

	e, ok := h.store.Get(id) // excludes expired entries
	if !ok {
		jsonErr(w, http.StatusNotFound, "dataset not found")
		return
	}

	switch op {
	case "":
		jsonResp(w, http.StatusOK, h.toDatasetResponse(e))
	case "summary":
		h.summary(w, r, e)
	case "series":
		h.series(w, r, e)
	case "drops":
		h.drops(w, r, e)
	case "efficiency":
		h.efficiency(w, r, e)
	default:
		jsonErr(w, http.StatusNotFound, fmt.Sprintf("unknown operation %q", op))
	}
}

// summary returns GET /api/v1/datasets/{id}/summary — the KPI value object.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request, e *store.Entry) {
	p, capacity, ok := h.requestParams(w, r, e)
	if !ok {
		return
	}

	day := e.Series.FilterDate(p.Date)
	derived := compute.DeriveUtilization(day, capacity)
	m := compute.Summarize(derived)
	drops := compute.Drops(derived, compute.DefaultDropThreshold)

	jsonResp(w, http.StatusOK, h.buildSummary(e.ID, p, capacity, m, len(drops)))
}

// series returns GET /api/v1/datasets/{id}/series — rows for charting.
func (h *Handler) series(w http.ResponseWriter, r *http.Request, e *store.Entry) {
	p, capacity, ok := h.requestParams(w, r, e)
	if !ok {
		return
	}

	limit := h.getDefaults().ChartPointLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			jsonErr(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	day := compute.DeriveUtilization(e.Series.FilterDate(p.Date), capacity)
	tail := day.LastN(limit)

	jsonResp(w, http.StatusOK, SeriesResponse{
		DatasetID: e.ID,
		Date:      p.Date,
		TotalRows: day.Len(),
		Points:    toPoints(tail),
	})
}

// drops returns GET /api/v1/datasets/{id}/drops — readings below threshold.
// Here ?threshold= is the drop threshold, not the utilization alert threshold,
// so it resolves only mesh and date from the shared params.
func (h *Handler) drops(w http.ResponseWriter, r *http.Request, e *store.Entry) {
	p, capacity, ok := h.baseParams(w, r, e)
	if !ok {
		return
	}

	threshold := float64(compute.DefaultDropThreshold)
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, fmt.Sprintf("invalid threshold %q", raw))
			return
		}
		threshold = v
	}

	day := compute.DeriveUtilization(e.Series.FilterDate(p.Date), capacity)
	flagged := compute.Drops(day, threshold)

	sub := day
	sub.Readings = flagged
	jsonResp(w, http.StatusOK, DropsResponse{
		DatasetID: e.ID,
		Date:      p.Date,
		Threshold: threshold,
		Count:     len(flagged),
		Points:    toPoints(sub),
	})
}

// efficiency returns GET /api/v1/datasets/{id}/efficiency.
func (h *Handler) efficiency(w http.ResponseWriter, r *http.Request, e *store.Entry) {
	p, _, ok := h.requestParams(w, r, e)
	if !ok {
		return
	}

	res := compute.Efficiency(e.Series.FilterDate(p.Date))

	points := make([]EfficiencyPointResponse, 0, len(res.Points))
	for _, pt := range res.Points {
		points = append(points, EfficiencyPointResponse{
			Timestamp: pt.Timestamp.UTC().Format(time.RFC3339),
			Value:     pt.Value,
		})
	}
	jsonResp(w, http.StatusOK, EfficiencyResponse{
		DatasetID:  e.ID,
		Date:       p.Date,
		Mean:       metricResp(res.Mean),
		Removed:    res.Removed,
		Losses:     res.Losses,
		OutOfRange: res.OutOfRange,
		Points:     points,
	})
}

// --- request plumbing -------------------------------------------------------

// requestParams resolves ?date=, ?mesh= and ?threshold= (the utilization
// alert threshold) against the live defaults and the dataset's own dates.
// On failure it writes the error response and returns ok=false.
func (h *Handler) requestParams(w http.ResponseWriter, r *http.Request, e *store.Entry) (compute.Params, float64, bool) {
	p, capacity, ok := h.baseParams(w, r, e)
	if !ok {
		return compute.Params{}, 0, false
	}

	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 50 || v > 100 {
			jsonErr(w, http.StatusBadRequest,
				fmt.Sprintf("invalid utilization threshold %q: want 50–100", raw))
			return compute.Params{}, 0, false
		}
		p.UtilizationThreshold = v
	}

	return p, capacity, true
}

// baseParams resolves ?mesh= and ?date= only. The drops route uses it
// directly because its ?threshold= key means something else there.
func (h *Handler) baseParams(w http.ResponseWriter, r *http.Request, e *store.Entry) (compute.Params, float64, bool) {
	def := h.getDefaults()
	q := r.URL.Query()

	p := compute.Params{
		MeshType:             def.MeshType,
		UtilizationThreshold: def.UtilizationThreshold,
	}

	if mesh := q.Get("mesh"); mesh != "" {
		p.MeshType = mesh
	}
	capacity, ok := compute.Capacity(p.MeshType)
	if !ok {
		jsonErr(w, http.StatusBadRequest,
			fmt.Sprintf("unknown mesh type %q: want one of %v", p.MeshType, compute.MeshTypes()))
		return compute.Params{}, 0, false
	}

	if date := q.Get("date"); date != "" {
		if _, err := time.Parse(telemetry.DateFormat, date); err != nil {
			jsonErr(w, http.StatusBadRequest,
				fmt.Sprintf("invalid date %q: want %s", date, telemetry.DateFormat))
			return compute.Params{}, 0, false
		}
		p.Date = date
	} else if dates := e.Series.Dates(); len(dates) > 0 {
		// Default to the most recent day in the upload.
		p.Date = dates[len(dates)-1]
	}

	return p, capacity, true
}

// buildSummary assembles a SummaryResponse from computed metrics.
func (h *Handler) buildSummary(id string, p compute.Params, capacity float64, m compute.DerivedMetrics, dropCount int) SummaryResponse {
	return SummaryResponse{
		DatasetID:            id,
		Date:                 p.Date,
		MeshType:             p.MeshType,
		MeshCapacity:         capacity,
		UtilizationThreshold: p.UtilizationThreshold,
		TotalDepthFt:         metricResp(m.TotalDepth),
		ShakerLoad:           statResp(m.Load),
		ScreenUtilization:    statResp(m.Utilization),
		ScreenLifeHours:      metricResp(m.ScreenLifeHours),
		Status:               m.Status,
		EfficiencyMean:       metricResp(m.EfficiencyMean),
		Diagnostics:          computeDiagnostics(m, dropCount),
	}
}

// Overview builds the payload broadcast by the WebSocket hub: every live
// dataset plus its summary for the most recent date under default params.
func (h *Handler) Overview() OverviewResponse {
	def := h.getDefaults()
	capacity, _ := compute.Capacity(def.MeshType)

	entries := h.store.List()
	out := OverviewResponse{
		Datasets:    make([]DatasetOverview, 0, len(entries)),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, e := range entries {
		p := compute.Params{
			MeshType:             def.MeshType,
			UtilizationThreshold: def.UtilizationThreshold,
		}
		if dates := e.Series.Dates(); len(dates) > 0 {
			p.Date = dates[len(dates)-1]
		}
		day := compute.DeriveUtilization(e.Series.FilterDate(p.Date), capacity)
		m := compute.Summarize(day)
		drops := compute.Drops(day, compute.DefaultDropThreshold)

		out.Datasets = append(out.Datasets, DatasetOverview{
			Dataset: h.toDatasetResponse(e),
			Summary: h.buildSummary(e.ID, p, capacity, m, len(drops)),
		})
	}
	return out
}

// --- helpers ----------------------------------------------------------------

func (h *Handler) toDatasetResponse(e *store.Entry) DatasetResponse {
	return DatasetResponse{
		ID:          e.ID,
		Name:        e.Name,
		Rows:        e.Series.Len(),
		DroppedRows: e.Series.Dropped,
		Dates:       e.Series.Dates(),
		Columns: ColumnsResponse{
			HasWeightOnBit: e.Series.Schema.HasWeightOnBit,
			HasFlowRate:    e.Series.Schema.HasFlowRate,
			HasUtilization: e.Series.Schema.HasUtilization,
			DepthColumn:    e.Series.Schema.DepthColumn,
		},
		UploadedAt: e.UploadedAt.UTC().Format(time.RFC3339),
		ExpiresAt:  e.UploadedAt.Add(h.store.TTL()).UTC().Format(time.RFC3339),
	}
}

// toPoints converts readings to chart points, including only the columns the
// upload's schema resolved.
func toPoints(s telemetry.Series) []PointResponse {
	out := make([]PointResponse, 0, s.Len())
	for _, r := range s.Readings {
		pt := PointResponse{
			Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
			Load:      r.Load,
		}
		if s.Schema.HasUtilization {
			pt.Utilization = fptr(r.Utilization)
		}
		if s.Schema.HasSolidsRate {
			pt.SolidsRate = fptr(r.SolidsRate)
		}
		if s.Schema.DepthColumn != "" {
			pt.Depth = fptr(r.Depth)
		}
		out = append(out, pt)
	}
	return out
}

func metricResp(m compute.Metric) MetricResponse {
	if !m.OK() {
		return MetricResponse{Unavailable: m.Unavailable}
	}
	return MetricResponse{Value: fptr(m.Value)}
}

func statResp(s compute.Stat) StatResponse {
	if !s.OK() {
		return StatResponse{Unavailable: s.Unavailable}
	}
	return StatResponse{Mean: fptr(s.Mean), Min: fptr(s.Min), Max: fptr(s.Max)}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
