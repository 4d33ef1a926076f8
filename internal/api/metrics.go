package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// counters are the server's operational counters, exposed at /metrics.
type counters struct {
	uploads      atomic.Uint64
	uploadErrors atomic.Uint64
	rowsParsed   atomic.Uint64
	rowsDropped  atomic.Uint64
}

// Metrics serves GET /metrics in the Prometheus text exposition format.
// Mount it at the HTTP mux root, outside /api/v1.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	families := []*dto.MetricFamily{
		counterFamily("shakerwatch_uploads_total",
			"Number of CSV uploads accepted.",
			float64(h.counters.uploads.Load())),
		counterFamily("shakerwatch_upload_errors_total",
			"Number of rejected uploads (bad form, parse failure, too large).",
			float64(h.counters.uploadErrors.Load())),
		counterFamily("shakerwatch_rows_parsed_total",
			"Telemetry rows successfully parsed across all uploads.",
			float64(h.counters.rowsParsed.Load())),
		counterFamily("shakerwatch_rows_dropped_total",
			"Telemetry rows silently dropped during parsing.",
			float64(h.counters.rowsDropped.Load())),
		gaugeFamily("shakerwatch_datasets_live",
			"Datasets currently within their TTL.",
			float64(len(h.store.List()))),
		gaugeFamily("shakerwatch_ws_clients",
			"Connected WebSocket dashboard clients.",
			float64(h.clients())),
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			slog.Error("api: encode metric family failed", "family", mf.GetName(), "err", err)
			return
		}
	}
}

func counterFamily(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: &name,
		Help: &help,
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{
			{Counter: &dto.Counter{Value: &value}},
		},
	}
}

func gaugeFamily(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: &name,
		Help: &help,
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: &value}},
		},
	}
}
