package api

// DatasetResponse describes one uploaded dataset.
type DatasetResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Rows        int             `json:"rows"`
	DroppedRows int             `json:"dropped_rows"`
	Dates       []string        `json:"dates"`
	Columns     ColumnsResponse `json:"columns"`
	UploadedAt  string          `json:"uploaded_at"` // RFC3339
	ExpiresAt   string          `json:"expires_at"`  // RFC3339
}

// ColumnsResponse is the optional-column schema detected at upload.
type ColumnsResponse struct {
	HasWeightOnBit bool   `json:"has_weight_on_bit"`
	HasFlowRate    bool   `json:"has_flow_rate"`
	HasUtilization bool   `json:"has_utilization"`
	DepthColumn    string `json:"depth_column,omitempty"`
}

// MetricResponse is a scalar that is either present or explains its absence.
type MetricResponse struct {
	Value       *float64 `json:"value,omitempty"`
	Unavailable string   `json:"unavailable,omitempty"`
}

// StatResponse is a mean/min/max triple, available or not as a unit.
type StatResponse struct {
	Mean        *float64 `json:"mean,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Unavailable string   `json:"unavailable,omitempty"`
}

// SummaryResponse is the payload for GET /api/v1/datasets/{id}/summary.
type SummaryResponse struct {
	DatasetID            string  `json:"dataset_id"`
	Date                 string  `json:"date"`
	MeshType             string  `json:"mesh_type"`
	MeshCapacity         float64 `json:"mesh_capacity"`
	UtilizationThreshold float64 `json:"utilization_threshold"`

	TotalDepthFt      MetricResponse `json:"total_depth_ft"`
	ShakerLoad        StatResponse   `json:"shaker_load"`
	ScreenUtilization StatResponse   `json:"screen_utilization"`
	ScreenLifeHours   MetricResponse `json:"screen_life_hours"`
	Status            string         `json:"status"`
	EfficiencyMean    MetricResponse `json:"efficiency_mean"`

	Diagnostics []DiagnosticHint `json:"diagnostics"`
}

// PointResponse is one charted reading.
type PointResponse struct {
	Timestamp   string   `json:"timestamp"` // RFC3339
	Load        float64  `json:"load"`
	Utilization *float64 `json:"utilization,omitempty"`
	SolidsRate  *float64 `json:"solids_rate,omitempty"`
	Depth       *float64 `json:"depth,omitempty"`
}

// SeriesResponse is the payload for GET /api/v1/datasets/{id}/series.
type SeriesResponse struct {
	DatasetID string          `json:"dataset_id"`
	Date      string          `json:"date"`
	TotalRows int             `json:"total_rows"` // rows on the date before the limit
	Points    []PointResponse `json:"points"`
}

// DropsResponse is the payload for GET /api/v1/datasets/{id}/drops.
type DropsResponse struct {
	DatasetID string          `json:"dataset_id"`
	Date      string          `json:"date"`
	Threshold float64         `json:"threshold"`
	Count     int             `json:"count"`
	Points    []PointResponse `json:"points"`
}

// EfficiencyPointResponse is one row of the efficiency series.
type EfficiencyPointResponse struct {
	Timestamp string  `json:"timestamp"` // RFC3339
	Value     float64 `json:"value"`
}

// EfficiencyResponse is the payload for GET /api/v1/datasets/{id}/efficiency.
type EfficiencyResponse struct {
	DatasetID  string                    `json:"dataset_id"`
	Date       string                    `json:"date"`
	Mean       MetricResponse            `json:"mean"`
	Removed    float64                   `json:"removed"`
	Losses     float64                   `json:"losses"`
	OutOfRange bool                      `json:"out_of_range"`
	Points     []EfficiencyPointResponse `json:"points"`
}

// MeshResponse is one mesh grade in GET /api/v1/meshes.
type MeshResponse struct {
	Name     string  `json:"name"`
	Capacity float64 `json:"capacity"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"`
	DatasetCount int    `json:"dataset_count"`
	ClientCount  int    `json:"client_count"`
}

// DatasetOverview is one dataset's card in the overview broadcast.
type DatasetOverview struct {
	Dataset DatasetResponse `json:"dataset"`
	Summary SummaryResponse `json:"summary"` // latest date, default params
}

// OverviewResponse is the payload for GET /api/v1/overview and the WebSocket
// broadcast envelope data.
type OverviewResponse struct {
	Datasets    []DatasetOverview `json:"datasets"`
	GeneratedAt string            `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// fptr returns a pointer to v, for optional JSON fields.
func fptr(v float64) *float64 { return &v }
