package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shakerwatch/shakerwatch/internal/compute"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort             = 8080
	DefaultDatasetTTL           = time.Hour
	DefaultMaxUploadBytes       = 32 << 20 // 32 MiB
	DefaultBroadcastInterval    = 5 * time.Second
	DefaultMeshType             = compute.MeshAPI140
	DefaultUtilizationThreshold = 80
	DefaultChartPointLimit      = 1000
)

// Config is the top-level configuration parsed from config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, WebSocket hub and UI listen on.
	HTTPPort int `yaml:"http_port"`

	// Dataset controls in-memory upload retention.
	Dataset DatasetConfig `yaml:"dataset"`

	// Dashboard holds display defaults used when a request does not
	// override them. These reload live via Watch.
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DatasetConfig controls the upload cache.
type DatasetConfig struct {
	// TTL is how long a parsed upload stays addressable after it arrives.
	// Default: 1h.
	TTL time.Duration `yaml:"ttl"`

	// MaxUploadBytes caps the accepted CSV size. Default: 32 MiB.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// DashboardConfig holds per-request display defaults.
type DashboardConfig struct {
	// BroadcastInterval is how often the WebSocket hub pushes the overview.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// DefaultMeshType is the mesh grade assumed when a request names none.
	// One of: API 100 | API 140 | API 170 | API 200.
	DefaultMeshType string `yaml:"default_mesh_type"`

	// UtilizationThreshold (50–100) is the operator's alert threshold.
	// It is surfaced to the UI and reserved for future flagging.
	UtilizationThreshold float64 `yaml:"utilization_threshold"`

	// ChartPointLimit caps the series returned for charting (last N rows).
	ChartPointLimit int `yaml:"chart_point_limit"`
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values. It is also
// what the server runs with when no config file is given.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Dataset: DatasetConfig{
				TTL:            DefaultDatasetTTL,
				MaxUploadBytes: DefaultMaxUploadBytes,
			},
			Dashboard: DashboardConfig{
				BroadcastInterval:    DefaultBroadcastInterval,
				DefaultMeshType:      DefaultMeshType,
				UtilizationThreshold: DefaultUtilizationThreshold,
				ChartPointLimit:      DefaultChartPointLimit,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	srv := cfg.Server
	if srv.HTTPPort <= 0 || srv.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", srv.HTTPPort)
	}
	if srv.Dataset.TTL <= 0 {
		return fmt.Errorf("server.dataset.ttl must be positive")
	}
	if srv.Dataset.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.dataset.max_upload_bytes must be positive")
	}
	if srv.Dashboard.BroadcastInterval <= 0 {
		return fmt.Errorf("server.dashboard.broadcast_interval must be positive")
	}
	if _, ok := compute.Capacity(srv.Dashboard.DefaultMeshType); !ok {
		return fmt.Errorf("server.dashboard.default_mesh_type %q unknown: want one of %v",
			srv.Dashboard.DefaultMeshType, compute.MeshTypes())
	}
	if t := srv.Dashboard.UtilizationThreshold; t < 50 || t > 100 {
		return fmt.Errorf("server.dashboard.utilization_threshold %.0f is out of range [50, 100]", t)
	}
	if srv.Dashboard.ChartPointLimit <= 0 {
		return fmt.Errorf("server.dashboard.chart_point_limit must be positive")
	}
	return nil
}
