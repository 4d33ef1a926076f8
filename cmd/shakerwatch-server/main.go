package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shakerwatch/shakerwatch/internal/api"
	"github.com/shakerwatch/shakerwatch/internal/config"
	"github.com/shakerwatch/shakerwatch/internal/store"
	"github.com/shakerwatch/shakerwatch/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file; defaults apply when empty")
	uiDir := flag.String("ui-dir", "", "serve the dashboard static files from this directory (e.g. ui/dist); leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("shakerwatch-server starting", "config", *configPath)

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"dataset_ttl", cfg.Server.Dataset.TTL,
		"default_mesh", cfg.Server.Dashboard.DefaultMeshType,
		"utilization_threshold", cfg.Server.Dashboard.UtilizationThreshold,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Dataset store with background TTL eviction.
	st := store.New(cfg.Server.Dataset.TTL)
	go st.Run(ctx)

	apiHandler := api.New(st, defaultsOf(cfg), cfg.Server.Dataset.MaxUploadBytes)

	// WebSocket hub — pushes the overview to browsers on a ticker and after
	// each upload.
	hub := ws.New(apiHandler, cfg.Server.Dashboard.BroadcastInterval)
	go hub.Run(ctx)
	apiHandler.SetClientCount(hub.Count)
	apiHandler.SetOnUpload(hub.Poke)

	// Hot-reload display defaults when the config file changes.
	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, func(c *config.Config) {
				apiHandler.SetDefaults(defaultsOf(c))
			}); err != nil {
				slog.Error("config watch stopped", "err", err)
			}
		}()
	}

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", apiHandler)
	httpMux.Handle("/ws/stream", hub)
	httpMux.HandleFunc("/metrics", apiHandler.Metrics)

	// Optional: serve the pre-built dashboard UI from a local directory.
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		httpMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			// SPA fallback: if the requested file doesn't exist, serve index.html.
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", *uiDir)
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shakerwatch-server shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}

// defaultsOf maps the config's dashboard section to the handler's live defaults.
func defaultsOf(cfg *config.Config) api.Defaults {
	return api.Defaults{
		MeshType:             cfg.Server.Dashboard.DefaultMeshType,
		UtilizationThreshold: cfg.Server.Dashboard.UtilizationThreshold,
		ChartPointLimit:      cfg.Server.Dashboard.ChartPointLimit,
	}
}
