package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsrlab/tabled/internal/config"
	"github.com/tsrlab/tabled/internal/home"
	"github.com/tsrlab/tabled/internal/pipeline"
	"github.com/tsrlab/tabled/internal/server"
	"github.com/tsrlab/tabled/internal/service"
	"github.com/tsrlab/tabled/internal/store"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tabled server",
	Long: `Start the tabled HTTP server.

The server accepts image uploads, processes each through the table
structure recognition pipeline in the background, and serves job state
and result documents.

Examples:
  tabled serve                    # Start on default port 8080
  tabled serve --port 3000        # Start on custom port
  tabled serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load configuration with hot reload
		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfgMgr.OnChange(func(c *config.Config) {
			logger.Info("configuration reloaded",
				"backend", c.Storage.Backend,
				"stage_timeout", c.Pipeline.StageTimeout,
			)
		})
		cfgMgr.WatchConfig()
		cfg := cfgMgr.Get()

		// State store is always filesystem-backed; artifacts follow config
		states := store.NewStateStore(h, logger)
		var artifacts store.ArtifactStore
		switch cfg.Storage.Backend {
		case "", "fs":
			artifacts = store.NewFSArtifactStore(h, logger)
		case "minio":
			ms, err := store.NewMinioArtifactStore(cfg.ResolvedMinio(), logger)
			if err != nil {
				return fmt.Errorf("failed to set up minio artifact store: %w", err)
			}
			if err := ms.EnsureBucket(ctx); err != nil {
				return fmt.Errorf("failed to ensure artifact bucket: %w", err)
			}
			artifacts = ms
		default:
			return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
		}

		coord, err := pipeline.NewCoordinator(pipeline.Config{
			States:       states,
			Artifacts:    artifacts,
			Executors:    pipeline.NewMockExecutors(cfg.Pipeline.MockStageDelay),
			StageTimeout: cfg.Pipeline.StageTimeout,
			Logger:       logger,
		})
		if err != nil {
			return err
		}

		svc := service.New(states, artifacts, coord, logger)

		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = cfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:           host,
			Port:           port,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			Service:        svc,
			Logger:         logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides config)")

	rootCmd.AddCommand(serveCmd)
}
