package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gtaskall/gtaskall/internal/instrumentation"
	"github.com/gtaskall/gtaskall/internal/server"
	syncpkg "github.com/gtaskall/gtaskall/internal/sync"
)

func newRunCmd() *cobra.Command {
	var (
		dbPath         string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync daemon",
		Long: `Run the background sync daemon. It periodically fetches tasks from every
connected account, keeps the merged snapshot in the local database, and
exposes Prometheus metrics and health endpoints when metrics are enabled.

The daemon syncs every 15 seconds while the UI reports itself visible and
every 60 seconds otherwise. Stop it with SIGINT or SIGTERM; the current
snapshot is flushed to the database on the way out.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			app, err := openApp(ctx, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if !metricsEnabled {
				metricsEnabled = app.cfg.Metrics.Enabled
			}
			if metricsAddr == "" {
				metricsAddr = app.cfg.Metrics.Address
			}

			instrConfig := instrumentation.DefaultConfig()
			instrConfig.ServiceVersion = version
			if err := instrConfig.Validate(); err != nil {
				return err
			}

			provider, err := instrumentation.NewProvider(ctx, instrConfig)
			if err != nil {
				return fmt.Errorf("failed to create instrumentation provider: %w", err)
			}
			defer func() {
				if err := provider.Shutdown(context.Background()); err != nil {
					app.logger.Error("instrumentation shutdown failed", "error", err)
				}
			}()

			health := server.NewHealthChecker()

			var metricsServer *server.MetricsServer
			if metricsEnabled && provider.Enabled() {
				metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
					Addr:                    metricsAddr,
					InstrumentationProvider: provider,
					Health:                  health,
				})
				if err != nil {
					return fmt.Errorf("failed to create metrics server: %w", err)
				}

				metricsReady := make(chan struct{})
				metricsErr := make(chan error, 1)
				go func() {
					if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
						metricsErr <- err
					}
					close(metricsErr)
				}()

				select {
				case <-metricsReady:
					app.logger.Info("metrics server started", "addr", metricsServer.Addr())
				case err := <-metricsErr:
					return fmt.Errorf("metrics server failed to start: %w", err)
				case <-time.After(5 * time.Second):
					return fmt.Errorf("metrics server startup timed out")
				}
			}

			app.client.SetRecorder(provider.Metrics())
			engine := syncpkg.NewEngine(app.registry, app.client, app.store, app.logger,
				syncpkg.WithRecorder(provider.Metrics()))
			if err := engine.RestoreFromStore(ctx); err != nil {
				return err
			}

			scheduler := syncpkg.NewScheduler(engine, app.logger, syncpkg.SchedulerConfig{
				VisibleInterval: time.Duration(app.cfg.Sync.VisibleIntervalSec) * time.Second,
				HiddenInterval:  time.Duration(app.cfg.Sync.HiddenIntervalSec) * time.Second,
				Debounce:        time.Duration(app.cfg.Sync.DebounceSec) * time.Second,
			})

			health.SetReady(true)
			app.logger.Info("sync daemon started",
				"accounts", len(app.registry.All()),
				"version", version)

			// Blocks until the context is cancelled by a signal.
			scheduler.Start(ctx)

			health.SetShuttingDown()
			scheduler.Close()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer shutdownCancel()

			if err := engine.Close(shutdownCtx); err != nil {
				app.logger.Error("snapshot flush failed", "error", err)
			}
			if metricsServer != nil {
				if err := metricsServer.Shutdown(shutdownCtx); err != nil {
					app.logger.Error("metrics server shutdown failed", "error", err)
				}
			}

			app.logger.Info("sync daemon stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the local database (default from config)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics", false, "serve Prometheus metrics and health endpoints")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics listen address (default from config)")

	return cmd
}
