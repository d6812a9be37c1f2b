package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gtaskall/gtaskall/internal/config"
	"github.com/gtaskall/gtaskall/internal/gtasks"
	"github.com/gtaskall/gtaskall/internal/registry"
	"github.com/gtaskall/gtaskall/internal/store"
	syncpkg "github.com/gtaskall/gtaskall/internal/sync"
)

// app bundles the pieces every command needs: configuration, the local
// store, the account registry, and the Tasks API client.
type app struct {
	cfg      *config.AppConfig
	store    *store.SQLiteStore
	registry *registry.Registry
	client   *gtasks.Client
	logger   *slog.Logger
}

func openApp(ctx context.Context, dbPath string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if dbPath == "" {
		dbPath = cfg.DBPath
	}

	logger := slog.Default()

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", dbPath, err)
	}

	reg := registry.New(st, logger)
	if err := reg.Load(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		store:    st,
		registry: reg,
		client:   gtasks.NewClient(),
		logger:   logger,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// syncedTasks runs one sync cycle and returns the merged snapshot. When
// every account fails (offline, all tokens expired) it falls back to
// the cached snapshot from the last successful run.
func (a *app) syncedTasks(ctx context.Context) (*syncpkg.Engine, error) {
	engine := syncpkg.NewEngine(a.registry, a.client, a.store, a.logger)
	if err := engine.RestoreFromStore(ctx); err != nil {
		return nil, err
	}
	if err := engine.RunCycle(ctx); err != nil {
		a.logger.Warn("sync failed, showing cached tasks", "error", err)
	}
	return engine, nil
}
