package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
	"github.com/noah-isme/sma-timetable-sync/internal/repository"
	"github.com/noah-isme/sma-timetable-sync/internal/service"
	"github.com/noah-isme/sma-timetable-sync/pkg/config"
	"github.com/noah-isme/sma-timetable-sync/pkg/kvstore"
)

// App holds the services shared by the HTTP server and the admin CLI.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     kvstore.Store
	Metrics   *service.MetricsService
	Personnel *service.PersonnelService
	Sync      *service.SyncService
	Schedules *service.ScheduleService

	closeStore func() error
}

// New opens the configured store and wires repositories and services on top of it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	level, ok := models.LevelProfileFor(cfg.Timetable.SchoolLevel)
	if !ok {
		return nil, fmt.Errorf("unknown school level %q, expected one of %v", cfg.Timetable.SchoolLevel, models.LevelNames())
	}

	store, closeStore, err := kvstore.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	return Wire(cfg, logger, store, level, closeStore), nil
}

// Wire builds an App over an already opened store.
func Wire(cfg *config.Config, logger *zap.Logger, store kvstore.Store, level models.LevelProfile, closeStore func() error) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if closeStore == nil {
		closeStore = func() error { return nil }
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	syncCfg := service.SyncConfig{
		Level:            level,
		StrictClassSlots: cfg.Timetable.StrictClassSlots,
		WriteTimeout:     cfg.Store.WriteTimeout,
	}
	personnelRepo := repository.NewPersonnelRepository(store)
	scheduleRepo := repository.NewScheduleRepository(store, personnelRepo)
	personnel := service.NewPersonnelService(personnelRepo, service.NewValidator(), logger.Named("personnel"))

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Metrics:    metrics,
		Personnel:  personnel,
		Sync:       service.NewSyncService(scheduleRepo, personnel, syncCfg, metrics, logger.Named("sync")),
		Schedules:  service.NewScheduleService(scheduleRepo, syncCfg, logger.Named("schedules")),
		closeStore: closeStore,
	}
}

// Close releases the store connection.
func (a *App) Close() error {
	return a.closeStore()
}
