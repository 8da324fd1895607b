package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/common"
	"github.com/ternarybob/imunetrack/internal/handlers"
	"github.com/ternarybob/imunetrack/internal/interfaces"
	"github.com/ternarybob/imunetrack/internal/models"
	"github.com/ternarybob/imunetrack/internal/services/fixtures"
	"github.com/ternarybob/imunetrack/internal/storage"
)

// App holds all mock backend components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Fixture reset schedule (standalone binary only)
	ResetScheduler *fixtures.Scheduler

	// HTTP handlers
	UsuarioHandler   *handlers.UsuarioHandler
	VacinaHandler    *handlers.VacinaHandler
	HistoricoHandler *handlers.HistoricoHandler
	EventsHandler    *handlers.EventsHandler
	SystemHandler    *handlers.SystemHandler

	resetMu sync.Mutex
}

// New initializes the application with all dependencies and loads the fixtures
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initHandlers()

	if err := app.Reset(context.Background()); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}

	app.ResetScheduler = fixtures.NewScheduler(app.Reset, logger)

	logger.Info().
		Str("storage", cfg.Storage.Type).
		Str("seed_file", cfg.Mock.SeedFile).
		Msg("Mock backend initialized")

	return app, nil
}

func (a *App) initDatabase() error {
	sm, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.StorageManager = sm
	return nil
}

func (a *App) initHandlers() {
	tokens := handlers.NewTokenService(a.Config.Auth.JWTSecret, a.Config.TokenTTL())

	a.EventsHandler = handlers.NewEventsHandler(a.Logger, a.Config.Mock.EventHistory)
	a.UsuarioHandler = handlers.NewUsuarioHandler(
		a.StorageManager.UserStorage(),
		a.StorageManager.HistoryStorage(),
		tokens,
		a.EventsHandler,
		a.Logger,
	)
	a.VacinaHandler = handlers.NewVacinaHandler(
		a.StorageManager.VaccineStorage(),
		a.EventsHandler,
		a.Logger,
	)
	a.HistoricoHandler = handlers.NewHistoricoHandler(
		a.StorageManager.UserStorage(),
		a.StorageManager.VaccineStorage(),
		a.StorageManager.HistoryStorage(),
		a.EventsHandler,
		a.Logger,
	)
	a.SystemHandler = handlers.NewSystemHandler(a.Reset, a.Logger)
}

// Reset reloads the fixtures, clears the event history and publishes a reset event.
// The seed file is re-read on every reset so edits apply without a restart.
func (a *App) Reset(ctx context.Context) error {
	a.resetMu.Lock()
	defer a.resetMu.Unlock()

	seed, err := storage.LoadSeed(a.Config)
	if err != nil {
		return err
	}
	if err := a.StorageManager.Reset(ctx, seed); err != nil {
		return fmt.Errorf("failed to reset storage: %w", err)
	}

	a.EventsHandler.Clear()
	a.EventsHandler.Publish(models.EventoReset, 0, map[string]int{
		"usuarios":  len(seed.Usuarios),
		"vacinas":   len(seed.Vacinas),
		"historico": len(seed.Historico),
	})
	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	if a.ResetScheduler != nil {
		a.ResetScheduler.Stop()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
