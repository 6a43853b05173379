package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/database"
	"github.com/mrlokans/kobo-highlights/internal/entities"
	http_controllers "github.com/mrlokans/kobo-highlights/internal/http"
	"github.com/mrlokans/kobo-highlights/internal/kobo"
	"github.com/mrlokans/kobo-highlights/internal/logging"
	"github.com/mrlokans/kobo-highlights/internal/scheduler"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
	"github.com/mrlokans/kobo-highlights/internal/storage"
	"github.com/mrlokans/kobo-highlights/internal/tasks"
	"github.com/mrlokans/kobo-highlights/internal/watcher"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background producers of imports before the server goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server Shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func Run(cfg *config.Config, version string) {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kobo-highlights", zap.String("version", version))

	if cfg.HTTP.Host != "127.0.0.1" && cfg.HTTP.Host != "localhost" {
		logger.Warn("The API has no authentication and is reachable beyond localhost", zap.String("host", cfg.HTTP.Host))
	}

	if !cfg.Tasks.Enabled {
		logger.Info("Task queue disabled, imports requested over HTTP run inline")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	settings := settingsstore.New(db)

	koboPath := func() string {
		if p := settings.GetKoboDatabasePath(); p != "" {
			return p
		}
		return cfg.Kobo.DatabasePath
	}

	notes := storage.NewOsNoteStore(cfg.Notes.OutputDir)
	if err := notes.EnsureFolder(context.Background(), ""); err != nil {
		logger.Fatal("Notes directory is not usable", zap.String("dir", cfg.Notes.OutputDir), zap.Error(err))
	}
	logger.Info("Writing notes", zap.String("dir", cfg.Notes.OutputDir))

	importService := services.NewImportService(
		services.KoboSourceOpener(koboPath),
		settings,
		notes,
		services.WithRunRecorder(db),
		services.WithLogger(logger.Named("import")),
	)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Tasks.DatabasePath, tasks.NewConfig(cfg.Tasks), logger)
		if err != nil {
			logger.Fatal("Failed to initialize task queue", zap.Error(err))
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("Error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(tasks.NewKoboImportQueue(importService, logger))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Periodic import
	envSync := settingsstore.NewKoboSyncConfigFromEnv(cfg.KoboSync)
	effectiveSync := settings.GetKoboSyncConfig()
	logger.Info("Sync configuration",
		zap.Bool("enabled", effectiveSync.Enabled),
		zap.String("schedule", effectiveSync.Schedule),
		zap.Bool("overridden", effectiveSync != envSync),
	)

	syncScheduler := scheduler.NewKoboSyncScheduler(importService, settings, logger)
	if err := syncScheduler.Start(bgCtx); err != nil {
		logger.Error("Failed to start sync scheduler", zap.Error(err))
	}

	// Import when the device database changes
	var dbWatcher *watcher.DatabaseWatcher
	if cfg.Watch.Enabled {
		dbWatcher = startWatcher(bgCtx, cfg, koboPath(), importService, taskClient, logger)
	}

	routerCfg := http_controllers.RouterConfig{
		Importer:  importService,
		Database:  db,
		Settings:  settings,
		Scheduler: syncScheduler,
		Version:   version,
		Logger:    logger,
		DeviceCheck: func() error {
			_, err := kobo.NewReader(koboPath())
			return err
		},
		NotesCheck: func() error {
			return notes.EnsureFolder(context.Background(), "")
		},
	}
	if taskClient != nil {
		routerCfg.Tasks = taskClient
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if dbWatcher != nil {
			dbWatcher.Stop()
		}
		syncScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		bgCancel()
	}

	Serve(router, cfg, logger, onShutdown)
}

// startWatcher watches the device database and queues an import on change.
// It returns nil when the database location cannot be watched.
func startWatcher(ctx context.Context, cfg *config.Config, dbPath string, importer *services.ImportService, queue *tasks.Client, logger *zap.Logger) *watcher.DatabaseWatcher {
	if dbPath == "" {
		detected, err := kobo.DefaultDatabasePath()
		if err != nil {
			logger.Warn("Database watch disabled, no Kobo database path configured or detected", zap.Error(err))
			return nil
		}
		dbPath = detected
	}

	onChange := func(ctx context.Context) {
		if queue != nil {
			if _, err := queue.EnqueueImport(entities.ImportTriggerWatch); err != nil {
				logger.Error("Failed to enqueue import", zap.Error(err))
			}
			return
		}
		_, err := importer.Run(ctx, entities.ImportTriggerWatch)
		if err != nil && !errors.Is(err, services.ErrImportInProgress) && !errors.Is(err, services.ErrNoHighlights) {
			logger.Error("Import after database change failed", zap.Error(err))
		}
	}

	w := watcher.New(dbPath, onChange, watcher.WithDebounce(cfg.Watch.Debounce), watcher.WithLogger(logger.Named("watcher")))
	if err := w.Start(ctx); err != nil {
		logger.Warn("Database watch disabled", zap.String("path", dbPath), zap.Error(err))
		return nil
	}
	return w
}
