package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kobo-highlights/internal/logging"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := logging.OrNop(cfg.Logger).Named("http")

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	runs := cfg.Runs
	if runs == nil && cfg.Database != nil {
		runs = cfg.Database
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version).
		WithDeviceCheck(cfg.DeviceCheck).
		WithNotesCheck(cfg.NotesCheck)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Import endpoints
	if cfg.Importer != nil {
		importController := NewImportController(cfg.Importer, cfg.Tasks, runs, logger)
		router.POST("/api/import", importController.Import)
		router.GET("/api/import/runs", importController.ListRuns)
		router.GET("/api/import/runs/:id", importController.GetRun)
		router.GET("/api/import/tasks/:id", importController.TaskStatus)
		router.GET("/api/import/preview", importController.PreviewNotes)
	}

	// Settings endpoints
	if cfg.Settings != nil {
		settingsController := NewSettingsController(cfg.Settings, cfg.Scheduler, logger)
		router.GET("/api/settings", settingsController.GetSettings)
		router.PUT("/api/settings", settingsController.UpdateSettings)
		router.DELETE("/api/settings", settingsController.ResetSettings)
	}

	router.POST("/api/preview", PreviewTemplate)

	return router
}
