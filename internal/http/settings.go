package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

// SettingsController reads and updates the effective import settings.
type SettingsController struct {
	store     SettingsStore
	scheduler SyncScheduler
	logger    *zap.Logger
}

func NewSettingsController(store SettingsStore, sched SyncScheduler, logger *zap.Logger) *SettingsController {
	return &SettingsController{
		store:     store,
		scheduler: sched,
		logger:    logger,
	}
}

// SchedulePreset is a predefined schedule option
type SchedulePreset struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

var schedulePresets = []SchedulePreset{
	{Label: "Every 15 minutes", Value: "*/15 * * * *", Description: "Runs at :00, :15, :30, :45"},
	{Label: "Every hour", Value: "0 * * * *", Description: "Runs at the top of every hour"},
	{Label: "Every 6 hours", Value: "0 */6 * * *", Description: "Runs at midnight, 6am, noon, 6pm"},
	{Label: "Daily at midnight", Value: "0 0 * * *", Description: "Runs once daily at 00:00"},
}

// KoboSyncResponse describes the periodic import.
type KoboSyncResponse struct {
	Config    settingsstore.KoboSyncConfigInfo `json:"config"`
	Status    settingsstore.KoboSyncStatus     `json:"status"`
	NextRun   *time.Time                       `json:"next_run,omitempty"`
	IsRunning bool                             `json:"is_running"`
	Presets   []SchedulePreset                 `json:"presets"`
}

// SettingsResponse is the response for GET /api/settings
type SettingsResponse struct {
	Import                 settingsstore.ImportSettingsInfo `json:"import"`
	KoboDatabasePath       string                           `json:"kobo_database_path"`
	KoboDatabasePathSource string                           `json:"kobo_database_path_source"`
	KoboSync               KoboSyncResponse                 `json:"kobo_sync"`
}

// KoboSyncUpdate changes the periodic import; nil fields are left alone.
type KoboSyncUpdate struct {
	Enabled  *bool   `json:"enabled"`
	Schedule *string `json:"schedule"`
}

// UpdateSettingsRequest is the request body for PUT /api/settings
type UpdateSettingsRequest struct {
	Import           settingsstore.ImportSettingsUpdate `json:"import"`
	KoboDatabasePath *string                            `json:"kobo_database_path"`
	KoboSync         *KoboSyncUpdate                    `json:"kobo_sync"`
}

// GetSettings handles GET /api/settings
func (sc *SettingsController) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, sc.current())
}

func (sc *SettingsController) current() SettingsResponse {
	sync := KoboSyncResponse{
		Config:  sc.store.GetKoboSyncConfigInfo(),
		Status:  sc.store.GetKoboSyncStatus(),
		Presets: schedulePresets,
	}
	if sc.scheduler != nil {
		sync.NextRun = sc.scheduler.GetNextRunTime()
		sync.IsRunning = sc.scheduler.IsRunning()
	}

	return SettingsResponse{
		Import:                 sc.store.GetImportSettingsInfo(),
		KoboDatabasePath:       sc.store.GetKoboDatabasePath(),
		KoboDatabasePathSource: sc.store.GetKoboDatabasePathSource(),
		KoboSync:               sync,
	}
}

// UpdateSettings handles PUT /api/settings
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := sc.store.UpdateImportSettings(req.Import); err != nil {
		sc.respondUpdateError(c, err, "update import settings")
		return
	}

	if req.KoboDatabasePath != nil {
		if err := sc.store.SetKoboDatabasePath(strings.TrimSpace(*req.KoboDatabasePath)); err != nil {
			sc.respondUpdateError(c, err, "update kobo database path")
			return
		}
	}

	if req.KoboSync != nil {
		if req.KoboSync.Schedule != nil {
			if err := sc.store.SetKoboSyncSchedule(strings.TrimSpace(*req.KoboSync.Schedule)); err != nil {
				sc.respondUpdateError(c, err, "update sync schedule")
				return
			}
		}
		if req.KoboSync.Enabled != nil {
			if err := sc.store.SetKoboSyncEnabled(*req.KoboSync.Enabled); err != nil {
				sc.respondUpdateError(c, err, "update sync enabled")
				return
			}
		}
		if !sc.reschedule(c) {
			return
		}
	}

	c.JSON(http.StatusOK, sc.current())
}

// ResetSettings handles DELETE /api/settings: database overrides are removed,
// reverting every setting to its environment value or default.
func (sc *SettingsController) ResetSettings(c *gin.Context) {
	if err := sc.store.ClearImportSettings(); err != nil {
		respondInternalError(c, sc.logger, err, "clear import settings")
		return
	}
	if err := sc.store.ClearKoboSyncSettings(); err != nil {
		respondInternalError(c, sc.logger, err, "clear sync settings")
		return
	}
	if !sc.reschedule(c) {
		return
	}

	c.JSON(http.StatusOK, sc.current())
}

func (sc *SettingsController) reschedule(c *gin.Context) bool {
	if sc.scheduler == nil {
		return true
	}
	if err := sc.scheduler.Reschedule(c.Request.Context()); err != nil {
		respondInternalError(c, sc.logger, err, "reschedule sync")
		return false
	}
	return true
}

func (sc *SettingsController) respondUpdateError(c *gin.Context, err error, context string) {
	if errors.Is(err, settingsstore.ErrInvalidSetting) {
		respondBadRequest(c, err.Error())
		return
	}
	respondInternalError(c, sc.logger, err, context)
}
