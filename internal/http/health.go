package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kobo-highlights/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// probe is a named dependency check. Failing required probes make the
// service unhealthy; the rest are reported only.
type probe struct {
	name     string
	required bool
	check    func() error
}

type HealthController struct {
	db      *database.Database
	version string
	probes  []probe
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{db: db, version: version}
}

// WithDeviceCheck reports whether the Kobo database can be opened. The device
// is usually unplugged, so this never affects the overall status.
func (h *HealthController) WithDeviceCheck(check func() error) *HealthController {
	return h.withProbe("kobo_database", false, check)
}

// WithNotesCheck reports whether the notes directory is usable. Imports cannot
// succeed without it.
func (h *HealthController) WithNotesCheck(check func() error) *HealthController {
	return h.withProbe("notes_directory", true, check)
}

func (h *HealthController) withProbe(name string, required bool, check func() error) *HealthController {
	if check != nil {
		h.probes = append(h.probes, probe{name: name, required: required, check: check})
	}
	return h
}

func (h *HealthController) pingDatabase() error {
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	healthy := true

	if h.db == nil {
		checks["database"] = "not configured"
	} else if err := h.pingDatabase(); err != nil {
		checks["database"] = "error: " + err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	for _, p := range h.probes {
		err := p.check()
		switch {
		case err == nil:
			checks[p.name] = "ok"
		case p.required:
			checks[p.name] = "error: " + err.Error()
			healthy = false
		default:
			checks[p.name] = "unavailable: " + err.Error()
		}
	}

	response := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}
	statusCode := http.StatusOK
	if !healthy {
		response.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, response)
}
