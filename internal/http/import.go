package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrlokans/kobo-highlights/internal/database/runs"
	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/kobo"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/tasks"
)

const maxRunsLimit = 100

// ImportController triggers imports and exposes their history.
type ImportController struct {
	importer ImportRunner
	queue    ImportEnqueuer
	runs     RunHistory
	logger   *zap.Logger
}

// NewImportController creates the controller. queue and runs may be nil.
func NewImportController(importer ImportRunner, queue ImportEnqueuer, runs RunHistory, logger *zap.Logger) *ImportController {
	return &ImportController{
		importer: importer,
		queue:    queue,
		runs:     runs,
		logger:   logger,
	}
}

// ImportRequest is the optional body of POST /api/import.
type ImportRequest struct {
	// Wait runs the import inline even when a task queue is configured.
	Wait bool `json:"wait" form:"wait"`
}

// Import handles POST /api/import.
// With a task queue the import is enqueued and 202 is returned with the task id.
// Otherwise it runs inline and the result summary is returned.
func (ic *ImportController) Import(c *gin.Context) {
	var req ImportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			respondBadRequest(c, "invalid request: "+err.Error())
			return
		}
	}

	if ic.queue != nil && !req.Wait {
		taskID, err := ic.queue.EnqueueImport(entities.ImportTriggerHTTP)
		if err != nil {
			respondInternalError(c, ic.logger, err, "enqueue import")
			return
		}
		respondAccepted(c, "import enqueued", gin.H{"task_id": taskID})
		return
	}

	result, err := ic.importer.Run(c.Request.Context(), entities.ImportTriggerHTTP)
	if err != nil {
		ic.respondImportError(c, err)
		return
	}

	respondSuccess(c, result.Summary(), result)
}

func (ic *ImportController) respondImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoHighlights):
		respondNotFound(c, "no highlights found on the device", "no_highlights")
	case errors.Is(err, kobo.ErrDatabaseNotFound):
		respondNotFound(c, "Kobo database not found, is the device connected?", "device_not_found")
	case errors.Is(err, services.ErrImportInProgress):
		respondConflict(c, "an import is already running", "import_in_progress")
	default:
		respondInternalError(c, ic.logger, err, "run import")
	}
}

// ListRuns handles GET /api/import/runs?limit=N, newest first.
func (ic *ImportController) ListRuns(c *gin.Context) {
	if ic.runs == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []entities.ImportRun{}})
		return
	}

	limit, ok := parseLimitQuery(c, "limit", runs.DefaultListLimit, maxRunsLimit)
	if !ok {
		return
	}

	list, err := ic.runs.ListImportRuns(limit)
	if err != nil {
		respondInternalError(c, ic.logger, err, "list import runs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": list})
}

// GetRun handles GET /api/import/runs/:id
func (ic *ImportController) GetRun(c *gin.Context) {
	if ic.runs == nil {
		respondNotFound(c, "import run not found", "")
		return
	}

	run, err := ic.runs.GetImportRun(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "import run not found", "")
		return
	}
	if err != nil {
		respondInternalError(c, ic.logger, err, "get import run")
		return
	}
	c.JSON(http.StatusOK, run)
}

// TaskStatus handles GET /api/import/tasks/:id
func (ic *ImportController) TaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if ic.queue == nil {
		respondNotFound(c, "task queue is disabled", "tasks_disabled")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := ic.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, ic.logger, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": tasks.StatusString(status),
	})
}

// PreviewNotes handles GET /api/import/preview?title=...
// It renders the notes an import would generate from scratch without writing them.
func (ic *ImportController) PreviewNotes(c *gin.Context) {
	previews, err := ic.importer.Preview(c.Request.Context(), c.Query("title"))
	if err != nil {
		ic.respondImportError(c, err)
		return
	}
	if len(previews) == 0 {
		respondNotFound(c, "no book matches the given title", "no_match")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": previews})
}
