package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/kobo"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

type fakeImporter struct {
	mu       sync.Mutex
	result   services.ImportResult
	err      error
	previews []services.NotePreview
	triggers []entities.ImportTrigger
	queries  []string
}

func (f *fakeImporter) Run(ctx context.Context, trigger entities.ImportTrigger) (services.ImportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	return f.result, f.err
}

func (f *fakeImporter) Preview(ctx context.Context, query string) ([]services.NotePreview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.previews, f.err
}

type fakeQueue struct {
	enqueued []entities.ImportTrigger
	err      error
	status   backlite.TaskStatus
}

func (f *fakeQueue) EnqueueImport(trigger entities.ImportTrigger) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.enqueued = append(f.enqueued, trigger)
	return "task-1", nil
}

func (f *fakeQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return f.status, nil
}

type fakeScheduler struct {
	rescheduled int
	err         error
}

func (f *fakeScheduler) Reschedule(ctx context.Context) error {
	f.rescheduled++
	return f.err
}

func (f *fakeScheduler) IsRunning() bool { return f.rescheduled > 0 }

func (f *fakeScheduler) GetNextRunTime() *time.Time { return nil }

func doRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImport_RunsInlineWithoutQueue(t *testing.T) {
	importer := &fakeImporter{result: services.ImportResult{BooksProcessed: 2, NotesCreated: 2, HighlightsWritten: 7}}
	router := NewRouter(RouterConfig{Importer: importer})

	w := doRequest(router, "POST", "/api/import", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []entities.ImportTrigger{entities.ImportTriggerHTTP}, importer.triggers)

	var response struct {
		Message string                `json:"message"`
		Data    services.ImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 7, response.Data.HighlightsWritten)
	assert.NotEmpty(t, response.Message)
}

func TestImport_EnqueuesWithQueue(t *testing.T) {
	importer := &fakeImporter{}
	queue := &fakeQueue{}
	router := NewRouter(RouterConfig{Importer: importer, Tasks: queue})

	w := doRequest(router, "POST", "/api/import", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"task_id":"task-1"`)
	assert.Equal(t, []entities.ImportTrigger{entities.ImportTriggerHTTP}, queue.enqueued)
	assert.Empty(t, importer.triggers)
}

func TestImport_WaitBypassesQueue(t *testing.T) {
	importer := &fakeImporter{}
	queue := &fakeQueue{}
	router := NewRouter(RouterConfig{Importer: importer, Tasks: queue})

	w := doRequest(router, "POST", "/api/import", gin.H{"wait": true})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, queue.enqueued)
	assert.Len(t, importer.triggers, 1)
}

func TestImport_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"no highlights", services.ErrNoHighlights, http.StatusNotFound, "no_highlights"},
		{"device missing", kobo.ErrDatabaseNotFound, http.StatusNotFound, "device_not_found"},
		{"already running", services.ErrImportInProgress, http.StatusConflict, "import_in_progress"},
		{"storage failure", errors.New("failed to write note"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(RouterConfig{Importer: &fakeImporter{err: tt.err}})

			w := doRequest(router, "POST", "/api/import", nil)

			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestImport_EnqueueFailure(t *testing.T) {
	router := NewRouter(RouterConfig{Importer: &fakeImporter{}, Tasks: &fakeQueue{err: errors.New("queue closed")}})

	w := doRequest(router, "POST", "/api/import", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestImport_TaskStatus(t *testing.T) {
	router := NewRouter(RouterConfig{Importer: &fakeImporter{}, Tasks: &fakeQueue{status: backlite.TaskStatusSuccess}})

	w := doRequest(router, "GET", "/api/import/tasks/task-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)

	router = NewRouter(RouterConfig{Importer: &fakeImporter{}})
	w = doRequest(router, "GET", "/api/import/tasks/task-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImport_RunHistory(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, db.CreateImportRun(&entities.ImportRun{
			ID:        id,
			Trigger:   entities.ImportTriggerCLI,
			Status:    entities.ImportStatusCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	router := NewRouter(RouterConfig{Importer: &fakeImporter{}, Database: db})

	t.Run("lists newest first", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/import/runs?limit=2", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Runs []entities.ImportRun `json:"runs"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Runs, 2)
		assert.Equal(t, "run-c", response.Runs[0].ID)
		assert.Equal(t, "run-b", response.Runs[1].ID)
	})

	t.Run("rejects invalid limit", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/import/runs?limit=x", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("gets a single run", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/import/runs/run-a", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"id":"run-a"`)
	})

	t.Run("unknown run", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/import/runs/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestImport_PreviewNotes(t *testing.T) {
	importer := &fakeImporter{previews: []services.NotePreview{{Title: "Dune", Path: "Kobo/Dune.md", Highlights: 3, Content: "# Dune"}}}
	router := NewRouter(RouterConfig{Importer: importer})

	w := doRequest(router, "GET", "/api/import/preview?title=dune", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"path":"Kobo/Dune.md"`)
	assert.Equal(t, []string{"dune"}, importer.queries)

	router = NewRouter(RouterConfig{Importer: &fakeImporter{}})
	w = doRequest(router, "GET", "/api/import/preview?title=missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettings_GetUpdateReset(t *testing.T) {
	db := setupTestDB(t)
	store := settingsstore.New(db)
	sched := &fakeScheduler{}
	router := NewRouter(RouterConfig{Database: db, Settings: store, Scheduler: sched})

	w := doRequest(router, "GET", "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var initial SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initial))
	assert.Equal(t, entities.DefaultImportSettings().HighlightTemplate, initial.Import.Settings.HighlightTemplate)
	assert.NotEmpty(t, initial.KoboSync.Presets)

	template := "{{title}} by {{author}}"
	enabled := true
	schedule := "*/15 * * * *"
	w = doRequest(router, "PUT", "/api/settings", UpdateSettingsRequest{
		Import:   settingsstore.ImportSettingsUpdate{FilenameTemplate: &template},
		KoboSync: &KoboSyncUpdate{Enabled: &enabled, Schedule: &schedule},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, template, updated.Import.Settings.FilenameTemplate)
	assert.Equal(t, settingsstore.SourceDatabase, updated.Import.Sources[entities.SettingKeyTemplateFilename])
	assert.True(t, updated.KoboSync.Config.Enabled)
	assert.Equal(t, schedule, updated.KoboSync.Config.Schedule)
	assert.Equal(t, 1, sched.rescheduled)

	w = doRequest(router, "DELETE", "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var reset SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reset))
	assert.Equal(t, initial.Import.Settings.FilenameTemplate, reset.Import.Settings.FilenameTemplate)
	assert.Equal(t, 2, sched.rescheduled)
}

func TestSettings_ValidationErrors(t *testing.T) {
	db := setupTestDB(t)
	router := NewRouter(RouterConfig{Database: db, Settings: settingsstore.New(db)})

	empty := "  "
	w := doRequest(router, "PUT", "/api/settings", UpdateSettingsRequest{
		Import: settingsstore.ImportSettingsUpdate{HighlightTemplate: &empty},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	escape := "../outside"
	w = doRequest(router, "PUT", "/api/settings", UpdateSettingsRequest{
		Import: settingsstore.ImportSettingsUpdate{OutputFolder: &escape},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	badSchedule := "every tuesday"
	w = doRequest(router, "PUT", "/api/settings", UpdateSettingsRequest{
		KoboSync: &KoboSyncUpdate{Schedule: &badSchedule},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest("PUT", "/api/settings", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewTemplate(t *testing.T) {
	router := NewRouter(RouterConfig{})

	w := doRequest(router, "POST", "/api/preview", TemplatePreviewRequest{
		Template:         "{% if note %}Note: {{note}}{% endif %}{{text}}",
		Context:          map[string]any{"text": "quoted", "note": "", "title": "War: and/Peace"},
		FilenameTemplate: "{{title}}",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var response TemplatePreviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "quoted", response.Rendered)
	assert.Equal(t, "War and Peace.md", response.Filename)
}

func TestRouter_Ping(t *testing.T) {
	router := NewRouter(RouterConfig{})

	w := doRequest(router, "GET", "/ping", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}
