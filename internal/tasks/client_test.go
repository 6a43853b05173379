package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/services"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tasks.db")

	client, err := NewClient(dbPath, DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, dbPath
}

func TestNewClient(t *testing.T) {
	_, dbPath := newTestClient(t)

	_, err := os.Stat(dbPath)
	assert.NoError(t, err, "tasks database should be created")
}

func TestClientStartStop(t *testing.T) {
	client, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

func TestClientStop_NotStarted(t *testing.T) {
	client, _ := newTestClient(t)
	assert.True(t, client.Stop(context.Background()))
}

type fakeImporter struct {
	triggers chan entities.ImportTrigger
	err      error
}

func (f *fakeImporter) Run(_ context.Context, trigger entities.ImportTrigger) (services.ImportResult, error) {
	f.triggers <- trigger
	return services.ImportResult{RunID: "run-1", BooksProcessed: 1}, f.err
}

func TestEnqueueImport(t *testing.T) {
	client, _ := newTestClient(t)

	importer := &fakeImporter{triggers: make(chan entities.ImportTrigger, 1)}
	client.Register(NewKoboImportQueue(importer, zap.NewNop()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.EnqueueImport(entities.ImportTriggerHTTP)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case trigger := <-importer.triggers:
		assert.Equal(t, entities.ImportTriggerHTTP, trigger)
	case <-time.After(5 * time.Second):
		t.Fatal("import task was not executed within timeout")
	}

	assert.Eventually(t, func() bool {
		status, err := client.Status(context.Background(), id)
		return err == nil && status == backlite.TaskStatusSuccess
	}, 5*time.Second, 50*time.Millisecond)
}

func TestKoboImportTaskConfig(t *testing.T) {
	cfg := KoboImportTask{Trigger: entities.ImportTriggerWatch}.Config()

	assert.Equal(t, KoboImportQueue, cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
	require.NotNil(t, cfg.Retention)
}

func TestKoboImportProcessor(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"success", nil, false},
		{"no highlights is not a failure", services.ErrNoHighlights, false},
		{"concurrent run is not a failure", services.ErrImportInProgress, false},
		{"import error fails the task", errors.New("device not mounted"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			importer := &fakeImporter{triggers: make(chan entities.ImportTrigger, 1), err: tt.err}
			process := KoboImportProcessor(importer, nil)

			err := process(context.Background(), KoboImportTask{Trigger: entities.ImportTriggerSchedule})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, entities.ImportTriggerSchedule, <-importer.triggers)
		})
	}

	t.Run("missing importer", func(t *testing.T) {
		assert.Error(t, KoboImportProcessor(nil, nil)(context.Background(), KoboImportTask{}))
	})
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(config.Tasks{Workers: 3, CleanupInterval: time.Minute})

	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, time.Minute, cfg.CleanupInterval)
	assert.Equal(t, DefaultConfig().ReleaseAfter, cfg.ReleaseAfter)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusString(backlite.TaskStatusPending))
	assert.Equal(t, "success", StatusString(backlite.TaskStatusSuccess))
	assert.Equal(t, "not_found", StatusString(backlite.TaskStatusNotFound))
}
