package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/logging"
	"github.com/mrlokans/kobo-highlights/internal/services"
)

const (
	KoboImportQueue   = "kobo_import"
	koboImportTimeout = 10 * time.Minute
)

// KoboImportTask runs one import in the background.
type KoboImportTask struct {
	Trigger entities.ImportTrigger `json:"trigger"`
}

// Config returns the queue configuration for import tasks. Imports are not
// retried: the next trigger picks up whatever a failed run missed.
func (t KoboImportTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        KoboImportQueue,
		MaxAttempts: 1,
		Timeout:     koboImportTimeout,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Importer runs one import.
type Importer interface {
	Run(ctx context.Context, trigger entities.ImportTrigger) (services.ImportResult, error)
}

// KoboImportProcessor creates a processor function for KoboImportTask.
func KoboImportProcessor(importer Importer, logger *zap.Logger) backlite.QueueProcessor[KoboImportTask] {
	logger = logging.OrNop(logger).Named("tasks")

	return func(ctx context.Context, task KoboImportTask) error {
		if importer == nil {
			return fmt.Errorf("importer not configured")
		}

		result, err := importer.Run(ctx, task.Trigger)
		switch {
		case errors.Is(err, services.ErrNoHighlights):
			logger.Info("import task found no highlights", zap.String("trigger", string(task.Trigger)))
			return nil
		case errors.Is(err, services.ErrImportInProgress):
			logger.Info("import task skipped, another import is running", zap.String("trigger", string(task.Trigger)))
			return nil
		case err != nil:
			return fmt.Errorf("kobo import (%s): %w", task.Trigger, err)
		}

		logger.Info("import task completed",
			zap.String("trigger", string(task.Trigger)),
			zap.String("run_id", result.RunID),
			zap.String("summary", result.Summary()),
		)
		return nil
	}
}

// NewKoboImportQueue creates a backlite queue for import tasks.
func NewKoboImportQueue(importer Importer, logger *zap.Logger) backlite.Queue {
	return backlite.NewQueue(KoboImportProcessor(importer, logger))
}

// EnqueueImport adds an import task and returns its id.
func (c *Client) EnqueueImport(trigger entities.ImportTrigger) (string, error) {
	ids, err := c.Add(KoboImportTask{Trigger: trigger}).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue import: %w", err)
	}
	return ids[0], nil
}
