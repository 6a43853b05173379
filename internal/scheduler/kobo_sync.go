package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/logging"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Importer runs one import.
type Importer interface {
	Run(ctx context.Context, trigger entities.ImportTrigger) (services.ImportResult, error)
}

// SyncSettings provides the schedule and records the outcome of each run.
type SyncSettings interface {
	GetKoboSyncConfig() settingsstore.KoboSyncConfig
	SetKoboSyncStatus(status, message string) error
}

// KoboSyncScheduler runs imports periodically on a cron schedule
type KoboSyncScheduler struct {
	importer Importer
	settings SyncSettings
	logger   *zap.Logger

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	stopped   chan struct{} // closed by Stop, ends the cancellation watcher
	baseCtx   context.Context
}

// NewKoboSyncScheduler creates a new scheduler instance
func NewKoboSyncScheduler(importer Importer, settings SyncSettings, logger *zap.Logger) *KoboSyncScheduler {
	return &KoboSyncScheduler{
		importer: importer,
		settings: settings,
		logger:   logging.OrNop(logger).Named("kobo_sync"),
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if sync is enabled
func (s *KoboSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	s.baseCtx = ctx

	config := s.settings.GetKoboSyncConfig()

	if !config.Enabled {
		s.logger.Info("scheduler disabled")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.runSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	stopped := make(chan struct{})
	s.stopped = stopped

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule)
	s.logger.Info("scheduler started",
		zap.String("schedule", config.Schedule),
		zap.String("description", settingsstore.GetCronDescription(config.Schedule)),
		zap.Timep("next_run", nextRun),
	)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopped:
		}
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running import to finish
func (s *KoboSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron.Remove(s.entryID)

	s.isRunning = false
	close(s.stopped)

	s.logger.Info("scheduler stopped")
}

// Reschedule applies changed settings. The job keeps the context of the
// first Start call, so a short-lived request context never ends it.
func (s *KoboSyncScheduler) Reschedule(ctx context.Context) error {
	s.mu.RLock()
	if s.baseCtx != nil {
		ctx = s.baseCtx
	}
	s.mu.RUnlock()

	s.Stop()
	return s.Start(ctx)
}

// RunNow triggers an immediate import in the background
func (s *KoboSyncScheduler) RunNow(ctx context.Context) {
	go s.runSync(ctx)
}

// IsRunning returns whether the scheduler is active
func (s *KoboSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next import will occur
func (s *KoboSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *KoboSyncScheduler) runSync(ctx context.Context) {
	if !s.settings.GetKoboSyncConfig().Enabled {
		s.logger.Info("scheduled import skipped, sync disabled")
		return
	}

	startTime := time.Now()
	result, err := s.importer.Run(ctx, entities.ImportTriggerSchedule)

	switch {
	case errors.Is(err, services.ErrImportInProgress):
		s.logger.Info("scheduled import skipped, another import is running")
		return
	case errors.Is(err, services.ErrNoHighlights):
		s.recordStatus(StatusSuccess, "No highlights on the device")
		return
	case err != nil:
		s.recordStatus(StatusFailed, fmt.Sprintf("Import failed: %v", err))
		return
	}

	s.recordStatus(StatusSuccess, fmt.Sprintf("%s in %v", result.Summary(), time.Since(startTime).Round(time.Millisecond)))
}

func (s *KoboSyncScheduler) recordStatus(status, message string) {
	s.logger.Info("scheduled import finished", zap.String("status", status), zap.String("message", message))
	if err := s.settings.SetKoboSyncStatus(status, message); err != nil {
		s.logger.Warn("failed to record sync status", zap.Error(err))
	}
}
