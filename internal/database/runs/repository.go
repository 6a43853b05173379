// Package runs stores the history of import runs.
package runs

import (
	"gorm.io/gorm"

	"github.com/mrlokans/kobo-highlights/internal/entities"
)

// DefaultListLimit is used when a caller asks for a non-positive number of runs.
const DefaultListLimit = 20

// Repository handles import run database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new import run repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a new run.
func (r *Repository) CreateRun(run *entities.ImportRun) error {
	return r.db.Create(run).Error
}

// UpdateRun saves every field of an existing run.
func (r *Repository) UpdateRun(run *entities.ImportRun) error {
	return r.db.Save(run).Error
}

// GetRun retrieves a run by id.
func (r *Repository) GetRun(id string) (*entities.ImportRun, error) {
	var run entities.ImportRun
	if err := r.db.Where("id = ?", id).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (r *Repository) ListRuns(limit int) ([]entities.ImportRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var runs []entities.ImportRun
	err := r.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// LatestRun returns the most recently started run, or nil when none exist.
func (r *Repository) LatestRun() (*entities.ImportRun, error) {
	var runs []entities.ImportRun
	if err := r.db.Order("started_at DESC").Limit(1).Find(&runs).Error; err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// FailStaleRuns marks runs still recorded as running as failed. Runs left in
// that state belong to a process that exited mid-import.
func (r *Repository) FailStaleRuns(reason string) (int64, error) {
	result := r.db.Model(&entities.ImportRun{}).
		Where("status = ?", entities.ImportStatusRunning).
		Updates(map[string]any{"status": entities.ImportStatusFailed, "error": reason})
	return result.RowsAffected, result.Error
}
