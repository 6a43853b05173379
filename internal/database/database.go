package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/kobo-highlights/internal/database/runs"
	"github.com/mrlokans/kobo-highlights/internal/database/settings"
	"github.com/mrlokans/kobo-highlights/internal/entities"
)

// Database owns the application database connection.
type Database struct {
	DB *gorm.DB

	settings *settings.Repository
	runs     *runs.Repository
}

func NewDatabase(dbPath string, log *zap.Logger) (*Database, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Setting{},
		&entities.ImportRun{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{
		DB:       db,
		settings: settings.NewRepository(db),
		runs:     runs.NewRepository(db),
	}

	if n, err := database.runs.FailStaleRuns("interrupted by shutdown"); err != nil {
		return nil, fmt.Errorf("failed to close stale import runs: %w", err)
	} else if n > 0 {
		log.Warn("marked interrupted import runs as failed", zap.Int64("runs", n))
	}

	log.Info("database initialized", zap.String("path", dbPath))

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) GetSetting(key string) (*entities.Setting, error) {
	return d.settings.GetSetting(key)
}

func (d *Database) ListSettings() ([]entities.Setting, error) {
	return d.settings.ListSettings()
}

func (d *Database) SetSetting(key, value string) error {
	return d.settings.SetSetting(key, value)
}

func (d *Database) SetSettings(values map[string]string) error {
	return d.settings.SetSettings(values)
}

func (d *Database) DeleteSetting(key string) error {
	return d.settings.DeleteSetting(key)
}

func (d *Database) DeleteSettings(keys []string) error {
	return d.settings.DeleteSettings(keys)
}

func (d *Database) CreateImportRun(run *entities.ImportRun) error {
	return d.runs.CreateRun(run)
}

func (d *Database) UpdateImportRun(run *entities.ImportRun) error {
	return d.runs.UpdateRun(run)
}

func (d *Database) GetImportRun(id string) (*entities.ImportRun, error) {
	return d.runs.GetRun(id)
}

func (d *Database) ListImportRuns(limit int) ([]entities.ImportRun, error) {
	return d.runs.ListRuns(limit)
}

func (d *Database) LatestImportRun() (*entities.ImportRun, error) {
	return d.runs.LatestRun()
}
