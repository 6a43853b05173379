package entities

import (
	"time"
)

type ImportTrigger string

const (
	ImportTriggerCLI      ImportTrigger = "cli"
	ImportTriggerSchedule ImportTrigger = "schedule"
	ImportTriggerWatch    ImportTrigger = "watch"
	ImportTriggerHTTP     ImportTrigger = "http"
)

type ImportStatus string

const (
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportRun records one execution of the import pipeline.
type ImportRun struct {
	ID                string        `gorm:"primaryKey;size:36" json:"id"`
	Trigger           ImportTrigger `gorm:"size:20;index" json:"trigger"`
	Status            ImportStatus  `gorm:"size:20" json:"status"`
	BooksProcessed    int           `json:"books_processed"`
	NotesCreated      int           `json:"notes_created"`
	NotesUpdated      int           `json:"notes_updated"`
	NotesUnchanged    int           `json:"notes_unchanged"`
	HighlightsWritten int           `json:"highlights_written"`
	Error             string        `gorm:"type:text" json:"error,omitempty"`
	StartedAt         time.Time     `gorm:"index" json:"started_at"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
}

func (ImportRun) TableName() string {
	return "import_runs"
}
