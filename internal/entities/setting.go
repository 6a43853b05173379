package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Note templates
	SettingKeyTemplateFilename     = "template_filename"
	SettingKeyTemplateFrontmatter  = "template_frontmatter"
	SettingKeyTemplatePageMetadata = "template_page_metadata"
	SettingKeyTemplateHighlight    = "template_highlight"
	SettingKeyTemplateSyncHeader   = "template_sync_header"

	// Import behaviour
	SettingKeyIncludeStoreBought = "include_store_bought"
	SettingKeyAppendMode         = "append_mode"
	SettingKeyOutputFolder       = "output_folder"
	SettingKeyKoboDatabasePath   = "kobo_database_path"

	// Scheduled sync
	SettingKeyKoboSyncEnabled     = "kobo_sync_enabled"
	SettingKeyKoboSyncSchedule    = "kobo_sync_schedule"
	SettingKeyKoboSyncLastAt      = "kobo_sync_last_at"
	SettingKeyKoboSyncLastStatus  = "kobo_sync_last_status"
	SettingKeyKoboSyncLastMessage = "kobo_sync_last_message"
)
