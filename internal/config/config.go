package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Logging
		Kobo
		Notes
		KoboSync
		Watch
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Logging struct {
		Level       string
		Development bool
	}
	Kobo struct {
		DatabasePath       string // empty means auto-detect the mounted device
		IncludeStoreBought bool
	}
	Notes struct {
		OutputDir string // root directory the note folder is created in
	}
	KoboSync struct {
		Enabled  bool
		Schedule string // Cron format: "0 * * * *" = hourly
	}
	Watch struct {
		Enabled  bool
		Debounce time.Duration
	}
	Tasks struct {
		Enabled         bool
		DatabasePath    string
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)

	v.SetDefault("kobo_database_path", "")
	v.SetDefault("kobo_include_store_bought", false)
	v.SetDefault("notes_output_dir", DefaultNotesOutputDir)

	v.SetDefault("kobo_sync_enabled", false)
	v.SetDefault("kobo_sync_schedule", DefaultKoboSyncSchedule)
	v.SetDefault("kobo_watch_enabled", false)
	v.SetDefault("kobo_watch_debounce", "5s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_database_path", DefaultTaskDatabasePath)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Logging: Logging{
			Level:       v.GetString("LOG_LEVEL"),
			Development: v.GetBool("LOG_DEVELOPMENT"),
		},
		Kobo: Kobo{
			DatabasePath:       v.GetString("KOBO_DATABASE_PATH"),
			IncludeStoreBought: v.GetBool("KOBO_INCLUDE_STORE_BOUGHT"),
		},
		Notes: Notes{
			OutputDir: v.GetString("NOTES_OUTPUT_DIR"),
		},
		KoboSync: KoboSync{
			Enabled:  v.GetBool("KOBO_SYNC_ENABLED"),
			Schedule: v.GetString("KOBO_SYNC_SCHEDULE"),
		},
		Watch: Watch{
			Enabled:  v.GetBool("KOBO_WATCH_ENABLED"),
			Debounce: v.GetDuration("KOBO_WATCH_DEBOUNCE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			DatabasePath:    v.GetString("TASK_DATABASE_PATH"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}
