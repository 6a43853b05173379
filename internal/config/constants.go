package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./kobo-highlights.db"

	// DefaultTaskDatabasePath holds the task queue, kept apart from application data
	DefaultTaskDatabasePath = "./kobo-highlights-tasks.db"

	// DefaultNotesOutputDir is the directory notes are written under
	DefaultNotesOutputDir = "./notes"

	// DefaultKoboSyncSchedule runs an import hourly at :00
	DefaultKoboSyncSchedule = "0 * * * *"
)
