// Package database provides the application data access layer.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup, migrations, delegating accessors
//	├── settings/        # User-editable settings (templates, import options, sync state)
//	└── runs/            # Import run history
//
// The Kobo device database is not handled here: it is opened read-only by the
// kobo package. This database belongs to the application and stores only what
// the user configures and what import runs report.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./kobo-highlights.db", logger)
//
//	settingsRepo := settings.NewRepository(db.DB)
//	runsRepo := runs.NewRepository(db.DB)
//
// *Database also exposes the repositories' operations directly, which is what
// settingsstore and services depend on.
package database
