package settingsstore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cast"

	"github.com/mrlokans/kobo-highlights/internal/entities"
)

// Priority: database > environment > default
type SettingsStore struct {
	db SettingsDB
}

// SettingsDB is the persistence the store reads overrides from.
type SettingsDB interface {
	GetSetting(key string) (*entities.Setting, error)
	SetSetting(key, value string) error
	SetSettings(values map[string]string) error
	DeleteSettings(keys []string) error
}

func New(db SettingsDB) *SettingsStore {
	return &SettingsStore{db: db}
}

// ErrInvalidSetting wraps every validation failure of an update.
var ErrInvalidSetting = errors.New("invalid setting")

const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// field binds a settings key to its environment variable and built-in default.
type field struct {
	key string
	env string
	def string
}

var (
	fieldFilenameTemplate     = field{entities.SettingKeyTemplateFilename, "NOTES_TEMPLATE_FILENAME", entities.DefaultFilenameTemplate}
	fieldFrontmatterTemplate  = field{entities.SettingKeyTemplateFrontmatter, "NOTES_TEMPLATE_FRONTMATTER", entities.DefaultFrontmatterTemplate}
	fieldPageMetadataTemplate = field{entities.SettingKeyTemplatePageMetadata, "NOTES_TEMPLATE_PAGE_METADATA", entities.DefaultPageMetadataTemplate}
	fieldHighlightTemplate    = field{entities.SettingKeyTemplateHighlight, "NOTES_TEMPLATE_HIGHLIGHT", entities.DefaultHighlightTemplate}
	fieldSyncHeaderTemplate   = field{entities.SettingKeyTemplateSyncHeader, "NOTES_TEMPLATE_SYNC_HEADER", entities.DefaultSyncHeaderTemplate}
	fieldIncludeStoreBought   = field{entities.SettingKeyIncludeStoreBought, "KOBO_INCLUDE_STORE_BOUGHT", "false"}
	fieldAppendMode           = field{entities.SettingKeyAppendMode, "NOTES_APPEND_MODE", "true"}
	fieldOutputFolder         = field{entities.SettingKeyOutputFolder, "NOTES_OUTPUT_FOLDER", entities.DefaultOutputFolder}
	fieldKoboDatabasePath     = field{entities.SettingKeyKoboDatabasePath, "KOBO_DATABASE_PATH", ""}
)

var importFields = []field{
	fieldFilenameTemplate,
	fieldFrontmatterTemplate,
	fieldPageMetadataTemplate,
	fieldHighlightTemplate,
	fieldSyncHeaderTemplate,
	fieldIncludeStoreBought,
	fieldAppendMode,
	fieldOutputFolder,
}

func (s *SettingsStore) resolve(f field) (string, string) {
	setting, err := s.db.GetSetting(f.key)
	if err == nil && setting.Value != "" {
		return setting.Value, SourceDatabase
	}

	if envVal := os.Getenv(f.env); envVal != "" {
		return envVal, SourceEnvironment
	}

	return f.def, SourceDefault
}

func (s *SettingsStore) value(f field) string {
	v, _ := s.resolve(f)
	return v
}

// boolValue falls back to the field default when the stored value is not a boolean.
func (s *SettingsStore) boolValue(f field) bool {
	if b, err := cast.ToBoolE(s.value(f)); err == nil {
		return b
	}
	return cast.ToBool(f.def)
}

// GetImportSettings returns the effective settings for an import run.
func (s *SettingsStore) GetImportSettings() entities.ImportSettings {
	return entities.ImportSettings{
		FilenameTemplate:     s.value(fieldFilenameTemplate),
		FrontmatterTemplate:  s.value(fieldFrontmatterTemplate),
		PageMetadataTemplate: s.value(fieldPageMetadataTemplate),
		HighlightTemplate:    s.value(fieldHighlightTemplate),
		SyncHeaderTemplate:   s.value(fieldSyncHeaderTemplate),
		IncludeStoreBought:   s.boolValue(fieldIncludeStoreBought),
		AppendMode:           s.boolValue(fieldAppendMode),
		OutputFolder:         s.value(fieldOutputFolder),
	}
}

// ImportSettingsInfo pairs the effective settings with where each value came from.
type ImportSettingsInfo struct {
	Settings entities.ImportSettings `json:"settings"`
	Sources  map[string]string       `json:"sources"` // setting key -> "database", "environment" or "default"
}

func (s *SettingsStore) GetImportSettingsInfo() ImportSettingsInfo {
	sources := make(map[string]string, len(importFields))
	for _, f := range importFields {
		_, sources[f.key] = s.resolve(f)
	}
	return ImportSettingsInfo{
		Settings: s.GetImportSettings(),
		Sources:  sources,
	}
}

// ImportSettingsUpdate carries a partial update; nil fields are left unchanged.
type ImportSettingsUpdate struct {
	FilenameTemplate     *string `json:"filename_template"`
	FrontmatterTemplate  *string `json:"frontmatter_template"`
	PageMetadataTemplate *string `json:"page_metadata_template"`
	HighlightTemplate    *string `json:"highlight_template"`
	SyncHeaderTemplate   *string `json:"sync_header_template"`
	IncludeStoreBought   *bool   `json:"include_store_bought"`
	AppendMode           *bool   `json:"append_mode"`
	OutputFolder         *string `json:"output_folder"`
}

// UpdateImportSettings validates and stores the given fields as database overrides.
func (s *SettingsStore) UpdateImportSettings(update ImportSettingsUpdate) error {
	values := make(map[string]string)

	setString := func(f field, v *string) {
		if v != nil {
			values[f.key] = *v
		}
	}
	setString(fieldFilenameTemplate, update.FilenameTemplate)
	setString(fieldFrontmatterTemplate, update.FrontmatterTemplate)
	setString(fieldPageMetadataTemplate, update.PageMetadataTemplate)
	setString(fieldHighlightTemplate, update.HighlightTemplate)
	setString(fieldSyncHeaderTemplate, update.SyncHeaderTemplate)
	if update.IncludeStoreBought != nil {
		values[fieldIncludeStoreBought.key] = cast.ToString(*update.IncludeStoreBought)
	}
	if update.AppendMode != nil {
		values[fieldAppendMode.key] = cast.ToString(*update.AppendMode)
	}

	if update.FilenameTemplate != nil && strings.TrimSpace(*update.FilenameTemplate) == "" {
		return fmt.Errorf("%w: filename template must not be empty", ErrInvalidSetting)
	}
	if update.HighlightTemplate != nil && strings.TrimSpace(*update.HighlightTemplate) == "" {
		return fmt.Errorf("%w: highlight template must not be empty", ErrInvalidSetting)
	}
	if update.OutputFolder != nil {
		folder, err := ValidateOutputFolder(*update.OutputFolder)
		if err != nil {
			return err
		}
		values[fieldOutputFolder.key] = folder
	}

	if len(values) == 0 {
		return nil
	}
	return s.db.SetSettings(values)
}

// ClearImportSettings removes every database override, reverting to environment or defaults.
func (s *SettingsStore) ClearImportSettings() error {
	keys := make([]string, 0, len(importFields))
	for _, f := range importFields {
		keys = append(keys, f.key)
	}
	return s.db.DeleteSettings(keys)
}

// ValidateOutputFolder checks that folder is a relative path inside the note
// root and returns it cleaned.
func ValidateOutputFolder(folder string) (string, error) {
	folder = strings.TrimSpace(strings.ReplaceAll(folder, "\\", "/"))
	if folder == "" {
		return "", fmt.Errorf("%w: output folder must not be empty", ErrInvalidSetting)
	}
	if strings.HasPrefix(folder, "/") {
		return "", fmt.Errorf("%w: output folder must be relative", ErrInvalidSetting)
	}
	cleaned := path.Clean(folder)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: output folder must not leave the note root", ErrInvalidSetting)
	}
	return cleaned, nil
}

// GetKoboDatabasePath returns the configured device database path; empty means auto-detect.
func (s *SettingsStore) GetKoboDatabasePath() string {
	return s.value(fieldKoboDatabasePath)
}

func (s *SettingsStore) GetKoboDatabasePathSource() string {
	_, source := s.resolve(fieldKoboDatabasePath)
	return source
}

func (s *SettingsStore) SetKoboDatabasePath(path string) error {
	return s.db.SetSetting(fieldKoboDatabasePath.key, path)
}
