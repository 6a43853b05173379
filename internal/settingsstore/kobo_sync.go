package settingsstore

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/entities"
)

var (
	fieldKoboSyncEnabled  = field{entities.SettingKeyKoboSyncEnabled, "KOBO_SYNC_ENABLED", "false"}
	fieldKoboSyncSchedule = field{entities.SettingKeyKoboSyncSchedule, "KOBO_SYNC_SCHEDULE", config.DefaultKoboSyncSchedule}
)

// KoboSyncConfig represents the effective configuration for scheduled imports
type KoboSyncConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// KoboSyncConfigInfo includes source information for each field
type KoboSyncConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	Schedule            string     `json:"schedule"`
	ScheduleSource      string     `json:"schedule_source"`
	ScheduleDescription string     `json:"schedule_description"`
	NextRunAt           *time.Time `json:"next_run_at,omitempty"`
}

// KoboSyncStatus represents the outcome of the last scheduled import
type KoboSyncStatus struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Status     string     `json:"status,omitempty"`  // "success", "failed", ""
	Message    string     `json:"message,omitempty"` // Error message or stats summary
}

func (s *SettingsStore) GetKoboSyncEnabled() bool {
	return s.boolValue(fieldKoboSyncEnabled)
}

func (s *SettingsStore) SetKoboSyncEnabled(enabled bool) error {
	return s.db.SetSetting(fieldKoboSyncEnabled.key, cast.ToString(enabled))
}

func (s *SettingsStore) GetKoboSyncSchedule() string {
	return s.value(fieldKoboSyncSchedule)
}

// SetKoboSyncSchedule stores schedule after checking it parses.
func (s *SettingsStore) SetKoboSyncSchedule(schedule string) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("%w: cron schedule %q: %v", ErrInvalidSetting, schedule, err)
	}
	return s.db.SetSetting(fieldKoboSyncSchedule.key, schedule)
}

func (s *SettingsStore) GetKoboSyncConfig() KoboSyncConfig {
	return KoboSyncConfig{
		Enabled:  s.GetKoboSyncEnabled(),
		Schedule: s.GetKoboSyncSchedule(),
	}
}

func (s *SettingsStore) GetKoboSyncConfigInfo() KoboSyncConfigInfo {
	_, enabledSource := s.resolve(fieldKoboSyncEnabled)
	schedule, scheduleSource := s.resolve(fieldKoboSyncSchedule)

	info := KoboSyncConfigInfo{
		Enabled:             s.GetKoboSyncEnabled(),
		EnabledSource:       enabledSource,
		Schedule:            schedule,
		ScheduleSource:      scheduleSource,
		ScheduleDescription: GetCronDescription(schedule),
	}
	if next, err := GetNextRunTime(schedule); err == nil {
		info.NextRunAt = next
	}
	return info
}

func (s *SettingsStore) GetKoboSyncStatus() KoboSyncStatus {
	status := KoboSyncStatus{}

	if setting, err := s.db.GetSetting(entities.SettingKeyKoboSyncLastAt); err == nil && setting.Value != "" {
		if ts, err := time.Parse(time.RFC3339, setting.Value); err == nil {
			status.LastSyncAt = &ts
		}
	}
	if setting, err := s.db.GetSetting(entities.SettingKeyKoboSyncLastStatus); err == nil {
		status.Status = setting.Value
	}
	if setting, err := s.db.GetSetting(entities.SettingKeyKoboSyncLastMessage); err == nil {
		status.Message = setting.Value
	}

	return status
}

// SetKoboSyncStatus records the outcome of a scheduled import at the current time.
func (s *SettingsStore) SetKoboSyncStatus(status, message string) error {
	return s.db.SetSettings(map[string]string{
		entities.SettingKeyKoboSyncLastAt:      time.Now().UTC().Format(time.RFC3339),
		entities.SettingKeyKoboSyncLastStatus:  status,
		entities.SettingKeyKoboSyncLastMessage: message,
	})
}

// ClearKoboSyncSettings clears the database overrides, reverting to env/default
func (s *SettingsStore) ClearKoboSyncSettings() error {
	return s.db.DeleteSettings([]string{
		fieldKoboSyncEnabled.key,
		fieldKoboSyncSchedule.key,
	})
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a five-field cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next import will run based on the schedule
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}

// NewKoboSyncConfigFromEnv creates the sync config from environment config, for
// use before the database is available.
func NewKoboSyncConfigFromEnv(cfg config.KoboSync) KoboSyncConfig {
	return KoboSyncConfig{
		Enabled:  cfg.Enabled,
		Schedule: cfg.Schedule,
	}
}
