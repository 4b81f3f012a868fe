package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	General     GeneralSettings     `json:"general"`
	Network     NetworkSettings     `json:"network"`
	Acquisition AcquisitionSettings `json:"acquisition"`
}

// GeneralSettings contains application behavior settings.
type GeneralSettings struct {
	ManifestPath      string `json:"manifest_path"`
	SkipUpdateCheck   bool   `json:"skip_update_check"`
	ClipboardMonitor  bool   `json:"clipboard_monitor"`
	Theme             int    `json:"theme"`
	LogRetentionCount int    `json:"log_retention_count"`
}

const (
	ThemeAdaptive = 0
	ThemeLight    = 1
	ThemeDark     = 2
)

// NetworkSettings contains network connection parameters for the HTTP backend.
type NetworkSettings struct {
	UserAgent             string        `json:"user_agent"`
	ProbeTimeout          time.Duration `json:"probe_timeout"`
	MaxConnectionsPerPack int           `json:"max_connections_per_pack"`
}

// AcquisitionSettings contains the default hints handed to the acquisition backend.
type AcquisitionSettings struct {
	// Priority in [0,1] passed to BeginAcquisition. 1.0 means fetch everything
	// as fast as the backend allows.
	Priority float64 `json:"priority"`
	// Preserve in [0,1]. Backends treat values >= 0.5 as a request to keep
	// partial downloads around for a later attempt.
	Preserve float64 `json:"preserve"`
}

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			ManifestPath:      filepath.Join(GetAipackDir(), "packs.json"),
			SkipUpdateCheck:   false,
			ClipboardMonitor:  false,
			Theme:             ThemeAdaptive,
			LogRetentionCount: 5,
		},
		Network: NetworkSettings{
			UserAgent:             "",
			ProbeTimeout:          10 * time.Second,
			MaxConnectionsPerPack: 4,
		},
		Acquisition: AcquisitionSettings{
			Priority: 1.0,
			Preserve: 0.95,
		},
	}
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetAipackDir(), "settings.json")
}

// LoadSettings loads settings from disk. Returns defaults if file doesn't exist.
func LoadSettings() (*Settings, error) {
	path := GetSettingsPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings() // Start with defaults to fill any missing fields
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// SaveSettings saves settings to disk atomically.
func SaveSettings(s *Settings) error {
	path := GetSettingsPath()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}
