package config

import (
	"os"
	"path/filepath"
	"runtime"
)

func GetAipackDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, "aipack")
	case "darwin": // MacOS
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "aipack")
	default: // Linux
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, _ := os.UserHomeDir()
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "aipack")
	}
}

// Returns directory for the pack registry and lease files
func GetStateDir() string {
	return filepath.Join(GetAipackDir(), "state")
}

// Returns directory holding validated model artifacts, one subdirectory per family
func GetModelsDir() string {
	return filepath.Join(GetAipackDir(), "models")
}

// Returns directory for staging install roots during acquisition
func GetStagingDir() string {
	return filepath.Join(GetAipackDir(), "staging")
}

// Returns directory for logs
func GetLogsDir() string {
	return filepath.Join(GetAipackDir(), "logs")
}

// EnsureDirs creates all required directories
func EnsureDirs() error {
	dirs := []string{GetAipackDir(), GetStateDir(), GetModelsDir(), GetStagingDir(), GetLogsDir()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
