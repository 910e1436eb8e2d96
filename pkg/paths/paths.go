package paths

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigFileName is the consent record's file name inside an application's
// config directory.
const ConfigFileName = "telemetry.json"

// userConfigDir is swapped in tests.
var userConfigDir = os.UserConfigDir

// GetConfigDir returns the per-user config directory for appName:
// $XDG_CONFIG_HOME/<app> on Linux, ~/Library/Application Support/<app> on
// macOS and %AppData%\<app> on Windows.
func GetConfigDir(appName string) (string, error) {
	if appName == "" {
		return "", errors.New("application name is empty")
	}
	base, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Clean(filepath.Join(base, appName)), nil
}

// GetConfigFile returns the default location of appName's consent record.
func GetConfigFile(appName string) (string, error) {
	dir, err := GetConfigDir(appName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// GetHomeDir returns the user's home directory.
//
// Returns an empty string if the home directory cannot be determined.
func GetHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Clean(homeDir)
}
