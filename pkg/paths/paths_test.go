package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfigDir(t *testing.T, dir string, err error) {
	t.Helper()
	orig := userConfigDir
	userConfigDir = func() (string, error) { return dir, err }
	t.Cleanup(func() { userConfigDir = orig })
}

func TestGetConfigFile(t *testing.T) {
	base := t.TempDir()
	withConfigDir(t, base, nil)

	path, err := GetConfigFile("my-cli")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "my-cli", "telemetry.json"), path)

	again, err := GetConfigFile("my-cli")
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestGetConfigDirEmptyApp(t *testing.T) {
	_, err := GetConfigDir("")
	require.Error(t, err)
}

func TestGetConfigDirNoBase(t *testing.T) {
	withConfigDir(t, "", errors.New("neither $XDG_CONFIG_HOME nor $HOME are defined"))

	_, err := GetConfigFile("my-cli")
	require.Error(t, err)
}
