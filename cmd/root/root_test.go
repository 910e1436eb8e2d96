package root

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docker/usage-telemetry/pkg/telemetry"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := Execute(t.Context(), strings.NewReader(stdin), &stdout, &stderr, args...)
	return stdout.String(), stderr.String(), err
}

func clearKeys(t *testing.T) {
	t.Helper()
	t.Setenv(telemetry.PostHogKeyEnv, "")
	t.Setenv(telemetry.SentryDSNEnv, "")
}

func readStatus(t *testing.T, configPath string) statusView {
	t.Helper()

	stdout, _, err := run(t, "", "--config", configPath, "status", "--output", "json")
	require.NoError(t, err)

	var view statusView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	return view
}

func TestStatusFirstRunIsDisabled(t *testing.T) {
	clearKeys(t)
	configPath := filepath.Join(t.TempDir(), "telemetry.json")

	// Answering yes has no effect: the input is not a terminal.
	stdout, _, err := run(t, "y\n", "--config", configPath, "status")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Telemetry:   disabled")
	assert.Contains(t, stdout, "Stored in:   "+configPath)
	assert.NotContains(t, stdout, "Would you like to enable telemetry?")
	assert.FileExists(t, configPath)
}

func TestEnableDisable(t *testing.T) {
	clearKeys(t)
	configPath := filepath.Join(t.TempDir(), "telemetry.json")

	first := readStatus(t, configPath)
	assert.False(t, first.Enabled)

	stdout, _, err := run(t, "", "--config", configPath, "--app", "mytool", "enable")
	require.NoError(t, err)
	assert.Equal(t, "Telemetry enabled for mytool. Thank you!\n", stdout)

	enabled := readStatus(t, configPath)
	assert.True(t, enabled.Enabled)
	assert.Equal(t, first.InstanceID, enabled.InstanceID)
	assert.Equal(t, first.CreatedAt, enabled.CreatedAt)

	_, _, err = run(t, "", "--config", configPath, "disable")
	require.NoError(t, err)
	assert.False(t, readStatus(t, configPath).Enabled)
}

func TestStatusYAML(t *testing.T) {
	clearKeys(t)
	configPath := filepath.Join(t.TempDir(), "telemetry.json")

	stdout, _, err := run(t, "", "--config", configPath, "status", "--output", "yaml")
	require.NoError(t, err)

	assert.Contains(t, stdout, "enabled: false\n")
	assert.Contains(t, stdout, "instance_id: ")
	assert.Contains(t, stdout, "config_path: ")
}

func TestStatusUnknownFormat(t *testing.T) {
	clearKeys(t)
	configPath := filepath.Join(t.TempDir(), "telemetry.json")

	_, stderr, err := run(t, "", "--config", configPath, "status", "--output", "xml")
	require.Error(t, err)
	assert.Contains(t, stderr, `unsupported output format "xml"`)
}

func TestTrackWithoutCredentials(t *testing.T) {
	clearKeys(t)
	configPath := filepath.Join(t.TempDir(), "telemetry.json")

	_, _, err := run(t, "", "--config", configPath, "enable")
	require.NoError(t, err)

	_, _, err = run(t, "", "--config", configPath, "track", "command", "name=deploy", "count=3")
	require.NoError(t, err)

	_, _, err = run(t, "", "--config", configPath, "report", "something failed")
	require.NoError(t, err)
}

func TestTrackInvalidKeyWhenEnabled(t *testing.T) {
	clearKeys(t)
	t.Setenv(telemetry.PostHogKeyEnv, "abc123")
	configPath := filepath.Join(t.TempDir(), "telemetry.json")

	_, _, err := run(t, "", "--config", configPath, "enable")
	require.NoError(t, err)

	_, stderr, err := run(t, "", "--config", configPath, "track", "command")
	require.ErrorIs(t, err, telemetry.ErrCredentials)
	assert.Contains(t, stderr, "Invalid PostHog key format")
	assert.Contains(t, stderr, telemetry.PostHogKeyEnv)
}

func TestMalformedRecordHasNoCredentialsHint(t *testing.T) {
	clearKeys(t)
	configPath := filepath.Join(t.TempDir(), "telemetry.json")
	require.NoError(t, os.WriteFile(configPath, []byte("{not json"), 0o600))

	_, stderr, err := run(t, "", "--config", configPath, "status")
	require.ErrorIs(t, err, telemetry.ErrConfig)
	assert.NotErrorIs(t, err, telemetry.ErrCredentials)
	assert.NotContains(t, stderr, telemetry.PostHogKeyEnv)
}

func TestTrackMalformedRecord(t *testing.T) {
	clearKeys(t)

	_, _, err := run(t, "", "--config", t.TempDir(), "track", "command")
	require.ErrorIs(t, err, telemetry.ErrInvalidPath)
}

func TestPath(t *testing.T) {
	stdout, _, err := run(t, "", "--config", "/somewhere/telemetry.json", "path")
	require.NoError(t, err)
	assert.Equal(t, "/somewhere/telemetry.json\n", stdout)

	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	t.Setenv("HOME", base)

	want, err := telemetry.ResolvePath("mytool", "")
	require.NoError(t, err)

	stdout, _, err = run(t, "", "--app", "mytool", "path")
	require.NoError(t, err)
	assert.Equal(t, want+"\n", stdout)
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "telemetryctl version ")
	assert.Contains(t, stdout, "Commit: ")
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, err := run(t, "", "frobnicate")
	require.Error(t, err)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestParseProperties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    map[string]any
		wantErr bool
	}{
		{name: "none", args: nil, want: map[string]any{}},
		{name: "string", args: []string{"name=deploy"}, want: map[string]any{"name": "deploy"}},
		{name: "number", args: []string{"count=3"}, want: map[string]any{"count": float64(3)}},
		{name: "bool", args: []string{"cached=true"}, want: map[string]any{"cached": true}},
		{name: "empty value", args: []string{"note="}, want: map[string]any{"note": ""}},
		{name: "value with equals", args: []string{"expr=a=b"}, want: map[string]any{"expr": "a=b"}},
		{name: "missing equals", args: []string{"name"}, wantErr: true},
		{name: "missing key", args: []string{"=x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseProperties(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrackInvalidKeyWhenDisabled(t *testing.T) {
	clearKeys(t)
	t.Setenv(telemetry.PostHogKeyEnv, "abc123")
	configPath := filepath.Join(t.TempDir(), "telemetry.json")

	_, _, err := run(t, "", "--config", configPath, "track", "command")
	require.NoError(t, err)
}

func TestEnvFlagOverridesEnvironment(t *testing.T) {
	clearKeys(t)
	configPath := filepath.Join(t.TempDir(), "telemetry.json")

	_, _, err := run(t, "", "--config", configPath, "enable")
	require.NoError(t, err)

	_, stderr, err := run(t, "", "--config", configPath, "--env", telemetry.PostHogKeyEnv+"=abc123", "track", "command")
	require.ErrorIs(t, err, telemetry.ErrCredentials)
	assert.Contains(t, stderr, "Invalid PostHog key format")
}

func TestEnvFlagRejectsMalformedValue(t *testing.T) {
	clearKeys(t)
	configPath := filepath.Join(t.TempDir(), "telemetry.json")

	_, _, err := run(t, "", "--config", configPath, "--env", "NOVALUE", "status")
	require.ErrorContains(t, err, `invalid --env value "NOVALUE"`)
	assert.NoFileExists(t, configPath)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Parallel()

	overrides, err := parseEnvOverrides([]string{"A=1", " B =x=y", "C="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y", "C": ""}, overrides)

	overrides, err = parseEnvOverrides(nil)
	require.NoError(t, err)
	assert.Nil(t, overrides)

	_, err = parseEnvOverrides([]string{"=1"})
	require.Error(t, err)
}
