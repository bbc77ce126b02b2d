package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xymaxim/vpick/internal/config"
	"github.com/xymaxim/vpick/internal/picker"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)

	assert.False(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "th", cfg.Server.Locale)
	assert.Equal(t, 60*time.Second, cfg.ExtractTimeout())
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Equal(t, picker.MalformedLast, cfg.MalformedPolicy())
}

func TestLoad_OverridesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090
locale = " EN "

[extract]
timeout_seconds = 15
extra_args = ["--cookies", "cookies.txt"]

[picker]
malformed = "Drop"

[log]
level = "DEBUG"
format = "json"
`)

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)

	assert.True(t, exists)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "en", cfg.Server.Locale)
	assert.Equal(t, 15*time.Second, cfg.ExtractTimeout())
	assert.Equal(t, []string{"--cookies", "cookies.txt"}, cfg.Extract.ExtraArgs)
	assert.Equal(t, picker.MalformedDrop, cfg.MalformedPolicy())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Untouched sections keep their defaults.
	assert.Equal(t, 60, cfg.Server.RateLimit)
	assert.Equal(t, "yt-dlp", cfg.Extract.YtdlpPath)
}

func TestLoad_ExpandsInstallDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path := writeConfig(t, "[extract]\ninstall_dir = \"~/.cache/vpick\"\n")

	cfg, _, _, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", "vpick"), cfg.Extract.InstallDir)
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeConfig(t, "[server]\nprot = 80\n")

	_, _, _, err := config.Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 70000
locale = "fr"

[picker]
malformed = "ignore"

[log]
format = "xml"
`)

	_, _, _, err := config.Load(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "server.port")
	assert.ErrorContains(t, err, "server.locale")
	assert.ErrorContains(t, err, "picker.malformed")
	assert.ErrorContains(t, err, "log.format")
}

func TestSampleConfig_MatchesDefaults(t *testing.T) {
	var cfg config.Config
	require.NoError(t, toml.Unmarshal([]byte(config.SampleConfig()), &cfg))

	assert.Empty(t, cfg.Extract.ExtraArgs)
	cfg.Extract.ExtraArgs = nil
	assert.Equal(t, config.Default(), cfg)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
}
