package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.SettingsFile = filepath.Join(cfg.DataDir, "settings.json")
	cfg.MusicBrainz.UserAgent = "nowplaying-test/1.0 ( test@example.com )"
	return &cfg
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	names := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		names[i] = fe.Field
	}
	return names
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig(t).Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad network", func(c *Config) { c.MPD.Network = "udp" }, "mpd.network"},
		{"empty address", func(c *Config) { c.MPD.Address = "" }, "mpd.address"},
		{"negative reconnect", func(c *Config) { c.MPD.ReconnectDelay = -time.Second }, "mpd.reconnect_delay"},
		{"no data dir", func(c *Config) { c.DataDir = "" }, "data_dir"},
		{"no settings file", func(c *Config) { c.SettingsFile = "" }, "settings_file"},
		{"bad base url", func(c *Config) { c.MusicBrainz.BaseURL = "ftp://musicbrainz.org" }, "musicbrainz.base_url"},
		{"relative cover url", func(c *Config) { c.MusicBrainz.CoverBaseURL = "/covers" }, "musicbrainz.cover_base_url"},
		{"empty user agent", func(c *Config) { c.MusicBrainz.UserAgent = "" }, "musicbrainz.user_agent"},
		{"search limit too large", func(c *Config) { c.MusicBrainz.SearchLimit = 101 }, "musicbrainz.search_limit"},
		{"search limit zero", func(c *Config) { c.MusicBrainz.SearchLimit = 0 }, "musicbrainz.search_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			assert.Equal(t, []string{tt.field}, fieldNames(t, cfg.Validate()))
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.MPD.Network = ""
	cfg.MusicBrainz.UserAgent = ""

	assert.Equal(t, []string{"mpd.network", "musicbrainz.user_agent"}, fieldNames(t, cfg.Validate()))
}

func TestValidateDeep_SettingsFileIsDirectory(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, os.Mkdir(cfg.SettingsFile, 0o755))

	names := fieldNames(t, cfg.ValidateDeep(""))
	assert.Equal(t, []string{"settings_file"}, names)
}

func TestValidateDeep_ConfigPathIsDirectory(t *testing.T) {
	cfg := validConfig(t)

	names := fieldNames(t, cfg.ValidateDeep(t.TempDir()))
	assert.Equal(t, []string{"config file"}, names)
}

func TestValidateDeep_MissingFilesAreFine(t *testing.T) {
	cfg := validConfig(t)

	assert.NoError(t, cfg.ValidateDeep(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestWarnings(t *testing.T) {
	cfg := validConfig(t)
	assert.Empty(t, cfg.Warnings())

	cfg.MusicBrainz.Rate = 5
	cfg.MusicBrainz.UserAgent = DefaultConfig().MusicBrainz.UserAgent
	cfg.MPD.Address = "music.lan:6600"
	cfg.MPD.Password = "hunter2"

	items := make([]string, 0, 3)
	for _, w := range cfg.Warnings() {
		items = append(items, w.Item)
	}
	assert.Equal(t, []string{"rate", "user_agent", "password"}, items)
}
