package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, "tcp", cfg.MPD.Network)
	assert.Equal(t, "localhost:6600", cfg.MPD.Address)
	assert.Equal(t, filepath.Join(dataDir, "settings.json"), cfg.SettingsFile)
	assert.Equal(t, "https://musicbrainz.org", cfg.MusicBrainz.BaseURL)
	assert.Equal(t, 5, cfg.MusicBrainz.SearchLimit)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "localhost:6600", cfg.MPD.Address)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
mpd:
  network: unix
  address: /run/mpd/socket
settings_file: /tmp/np/settings.json
musicbrainz:
  user_agent: "np/1.0 ( me@example.com )"
  cache_ttl: 30m
  search_limit: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, "unix", cfg.MPD.Network)
	assert.Equal(t, "/run/mpd/socket", cfg.MPD.Address)
	assert.Equal(t, 2*time.Second, cfg.MPD.ReconnectDelay)
	assert.Equal(t, "/tmp/np/settings.json", cfg.SettingsFile)
	assert.Equal(t, 30*time.Minute, cfg.MusicBrainz.CacheTTL)
	assert.Equal(t, 10, cfg.MusicBrainz.SearchLimit)
	assert.Equal(t, "https://coverartarchive.org", cfg.MusicBrainz.CoverBaseURL)
	assert.Equal(t, dir, cfg.DataDir)

	cc := cfg.CoverConfig()
	assert.Equal(t, "np/1.0 ( me@example.com )", cc.UserAgent)
	assert.Equal(t, 10, cc.SearchLimit)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mpd:\n  network: carrier-pigeon\n"), 0o644))

	_, err := Load(path, dir)
	assert.Equal(t, []string{"mpd.network"}, fieldNames(t, err))
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mpd: [unclosed"), 0o644))

	_, err := Load(path, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}
