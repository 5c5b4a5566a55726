// Package config handles configuration loading and validation for nowplaying.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/nowplaying/internal/cover"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	MPD          MPDConfig         `yaml:"mpd"`
	MusicBrainz  MusicBrainzConfig `yaml:"musicbrainz"`
	SettingsFile string            `yaml:"settings_file"`
	DataDir      string            `yaml:"-"` // set by caller, not from config file
}

// MPDConfig describes how to reach the music player daemon.
type MPDConfig struct {
	Network        string        `yaml:"network"` // tcp or unix
	Address        string        `yaml:"address"`
	Password       string        `yaml:"password"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// MusicBrainzConfig configures cover lookups.
type MusicBrainzConfig struct {
	BaseURL      string        `yaml:"base_url"`
	CoverBaseURL string        `yaml:"cover_base_url"`
	UserAgent    string        `yaml:"user_agent"`
	Rate         float64       `yaml:"rate"` // requests per second
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	SearchLimit  int           `yaml:"search_limit"`
	Timeout      time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MPD: MPDConfig{
			Network:        "tcp",
			Address:        "localhost:6600",
			ReconnectDelay: 2 * time.Second,
		},
		MusicBrainz: MusicBrainzConfig{
			BaseURL:      cover.DefaultBaseURL,
			CoverBaseURL: cover.DefaultCoverBaseURL,
			UserAgent:    cover.DefaultUserAgent,
			Rate:         cover.DefaultRate,
			CacheTTL:     cover.DefaultCacheTTL,
			SearchLimit:  cover.DefaultSearchLimit,
			Timeout:      cover.DefaultTimeout,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.MPD.Network == "" {
		c.MPD.Network = defaults.MPD.Network
	}
	if c.MPD.Address == "" {
		c.MPD.Address = defaults.MPD.Address
	}
	if c.MPD.ReconnectDelay == 0 {
		c.MPD.ReconnectDelay = defaults.MPD.ReconnectDelay
	}

	mb := &c.MusicBrainz
	if mb.BaseURL == "" {
		mb.BaseURL = defaults.MusicBrainz.BaseURL
	}
	if mb.CoverBaseURL == "" {
		mb.CoverBaseURL = defaults.MusicBrainz.CoverBaseURL
	}
	if mb.UserAgent == "" {
		mb.UserAgent = defaults.MusicBrainz.UserAgent
	}
	if mb.Rate == 0 {
		mb.Rate = defaults.MusicBrainz.Rate
	}
	if mb.CacheTTL == 0 {
		mb.CacheTTL = defaults.MusicBrainz.CacheTTL
	}
	if mb.SearchLimit == 0 {
		mb.SearchLimit = defaults.MusicBrainz.SearchLimit
	}
	if mb.Timeout == 0 {
		mb.Timeout = defaults.MusicBrainz.Timeout
	}

	if c.SettingsFile == "" && c.DataDir != "" {
		c.SettingsFile = c.DefaultSettingsFile()
	}
}

// DefaultSettingsFile returns the settings store location inside the data directory.
func (c *Config) DefaultSettingsFile() string {
	return filepath.Join(c.DataDir, "settings.json")
}

// CoverConfig converts the MusicBrainz section into resolver options.
func (c *Config) CoverConfig() cover.Config {
	return cover.Config{
		BaseURL:      c.MusicBrainz.BaseURL,
		CoverBaseURL: c.MusicBrainz.CoverBaseURL,
		UserAgent:    c.MusicBrainz.UserAgent,
		Rate:         c.MusicBrainz.Rate,
		CacheTTL:     c.MusicBrainz.CacheTTL,
		SearchLimit:  c.MusicBrainz.SearchLimit,
	}
}
