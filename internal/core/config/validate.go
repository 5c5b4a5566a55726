package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hay-kot/criterio"
)

// maxSearchLimit is the largest page MusicBrainz serves.
const maxSearchLimit = 100

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks that the configuration is usable. Errors are returned as
// criterio.FieldErrors keyed by YAML path.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	switch c.MPD.Network {
	case "tcp", "unix":
	default:
		errs = errs.Append("mpd.network", fmt.Errorf("must be tcp or unix, got %q", c.MPD.Network))
	}
	if c.MPD.Address == "" {
		errs = errs.Append("mpd.address", fmt.Errorf("cannot be empty"))
	}
	if c.MPD.ReconnectDelay < 0 {
		errs = errs.Append("mpd.reconnect_delay", fmt.Errorf("cannot be negative"))
	}

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("data directory cannot be empty"))
	}
	if c.SettingsFile == "" {
		errs = errs.Append("settings_file", fmt.Errorf("cannot be empty"))
	}

	mb := c.MusicBrainz
	if err := checkBaseURL(mb.BaseURL); err != nil {
		errs = errs.Append("musicbrainz.base_url", err)
	}
	if err := checkBaseURL(mb.CoverBaseURL); err != nil {
		errs = errs.Append("musicbrainz.cover_base_url", err)
	}
	if mb.UserAgent == "" {
		errs = errs.Append("musicbrainz.user_agent", fmt.Errorf("cannot be empty"))
	}
	if mb.SearchLimit < 1 || mb.SearchLimit > maxSearchLimit {
		errs = errs.Append("musicbrainz.search_limit", fmt.Errorf("must be between 1 and %d", maxSearchLimit))
	}
	if mb.Timeout < 0 {
		errs = errs.Append("musicbrainz.timeout", fmt.Errorf("cannot be negative"))
	}

	return errs.ToError()
}

// ValidateDeep runs Validate and additionally checks file access.
func (c *Config) ValidateDeep(configPath string) error {
	var errs criterio.FieldErrorsBuilder

	if err := c.Validate(); err != nil {
		var fieldErrs criterio.FieldErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = errs.Append(fe.Field, fe.Err)
		}
	}

	if configPath != "" {
		if info, err := os.Stat(configPath); err == nil && info.IsDir() {
			errs = errs.Append("config file", fmt.Errorf("%s is a directory, not a file", configPath))
		} else if err != nil && !os.IsNotExist(err) {
			errs = errs.Append("config file", fmt.Errorf("cannot access %s: %w", configPath, err))
		}
	}

	if c.SettingsFile != "" {
		if info, err := os.Stat(c.SettingsFile); err == nil && info.IsDir() {
			errs = errs.Append("settings_file", fmt.Errorf("%s is a directory, not a file", c.SettingsFile))
		} else if err != nil && !os.IsNotExist(err) {
			errs = errs.Append("settings_file", fmt.Errorf("cannot access %s: %w", c.SettingsFile, err))
		}

		dir := filepath.Dir(c.SettingsFile)
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			errs = errs.Append("settings_file", fmt.Errorf("%s exists but is not a directory", dir))
		}
	}

	return errs.ToError()
}

// Warnings returns non-fatal issues with the configuration.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.MusicBrainz.Rate > 1 {
		warnings = append(warnings, ValidationWarning{
			Category: "MusicBrainz",
			Item:     "rate",
			Message:  fmt.Sprintf("%.2f requests/s exceeds the MusicBrainz limit of 1/s; requests may be throttled", c.MusicBrainz.Rate),
		})
	}
	if c.MusicBrainz.Rate < 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "MusicBrainz",
			Item:     "rate",
			Message:  "negative rate disables the request limiter",
		})
	}
	if c.MusicBrainz.UserAgent == DefaultConfig().MusicBrainz.UserAgent {
		warnings = append(warnings, ValidationWarning{
			Category: "MusicBrainz",
			Item:     "user_agent",
			Message:  "using the default user agent; set one with your contact details",
		})
	}
	if c.MPD.Network == "tcp" && c.MPD.Password != "" && !isLoopback(c.MPD.Address) {
		warnings = append(warnings, ValidationWarning{
			Category: "MPD",
			Item:     "password",
			Message:  "password is sent in clear text to a non-local server",
		})
	}

	return warnings
}

func checkBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http or https url, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

func isLoopback(addr string) bool {
	u, err := url.Parse("//" + addr)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
