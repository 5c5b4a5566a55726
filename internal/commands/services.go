package commands

import (
	"github.com/hay-kot/nowplaying/internal/core/config"
	"github.com/hay-kot/nowplaying/internal/core/settings"
	"github.com/hay-kot/nowplaying/internal/cover"
	"github.com/hay-kot/nowplaying/internal/host/mpd"
	"github.com/hay-kot/nowplaying/internal/store/jsonfile"
	"github.com/rs/zerolog"
)

func newHost(cfg *config.Config, store *jsonfile.SettingsStore, logger zerolog.Logger) *mpd.Host {
	dial := mpd.Dialer(cfg.MPD.Network, cfg.MPD.Address, cfg.MPD.Password)
	return mpd.New(dial, settings.NewStoreSource(store), logger)
}

func newResolver(cfg *config.Config, logger zerolog.Logger) *cover.Resolver {
	client := cover.NewHTTPClient()
	if cfg.MusicBrainz.Timeout > 0 {
		client.Timeout = cfg.MusicBrainz.Timeout
	}
	return cover.New(cfg.CoverConfig(), client, logger)
}
