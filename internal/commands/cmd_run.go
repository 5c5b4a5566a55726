package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hay-kot/nowplaying/internal/discord"
	"github.com/hay-kot/nowplaying/internal/host"
	"github.com/hay-kot/nowplaying/internal/host/mpd"
	"github.com/hay-kot/nowplaying/internal/plugin"
	"github.com/hay-kot/nowplaying/internal/presence"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type RunCmd struct {
	flags *Flags
}

// NewRunCmd creates the command that mirrors MPD playback into Discord.
func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags}
}

// Register adds the run command to the application.
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Publish the playing MPD track as Discord rich presence",
		UsageText: "nowplaying run",
		Description: `Connects to MPD, watches the player, and keeps the Discord activity in
step with playback until interrupted. Presence settings are re-read when the
settings file changes.`,
		Action: cmd.Run,
	})
	return app
}

// Run is also the default action of the root command.
func (cmd *RunCmd) Run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.Logger

	h := newHost(cfg, cmd.flags.Settings, logger)
	defer func() {
		if err := h.Close(); err != nil {
			logger.Debug().Err(err).Msg("close mpd connection")
		}
	}()

	var (
		client = discord.NewClient(nil, logger)
		engine = presence.NewEngine(h, client, newResolver(cfg, logger), logger)
	)

	p, err := plugin.Load(h, engine, client, logger)
	if err != nil {
		return fmt.Errorf("load plugin: %w", err)
	}

	if res := p.Start(); res != plugin.ResultOK {
		logger.Warn().Stringer("result", res).Msg("presence not connected at startup")
	}

	bridge := mpd.NewBridge(h, mpd.BridgeOptions{
		Network:        cfg.MPD.Network,
		Addr:           cfg.MPD.Address,
		Password:       cfg.MPD.Password,
		SettingsPath:   cmd.flags.Settings.Path(),
		ReconnectDelay: cfg.MPD.ReconnectDelay,
	}, logger)

	logger.Info().
		Str("mpd", cfg.MPD.Address).
		Str("settings", cmd.flags.Settings.Path()).
		Msg("watching player")

	runErr := bridge.Run(ctx, func(id host.EventID, evctx any, p1, p2 uint32) {
		p.Message(id, evctx, p1, p2)
	})

	if res := p.Stop(); res != plugin.ResultOK {
		logger.Warn().Stringer("result", res).Msg("stop")
	}

	return runErr
}
