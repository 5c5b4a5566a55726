package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/hay-kot/nowplaying/internal/core/settings"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type CoverCmd struct {
	flags *Flags
}

// NewCoverCmd creates the cover lookup command.
func NewCoverCmd(flags *Flags) *CoverCmd {
	return &CoverCmd{flags: flags}
}

// Register adds the cover command to the application.
func (cmd *CoverCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "cover",
		Usage:       "Look up the cover art URL for an album query",
		UsageText:   "nowplaying cover <query>",
		Description: "Searches MusicBrainz the same way a running instance does and prints the Cover Art Archive URL.",
		Action:      cmd.run,
	})
	return app
}

func (cmd *CoverCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.flags.Config == nil {
		return fmt.Errorf("configuration not loaded")
	}

	query := strings.Join(c.Args().Slice(), " ")
	r := newResolver(cmd.flags.Config, log.Logger)

	url, err := r.Resolve(ctx, query, settings.CoverMusicBrainz)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", query, err)
	}

	_, err = fmt.Fprintln(c.Root().Writer, url)
	return err
}
