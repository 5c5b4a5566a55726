package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/nowplaying/internal/host"
	"github.com/hay-kot/nowplaying/internal/titleformat"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var errNothingPlaying = errors.New("nothing is playing")

type FormatCmd struct {
	flags  *Flags
	fields []string
}

// NewFormatCmd creates the title-format preview command.
func NewFormatCmd(flags *Flags) *FormatCmd {
	return &FormatCmd{flags: flags}
}

// Register adds the format command to the application.
func (cmd *FormatCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "format",
		Usage:     "Evaluate a title-format script",
		UsageText: "nowplaying format [--field name=value ...] <script>",
		Description: `Evaluates a title-format script against the song MPD is playing, or
against the fields given with --field when any are set.

  nowplaying format '[%artist% - ]%title%'
  nowplaying format --field title=Blue --field artist=Joni '%artist%: %title%'`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "field",
				Aliases:     []string{"f"},
				Usage:       "field value as name=value; skips MPD",
				Destination: &cmd.fields,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *FormatCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one script argument")
	}
	script := c.Args().First()

	var (
		out string
		err error
	)
	if len(cmd.fields) > 0 {
		out, err = formatFields(script, cmd.fields)
	} else {
		out, err = cmd.formatPlaying(script)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.Root().Writer, out)
	return err
}

func formatFields(script string, pairs []string) (string, error) {
	fields := make(titleformat.MapFields, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return "", fmt.Errorf("invalid field %q: expected name=value", pair)
		}
		fields[strings.ToLower(name)] = value
	}
	return titleformat.Format(script, fields)
}

func (cmd *FormatCmd) formatPlaying(script string) (string, error) {
	if cmd.flags.Config == nil {
		return "", fmt.Errorf("configuration not loaded")
	}

	h := newHost(cmd.flags.Config, cmd.flags.Settings, log.Logger)
	defer func() { _ = h.Close() }()

	track, err := host.PlayingTrack(h)
	if err != nil {
		return "", err
	}
	defer func() { _ = track.Release() }()

	if !track.Valid() {
		return "", errNothingPlaying
	}

	plt, err := host.CurrentPlaylist(h)
	if err != nil {
		return "", err
	}
	defer func() { _ = plt.Release() }()

	return h.Format(script, track.Get(), plt.Get())
}
