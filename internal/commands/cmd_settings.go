package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/nowplaying/internal/core/settings"
	"github.com/hay-kot/nowplaying/internal/printer"
	"github.com/urfave/cli/v3"
)

type SettingsCmd struct {
	flags  *Flags
	format string
}

// NewSettingsCmd creates the settings command group.
func NewSettingsCmd(flags *Flags) *SettingsCmd {
	return &SettingsCmd{flags: flags}
}

// Register adds the settings commands to the application.
func (cmd *SettingsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "settings",
		Usage: "Read and change presence settings",
		Description: `Presence settings live in the settings file and are re-read on every
playback event. A running instance picks up changes made here.

Keys may be given with or without the "` + settings.Prefix + `" prefix.`,
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show every setting with its effective value",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.list,
			},
			{
				Name:      "get",
				Usage:     "Print the effective value of a setting",
				UsageText: "nowplaying settings get <key>",
				Action:    cmd.get,
			},
			{
				Name:      "set",
				Usage:     "Store a setting",
				UsageText: "nowplaying settings set <key> <value>",
				Action:    cmd.set,
			},
			{
				Name:      "unset",
				Usage:     "Remove a stored setting so its default applies",
				UsageText: "nowplaying settings unset <key>",
				Action:    cmd.unset,
			},
		},
	})
	return app
}

type settingView struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Default string `json:"default"`
	Stored  bool   `json:"stored"`
	Help    string `json:"help"`
}

func (cmd *SettingsCmd) view(ctx context.Context, def settings.Definition) (settingView, error) {
	v := settingView{Key: def.Key, Value: def.Default, Default: def.Default, Help: def.Help}

	entry, err := cmd.flags.Settings.Get(ctx, def.Key)
	switch {
	case errors.Is(err, settings.ErrKeyNotFound):
	case err != nil:
		return v, err
	default:
		v.Value = entry.Value
		v.Stored = true
	}
	return v, nil
}

func (cmd *SettingsCmd) list(ctx context.Context, c *cli.Command) error {
	views := make([]settingView, 0, len(settings.Definitions))
	for _, def := range settings.Definitions {
		v, err := cmd.view(ctx, def)
		if err != nil {
			return fmt.Errorf("read %s: %w", def.Key, err)
		}
		views = append(views, v)
	}

	if cmd.format == "json" {
		return writeJSON(c.Root().Writer, views)
	}

	p := printer.Ctx(ctx)
	p.Section("Settings (" + cmd.flags.Settings.Path() + ")")
	for _, v := range views {
		origin := "default"
		if v.Stored {
			origin = "set"
		}
		p.KeyValue(v.Key, fmt.Sprintf("%q", v.Value), origin)
	}
	return nil
}

func (cmd *SettingsCmd) get(ctx context.Context, c *cli.Command) error {
	def, err := definition(c.Args().First())
	if err != nil {
		return err
	}

	v, err := cmd.view(ctx, def)
	if err != nil {
		return fmt.Errorf("read %s: %w", def.Key, err)
	}

	_, err = fmt.Fprintln(c.Root().Writer, v.Value)
	return err
}

func (cmd *SettingsCmd) set(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected <key> <value>")
	}

	def, err := definition(c.Args().Get(0))
	if err != nil {
		return err
	}

	value := c.Args().Get(1)
	if err := def.Check(value); err != nil {
		return err
	}

	if err := cmd.flags.Settings.Set(ctx, def.Key, value); err != nil {
		return fmt.Errorf("set %s: %w", def.Key, err)
	}

	printer.Ctx(ctx).Successf("%s = %q", def.Key, value)
	return nil
}

func (cmd *SettingsCmd) unset(ctx context.Context, c *cli.Command) error {
	def, err := definition(c.Args().First())
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)

	err = cmd.flags.Settings.Delete(ctx, def.Key)
	switch {
	case errors.Is(err, settings.ErrKeyNotFound):
		p.Warnf("%s was not set", def.Key)
		return nil
	case err != nil:
		return fmt.Errorf("unset %s: %w", def.Key, err)
	}

	p.Successf("%s reset to %q", def.Key, def.Default)
	return nil
}

// definition resolves a user-supplied key, accepting it without the prefix.
func definition(key string) (settings.Definition, error) {
	if key == "" {
		return settings.Definition{}, fmt.Errorf("missing setting key")
	}
	if !strings.HasPrefix(key, settings.Prefix) {
		key = settings.Prefix + key
	}
	def, ok := settings.Lookup(key)
	if !ok {
		return settings.Definition{}, fmt.Errorf("unknown setting %q", key)
	}
	return def, nil
}
