package commands

import (
	"context"

	"github.com/hay-kot/nowplaying/internal/commands/doctor"
	"github.com/hay-kot/nowplaying/internal/printer"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type DoctorCmd struct {
	flags  *Flags
	format string
	fix    bool
}

func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your nowplaying setup",
		UsageText:   "nowplaying doctor [options]",
		Description: "Checks the configuration, the stored presence settings, the MPD connection, and the Discord IPC socket.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "fix",
				Usage:       "reset invalid or unknown settings to their defaults",
				Destination: &cmd.fix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	checks := []doctor.Check{
		doctor.NewConfigCheck(cmd.flags.Config, cmd.flags.ConfigPath),
		doctor.NewSettingsCheck(cmd.flags.Settings, cmd.fix),
	}

	if cfg := cmd.flags.Config; cfg != nil {
		h := newHost(cfg, cmd.flags.Settings, log.Logger)
		defer func() { _ = h.Close() }()
		checks = append(checks, doctor.NewMPDCheck(cfg.MPD.Address, h.Ping))
	}

	checks = append(checks, doctor.NewDiscordCheck())

	results := doctor.RunAll(ctx, checks)

	if cmd.format == "json" {
		return cmd.outputJSON(c, results)
	}

	return cmd.outputText(ctx, results)
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	counts := doctor.Tally(results)

	err := writeJSON(c.Root().Writer, struct {
		Healthy bool            `json:"healthy"`
		Summary doctor.Counts   `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{counts.Healthy(), counts, results})
	if err != nil {
		return err
	}

	return exitUnhealthy(counts)
}

func (cmd *DoctorCmd) outputText(ctx context.Context, results []doctor.Result) error {
	p := printer.Ctx(ctx)

	items := map[doctor.Status]func(label, detail string){
		doctor.StatusPass: p.CheckItem,
		doctor.StatusWarn: p.WarnItem,
		doctor.StatusFail: p.FailItem,
	}

	for _, result := range results {
		p.Section(result.Name)
		for _, item := range result.Items {
			items[item.Status](item.Label, item.Detail)
		}
		p.Printf("")
	}

	counts := doctor.Tally(results)
	p.Printf("Summary: %d passed, %d warnings, %d failed", counts.Passed, counts.Warned, counts.Failed)
	if counts.Fixable > 0 {
		p.Infof("%d issue(s) can be repaired with 'nowplaying doctor --fix'", counts.Fixable)
	}

	return exitUnhealthy(counts)
}

func exitUnhealthy(c doctor.Counts) error {
	if !c.Healthy() {
		return cli.Exit("", 1)
	}
	return nil
}
