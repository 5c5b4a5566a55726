package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/hay-kot/nowplaying/internal/core/config"
	"github.com/hay-kot/nowplaying/internal/printer"
	"github.com/urfave/cli/v3"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "nowplaying config validate [options]",
				Description: "Validates the configuration file: MPD address, MusicBrainz endpoints and limits, and the settings file location.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if cmd.flags.Config == nil {
		return fmt.Errorf("configuration not loaded")
	}

	err := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath)
	warnings := cmd.flags.Config.Warnings()

	if cmd.format == "json" {
		return cmd.outputJSON(c, err, warnings)
	}
	if cmd.format != "text" {
		return fmt.Errorf("unknown format %q", cmd.format)
	}

	return cmd.outputText(p, err, warnings)
}

type validationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validationReport struct {
	Valid    bool                       `json:"valid"`
	Errors   []validationIssue          `json:"errors,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

func newValidationReport(err error, warnings []config.ValidationWarning) validationReport {
	r := validationReport{Valid: err == nil, Warnings: warnings}
	for _, fe := range fieldErrors(err) {
		r.Errors = append(r.Errors, validationIssue{Field: fe.Field, Message: fe.Err.Error()})
	}
	return r
}

func (cmd *ConfigValidateCmd) outputJSON(c *cli.Command, validationErr error, warnings []config.ValidationWarning) error {
	report := newValidationReport(validationErr, warnings)
	if err := writeJSON(c.Root().Writer, report); err != nil {
		return err
	}
	if !report.Valid {
		return cli.Exit("", 1)
	}
	return nil
}

// fieldErrors flattens a validation error into field errors; anything that
// is not a criterio error becomes a single entry without a field.
func fieldErrors(err error) criterio.FieldErrors {
	if err == nil {
		return nil
	}
	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		return fieldErrs
	}
	return criterio.FieldErrors{{Err: err}}
}

func (cmd *ConfigValidateCmd) outputText(p *printer.Printer, validationErr error, warnings []config.ValidationWarning) error {
	report := newValidationReport(validationErr, warnings)

	if len(report.Errors) > 0 {
		p.Section("Errors")
		for _, e := range report.Errors {
			label := e.Field
			if label == "" {
				label = "config"
			}
			p.FailItem(label, e.Message)
		}
		p.Printf("")
	}

	if len(warnings) > 0 {
		p.Section("Warnings")
		for _, w := range warnings {
			label := w.Category
			if w.Item != "" {
				label += "." + w.Item
			}
			p.WarnItem(label, w.Message)
		}
		p.Printf("")
	}

	switch {
	case !report.Valid:
		p.Errorf("%d error(s), %d warning(s) in %s", len(report.Errors), len(warnings), cmd.flags.ConfigPath)
		return cli.Exit("", 1)
	case len(warnings) > 0:
		p.Successf("Configuration is valid (%d warning(s))", len(warnings))
	default:
		p.Successf("Configuration is valid")
	}
	return nil
}
