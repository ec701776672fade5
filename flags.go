package main

import (
	"fmt"
	"strings"

	"github.com/coryne/segmentation/internal/app"
	"github.com/coryne/segmentation/internal/conf"
	"github.com/coryne/segmentation/internal/l10n"
	"github.com/urfave/cli/v2"
)

const envPrefix = "CORYNE_SEGMENTATION_"

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      "input",
			Aliases:   []string{"i"},
			Usage:     l10n.T("Specify tif input file"),
			EnvVars:   []string{envPrefix + "INPUT"},
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "logfile",
			Aliases:   []string{"f"},
			Usage:     l10n.T("Save log entries to `FILE`"),
			EnvVars:   []string{envPrefix + "LOGFILE"},
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   l10n.T("Switch on verbose logging (repeat for debug output)"),
		},
		&cli.StringFlag{
			Name:      "config",
			Aliases:   []string{"c"},
			Usage:     l10n.T("Read configuration from `FILE`"),
			EnvVars:   []string{envPrefix + "CONFIG"},
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:  "clear",
			Usage: l10n.T("Drop configuration keys that are no longer in the configuration file"),
		},
		&cli.StringSliceFlag{
			Name:  "set",
			Usage: l10n.T("Set configuration value `SECTION.KEY=VALUE` and save the configuration file"),
		},
		&cli.StringFlag{
			Name:      "settings",
			Usage:     l10n.T("Read program settings from `FILE`"),
			EnvVars:   []string{envPrefix + "SETTINGS"},
			TakesFile: true,
		},
	}
}

// valueFlags take their value from the following argument.
var valueFlags = map[string]bool{
	"-i": true, "-input": true, "--input": true,
	"-f": true, "-logfile": true, "--logfile": true,
	"-c": true, "-config": true, "--config": true,
	"-set": true, "--set": true,
	"-settings": true, "--settings": true,
}

// normalizeVerbose rewrites the long verbose flag to -v so that both forms
// count towards the same verbosity. args[0] is the program name.
func normalizeVerbose(args []string) []string {
	if len(args) == 0 {
		return args
	}
	out := append(make([]string, 0, len(args)), args[0])
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return append(out, args[i:]...)
		case arg == "--verbose" || arg == "-verbose":
			arg = "-v"
		case valueFlags[arg] && i+1 < len(args):
			out = append(out, arg)
			i++
			arg = args[i]
		}
		out = append(out, arg)
	}
	return out
}

// argumentsFromContext converts parsed flags into app.Arguments. Options
// that were not given stay nil.
func argumentsFromContext(c *cli.Context) app.Arguments {
	args := app.Arguments{
		Verbose: c.Count("verbose"),
	}
	if args.Verbose < 0 {
		args.Verbose = 0
	}
	if c.IsSet("input") {
		v := c.String("input")
		args.Input = &v
	}
	if c.IsSet("logfile") {
		v := c.String("logfile")
		args.LogFile = &v
	}
	if c.IsSet("config") {
		v := c.String("config")
		args.ConfFile = &v
	}
	return args
}

func settingsSource(c *cli.Context) *conf.SettingsSource {
	if c.IsSet("settings") {
		return &conf.SettingsSource{Path: c.String("settings")}
	}
	return conf.DefaultSettingsSource(app.ProgramName)
}

// parseAssignment splits "SECTION.KEY=VALUE". The section is everything
// before the last dot of the left-hand side.
func parseAssignment(s string) (section, key, value string, err error) {
	name, value, found := strings.Cut(s, "=")
	if !found {
		return "", "", "", fmt.Errorf(l10n.T("invalid assignment %q: missing '='"), s)
	}
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return "", "", "", fmt.Errorf(l10n.T("invalid assignment %q: expected SECTION.KEY=VALUE"), s)
	}
	return strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+1:]), value, nil
}
