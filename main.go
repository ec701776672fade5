package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/coryne/segmentation/internal/app"
	"github.com/coryne/segmentation/internal/l10n"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Environment variables may back the flags; a .env file is optional.
	_ = godotenv.Load()

	if err := run(os.Args, os.Stdout, os.Stderr); err != nil {
		var exitCoder cli.ExitCoder
		if errors.As(err, &exitCoder) {
			if msg := err.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exitCoder.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the command line in args and returns the error that decides
// the exit code.
func run(args []string, stdout, stderr io.Writer) error {
	return newApp(stdout, stderr).Run(normalizeVerbose(args))
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:                   app.ProgramName,
		Usage:                  l10n.T("segment tif images"),
		HideHelpCommand:        true,
		UseShortOptionHandling: true,
		Flags:                  flags(),
		Writer:                 stdout,
		ErrWriter:              stderr,
		OnUsageError: func(c *cli.Context, err error, _ bool) error {
			fmt.Fprintf(c.App.ErrWriter, "%s %v\n\n", l10n.T("Incorrect Usage:"), err)
			_ = cli.ShowAppHelp(c)
			return cli.Exit("", 2)
		},
		// Exit codes are applied in main so run stays testable.
		ExitErrHandler: func(*cli.Context, error) {},
		Action:         action(stdout),
	}
}

func action(stdout io.Writer) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() > 0 {
			return cli.Exit(l10n.T("unexpected argument: %s", c.Args().First()), 2)
		}

		settings, err := settingsSource(c).Read()
		if err != nil {
			return cli.Exit(err, 1)
		}

		a, err := app.New(argumentsFromContext(c), settings, stdout)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Init(c.Bool("clear")); err != nil {
			return cli.Exit(err, 1)
		}

		log := a.Log()
		log.Debug("program initialized",
			"config", a.Config.Path(),
			"pid-file", a.PIDFile,
			"write-back", settings.WriteBack,
			"safe-save", settings.SafeSave,
			"backup", settings.Backup)
		if a.Args.Input != nil {
			log.Info("input file", "path", *a.Args.Input)
		}

		assignments := c.StringSlice("set")
		if len(assignments) == 0 {
			return nil
		}
		for _, s := range assignments {
			section, key, value, err := parseAssignment(s)
			if err != nil {
				return cli.Exit(err, 2)
			}
			if err := a.Config.Set(section, key, value); err != nil {
				return cli.Exit(err, 2)
			}
			log.Debug("configuration value set", "section", section, "key", key)
		}
		// Without write-back Save reports the mode error instead.
		if a.Config.Path() == "" && settings.WriteBack {
			log.Warn("no configuration file given, values were not saved")
			return nil
		}
		if err := a.Config.Save(); err != nil {
			log.Error("cannot save configuration", "error", err)
			return cli.Exit(err, 1)
		}
		log.Info(l10n.TN("saved %d configuration value", "saved %d configuration values", uint32(len(assignments)), len(assignments)))

		return nil
	}
}
