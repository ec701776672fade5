package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/coryne/segmentation/internal/conf"
	"github.com/coryne/segmentation/internal/logging"
)

// ProgramName is used for the CLI, settings paths and the localization domain.
const ProgramName = "coryne-segmentation"

// Arguments holds the parsed command line. Optional paths are nil when the
// option was not given.
type Arguments struct {
	Input    *string
	LogFile  *string
	ConfFile *string
	Verbose  int
}

// App is the program context: parsed arguments, the log state and the
// configuration store. It is built once at startup and passed to whatever
// needs it.
type App struct {
	Args     Arguments
	Settings conf.Settings
	Logger   *logging.Logger
	Config   *conf.Store
	// PIDFile is where a pid file would live; nothing writes it.
	PIDFile string
}

// New normalizes the paths in args and builds the App. Nothing is logged or
// loaded until Init.
func New(args Arguments, settings conf.Settings, stdout io.Writer) (*App, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	args.LogFile = normalizePath(wd, args.LogFile)
	args.ConfFile = normalizePath(wd, args.ConfFile)

	logger := logging.New(stdout)

	var confPath string
	if args.ConfFile != nil {
		confPath = *args.ConfFile
	}

	return &App{
		Args:     args,
		Settings: settings,
		Logger:   logger,
		Config:   conf.NewStore(confPath, settings, logger.Slog()),
		PIDFile:  settings.PIDFile,
	}, nil
}

// Init configures logging from the arguments and loads the configuration
// file, clearing the in-memory configuration first if clear is set.
func (a *App) Init(clear bool) error {
	if err := a.ReconfigureLogger(); err != nil {
		return err
	}
	return a.Config.Reload(clear)
}

// ReconfigureLogger rebuilds the log sinks from the arguments.
func (a *App) ReconfigureLogger() error {
	return a.Logger.Reconfigure(logging.Options{
		Verbose: a.Args.Verbose,
		LogFile: a.Args.LogFile,
	})
}

// Log returns the program logger.
func (a *App) Log() *slog.Logger {
	return a.Logger.Slog()
}

// Close releases the log sinks.
func (a *App) Close() error {
	return a.Logger.Close()
}

// normalizePath places a bare file name in the working directory. Paths
// with a directory component are returned unchanged.
func normalizePath(wd string, path *string) *string {
	if path == nil || *path == "" || strings.ContainsRune(*path, filepath.Separator) {
		return path
	}
	joined := filepath.Join(wd, *path)
	return &joined
}
