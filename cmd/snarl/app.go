// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/afero"

	"github.com/larsks/snarl/internal/config"
	"github.com/larsks/snarl/internal/logging"
	"github.com/larsks/snarl/pkg/snarl"
)

// stdinName labels documents read from standard input in error positions.
const stdinName = "<stdin>"

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and reads
	// its configuration, logger and filesystem from it.
	App struct {
		Config config.Provider
		Fs     afero.Fs

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		// Populated by setup before any subcommand runs.
		cfg       *config.Config
		logger    *logging.Logger
		verbosity int
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Fs     afero.Fs
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// globalFlags holds the persistent root flags.
	globalFlags struct {
		verbosity     int
		ignoreMissing bool
		configPath    string
	}
)

// NewApp creates an App with production defaults for missing dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}

	return &App{
		Config: deps.Config,
		Fs:     deps.Fs,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		cfg:    config.DefaultConfig(),
	}, nil
}

// setup loads configuration and builds the logger. A configuration that
// fails to load is reported and replaced by the defaults.
func (a *App) setup(ctx context.Context, flags *globalFlags) error {
	a.verbosity = flags.verbosity

	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.verbosity > 1))
		cfg = config.DefaultConfig()
	}
	if flags.ignoreMissing {
		cfg.IgnoreMissing = true
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:   logging.Level(cfg.Log.Level.Slog(), a.verbosity),
		Stderr:  a.stderr,
		File:    cfg.Log.File,
		Journal: cfg.Log.Journal,
	})
	if err != nil {
		return err
	}
	a.logger = logger
	a.logger.Debug("configuration loaded", "source", cfg.Source)
	return nil
}

// teardown releases the logger's resources.
func (a *App) teardown() error {
	if a.logger == nil {
		return nil
	}
	return a.logger.Close()
}

// newSession creates a session wired to the App's filesystem, logger and
// configuration. extra observers see every event alongside the logger.
func (a *App) newSession(extra ...snarl.Observer) *snarl.Session {
	observers := slices.Clone(extra)
	if a.logger != nil {
		observers = append(observers, snarl.LogObserver(a.logger.Logger))
	}
	return snarl.New(
		snarl.WithFs(a.Fs),
		snarl.WithIgnoreMissing(a.cfg.IgnoreMissing),
		snarl.WithObserver(snarl.Observers(observers...)),
	)
}

// loadDocument parses infile into a new session. An empty name or "-" reads
// standard input.
func (a *App) loadDocument(ctx context.Context, infile string, extra ...snarl.Observer) (*snarl.Session, error) {
	s := a.newSession(extra...)

	var err error
	if isStdin(infile) {
		infile = stdinName
		err = s.Parse(ctx, a.stdin, stdinName)
	} else {
		err = s.ParseFile(ctx, infile)
	}
	if err != nil {
		return nil, explain(err, "parse document", infile, nil)
	}
	return s, nil
}

func isStdin(name string) bool {
	return name == "" || name == "-"
}
