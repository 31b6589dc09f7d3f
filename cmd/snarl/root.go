// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the snarl command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// exitInterrupted is the exit status after SIGINT, as shells report it.
const exitInterrupted = 130

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the snarl command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "snarl",
		Short: "A literate programming tool for Markdown",
		Long: TitleStyle.Render("snarl") + SubtitleStyle.Render(" - literate programming for Markdown") + `

snarl reads a Markdown document containing labelled code blocks.
Tangling writes those blocks out as source files, expanding <<label>>
references to other blocks. Weaving writes the document itself with
snarl's directives removed.

` + SubtitleStyle.Render("Examples:") + `
  snarl tangle README.md          Write every --file block of README.md
  snarl tangle -s README.md main  Print the expanded 'main' block
  snarl weave -o doc.md README.md Write the cleaned-up document
  snarl files --all README.md     List every block label`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd.Context(), flags)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return app.teardown()
		},
	}

	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", "increase log verbosity (repeat for debug and trace output)")
	rootCmd.PersistentFlags().BoolVarP(&flags.ignoreMissing, "ignore-missing", "i", false, "skip include files that do not exist")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/snarl/config.cue)")

	rootCmd.AddCommand(
		newTangleCommand(app),
		newWeaveCommand(app),
		newFilesCommand(app),
		newConfigCommand(app),
		newCompletionCommand(),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with its status.
// This is called by main.main().
func Execute() {
	os.Exit(run(context.Background(), Dependencies{}))
}

// run executes the command tree and returns the process exit status.
func run(ctx context.Context, deps Dependencies) int {
	app, err := NewApp(deps)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	rootCmd := NewRootCommand(app)

	// fang.WithVersion because fang overrides rootCmd.Version
	err = fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, app.verbosity, app.cfg.UI.ColorScheme.GlamourStyle())
		}),
	)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// interrupted converts cancellation into an ExitError so the process exits
// the way an interrupted shell command does.
func interrupted(err error) error {
	if errors.Is(err, context.Canceled) {
		return &ExitError{Code: exitInterrupted, Err: err}
	}
	return err
}
