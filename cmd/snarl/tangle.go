// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/larsks/snarl/internal/config"
	"github.com/larsks/snarl/internal/watch"
	"github.com/larsks/snarl/pkg/snarl"
)

type tangleOptions struct {
	outputDir string
	overwrite bool
	stdout    bool
	all       bool
	tags      []string
	watch     bool
}

// newTangleCommand creates the `snarl tangle` command.
func newTangleCommand(app *App) *cobra.Command {
	opts := &tangleOptions{}

	cmd := &cobra.Command{
		Use:   "tangle [infile|-] [block...]",
		Short: "Write code blocks out as files",
		Long: `Generate the expanded content of code blocks and write each one to
a file named after its label.

With no block names, every block marked --file is written; --all selects
every block instead, and --tag restricts either selection. Existing files
are left alone unless --overwrite is given (or ` + config.OverwriteEnv + ` is set).

--watch tangles again whenever the document or a file it includes changes.
Watching implies --overwrite.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("output-dir") {
				opts.outputDir = app.cfg.Tangle.OutputDir
			}
			if !cmd.Flags().Changed("overwrite") {
				opts.overwrite = app.cfg.Tangle.Overwrite
			}

			var infile string
			var blocks []string
			if len(args) > 0 {
				infile, blocks = args[0], args[1:]
			}

			if opts.watch {
				if isStdin(infile) {
					return errors.New("--watch needs an input file, not standard input")
				}
				opts.overwrite = true
				return interrupted(watchTangle(cmd.Context(), app, opts, infile, blocks))
			}
			_, err := runTangle(cmd.Context(), app, opts, infile, blocks)
			return interrupted(err)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", ".", "directory to write files into")
	cmd.Flags().BoolVarP(&opts.overwrite, "overwrite", "w", false, "replace existing files")
	cmd.Flags().BoolVarP(&opts.stdout, "stdout", "s", false, "write generated content to standard output")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "select every block, not just --file blocks")
	cmd.Flags().StringArrayVarP(&opts.tags, "tag", "t", nil, "select blocks with this tag (repeatable)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "tangle again when the document or its includes change")

	return cmd
}

// runTangle tangles infile once. It returns the files that were read: the
// document itself and every include it reached.
func runTangle(ctx context.Context, app *App, opts *tangleOptions, infile string, blocks []string) ([]string, error) {
	inputs := []string{infile}
	track := snarl.ObserverFunc(func(e snarl.Event) {
		if e.Kind == snarl.EventInclude {
			inputs = append(inputs, e.Path)
		}
	})

	s, err := app.loadDocument(ctx, infile, track)
	if err != nil {
		return inputs, err
	}

	files, err := s.Tangle(snarl.Selector{Names: blocks, All: opts.all, Tags: opts.tags})
	if err != nil {
		return inputs, explain(err, "tangle document", infile, s.List(true))
	}

	if opts.stdout {
		for _, f := range files {
			if _, err := io.WriteString(app.stdout, f.Content); err != nil {
				return inputs, err
			}
		}
		return inputs, nil
	}

	report, err := snarl.WriteTangled(app.Fs, files, snarl.WriteOptions{
		Dir:       opts.outputDir,
		Overwrite: opts.overwrite,
		Observer:  snarl.LogObserver(app.logger.Logger),
	})
	if err != nil {
		return inputs, explain(err, "write output", opts.outputDir, nil)
	}

	if len(report.Skipped) > 0 {
		renderWarning(app.stderr, keptFilesError(opts.outputDir, report.Skipped), app.verbosity, app.cfg.UI.ColorScheme.GlamourStyle())
	}
	return inputs, nil
}

// watchTangle tangles infile, then again after every change to the files
// it read, until ctx is cancelled. Tangle errors are reported and do not
// stop the watch.
func watchTangle(ctx context.Context, app *App, opts *tangleOptions, infile string, blocks []string) error {
	inputs, err := runTangle(ctx, app, opts, infile, blocks)
	if err != nil {
		renderError(app.stderr, err, app.verbosity, app.cfg.UI.ColorScheme.GlamourStyle())
	}

	var w *watch.Watcher
	w, err = watch.New(watch.Config{
		Files:  inputs,
		Logger: app.logger.Logger,
		OnChange: func(ctx context.Context, changed []string) error {
			app.logger.Info("tangling after change", "changed", changed)
			inputs, err := runTangle(ctx, app, opts, infile, blocks)
			if err != nil {
				renderError(app.stderr, err, app.verbosity, app.cfg.UI.ColorScheme.GlamourStyle())
			}
			return w.SetFiles(inputs)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(app.stderr, SubtitleStyle.Render(fmt.Sprintf("Watching %d file(s); press Ctrl-C to stop", len(w.Files()))))
	return w.Run(ctx)
}
