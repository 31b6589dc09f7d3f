// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/larsks/snarl/internal/config"
)

// newConfigCommand creates the `snarl config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage snarl configuration",
		Long: `Manage snarl configuration.

Configuration is read from config.cue or config.toml in:
  - Linux: ~/.config/snarl/
  - macOS: ~/Library/Application Support/snarl/
  - Windows: %APPDATA%\snarl\

SNARL_* environment variables override file values, and flags override both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			showConfig(app.stdout, app.cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.cfg.Source
			if path == "" {
				dir, err := config.ConfigDir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, config.ConfigFileName+".cue")
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig("")
			if err != nil {
				return explain(err, "create configuration", path, nil)
			}
			if created {
				fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Created"), path)
			} else {
				fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("Config already exists at"), path)
			}
			return nil
		},
	})

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE or TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "cue":
				_, err := io.WriteString(app.stdout, config.GenerateCUE(app.cfg))
				return err
			case "toml":
				out, err := config.GenerateTOML(app.cfg)
				if err != nil {
					return err
				}
				_, err = io.WriteString(app.stdout, out)
				return err
			case "schema":
				_, err := io.WriteString(app.stdout, config.Schema())
				return err
			default:
				return fmt.Errorf("unknown format %q (valid: cue, toml, schema)", format)
			}
		},
	}
	dumpCmd.Flags().StringVarP(&format, "format", "f", "cue", "output format: cue, toml or schema")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config) {
	source := cfg.Source
	if source == "" {
		source = SubtitleStyle.Render("(using defaults)")
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), source)
	fmt.Fprintln(w)

	rows := []struct {
		key   string
		value any
	}{
		{"ignore_missing", cfg.IgnoreMissing},
		{"tangle.output_dir", cfg.Tangle.OutputDir},
		{"tangle.overwrite", cfg.Tangle.Overwrite},
		{"log.level", cfg.Log.Level},
		{"log.file", cfg.Log.File},
		{"log.journal", cfg.Log.Journal},
		{"ui.color_scheme", cfg.UI.ColorScheme},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render(row.key), SuccessStyle.Render(fmt.Sprint(row.value)))
	}
}
