// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// newWeaveCommand creates the `snarl weave` command.
func newWeaveCommand(app *App) *cobra.Command {
	var (
		output string
		render bool
	)

	cmd := &cobra.Command{
		Use:   "weave [infile|-]",
		Short: "Write the document with snarl directives removed",
		Long: `Write the document as plain Markdown: block labels and options are
stripped from code fences, include directives are replaced by the included
content, and hidden blocks are dropped.

Prose lines that start with "%i " or "%include " are read as includes. Write
"%%" at the start of such a line to keep it as text; the woven output has a
single "%".

--render formats the result for the terminal instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var infile string
			if len(args) > 0 {
				infile = args[0]
			}

			s, err := app.loadDocument(cmd.Context(), infile)
			if err != nil {
				return interrupted(err)
			}

			doc := s.WeaveString()
			if render {
				doc, err = glamour.Render(doc, app.cfg.UI.ColorScheme.GlamourStyle())
				if err != nil {
					return fmt.Errorf("render document: %w", err)
				}
			}

			if output == "" || output == "-" {
				_, err = io.WriteString(app.stdout, doc)
				return err
			}
			if err := afero.WriteFile(app.Fs, output, []byte(doc), 0o644); err != nil {
				return explain(err, "write output", output, nil)
			}
			app.logger.Info("writing file", "path", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of standard output")
	cmd.Flags().BoolVar(&render, "render", false, "render Markdown for the terminal")

	return cmd
}
