// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newFilesCommand creates the `snarl files` command.
func newFilesCommand(app *App) *cobra.Command {
	var (
		all  bool
		tags []string
	)

	cmd := &cobra.Command{
		Use:     "files [infile|-]",
		Aliases: []string{"list"},
		Short:   "List the blocks tangle would write",
		Long: `List block labels in declaration order, one per line.

Only --file blocks are listed unless --all is given; --tag restricts the
list to blocks carrying any of the given tags.`,
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
			for _, label := range s.List(all, tags...) {
				fmt.Fprintln(app.stdout, label)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every block, not just --file blocks")
	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "list blocks with this tag (repeatable)")

	return cmd
}
