// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/larsks/snarl/internal/config"
	"github.com/larsks/snarl/internal/issue"
	"github.com/larsks/snarl/pkg/snarl"
)

// maxTypoDistance bounds the edit distance of "did you mean" suggestions.
const maxTypoDistance = 2

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// explain wraps a processing error in an ActionableError linked to its
// catalog entry. labels are the known blocks, used to suggest a close match
// for an unknown block name.
func explain(err error, operation, resource string, labels []string) error {
	if err == nil {
		return nil
	}

	id := issue.Classify(err)
	ec := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithIssue(id).
		Wrap(err)

	switch id {
	case issue.InputNotFoundId:
		ec.WithSuggestion("Check the input path, or pass '-' to read from standard input")
	case issue.IncludeNotFoundId:
		ec.WithSuggestions(
			"Include paths are relative to the including file",
			"Pass --ignore-missing to skip missing includes",
		)
	case issue.RecursiveIncludeId:
		ec.WithSuggestion("Check for a file that includes itself, directly or through another file")
	case issue.BlockArgumentId:
		var ba *snarl.BlockArgumentError
		if errors.As(err, &ba) && ba.Directive == snarl.DirectiveInclude {
			ec.WithSuggestions(
				"Include options are --escape-html (-e), --verbatim (-v) and one PATH",
				"A prose line starting with '%i ' or '%include ' is read as an include; write '%%' to keep it as text",
			)
			break
		}
		ec.WithSuggestion("Block options are --file, --hide, --verbatim, --escape-html, --lang LANG, --tag NAME and --replace PATTERN SUBSTITUTION")
	case issue.UnterminatedBlockId:
		ec.WithSuggestion("Add a closing ``` line after the block content")
	case issue.DuplicateBlockId:
		ec.WithSuggestion("Use ```+=label to append to an existing block")
	case issue.BlockCycleId:
		ec.WithSuggestion("Mark the block --verbatim if the reference is meant literally")
	case issue.BlockNotFoundId:
		var nf *snarl.BlockNotFoundError
		if errors.As(err, &nf) {
			ec.WithSuggestion(didYouMean(nf.Label, labels))
		}
		ec.WithSuggestion("Run 'snarl files --all' to list the available blocks")
	}

	return ec.BuildError()
}

// didYouMean returns a suggestion naming the label closest to name, or ""
// when nothing is close. Subsequence matches win over typo matches.
func didYouMean(name string, labels []string) string {
	if len(labels) == 0 {
		return ""
	}

	var best string
	if ranks := fuzzy.RankFindFold(name, labels); len(ranks) > 0 {
		slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int { return a.Distance - b.Distance })
		best = ranks[0].Target
	} else {
		bestDistance := maxTypoDistance + 1
		for _, label := range labels {
			if d := fuzzy.LevenshteinDistance(name, label); d < bestDistance {
				best, bestDistance = label, d
			}
		}
	}

	if best == "" {
		return ""
	}
	return fmt.Sprintf("Did you mean %q?", best)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// keptFilesError describes output files that tangle left in place.
func keptFilesError(dir string, kept []string) error {
	return issue.NewErrorContext().
		WithOperation("overwrite output").
		WithResource(dir).
		WithSuggestion("Use --overwrite or " + config.OverwriteEnv + "=1 to replace them").
		WithSuggestion("Choose another directory with --output-dir").
		WithIssue(issue.OutputExistsId).
		Wrap(fmt.Errorf("kept %d existing file(s): %s", len(kept), strings.Join(kept, ", "))).
		BuildError()
}

// renderError writes err to w. With any -v flag the linked catalog entry is
// rendered below it.
func renderError(w io.Writer, err error, verbosity int, style string) {
	renderIssue(w, ErrorStyle.Render("Error:"), err, verbosity, style)
}

// renderWarning is renderError for problems that do not fail the command.
func renderWarning(w io.Writer, err error, verbosity int, style string) {
	renderIssue(w, WarningStyle.Render("Warning:"), err, verbosity, style)
}

func renderIssue(w io.Writer, prefix string, err error, verbosity int, style string) {
	fmt.Fprintln(w, prefix+" "+formatErrorForDisplay(err, verbosity > 1))

	if verbosity == 0 {
		return
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Issue == 0 {
		return
	}
	if entry := issue.Get(ae.Issue); entry != nil {
		if rendered, rerr := entry.Render(style); rerr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}
