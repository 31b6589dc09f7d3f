// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"io/fs"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/larsks/snarl/pkg/snarl"
)

type Id int

const (
	InputNotFoundId Id = iota + 1
	BlockArgumentId
	UnterminatedBlockId
	BlockNotFoundId
	DuplicateBlockId
	IncludeNotFoundId
	RecursiveIncludeId
	BlockCycleId
	OutputExistsId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render formats the issue for the terminal. stylePath is a glamour style
// name ("dark", "light", "notty") or a path to a style file.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

const syntaxDoc HttpLink = "https://github.com/larsks/snarl#syntax"

var (
	render = glamour.Render

	inputNotFoundIssue = &Issue{
		id: InputNotFoundId,
		mdMsg: `
# Input document not found!

snarl could not open the document named on the command line.

## Things you can try:
- Check the spelling of the path
- Use '-' to read the document from standard input:
~~~
$ cat README.md | snarl weave -
~~~`,
	}

	blockArgumentIssue = &Issue{
		id: BlockArgumentId,
		mdMsg: `
# Invalid directive arguments!

A code block opener or include directive carries arguments snarl does not
understand.

## Block flags
- '--hide', '-H': leave the block out of the woven document
- '--file', '-f': mark the block as a tangle target
- '--tag', '-t' TAG: add a tag (repeatable)
- '--replace', '-r' PATTERN SUBSTITUTION: rewrite generated lines (repeatable)
- '--escape-html', '--verbatim', '--lang' LANG

## Include flags
- '--escape-html', '-e' and '--verbatim', '-v'

## Example
~~~markdown
` + "```go=main.go --file --tag app" + `
~~~`,
		docLinks: []HttpLink{syntaxDoc},
	}

	unterminatedBlockIssue = &Issue{
		id: UnterminatedBlockId,
		mdMsg: `
# Unterminated code block!

The document ended while a code block was still open.

## Things you can try:
- Add a closing fence (three backticks on a line by themselves)
- Check for a fence with trailing text, which does not close a block`,
	}

	blockNotFoundIssue = &Issue{
		id: BlockNotFoundId,
		mdMsg: `
# Block not found!

A reference, an append directive or the command line names a block that was
never declared.

## Things you can try:
- List the declared blocks:
~~~
$ snarl files --all README.md
~~~
- Check that the block is declared before it is appended to
- Check that included files declaring the block are present`,
	}

	duplicateBlockIssue = &Issue{
		id: DuplicateBlockId,
		mdMsg: `
# Duplicate block label!

Two code blocks declare the same label.

## Things you can try:
- Use the append form to extend the earlier block:
~~~markdown
` + "```+=label" + `
~~~
- Rename one of the blocks`,
	}

	includeNotFoundIssue = &Issue{
		id: IncludeNotFoundId,
		mdMsg: `
# Include file not found!

Include paths are resolved relative to the file containing the directive.

## Things you can try:
- Check the path in the include directive
- Pass '--ignore-missing' (or set 'ignore_missing: true') to skip missing includes`,
	}

	recursiveIncludeIssue = &Issue{
		id: RecursiveIncludeId,
		mdMsg: `
# Includes nested too deeply!

Includes may nest at most 10 levels. This usually means a file includes
itself, directly or through other files.

## Things you can try:
- Look for an include cycle between the listed files
- Flatten deeply nested includes`,
	}

	blockCycleIssue = &Issue{
		id: BlockCycleId,
		mdMsg: `
# Block reference cycle!

A block references itself, directly or through other blocks, so it cannot be
expanded.

## Things you can try:
- Follow the reported path and remove one of the references
- Mark a block '--verbatim' if its references are meant literally`,
	}

	outputExistsIssue = &Issue{
		id: OutputExistsId,
		mdMsg: `
# Output file already exists!

snarl does not overwrite existing files unless asked to.

## Things you can try:
- Pass '--overwrite' or set 'SNARL_OVERWRITE=1'
- Choose another output directory with '--output-dir'`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Print the configuration file location:
~~~
$ snarl config path
~~~
- Write a fresh default configuration:
~~~
$ snarl config init
~~~
- Check the file against the schema shown by 'snarl config dump'`,
	}

	issues = map[Id]*Issue{
		inputNotFoundIssue.Id():     inputNotFoundIssue,
		blockArgumentIssue.Id():     blockArgumentIssue,
		unterminatedBlockIssue.Id(): unterminatedBlockIssue,
		blockNotFoundIssue.Id():     blockNotFoundIssue,
		duplicateBlockIssue.Id():    duplicateBlockIssue,
		includeNotFoundIssue.Id():   includeNotFoundIssue,
		recursiveIncludeIssue.Id():  recursiveIncludeIssue,
		blockCycleIssue.Id():        blockCycleIssue,
		outputExistsIssue.Id():      outputExistsIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}

// Classify maps a processing error to its catalog entry, or zero when there
// is none. Include failures are checked before the generic not-exist case.
func Classify(err error) Id {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, snarl.ErrFileNotFound):
		return IncludeNotFoundId
	case errors.Is(err, snarl.ErrRecursiveInclude):
		return RecursiveIncludeId
	case errors.Is(err, snarl.ErrBlockArgument):
		return BlockArgumentId
	case errors.Is(err, snarl.ErrUnexpectedEOF):
		return UnterminatedBlockId
	case errors.Is(err, snarl.ErrBlockNotFound):
		return BlockNotFoundId
	case errors.Is(err, snarl.ErrDuplicateBlock):
		return DuplicateBlockId
	case errors.Is(err, snarl.ErrBlockCycle):
		return BlockCycleId
	case errors.Is(err, fs.ErrNotExist):
		return InputNotFoundId
	default:
		return 0
	}
}
