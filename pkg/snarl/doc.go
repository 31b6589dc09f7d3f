// SPDX-License-Identifier: MPL-2.0

// Package snarl implements a literate-programming processor for Markdown.
//
// A document mixes prose with fenced code blocks. A fence opener may carry a
// label and flags after an equals sign:
//
//	```go=main.go --file --tag app
//	package main
//
//	<<imports>>
//	```
//
// A later opener with the append marker extends an existing block:
//
//	```go+=imports
//	import "fmt"
//	```
//
// Other files are spliced in with an include directive, either re-parsed
// (their blocks join the same store) or copied verbatim:
//
//	<!-- include --verbatim LICENSE -->
//	%include chapter2.md
//
// Any prose line starting with "%i " or "%include " is an include, so text
// such as "%i think" must be escaped. A line starting with %% is prose; the
// doubled sentinel is reduced to one:
//
//	%%i think this works
//
// weaves as "%i think this works".
//
// After parsing, a Session can weave the document (prose plus every visible
// block, re-fenced) or tangle blocks into files, expanding <<label>>
// references recursively:
//
//	s := snarl.New(snarl.WithFs(afero.NewOsFs()))
//	if err := s.ParseFile(ctx, "README.md"); err != nil {
//		return err
//	}
//	files, err := s.Tangle(snarl.Selector{})
//
// Parsing is single-pass and depth-first; includes nest at most
// MaxIncludeDepth levels. Every error wraps ErrSnarl, and parse failures are
// *ParseError values carrying the file and 1-based line.
package snarl
