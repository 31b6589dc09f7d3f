// SPDX-License-Identifier: MPL-2.0

package snarl

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSnarl is wrapped by every error this package returns, so callers can
	// tell document errors apart from I/O failures with errors.Is.
	ErrSnarl = errors.New("snarl error")

	// ErrRecursiveInclude is the sentinel error wrapped by RecursiveIncludeError.
	ErrRecursiveInclude = fmt.Errorf("%w: include depth exceeded", ErrSnarl)
	// ErrBlockArgument is the sentinel error wrapped by BlockArgumentError.
	ErrBlockArgument = fmt.Errorf("%w: bad directive arguments", ErrSnarl)
	// ErrUnexpectedEOF is the sentinel error wrapped by UnexpectedEOFError.
	ErrUnexpectedEOF = fmt.Errorf("%w: unexpected end of input", ErrSnarl)
	// ErrBlockNotFound is the sentinel error wrapped by BlockNotFoundError.
	ErrBlockNotFound = fmt.Errorf("%w: block not found", ErrSnarl)
	// ErrFileNotFound is the sentinel error wrapped by FileNotFoundError.
	ErrFileNotFound = fmt.Errorf("%w: file not found", ErrSnarl)
	// ErrBlockCycle is the sentinel error wrapped by BlockCycleError.
	ErrBlockCycle = fmt.Errorf("%w: block reference cycle", ErrSnarl)
	// ErrDuplicateBlock is the sentinel error wrapped by DuplicateBlockError.
	ErrDuplicateBlock = fmt.Errorf("%w: duplicate block label", ErrSnarl)
)

type (
	// RecursiveIncludeError is returned when a chain of includes would parse a
	// document at or beyond MaxIncludeDepth.
	RecursiveIncludeError struct {
		Depth int
	}

	// BlockArgumentError is returned when the argument string of a codeblock
	// or include directive cannot be tokenized or contains unknown flags,
	// missing values or surplus positionals.
	BlockArgumentError struct {
		Directive DirectiveKind
		Reason    string
	}

	// UnexpectedEOFError is returned when the input ends while a code block is
	// still open.
	UnexpectedEOFError struct {
		Label string
	}

	// BlockNotFoundError is returned when appending to, generating or
	// tangling a label that was never declared.
	BlockNotFoundError struct {
		Label string
	}

	// FileNotFoundError is returned when an include target does not exist and
	// missing includes are not tolerated.
	FileNotFoundError struct {
		Path string
		Err  error
	}

	// BlockCycleError is returned during generation when a block reference
	// leads back to a block that is already being expanded.
	BlockCycleError struct {
		// Path lists the labels from the outermost block to the repeated one.
		Path []string
	}

	// DuplicateBlockError is returned when a codeblock opener reuses an
	// existing label without the append marker.
	DuplicateBlockError struct {
		Label string
	}

	// ParseError attributes a parse failure to the file and 1-based line that
	// caused it. Errors raised inside nested includes carry the position in
	// the included file.
	ParseError struct {
		File string
		Line int
		Text string
		Err  error
	}
)

func (e *RecursiveIncludeError) Error() string {
	return fmt.Sprintf("include depth %d exceeds the maximum of %d", e.Depth, MaxIncludeDepth)
}

// Unwrap returns ErrRecursiveInclude for errors.Is compatibility.
func (e *RecursiveIncludeError) Unwrap() error { return ErrRecursiveInclude }

func (e *BlockArgumentError) Error() string {
	return fmt.Sprintf("bad %s arguments: %s", e.Directive, e.Reason)
}

// Unwrap returns ErrBlockArgument for errors.Is compatibility.
func (e *BlockArgumentError) Unwrap() error { return ErrBlockArgument }

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("unexpected end of input: block %q is not closed", e.Label)
}

// Unwrap returns ErrUnexpectedEOF for errors.Is compatibility.
func (e *UnexpectedEOFError) Unwrap() error { return ErrUnexpectedEOF }

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("no such block named %q", e.Label)
}

// Unwrap returns ErrBlockNotFound for errors.Is compatibility.
func (e *BlockNotFoundError) Unwrap() error { return ErrBlockNotFound }

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("include file %q not found", e.Path)
}

// Unwrap returns both ErrFileNotFound and the underlying open error.
func (e *FileNotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFileNotFound}
	}
	return []error{ErrFileNotFound, e.Err}
}

func (e *BlockCycleError) Error() string {
	return fmt.Sprintf("block reference cycle: %s", strings.Join(e.Path, " -> "))
}

// Unwrap returns ErrBlockCycle for errors.Is compatibility.
func (e *BlockCycleError) Unwrap() error { return ErrBlockCycle }

func (e *DuplicateBlockError) Error() string {
	return fmt.Sprintf("block %q is already defined (use +=%s to append)", e.Label, e.Label)
}

// Unwrap returns ErrDuplicateBlock for errors.Is compatibility.
func (e *DuplicateBlockError) Unwrap() error { return ErrDuplicateBlock }

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

// Unwrap returns the positioned error.
func (e *ParseError) Unwrap() error { return e.Err }
