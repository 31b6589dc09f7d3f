// SPDX-License-Identifier: MPL-2.0

package snarl

import (
	"regexp"
	"strings"
)

const (
	// DirectiveProse is any line that is not a directive. It is copied verbatim.
	DirectiveProse DirectiveKind = iota
	// DirectiveOpen starts (or, with the append marker, extends) a code block.
	DirectiveOpen
	// DirectiveClose ends the code block being captured.
	DirectiveClose
	// DirectiveReference stands for another block's expansion. Only the
	// generator interprets it.
	DirectiveReference
	// DirectiveInclude splices another file into the document.
	DirectiveInclude
	// DirectiveEscape is a prose line that would otherwise look like a
	// sentinel directive.
	DirectiveEscape
)

type (
	// DirectiveKind classifies a single input line.
	DirectiveKind int

	// Directive is the result of matching one line.
	Directive struct {
		Kind DirectiveKind
		// Lang is the inline language tag of a codeblock opener.
		Lang string
		// Append is set when a codeblock opener carries the append marker.
		Append bool
		// Args is the raw, still shell-quoted, argument string of an opener
		// or include.
		Args string
		// Label is the referenced label of a block reference.
		Label string
		// Text is the unescaped line of an escape marker.
		Text string
	}

	// Rules is the table of compiled patterns the matcher applies. A Rules
	// value is immutable after construction and may be shared by sessions.
	Rules struct {
		Open      *regexp.Regexp
		Close     *regexp.Regexp
		Reference *regexp.Regexp
		Include   []*regexp.Regexp
		Escape    *regexp.Regexp
		// Sentinel replaces the doubled sentinel of an escape marker.
		Sentinel string
	}
)

var defaultRules = &Rules{
	Open:      regexp.MustCompile("^```(?P<lang>\\w+)?(?:(?P<append>\\+)?=(?P<args>.*)|[^`]*)$"),
	Close:     regexp.MustCompile("^```\\s*$"),
	Reference: regexp.MustCompile(`^\s*<<(?P<label>.+)>>\s*$`),
	Include: []*regexp.Regexp{
		regexp.MustCompile(`^<!-- i(?:nclude)? (?P<args>.*) -->\s*$`),
		regexp.MustCompile(`^%i(?:nclude)? (?P<args>.*)$`),
	},
	Escape:   regexp.MustCompile(`^%%(?P<rest>.*)$`),
	Sentinel: "%",
}

// DefaultRules returns the standard Markdown directive syntax.
func DefaultRules() *Rules {
	return defaultRules
}

// String returns the directive name used in diagnostics.
func (k DirectiveKind) String() string {
	switch k {
	case DirectiveOpen:
		return "codeblock"
	case DirectiveClose:
		return "close"
	case DirectiveReference:
		return "reference"
	case DirectiveInclude:
		return "include"
	case DirectiveEscape:
		return "escape"
	default:
		return "prose"
	}
}

// Match classifies a line in the prose context. Line terminators are ignored.
// Close fences and block references are never reported here: an opener takes
// precedence over a bare fence, and references only mean something inside a
// block. Use MatchClose and MatchReference for those contexts.
func (r *Rules) Match(line string) Directive {
	line = chomp(line)

	if m := r.Open.FindStringSubmatch(line); m != nil {
		return Directive{
			Kind:   DirectiveOpen,
			Lang:   group(r.Open, m, "lang"),
			Append: group(r.Open, m, "append") != "",
			Args:   strings.TrimSpace(group(r.Open, m, "args")),
		}
	}

	for _, re := range r.Include {
		if m := re.FindStringSubmatch(line); m != nil {
			return Directive{Kind: DirectiveInclude, Args: group(re, m, "args")}
		}
	}

	if m := r.Escape.FindStringSubmatch(line); m != nil {
		return Directive{Kind: DirectiveEscape, Text: r.Sentinel + group(r.Escape, m, "rest")}
	}

	return Directive{Kind: DirectiveProse}
}

// MatchClose reports whether line ends the block being captured.
func (r *Rules) MatchClose(line string) bool {
	return r.Close.MatchString(chomp(line))
}

// MatchReference returns the label of a block reference line.
func (r *Rules) MatchReference(line string) (string, bool) {
	m := r.Reference.FindStringSubmatch(chomp(line))
	if m == nil {
		return "", false
	}
	return group(r.Reference, m, "label"), true
}

func group(re *regexp.Regexp, m []string, name string) string {
	if i := re.SubexpIndex(name); i >= 0 && i < len(m) {
		return m[i]
	}
	return ""
}

// chomp strips one trailing line terminator.
func chomp(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
