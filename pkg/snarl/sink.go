// SPDX-License-Identifier: MPL-2.0

package snarl

import (
	"io"
	"slices"
	"strings"
)

// htmlEscaper escapes the five HTML metacharacters, quotes included, using
// the named entity for " and the hex reference for '.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Sink collects the woven document: prose lines as read and the rendering of
// every visible code block.
type Sink struct {
	lines []string
}

// WriteLine appends one line, which should carry its own terminator.
func (s *Sink) WriteLine(line string) {
	s.lines = append(s.lines, line)
}

// WriteBlock renders lines as a fenced code block. openEOL and closeEOL are
// the terminators of the fence lines; an empty terminator is written as "\n".
func (s *Sink) WriteBlock(lang string, lines []string, openEOL, closeEOL string) {
	s.lines = append(s.lines, "```"+lang+orNewline(openEOL))
	s.lines = append(s.lines, lines...)
	s.lines = append(s.lines, "```"+orNewline(closeEOL))
}

// Lines returns a copy of the collected lines.
func (s *Sink) Lines() []string {
	return slices.Clone(s.lines)
}

// String returns the collected document.
func (s *Sink) String() string {
	return strings.Join(s.lines, "")
}

// WriteTo writes the collected document to w.
func (s *Sink) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range s.lines {
		n, err := io.WriteString(w, line)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// terminator returns the line ending chomp would strip from line.
func terminator(line string) string {
	return line[len(chomp(line)):]
}

func orNewline(eol string) string {
	if eol == "" {
		return "\n"
	}
	return eol
}
