// SPDX-License-Identifier: MPL-2.0

package snarl

import (
	"io"
	"iter"
	"slices"
	"strings"
)

type (
	// Lines produces the expanded lines of a block. References to other
	// blocks are replaced by their own expansion, then the block's
	// replacements are applied. Generation never modifies the store, so a
	// Lines value can be Reset and replayed with identical results.
	//
	//	lines, err := session.Generate("main.go")
	//	for lines.Next() {
	//		fmt.Print(lines.Line())
	//	}
	//	if err := lines.Err(); err != nil { ... }
	Lines struct {
		store    *Store
		rules    *Rules
		observer Observer
		root     *Block

		stack []frame
		line  string
		err   error
	}

	frame struct {
		block *Block
		pos   int
	}
)

func newLines(store *Store, rules *Rules, observer Observer, root *Block) *Lines {
	l := &Lines{store: store, rules: rules, observer: observer, root: root}
	l.Reset()
	return l
}

// Label returns the label being generated.
func (l *Lines) Label() string { return l.root.Label() }

// Reset rewinds the iterator to the first line.
func (l *Lines) Reset() {
	l.stack = append(l.stack[:0], frame{block: l.root})
	l.line = ""
	l.err = nil
}

// Next advances to the next line. It returns false at the end of the
// expansion or on error; check Err to tell them apart.
func (l *Lines) Next() bool {
	for len(l.stack) > 0 && l.err == nil {
		top := &l.stack[len(l.stack)-1]
		if top.pos >= len(top.block.lines) {
			l.stack = l.stack[:len(l.stack)-1]
			continue
		}

		line := top.block.lines[top.pos]
		top.pos++
		cfg := top.block.config

		if !cfg.verbatim {
			if label, ok := l.rules.MatchReference(line); ok {
				if l.expanding(label) {
					l.err = &BlockCycleError{Path: append(l.path(), label)}
					break
				}
				ref, err := l.store.Get(label)
				if err != nil {
					l.err = err
					break
				}
				l.observer.Observe(Event{Kind: EventBlockExpanded, Label: label})
				l.stack = append(l.stack, frame{block: ref})
				continue
			}
		}

		for _, r := range cfg.replacements {
			line = r.Apply(line)
		}
		l.line = line
		return true
	}

	l.line = ""
	l.stack = l.stack[:0]
	return false
}

// Line returns the current line, including its terminator.
func (l *Lines) Line() string { return l.line }

// Err returns the error that stopped the iteration, if any.
func (l *Lines) Err() error { return l.err }

// All rewinds the iterator and yields every line. A failure is yielded once,
// as the last pair, with an empty line.
func (l *Lines) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		l.Reset()
		for l.Next() {
			if !yield(l.line, nil) {
				return
			}
		}
		if l.err != nil {
			yield("", l.err)
		}
	}
}

// Collect rewinds the iterator and returns every line.
func (l *Lines) Collect() ([]string, error) {
	var out []string
	for line, err := range l.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

// Text rewinds the iterator and returns the whole expansion.
func (l *Lines) Text() (string, error) {
	var sb strings.Builder
	if _, err := l.WriteTo(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteTo rewinds the iterator and writes the whole expansion to w.
func (l *Lines) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for line, err := range l.All() {
		if err != nil {
			return total, err
		}
		n, err := io.WriteString(w, line)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// expanding reports whether label is on the active expansion path.
func (l *Lines) expanding(label string) bool {
	return slices.ContainsFunc(l.stack, func(f frame) bool { return f.block.Label() == label })
}

func (l *Lines) path() []string {
	out := make([]string, 0, len(l.stack)+1)
	for _, f := range l.stack {
		out = append(out, f.block.Label())
	}
	return out
}
