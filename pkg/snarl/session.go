// SPDX-License-Identifier: MPL-2.0

package snarl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// MaxIncludeDepth bounds include nesting. The top-level document is parsed
// at depth 0; a document that would be parsed at this depth is rejected.
const MaxIncludeDepth = 10

type (
	// Session owns the block store and woven output of one or more parsed
	// documents. A Session is not safe for concurrent use; independent
	// sessions share no mutable state.
	Session struct {
		fs            afero.Fs
		rules         *Rules
		observer      Observer
		ignoreMissing bool

		store     *Store
		sink      Sink
		autoCount int
	}

	// Option configures a Session.
	Option func(*Session)
)

// WithFs sets the filesystem used to open documents and includes.
func WithFs(fs afero.Fs) Option {
	return func(s *Session) { s.fs = fs }
}

// WithRules replaces the directive syntax.
func WithRules(rules *Rules) Option {
	return func(s *Session) { s.rules = rules }
}

// WithObserver sets the receiver of parse and generation events.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithLogger reports events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.observer = LogObserver(logger) }
}

// WithIgnoreMissing makes missing include files a logged no-op instead of
// an error.
func WithIgnoreMissing(ignore bool) Option {
	return func(s *Session) { s.ignoreMissing = ignore }
}

// New creates a Session. By default it reads from the OS filesystem, uses
// DefaultRules and discards events.
func New(opts ...Option) *Session {
	s := &Session{
		fs:       afero.NewOsFs(),
		rules:    DefaultRules(),
		observer: nopObserver{},
		store:    NewStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	return s
}

// Store returns the session's block store.
func (s *Session) Store() *Store { return s.store }

// Block returns the block registered under label.
func (s *Session) Block(label string) (*Block, error) { return s.store.Get(label) }

// Parse reads a document from r. name is used in error positions; relative
// includes are resolved against the working directory.
func (s *Session) Parse(ctx context.Context, r io.Reader, name string) error {
	p := &pass{session: s, pc: parseContext{file: name}}
	return p.run(ctx, r)
}

// ParseString parses an in-memory document.
func (s *Session) ParseString(ctx context.Context, doc string) error {
	return s.Parse(ctx, strings.NewReader(doc), "<string>")
}

// ParseFile opens path through the session filesystem and parses it.
// Relative includes are resolved against the directory of path.
func (s *Session) ParseFile(ctx context.Context, path string) error {
	f, err := s.open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p := &pass{session: s, pc: parseContext{file: path, dir: filepath.Dir(path)}}
	return p.run(ctx, f)
}

// Weave writes the woven document to w.
func (s *Session) Weave(w io.Writer) error {
	_, err := s.sink.WriteTo(w)
	return err
}

// WeaveString returns the woven document.
func (s *Session) WeaveString() string {
	return s.sink.String()
}

// List returns block labels in declaration order: tangle targets only, or
// every block when all is set, restricted to tags when any are given.
func (s *Session) List(all bool, tags ...string) []string {
	if all {
		return s.store.Blocks(tags...)
	}
	return s.store.Files(tags...)
}

// Generate returns an iterator over the expanded lines of label.
func (s *Session) Generate(label string) (*Lines, error) {
	b, err := s.store.Get(label)
	if err != nil {
		return nil, err
	}
	return newLines(s.store, s.rules, s.observer, b), nil
}

func (s *Session) nextAutoLabel() string {
	label := fmt.Sprintf("__autoblock%d", s.autoCount)
	s.autoCount++
	return label
}
