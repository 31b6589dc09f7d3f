// SPDX-License-Identifier: MPL-2.0

package snarl

import (
	"slices"
	"strings"
)

type (
	// Block is a labelled unit of captured text. Its content only grows.
	Block struct {
		config BlockConfig
		lines  []string
		// escaped marks lines read from an HTML-escaped include. They are
		// stored raw and escaped only when woven.
		escaped []bool
	}

	// Store maps labels to blocks and remembers declaration order.
	Store struct {
		blocks map[string]*Block
		order  []string
	}
)

// NewStore creates an empty block store.
func NewStore() *Store {
	return &Store{blocks: make(map[string]*Block)}
}

// Label returns the block's label.
func (b *Block) Label() string { return b.config.label }

// Config returns the block's configuration.
func (b *Block) Config() BlockConfig { return b.config }

// Lines returns a copy of the raw captured lines.
func (b *Block) Lines() []string { return slices.Clone(b.lines) }

// Content returns the raw captured text.
func (b *Block) Content() string { return strings.Join(b.lines, "") }

// Len returns the number of captured lines.
func (b *Block) Len() int { return len(b.lines) }

func (b *Block) append(line string, escaped bool) {
	b.lines = append(b.lines, line)
	b.escaped = append(b.escaped, escaped)
}

// woven returns the lines as they appear in the woven document. Each line is
// HTML-escaped at most once: when the block asks for it or when the line came
// from an escaped include.
func (b *Block) woven() []string {
	out := make([]string, len(b.lines))
	for i, line := range b.lines {
		if b.config.escapeHTML || b.escaped[i] {
			line = escapeHTML(line)
		}
		out[i] = line
	}
	return out
}

// Create registers a new block. Labels are unique within a store.
func (s *Store) Create(cfg BlockConfig) (*Block, error) {
	if _, exists := s.blocks[cfg.label]; exists {
		return nil, &DuplicateBlockError{Label: cfg.label}
	}
	b := &Block{config: cfg}
	s.blocks[cfg.label] = b
	s.order = append(s.order, cfg.label)
	return b, nil
}

// Get returns the block registered under label.
func (s *Store) Get(label string) (*Block, error) {
	b, ok := s.blocks[label]
	if !ok {
		return nil, &BlockNotFoundError{Label: label}
	}
	return b, nil
}

// Len returns the number of blocks in the store.
func (s *Store) Len() int { return len(s.order) }

// Blocks returns the labels of all blocks carrying at least one of tags, in
// declaration order. With no tags every label is returned.
func (s *Store) Blocks(tags ...string) []string {
	return s.filter(false, tags)
}

// Files is like Blocks but only returns tangle targets.
func (s *Store) Files(tags ...string) []string {
	return s.filter(true, tags)
}

func (s *Store) filter(filesOnly bool, tags []string) []string {
	out := make([]string, 0, len(s.order))
	for _, label := range s.order {
		cfg := s.blocks[label].config
		if filesOnly && !cfg.file {
			continue
		}
		if len(tags) > 0 && !slices.ContainsFunc(tags, cfg.HasTag) {
			continue
		}
		out = append(out, label)
	}
	return out
}
