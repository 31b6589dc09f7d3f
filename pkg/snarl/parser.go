// SPDX-License-Identifier: MPL-2.0

package snarl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	stateInit parserState = iota
	stateCapturing
)

const (
	// captureCodeBlock collects lines into a block until a close fence.
	captureCodeBlock captureKind = iota
	// captureRawFile streams a verbatim include into the sink until EOF.
	captureRawFile
)

type (
	parserState int
	captureKind int

	// parseContext locates the line being parsed. It is copied into every
	// nested include, never shared.
	parseContext struct {
		file  string
		dir   string
		line  int
		raw   string
		depth int
	}

	// capture is the payload of stateCapturing.
	capture struct {
		kind  captureKind
		block *Block
		open  parseContext
	}

	// pass parses one input stream: the top-level document or one include.
	// With escapeHTML set, directives are recognized on the escaped text and
	// prose is woven escaped, while block content is stored as read.
	pass struct {
		session    *Session
		pc         parseContext
		state      parserState
		cur        capture
		escapeHTML bool
	}
)

func (s parserState) String() string {
	if s == stateCapturing {
		return "capturing"
	}
	return "init"
}

func (p *pass) run(ctx context.Context, r io.Reader) error {
	if p.pc.depth >= MaxIncludeDepth {
		return &RecursiveIncludeError{Depth: p.pc.depth}
	}

	obs := p.session.observer
	br := bufio.NewReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read %s: %w", p.pc.file, readErr)
		}
		if line == "" {
			break
		}

		p.pc.line++
		p.pc.raw = line
		if p.escapeHTML {
			line = escapeHTML(line)
		}

		obs.Observe(Event{Kind: EventLine, File: p.pc.file, Line: p.pc.line, Depth: p.pc.depth, Text: p.state.String()})

		prev := p.state
		if err := p.step(ctx, line); err != nil {
			return p.positioned(p.pc, err)
		}
		if prev != p.state {
			obs.Observe(Event{
				Kind: EventStateChange,
				File: p.pc.file,
				Line: p.pc.line,
				Text: prev.String() + " -> " + p.state.String(),
			})
		}

		if readErr != nil {
			break
		}
	}

	if p.state == stateCapturing && p.cur.kind == captureCodeBlock {
		return p.positioned(p.cur.open, &UnexpectedEOFError{Label: p.cur.block.Label()})
	}
	return nil
}

func (p *pass) step(ctx context.Context, line string) error {
	s := p.session

	if p.state == stateCapturing {
		if p.cur.kind == captureRawFile {
			s.sink.WriteLine(line)
			return nil
		}

		if s.rules.MatchClose(line) {
			b := p.cur.block
			if !b.Config().Hidden() {
				s.sink.WriteBlock(b.Config().Language(), b.woven(), terminator(p.cur.open.raw), terminator(line))
			}
			p.cur = capture{}
			p.state = stateInit
			return nil
		}

		raw := p.pc.raw
		if !strings.HasSuffix(raw, "\n") {
			raw += "\n"
		}
		p.cur.block.append(raw, p.escapeHTML)
		return nil
	}

	d := s.rules.Match(line)
	switch d.Kind {
	case DirectiveOpen:
		b, err := p.openBlock(d)
		if err != nil {
			return err
		}
		p.cur = capture{kind: captureCodeBlock, block: b, open: p.pc}
		p.state = stateCapturing

	case DirectiveInclude:
		return p.include(ctx, d)

	case DirectiveEscape:
		s.sink.WriteLine(d.Text + line[len(chomp(line)):])

	default:
		s.sink.WriteLine(line)
	}

	return nil
}

// openBlock resolves the target of a codeblock opener.
func (p *pass) openBlock(d Directive) (*Block, error) {
	s := p.session

	cfg, err := ParseBlockArgs(d, s.nextAutoLabel)
	if err != nil {
		return nil, err
	}

	if d.Append {
		b, err := s.store.Get(cfg.Label())
		if err != nil {
			return nil, err
		}
		s.observer.Observe(Event{Kind: EventBlockAppended, File: p.pc.file, Line: p.pc.line, Label: b.Label()})
		return b, nil
	}

	b, err := s.store.Create(cfg)
	if err != nil {
		return nil, err
	}
	s.observer.Observe(Event{Kind: EventBlockCreated, File: p.pc.file, Line: p.pc.line, Label: b.Label()})
	return b, nil
}

// positioned attributes err to pc unless a nested pass already did.
func (p *pass) positioned(pc parseContext, err error) error {
	var perr *ParseError
	if errors.As(err, &perr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &ParseError{File: pc.file, Line: pc.line, Text: chomp(pc.raw), Err: err}
}
