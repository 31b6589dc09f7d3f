// SPDX-License-Identifier: MPL-2.0

package snarl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// gzipFile closes both the decompressor and the underlying file.
type gzipFile struct {
	*gzip.Reader
	file io.Closer
}

func (g *gzipFile) Close() error {
	return errors.Join(g.Reader.Close(), g.file.Close())
}

// include runs a file-include directive at depth+1. Blocks declared by the
// included file land in the same store as the includer's.
func (p *pass) include(ctx context.Context, d Directive) error {
	s := p.session

	cfg, err := ParseIncludeArgs(d)
	if err != nil {
		return err
	}

	depth := p.pc.depth + 1
	if depth >= MaxIncludeDepth {
		return &RecursiveIncludeError{Depth: depth}
	}

	path := cfg.Path
	if p.pc.dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(p.pc.dir, path)
	}

	s.observer.Observe(Event{Kind: EventInclude, File: p.pc.file, Line: p.pc.line, Depth: depth, Path: path})

	f, err := s.open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("open include %s: %w", path, err)
		}
		if s.ignoreMissing {
			s.observer.Observe(Event{Kind: EventIncludeMissing, File: p.pc.file, Line: p.pc.line, Path: path, Err: err})
			return nil
		}
		return &FileNotFoundError{Path: cfg.Path, Err: err}
	}
	defer f.Close()

	child := &pass{
		session:    s,
		pc:         parseContext{file: path, dir: filepath.Dir(path), depth: depth},
		escapeHTML: cfg.EscapeHTML,
	}
	if cfg.Verbatim {
		child.state = stateCapturing
		child.cur = capture{kind: captureRawFile}
	}

	return child.run(ctx, f)
}

// open opens path on the session filesystem, decompressing .gz files.
func (s *Session) open(path string) (io.ReadCloser, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return &gzipFile{Reader: zr, file: f}, nil
}
