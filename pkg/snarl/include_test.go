// SPDX-License-Identifier: MPL-2.0

package snarl_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/larsks/snarl/internal/testutil"
	"github.com/larsks/snarl/pkg/snarl"
)

// includeChain builds /d/f0.md .. /d/f<n>.md where each file includes the
// next and the last one declares a block.
func includeChain(t *testing.T, n int) afero.Fs {
	t.Helper()
	files := make(map[string]string, n+1)
	for i := range n {
		files[fmt.Sprintf("/d/f%d.md", i)] = fmt.Sprintf("<!-- include f%d.md -->\n", i+1)
	}
	files[fmt.Sprintf("/d/f%d.md", n)] = "```=leaf\nok\n```\n"
	return testutil.MemFs(t, files)
}

func TestInclude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		weave string
	}{
		{
			name: "comment include",
			files: map[string]string{
				"/d/main.md": "before\n<!-- include part.md -->\nafter\n",
				"/d/part.md": "included\n",
			},
			weave: "before\nincluded\nafter\n",
		},
		{
			name: "sentinel include",
			files: map[string]string{
				"/d/main.md": "%include part.md\n",
				"/d/part.md": "included\n",
			},
			weave: "included\n",
		},
		{
			name: "relative to including file",
			files: map[string]string{
				"/d/main.md":  "<!-- include sub/a.md -->\n",
				"/d/sub/a.md": "a\n<!-- i b.md -->\n",
				"/d/sub/b.md": "b\n",
				"/d/b.md":     "wrong\n",
			},
			weave: "a\nb\n",
		},
		{
			name: "verbatim include",
			files: map[string]string{
				"/d/main.md": "<!-- include --verbatim raw.txt -->\n",
				"/d/raw.txt": "```=x\n<<y>>\n%include nope.md\n",
			},
			weave: "```=x\n<<y>>\n%include nope.md\n",
		},
		{
			name: "escaped include",
			files: map[string]string{
				"/d/main.md":   "<!-- include -e part.html -->\n",
				"/d/part.html": "<b>bold</b>\n",
			},
			weave: "&lt;b&gt;bold&lt;/b&gt;\n",
		},
		{
			name: "escaped verbatim include",
			files: map[string]string{
				"/d/main.md":   "<!-- include -ev part.html -->\n",
				"/d/part.html": "```\n<i>\n",
			},
			weave: "```\n&lt;i&gt;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := snarl.New(snarl.WithFs(testutil.MemFs(t, tt.files)))
			if err := s.ParseFile(context.Background(), "/d/main.md"); err != nil {
				t.Fatalf("ParseFile() error = %v", err)
			}
			if got := s.WeaveString(); got != tt.weave {
				t.Errorf("WeaveString() = %q, want %q", got, tt.weave)
			}
		})
	}
}

func TestInclude_SharedStore(t *testing.T) {
	t.Parallel()

	fsys := testutil.MemFs(t, map[string]string{
		"/d/main.md": "```=out --file\n<<helper>>\n```\n<!-- include lib.md -->\n```+=helper\nmore\n```\n",
		"/d/lib.md":  "```=helper --hide\nfrom lib\n```\n",
	})

	s := snarl.New(snarl.WithFs(fsys))
	if err := s.ParseFile(context.Background(), "/d/main.md"); err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if got := generate(t, s, "out"); !slices.Equal(got, []string{"from lib\n", "more\n"}) {
		t.Errorf("Generate(out) = %q", got)
	}
	if got := s.Store().Blocks(); !slices.Equal(got, []string{"out", "helper"}) {
		t.Errorf("Blocks() = %v", got)
	}
}

func TestInclude_EscapedBlockContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		files  map[string]string
		stored string
		weave  string
	}{
		{
			name: "block from escaped include",
			files: map[string]string{
				"/d/main.md": "<!-- include --escape-html part.md -->\n",
				"/d/part.md": "```=x\n<a>\n```\n",
			},
			stored: "<a>\n",
			weave:  "```\n&lt;a&gt;\n```\n",
		},
		{
			name: "escaped block in escaped include is escaped once",
			files: map[string]string{
				"/d/main.md": "<!-- include --escape-html inc.md -->\n```+=x\nc < d\n```\n",
				"/d/inc.md":  "```=x --escape-html\na < b\n```\n",
			},
			stored: "a < b\nc < d\n",
			weave:  "```\na &lt; b\n```\n```\na &lt; b\nc &lt; d\n```\n",
		},
		{
			name: "plain append to block from escaped include",
			files: map[string]string{
				"/d/main.md": "<!-- include -e inc.md -->\n```+=x\n<b>\n```\n",
				"/d/inc.md":  "```=x\n<a>\n```\n",
			},
			stored: "<a>\n<b>\n",
			weave:  "```\n&lt;a&gt;\n```\n```\n&lt;a&gt;\n<b>\n```\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := snarl.New(snarl.WithFs(testutil.MemFs(t, tt.files)))
			if err := s.ParseFile(context.Background(), "/d/main.md"); err != nil {
				t.Fatalf("ParseFile() error = %v", err)
			}

			files, err := s.Tangle(snarl.Selector{Names: []string{"x"}})
			if err != nil {
				t.Fatalf("Tangle(x) error = %v", err)
			}
			if files[0].Content != tt.stored {
				t.Errorf("Tangle(x) = %q, want %q", files[0].Content, tt.stored)
			}
			if got := s.WeaveString(); got != tt.weave {
				t.Errorf("WeaveString() = %q, want %q", got, tt.weave)
			}
		})
	}
}

func TestInclude_Depth(t *testing.T) {
	t.Parallel()

	t.Run("deepest allowed", func(t *testing.T) {
		t.Parallel()

		s := snarl.New(snarl.WithFs(includeChain(t, snarl.MaxIncludeDepth-1)))
		if err := s.ParseFile(context.Background(), "/d/f0.md"); err != nil {
			t.Fatalf("ParseFile() error = %v", err)
		}
		if got := generate(t, s, "leaf"); !slices.Equal(got, []string{"ok\n"}) {
			t.Errorf("Generate(leaf) = %q", got)
		}
	})

	t.Run("too deep", func(t *testing.T) {
		t.Parallel()

		s := snarl.New(snarl.WithFs(includeChain(t, snarl.MaxIncludeDepth)))
		err := s.ParseFile(context.Background(), "/d/f0.md")
		if !errors.Is(err, snarl.ErrRecursiveInclude) {
			t.Fatalf("ParseFile() error = %v, want ErrRecursiveInclude", err)
		}
		var perr *snarl.ParseError
		if !errors.As(err, &perr) || perr.File != "/d/f9.md" || perr.Line != 1 {
			t.Errorf("error position = %v, want /d/f9.md:1", err)
		}
	})

	t.Run("self include", func(t *testing.T) {
		t.Parallel()

		s := snarl.New(snarl.WithFs(testutil.MemFs(t, map[string]string{
			"/d/self.md": "<!-- include self.md -->\n",
		})))
		err := s.ParseFile(context.Background(), "/d/self.md")
		if !errors.Is(err, snarl.ErrRecursiveInclude) {
			t.Fatalf("ParseFile() error = %v, want ErrRecursiveInclude", err)
		}
	})
}

func TestInclude_Missing(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/d/main.md": "before\n<!-- include gone.md -->\nafter\n",
	}

	t.Run("strict", func(t *testing.T) {
		t.Parallel()

		s := snarl.New(snarl.WithFs(testutil.MemFs(t, files)))
		err := s.ParseFile(context.Background(), "/d/main.md")
		if !errors.Is(err, snarl.ErrFileNotFound) || !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("ParseFile() error = %v, want ErrFileNotFound", err)
		}
		var nf *snarl.FileNotFoundError
		if !errors.As(err, &nf) || nf.Path != "gone.md" {
			t.Errorf("FileNotFoundError = %+v", nf)
		}
		var perr *snarl.ParseError
		if !errors.As(err, &perr) || perr.Line != 2 {
			t.Errorf("error position = %v, want line 2", err)
		}
	})

	t.Run("tolerated", func(t *testing.T) {
		t.Parallel()

		var missing []string
		obs := snarl.ObserverFunc(func(e snarl.Event) {
			if e.Kind == snarl.EventIncludeMissing {
				missing = append(missing, e.Path)
			}
		})

		s := snarl.New(snarl.WithFs(testutil.MemFs(t, files)), snarl.WithIgnoreMissing(true), snarl.WithObserver(obs))
		if err := s.ParseFile(context.Background(), "/d/main.md"); err != nil {
			t.Fatalf("ParseFile() error = %v", err)
		}
		if got := s.WeaveString(); got != "before\nafter\n" {
			t.Errorf("WeaveString() = %q", got)
		}
		if !slices.Equal(missing, []string{"/d/gone.md"}) {
			t.Errorf("missing events = %v", missing)
		}
	})
}

func TestInclude_NestedErrorPosition(t *testing.T) {
	t.Parallel()

	fsys := testutil.MemFs(t, map[string]string{
		"/d/main.md": "one\ntwo\n<!-- include part.md -->\n",
		"/d/part.md": "fine\n```=x --bogus\n```\n",
	})

	err := snarl.New(snarl.WithFs(fsys)).ParseFile(context.Background(), "/d/main.md")
	var perr *snarl.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("ParseFile() error = %v, want *ParseError", err)
	}
	if perr.File != "/d/part.md" || perr.Line != 2 {
		t.Errorf("error position = %s:%d, want /d/part.md:2", perr.File, perr.Line)
	}
	if !errors.Is(err, snarl.ErrBlockArgument) {
		t.Errorf("error %v does not wrap ErrBlockArgument", err)
	}
}

func TestInclude_Gzip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte("```=packed\nunpacked\n```\n")); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	fsys := testutil.MemFs(t, map[string]string{"/d/main.md": "<!-- include part.md.gz -->\n"})
	if err := afero.WriteFile(fsys, "/d/part.md.gz", buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := snarl.New(snarl.WithFs(fsys))
	if err := s.ParseFile(context.Background(), "/d/main.md"); err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if got := generate(t, s, "packed"); !slices.Equal(got, []string{"unpacked\n"}) {
		t.Errorf("Generate(packed) = %q", got)
	}
}

func TestParseFile_Missing(t *testing.T) {
	t.Parallel()

	err := snarl.New(snarl.WithFs(afero.NewMemMapFs())).ParseFile(context.Background(), "/nope.md")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ParseFile() error = %v, want fs.ErrNotExist", err)
	}
}
