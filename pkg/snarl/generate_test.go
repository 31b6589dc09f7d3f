// SPDX-License-Identifier: MPL-2.0

package snarl_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/larsks/snarl/pkg/snarl"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		doc   string
		label string
		want  []string
	}{
		{
			name:  "plain block",
			doc:   "```=a\none\ntwo\n```\n",
			label: "a",
			want:  []string{"one\n", "two\n"},
		},
		{
			name:  "nested references",
			doc:   "```=a\nstart\n<<b>>\nend\n```\n```=b\n<<c>>\n```\n```=c\ninner\n```\n",
			label: "a",
			want:  []string{"start\n", "inner\n", "end\n"},
		},
		{
			name:  "reference declared later",
			doc:   "```=main.go --file\n<<later>>\n```\ntext\n```=later\nok\n```\n",
			label: "main.go",
			want:  []string{"ok\n"},
		},
		{
			name:  "shared reference is not a cycle",
			doc:   "```=top\n<<l>>\n<<r>>\n```\n```=l\n<<base>>\n```\n```=r\n<<base>>\n```\n```=base\nx\n```\n",
			label: "top",
			want:  []string{"x\n", "x\n"},
		},
		{
			name:  "indented reference",
			doc:   "```=a\n    <<b>>\n```\n```=b\nbody\n```\n",
			label: "a",
			want:  []string{"body\n"},
		},
		{
			name:  "verbatim block keeps references",
			doc:   "```=v --verbatim\n<<b>>\n```\n",
			label: "v",
			want:  []string{"<<b>>\n"},
		},
		{
			name:  "replacements apply in order",
			doc:   "```=a -r foo bar -r bar baz\nfoo\n```\n",
			label: "a",
			want:  []string{"baz\n"},
		},
		{
			name:  "replacements stay with their block",
			doc:   "```=p -r x y\nx\n<<c>>\n```\n```=c\nx\n```\n",
			label: "p",
			want:  []string{"y\n", "x\n"},
		},
		{
			name:  "empty block",
			doc:   "```=empty\n```\n",
			label: "empty",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := parse(t, tt.doc)
			if got := generate(t, s, tt.label); !slices.Equal(got, tt.want) {
				t.Errorf("Generate(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestGenerate_Cycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{name: "self reference", doc: "```=a\n<<a>>\n```\n", want: []string{"a", "a"}},
		{name: "mutual reference", doc: "```=a\n<<b>>\n```\n```=b\n<<a>>\n```\n", want: []string{"a", "b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := parse(t, tt.doc)
			lines, err := s.Generate("a")
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			_, err = lines.Collect()
			if !errors.Is(err, snarl.ErrBlockCycle) {
				t.Fatalf("Collect() error = %v, want ErrBlockCycle", err)
			}
			var cycleErr *snarl.BlockCycleError
			if !errors.As(err, &cycleErr) || !slices.Equal(cycleErr.Path, tt.want) {
				t.Errorf("cycle path = %v, want %v", cycleErr.Path, tt.want)
			}
		})
	}
}

func TestGenerate_UnknownLabels(t *testing.T) {
	t.Parallel()

	s := parse(t, "```=a\nfirst\n<<missing>>\n```\n")

	if _, err := s.Generate("nope"); !errors.Is(err, snarl.ErrBlockNotFound) {
		t.Errorf("Generate(nope) error = %v, want ErrBlockNotFound", err)
	}

	lines, err := s.Generate("a")
	if err != nil {
		t.Fatalf("Generate(a) error = %v", err)
	}
	if !lines.Next() || lines.Line() != "first\n" {
		t.Fatalf("first line = %q", lines.Line())
	}
	if lines.Next() {
		t.Fatalf("Next() = true after unknown reference")
	}
	var nf *snarl.BlockNotFoundError
	if !errors.As(lines.Err(), &nf) || nf.Label != "missing" {
		t.Errorf("Err() = %v, want BlockNotFoundError for missing", lines.Err())
	}
}

func TestLines_Reset(t *testing.T) {
	t.Parallel()

	s := parse(t, "```=a\n1\n<<b>>\n3\n```\n```=b\n2\n```\n")
	lines, err := s.Generate("a")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var first []string
	for lines.Next() {
		first = append(first, lines.Line())
	}
	if lines.Err() != nil {
		t.Fatalf("Err() = %v", lines.Err())
	}

	lines.Reset()
	var second []string
	for lines.Next() {
		second = append(second, lines.Line())
	}

	want := []string{"1\n", "2\n", "3\n"}
	if !slices.Equal(first, want) || !slices.Equal(second, want) {
		t.Errorf("runs = %q and %q, want %q twice", first, second, want)
	}

	text, err := lines.Text()
	if err != nil || text != "1\n2\n3\n" {
		t.Errorf("Text() = %q, %v", text, err)
	}
	if lines.Label() != "a" {
		t.Errorf("Label() = %q, want a", lines.Label())
	}

	b, _ := s.Block("a")
	if b.Len() != 3 {
		t.Errorf("generation modified the stored block: Len() = %d", b.Len())
	}
}

func TestLines_AllEarlyBreak(t *testing.T) {
	t.Parallel()

	s := parse(t, "```=a\n1\n2\n3\n```\n")
	lines, err := s.Generate("a")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var got []string
	for line, err := range lines.All() {
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		got = append(got, line)
		if len(got) == 2 {
			break
		}
	}
	if !slices.Equal(got, []string{"1\n", "2\n"}) {
		t.Errorf("All() yielded %q", got)
	}

	var sb strings.Builder
	if _, err := lines.WriteTo(&sb); err != nil || sb.String() != "1\n2\n3\n" {
		t.Errorf("WriteTo() = %q, %v", sb.String(), err)
	}
}

func TestGenerate_ObservesExpansion(t *testing.T) {
	t.Parallel()

	var expanded []string
	obs := snarl.ObserverFunc(func(e snarl.Event) {
		if e.Kind == snarl.EventBlockExpanded {
			expanded = append(expanded, e.Label)
		}
	})

	s := snarl.New(snarl.WithObserver(obs))
	if err := s.ParseString(context.Background(), "```=a\n<<b>>\n<<b>>\n```\n```=b\nx\n```\n"); err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	generate(t, s, "a")

	if !slices.Equal(expanded, []string{"b", "b"}) {
		t.Errorf("expanded = %v", expanded)
	}
}
