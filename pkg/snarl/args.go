// SPDX-License-Identifier: MPL-2.0

package snarl

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// Replacement is a pattern/substitution pair applied to generated lines.
	// Substitutions use regexp.Expand syntax ($1, ${name}).
	Replacement struct {
		Pattern      *regexp.Regexp
		Substitution string
	}

	// BlockConfig is the validated configuration of a code block. It is built
	// once by ParseBlockArgs and never modified afterwards.
	BlockConfig struct {
		label        string
		hidden       bool
		file         bool
		language     string
		tags         []string
		replacements []Replacement
		verbatim     bool
		escapeHTML   bool
	}

	// IncludeConfig is the validated configuration of a file include.
	IncludeConfig struct {
		Path       string
		EscapeHTML bool
		Verbatim   bool
	}

	flagSpec struct {
		long   string
		short  string
		arity  int
		repeat bool
	}

	flagTable []flagSpec

	// parsedArgs holds the raw result of applying a flagTable to a token list.
	parsedArgs struct {
		values      map[string][][]string
		positionals []string
	}
)

var (
	blockFlags = flagTable{
		{long: "hide", short: "H"},
		{long: "file", short: "f"},
		{long: "tag", short: "t", arity: 1, repeat: true},
		{long: "replace", short: "r", arity: 2, repeat: true},
		{long: "escape-html"},
		{long: "verbatim"},
		{long: "lang", arity: 1},
	}

	includeFlags = flagTable{
		{long: "escape-html", short: "e"},
		{long: "verbatim", short: "v"},
	}

	literalConfig = &expand.Config{Env: expand.ListEnviron()}
)

// Apply runs the replacement over a single line. The line terminator is
// excluded from matching so that patterns anchored with $ behave per line.
func (r Replacement) Apply(line string) string {
	body := chomp(line)
	return r.Pattern.ReplaceAllString(body, r.Substitution) + line[len(body):]
}

// Label returns the block label.
func (c BlockConfig) Label() string { return c.label }

// Hidden reports whether the block is left out of weave output.
func (c BlockConfig) Hidden() bool { return c.hidden }

// IsFile reports whether the block is a tangle target named by its label.
func (c BlockConfig) IsFile() bool { return c.file }

// Language returns the language annotation, or "" when there is none.
func (c BlockConfig) Language() string { return c.language }

// Tags returns a copy of the block's tags in declaration order.
func (c BlockConfig) Tags() []string { return slices.Clone(c.tags) }

// HasTag reports whether the block carries tag.
func (c BlockConfig) HasTag(tag string) bool { return slices.Contains(c.tags, tag) }

// Replacements returns a copy of the replacements in declaration order.
func (c BlockConfig) Replacements() []Replacement { return slices.Clone(c.replacements) }

// Verbatim reports whether block references are left unexpanded.
func (c BlockConfig) Verbatim() bool { return c.verbatim }

// EscapeHTML reports whether the block is HTML-escaped when woven.
func (c BlockConfig) EscapeHTML() bool { return c.escapeHTML }

// ParseBlockArgs validates the arguments of a codeblock opener. autoLabel is
// called only when the directive carries no label.
func ParseBlockArgs(d Directive, autoLabel func() string) (BlockConfig, error) {
	tokens, err := tokenize(DirectiveOpen, d.Args)
	if err != nil {
		return BlockConfig{}, err
	}

	parsed, err := blockFlags.parse(DirectiveOpen, tokens)
	if err != nil {
		return BlockConfig{}, err
	}

	if len(parsed.positionals) > 1 {
		return BlockConfig{}, &BlockArgumentError{
			Directive: DirectiveOpen,
			Reason:    fmt.Sprintf("unrecognized arguments: %s", strings.Join(parsed.positionals[1:], " ")),
		}
	}

	cfg := BlockConfig{
		hidden:     parsed.has("hide"),
		file:       parsed.has("file"),
		verbatim:   parsed.has("verbatim"),
		escapeHTML: parsed.has("escape-html"),
		language:   parsed.last("lang"),
	}

	if d.Lang != "" {
		cfg.language = d.Lang
	}

	for _, vals := range parsed.values["tag"] {
		if !slices.Contains(cfg.tags, vals[0]) {
			cfg.tags = append(cfg.tags, vals[0])
		}
	}

	for _, vals := range parsed.values["replace"] {
		re, err := regexp.Compile(vals[0])
		if err != nil {
			return BlockConfig{}, &BlockArgumentError{
				Directive: DirectiveOpen,
				Reason:    fmt.Sprintf("invalid --replace pattern %q: %v", vals[0], err),
			}
		}
		cfg.replacements = append(cfg.replacements, Replacement{Pattern: re, Substitution: vals[1]})
	}

	if len(parsed.positionals) == 1 {
		cfg.label = parsed.positionals[0]
	}
	if cfg.label == "" {
		if d.Append {
			return BlockConfig{}, &BlockArgumentError{
				Directive: DirectiveOpen,
				Reason:    "appending requires a block label",
			}
		}
		cfg.label = autoLabel()
	}

	return cfg, nil
}

// ParseIncludeArgs validates the arguments of a file include.
func ParseIncludeArgs(d Directive) (IncludeConfig, error) {
	tokens, err := tokenize(DirectiveInclude, d.Args)
	if err != nil {
		return IncludeConfig{}, err
	}

	parsed, err := includeFlags.parse(DirectiveInclude, tokens)
	if err != nil {
		return IncludeConfig{}, err
	}

	switch len(parsed.positionals) {
	case 0:
		return IncludeConfig{}, &BlockArgumentError{Directive: DirectiveInclude, Reason: "the following arguments are required: path"}
	case 1:
	default:
		return IncludeConfig{}, &BlockArgumentError{
			Directive: DirectiveInclude,
			Reason:    fmt.Sprintf("unrecognized arguments: %s", strings.Join(parsed.positionals[1:], " ")),
		}
	}

	return IncludeConfig{
		Path:       parsed.positionals[0],
		EscapeHTML: parsed.has("escape-html"),
		Verbatim:   parsed.has("verbatim"),
	}, nil
}

// tokenize splits a directive argument string the way a POSIX shell splits a
// simple command, without performing any expansion.
func tokenize(kind DirectiveKind, s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(s), "")
	if err != nil {
		return nil, &BlockArgumentError{Directive: kind, Reason: err.Error()}
	}
	if len(file.Stmts) == 0 {
		return nil, nil
	}
	if len(file.Stmts) > 1 {
		return nil, &BlockArgumentError{Directive: kind, Reason: "expected a single argument list"}
	}

	stmt := file.Stmts[0]
	if stmt.Negated || stmt.Background || stmt.Coprocess || len(stmt.Redirs) > 0 {
		return nil, &BlockArgumentError{Directive: kind, Reason: "shell operators are not allowed"}
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return nil, &BlockArgumentError{Directive: kind, Reason: "shell operators are not allowed"}
	}

	var tokens []string

	// name=value leading words parse as assignments; they are plain arguments here.
	for _, as := range call.Assigns {
		if as.Array != nil || as.Index != nil || as.Name == nil {
			return nil, &BlockArgumentError{Directive: kind, Reason: "unsupported assignment syntax"}
		}
		tok := as.Name.Value
		if !as.Naked {
			op := "="
			if as.Append {
				op = "+="
			}
			val := ""
			if as.Value != nil {
				if val, err = literal(kind, as.Value); err != nil {
					return nil, err
				}
			}
			tok += op + val
		}
		tokens = append(tokens, tok)
	}

	for _, word := range call.Args {
		tok, err := literal(kind, word)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}

	return tokens, nil
}

// literal removes quoting from a word, refusing any form of expansion.
func literal(kind DirectiveKind, word *syntax.Word) (string, error) {
	var unsupported string
	syntax.Walk(word, func(node syntax.Node) bool {
		switch node.(type) {
		case *syntax.ParamExp:
			unsupported = "parameter expansion"
		case *syntax.CmdSubst:
			unsupported = "command substitution"
		case *syntax.ArithmExp:
			unsupported = "arithmetic expansion"
		case *syntax.ProcSubst:
			unsupported = "process substitution"
		case *syntax.ExtGlob:
			unsupported = "extended glob"
		}
		return unsupported == ""
	})
	if unsupported != "" {
		return "", &BlockArgumentError{Directive: kind, Reason: unsupported + " is not allowed"}
	}

	s, err := expand.Literal(literalConfig, word)
	if err != nil {
		return "", &BlockArgumentError{Directive: kind, Reason: err.Error()}
	}
	return s, nil
}

func (t flagTable) lookup(name string, short bool) (flagSpec, bool) {
	for _, f := range t {
		if (short && f.short == name) || (!short && f.long == name) {
			return f, true
		}
	}
	return flagSpec{}, false
}

// parse applies the table to tokens. Long flags may carry an inline value
// (--lang=go); short boolean flags may be combined (-Hf); a short flag that
// takes one value may have it attached (-tfoo).
func (t flagTable) parse(kind DirectiveKind, tokens []string) (*parsedArgs, error) {
	out := &parsedArgs{values: make(map[string][][]string)}

	take := func(spec flagSpec, display string, inline []string, rest []string) (int, error) {
		need := spec.arity - len(inline)
		if need > len(rest) {
			return 0, &BlockArgumentError{
				Directive: kind,
				Reason:    fmt.Sprintf("argument %s: expected %d argument(s)", display, spec.arity),
			}
		}
		vals := append(slices.Clone(inline), rest[:need]...)
		if spec.repeat {
			out.values[spec.long] = append(out.values[spec.long], vals)
		} else {
			out.values[spec.long] = [][]string{vals}
		}
		return need, nil
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		rest := tokens[i+1:]

		switch {
		case tok == "--":
			out.positionals = append(out.positionals, rest...)
			return out, nil

		case strings.HasPrefix(tok, "--"):
			name, value, hasValue := strings.Cut(tok[2:], "=")
			spec, ok := t.lookup(name, false)
			if !ok {
				return nil, &BlockArgumentError{Directive: kind, Reason: fmt.Sprintf("unrecognized arguments: %s", tok)}
			}
			var inline []string
			if hasValue {
				if spec.arity != 1 {
					return nil, &BlockArgumentError{
						Directive: kind,
						Reason:    fmt.Sprintf("argument --%s: ignored explicit argument %q", name, value),
					}
				}
				inline = []string{value}
			}
			n, err := take(spec, "--"+name, inline, rest)
			if err != nil {
				return nil, err
			}
			i += n

		case len(tok) > 1 && tok[0] == '-':
			shorts := tok[1:]
			for j := 0; j < len(shorts); j++ {
				name := shorts[j : j+1]
				spec, ok := t.lookup(name, true)
				if !ok {
					return nil, &BlockArgumentError{Directive: kind, Reason: fmt.Sprintf("unrecognized arguments: %s", tok)}
				}
				if spec.arity == 0 {
					if _, err := take(spec, "-"+name, nil, nil); err != nil {
						return nil, err
					}
					continue
				}
				var inline []string
				if attached := shorts[j+1:]; attached != "" {
					inline = []string{attached}
				}
				n, err := take(spec, "-"+name, inline, rest)
				if err != nil {
					return nil, err
				}
				i += n
				break
			}

		default:
			out.positionals = append(out.positionals, tok)
		}
	}

	return out, nil
}

func (p *parsedArgs) has(long string) bool {
	return len(p.values[long]) > 0
}

func (p *parsedArgs) last(long string) string {
	occ := p.values[long]
	if len(occ) == 0 {
		return ""
	}
	vals := occ[len(occ)-1]
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}
