// Package expand implements the expansion engine from spec.md §4.5:
// basic_expand (tilde/parameter/command/arithmetic substitution only) and
// full_expand_and_split (the same, plus IFS field splitting and pathname
// expansion).
//
// Grounded on original_source/shell/src/expansion.rs's WordExpander
// (basic_expand / full_expand_with_splitting, piece-by-piece
// Splittable/Unsplittable tagging, IFS-driven split_fields), wired to this
// module's own internal/wordparser (piece parsing), internal/pattern
// (pathname expansion and `${x#pat}`-family pattern removal),
// internal/variables (parameter storage), and internal/arithmetic
// (`$((...))` and `${x:offset:len}` operands).
package expand

import (
	"os/user"
	"strconv"
	"strings"

	"github.com/coreshell/gosh/internal/arithmetic"
	"github.com/coreshell/gosh/internal/pattern"
	"github.com/coreshell/gosh/internal/shellerr"
	"github.com/coreshell/gosh/internal/variables"
	"github.com/coreshell/gosh/internal/wordparser"
)

// CommandRunner executes an embedded program in a subshell and captures its
// standard output, per spec.md §4.5 "CommandSubstitution runs the embedded
// program in a subshell capturing standard output". internal/interp
// implements this; internal/expand only depends on the interface, avoiding
// an import cycle.
type CommandRunner interface {
	RunCaptured(script string) (string, error)
}

// Params is the parameter surface the expansion engine reads beyond named
// shell variables: positional parameters and the handful of special
// single-character parameters ($?, $$, $!, $0, $-, $_).
type Params struct {
	Positional []string          // $1.. (not including $0)
	Name       string            // $0
	Special    map[byte]string   // '?', '$', '!', '-', '_'
}

// Options controls expansion behavior (spec.md §4.4/§4.5 flags surfaced via
// `set`/`shopt`).
type Options struct {
	Pattern        pattern.Options
	TildeExpansion bool
	PosixMode      bool
	Unbound        bool // set -u: reference to an unset variable is an error
	NullGlob       bool // a glob matching nothing expands to zero fields
	NoGlob         bool // set -f: pathname expansion disabled entirely
	IFS            string // defaults to " \t\n" when empty-valued-but-unset; "" (explicitly set empty) disables splitting
	IFSIsSet       bool
}

func (o Options) ifsOrDefault() string {
	if !o.IFSIsSet {
		return " \t\n"
	}
	return o.IFS
}

// Expander holds everything one expansion call needs.
type Expander struct {
	Env    *variables.Environment
	Params Params
	Runner CommandRunner
	Opt    Options
	// PromptFormatter backs the "${x@P}" transform operator (spec.md §3),
	// which reruns x's value through the prompt-string formatter (\u, \h,
	// \w, ...). internal/expand has no prompt-formatting concern of its
	// own, so the shell facade that owns one installs it here; left nil,
	// "@P" is a no-op passthrough.
	PromptFormatter func(string) string
}

// New constructs an Expander.
func New(env *variables.Environment, params Params, runner CommandRunner, opt Options) *Expander {
	return &Expander{Env: env, Params: params, Runner: runner, Opt: opt}
}

// fieldKind distinguishes how a fragment participates in field splitting
// (spec.md §4.5 step 2/4).
type fieldKind int

const (
	fkSplittable fieldKind = iota
	fkUnsplittable
)

// fragment is one already-expanded chunk of a word, tagged the way
// WordExpander's ExpandedWordPiece is in original_source.
type fragment struct {
	kind fieldKind
	text string
	// arrayFields holds one already-finished string per element when this
	// fragment came from a quoted "$@"/"$*"-shaped expansion that must stay
	// split into separate fields (spec.md §4.5 "$@ expands to one field per
	// positional parameter" even inside a surrounding word).
	arrayFields []string
}

// BasicExpand implements spec.md §4.5's basic_expand: tilde, parameter,
// command, and arithmetic expansion, with no splitting or globbing.
func (ex *Expander) BasicExpand(text string) (string, error) {
	fragments, err := ex.expandToFragments(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range fragments {
		if f.arrayFields != nil {
			b.WriteString(strings.Join(f.arrayFields, ex.fieldJoiner()))
			continue
		}
		b.WriteString(f.text)
	}
	return b.String(), nil
}

// FullExpandAndSplit implements spec.md §4.5's full_expand_and_split: basic
// expansion, then IFS field splitting, then pathname expansion.
func (ex *Expander) FullExpandAndSplit(text string) ([]string, error) {
	fragments, err := ex.expandToFragments(text)
	if err != nil {
		return nil, err
	}
	fields := ex.splitFields(fragments)

	var out []string
	for _, field := range fields {
		if ex.Opt.NoGlob {
			out = append(out, field.literal())
			continue
		}
		expanded, err := ex.expandPathname(field)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func (ex *Expander) fieldJoiner() string {
	ifs := ex.Opt.ifsOrDefault()
	if ifs == "" {
		return ""
	}
	return ifs[:1]
}

// expandToFragments runs word-parsing then expands each piece, mirroring
// WordExpander::basic_expand_into_pieces.
func (ex *Expander) expandToFragments(text string) ([]fragment, error) {
	pieces, err := wordparser.Parse(text, wordparser.Options{
		ExtendedGlobbing: ex.Opt.Pattern.ExtendedGlob,
		TildeExpansion:   ex.Opt.TildeExpansion,
		PosixMode:        ex.Opt.PosixMode,
	})
	if err != nil {
		return nil, err
	}
	var out []fragment
	for _, p := range pieces {
		f, err := ex.expandPiece(p, false)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return coalesce(out), nil
}

func coalesce(in []fragment) []fragment {
	var out []fragment
	for _, f := range in {
		if f.arrayFields == nil && len(out) > 0 {
			last := &out[len(out)-1]
			if last.arrayFields == nil && last.kind == f.kind {
				last.text += f.text
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

// expandPiece expands one word piece into a fragment. quoted marks whether
// the piece is nested inside a DoubleQuotedSequence, which forces $@/$* to
// their quoted (per-field) behavior.
func (ex *Expander) expandPiece(p wordparser.Piece, quoted bool) (fragment, error) {
	switch p.Kind {
	case wordparser.Text:
		return fragment{kind: fkSplittable, text: p.Text}, nil

	case wordparser.SingleQuotedText, wordparser.AnsiCQuotedText:
		return fragment{kind: fkUnsplittable, text: p.Text}, nil

	case wordparser.EscapeSequence:
		return fragment{kind: fkUnsplittable, text: p.Text}, nil

	case wordparser.DoubleQuotedSequence:
		var b strings.Builder
		for _, child := range p.Children {
			cf, err := ex.expandPiece(child, true)
			if err != nil {
				return fragment{}, err
			}
			if cf.arrayFields != nil {
				return fragment{kind: fkUnsplittable, arrayFields: cf.arrayFields}, nil
			}
			b.WriteString(cf.text)
		}
		return fragment{kind: fkUnsplittable, text: b.String()}, nil

	case wordparser.TildePrefix:
		home, err := ex.expandTilde(p.Text)
		if err != nil {
			return fragment{}, err
		}
		return fragment{kind: fkSplittable, text: home}, nil

	case wordparser.CommandSubstitution:
		out, err := ex.expandCommandSubstitution(p.Text)
		if err != nil {
			return fragment{}, err
		}
		return fragment{kind: fkSplittable, text: out}, nil

	case wordparser.ArithmeticExpression:
		v, err := arithmetic.Eval(p.Text, ex.arithVars())
		if err != nil {
			return fragment{}, err
		}
		return fragment{kind: fkSplittable, text: strconv.FormatInt(v, 10)}, nil

	case wordparser.ParameterExpansion:
		return ex.expandParameter(p.Param, quoted)

	default:
		return fragment{kind: fkSplittable, text: p.Text}, nil
	}
}

func (ex *Expander) expandTilde(user_ string) (string, error) {
	if user_ == "" {
		if home, ok := ex.Env.Get("HOME", variables.Anywhere); ok && home.Value.Kind == variables.KindString {
			return home.Value.Str, nil
		}
		if u, err := user.Current(); err == nil && u.HomeDir != "" {
			return u.HomeDir, nil
		}
		return "", shellerr.New(shellerr.KindTildeWithoutValidHome, "HOME unset and current user has no home directory")
	}
	u, err := user.Lookup(user_)
	if err != nil || u.HomeDir == "" {
		return "", shellerr.Newf(shellerr.KindTildeWithoutValidHome, "no home directory for user %q", user_)
	}
	return u.HomeDir, nil
}

func (ex *Expander) expandCommandSubstitution(body string) (string, error) {
	if ex.Runner == nil {
		return "", shellerr.New(shellerr.KindUnimplemented, "command substitution requires a command runner")
	}
	// $((...)) lexes identically to a command substitution whose body
	// starts with '(' and ends with the matching ')' (spec.md §4.5); the
	// word parser can't distinguish them without counting, so the
	// expansion engine does: a body shaped like "(expr)" with balanced
	// outer parens is arithmetic, not a subshell command.
	if looksArithmetic(body) {
		v, err := arithmetic.Eval(body[1:len(body)-1], ex.arithVars())
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(v, 10), nil
	}
	out, err := ex.Runner.RunCaptured(body)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// looksArithmetic reports whether body is entirely wrapped in one matching
// pair of parens, e.g. "(1+2)" from "$((1+2))", vs. a real command like
// "(cd x; ls)" which also starts/ends with parens but isn't meant as
// arithmetic. Bash's own disambiguation additionally requires the content
// to parse as a valid arithmetic expression; callers that need the
// command-substitution fallback on arithmetic-parse failure should retry
// via RunCaptured themselves.
func looksArithmetic(body string) bool {
	if len(body) < 2 || body[0] != '(' || body[len(body)-1] != ')' {
		return false
	}
	depth := 0
	for i, c := range body {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(body)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// arithVars adapts Expander to arithmetic.Vars, reading/writing shell
// variables as the `$((x=1))`-style assignment arithmetic forms require.
func (ex *Expander) arithVars() arithmetic.Vars { return arithEnvAdapter{ex} }

type arithEnvAdapter struct{ ex *Expander }

func (a arithEnvAdapter) GetInt(name string) int64 {
	v, ok := a.ex.Env.Get(name, variables.Anywhere)
	if !ok || v.Value.Kind != variables.KindString {
		return 0
	}
	n, _ := strconv.ParseInt(strings.TrimSpace(v.Value.Str), 10, 64)
	return n
}

func (a arithEnvAdapter) SetInt(name string, value int64) {
	_ = a.ex.Env.UpdateOrAdd(name, strconv.FormatInt(value, 10), false, variables.Anywhere, variables.ScopeGlobal, func(attrs *variables.Attributes) {
		attrs.Integer = true
	})
}
