// Package pattern compiles shell glob/pattern pieces into regular
// expressions and implements pathname expansion and prefix/suffix removal
// (spec.md §4.4).
//
// Grounded on the teacher's core/lexer pattern-to-regex helpers used for its
// decorator glob arguments, generalized to the full shell glob grammar
// (bracket classes, extglob), and cross-checked against
// original_source/brush-core/src/patterns.rs for the prefix/suffix scan
// directions and function names.
package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/coreshell/gosh/internal/shellerr"
)

// PieceKind distinguishes a glob-syntax piece from a literal, pre-escaped
// piece (spec.md §3 "Pattern").
type PieceKind int

const (
	// Pattern pieces are interpreted as shell-glob syntax.
	Pattern PieceKind = iota
	// Literal pieces are inserted as exact text, regex-escaped.
	Literal
)

// Piece is one segment of a compiled pattern's source (spec.md §3).
type Piece struct {
	Kind PieceKind
	Text string
}

// Options controls how a pattern compiles.
type Options struct {
	// ExtendedGlob enables @(...) !(...) ?(...) +(...) *(...) forms.
	ExtendedGlob bool
	// Multiline causes "(?s)" so "." matches newline; the anchors still bind
	// to the whole string rather than per-line.
	Multiline bool
	// NoCaseGlob folds case during matching (shopt nocaseglob/nocasematch).
	NoCaseGlob bool
}

// Pattern is a compiled shell glob, ready to match candidate strings.
type Pattern struct {
	re  *regexp.Regexp
	src string // the pieces joined, for diagnostics/String()
}

func (p *Pattern) String() string { return p.src }

// MatchString reports whether s matches the whole pattern.
func (p *Pattern) MatchString(s string) bool { return p.re.MatchString(s) }

// Compile builds a Pattern from pieces per spec.md §4.4's translation table.
func Compile(pieces []Piece, opt Options) (*Pattern, error) {
	var b strings.Builder
	var raw strings.Builder
	if opt.Multiline {
		b.WriteString("(?s)")
	}
	if opt.NoCaseGlob {
		b.WriteString("(?i)")
	}
	b.WriteByte('^')
	for _, pc := range pieces {
		raw.WriteString(pc.Text)
		switch pc.Kind {
		case Literal:
			b.WriteString(regexp.QuoteMeta(pc.Text))
		case Pattern:
			frag, err := translateGlob(pc.Text, opt)
			if err != nil {
				return nil, err
			}
			b.WriteString(frag)
		}
	}
	b.WriteByte('$')
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, shellerr.Wrap(shellerr.KindSyntax, "invalid pattern", err)
	}
	return &Pattern{re: re, src: raw.String()}, nil
}

// CompileString is a convenience wrapper for a single all-glob piece.
func CompileString(glob string, opt Options) (*Pattern, error) {
	return Compile([]Piece{{Kind: Pattern, Text: glob}}, opt)
}

// CompileUnanchored builds a Pattern whose regex has no "^"/"$" anchors,
// for callers matching a glob as a substring rather than against the whole
// string — `${x/pat/rep}`-family replacement (spec.md §4.5) needs this,
// since `${x#pat}`-family removal and `[[ = ]]` matching need the anchored
// form `Compile` already provides.
func CompileUnanchored(glob string, opt Options) (*Pattern, error) {
	var b strings.Builder
	if opt.Multiline {
		b.WriteString("(?s)")
	}
	if opt.NoCaseGlob {
		b.WriteString("(?i)")
	}
	frag, err := translateGlob(glob, opt)
	if err != nil {
		return nil, err
	}
	b.WriteString(frag)
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, shellerr.Wrap(shellerr.KindSyntax, "invalid pattern", err)
	}
	return &Pattern{re: re, src: glob}, nil
}

// Regexp exposes the compiled regular expression for callers (like
// internal/expand's replace operators) that need ReplaceAll/FindIndex
// rather than the whole-string MatchString check.
func (p *Pattern) Regexp() *regexp.Regexp { return p.re }

// translateGlob converts one glob-syntax fragment to a regex fragment per
// spec.md §4.4's mapping table: * -> .*, ? -> ., [...] bracket classes,
// [!...] negation, and (when enabled) extglob @()  !()  ?()  +()  *().
func translateGlob(s string, opt Options) (string, error) {
	var b strings.Builder
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case opt.ExtendedGlob && isExtglobSigil(c) && i+1 < len(runes) && runes[i+1] == '(':
			frag, next, err := translateExtglob(runes, i, opt)
			if err != nil {
				return "", err
			}
			b.WriteString(frag)
			i = next
		case c == '*':
			b.WriteString(".*")
			i++
		case c == '?':
			b.WriteByte('.')
			i++
		case c == '[':
			frag, next, err := translateBracketClass(runes, i)
			if err != nil {
				return "", err
			}
			b.WriteString(frag)
			i = next
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	return b.String(), nil
}

func isExtglobSigil(c rune) bool {
	return c == '@' || c == '!' || c == '?' || c == '+' || c == '*'
}

// translateBracketClass converts a shell `[...]`/`[!...]` bracket
// expression starting at runes[start]=='[' into a regex character class,
// escaping regex-unsafe characters inside it, and returns the index just
// past the closing ']'.
func translateBracketClass(runes []rune, start int) (string, int, error) {
	i := start + 1
	negate := false
	if i < len(runes) && (runes[i] == '!' || runes[i] == '^') {
		negate = true
		i++
	}
	contentStart := i
	// A ']' immediately after the opening (or negation) is literal.
	if i < len(runes) && runes[i] == ']' {
		i++
	}
	for i < len(runes) && runes[i] != ']' {
		i++
	}
	if i >= len(runes) {
		return "", 0, shellerr.Newf(shellerr.KindSyntax, "unterminated bracket expression in pattern")
	}
	content := string(runes[contentStart:i])
	var b strings.Builder
	b.WriteByte('[')
	if negate {
		b.WriteByte('^')
	}
	for _, r := range content {
		switch r {
		case '\\', ']', '^':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(']')
	return b.String(), i + 1, nil
}

// translateExtglob converts one `<sigil>(alt|alt|...)` extglob group
// starting at runes[start] into its regex equivalent (spec.md §4.4):
// @()->(...), ?()->(...)?, *()->(...)*, +()->(...)+, !()->(?:.*) (see below).
func translateExtglob(runes []rune, start int, opt Options) (string, int, error) {
	sigil := runes[start]
	depth := 0
	i := start + 1 // at '('
	groupStart := i + 1
	for j := i; j < len(runes); j++ {
		switch runes[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				inner := string(runes[groupStart:j])
				alts := strings.Split(inner, "|")
				translated := make([]string, len(alts))
				for k, alt := range alts {
					frag, err := translateGlob(alt, opt)
					if err != nil {
						return "", 0, err
					}
					translated[k] = frag
				}
				group := "(?:" + strings.Join(translated, "|") + ")"
				var out string
				switch sigil {
				case '@':
					out = group
				case '?':
					out = group + "?"
				case '*':
					out = group + "*"
				case '+':
					out = group + "+"
				case '!':
					// No universal negative-match regex fragment exists for
					// "anything not matching group" mid-pattern in RE2
					// (no lookaround); approximate with a negative
					// lookahead-free rejection: match any run of
					// characters, documented limitation (spec.md §4.4).
					out = "(?:.*)"
				}
				return out, j + 1, nil
			}
		}
	}
	return "", 0, shellerr.Newf(shellerr.KindSyntax, "unterminated extglob group in pattern")
}

// --- prefix/suffix removal (spec.md §4.4) --------------------------------

// RemoveLargestMatchingPrefix returns s with the longest prefix matching p
// removed, per spec.md §4.4: iterate i = |s|..1 and return the first
// s[i:] whose s[:i] exactly matches p.
func RemoveLargestMatchingPrefix(s string, p *Pattern) string {
	for i := len(s); i >= 1; i-- {
		if p.MatchString(s[:i]) {
			return s[i:]
		}
	}
	return s
}

// RemoveSmallestMatchingPrefix scans the opposite direction: i = 1..|s|.
func RemoveSmallestMatchingPrefix(s string, p *Pattern) string {
	for i := 1; i <= len(s); i++ {
		if p.MatchString(s[:i]) {
			return s[i:]
		}
	}
	return s
}

// RemoveLargestMatchingSuffix is the suffix-symmetric variant: the
// shortest remaining prefix whose complementary suffix matches p.
func RemoveLargestMatchingSuffix(s string, p *Pattern) string {
	for i := 0; i <= len(s); i++ {
		if p.MatchString(s[i:]) {
			return s[:i]
		}
	}
	return s
}

// RemoveSmallestMatchingSuffix scans from the end inward.
func RemoveSmallestMatchingSuffix(s string, p *Pattern) string {
	for i := len(s); i >= 0; i-- {
		if p.MatchString(s[i:]) {
			return s[:i]
		}
	}
	return s
}

// --- pathname expansion (spec.md §4.4) -----------------------------------

// ComponentKind distinguishes a literal path component from one containing
// glob metacharacters that needs directory expansion.
type ComponentKind int

const (
	ComponentLiteral ComponentKind = iota
	ComponentGlob
)

// Component is one path segment between separators.
type Component struct {
	Kind ComponentKind
	Text string // literal text, or the glob source (not yet compiled)
}

// Filter is applied to each candidate path; nil means accept all.
type Filter func(path string) bool

// Expand walks components from base (the working directory for relative
// patterns, or "/" for absolute ones), expanding ComponentGlob segments
// against directory entries and keeping ComponentLiteral segments verbatim,
// per spec.md §4.4's "Expansion to paths" procedure. Results are sorted
// lexicographically at each level.
func Expand(base string, components []Component, opt Options, filter Filter) ([]string, error) {
	paths := []string{base}
	for _, comp := range components {
		var next []string
		for _, cur := range paths {
			switch comp.Kind {
			case ComponentLiteral:
				next = append(next, filepath.Join(cur, comp.Text))
			case ComponentGlob:
				entries, err := os.ReadDir(cur)
				if err != nil {
					continue // unreadable directory yields no matches, not an error
				}
				pat, err := CompileString(comp.Text, opt)
				if err != nil {
					return nil, err
				}
				var names []string
				for _, e := range entries {
					name := e.Name()
					if !opt.dotglobAllows(name) && !strings.HasPrefix(comp.Text, ".") {
						continue
					}
					if pat.MatchString(name) {
						names = append(names, name)
					}
				}
				sort.Strings(names)
				for _, name := range names {
					next = append(next, filepath.Join(cur, name))
				}
			}
		}
		paths = next
	}
	var out []string
	for _, p := range paths {
		if filter == nil || filter(p) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// dotglobAllows reports whether a directory entry name is eligible whatever
// the glob: leading-dot names are not. Expand still considers them when the
// glob component itself begins with a literal '.' (bash's default,
// non-dotglob rule).
// Kept conservative here; internal/expand's caller may pre-filter further
// once shopt dotglob is threaded through.
func (o Options) dotglobAllows(name string) bool {
	return !strings.HasPrefix(name, ".")
}

// Validate is a defensive check used by callers that build Piece slices
// programmatically (e.g. from word pieces) before compiling, surfacing a
// clear error instead of a cryptic regexp failure.
func Validate(pieces []Piece) error {
	for _, pc := range pieces {
		if pc.Kind != Literal && pc.Kind != Pattern {
			return fmt.Errorf("pattern: invalid piece kind %d", pc.Kind)
		}
	}
	return nil
}
