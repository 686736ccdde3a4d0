// Package completion implements the programmable completion engine
// (spec.md §1 item 5, §3 "Completion configuration", §4.8 "Completion
// engine"): a command-name-keyed mapping of Specs, each describing the
// action(s) that produce candidate completions for that command's
// arguments, plus the `compgen`/`complete`/`compopt` builtins' logic.
//
// Grounded on original_source/brush-core/src/completion (the Spec/action
// model: an ordered list of action tags, an optional glob-pattern or
// word-list source, a function or external command to invoke, and a
// prefix/suffix/filter decoration applied to every candidate) and on
// original_source/shell/src/completion.rs for the eight-step evaluation
// procedure spec.md §4.8 describes almost verbatim.
package completion

import (
	"sort"
	"strings"

	"github.com/coreshell/gosh/internal/pattern"
)

// Action is one of the action tags spec.md §4.8 lists: a source of
// candidate words a Spec can draw from.
type Action string

const (
	ActionAlias            Action = "alias"
	ActionBuiltin          Action = "builtin"
	ActionCommand          Action = "command"
	ActionDirectory        Action = "directory"
	ActionExportedVariable Action = "exported-variable"
	ActionFile             Action = "file"
	ActionFunction         Action = "function"
	ActionHostname         Action = "hostname"
	ActionKeyword          Action = "keyword"
	ActionShoptSetoptName  Action = "shopt-setopt-name"
	ActionVariable         Action = "variable"
)

// Options is the "in-flight" options block a running completion function
// can mutate via `compopt` (spec.md §3: "an 'in-flight' options block
// mutable by a running completion function").
type Options struct {
	NoSpace  bool // compopt -o nospace: don't append a trailing space
	NoSort   bool // compopt -o nosort
	Filenames bool // compopt -o filenames; recorded only, candidate generation does not read it
	DirNames  bool // compopt -o dirnames; recorded only, candidate generation does not read it
	PlusDirs  bool // compopt -o plusdirs; recorded only, candidate generation does not read it
}

// Spec describes how to complete one command's arguments (spec.md §3
// "Completion configuration").
type Spec struct {
	Actions        []Action
	GlobPattern    string   // action tag "glob-pattern"
	WordList       []string // action tag "word-list" (IFS-split at registration time)
	FunctionName   string   // action tag "function-name"
	Command        string   // action tag "command": run in a subshell, stdout lines are candidates
	FilterPattern  string   // keep only candidates this glob-pattern matches
	FilterExcludes []string // drop candidates any of these glob-patterns match
	Prefix         string
	Suffix         string
	Options        Options
}

// Clone returns a copy of s safe to store as a fresh in-flight block.
func (s *Spec) Clone() *Spec {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Actions = append([]Action(nil), s.Actions...)
	cp.WordList = append([]string(nil), s.WordList...)
	cp.FilterExcludes = append([]string(nil), s.FilterExcludes...)
	return &cp
}

// Runner lets the completion engine invoke a shell function or an external
// command without internal/completion importing internal/interp (avoids an
// import cycle: internal/interp's `complete`/`compgen` builtins call into
// this package).
type Runner interface {
	// RunFunction invokes the named shell function with COMP_LINE/
	// COMP_POINT/COMP_WORDS/COMP_CWORD set, then reads back COMPREPLY
	// (spec.md §4.8's "function-name" action). The returned exit status is
	// used for the 124-triggers-reload convention.
	RunFunction(name, line string, point int, words []string, cword int) (reply []string, exit int, err error)
	// RunCommand runs cmdline in a subshell and returns its stdout split
	// into lines (spec.md §4.8's "command" action).
	RunCommand(cmdline string) ([]string, error)
}

// ActionContext supplies the static candidate sources the fixed actions
// draw from (spec.md §4.8): aliases, builtins, declared functions, shell
// variables, hostnames, reserved words, and the combined set-option/shopt
// name space.
type ActionContext interface {
	Builtins() []string
	Aliases() []string
	FunctionNames() []string
	VariableNames() []string
	ExportedVariableNames() []string
	Keywords() []string
	ShoptSetoptNames() []string
	Hostnames() []string
}

// Registry is the command-name→Spec mapping plus the three special specs
// spec.md §3 names: default (no command-specific spec matched), empty-line
// (completing on a blank command line), and initial-word (completing the
// command word itself).
type Registry struct {
	specs       map[string]*Spec
	Default     *Spec
	EmptyLine   *Spec
	InitialWord *Spec
}

// NewRegistry returns an empty Registry. The caller should Register a
// built-in fallback (file completion) as Default so commands with no
// specific Spec still get something reasonable, matching bash's behavior
// absent `complete -D`.
func NewRegistry() *Registry {
	return &Registry{specs: map[string]*Spec{}}
}

// Register installs spec for every name in names (spec.md §4.8 "resolve
// spec: command-name spec").
func (r *Registry) Register(names []string, spec *Spec) {
	for _, n := range names {
		r.specs[n] = spec
	}
}

// Remove drops the registered spec for name (backs `complete -r`).
func (r *Registry) Remove(name string) { delete(r.specs, name) }

// Get returns the Spec registered for name, if any.
func (r *Registry) Get(name string) (*Spec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// Names lists every command name with a registered spec, sorted, for
// `complete -p`'s bare-invocation report.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.specs))
	for n := range r.specs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Result is one evaluation of the completion engine: the byte offset into
// the line where the replacement begins, and the candidate list (spec.md
// §4.8 step 8: "return {start, candidates}").
type Result struct {
	Start      int
	Candidates []string
}

// builtinFallback is spec.md §4.8's "built-in fallback" when neither a
// command-name spec nor a default spec resolves: plain pathname completion.
var builtinFallback = &Spec{Actions: []Action{ActionFile}}

// resolveSpec implements spec.md §4.8 step 3: "resolve spec (command-name
// spec → default spec → built-in fallback)".
func (r *Registry) resolveSpec(cword int, words []string) *Spec {
	if len(words) == 0 {
		if r.EmptyLine != nil {
			return r.EmptyLine
		}
		return builtinFallback
	}
	if cword == 0 {
		if r.InitialWord != nil {
			return r.InitialWord
		}
		return &Spec{Actions: []Action{ActionAlias, ActionBuiltin, ActionCommand, ActionFunction, ActionKeyword}}
	}
	if s, ok := r.specs[words[0]]; ok {
		return s
	}
	if r.Default != nil {
		return r.Default
	}
	return builtinFallback
}

// Complete implements spec.md §4.8's eight-step completion procedure given
// a full command line and the cursor's byte offset into it.
func (r *Registry) Complete(line string, point int, ctx ActionContext, runner Runner) (Result, error) {
	// Step 1: tokenize line, locate token under cursor and its prefix.
	words, starts := tokenize(line)
	cword, prefix, start := locateCursor(line, point, words, starts)

	// Step 2 is folded into locateCursor above.

	// Step 3: resolve spec.
	spec := r.resolveSpec(cword, words)

	return evalAndFilter(spec, prefix, words, cword, line, point, start, ctx, runner)
}

// CompleteWord evaluates r.Default (or, absent one, the built-in file
// fallback) directly against a single standalone word, bypassing the
// command-name spec resolution Complete performs — this is `compgen`'s
// model (spec.md §4.8): it has no command line to resolve a spec from, just
// the flags the caller passed, which ParseSpecFlags has already turned into
// r.Default.
func (r *Registry) CompleteWord(word string, ctx ActionContext, runner Runner) (Result, error) {
	spec := r.Default
	if spec == nil {
		spec = builtinFallback
	}
	return evalAndFilter(spec, word, []string{word}, 0, word, len(word), 0, ctx, runner)
}

func evalAndFilter(spec *Spec, prefix string, words []string, cword int, line string, point, start int, ctx ActionContext, runner Runner) (Result, error) {
	// Step 4: evaluate spec actions into a raw candidate list.
	raw, err := evaluate(spec, prefix, words, cword, line, point, ctx, runner)
	if err != nil {
		return Result{}, err
	}

	// Step 5: filter by prefix and filter-pattern/filter-excludes.
	filtered := make([]string, 0, len(raw))
	var filterPat, excl []*pattern.Pattern
	if spec.FilterPattern != "" {
		if p, err := pattern.CompileString(spec.FilterPattern, pattern.Options{}); err == nil {
			filterPat = append(filterPat, p)
		}
	}
	for _, fe := range spec.FilterExcludes {
		if p, err := pattern.CompileString(fe, pattern.Options{}); err == nil {
			excl = append(excl, p)
		}
	}
	for _, c := range raw {
		if prefix != "" && !strings.HasPrefix(c, prefix) {
			continue
		}
		if len(filterPat) > 0 {
			match := false
			for _, p := range filterPat {
				if p.MatchString(c) {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		excluded := false
		for _, p := range excl {
			if p.MatchString(c) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		filtered = append(filtered, c)
	}

	// Step 6: decorate with prefix/suffix.
	if spec.Prefix != "" || spec.Suffix != "" {
		for i, c := range filtered {
			filtered[i] = spec.Prefix + c + spec.Suffix
		}
	}

	// Step 7: sort unless nosort.
	if !spec.Options.NoSort {
		sort.Strings(filtered)
	}

	// Step 8: return {start, candidates}.
	return Result{Start: start, Candidates: dedup(filtered)}, nil
}

func dedup(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := ss[:0]
	for _, s := range ss {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
