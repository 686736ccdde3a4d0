// Package shellopts implements the full `set -o`/`shopt` option surface
// (SUPPLEMENTED FEATURES): every short-flag `set -o` option bash exposes,
// plus the long-named `shopt` table, not just the handful internal/interp's
// Options struct consults directly. A shell facade (internal/shell) or a
// standalone internal/interp user projects the handful of options the
// executor cares about out of this table with interp.SyncOptions.
//
// Grounded on original_source/brush-core/src/namedoptions.rs: a flat
// registry of named options, each with a long name, an optional short
// letter, and a default, split here into the two bash keeps genuinely
// separate namespaces ("set -o"/"set -e" and "shopt -s").
package shellopts

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// Option describes one entry in either table.
type Option struct {
	Name    string // long name, as used by `set -o name` / `shopt name`
	Short   byte   // 0 if this option has no single-letter `set -x` form
	Default bool
}

// setOptionSpecs is bash's complete `set -o` table (SUPPLEMENTED FEATURES:
// "the complete short-flag set -o table (a b e f h k m n p t u v x ...)").
var setOptionSpecs = []Option{
	{Name: "allexport", Short: 'a'},
	{Name: "notify", Short: 'b'},
	{Name: "errexit", Short: 'e'},
	{Name: "noglob", Short: 'f'},
	{Name: "hashall", Short: 'h', Default: true},
	{Name: "interactive-comments"},
	{Name: "keyword", Short: 'k'},
	{Name: "monitor", Short: 'm'},
	{Name: "noexec", Short: 'n'},
	{Name: "privileged", Short: 'p'},
	{Name: "onecmd", Short: 't'},
	{Name: "nounset", Short: 'u'},
	{Name: "verbose", Short: 'v'},
	{Name: "xtrace", Short: 'x'},
	{Name: "braceexpand", Default: true},
	{Name: "emacs"},
	{Name: "vi"},
	{Name: "ignoreeof"},
	{Name: "physical"},
	{Name: "posix"},
	{Name: "pipefail"},
	{Name: "functrace"},
	{Name: "errtrace"},
	{Name: "history", Default: true},
	{Name: "nolog"},
}

// shoptOptionSpecs is bash's long-named `shopt` table (SUPPLEMENTED
// FEATURES: "nullglob, extglob, dotglob, globstar, nocaseglob, lastpipe,
// expand_aliases, ...").
var shoptOptionSpecs = []Option{
	{Name: "autocd"},
	{Name: "cdable_vars"},
	{Name: "cdspell"},
	{Name: "checkhash"},
	{Name: "checkjobs"},
	{Name: "checkwinsize", Default: true},
	{Name: "cmdhist", Default: true},
	{Name: "compat31"},
	{Name: "compat32"},
	{Name: "compat40"},
	{Name: "compat41"},
	{Name: "compat42"},
	{Name: "compat43"},
	{Name: "compat44"},
	{Name: "complete_fullquote", Default: true},
	{Name: "direxpand"},
	{Name: "dirspell"},
	{Name: "dotglob"},
	{Name: "execfail"},
	{Name: "expand_aliases"},
	{Name: "extdebug"},
	{Name: "extglob"},
	{Name: "extquote", Default: true},
	{Name: "failglob"},
	{Name: "force_fignore", Default: true},
	{Name: "globasciiranges", Default: true},
	{Name: "globstar"},
	{Name: "globskipdots", Default: true},
	{Name: "gnu_errfmt"},
	{Name: "histappend"},
	{Name: "histreedit"},
	{Name: "histverify"},
	{Name: "hostcomplete", Default: true},
	{Name: "huponexit"},
	{Name: "inherit_errexit"},
	{Name: "interactive_comments", Default: true},
	{Name: "lastpipe"},
	{Name: "lithist"},
	{Name: "localvar_inherit"},
	{Name: "localvar_unset"},
	{Name: "login_shell"},
	{Name: "mailwarn"},
	{Name: "no_empty_cmd_completion"},
	{Name: "nocaseglob"},
	{Name: "nocasematch"},
	{Name: "noexpand_translation"},
	{Name: "nullglob"},
	{Name: "progcomp", Default: true},
	{Name: "progcomp_alias"},
	{Name: "promptvars", Default: true},
	{Name: "restricted_shell"},
	{Name: "shift_verbose"},
	{Name: "sourcepath", Default: true},
	{Name: "xpg_echo"},
}

// Table holds the live on/off state of every `set -o` and `shopt` option
// for one shell instance (SUPPLEMENTED FEATURES), independent of
// internal/interp's smaller Options cache.
type Table struct {
	setValues   map[string]bool
	shoptValues map[string]bool
}

// New returns a Table initialized to bash's documented defaults.
func New() *Table {
	t := &Table{
		setValues:   make(map[string]bool, len(setOptionSpecs)),
		shoptValues: make(map[string]bool, len(shoptOptionSpecs)),
	}
	for _, o := range setOptionSpecs {
		t.setValues[o.Name] = o.Default
	}
	for _, o := range shoptOptionSpecs {
		t.shoptValues[o.Name] = o.Default
	}
	return t
}

// Clone returns a deep copy, for subshell/command-substitution execution
// where option changes must not leak back to the parent shell.
func (t *Table) Clone() *Table {
	nt := &Table{
		setValues:   make(map[string]bool, len(t.setValues)),
		shoptValues: make(map[string]bool, len(t.shoptValues)),
	}
	for k, v := range t.setValues {
		nt.setValues[k] = v
	}
	for k, v := range t.shoptValues {
		nt.shoptValues[k] = v
	}
	return nt
}

func setSpecByShort(short byte) (Option, bool) {
	for _, o := range setOptionSpecs {
		if o.Short == short && short != 0 {
			return o, true
		}
	}
	return Option{}, false
}

func setSpecByName(name string) (Option, bool) {
	for _, o := range setOptionSpecs {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

func shoptSpecByName(name string) (Option, bool) {
	for _, o := range shoptOptionSpecs {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// SetByShort applies a `set -x`/`set +x` single-letter flag, reporting
// whether the letter names a known option.
func (t *Table) SetByShort(short byte, on bool) bool {
	o, ok := setSpecByShort(short)
	if !ok {
		return false
	}
	t.setValues[o.Name] = on
	return true
}

// SetByName applies a `set -o name`/`set +o name` long-form option,
// reporting whether name is known.
func (t *Table) SetByName(name string, on bool) bool {
	if _, ok := setSpecByName(name); !ok {
		return false
	}
	t.setValues[name] = on
	return true
}

// Set reports the current value of a `set -o` option and whether it exists.
func (t *Table) Set(name string) (bool, bool) {
	v, ok := t.setValues[name]
	return v, ok
}

// ShoptSet applies a `shopt -s`/`shopt -u` option, reporting whether name
// is known. compatNN entries are mutually exclusive: enabling one disables
// the others, matching bash's single active compat level.
func (t *Table) ShoptSet(name string, on bool) bool {
	if _, ok := shoptSpecByName(name); !ok {
		return false
	}
	if on && strings.HasPrefix(name, "compat") {
		for _, o := range shoptOptionSpecs {
			if strings.HasPrefix(o.Name, "compat") {
				t.shoptValues[o.Name] = false
			}
		}
	}
	t.shoptValues[name] = on
	return true
}

// Shopt reports the current value of a shopt option and whether it exists.
func (t *Table) Shopt(name string) (bool, bool) {
	v, ok := t.shoptValues[name]
	return v, ok
}

// SetNames returns every `set -o` option name in bash's canonical listing
// order, for `set -o`'s bare-invocation report.
func SetNames() []string {
	out := make([]string, len(setOptionSpecs))
	for i, o := range setOptionSpecs {
		out[i] = o.Name
	}
	sort.Strings(out)
	return out
}

// ShoptNames returns every `shopt` option name, sorted, for `shopt -p`'s
// bare-invocation report and for the completion engine's
// "shopt-setopt-names" action (spec.md §4.8).
func ShoptNames() []string {
	out := make([]string, len(shoptOptionSpecs))
	for i, o := range shoptOptionSpecs {
		out[i] = o.Name
	}
	sort.Strings(out)
	return out
}

// SetOptNames is an alias of SetNames under the name the completion
// engine's "shopt-setopt-names" action uses for the combined `set -o`
// namespace (spec.md §4.8's action tag covers both tables).
func SetOptNames() []string { return SetNames() }

// CompatLevel returns the currently-enabled compatNN shopt option's level
// as a semver-comparable string ("v0.44.0" for compat44), or "" if none is
// enabled (current bash behavior).
func (t *Table) CompatLevel() string {
	for _, o := range shoptOptionSpecs {
		if !strings.HasPrefix(o.Name, "compat") {
			continue
		}
		if t.shoptValues[o.Name] {
			return "v0." + strings.TrimPrefix(o.Name, "compat") + ".0"
		}
	}
	return ""
}

// AtLeastCompat reports whether the active compat level is at or above
// level (e.g. "compat42"), using golang.org/x/mod/semver to compare the
// compatNN levels as dotted version numbers rather than hand-rolled
// integer parsing (DOMAIN STACK: "golang.org/x/mod/semver ...
// BASH_VERSINFO/compat-level comparison").
func (t *Table) AtLeastCompat(level string) bool {
	cur := t.CompatLevel()
	if cur == "" {
		return false
	}
	want := "v0." + strings.TrimPrefix(level, "compat") + ".0"
	return semver.Compare(cur, want) >= 0
}
