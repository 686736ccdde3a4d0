// Package builtins owns the static builtin-name registry and the
// "command not found" fuzzy "did you mean" suggestion path (spec.md §4.9);
// the builtins' actual execution lives in internal/interp, which has the
// interpreter state (variables, job table, call stack) every builtin reads
// or mutates — this package stays a standalone, dependency-light lookup
// table so internal/interp can import it without a cycle.
//
// Grounded on the teacher's runtime/planner/planner.go findClosestMatch,
// generalized from a one-shot best-guess to a ranked, capped suggestion
// list for CommandNotFound error reporting.
package builtins

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Names is every builtin spec.md §4.9 requires, in the canonical bash
// listing order (special builtins first, then regular builtins).
var Names = []string{
	// Special builtins (POSIX XCU 2.14): assignments preceding them persist,
	// and a failure in one is fatal to a non-interactive shell.
	":", ".", "break", "continue", "eval", "exec", "exit", "export",
	"readonly", "return", "set", "shift", "trap", "unset",
	// Regular builtins.
	"alias", "unalias", "bg", "fg", "jobs", "wait", "disown",
	"cd", "pwd", "pushd", "popd", "dirs",
	"command", "declare", "local", "typeset", "echo", "printf",
	"getopts", "hash", "help", "history", "read",
	"shopt", "test", "[", "times", "type", "ulimit", "umask",
	"complete", "compgen", "compopt", "bind",
}

var nameSet = func() map[string]bool {
	m := make(map[string]bool, len(Names))
	for _, n := range Names {
		m[n] = true
	}
	return m
}()

// IsBuiltin reports whether name is one of spec.md §4.9's builtins.
func IsBuiltin(name string) bool { return nameSet[name] }

// SpecialBuiltins lists the POSIX "special builtin" subset: a word
// expansion error or the builtin's own failure in one of these exits a
// non-interactive shell, and any preceding variable assignments persist
// past the command (spec.md §4.9).
var SpecialBuiltins = map[string]bool{
	":": true, ".": true, "break": true, "continue": true, "eval": true,
	"exec": true, "exit": true, "export": true, "readonly": true,
	"return": true, "set": true, "shift": true, "trap": true, "unset": true,
}

// Suggest ranks candidates (builtin names, function names, and PATH
// executables, as the caller assembles them) against an unresolvable
// command word and returns up to max closest matches, for the
// `command not found` hint spec.md §4.9 describes ("did you mean ...?").
func Suggest(word string, candidates []string, max int) []string {
	ranks := fuzzy.RankFindNormalizedFold(word, candidates)
	sort.Sort(ranks)
	if len(ranks) > max {
		ranks = ranks[:max]
	}
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}
