package completion

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/coreshell/gosh/internal/pattern"
)

// maxFunctionRestarts caps the "completion function exited 124, regenerate
// and retry" loop (spec.md §4.8's "function-name" action).
const maxFunctionRestarts = 10

// evaluate runs spec's action(s) into one raw candidate list (spec.md §4.8
// step 4), before prefix filtering/decoration/sorting.
func evaluate(spec *Spec, prefix string, words []string, cword int, line string, point int, ctx ActionContext, runner Runner) ([]string, error) {
	var out []string

	for _, a := range spec.Actions {
		out = append(out, evalStaticAction(a, prefix, ctx)...)
	}

	if spec.GlobPattern != "" {
		out = append(out, evalGlobPattern(spec.GlobPattern)...)
	}

	if len(spec.WordList) > 0 {
		out = append(out, spec.WordList...)
	}

	if spec.FunctionName != "" && runner != nil {
		reply, err := evalFunctionAction(spec.FunctionName, line, point, words, cword, runner)
		if err != nil {
			return nil, err
		}
		out = append(out, reply...)
	}

	if spec.Command != "" && runner != nil {
		lines, err := runner.RunCommand(spec.Command)
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}

	return out, nil
}

// evalFunctionAction invokes a registered completion function, restarting
// up to maxFunctionRestarts times while it reports exit status 124 (bash's
// "I installed a new compspec, try again" convention), per spec.md §4.8.
func evalFunctionAction(name, line string, point int, words []string, cword int, runner Runner) ([]string, error) {
	var reply []string
	for attempt := 0; attempt < maxFunctionRestarts; attempt++ {
		r, exit, err := runner.RunFunction(name, line, point, words, cword)
		if err != nil {
			return nil, err
		}
		reply = r
		if exit != 124 {
			break
		}
	}
	return reply, nil
}

func evalGlobPattern(glob string) []string {
	matches, err := filepath.Glob(glob)
	if err != nil {
		return nil
	}
	return matches
}

// evalStaticAction evaluates one of spec.md §4.8's fixed action tags
// (aliases/builtins/commands/directories/exported-variables/files/
// functions/hostnames/keywords/shopt-setopt-names/variables) against the
// candidate sources ctx supplies (or, for "file"/"directory", the
// filesystem rooted at prefix's directory component).
func evalStaticAction(a Action, prefix string, ctx ActionContext) []string {
	switch a {
	case ActionAlias:
		return ctx.Aliases()
	case ActionBuiltin:
		return ctx.Builtins()
	case ActionCommand:
		return commandsOnPath()
	case ActionFunction:
		return ctx.FunctionNames()
	case ActionVariable:
		return ctx.VariableNames()
	case ActionExportedVariable:
		return ctx.ExportedVariableNames()
	case ActionKeyword:
		return ctx.Keywords()
	case ActionShoptSetoptName:
		return ctx.ShoptSetoptNames()
	case ActionHostname:
		return ctx.Hostnames()
	case ActionDirectory:
		return listPath(prefix, true)
	case ActionFile:
		return listPath(prefix, false)
	default:
		return nil
	}
}

// commandsOnPath lists every executable name findable on $PATH, for the
// "command" action.
func commandsOnPath() []string {
	var out []string
	for _, dir := range strings.Split(os.Getenv("PATH"), string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				out = append(out, e.Name())
			}
		}
	}
	return out
}

// listPath lists filesystem entries under prefix's directory component,
// restricted to directories when dirsOnly is set (the "directory" action
// vs. the "file" action).
func listPath(prefix string, dirsOnly bool) []string {
	dir := filepath.Dir(prefix)
	if prefix == "" || !strings.Contains(prefix, "/") {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if dirsOnly && !e.IsDir() {
			continue
		}
		name := e.Name()
		if dir != "." {
			name = filepath.Join(dir, name)
		}
		if e.IsDir() {
			name += "/"
		}
		out = append(out, name)
	}
	return out
}

// MatchesAny reports whether s matches any of the given glob-pattern
// strings; a pattern that fails to compile is skipped.
func MatchesAny(s string, globs []string) bool {
	for _, g := range globs {
		p, err := pattern.CompileString(g, pattern.Options{})
		if err != nil {
			continue
		}
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
