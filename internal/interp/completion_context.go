package interp

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/coreshell/gosh/internal/builtins"
	"github.com/coreshell/gosh/internal/completion"
	"github.com/coreshell/gosh/internal/parser"
	"github.com/coreshell/gosh/internal/shellopts"
	"github.com/coreshell/gosh/internal/variables"
)

// Interp implements completion.ActionContext by reading its own builtin
// registry, alias table, function table, and variable environment, so
// internal/completion's fixed actions (spec.md §4.8) need no copy of that
// state.
func (it *Interp) Builtins() []string { return append([]string(nil), builtins.Names...) }

func (it *Interp) Aliases() []string {
	out := make([]string, 0, len(it.Aliases))
	for name := range it.Aliases {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (it *Interp) FunctionNames() []string {
	out := make([]string, 0, len(it.Functions))
	for name := range it.Functions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (it *Interp) VariableNames() []string { return it.Env.Names() }

func (it *Interp) ExportedVariableNames() []string {
	var out []string
	for _, name := range it.Env.Names() {
		if v, ok := it.Env.Get(name, variables.Anywhere); ok && v.Attrs.Exported {
			out = append(out, name)
		}
	}
	return out
}

func (it *Interp) Keywords() []string { return parser.ReservedWords() }

func (it *Interp) ShoptSetoptNames() []string {
	return append(shellopts.SetNames(), shellopts.ShoptNames()...)
}

func (it *Interp) Hostnames() []string {
	data, err := os.ReadFile("/etc/hosts")
	if err != nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 1 {
			out = append(out, fields[1:]...)
		}
	}
	return out
}

// RunFunction implements completion.Runner's "function-name" action
// (spec.md §4.8): set COMP_LINE/COMP_POINT/COMP_WORDS/COMP_CWORD, invoke
// the function, then read back COMPREPLY.
func (it *Interp) RunFunction(name, line string, point int, words []string, cword int) ([]string, int, error) {
	fn, ok := it.Functions[name]
	if !ok {
		return nil, 1, nil
	}
	sub := it.subshellCopy()
	sub.Env.Set("COMP_LINE", line, variables.ScopeGlobal)
	sub.Env.Set("COMP_POINT", strconv.Itoa(point), variables.ScopeGlobal)
	sub.Env.Set("COMP_CWORD", strconv.Itoa(cword), variables.ScopeGlobal)
	sub.Env.UpdateOrAdd("COMP_WORDS", "", false, variables.Anywhere, variables.ScopeGlobal, nil)
	if v, ok := sub.Env.Get("COMP_WORDS", variables.Anywhere); ok {
		v.Value = variables.NewIndexedArray()
		for i, w := range words {
			v.Value.Indexed[i] = w
		}
	}
	sub.Env.UpdateOrAdd("COMPREPLY", "", false, variables.Anywhere, variables.ScopeGlobal, nil)
	if v, ok := sub.Env.Get("COMPREPLY", variables.Anywhere); ok {
		v.Value = variables.NewIndexedArray()
	}

	cmdName, cur, prev := "", "", ""
	if len(words) > 0 {
		cmdName = words[0]
	}
	if cword >= 0 && cword < len(words) {
		cur = words[cword]
	}
	if cword-1 >= 0 && cword-1 < len(words) {
		prev = words[cword-1]
	}
	err := sub.callFunction(fn, []string{cmdName, cur, prev}, newFDTable())
	exit := sub.LastStatus
	if err != nil {
		return nil, exit, err
	}

	var reply []string
	if v, ok := sub.Env.Get("COMPREPLY", variables.Anywhere); ok && v.Value.Kind == variables.KindIndexedArray {
		for _, i := range v.Value.SortedIndices() {
			reply = append(reply, v.Value.Indexed[i])
		}
	}
	return reply, exit, nil
}

// RunCommand implements completion.Runner's "command" action (spec.md
// §4.8): run cmdline in a subshell, returning its stdout split into lines.
func (it *Interp) RunCommand(cmdline string) ([]string, error) {
	out, err := it.RunCaptured(cmdline)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, l := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

var _ completion.ActionContext = (*Interp)(nil)
var _ completion.Runner = (*Interp)(nil)
