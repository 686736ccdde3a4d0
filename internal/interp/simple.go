package interp

import (
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/coreshell/gosh/internal/ast"
	"github.com/coreshell/gosh/internal/builtins"
	"github.com/coreshell/gosh/internal/jobctl"
	"github.com/coreshell/gosh/internal/shellerr"
)

// execSimpleCommand expands a SimpleCommand's words, applies its prefix
// assignments and all its redirections, then dispatches to a function, a
// builtin, or an external program (spec.md §4.7 "SimpleCommand").
func (it *Interp) execSimpleCommand(cmd *ast.SimpleCommand) error {
	ex := it.NewExpander(it.positionalFrame())

	var prefixAssigns []*ast.Assignment
	var redirs []*ast.Redirection
	for _, item := range cmd.Prefix {
		switch n := item.(type) {
		case *ast.Assignment:
			prefixAssigns = append(prefixAssigns, n)
		case *ast.Redirection:
			redirs = append(redirs, n)
		}
	}

	if cmd.Name == nil {
		scope := assignmentScope(it)
		for _, a := range prefixAssigns {
			if _, err := it.applyAssignment(a, ex, scope, false); err != nil {
				return err
			}
		}
		t, err := it.applyRedirections(redirs, redirExpander{ex})
		defer t.close()
		if err != nil {
			return err
		}
		it.LastStatus = 0
		return nil
	}

	// Prefix assignments (FOO=bar cmd args...) must take effect before cmd's
	// own words are expanded, so `FOO=bar echo $FOO` sees the new value
	// (spec.md §4.6/§4.7: "variable assignments ... performed before word
	// expansion of the remaining command words").
	var suffixWords []*ast.Word
	for _, item := range cmd.Suffix {
		switch n := item.(type) {
		case *ast.Word:
			suffixWords = append(suffixWords, n)
		case *ast.Redirection:
			redirs = append(redirs, n)
		case *ast.Assignment:
			prefixAssigns = append(prefixAssigns, n)
		}
	}

	name, err := ex.BasicExpand(cmd.Name.Text)
	if err != nil {
		return err
	}

	special := builtins.SpecialBuiltins[name]
	transient := !special
	var saved []*savedVar
	for _, a := range prefixAssigns {
		s, err := it.applyAssignment(a, ex, assignmentScope(it), transient)
		if err != nil {
			if special {
				return err
			}
			for _, prior := range saved {
				it.restoreAssignment(prior)
			}
			return err
		}
		saved = append(saved, s)
	}
	if transient {
		defer func() {
			for _, s := range saved {
				it.restoreAssignment(s)
			}
		}()
	}

	var words []string
	for _, w := range suffixWords {
		fields, err := ex.FullExpandAndSplit(w.Text)
		if err != nil {
			return err
		}
		words = append(words, fields...)
	}

	t, err := it.applyRedirections(redirs, redirExpander{ex})
	defer t.close()
	if err != nil {
		return err
	}

	if fn, ok := it.Functions[name]; ok {
		return it.callFunction(fn, words, t)
	}
	if builtins.IsBuiltin(name) {
		return it.runBuiltin(name, words, t)
	}
	return it.runExternal(name, words, t)
}

// callFunction invokes a declared function: a fresh local-variable scope,
// a new positional-argument frame, and a call-stack entry so FUNCNAME/
// BASH_SOURCE/LINENO and `return` all behave (spec.md §4.7 "Function
// invocation").
func (it *Interp) callFunction(fn *ast.FunctionDefinition, args []string, t *fdTable) error {
	restore := it.applyToStreams(t)
	defer restore()

	it.Calls.PushFunction(fn.Name, fn.SourceText, nil, args)
	it.Env.PushLocals()
	defer func() {
		it.Env.PopLocals()
		it.Calls.Pop()
	}()

	err := it.execCompoundCommand(fn.Body)
	if err == nil {
		return nil
	}
	if ce, ok := err.(*ControlError); ok && ce.Sig == SigReturn {
		it.LastStatus = ce.Code
		return nil
	}
	return err
}

// runExternal launches name as a child process (spec.md §4.7 "external
// command"), grounded on the teacher's core/decorator/local_session.go
// process-launch pattern: Setpgid via internal/jobctl, piped I/O wiring
// when the interpreter's own streams aren't real files, and job-table
// registration for `jobs`/`wait`.
func (it *Interp) runExternal(name string, args []string, t *fdTable) error {
	path, err := exec.LookPath(name)
	if err != nil {
		candidates := append([]string{}, builtins.Names...)
		for fname := range it.Functions {
			candidates = append(candidates, fname)
		}
		suggestions := builtins.Suggest(name, candidates, 3)
		it.LastStatus = 127
		msg := name + ": command not found"
		if len(suggestions) > 0 {
			msg += " (did you mean: " + joinComma(suggestions) + "?)"
		}
		it.traceErr(shellerr.New(shellerr.KindCommandNotFound, msg))
		return nil
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = it.Dir
	cmd.Env = append(os.Environ(), it.Env.ExportedPairs()...)

	wireup, err := it.wireStdio(cmd, t)
	if err != nil {
		it.traceErr(shellerr.Wrap(shellerr.KindIOFailure, "command I/O setup", err))
		it.LastStatus = 1
		return nil
	}

	jobctl.ConfigureGroup(cmd, 0)
	if err := cmd.Start(); err != nil {
		wireup.closeWriteEnds()
		it.traceErr(shellerr.Wrap(shellerr.KindNotExecutable, name, err))
		it.LastStatus = 126
		return nil
	}

	job := &jobctl.Job{Command: name, Processes: []*jobctl.Process{{Cmd: cmd, Pid: cmd.Process.Pid}}}
	it.Jobs.Add(job)

	waitErr := cmd.Wait()
	wireup.closeWriteEnds()
	wireup.wg.Wait()
	status := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			status = exitErr.ExitCode()
		} else {
			status = 1
		}
	}
	job.State = jobctl.Done
	if p := job.LastProcess(); p != nil {
		p.ExitCode = status
		p.Done = true
	}
	it.LastStatus = status
	return nil
}

// stdioWiring tracks the pipe ends runExternal must close (and copy
// goroutines it must wait on) once the child process has exited.
type stdioWiring struct {
	writeEnds []*os.File
	wg        sync.WaitGroup
}

func (w *stdioWiring) closeWriteEnds() {
	for _, f := range w.writeEnds {
		f.Close()
	}
}

// wireStdio resolves a child process's three standard streams from the
// redirection table t, falling back to the interpreter's own Stdin/Stdout/
// Stderr — using the *os.File directly when possible, or bridging through
// an os.Pipe with a copying goroutine when the interpreter's stream isn't
// backed by a real file descriptor (e.g. a command-substitution buffer),
// grounded on the teacher's local_session.go buffer-wiring fallback.
func (it *Interp) wireStdio(cmd *exec.Cmd, t *fdTable) (*stdioWiring, error) {
	w := &stdioWiring{}

	if f, ok := t.files[0]; ok {
		cmd.Stdin = f
	} else if f, ok := it.Stdin.(*os.File); ok {
		cmd.Stdin = f
	} else {
		r, pw, err := os.Pipe()
		if err != nil {
			return w, err
		}
		cmd.Stdin = r
		w.writeEnds = append(w.writeEnds, pw)
		go func() { io.Copy(pw, it.Stdin); pw.Close() }()
	}

	if f, ok := t.files[1]; ok {
		cmd.Stdout = f
	} else if f, ok := it.Stdout.(*os.File); ok {
		cmd.Stdout = f
	} else {
		pr, pw, err := os.Pipe()
		if err != nil {
			return w, err
		}
		cmd.Stdout = pw
		w.writeEnds = append(w.writeEnds, pw)
		w.wg.Add(1)
		go func() { defer w.wg.Done(); io.Copy(it.Stdout, pr); pr.Close() }()
	}

	if f, ok := t.files[2]; ok {
		cmd.Stderr = f
	} else if f, ok := it.Stderr.(*os.File); ok {
		cmd.Stderr = f
	} else {
		pr, pw, err := os.Pipe()
		if err != nil {
			return w, err
		}
		cmd.Stderr = pw
		w.writeEnds = append(w.writeEnds, pw)
		w.wg.Add(1)
		go func() { defer w.wg.Done(); io.Copy(it.Stderr, pr); pr.Close() }()
	}

	return w, nil
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
