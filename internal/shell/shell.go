package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/coreshell/gosh/internal/callstack"
	"github.com/coreshell/gosh/internal/completion"
	"github.com/coreshell/gosh/internal/history"
	"github.com/coreshell/gosh/internal/interp"
	"github.com/coreshell/gosh/internal/parser"
	"github.com/coreshell/gosh/internal/shellopts"
	"github.com/coreshell/gosh/internal/variables"
)

// Options configures a Shell at construction (cmd/gosh's CLI flags map onto
// this almost one-to-one: "-c <string>", positional script path, --norc,
// --posix, --rcfile", spec.md §1 item 5/AMBIENT STACK "CLI entry point").
type Options struct {
	RCFile           string // empty means DefaultRCPath(); ignored if NoRC
	NoRC             bool
	Posix            bool
	CompletionConfig string // path to a JSON completion-config file, optional
	HistFile         string // overrides Profile.HistFile/$HISTFILE if set
	Watch            bool   // hot-reload RCFile/CompletionConfig on external edits

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Shell is the top-level facade spec.md §1 item 5 names: it owns one
// internal/interp.Interp, its command history, and the rc/completion config
// that seeded it, and knows how to run a string, a file, or an interactive
// session end to end.
type Shell struct {
	it      *interp.Interp
	opts    Options
	profile *Profile
	watcher *fileWatcher
}

// New builds a Shell: loads the rc profile (unless NoRC), applies it to a
// fresh interp.Interp, seeds the process environment, and installs the
// prompt formatter and history hooks.
func New(opts Options) (*Shell, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	it := interp.New()
	it.Stdin, it.Stdout, it.Stderr = opts.Stdin, opts.Stdout, opts.Stderr
	it.ParserOpt = parser.DefaultOptions()
	it.ParserOpt.PosixMode = opts.Posix

	s := &Shell{it: it, opts: opts, profile: &Profile{}}
	it.PromptHook = s.formatPromptString

	seedEnvironment(it)

	rcPath := opts.RCFile
	if rcPath == "" {
		rcPath = DefaultRCPath()
	}
	if !opts.NoRC {
		profile, err := LoadProfile(rcPath)
		if err != nil {
			return nil, err
		}
		s.profile = profile
		s.applyProfile(profile)
	}

	histFile := opts.HistFile
	if histFile == "" {
		histFile = s.profile.HistFile
	}
	if histFile == "" {
		histFile = DefaultHistFile()
	}
	it.Env.Set("HISTFILE", histFile, variables.ScopeGlobal)
	s.loadHistory(histFile)

	ccPath := opts.CompletionConfig
	if ccPath == "" {
		ccPath = s.profile.CompletionConfig
	}
	if ccPath != "" {
		if err := s.loadCompletionConfig(ccPath); err != nil {
			return nil, err
		}
	}

	it.SyncOptions()

	if opts.Watch && !opts.NoRC {
		s.watcher = s.watchConfig(rcPath, ccPath)
	}

	return s, nil
}

// Close releases resources the Shell holds open (the config file watcher,
// if one was started).
func (s *Shell) Close() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}

// Interp exposes the underlying interpreter for callers (e.g. a completion
// subcommand) that need direct access.
func (s *Shell) Interp() *interp.Interp { return s.it }

// seedEnvironment imports the process's own environment as exported shell
// variables and installs the shell-identification variables spec.md §6
// lists (OSTYPE, BASH_VERSINFO), so a script reading $PATH or $HOME behaves
// the way it would under a real shell's environment inheritance.
func seedEnvironment(it *interp.Interp) {
	for _, kv := range os.Environ() {
		name, val, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		_ = it.Env.UpdateOrAdd(name, val, false, variables.Anywhere, variables.ScopeGlobal, func(a *variables.Attributes) {
			a.Exported = true
		})
	}
	wd, _ := os.Getwd()
	if wd != "" {
		it.Env.Set("PWD", wd, variables.ScopeGlobal)
	}
	vers := shellopts.VersInfo()
	it.Env.Set("BASH_VERSINFO", strings.Join(vers[:], " "), variables.ScopeGlobal)
	it.Env.Set("OSTYPE", "linux-gnu", variables.ScopeGlobal)
	if _, ok := it.Env.Get("PS1", variables.Anywhere); !ok {
		it.Env.Set("PS1", `\u@\h:\w\$ `, variables.ScopeGlobal)
	}
	if _, ok := it.Env.Get("PS2", variables.Anywhere); !ok {
		it.Env.Set("PS2", "> ", variables.ScopeGlobal)
	}
	if _, ok := it.Env.Get("PS4", variables.Anywhere); !ok {
		it.Env.Set("PS4", "+ ", variables.ScopeGlobal)
	}
}

// applyProfile installs a loaded rc Profile's defaults onto s.it (spec.md
// §1 item 5 "config load"): set/shopt options, PATH prepend, aliases, and
// PS1 override.
func (s *Shell) applyProfile(p *Profile) {
	it := s.it
	for name, on := range p.SetOptions {
		it.ShOpts.SetByName(name, on)
	}
	for name, on := range p.ShoptOptions {
		it.ShOpts.ShoptSet(name, on)
	}
	if len(p.Path) > 0 {
		cur, _ := it.Env.Get("PATH", variables.Anywhere)
		existing := ""
		if cur != nil && cur.Value.Kind == variables.KindString {
			existing = cur.Value.Str
		}
		joined := strings.Join(p.Path, ":")
		if existing != "" {
			joined += ":" + existing
		}
		_ = it.Env.UpdateOrAdd("PATH", joined, false, variables.Anywhere, variables.ScopeGlobal, func(a *variables.Attributes) {
			a.Exported = true
		})
	}
	for name, body := range p.Aliases {
		it.Aliases[name] = body
	}
	for name, val := range p.Env {
		_ = it.Env.UpdateOrAdd(name, val, false, variables.Anywhere, variables.ScopeGlobal, func(a *variables.Attributes) {
			a.Exported = true
		})
	}
	if p.PS1 != "" {
		it.Env.Set("PS1", p.PS1, variables.ScopeGlobal)
	}
	ctrl := history.ParseControl(p.HistControl)
	it.History = history.New(ctrl, p.HistSize)
}

// loadHistory reads path into it.History if it exists; a missing file just
// starts with empty history (first run).
func (s *Shell) loadHistory(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	_ = s.it.History.Load(f)
}

// SaveHistory writes the in-memory history back to HISTFILE (`history -w`'s
// implicit counterpart, run on a clean interactive-session exit).
func (s *Shell) SaveHistory() error {
	path := s.histFilePath()
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("writing history file %s: %w", path, err)
	}
	defer f.Close()
	withTimestamps := false
	if v, ok := s.it.Env.Get("HISTTIMEFORMAT", variables.Anywhere); ok && v.Value.Kind == variables.KindString && v.Value.Str != "" {
		withTimestamps = true
	}
	return s.it.History.Save(f, withTimestamps)
}

func (s *Shell) histFilePath() string {
	if v, ok := s.it.Env.Get("HISTFILE", variables.Anywhere); ok && v.Value.Kind == variables.KindString {
		return v.Value.Str
	}
	return ""
}

func (s *Shell) loadCompletionConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading completion config %s: %w", path, err)
	}
	reg, err := completion.LoadConfig(data)
	if err != nil {
		return fmt.Errorf("loading completion config %s: %w", path, err)
	}
	s.it.Completions = reg
	return nil
}

// RunString executes script as a `-c <string>` invocation (spec.md §1 item
// 5 "run-string"), recording it in history and returning its exit status.
func (s *Shell) RunString(script string, args []string) (int, error) {
	s.it.Calls.PushCommandString()
	defer s.it.Calls.Pop()
	s.it.SetScriptArgs(args)
	s.recordHistory(script)

	prog, err := parser.Parse([]byte(script), s.it.ParserOpt)
	if err != nil {
		return 2, err
	}
	err = s.it.RunProgram(prog)
	return s.exitCodeFor(err)
}

// RunFile executes the script at path as the top-level program (spec.md §1
// item 5 "source file"), pushing a script call-stack frame.
func (s *Shell) RunFile(path string, args []string) (int, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return 1, fmt.Errorf("reading script %s: %w", path, err)
	}
	s.it.ScriptName = path
	s.it.Calls.PushScript(callstack.Run, path, args)
	defer s.it.Calls.Pop()
	s.it.SetScriptArgs(args)

	prog, err := parser.Parse(source, s.it.ParserOpt)
	if err != nil {
		return 2, err
	}
	err = s.it.RunProgram(prog)
	return s.exitCodeFor(err)
}

// RunInteractive reads and executes one line at a time from s.opts.Stdin,
// printing PS1 before each prompt and PS2 while a command continues across
// lines, until EOF (spec.md §1 item 5 "prompt"). The interactive line
// editor itself (history search, tab completion UI) is out of scope per
// spec.md §1; this loop only runs what a line editor would hand it.
func (s *Shell) RunInteractive() int {
	reader := bufio.NewReader(s.opts.Stdin)
	s.it.Calls.PushInteractiveSession()
	defer s.it.Calls.Pop()

	var pending strings.Builder
	for {
		prompt := s.promptFor(pending.Len() > 0)
		fmt.Fprint(s.opts.Stdout, prompt)

		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		pending.WriteString(line)

		prog, perr := parser.Parse([]byte(pending.String()), s.it.ParserOpt)
		if perr != nil {
			if isIncompleteInput(perr) {
				continue // need another line (PS2) to complete the construct
			}
			fmt.Fprintf(s.opts.Stderr, "gosh: %v\n", perr)
			s.it.LastStatus = 2
			pending.Reset()
			if err != nil {
				break
			}
			continue
		}

		text := pending.String()
		pending.Reset()
		s.recordHistory(strings.TrimRight(text, "\n"))
		if runErr := s.it.RunProgram(prog); runErr != nil {
			if ce, ok := runErr.(*interp.ControlError); ok && ce.Sig == interp.SigExit {
				break // `exit` ends the interactive session
			}
		}
		if err != nil {
			break
		}
	}
	_ = s.SaveHistory()
	return s.it.LastStatus
}

// isIncompleteInput reports whether a parse error represents an unterminated
// construct (unclosed quote, here-doc, compound command) rather than a real
// syntax error, so the interactive loop can keep reading lines for PS2
// instead of reporting failure immediately.
func isIncompleteInput(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unexpected EOF") || strings.Contains(msg, "unterminated") || strings.Contains(msg, "at end of input") || strings.Contains(msg, "unclosed")
}

func (s *Shell) promptFor(continuation bool) string {
	varName := "PS1"
	if continuation {
		varName = "PS2"
	}
	v, ok := s.it.Env.Get(varName, variables.Anywhere)
	if !ok || v.Value.Kind != variables.KindString {
		return ""
	}
	return s.formatPromptString(v.Value.Str)
}

// recordHistory appends cmd to the in-memory history, honoring HISTCONTROL
// and stamping it with the current time when HISTTIMEFORMAT requests
// timestamps (spec.md §6 "On-disk state").
func (s *Shell) recordHistory(cmd string) {
	if cmd == "" {
		return
	}
	var ts int64
	if _, ok := s.it.Env.Get("HISTTIMEFORMAT", variables.Anywhere); ok {
		ts = time.Now().Unix()
	}
	s.it.History.Add(cmd, ts)
}

// exitCodeFor turns RunProgram's return into (status, reportable error):
// a *interp.ControlError is the normal `exit`/`return`-at-top-level control
// transfer, already reflected in it.LastStatus, not a failure to surface.
func (s *Shell) exitCodeFor(err error) (int, error) {
	if err != nil {
		if _, ok := err.(*interp.ControlError); ok {
			return s.it.LastStatus, nil
		}
		return s.it.LastStatus, err
	}
	return s.it.LastStatus, nil
}
