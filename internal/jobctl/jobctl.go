// Package jobctl implements the shell's job-control layer: pipeline
// process groups, background job bookkeeping, and the foreground/
// background transitions driven by bg/fg/jobs/wait (spec.md §5
// "Concurrency & resource model").
package jobctl

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/coreshell/gosh/internal/invariant"
)

// State is a Job's run state.
type State int

const (
	Running State = iota
	Stopped
	Done
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Process is one member of a pipeline's process group.
type Process struct {
	Cmd      *exec.Cmd
	Pid      int
	ExitCode int
	Done     bool
}

// Job is one pipeline launched as a unit: every Process shares the same
// process-group id (Pgid), and signals meant "for the job" (SIGINT from an
// interactive ^C, SIGTSTP from ^Z) are delivered to the group leader only,
// per spec.md §5 ("Inside pipelines, only the leader is sent the signal").
type Job struct {
	ID         int
	Pgid       int
	Command    string // the job's source text, for `jobs` output
	Processes  []*Process
	State      State
	Background bool
	Notified   bool // true once its state-change line has been printed to the user
}

// LastProcess returns the pipeline's final stage, whose exit status is the
// job's reported exit status absent `pipefail`.
func (j *Job) LastProcess() *Process {
	if len(j.Processes) == 0 {
		return nil
	}
	return j.Processes[len(j.Processes)-1]
}

// ExitCode reports the exit status of the job's last process, or 0 for a
// job with no processes. It does not apply pipefail.
func (j *Job) ExitCode() int {
	if p := j.LastProcess(); p != nil {
		return p.ExitCode
	}
	return 0
}

// AllDone reports whether every process in the job has exited.
func (j *Job) AllDone() bool {
	for _, p := range j.Processes {
		if !p.Done {
			return false
		}
	}
	return true
}

// Table tracks every job the shell currently knows about, assigning job
// IDs the way bash does: smallest unused positive integer, with the most
// recently backgrounded/stopped job addressable as "current" (`%%`/`%+`)
// and the one before it as "previous" (`%-`).
type Table struct {
	mu      sync.Mutex
	jobs    map[int]*Job
	nextID  int
	current int
	prev    int
}

// NewTable returns an empty job table.
func NewTable() *Table {
	return &Table{jobs: make(map[int]*Job), nextID: 1}
}

// Add registers a new job and assigns it the smallest unused job ID.
func (t *Table) Add(j *Job) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := 1
	for {
		if _, ok := t.jobs[id]; !ok {
			break
		}
		id++
	}
	j.ID = id
	t.jobs[id] = j
	t.prev = t.current
	t.current = id
	return id
}

// Get looks up a job by ID.
func (t *Table) Get(id int) (*Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	return j, ok
}

// Current returns the "current job" (`%%`/`%+`), or nil if there is none.
func (t *Table) Current() *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.jobs[t.current]
}

// Previous returns the "previous job" (`%-`), or nil if there is none.
func (t *Table) Previous() *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.jobs[t.prev]
}

// Remove drops a completed job from the table, e.g. after `wait` or
// `jobs` has reported it.
func (t *Table) Remove(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
	if t.current == id {
		t.current = t.prev
		t.prev = 0
	} else if t.prev == id {
		t.prev = 0
	}
}

// All returns every tracked job ordered by ID, for the `jobs` builtin.
func (t *Table) All() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Job, 0, len(t.jobs))
	ids := make([]int, 0, len(t.jobs))
	for id := range t.jobs {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for k := i + 1; k < len(ids); k++ {
			if ids[k] < ids[i] {
				ids[i], ids[k] = ids[k], ids[i]
			}
		}
	}
	for _, id := range ids {
		out = append(out, t.jobs[id])
	}
	return out
}

// Spec.md §5 - "Background commands run without any ordering guarantee
// with respect to subsequent foreground commands other than being started
// before them" and "only the leader is sent the signal by default" — both
// require every process launched for one pipeline to share a process
// group, configured here and signaled via the platform-specific helpers
// in jobctl_unix.go / jobctl_windows.go.

// ConfigureGroup prepares cmd to join pgid's process group (or, when pgid
// is 0, to become the leader of a new group). Must be called before
// cmd.Start.
func ConfigureGroup(cmd *exec.Cmd, pgid int) {
	configureGroup(cmd, pgid)
}

// SetForeground gives the terminal to the job's process group, remembering
// the shell's own group so it can be restored afterward.
func SetForeground(pgid int) (restore func(), err error) {
	return setForeground(pgid)
}

// SignalGroup sends sig to every process in the group led by pgid (the
// pipeline leader), per spec.md §5.
func SignalGroup(pgid int, sig os.Signal) error {
	return signalGroup(pgid, sig)
}

// StopGroup sends SIGTSTP (or the platform equivalent) to a job's process
// group, used by the `bg`/Ctrl-Z flow.
func StopGroup(pgid int) error {
	return stopGroup(pgid)
}

// ContinueGroup sends SIGCONT to a job's process group, used by `bg`/`fg`
// to resume a stopped job.
func ContinueGroup(pgid int) error {
	return continueGroup(pgid)
}

// NotifyLine formats the one-line state-change report bash prints for a
// background job completion or stop, e.g. "[1]+  Done     sleep 5".
func NotifyLine(j *Job, marker byte) string {
	invariant.Precondition(j != nil, "job cannot be nil")
	return fmt.Sprintf("[%d]%c  %-8s %s", j.ID, marker, j.State, j.Command)
}
