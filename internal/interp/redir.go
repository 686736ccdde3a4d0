package interp

import (
	"io"
	"os"
	"strconv"

	"github.com/coreshell/gosh/internal/ast"
	"github.com/coreshell/gosh/internal/expand"
	"github.com/coreshell/gosh/internal/shellerr"
)

// redirExpander resolves a redirection target Word to a single string
// (spec.md §4.7: redirection targets are expanded but never field-split or
// pathname-expanded beyond the one resulting word).
type redirExpander struct {
	ex *expand.Expander
}

func (e redirExpander) one(w *ast.Word) (string, error) {
	if w == nil {
		return "", shellerr.New(shellerr.KindSyntax, "missing redirection target")
	}
	return e.ex.BasicExpand(w.Text)
}

// fdTable tracks the open files a command's redirections touch, indexed by
// file descriptor number, so they can be applied to an exec.Cmd or to the
// interpreter's own Stdin/Stdout/Stderr and closed afterward.
type fdTable struct {
	files map[int]*os.File
	owned map[int]bool // true if this fd's file should be Closed on cleanup
}

func newFDTable() *fdTable {
	return &fdTable{files: map[int]*os.File{}, owned: map[int]bool{}}
}

func (t *fdTable) close() {
	for fd, f := range t.files {
		if t.owned[fd] {
			f.Close()
		}
	}
}

// applyRedirections opens/dups every redirection's target and records the
// result against its file descriptor (spec.md §4.7 "Redirections").
// Word operands (filenames, fd-duplication targets) are expanded via ex.
func (it *Interp) applyRedirections(redirs []*ast.Redirection, ex redirExpander) (*fdTable, error) {
	t := newFDTable()
	for _, r := range redirs {
		fd := defaultFD(r.Kind)
		if r.FD != nil {
			fd = *r.FD
		}
		switch r.Kind {
		case ast.RedirLess:
			path, err := ex.one(r.Target)
			if err != nil {
				return t, err
			}
			f, err := os.Open(path)
			if err != nil {
				return t, shellerr.Wrap(shellerr.KindIOFailure, "cannot open "+path, err)
			}
			t.files[fd], t.owned[fd] = f, true

		case ast.RedirGreat:
			path, err := ex.one(r.Target)
			if err != nil {
				return t, err
			}
			flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			if it.Opt.NoClobber {
				flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
			}
			f, err := os.OpenFile(path, flags, 0o644)
			if err != nil {
				return t, shellerr.Wrap(shellerr.KindIOFailure, "cannot create "+path, err)
			}
			t.files[fd], t.owned[fd] = f, true

		case ast.RedirClobber:
			path, err := ex.one(r.Target)
			if err != nil {
				return t, err
			}
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				return t, shellerr.Wrap(shellerr.KindIOFailure, "cannot create "+path, err)
			}
			t.files[fd], t.owned[fd] = f, true

		case ast.RedirAppend:
			path, err := ex.one(r.Target)
			if err != nil {
				return t, err
			}
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err != nil {
				return t, shellerr.Wrap(shellerr.KindIOFailure, "cannot open "+path, err)
			}
			t.files[fd], t.owned[fd] = f, true

		case ast.RedirReadWrite:
			path, err := ex.one(r.Target)
			if err != nil {
				return t, err
			}
			f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
			if err != nil {
				return t, shellerr.Wrap(shellerr.KindIOFailure, "cannot open "+path, err)
			}
			t.files[fd], t.owned[fd] = f, true

		case ast.RedirOutputErr:
			path, err := ex.one(r.Target)
			if err != nil {
				return t, err
			}
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				return t, shellerr.Wrap(shellerr.KindIOFailure, "cannot create "+path, err)
			}
			t.files[1], t.owned[1] = f, true
			t.files[2] = f

		case ast.RedirDupIn, ast.RedirDupOut:
			target, err := ex.one(r.Target)
			if err != nil {
				return t, err
			}
			if target == "-" {
				t.files[fd] = nil // closed fd, handled by caller
				continue
			}
			n, err := strconv.Atoi(target)
			if err != nil {
				return t, shellerr.Newf(shellerr.KindBadFileDescriptor, "%s: ambiguous redirect", target)
			}
			f, err := t.resolve(n, it, r.Kind == ast.RedirDupIn)
			if err != nil {
				return t, err
			}
			t.files[fd] = f

		case ast.RedirHereDoc:
			body := r.HereDoc.Body
			if !r.HereDoc.Quoted {
				if expanded, err := ex.ex.BasicExpand(body); err == nil {
					body = expanded
				}
			}
			f, err := tempHereDoc(body)
			if err != nil {
				return t, err
			}
			t.files[fd], t.owned[fd] = f, true

		case ast.RedirHereString:
			body, err := ex.one(r.Target)
			if err != nil {
				return t, err
			}
			f, err := tempHereDoc(body + "\n")
			if err != nil {
				return t, err
			}
			t.files[fd], t.owned[fd] = f, true
		}
	}
	return t, nil
}

func (t *fdTable) resolve(fd int, it *Interp, forRead bool) (*os.File, error) {
	if f, ok := t.files[fd]; ok {
		return f, nil
	}
	switch fd {
	case 0:
		if f, ok := it.Stdin.(*os.File); ok {
			return f, nil
		}
	case 1:
		if f, ok := it.Stdout.(*os.File); ok {
			return f, nil
		}
	case 2:
		if f, ok := it.Stderr.(*os.File); ok {
			return f, nil
		}
	}
	return nil, shellerr.Newf(shellerr.KindBadFileDescriptor, "%d: bad file descriptor", fd)
}

func defaultFD(k ast.RedirKind) int {
	switch k {
	case ast.RedirLess, ast.RedirHereDoc, ast.RedirHereString, ast.RedirDupIn:
		return 0
	default:
		return 1
	}
}

// tempHereDoc materializes a here-document/here-string body as an
// unlinked temp file so it can be handed to a child process as a real fd
// (spec.md §4.7); reading an in-memory pipe would risk deadlock against a
// child writing a lot before reading any input.
func tempHereDoc(body string) (*os.File, error) {
	f, err := os.CreateTemp("", "gosh-heredoc-*")
	if err != nil {
		return nil, shellerr.Wrap(shellerr.KindIOFailure, "heredoc tempfile", err)
	}
	os.Remove(f.Name())
	if _, err := io.WriteString(f, body); err != nil {
		f.Close()
		return nil, shellerr.Wrap(shellerr.KindIOFailure, "heredoc write", err)
	}
	f.Seek(0, io.SeekStart)
	return f, nil
}

// applyToStreams installs t's fd 0/1/2 entries onto it's own Stdin/Stdout/
// Stderr for the duration of a builtin or lone-command execution (external
// commands instead get t wired directly onto their exec.Cmd).
func (it *Interp) applyToStreams(t *fdTable) (restore func()) {
	oldIn, oldOut, oldErr := it.Stdin, it.Stdout, it.Stderr
	if f, ok := t.files[0]; ok {
		it.Stdin = f
	}
	if f, ok := t.files[1]; ok {
		it.Stdout = f
	}
	if f, ok := t.files[2]; ok {
		it.Stderr = f
	}
	return func() { it.Stdin, it.Stdout, it.Stderr = oldIn, oldOut, oldErr }
}

