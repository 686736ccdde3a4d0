package interp

import (
	"github.com/coreshell/gosh/internal/ast"
	"github.com/coreshell/gosh/internal/expand"
	"github.com/coreshell/gosh/internal/variables"
)

// savedVar remembers a variable's prior state so a transient (non-special-
// builtin, non-bare) assignment can be undone once the command it prefixed
// has finished (spec.md §4.6 "assignments preceding a command word are
// visible only to that command").
type savedVar struct {
	name    string
	existed bool
	prev    variables.Variable
}

// applyAssignment performs one SimpleCommand prefix/bare assignment
// (spec.md §4.6), returning the prior state for restoration. When
// exportTransient is set the variable is marked Exported for the duration
// of the command, matching a plain `FOO=bar cmd` invocation's effect on
// cmd's environment without polluting the parent shell's export table.
func (it *Interp) applyAssignment(a *ast.Assignment, ex *expand.Expander, scope variables.ScopeKind, exportTransient bool) (*savedVar, error) {
	prevVar, existed := it.Env.Get(a.Name, variables.Anywhere)
	saved := &savedVar{name: a.Name, existed: existed}
	if existed {
		saved.prev = *prevVar
	}

	// set -a (allexport): auto-export applies uniformly to every newly
	// created variable, scalar or array, at the point of creation (SPEC_FULL
	// Open Question decision), not just on explicit declare -x/export.
	autoExport := it.Opt.AllExport && !existed

	ensure := func() (*variables.Variable, error) {
		if v, ok := it.Env.Get(a.Name, variables.Anywhere); ok {
			return v, nil
		}
		if err := it.Env.UpdateOrAdd(a.Name, "", false, variables.Anywhere, scope, nil); err != nil {
			return nil, err
		}
		v, _ := it.Env.Get(a.Name, variables.Anywhere)
		return v, nil
	}

	switch {
	case a.ArrayValues != nil:
		v, err := ensure()
		if err != nil {
			return saved, err
		}
		if !a.Append || v.Value.Kind != variables.KindIndexedArray {
			v.Value = variables.NewIndexedArray()
		}
		idx := 0
		if a.Append {
			idx = v.Value.MaxIndex() + 1
		}
		for _, w := range a.ArrayValues {
			fields, err := ex.FullExpandAndSplit(w.Text)
			if err != nil {
				return saved, err
			}
			for _, f := range fields {
				v.Value.Indexed[idx] = f
				idx++
			}
		}
		if exportTransient || autoExport {
			v.Attrs.Exported = true
		}
		return saved, nil

	case a.Index != nil:
		idxField, err := ex.BasicExpand(a.Index.Text)
		if err != nil {
			return saved, err
		}
		val := ""
		if a.Value != nil {
			if val, err = ex.BasicExpand(a.Value.Text); err != nil {
				return saved, err
			}
		}
		v, err := ensure()
		if err != nil {
			return saved, err
		}
		if err := it.Env.AssignAtIndex(v, idxField, val, a.Append); err != nil {
			return saved, err
		}
		if exportTransient || autoExport {
			v.Attrs.Exported = true
		}
		return saved, nil

	default:
		val := ""
		if a.Value != nil {
			var err error
			if val, err = ex.BasicExpand(a.Value.Text); err != nil {
				return saved, err
			}
		}
		err := it.Env.UpdateOrAdd(a.Name, val, a.Append, variables.Anywhere, scope, func(attrs *variables.Attributes) {
			if exportTransient || autoExport {
				attrs.Exported = true
			}
		})
		return saved, err
	}
}

// restoreAssignment undoes applyAssignment's effect after a transient
// command-prefix assignment's command has finished.
func (it *Interp) restoreAssignment(s *savedVar) {
	if s == nil {
		return
	}
	if s.existed {
		if v, ok := it.Env.Get(s.name, variables.Anywhere); ok {
			*v = s.prev
		}
		return
	}
	it.Env.Unset(s.name)
}
