package interp

import (
	"github.com/coreshell/gosh/internal/arithmetic"
	"github.com/coreshell/gosh/internal/ast"
	"github.com/coreshell/gosh/internal/expand"
	"github.com/coreshell/gosh/internal/pattern"
	"github.com/coreshell/gosh/internal/shellerr"
	"github.com/coreshell/gosh/internal/variables"
)

// execCompoundCommand applies cmd's redirections around its body's
// execution and dispatches on the CompoundBody variant (spec.md §4.7
// "CompoundCommand variants").
func (it *Interp) execCompoundCommand(cmd *ast.CompoundCommand) error {
	ex := redirExpander{it.NewExpander(it.positionalFrame())}
	t, err := it.applyRedirections(cmd.Redirs, ex)
	defer t.close()
	if err != nil {
		return err
	}
	restore := it.applyToStreams(t)
	defer restore()

	switch b := cmd.Body.(type) {
	case *ast.Subshell:
		return it.execSubshell(b)
	case *ast.BraceGroup:
		return it.execCompoundList(b.Body)
	case *ast.ForClause:
		return it.execFor(b)
	case *ast.ArithForClause:
		return it.execArithFor(b)
	case *ast.WhileClause:
		return it.execLoop(b.Cond, b.Body, false)
	case *ast.UntilClause:
		return it.execLoop(b.Cond, b.Body, true)
	case *ast.IfClause:
		return it.execIf(b)
	case *ast.CaseClause:
		return it.execCase(b)
	case *ast.ArithmeticCommand:
		return it.execArithmeticCommand(b)
	default:
		return shellerr.Newf(shellerr.KindUnimplemented, "unsupported compound body %T", cmd.Body)
	}
}

// execCompoundList runs every AndOrList in order, honoring errexit
// (spec.md §4.7); it returns the first non-control error or a ControlError
// signal, leaving it.LastStatus set to the list's final status.
func (it *Interp) execCompoundList(list *ast.CompoundList) error {
	var err error
	for _, a := range list.Items {
		if err = it.execAndOrList(a, true); err != nil {
			return err
		}
	}
	return nil
}

// execCompoundListNoErrexit runs list the way an if/while/until condition
// clause does: a nonzero status is expected and must not trigger `set -e`
// (spec.md §4.7 "errexit is suppressed in condition context").
func (it *Interp) execCompoundListNoErrexit(list *ast.CompoundList) error {
	var err error
	for _, a := range list.Items {
		if err = it.execAndOrList(a, false); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interp) execSubshell(s *ast.Subshell) error {
	sub := it.subshellCopy()
	err := sub.execCompoundList(s.Body)
	it.LastStatus = sub.LastStatus
	if err != nil {
		if ce, ok := err.(*ControlError); ok && ce.Sig == SigExit {
			return &ControlError{Sig: SigExit, Code: ce.Code}
		}
		return err
	}
	return nil
}

func (it *Interp) execFor(f *ast.ForClause) error {
	ex := it.NewExpander(it.positionalFrame())
	var words []string
	if f.HasIn {
		for _, w := range f.Words {
			fields, err := ex.FullExpandAndSplit(w.Text)
			if err != nil {
				return err
			}
			words = append(words, fields...)
		}
	} else {
		words = it.positionalFrame()
	}

	it.loopDepth++
	defer func() { it.loopDepth-- }()
	for _, w := range words {
		it.Env.Set(f.Var, w, assignmentScope(it))
		err := it.execCompoundList(f.Body)
		if err == nil {
			continue
		}
		ce, ok := err.(*ControlError)
		if !ok {
			return err
		}
		switch ce.Sig {
		case SigBreak:
			if ce.Level > 1 {
				return &ControlError{Sig: SigBreak, Level: ce.Level - 1}
			}
			return nil
		case SigContinue:
			if ce.Level > 1 {
				return &ControlError{Sig: SigContinue, Level: ce.Level - 1}
			}
			continue
		default:
			return err
		}
	}
	it.LastStatus = 0
	return nil
}

func (it *Interp) execArithFor(f *ast.ArithForClause) error {
	vars := it.arithVarsFor()
	if f.Init != "" {
		if _, err := arithmetic.Eval(f.Init, vars); err != nil {
			return shellerr.Wrap(shellerr.KindSyntax, "arithmetic for-loop init", err)
		}
	}
	it.loopDepth++
	defer func() { it.loopDepth-- }()
	for {
		if f.Cond != "" {
			v, err := arithmetic.Eval(f.Cond, vars)
			if err != nil {
				return shellerr.Wrap(shellerr.KindSyntax, "arithmetic for-loop condition", err)
			}
			if v == 0 {
				break
			}
		}
		err := it.execCompoundList(f.Body)
		if err != nil {
			ce, ok := err.(*ControlError)
			if !ok {
				return err
			}
			switch ce.Sig {
			case SigBreak:
				if ce.Level > 1 {
					return &ControlError{Sig: SigBreak, Level: ce.Level - 1}
				}
				return nil
			case SigContinue:
				if ce.Level > 1 {
					return &ControlError{Sig: SigContinue, Level: ce.Level - 1}
				}
			default:
				return err
			}
		}
		if f.Post != "" {
			if _, err := arithmetic.Eval(f.Post, vars); err != nil {
				return shellerr.Wrap(shellerr.KindSyntax, "arithmetic for-loop post", err)
			}
		}
	}
	it.LastStatus = 0
	return nil
}

func (it *Interp) execLoop(cond, body *ast.CompoundList, until bool) error {
	it.loopDepth++
	defer func() { it.loopDepth-- }()
	for {
		if err := it.execCompoundListNoErrexit(cond); err != nil {
			return err
		}
		truth := it.LastStatus == 0
		if until {
			truth = !truth
		}
		if !truth {
			break
		}
		err := it.execCompoundList(body)
		if err == nil {
			continue
		}
		ce, ok := err.(*ControlError)
		if !ok {
			return err
		}
		switch ce.Sig {
		case SigBreak:
			if ce.Level > 1 {
				return &ControlError{Sig: SigBreak, Level: ce.Level - 1}
			}
			return nil
		case SigContinue:
			if ce.Level > 1 {
				return &ControlError{Sig: SigContinue, Level: ce.Level - 1}
			}
			continue
		default:
			return err
		}
	}
	it.LastStatus = 0
	return nil
}

func (it *Interp) execIf(b *ast.IfClause) error {
	if err := it.execCompoundListNoErrexit(b.Cond); err != nil {
		return err
	}
	if it.LastStatus == 0 {
		return it.execCompoundList(b.Then)
	}
	for _, elif := range b.Elifs {
		if err := it.execCompoundListNoErrexit(elif.Cond); err != nil {
			return err
		}
		if it.LastStatus == 0 {
			return it.execCompoundList(elif.Then)
		}
	}
	if b.Else != nil {
		return it.execCompoundList(b.Else)
	}
	it.LastStatus = 0
	return nil
}

func (it *Interp) execCase(c *ast.CaseClause) error {
	ex := it.NewExpander(it.positionalFrame())
	value, err := ex.BasicExpand(c.Value.Text)
	if err != nil {
		return err
	}
	it.LastStatus = 0
	for idx := 0; idx < len(c.Items); idx++ {
		item := c.Items[idx]
		if !it.caseItemMatches(item, value, ex) {
			continue
		}
		if item.Body != nil {
			if err := it.execCompoundList(item.Body); err != nil {
				return err
			}
		}
		switch item.PostAction {
		case ast.CaseExit:
			return nil
		case ast.CaseFallThrough:
			if idx+1 < len(c.Items) {
				idx++
				next := c.Items[idx]
				if next.Body != nil {
					if err := it.execCompoundList(next.Body); err != nil {
						return err
					}
				}
				if next.PostAction == ast.CaseExit {
					return nil
				}
			}
			return nil
		case ast.CaseContinueMatch:
			continue
		}
	}
	return nil
}

func (it *Interp) caseItemMatches(item *ast.CaseItem, value string, ex *expand.Expander) bool {
	for _, pw := range item.Patterns {
		patText, err := ex.BasicExpand(pw.Text)
		if err != nil {
			continue
		}
		pat, err := pattern.CompileString(patText, it.globOptions())
		if err != nil {
			continue
		}
		if pat.MatchString(value) {
			return true
		}
	}
	return false
}

func (it *Interp) execArithmeticCommand(a *ast.ArithmeticCommand) error {
	v, err := arithmetic.Eval(a.Expr, it.arithVarsFor())
	if err != nil {
		return shellerr.Wrap(shellerr.KindSyntax, "arithmetic command", err)
	}
	it.LastStatus = boolStatus(v != 0)
	return nil
}

// assignmentScope chooses the local scope when inside a function call,
// matching bash's `for`-loop and assignment-builtin variable scoping.
func assignmentScope(it *Interp) variables.ScopeKind {
	if it.Calls.InFunction() {
		return variables.ScopeCurrentLocal
	}
	return variables.ScopeGlobal
}
