package interp

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/coreshell/gosh/internal/ast"
	"github.com/coreshell/gosh/internal/pattern"
	"github.com/coreshell/gosh/internal/shellerr"
	"github.com/coreshell/gosh/internal/variables"
)

// evalExtendedTest evaluates a `[[ ]]` expression (spec.md §4.7
// "ExtendedTestCommand"): word operands are expanded but never field-split
// or pathname-expanded (POSIX "no word splitting or pathname expansion"),
// == and != match the right operand as a glob pattern, and =~ matches it as
// an extended regular expression, binding the match groups into BASH_REMATCH.
func (it *Interp) evalExtendedTest(expr ast.ExtendedTestExpr) (bool, error) {
	ex := it.NewExpander(it.positionalFrame())
	switch e := expr.(type) {
	case *ast.ExtTestWord:
		s, err := ex.BasicExpand(e.Operand.Text)
		if err != nil {
			return false, err
		}
		return s != "", nil

	case *ast.ExtTestNot:
		v, err := it.evalExtendedTest(e.Operand)
		if err != nil {
			return false, err
		}
		return !v, nil

	case *ast.ExtTestAnd:
		l, err := it.evalExtendedTest(e.Left)
		if err != nil {
			return false, err
		}
		if !l {
			return false, nil
		}
		return it.evalExtendedTest(e.Right)

	case *ast.ExtTestOr:
		l, err := it.evalExtendedTest(e.Left)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return it.evalExtendedTest(e.Right)

	case *ast.ExtTestGroup:
		return it.evalExtendedTest(e.Inner)

	case *ast.ExtTestUnary:
		operand, err := ex.BasicExpand(e.Operand.Text)
		if err != nil {
			return false, err
		}
		return it.evalUnaryTest(e.Op, operand)

	case *ast.ExtTestBinary:
		left, err := ex.BasicExpand(e.Left.Text)
		if err != nil {
			return false, err
		}
		right, err := ex.BasicExpand(e.Right.Text)
		if err != nil {
			return false, err
		}
		return it.evalBinaryTest(e.Op, left, right)

	default:
		return false, shellerr.Newf(shellerr.KindUnimplemented, "unsupported [[ ]] node %T", expr)
	}
}

func (it *Interp) globOptions() pattern.Options {
	return pattern.Options{ExtendedGlob: it.Opt.ExtendedGlob}
}

func (it *Interp) evalUnaryTest(op, operand string) (bool, error) {
	switch op {
	case "-z":
		return operand == "", nil
	case "-n":
		return operand != "", nil
	case "-v":
		_, ok := it.Env.Get(operand, 0)
		return ok, nil
	case "-o":
		return strings.Contains(it.optionLetters(), operand), nil
	}
	info, err := os.Stat(operand)
	switch op {
	case "-e", "-a":
		return err == nil, nil
	case "-f":
		return err == nil && info.Mode().IsRegular(), nil
	case "-d":
		return err == nil && info.IsDir(), nil
	case "-s":
		return err == nil && info.Size() > 0, nil
	case "-r", "-w", "-x":
		return err == nil, nil
	case "-L", "-h":
		fi, lerr := os.Lstat(operand)
		return lerr == nil && fi.Mode()&os.ModeSymlink != 0, nil
	case "-p":
		return err == nil && info.Mode()&os.ModeNamedPipe != 0, nil
	case "-S":
		return err == nil && info.Mode()&os.ModeSocket != 0, nil
	}
	return false, shellerr.Newf(shellerr.KindSyntax, "unsupported unary test operator %q", op)
}

func (it *Interp) evalBinaryTest(op, left, right string) (bool, error) {
	switch op {
	case "==", "=":
		pat, err := pattern.CompileString(right, it.globOptions())
		if err != nil {
			return false, shellerr.Wrap(shellerr.KindSyntax, "bad pattern in [[ ]]", err)
		}
		return pat.MatchString(left), nil
	case "!=":
		pat, err := pattern.CompileString(right, it.globOptions())
		if err != nil {
			return false, shellerr.Wrap(shellerr.KindSyntax, "bad pattern in [[ ]]", err)
		}
		return !pat.MatchString(left), nil
	case "=~":
		re, err := regexp.Compile(right)
		if err != nil {
			return false, shellerr.Wrap(shellerr.KindSyntax, "bad regex in [[ ]]", err)
		}
		m := re.FindStringSubmatch(left)
		if m == nil {
			return false, nil
		}
		it.setRematch(m)
		return true, nil
	case "<":
		return left < right, nil
	case ">":
		return left > right, nil
	case "-eq", "-ne", "-lt", "-le", "-gt", "-ge":
		return it.numericCompare(op, left, right)
	}
	return false, shellerr.Newf(shellerr.KindSyntax, "unsupported binary test operator %q", op)
}

func (it *Interp) numericCompare(op, left, right string) (bool, error) {
	l, err := strconv.ParseInt(strings.TrimSpace(left), 10, 64)
	if err != nil {
		return false, shellerr.Newf(shellerr.KindSyntax, "%s: arithmetic operand expected", left)
	}
	r, err := strconv.ParseInt(strings.TrimSpace(right), 10, 64)
	if err != nil {
		return false, shellerr.Newf(shellerr.KindSyntax, "%s: arithmetic operand expected", right)
	}
	switch op {
	case "-eq":
		return l == r, nil
	case "-ne":
		return l != r, nil
	case "-lt":
		return l < r, nil
	case "-le":
		return l <= r, nil
	case "-gt":
		return l > r, nil
	case "-ge":
		return l >= r, nil
	}
	return false, nil
}

// setRematch installs =~'s capture groups into BASH_REMATCH, the indexed
// array bash's extended-test regex operator populates on a match.
func (it *Interp) setRematch(groups []string) {
	it.Env.Unset("BASH_REMATCH")
	it.Env.UpdateOrAdd("BASH_REMATCH", "", false, variables.Anywhere, variables.ScopeGlobal, nil)
	v, _ := it.Env.Get("BASH_REMATCH", variables.Anywhere)
	v.Value = variables.NewIndexedArray()
	for i, g := range groups {
		v.Value.Indexed[i] = g
	}
}
