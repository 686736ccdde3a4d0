package parser

import (
	"testing"

	"github.com/coreshell/gosh/internal/ast"
	"github.com/stretchr/testify/require"
)

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse([]byte(src), DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, prog)
	return prog
}

func TestParseSimpleCommand(t *testing.T) {
	prog := parseOK(t, "echo hello world\n")
	require.Len(t, prog.Commands, 1)
	cmd := prog.Commands[0].First.Commands[0].(*ast.SimpleCommand)
	require.Equal(t, "echo", cmd.Name.Text)
	require.Len(t, cmd.Suffix, 2)
}

func TestParsePipeline(t *testing.T) {
	prog := parseOK(t, "a | b | c\n")
	pipe := prog.Commands[0].First
	require.Len(t, pipe.Commands, 3)
}

func TestParseAndOrList(t *testing.T) {
	prog := parseOK(t, "a && b || c\n")
	list := prog.Commands[0]
	require.Len(t, list.Rest, 2)
	require.Equal(t, ast.AndThen, list.Rest[0].Kind)
	require.Equal(t, ast.OrElse, list.Rest[1].Kind)
}

func TestParseBackgroundMarker(t *testing.T) {
	prog := parseOK(t, "sleep 1 &\n")
	require.True(t, prog.Commands[0].Background)
}

func TestParseAssignmentPrefix(t *testing.T) {
	prog := parseOK(t, "FOO=bar echo hi\n")
	cmd := prog.Commands[0].First.Commands[0].(*ast.SimpleCommand)
	require.Len(t, cmd.Prefix, 1)
	assign := cmd.Prefix[0].(*ast.Assignment)
	require.Equal(t, "FOO", assign.Name)
	require.Equal(t, "bar", assign.Value.Text)
	require.Equal(t, "echo", cmd.Name.Text)
}

func TestParseArrayLiteralAssignment(t *testing.T) {
	prog := parseOK(t, "arr=(a b c)\n")
	cmd := prog.Commands[0].First.Commands[0].(*ast.SimpleCommand)
	assign := cmd.Prefix[0].(*ast.Assignment)
	require.Len(t, assign.ArrayValues, 3)
	require.Equal(t, "b", assign.ArrayValues[1].Text)
}

func TestParseIfClause(t *testing.T) {
	prog := parseOK(t, "if true; then echo yes; else echo no; fi\n")
	cc := prog.Commands[0].First.Commands[0].(*ast.CompoundCommand)
	ifc := cc.Body.(*ast.IfClause)
	require.NotNil(t, ifc.Then)
	require.NotNil(t, ifc.Else)
}

func TestParseIfElifElse(t *testing.T) {
	prog := parseOK(t, "if a; then b; elif c; then d; else e; fi\n")
	cc := prog.Commands[0].First.Commands[0].(*ast.CompoundCommand)
	ifc := cc.Body.(*ast.IfClause)
	require.Len(t, ifc.Elifs, 1)
	require.NotNil(t, ifc.Else)
}

func TestParseWhileLoop(t *testing.T) {
	prog := parseOK(t, "while true; do echo hi; done\n")
	cc := prog.Commands[0].First.Commands[0].(*ast.CompoundCommand)
	_, ok := cc.Body.(*ast.WhileClause)
	require.True(t, ok)
}

func TestParseForClauseWithIn(t *testing.T) {
	prog := parseOK(t, "for x in a b c; do echo $x; done\n")
	cc := prog.Commands[0].First.Commands[0].(*ast.CompoundCommand)
	fc := cc.Body.(*ast.ForClause)
	require.Equal(t, "x", fc.Var)
	require.True(t, fc.HasIn)
	require.Len(t, fc.Words, 3)
}

func TestParseArithForClause(t *testing.T) {
	prog := parseOK(t, "for ((i=0; i<10; i++)); do echo $i; done\n")
	cc := prog.Commands[0].First.Commands[0].(*ast.CompoundCommand)
	fc := cc.Body.(*ast.ArithForClause)
	require.Equal(t, "i=0", fc.Init)
	require.Equal(t, "i<10", fc.Cond)
	require.Equal(t, "i++", fc.Post)
}

func TestParseCaseClause(t *testing.T) {
	prog := parseOK(t, "case $x in foo) echo a ;; bar|baz) echo b ;; *) echo c ;; esac\n")
	cc := prog.Commands[0].First.Commands[0].(*ast.CompoundCommand)
	caseClause := cc.Body.(*ast.CaseClause)
	require.Len(t, caseClause.Items, 3)
	require.Len(t, caseClause.Items[1].Patterns, 2)
}

func TestParseCaseFallThrough(t *testing.T) {
	prog := parseOK(t, "case $x in a) echo a ;& b) echo b ;; esac\n")
	cc := prog.Commands[0].First.Commands[0].(*ast.CompoundCommand)
	caseClause := cc.Body.(*ast.CaseClause)
	require.Equal(t, ast.CaseFallThrough, caseClause.Items[0].PostAction)
}

func TestParseSubshell(t *testing.T) {
	prog := parseOK(t, "(echo hi)\n")
	cc := prog.Commands[0].First.Commands[0].(*ast.CompoundCommand)
	_, ok := cc.Body.(*ast.Subshell)
	require.True(t, ok)
}

func TestParseArithmeticCommand(t *testing.T) {
	prog := parseOK(t, "((x = 1 + 2))\n")
	cc := prog.Commands[0].First.Commands[0].(*ast.CompoundCommand)
	ac := cc.Body.(*ast.ArithmeticCommand)
	require.Equal(t, "x = 1 + 2", ac.Expr)
}

func TestParseFunctionDefKeywordForm(t *testing.T) {
	prog := parseOK(t, "function greet { echo hi; }\n")
	fn := prog.Commands[0].First.Commands[0].(*ast.FunctionDefinition)
	require.Equal(t, "greet", fn.Name)
}

func TestParseFunctionDefShorthand(t *testing.T) {
	prog := parseOK(t, "greet() { echo hi; }\n")
	fn := prog.Commands[0].First.Commands[0].(*ast.FunctionDefinition)
	require.Equal(t, "greet", fn.Name)
}

func TestParseRedirectionWithExplicitFD(t *testing.T) {
	prog := parseOK(t, "cmd 2>err.txt\n")
	cmd := prog.Commands[0].First.Commands[0].(*ast.SimpleCommand)
	require.Len(t, cmd.Suffix, 1)
	r := cmd.Suffix[0].(*ast.Redirection)
	require.NotNil(t, r.FD)
	require.Equal(t, 2, *r.FD)
	require.Equal(t, ast.RedirGreat, r.Kind)
}

func TestParseRedirectionNumericArgumentNotFD(t *testing.T) {
	prog := parseOK(t, "echo 2 > out.txt\n")
	cmd := prog.Commands[0].First.Commands[0].(*ast.SimpleCommand)
	require.Len(t, cmd.Suffix, 2)
	word, ok := cmd.Suffix[0].(*ast.Word)
	require.True(t, ok)
	require.Equal(t, "2", word.Text)
	r := cmd.Suffix[1].(*ast.Redirection)
	require.Nil(t, r.FD)
}

func TestParseHereDoc(t *testing.T) {
	src := "cat <<EOF\nhello\nEOF\n"
	prog := parseOK(t, src)
	cmd := prog.Commands[0].First.Commands[0].(*ast.SimpleCommand)
	r := cmd.Suffix[0].(*ast.Redirection)
	require.Equal(t, ast.RedirHereDoc, r.Kind)
	require.Equal(t, "hello\n", r.HereDoc.Body)
}

func TestParseExtendedTest(t *testing.T) {
	prog := parseOK(t, "[[ -f foo.txt && -n $bar ]]\n")
	ext := prog.Commands[0].First.Commands[0].(*ast.ExtendedTestCommand)
	_, ok := ext.Expr.(*ast.ExtTestAnd)
	require.True(t, ok)
}

func TestParseUnclosedBraceGroupErrors(t *testing.T) {
	_, err := Parse([]byte("{ echo hi\n"), DefaultOptions())
	require.Error(t, err)
}
