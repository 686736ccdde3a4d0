package interp

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreshell/gosh/internal/parser"
	"github.com/coreshell/gosh/internal/variables"
)

// newTestInterp builds an Interp with its own buffered stdout/stderr so
// assertions don't depend on the test process's real descriptors.
func newTestInterp(t *testing.T) (*Interp, *bytes.Buffer) {
	t.Helper()
	it := New()
	it.Env = variables.New()
	var out bytes.Buffer
	it.Stdout = &out
	it.Stderr = &out
	it.Stdin = bytes.NewReader(nil)
	return it, &out
}

func run(t *testing.T, it *Interp, src string) error {
	t.Helper()
	prog, err := parser.Parse([]byte(src), parser.DefaultOptions())
	require.NoError(t, err)
	return it.RunProgram(prog)
}

func TestSimpleCommandEcho(t *testing.T) {
	it, out := newTestInterp(t)
	require.NoError(t, run(t, it, "echo hello world\n"))
	require.Equal(t, "hello world\n", out.String())
	require.Equal(t, 0, it.LastStatus)
}

func TestEchoFlags(t *testing.T) {
	it, out := newTestInterp(t)
	require.NoError(t, run(t, it, `echo -n no-newline`))
	require.Equal(t, "no-newline", out.String())

	it2, out2 := newTestInterp(t)
	require.NoError(t, run(t, it2, `echo -e "a\tb"`))
	require.Equal(t, "a\tb\n", out2.String())
}

func TestAndOrShortCircuit(t *testing.T) {
	it, out := newTestInterp(t)
	require.NoError(t, run(t, it, "false && echo no; true && echo yes\n"))
	require.Equal(t, "yes\n", out.String())
}

func TestBangInvertsPipelineStatus(t *testing.T) {
	it, _ := newTestInterp(t)
	require.NoError(t, run(t, it, "! true\n"))
	require.Equal(t, 1, it.LastStatus)

	it2, _ := newTestInterp(t)
	require.NoError(t, run(t, it2, "! false\n"))
	require.Equal(t, 0, it2.LastStatus)
}

func TestIfElifElse(t *testing.T) {
	it, out := newTestInterp(t)
	script := `
if false; then
  echo first
elif true; then
  echo second
else
  echo third
fi
`
	require.NoError(t, run(t, it, script))
	require.Equal(t, "second\n", out.String())
}

func TestForLoopOverWords(t *testing.T) {
	it, out := newTestInterp(t)
	require.NoError(t, run(t, it, "for x in a b c; do echo $x; done\n"))
	require.Equal(t, "a\nb\nc\n", out.String())
}

func TestForLoopBreakContinue(t *testing.T) {
	it, out := newTestInterp(t)
	script := `
for x in 1 2 3 4 5; do
  if [ "$x" = 2 ]; then continue; fi
  if [ "$x" = 4 ]; then break; fi
  echo $x
done
`
	require.NoError(t, run(t, it, script))
	require.Equal(t, "1\n3\n", out.String())
}

func TestWhileLoop(t *testing.T) {
	it, out := newTestInterp(t)
	script := `
i=0
while [ "$i" -lt 3 ]; do
  echo $i
  i=$((i+1))
done
`
	require.NoError(t, run(t, it, script))
	require.Equal(t, "0\n1\n2\n", out.String())
}

func TestCaseStatement(t *testing.T) {
	it, out := newTestInterp(t)
	script := `
for x in apple banana cherry; do
  case $x in
    a*) echo fruit-a ;;
    banana) echo yellow ;;
    *) echo other ;;
  esac
done
`
	require.NoError(t, run(t, it, script))
	require.Equal(t, "fruit-a\nyellow\nother\n", out.String())
}

func TestFunctionDefinitionAndReturn(t *testing.T) {
	it, out := newTestInterp(t)
	script := `
greet() {
  echo "hi $1"
  return 3
}
greet world
echo "status=$?"
`
	require.NoError(t, run(t, it, script))
	require.Equal(t, "hi world\nstatus=3\n", out.String())
}

func TestArithmeticCommand(t *testing.T) {
	it, _ := newTestInterp(t)
	require.NoError(t, run(t, it, "(( 2 + 2 == 4 ))\n"))
	require.Equal(t, 0, it.LastStatus)

	it2, _ := newTestInterp(t)
	require.NoError(t, run(t, it2, "(( 1 == 2 ))\n"))
	require.Equal(t, 1, it2.LastStatus)
}

func TestArithForLoop(t *testing.T) {
	it, out := newTestInterp(t)
	require.NoError(t, run(t, it, "for (( i=0; i<3; i++ )); do echo $i; done\n"))
	require.Equal(t, "0\n1\n2\n", out.String())
}

func TestExtendedTestGlobAndRegex(t *testing.T) {
	it, _ := newTestInterp(t)
	require.NoError(t, run(t, it, `[[ "hello" == h*o ]]`))
	require.Equal(t, 0, it.LastStatus)

	it2, _ := newTestInterp(t)
	require.NoError(t, run(t, it2, `[[ "hello123" =~ ^[a-z]+([0-9]+)$ ]]`))
	require.Equal(t, 0, it2.LastStatus)
	v, ok := it2.Env.Get("BASH_REMATCH", variables.Anywhere)
	require.True(t, ok)
	require.Equal(t, "123", v.Value.Indexed[1])
}

func TestCommandSubstitution(t *testing.T) {
	it, out := newTestInterp(t)
	require.NoError(t, run(t, it, "x=$(echo hi); echo \"got $x\"\n"))
	require.Equal(t, "got hi\n", out.String())
}

func TestPrefixAssignmentTransientForRegularCommand(t *testing.T) {
	it, out := newTestInterp(t)
	require.NoError(t, run(t, it, "FOO=bar echo $FOO; echo after=$FOO\n"))
	require.Equal(t, "bar\nafter=\n", out.String())
}

func TestPrefixAssignmentPersistsForSpecialBuiltin(t *testing.T) {
	it, out := newTestInterp(t)
	require.NoError(t, run(t, it, "FOO=bar :; echo $FOO\n"))
	require.Equal(t, "bar\n", out.String())
}

func TestExportReadonly(t *testing.T) {
	it, out := newTestInterp(t)
	require.NoError(t, run(t, it, "export FOO=bar\nreadonly BAR=baz\necho $FOO $BAR\n"))
	require.Equal(t, "bar baz\n", out.String())

	v, ok := it.Env.Get("FOO", variables.Anywhere)
	require.True(t, ok)
	require.True(t, v.Attrs.Exported)

	require.NoError(t, run(t, it, "BAR=other\n"))
	require.NotEqual(t, 0, it.LastStatus)
}

func TestRedirectionToFile(t *testing.T) {
	it, _ := newTestInterp(t)
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, run(t, it, "echo hi > "+path+"\n"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hi\n", string(data))
}

func TestHereStringIntoRead(t *testing.T) {
	it, out := newTestInterp(t)
	require.NoError(t, run(t, it, "read x <<< hello\necho got=$x\n"))
	require.Equal(t, "got=hello\n", out.String())
}

func TestClassicTestBuiltin(t *testing.T) {
	it, out := newTestInterp(t)
	script := `
if test -n "abc"; then echo nonempty; fi
if [ 3 -lt 5 ]; then echo less; fi
`
	require.NoError(t, run(t, it, script))
	require.Equal(t, "nonempty\nless\n", out.String())
}

func TestPipelineRunsStagesConcurrentlyInSubshells(t *testing.T) {
	it, out := newTestInterp(t)
	// read consumes the pipe in its own subshell copy; the assignment to x
	// must not leak back into the parent's environment.
	require.NoError(t, run(t, it, "echo hi | read x\necho after=$x\n"))
	require.Equal(t, "after=\n", out.String())
}

func TestSubshellDoesNotLeakVariables(t *testing.T) {
	it, out := newTestInterp(t)
	require.NoError(t, run(t, it, "(x=inner; echo $x)\necho outer=$x\n"))
	require.Equal(t, "inner\nouter=\n", out.String())
}

func TestBreakOutsideLoopIsNoOp(t *testing.T) {
	it, _ := newTestInterp(t)
	require.NoError(t, run(t, it, "break\n"))
	require.Equal(t, 0, it.LastStatus)
}
