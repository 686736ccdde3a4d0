package callstack

import (
	"testing"

	"github.com/coreshell/gosh/internal/token"
	"github.com/stretchr/testify/require"
)

func TestPushFunctionIncrementsDepth(t *testing.T) {
	cs := New()
	cs.PushFunction("foo", "script.sh", nil, []string{"a", "b"})
	require.Equal(t, 1, cs.FunctionCallDepth())
	require.True(t, cs.InFunction())
	f, ok := cs.Current()
	require.True(t, ok)
	require.Equal(t, FrameFunction, f.Kind)
	require.Equal(t, "foo", f.Name)
}

func TestPopDecrementsDepthAndRestoresPrevious(t *testing.T) {
	cs := New()
	cs.PushScript(Run, "top.sh", nil)
	cs.PushFunction("foo", "top.sh", nil, nil)
	require.Equal(t, 1, cs.FunctionCallDepth())

	popped, ok := cs.Pop()
	require.True(t, ok)
	require.Equal(t, FrameFunction, popped.Kind)
	require.Equal(t, 0, cs.FunctionCallDepth())

	f, ok := cs.Current()
	require.True(t, ok)
	require.Equal(t, FrameScript, f.Kind)
}

func TestPopOnEmptyStackReportsFalse(t *testing.T) {
	cs := New()
	_, ok := cs.Pop()
	require.False(t, ok)
	require.True(t, cs.IsEmpty())
}

func TestScriptSourceDepthOnlyCountsSourcedScripts(t *testing.T) {
	cs := New()
	cs.PushScript(Run, "main.sh", nil)
	require.Equal(t, 0, cs.ScriptCallDepth())
	cs.PushScript(Source, "lib.sh", nil)
	require.Equal(t, 1, cs.ScriptCallDepth())
}

func TestInSourcedScriptChecksTopmostScriptFrame(t *testing.T) {
	cs := New()
	cs.PushScript(Source, "lib.sh", nil)
	cs.PushFunction("helper", "lib.sh", nil, nil)
	require.True(t, cs.InSourcedScript())
}

func TestTrapHandlerDepth(t *testing.T) {
	cs := New()
	cs.PushTrapHandler("trap(SIGINT)")
	require.Equal(t, 1, cs.TrapHandlerDepth())
	cs.Pop()
	require.Equal(t, 0, cs.TrapHandlerDepth())
}

func TestFunctionNamesMostRecentFirst(t *testing.T) {
	cs := New()
	cs.PushFunction("outer", "s.sh", nil, nil)
	cs.PushFunction("inner", "s.sh", nil, nil)
	require.Equal(t, []string{"inner", "outer"}, cs.FunctionNames())
}

func TestBashSourcePathsIncludesScriptAndFunctionFrames(t *testing.T) {
	cs := New()
	cs.PushScript(Run, "main.sh", nil)
	cs.PushFunction("f", "main.sh", nil, nil)
	cs.PushEval()
	require.Equal(t, []string{"main.sh", "main.sh"}, cs.BashSourcePaths())
}

func TestSetCurrentPositionUpdatesTopFrameOnly(t *testing.T) {
	cs := New()
	cs.PushScript(Run, "a.sh", nil)
	cs.PushFunction("f", "a.sh", nil, nil)
	cs.SetCurrentPosition(token.Position{Line: 5, Column: 1})
	f, _ := cs.Current()
	require.NotNil(t, f.Current)
	require.Equal(t, 5, f.Current.Line)

	cs.Pop()
	f, _ = cs.Current()
	require.Nil(t, f.Current)
}

func TestIncrementCurrentLineOffset(t *testing.T) {
	cs := New()
	cs.PushEval()
	cs.IncrementCurrentLineOffset(3)
	cs.IncrementCurrentLineOffset(2)
	f, _ := cs.Current()
	require.Equal(t, 5, f.CurrentLineOffset)
}

func TestDepthAndIsEmpty(t *testing.T) {
	cs := New()
	require.True(t, cs.IsEmpty())
	cs.PushInteractiveSession()
	cs.PushCommandString()
	require.Equal(t, 2, cs.Depth())
	require.False(t, cs.IsEmpty())
}

func TestFrameStringVariants(t *testing.T) {
	require.Equal(t, "source(lib.sh)", Frame{Kind: FrameScript, ScriptCallType: Source, SourceInfo: "lib.sh"}.String())
	require.Equal(t, "func(foo)", Frame{Kind: FrameFunction, Name: "foo"}.String())
	require.Equal(t, "trap", Frame{Kind: FrameTrapHandler}.String())
}
