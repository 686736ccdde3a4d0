package variables

import (
	"testing"

	"github.com/coreshell/gosh/internal/shellerr"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetScalar(t *testing.T) {
	env := New()
	require.NoError(t, env.Set("FOO", "bar", ScopeGlobal))
	v, ok := env.Get("FOO", Anywhere)
	require.True(t, ok)
	require.Equal(t, "bar", v.Value.Str)
}

func TestReadonlyRejectsAssignment(t *testing.T) {
	env := New()
	require.NoError(t, env.Set("FOO", "bar", ScopeGlobal))
	v, _ := env.Get("FOO", Anywhere)
	v.Attrs.Readonly = true
	err := env.Set("FOO", "baz", ScopeGlobal)
	require.Error(t, err)
	require.True(t, shellerr.As(err, shellerr.KindReadonlyVariable))
}

func TestLocalScopeShadowsGlobal(t *testing.T) {
	env := New()
	require.NoError(t, env.Set("FOO", "global", ScopeGlobal))
	env.PushLocals()
	require.NoError(t, env.Set("FOO", "local", ScopeCurrentLocal))
	v, _ := env.Get("FOO", Anywhere)
	require.Equal(t, "local", v.Value.Str)
	env.PopLocals()
	v, _ = env.Get("FOO", Anywhere)
	require.Equal(t, "global", v.Value.Str)
}

func TestOnlyCurrentLocalPolicy(t *testing.T) {
	env := New()
	require.NoError(t, env.Set("FOO", "global", ScopeGlobal))
	env.PushLocals()
	_, ok := env.Get("FOO", OnlyCurrentLocal)
	require.False(t, ok)
}

func TestAppendScalarConcatenates(t *testing.T) {
	env := New()
	v := &Variable{Value: NewString("ab")}
	require.NoError(t, env.Assign(v, "cd", true))
	require.Equal(t, "abcd", v.Value.Str)
}

func TestAppendIntegerAdds(t *testing.T) {
	env := New()
	v := &Variable{Value: NewString("5"), Attrs: Attributes{Integer: true}}
	require.NoError(t, env.Assign(v, "3", true))
	require.Equal(t, "8", v.Value.Str)
}

func TestAssignAtIndexPromotesScalarToIndexedArray(t *testing.T) {
	env := New()
	v := &Variable{Value: NewString("zero")}
	require.NoError(t, env.AssignAtIndex(v, "1", "one", false))
	require.Equal(t, KindIndexedArray, v.Value.Kind)
	require.Equal(t, "zero", v.Value.Indexed[0])
	require.Equal(t, "one", v.Value.Indexed[1])
}

func TestAssignAtIndexAssociative(t *testing.T) {
	env := New()
	v := &Variable{Value: NewAssociativeArray()}
	require.NoError(t, env.AssignAtIndex(v, "key", "val", false))
	require.Equal(t, "val", v.Value.Assoc["key"])
}

func TestAssignIndexedArrayAppendUsesMaxPlusOne(t *testing.T) {
	env := New()
	v := &Variable{Value: NewIndexedArray()}
	v.Value.Indexed[0] = "a"
	v.Value.Indexed[5] = "b"
	require.NoError(t, env.Assign(v, "c", true))
	require.Equal(t, "c", v.Value.Indexed[6])
}

func TestUnsetIndexReportsExistence(t *testing.T) {
	env := New()
	v := &Variable{Value: NewIndexedArray()}
	v.Value.Indexed[2] = "x"
	existed, err := env.UnsetIndex(v, "2")
	require.NoError(t, err)
	require.True(t, existed)
	existed, err = env.UnsetIndex(v, "2")
	require.NoError(t, err)
	require.False(t, existed)
}

func TestUnsetIndexFailsOnScalar(t *testing.T) {
	env := New()
	v := &Variable{Value: NewString("x")}
	_, err := env.UnsetIndex(v, "0")
	require.Error(t, err)
	require.True(t, shellerr.As(err, shellerr.KindNotArray))
}

func TestAttrLettersBuildsExpectedOrder(t *testing.T) {
	a := Attributes{Readonly: true, Exported: true, Integer: true}
	require.Equal(t, "irx", a.AttrLetters(KindString))
}

func TestAttrLettersDashWhenNoneApply(t *testing.T) {
	a := Attributes{}
	require.Equal(t, "-", a.AttrLetters(KindString))
}

func TestUppercaseTransformAppliedOnAssign(t *testing.T) {
	env := New()
	v := &Variable{Attrs: Attributes{Transform: TransformUppercase}}
	require.NoError(t, env.Assign(v, "hello", false))
	require.Equal(t, "HELLO", v.Value.Str)
}

func TestCaseFoldFirstAndAll(t *testing.T) {
	require.Equal(t, "Hello", CaseFoldFirst("hello", true))
	require.Equal(t, "HELLO", CaseFoldAll("hello", true))
	require.Equal(t, "hello", CaseFoldAll("HELLO", false))
}

func TestExportedPairsSortedAndScalarOnly(t *testing.T) {
	env := New()
	require.NoError(t, env.Set("B", "2", ScopeGlobal))
	require.NoError(t, env.Set("A", "1", ScopeGlobal))
	vb, _ := env.Get("B", Anywhere)
	va, _ := env.Get("A", Anywhere)
	vb.Attrs.Exported = true
	va.Attrs.Exported = true
	pairs := env.ExportedPairs()
	require.Equal(t, []string{"A=1", "B=2"}, pairs)
}
