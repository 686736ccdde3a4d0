package expand

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreshell/gosh/internal/shellerr"
	"github.com/coreshell/gosh/internal/variables"
)

type fakeRunner struct {
	out string
	err error
}

func (f fakeRunner) RunCaptured(script string) (string, error) { return f.out, f.err }

func newExpander(t *testing.T) (*Expander, *variables.Environment) {
	t.Helper()
	env := variables.New()
	ex := New(env, Params{
		Positional: []string{"one", "two", "three"},
		Name:       "gosh",
		Special:    map[byte]string{'?': "0", '$': "123", '!': "456", '-': "himBH", '_': "last"},
	}, fakeRunner{out: "ran\n"}, Options{})
	return ex, env
}

func TestBasicExpandLiteralText(t *testing.T) {
	ex, _ := newExpander(t)
	out, err := ex.BasicExpand("hello world")
	require.NoError(t, err)
	require.Equal(t, "hello world", out)
}

func TestBasicExpandSingleQuoted(t *testing.T) {
	ex, _ := newExpander(t)
	out, err := ex.BasicExpand(`'$HOME * literal'`)
	require.NoError(t, err)
	require.Equal(t, "$HOME * literal", out)
}

func TestBasicExpandPositionalParameters(t *testing.T) {
	ex, _ := newExpander(t)
	out, err := ex.BasicExpand("$1-$2-$0")
	require.NoError(t, err)
	require.Equal(t, "one-two-gosh", out)
}

func TestBasicExpandNamedVariable(t *testing.T) {
	ex, env := newExpander(t)
	require.NoError(t, env.Set("FOO", "bar", variables.ScopeGlobal))
	out, err := ex.BasicExpand("${FOO}")
	require.NoError(t, err)
	require.Equal(t, "bar", out)
}

func TestDefaultOperatorUnsetVsNull(t *testing.T) {
	ex, env := newExpander(t)
	out, err := ex.BasicExpand("${UNSET:-fallback}")
	require.NoError(t, err)
	require.Equal(t, "fallback", out)

	require.NoError(t, env.Set("EMPTY", "", variables.ScopeGlobal))
	out, err = ex.BasicExpand("${EMPTY:-fallback}")
	require.NoError(t, err)
	require.Equal(t, "fallback", out)

	out, err = ex.BasicExpand("${EMPTY-fallback}")
	require.NoError(t, err)
	require.Equal(t, "", out)
}

func TestAssignDefaultAssignsVariable(t *testing.T) {
	ex, env := newExpander(t)
	out, err := ex.BasicExpand("${NEWVAR:=created}")
	require.NoError(t, err)
	require.Equal(t, "created", out)
	v, ok := env.Get("NEWVAR", variables.Anywhere)
	require.True(t, ok)
	require.Equal(t, "created", v.Value.Str)
}

func TestErrorOperatorUnsetReportsMessage(t *testing.T) {
	ex, _ := newExpander(t)
	_, err := ex.BasicExpand("${UNSET:?missing value}")
	require.Error(t, err)
	require.True(t, shellerr.As(err, shellerr.KindParameterNullOrUnset))
}

func TestUnboundOptionErrorsOnUnsetVariable(t *testing.T) {
	ex, _ := newExpander(t)
	ex.Opt.Unbound = true
	_, err := ex.BasicExpand("$UNSET")
	require.Error(t, err)
	require.True(t, shellerr.As(err, shellerr.KindUnboundVariable))
}

func TestLengthOperator(t *testing.T) {
	ex, env := newExpander(t)
	require.NoError(t, env.Set("FOO", "hello", variables.ScopeGlobal))
	out, err := ex.BasicExpand("${#FOO}")
	require.NoError(t, err)
	require.Equal(t, "5", out)
}

func TestPrefixSuffixRemoval(t *testing.T) {
	ex, env := newExpander(t)
	require.NoError(t, env.Set("PATH_LIKE", "/usr/local/bin", variables.ScopeGlobal))

	out, err := ex.BasicExpand("${PATH_LIKE#*/}")
	require.NoError(t, err)
	require.Equal(t, "usr/local/bin", out)

	out, err = ex.BasicExpand("${PATH_LIKE##*/}")
	require.NoError(t, err)
	require.Equal(t, "bin", out)

	out, err = ex.BasicExpand("${PATH_LIKE%/*}")
	require.NoError(t, err)
	require.Equal(t, "/usr/local", out)
}

func TestSubstringOperator(t *testing.T) {
	ex, env := newExpander(t)
	require.NoError(t, env.Set("FOO", "0123456789", variables.ScopeGlobal))

	out, err := ex.BasicExpand("${FOO:2:3}")
	require.NoError(t, err)
	require.Equal(t, "234", out)

	out, err = ex.BasicExpand("${FOO:7}")
	require.NoError(t, err)
	require.Equal(t, "789", out)
}

func TestCaseTransformOperators(t *testing.T) {
	ex, env := newExpander(t)
	require.NoError(t, env.Set("FOO", "hello world", variables.ScopeGlobal))

	out, err := ex.BasicExpand("${FOO^}")
	require.NoError(t, err)
	require.Equal(t, "Hello world", out)

	out, err = ex.BasicExpand("${FOO^^}")
	require.NoError(t, err)
	require.Equal(t, "HELLO WORLD", out)
}

func TestReplaceOperators(t *testing.T) {
	ex, env := newExpander(t)
	require.NoError(t, env.Set("FOO", "foo bar foo", variables.ScopeGlobal))

	out, err := ex.BasicExpand("${FOO/foo/baz}")
	require.NoError(t, err)
	require.Equal(t, "baz bar foo", out)

	out, err = ex.BasicExpand("${FOO//foo/baz}")
	require.NoError(t, err)
	require.Equal(t, "baz bar baz", out)
}

func TestArithmeticExpansion(t *testing.T) {
	ex, _ := newExpander(t)
	out, err := ex.BasicExpand("$((2 + 3 * 4))")
	require.NoError(t, err)
	require.Equal(t, "14", out)
}

func TestCommandSubstitution(t *testing.T) {
	ex, _ := newExpander(t)
	out, err := ex.BasicExpand("$(echo hi)")
	require.NoError(t, err)
	require.Equal(t, "ran", out)
}

func TestQuotedAtExpandsToSeparateFields(t *testing.T) {
	ex, _ := newExpander(t)
	fields, err := ex.FullExpandAndSplit(`"$@"`)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two", "three"}, fields)
}

func TestUnquotedStarJoinsAndSplitsOnIFS(t *testing.T) {
	ex, _ := newExpander(t)
	fields, err := ex.FullExpandAndSplit(`$*`)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two", "three"}, fields)
}

func TestFieldSplittingCollapsesWhitespace(t *testing.T) {
	ex, env := newExpander(t)
	require.NoError(t, env.Set("FOO", "a   b\tc", variables.ScopeGlobal))
	fields, err := ex.FullExpandAndSplit("$FOO")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, fields)
}

func TestFieldSplittingNonWhitespaceIFSNeverCollapses(t *testing.T) {
	ex, env := newExpander(t)
	require.NoError(t, env.Set("FOO", "a::b", variables.ScopeGlobal))
	ex.Opt.IFS = ":"
	ex.Opt.IFSIsSet = true
	fields, err := ex.FullExpandAndSplit("$FOO")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "", "b"}, fields)
}

func TestQuotedTextNeverSplits(t *testing.T) {
	ex, env := newExpander(t)
	require.NoError(t, env.Set("FOO", "a b c", variables.ScopeGlobal))
	fields, err := ex.FullExpandAndSplit(`"$FOO"`)
	require.NoError(t, err)
	require.Equal(t, []string{"a b c"}, fields)
}

func TestArrayIndexAndKeysOperators(t *testing.T) {
	ex, env := newExpander(t)
	require.NoError(t, env.Set("ARR", "", variables.ScopeGlobal))
	v, _ := env.Get("ARR", variables.Anywhere)
	v.Value = variables.NewIndexedArray()
	require.NoError(t, env.AssignAtIndex(v, "0", "zero", false))
	require.NoError(t, env.AssignAtIndex(v, "2", "two", false))

	out, err := ex.BasicExpand("${ARR[2]}")
	require.NoError(t, err)
	require.Equal(t, "two", out)

	out, err = ex.BasicExpand("${!ARR[@]}")
	require.NoError(t, err)
	require.Equal(t, "0 2", out)
}

func TestIndirection(t *testing.T) {
	ex, env := newExpander(t)
	require.NoError(t, env.Set("FOO", "bar", variables.ScopeGlobal))
	require.NoError(t, env.Set("ref", "FOO", variables.ScopeGlobal))
	out, err := ex.BasicExpand("${!ref}")
	require.NoError(t, err)
	require.Equal(t, "bar", out)
}

func TestNullGlobDropsNonMatchingPattern(t *testing.T) {
	ex, _ := newExpander(t)
	ex.Opt.NullGlob = true
	fields, err := ex.FullExpandAndSplit("/no/such/path-*-xyz")
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestNoGlobDisablesPathnameExpansion(t *testing.T) {
	ex, _ := newExpander(t)
	ex.Opt.NoGlob = true
	fields, err := ex.FullExpandAndSplit("*.nonexistent-suffix-zzz")
	require.NoError(t, err)
	require.Equal(t, []string{"*.nonexistent-suffix-zzz"}, fields)
}
