package pattern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, glob string, opt Options) *Pattern {
	t.Helper()
	p, err := CompileString(glob, opt)
	require.NoError(t, err)
	return p
}

func TestStarMatchesAnything(t *testing.T) {
	p := mustCompile(t, "*.txt", Options{})
	require.True(t, p.MatchString("foo.txt"))
	require.False(t, p.MatchString("foo.txtx"))
}

func TestQuestionMatchesOneChar(t *testing.T) {
	p := mustCompile(t, "fil?.go", Options{})
	require.True(t, p.MatchString("file.go"))
	require.False(t, p.MatchString("fil.go"))
}

func TestBracketClass(t *testing.T) {
	p := mustCompile(t, "[abc].txt", Options{})
	require.True(t, p.MatchString("a.txt"))
	require.False(t, p.MatchString("d.txt"))
}

func TestNegatedBracketClass(t *testing.T) {
	p := mustCompile(t, "[!abc].txt", Options{})
	require.False(t, p.MatchString("a.txt"))
	require.True(t, p.MatchString("d.txt"))
}

func TestExtglobAtLeastOneOf(t *testing.T) {
	p := mustCompile(t, "@(foo|bar).txt", Options{ExtendedGlob: true})
	require.True(t, p.MatchString("foo.txt"))
	require.True(t, p.MatchString("bar.txt"))
	require.False(t, p.MatchString("baz.txt"))
}

func TestExtglobStarGroup(t *testing.T) {
	p := mustCompile(t, "*(ab)c", Options{ExtendedGlob: true})
	require.True(t, p.MatchString("c"))
	require.True(t, p.MatchString("ababc"))
}

func TestRemoveLargestMatchingPrefix(t *testing.T) {
	p := mustCompile(t, "a*b", Options{})
	got := RemoveLargestMatchingPrefix("axbxbxb", p)
	require.Equal(t, "", got)
}

func TestRemoveSmallestMatchingPrefix(t *testing.T) {
	p := mustCompile(t, "a*b", Options{})
	got := RemoveSmallestMatchingPrefix("axbxbxb", p)
	require.Equal(t, "xbxb", got)
}

func TestRemoveLargestMatchingSuffix(t *testing.T) {
	p := mustCompile(t, "a*b", Options{})
	got := RemoveLargestMatchingSuffix("xaxbxaxb", p)
	require.Equal(t, "x", got)
}

func TestRemoveSmallestMatchingSuffix(t *testing.T) {
	p := mustCompile(t, "a*b", Options{})
	got := RemoveSmallestMatchingSuffix("xaxbxaxb", p)
	require.Equal(t, "xaxbx", got)
}

func TestLiteralPieceEscapesRegexChars(t *testing.T) {
	pat, err := Compile([]Piece{{Kind: Literal, Text: "a.b*c"}}, Options{})
	require.NoError(t, err)
	require.True(t, pat.MatchString("a.b*c"))
	require.False(t, pat.MatchString("axbyc"))
}

func TestMixedLiteralAndPatternPieces(t *testing.T) {
	pat, err := Compile([]Piece{
		{Kind: Literal, Text: "v1."},
		{Kind: Pattern, Text: "*"},
	}, Options{})
	require.NoError(t, err)
	require.True(t, pat.MatchString("v1.2.3"))
	require.False(t, pat.MatchString("v2.0"))
}
