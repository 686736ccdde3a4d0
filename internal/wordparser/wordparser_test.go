package wordparser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parseOK(t *testing.T, text string) []Piece {
	t.Helper()
	pieces, err := Parse(text, Options{TildeExpansion: true})
	require.NoError(t, err)
	return pieces
}

func TestPlainText(t *testing.T) {
	pieces := parseOK(t, "hello")
	require.Len(t, pieces, 1)
	require.Equal(t, Text, pieces[0].Kind)
	require.Equal(t, "hello", pieces[0].Text)
}

func TestSingleQuotedVerbatim(t *testing.T) {
	pieces := parseOK(t, `'$a\n'`)
	require.Len(t, pieces, 1)
	require.Equal(t, SingleQuotedText, pieces[0].Kind)
	require.Equal(t, `$a\n`, pieces[0].Text)
}

func TestAnsiCQuoted(t *testing.T) {
	pieces := parseOK(t, `$'a\tb'`)
	require.Len(t, pieces, 1)
	require.Equal(t, AnsiCQuotedText, pieces[0].Kind)
	require.Equal(t, "a\tb", pieces[0].Text)
}

func TestDoubleQuotedSequenceWithParam(t *testing.T) {
	pieces := parseOK(t, `"hi $name!"`)
	require.Len(t, pieces, 1)
	require.Equal(t, DoubleQuotedSequence, pieces[0].Kind)
	kids := pieces[0].Children
	require.Equal(t, Text, kids[0].Kind)
	require.Equal(t, ParameterExpansion, kids[1].Kind)
	require.Equal(t, "name", kids[1].Param.Name)
}

func TestTildePrefixAtStart(t *testing.T) {
	pieces := parseOK(t, "~/bin")
	require.Equal(t, TildePrefix, pieces[0].Kind)
	require.Equal(t, "", pieces[0].Text)
	require.Equal(t, Text, pieces[1].Kind)
	require.Equal(t, "/bin", pieces[1].Text)
}

func TestTildeNotRecognizedMidWord(t *testing.T) {
	pieces := parseOK(t, "a~b")
	require.Len(t, pieces, 1)
	require.Equal(t, Text, pieces[0].Kind)
	require.Equal(t, "a~b", pieces[0].Text)
}

func TestCommandSubstitutionDollarParen(t *testing.T) {
	pieces := parseOK(t, "$(echo hi)")
	require.Equal(t, CommandSubstitution, pieces[0].Kind)
	require.Equal(t, "echo hi", pieces[0].Text)
}

func TestNestedCommandSubstitution(t *testing.T) {
	pieces := parseOK(t, "$(echo $(echo hi))")
	require.Equal(t, CommandSubstitution, pieces[0].Kind)
	require.Equal(t, "echo $(echo hi)", pieces[0].Text)
}

func TestBacktickSubstitution(t *testing.T) {
	pieces := parseOK(t, "`echo hi`")
	require.Equal(t, CommandSubstitution, pieces[0].Kind)
	require.Equal(t, "echo hi", pieces[0].Text)
}

func TestArithmeticExpansionParsesAsCommandSub(t *testing.T) {
	// $((...)) lexes as a command-substitution-shaped "$(" capture whose
	// body happens to start with '('; the expansion engine distinguishes
	// arithmetic from command substitution by checking for that leading
	// '(' and matching trailing ')', per spec.md §4.5.
	pieces := parseOK(t, "$((1+2))")
	require.Equal(t, CommandSubstitution, pieces[0].Kind)
	require.Equal(t, "(1+2)", pieces[0].Text)
}

func TestBareParamDollarName(t *testing.T) {
	pieces := parseOK(t, "$HOME")
	require.Equal(t, ParameterExpansion, pieces[0].Kind)
	require.Equal(t, "HOME", pieces[0].Param.Name)
}

func TestBareParamPositional(t *testing.T) {
	pieces := parseOK(t, "$1$2")
	require.Len(t, pieces, 2)
	require.Equal(t, "1", pieces[0].Param.Name)
	require.Equal(t, "2", pieces[1].Param.Name)
}

func TestBareParamSpecial(t *testing.T) {
	pieces := parseOK(t, "$@")
	require.Equal(t, "@", pieces[0].Param.Name)
}

func TestBracedDefaultColonDash(t *testing.T) {
	pieces := parseOK(t, "${x:-fallback}")
	p := pieces[0].Param
	require.Equal(t, "x", p.Name)
	require.Equal(t, OpDefault, p.Op)
	require.True(t, p.TestColon)
	require.Equal(t, "fallback", p.Word)
}

func TestBracedDefaultNoColon(t *testing.T) {
	pieces := parseOK(t, "${x-fallback}")
	p := pieces[0].Param
	require.Equal(t, OpDefault, p.Op)
	require.False(t, p.TestColon)
}

func TestBracedLength(t *testing.T) {
	pieces := parseOK(t, "${#x}")
	p := pieces[0].Param
	require.Equal(t, OpLength, p.Op)
	require.Equal(t, "x", p.Name)
}

func TestBracedSubstringWithLength(t *testing.T) {
	pieces := parseOK(t, "${x:1:2}")
	p := pieces[0].Param
	require.Equal(t, OpSubstring, p.Op)
	require.Equal(t, "1", p.Word)
	require.Equal(t, "2", p.Word2)
	require.True(t, p.HasWord2)
}

func TestBracedSubstringWithoutLength(t *testing.T) {
	pieces := parseOK(t, "${x:1}")
	p := pieces[0].Param
	require.Equal(t, OpSubstring, p.Op)
	require.Equal(t, "1", p.Word)
	require.False(t, p.HasWord2)
}

func TestBracedRemoveShortestPrefix(t *testing.T) {
	pieces := parseOK(t, "${x#*/}")
	p := pieces[0].Param
	require.Equal(t, OpRemoveShortestPrefix, p.Op)
	require.Equal(t, "*/", p.Word)
}

func TestBracedRemoveLongestSuffix(t *testing.T) {
	pieces := parseOK(t, "${x%%.*}")
	p := pieces[0].Param
	require.Equal(t, OpRemoveLongestSuffix, p.Op)
	require.Equal(t, ".*", p.Word)
}

func TestBracedReplaceAll(t *testing.T) {
	pieces := parseOK(t, "${x//foo/bar}")
	p := pieces[0].Param
	require.Equal(t, OpReplaceAll, p.Op)
	require.Equal(t, "foo", p.Word)
	require.Equal(t, "bar", p.Word2)
}

func TestBracedIndirection(t *testing.T) {
	pieces := parseOK(t, "${!x}")
	p := pieces[0].Param
	require.Equal(t, OpIndirection, p.Op)
	require.Equal(t, "x", p.Name)
}

func TestBracedNamePrefixList(t *testing.T) {
	pieces := parseOK(t, "${!prefix*}")
	p := pieces[0].Param
	require.Equal(t, OpNamePrefixList, p.Op)
	require.Equal(t, "prefix", p.Name)
}

func TestBracedArrayIndex(t *testing.T) {
	pieces := parseOK(t, "${arr[3]}")
	p := pieces[0].Param
	require.Equal(t, "arr", p.Name)
	require.Equal(t, "3", p.Index)
}

func TestBracedUppercaseAll(t *testing.T) {
	pieces := parseOK(t, "${x^^}")
	p := pieces[0].Param
	require.Equal(t, OpUppercaseAll, p.Op)
}

func TestEscapeSequenceInDoubleQuotes(t *testing.T) {
	pieces := parseOK(t, `"a\"b"`)
	kids := pieces[0].Children
	require.Equal(t, Text, kids[0].Kind)
	require.Equal(t, EscapeSequence, kids[1].Kind)
	require.Equal(t, `"`, kids[1].Text)
}
