package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	l := New([]byte(src))
	var toks []Token
	for {
		reason, tok, err := l.Next(0)
		require.NoError(t, err)
		if reason == ReasonEndOfInput {
			break
		}
		toks = append(toks, tok)
	}
	return toks
}

func TestLexerSimpleCommand(t *testing.T) {
	toks := lexAll(t, "echo hello world")
	require.Len(t, toks, 3)
	for _, tok := range toks {
		require.Equal(t, WORD, tok.Kind)
	}
	require.Equal(t, "echo", toks[0].Text)
	require.Equal(t, "world", toks[2].Text)
}

func TestLexerOperators(t *testing.T) {
	toks := lexAll(t, "a && b || c | d >> e <<- f\nf\n")
	var ops []Operator
	for _, tok := range toks {
		if tok.Kind == OPERATOR {
			ops = append(ops, tok.Op)
		}
	}
	require.Equal(t, []Operator{AND_AND, OR_OR, PIPE, DGREAT, DLESS_DASH, NEWLINE}, ops)
}

func TestLexerSingleQuotePreservesBytesVerbatim(t *testing.T) {
	// Tokenizer quoting property from spec.md §8: tokenizing '<s>' yields
	// exactly one Word token whose content is the quoted form of s.
	toks := lexAll(t, `'a $b "c" \d'`)
	require.Len(t, toks, 1)
	require.Equal(t, `'a $b "c" \d'`, toks[0].Text)
}

func TestLexerDoubleQuoteEscapes(t *testing.T) {
	toks := lexAll(t, `"\$x \` + "`" + `cmd\` + "`" + ` \" \\ \y"`)
	require.Len(t, toks, 1)
}

func TestLexerCommandSubstitutionCaptured(t *testing.T) {
	toks := lexAll(t, "echo $(echo nested)")
	require.Len(t, toks, 2)
	require.Equal(t, "$(echo nested)", toks[1].Text)
}

func TestLexerNestedCommandSubstitution(t *testing.T) {
	toks := lexAll(t, "echo $($(echo echo) hi)")
	require.Len(t, toks, 2)
	require.Equal(t, "$($(echo echo) hi)", toks[1].Text)
}

func TestLexerParameterExpansionBraces(t *testing.T) {
	toks := lexAll(t, `echo ${foo:-bar}`)
	require.Len(t, toks, 2)
	require.Equal(t, "${foo:-bar}", toks[1].Text)
}

func TestLexerHereDoc(t *testing.T) {
	src := "cat <<EOF\nline one\nline two\nEOF\necho after\n"
	l := New([]byte(src))
	var toks []Token
	for {
		reason, tok, err := l.Next(0)
		require.NoError(t, err)
		if reason == ReasonEndOfInput {
			break
		}
		toks = append(toks, tok)
		if tok.Kind == OPERATOR && tok.Op == DLESS {
			l.NotifyHereDocOperator(false)
		}
	}
	body, ok := l.PopHereDocBody()
	require.True(t, ok)
	require.Equal(t, "EOF", body.Tag)
	require.Equal(t, "line one\nline two\n", body.Body)

	var words []string
	for _, tok := range toks {
		if tok.Kind == WORD {
			words = append(words, tok.Text)
		}
	}
	require.Equal(t, []string{"cat", "EOF", "echo", "after"}, words)
}

func TestLexerHereDocStripTabs(t *testing.T) {
	src := "cat <<-EOF\n\t\tindented\nEOF\n"
	l := New([]byte(src))
	for {
		reason, tok, err := l.Next(0)
		require.NoError(t, err)
		if reason == ReasonEndOfInput {
			break
		}
		if tok.Kind == OPERATOR && tok.Op == DLESS_DASH {
			l.NotifyHereDocOperator(true)
		}
	}
	body, ok := l.PopHereDocBody()
	require.True(t, ok)
	require.Equal(t, "indented\n", body.Body)
}

func TestLexerUnterminatedQuoteError(t *testing.T) {
	l := New([]byte(`echo 'abc`))
	for {
		_, _, err := l.Next(0)
		if err != nil {
			require.Contains(t, err.Error(), "unterminated")
			return
		}
	}
}

func TestLexerCommentStopsAtNewline(t *testing.T) {
	toks := lexAll(t, "echo hi # a comment\necho bye")
	var words []string
	for _, tok := range toks {
		if tok.Kind == WORD {
			words = append(words, tok.Text)
		}
	}
	require.Equal(t, []string{"echo", "hi", "echo", "bye"}, words)
}

func TestLexerLineContinuationDiscarded(t *testing.T) {
	toks := lexAll(t, "echo foo\\\nbar")
	require.Len(t, toks, 2)
	require.Equal(t, "foobar", toks[1].Text)
}
