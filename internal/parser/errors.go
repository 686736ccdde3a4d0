package parser

import (
	"fmt"

	"github.com/coreshell/gosh/internal/token"
)

// ParseError is a syntax error with location information, in the style of
// the teacher's runtime/parser/errors.go ParseError — grounded on the same
// shape but reporting the diagnostics spec.md §4.2 names: "parsing near
// token T at line L col C" and "parsing at end of input".
type ParseError struct {
	Message string
	Token   token.Token
	AtEOF   bool
}

func (e *ParseError) Error() string {
	if e.AtEOF {
		return fmt.Sprintf("parsing at end of input: %s", e.Message)
	}
	return fmt.Sprintf("parsing near token %q at %s: %s", e.Token.String(), e.Token.Start, e.Message)
}

func errNear(tok token.Token, format string, args ...any) error {
	if tok.Kind == token.EOF {
		return &ParseError{Message: fmt.Sprintf(format, args...), Token: tok, AtEOF: true}
	}
	return &ParseError{Message: fmt.Sprintf(format, args...), Token: tok}
}

// bracketTracker tracks opening brackets/keywords for "unexpected EOF,
// unclosed X opened at L:C"-style diagnostics, grounded on the teacher's
// BracketTracker.
type bracketTracker struct {
	stack []bracketInfo
}

type bracketInfo struct {
	what string // "if", "case", "{", "(", ...
	tok  token.Token
}

func (bt *bracketTracker) push(what string, tok token.Token) {
	bt.stack = append(bt.stack, bracketInfo{what: what, tok: tok})
}

func (bt *bracketTracker) pop() {
	if len(bt.stack) > 0 {
		bt.stack = bt.stack[:len(bt.stack)-1]
	}
}

func (bt *bracketTracker) unclosedErr() error {
	if len(bt.stack) == 0 {
		return nil
	}
	top := bt.stack[len(bt.stack)-1]
	return fmt.Errorf("unclosed %q opened at %s", top.what, top.tok.Start)
}
