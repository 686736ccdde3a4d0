// Package parser turns a token stream into the AST defined in internal/ast,
// implementing the grammar in spec.md §4.2.
//
// Grounded on the teacher's runtime/parser/parser.go (a hand-written
// recursive-descent parser over its own lexer, with a small lookahead
// buffer and bracket-mismatch tracking for diagnostics) with opal's
// decorator grammar replaced by the POSIX/bash command grammar this spec
// defines.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/coreshell/gosh/internal/ast"
	"github.com/coreshell/gosh/internal/invariant"
	"github.com/coreshell/gosh/internal/token"
)

// Parser consumes a token.Lexer and produces an *ast.Program.
type Parser struct {
	lex     *token.Lexer
	src     []byte
	opt     Options
	buf     []token.Token
	brackets bracketTracker
}

// New creates a Parser over src with the given feature-set options.
func New(src []byte, opt Options) *Parser {
	return &Parser{lex: token.New(src), src: src, opt: opt}
}

// Parse is the package-level convenience entry point.
func Parse(src []byte, opt Options) (*ast.Program, error) {
	return New(src, opt).ParseProgram()
}

// ParseProgram parses the entire token stream as a Program (spec.md §3/§4.2
// top-level rule).
func (p *Parser) ParseProgram() (*ast.Program, error) {
	pos := p.peek().Start
	list, err := p.parseCompoundList(isEOF)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != token.EOF {
		return nil, errNear(tok, "unexpected token")
	}
	return &ast.Program{Commands: list.Items, Pos: pos}, nil
}

// --- lookahead -------------------------------------------------------

func (p *Parser) fill(n int) {
	for len(p.buf) <= n {
		_, tok, err := p.lex.Next(0)
		if err != nil {
			// Surface lexer errors through the same channel as parse
			// errors: store an ILLEGAL token carrying the message and let
			// callers that expect more tokens fail with it.
			p.buf = append(p.buf, token.Token{Kind: token.ILLEGAL, Text: err.Error()})
			continue
		}
		p.buf = append(p.buf, tok)
		if tok.Kind == token.EOF {
			// Keep returning EOF forever without re-invoking the lexer.
			for len(p.buf) <= n {
				p.buf = append(p.buf, tok)
			}
		}
	}
}

func (p *Parser) peek() token.Token {
	p.fill(0)
	return p.buf[0]
}

func (p *Parser) peekN(n int) token.Token {
	p.fill(n)
	return p.buf[n]
}

func (p *Parser) next() token.Token {
	p.fill(0)
	tok := p.buf[0]
	p.buf = p.buf[1:]
	return tok
}

func isEOF(tok token.Token) bool { return tok.Kind == token.EOF }

func isWord(tok token.Token, text string) bool {
	return tok.Kind == token.WORD && tok.Text == text
}

func isOp(tok token.Token, op token.Operator) bool {
	return tok.Kind == token.OPERATOR && tok.Op == op
}

// skipBlankSeparators consumes any run of ';' and newline tokens (empty
// statements). A trailing '&' background marker is handled by the caller
// before this is invoked; this only folds blank statement separators.
func (p *Parser) skipBlankSeparators() {
	for {
		tok := p.peek()
		if isOp(tok, token.SEMI) || isOp(tok, token.NEWLINE) {
			p.next()
			continue
		}
		break
	}
}

// --- compound list -----------------------------------------------------

// parseCompoundList parses a `;`/newline/`&`-separated sequence of
// and-or-lists until stop(peek()) is true (GLOSSARY "Compound list").
func (p *Parser) parseCompoundList(stop func(token.Token) bool) (*ast.CompoundList, error) {
	pos := p.peek().Start
	list := &ast.CompoundList{Pos: pos}

	p.skipBlankSeparators()
	for {
		tok := p.peek()
		if stop(tok) || tok.Kind == token.EOF {
			break
		}
		item, err := p.parseAndOrList()
		if err != nil {
			return nil, err
		}

		sep := p.peek()
		switch {
		case isOp(sep, token.AMP):
			p.next()
			item.Background = true
		case isOp(sep, token.SEMI), isOp(sep, token.NEWLINE):
			p.next()
		default:
			if !stop(sep) && sep.Kind != token.EOF {
				return nil, errNear(sep, "expected ';', '&', newline, or end of list")
			}
		}
		list.Items = append(list.Items, item)
		p.skipBlankSeparators()
	}
	return list, nil
}

// stopAtWords builds a stop predicate that matches any of the given
// unquoted reserved words, used to delimit if/while/for/case bodies.
func stopAtWords(words ...string) func(token.Token) bool {
	return func(tok token.Token) bool {
		for _, w := range words {
			if isWord(tok, w) {
				return true
			}
		}
		return false
	}
}

// --- and-or-list / pipeline ---------------------------------------------

func (p *Parser) parseAndOrList() (*ast.AndOrList, error) {
	pos := p.peek().Start
	first, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	list := &ast.AndOrList{First: first, Pos: pos}
	for {
		tok := p.peek()
		var kind ast.AndOrKind
		switch {
		case isOp(tok, token.AND_AND):
			kind = ast.AndThen
		case isOp(tok, token.OR_OR):
			kind = ast.OrElse
		default:
			return list, nil
		}
		p.next()
		p.skipNewlines()
		next, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		list.Rest = append(list.Rest, ast.AndOrStep{Kind: kind, Pipeline: next})
	}
}

func (p *Parser) skipNewlines() {
	for isOp(p.peek(), token.NEWLINE) {
		p.next()
	}
}

func (p *Parser) parsePipeline() (*ast.Pipeline, error) {
	pos := p.peek().Start
	bang := false
	for isWord(p.peek(), "!") {
		p.next()
		bang = !bang
	}
	first, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	cmds := []ast.Command{first}
	for isOp(p.peek(), token.PIPE) {
		p.next()
		p.skipNewlines()
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return &ast.Pipeline{Bang: bang, Commands: cmds, Pos: pos}, nil
}

// --- command -------------------------------------------------------------

func (p *Parser) parseCommand() (ast.Command, error) {
	tok := p.peek()

	switch {
	case tok.Kind == token.ILLEGAL:
		return nil, fmt.Errorf("%s", tok.Text)
	case isWord(tok, "if"):
		return p.parseCompoundWithRedirs(p.parseIfClause)
	case isWord(tok, "while"):
		return p.parseCompoundWithRedirs(p.parseWhileClause)
	case isWord(tok, "until"):
		return p.parseCompoundWithRedirs(p.parseUntilClause)
	case isWord(tok, "for"):
		return p.parseCompoundWithRedirs(p.parseForClause)
	case isWord(tok, "case"):
		return p.parseCompoundWithRedirs(p.parseCaseClause)
	case isWord(tok, "{"):
		return p.parseCompoundWithRedirs(p.parseBraceGroup)
	case isWord(tok, "[[") && !p.opt.ShMode:
		return p.parseExtendedTest()
	case isWord(tok, "function"):
		return p.parseFunctionDefWithKeyword()
	case isOp(tok, token.LPAREN):
		if isOp(p.peekN(1), token.LPAREN) && !p.opt.ShMode {
			return p.parseCompoundWithRedirs(p.parseArithmeticCommand)
		}
		return p.parseCompoundWithRedirs(p.parseSubshell)
	default:
		return p.parseSimpleCommandOrFunctionDef()
	}
}

func (p *Parser) parseCompoundWithRedirs(parseBody func() (ast.CompoundBody, error)) (ast.Command, error) {
	pos := p.peek().Start
	body, err := parseBody()
	if err != nil {
		return nil, err
	}
	redirs, err := p.parseRedirections()
	if err != nil {
		return nil, err
	}
	return &ast.CompoundCommand{Body: body, Redirs: redirs, Pos: pos}, nil
}

func (p *Parser) expectWord(text string) error {
	tok := p.peek()
	if !isWord(tok, text) {
		return errNear(tok, "expected %q", text)
	}
	p.next()
	return nil
}

// --- brace group / subshell ----------------------------------------------

func (p *Parser) parseBraceGroup() (ast.CompoundBody, error) {
	pos := p.peek().Start
	if err := p.expectWord("{"); err != nil {
		return nil, err
	}
	p.brackets.push("{", p.peek())
	body, err := p.parseCompoundList(stopAtWords("}"))
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("}"); err != nil {
		return nil, p.brackets.unclosedErr()
	}
	p.brackets.pop()
	return &ast.BraceGroup{Body: body, Pos: pos}, nil
}

func (p *Parser) parseSubshell() (ast.CompoundBody, error) {
	pos := p.peek().Start
	open := p.next() // '('
	p.brackets.push("(", open)
	body, err := p.parseCompoundList(func(tok token.Token) bool { return isOp(tok, token.RPAREN) })
	if err != nil {
		return nil, err
	}
	if !isOp(p.peek(), token.RPAREN) {
		return nil, p.brackets.unclosedErr()
	}
	p.next()
	p.brackets.pop()
	return &ast.Subshell{Body: body, Pos: pos}, nil
}

// --- arithmetic command ---------------------------------------------------

// parseArithmeticCommand parses `(( expr ))`, slicing the exact source text
// between the opening and closing paren pairs so arbitrary C-style
// arithmetic syntax (++, +=, ?:) survives without needing to model it at
// the token level (spec.md §3 "ArithmeticCommand").
func (p *Parser) parseArithmeticCommand() (ast.CompoundBody, error) {
	pos := p.peek().Start
	p.next() // first '('
	p.next() // second '('
	expr, err := p.captureBalancedParens()
	if err != nil {
		return nil, err
	}
	return &ast.ArithmeticCommand{Expr: expr, Pos: pos}, nil
}

// captureBalancedParens consumes tokens up to and including the first ")"
// that brings paren depth back to zero followed immediately by a second
// ")", returning the raw source text in between (spec.md §4.2's "nested
// (...) in subshells and ((...)) in arithmetic commands ... are parsed with
// whitespace and comments permitted around the body").
func (p *Parser) captureBalancedParens() (string, error) {
	startTok := p.peek()
	startOff := startTok.Start.Offset
	depth := 0
	for {
		tok := p.peek()
		if tok.Kind == token.EOF {
			return "", errNear(tok, "unterminated '((' arithmetic command")
		}
		if isOp(tok, token.LPAREN) {
			depth++
			p.next()
			continue
		}
		if isOp(tok, token.RPAREN) {
			if depth > 0 {
				depth--
				p.next()
				continue
			}
			endOff := tok.Start.Offset
			p.next() // first closing ')'
			if !isOp(p.peek(), token.RPAREN) {
				return "", errNear(p.peek(), "expected second ')' closing '(('")
			}
			p.next() // second closing ')'
			return string(p.src[startOff:endOff]), nil
		}
		p.next()
	}
}

// --- if / while / until ----------------------------------------------------

func (p *Parser) parseIfClause() (ast.CompoundBody, error) {
	pos := p.peek().Start
	p.next() // if
	cond, err := p.parseCompoundList(stopAtWords("then"))
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("then"); err != nil {
		return nil, err
	}
	then, err := p.parseCompoundList(stopAtWords("elif", "else", "fi"))
	if err != nil {
		return nil, err
	}
	clause := &ast.IfClause{Cond: cond, Then: then, Pos: pos}
	for isWord(p.peek(), "elif") {
		p.next()
		econd, err := p.parseCompoundList(stopAtWords("then"))
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("then"); err != nil {
			return nil, err
		}
		ethen, err := p.parseCompoundList(stopAtWords("elif", "else", "fi"))
		if err != nil {
			return nil, err
		}
		clause.Elifs = append(clause.Elifs, ast.ElifClause{Cond: econd, Then: ethen})
	}
	if isWord(p.peek(), "else") {
		p.next()
		els, err := p.parseCompoundList(stopAtWords("fi"))
		if err != nil {
			return nil, err
		}
		clause.Else = els
	}
	if err := p.expectWord("fi"); err != nil {
		return nil, err
	}
	return clause, nil
}

func (p *Parser) parseWhileClause() (ast.CompoundBody, error) {
	pos := p.peek().Start
	p.next() // while
	cond, err := p.parseCompoundList(stopAtWords("do"))
	if err != nil {
		return nil, err
	}
	body, err := p.parseDoGroup()
	if err != nil {
		return nil, err
	}
	return &ast.WhileClause{Cond: cond, Body: body, Pos: pos}, nil
}

func (p *Parser) parseUntilClause() (ast.CompoundBody, error) {
	pos := p.peek().Start
	p.next() // until
	cond, err := p.parseCompoundList(stopAtWords("do"))
	if err != nil {
		return nil, err
	}
	body, err := p.parseDoGroup()
	if err != nil {
		return nil, err
	}
	return &ast.UntilClause{Cond: cond, Body: body, Pos: pos}, nil
}

func (p *Parser) parseDoGroup() (*ast.CompoundList, error) {
	if err := p.expectWord("do"); err != nil {
		return nil, err
	}
	body, err := p.parseCompoundList(stopAtWords("done"))
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("done"); err != nil {
		return nil, err
	}
	return body, nil
}

// --- for -------------------------------------------------------------------

func (p *Parser) parseForClause() (ast.CompoundBody, error) {
	pos := p.peek().Start
	p.next() // for

	if isOp(p.peek(), token.LPAREN) && isOp(p.peekN(1), token.LPAREN) && !p.opt.ShMode {
		return p.parseArithForClause(pos)
	}

	nameTok := p.peek()
	if nameTok.Kind != token.WORD {
		return nil, errNear(nameTok, "expected loop variable name")
	}
	p.next()
	clause := &ast.ForClause{Var: nameTok.Text, Pos: pos}

	p.skipNewlines()
	if isWord(p.peek(), "in") {
		p.next()
		clause.HasIn = true
		for p.peek().Kind == token.WORD && !isWord(p.peek(), ";") {
			tok := p.peek()
			if isWord(tok, "do") {
				break
			}
			w, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			clause.Words = append(clause.Words, w)
		}
		if isOp(p.peek(), token.SEMI) || isOp(p.peek(), token.NEWLINE) {
			p.next()
		}
	} else if isOp(p.peek(), token.SEMI) {
		p.next()
	}
	p.skipNewlines()

	body, err := p.parseDoGroup()
	if err != nil {
		return nil, err
	}
	clause.Body = body
	return clause, nil
}

func (p *Parser) parseArithForClause(pos token.Position) (ast.CompoundBody, error) {
	p.next() // '('
	p.next() // '('
	raw, err := p.captureBalancedParens()
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(raw, ";", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	p.skipNewlines()
	if isOp(p.peek(), token.SEMI) {
		p.next()
	}
	p.skipNewlines()
	body, err := p.parseDoGroup()
	if err != nil {
		return nil, err
	}
	return &ast.ArithForClause{
		Init: strings.TrimSpace(parts[0]),
		Cond: strings.TrimSpace(parts[1]),
		Post: strings.TrimSpace(parts[2]),
		Body: body,
		Pos:  pos,
	}, nil
}

// --- case --------------------------------------------------------------

func (p *Parser) parseCaseClause() (ast.CompoundBody, error) {
	pos := p.peek().Start
	p.next() // case
	value, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if err := p.expectWord("in"); err != nil {
		return nil, err
	}
	p.skipNewlines()

	clause := &ast.CaseClause{Value: value, Pos: pos}
	for !isWord(p.peek(), "esac") && p.peek().Kind != token.EOF {
		item, err := p.parseCaseItem()
		if err != nil {
			return nil, err
		}
		clause.Items = append(clause.Items, item)
		p.skipNewlines()
	}
	if err := p.expectWord("esac"); err != nil {
		return nil, err
	}
	return clause, nil
}

func (p *Parser) parseCaseItem() (*ast.CaseItem, error) {
	pos := p.peek().Start
	if isOp(p.peek(), token.LPAREN) {
		p.next()
	}
	item := &ast.CaseItem{Pos: pos}
	for {
		w, err := p.parseWord()
		if err != nil {
			return nil, err
		}
		item.Patterns = append(item.Patterns, w)
		if isOp(p.peek(), token.PIPE) {
			p.next()
			continue
		}
		break
	}
	if !isOp(p.peek(), token.RPAREN) {
		return nil, errNear(p.peek(), "expected ')' after case pattern")
	}
	p.next()
	p.skipNewlines()

	body, err := p.parseCompoundList(func(tok token.Token) bool {
		return isOp(tok, token.SEMI_SEMI) || isOp(tok, token.SEMI_AMP) || isOp(tok, token.SEMI_SEMI_AMP) || isWord(tok, "esac")
	})
	if err != nil {
		return nil, err
	}
	if len(body.Items) > 0 {
		item.Body = body
	}

	switch {
	case isOp(p.peek(), token.SEMI_SEMI):
		p.next()
		item.PostAction = ast.CaseExit
	case isOp(p.peek(), token.SEMI_AMP):
		p.next()
		item.PostAction = ast.CaseFallThrough
	case isOp(p.peek(), token.SEMI_SEMI_AMP):
		p.next()
		item.PostAction = ast.CaseContinueMatch
	default:
		item.PostAction = ast.CaseExit // final item may omit the terminator
	}
	p.skipNewlines()
	return item, nil
}

// --- extended test [[ ]] ----------------------------------------------------

func (p *Parser) parseExtendedTest() (ast.Command, error) {
	pos := p.peek().Start
	p.next() // "[["
	expr, err := p.parseExtTestOr()
	if err != nil {
		return nil, err
	}
	if !isWord(p.peek(), "]]") {
		return nil, errNear(p.peek(), "expected ']]'")
	}
	p.next()
	return &ast.ExtendedTestCommand{Expr: expr, Pos: pos}, nil
}

func (p *Parser) parseExtTestOr() (ast.ExtendedTestExpr, error) {
	left, err := p.parseExtTestAnd()
	if err != nil {
		return nil, err
	}
	for isOp(p.peek(), token.OR_OR) {
		pos := p.peek().Start
		p.next()
		right, err := p.parseExtTestAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.ExtTestOr{Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseExtTestAnd() (ast.ExtendedTestExpr, error) {
	left, err := p.parseExtTestUnit()
	if err != nil {
		return nil, err
	}
	for isOp(p.peek(), token.AND_AND) {
		pos := p.peek().Start
		p.next()
		right, err := p.parseExtTestUnit()
		if err != nil {
			return nil, err
		}
		left = &ast.ExtTestAnd{Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

var unaryTestOps = map[string]bool{
	"-z": true, "-n": true, "-f": true, "-d": true, "-e": true, "-r": true,
	"-w": true, "-x": true, "-s": true, "-L": true, "-h": true, "-p": true,
	"-S": true, "-b": true, "-c": true, "-g": true, "-u": true, "-k": true,
	"-O": true, "-G": true, "-N": true, "-v": true, "-o": true,
}

var binaryTestOps = map[string]bool{
	"==": true, "=": true, "!=": true, "=~": true, "<": true, ">": true,
	"-eq": true, "-ne": true, "-lt": true, "-le": true, "-gt": true, "-ge": true,
	"-nt": true, "-ot": true, "-ef": true,
}

func (p *Parser) parseExtTestUnit() (ast.ExtendedTestExpr, error) {
	tok := p.peek()
	pos := tok.Start

	if isWord(tok, "!") {
		p.next()
		inner, err := p.parseExtTestUnit()
		if err != nil {
			return nil, err
		}
		return &ast.ExtTestNot{Operand: inner, Pos: pos}, nil
	}
	if isOp(tok, token.LPAREN) {
		p.next()
		inner, err := p.parseExtTestOr()
		if err != nil {
			return nil, err
		}
		if !isOp(p.peek(), token.RPAREN) {
			return nil, errNear(p.peek(), "expected ')' in [[ ]] expression")
		}
		p.next()
		return &ast.ExtTestGroup{Inner: inner, Pos: pos}, nil
	}
	if tok.Kind == token.WORD && unaryTestOps[tok.Text] {
		p.next()
		operand, err := p.parseWord()
		if err != nil {
			return nil, err
		}
		return &ast.ExtTestUnary{Op: tok.Text, Operand: operand, Pos: pos}, nil
	}

	left, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	next := p.peek()
	opText := ""
	if next.Kind == token.WORD && binaryTestOps[next.Text] {
		opText = next.Text
	} else if isOp(next, token.LESS) {
		opText = "<"
	} else if isOp(next, token.GREAT) {
		opText = ">"
	}
	if opText == "" {
		return &ast.ExtTestWord{Operand: left, Pos: pos}, nil
	}
	p.next()
	right, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	return &ast.ExtTestBinary{Op: opText, Left: left, Right: right, Pos: pos}, nil
}

// --- function definitions ---------------------------------------------------

func (p *Parser) parseFunctionDefWithKeyword() (ast.Command, error) {
	pos := p.peek().Start
	p.next() // "function"
	nameTok := p.peek()
	if nameTok.Kind != token.WORD {
		return nil, errNear(nameTok, "expected function name")
	}
	p.next()
	if isOp(p.peek(), token.LPAREN) {
		p.next()
		if !isOp(p.peek(), token.RPAREN) {
			return nil, errNear(p.peek(), "expected ')' after function name")
		}
		p.next()
	}
	return p.finishFunctionDef(nameTok.Text, pos)
}

func (p *Parser) finishFunctionDef(name string, pos token.Position) (ast.Command, error) {
	p.skipNewlines()
	bodyStart := p.peek().Start
	bodyCmd, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	compound, ok := bodyCmd.(*ast.CompoundCommand)
	if !ok {
		return nil, errNear(token.Token{Start: bodyStart}, "function body must be a compound command")
	}
	srcText := ""
	if bodyStart.Offset <= len(p.src) {
		endOff := p.peek().Start.Offset
		if endOff > bodyStart.Offset && endOff <= len(p.src) {
			srcText = string(p.src[bodyStart.Offset:endOff])
		}
	}
	return &ast.FunctionDefinition{Name: name, Body: compound, SourceText: strings.TrimSpace(srcText), Pos: pos}, nil
}

// --- simple command / name() function def ----------------------------------

var assignmentRE = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(\[[^\]]*\])?(\+?=)(.*)$`)

func (p *Parser) parseSimpleCommandOrFunctionDef() (ast.Command, error) {
	pos := p.peek().Start

	// "name() ..." function definition shorthand.
	if p.peek().Kind == token.WORD && !isReservedWord(p.peek().Text) &&
		isOp(p.peekN(1), token.LPAREN) && isOp(p.peekN(2), token.RPAREN) {
		name := p.next().Text
		p.next() // (
		p.next() // )
		return p.finishFunctionDef(name, pos)
	}

	cmd := &ast.SimpleCommand{Pos: pos}
	for {
		tok := p.peek()
		if tok.Kind == token.WORD {
			if m := assignmentRE.FindStringSubmatch(tok.Text); m != nil && cmd.Name == nil {
				assign, err := p.parseAssignmentFromMatch(tok, m)
				if err != nil {
					return nil, err
				}
				cmd.Prefix = append(cmd.Prefix, assign)
				continue
			}
		}
		if r, ok, err := p.tryParseRedirection(); err != nil {
			return nil, err
		} else if ok {
			if cmd.Name == nil {
				cmd.Prefix = append(cmd.Prefix, r)
			} else {
				cmd.Suffix = append(cmd.Suffix, r)
			}
			continue
		}
		if tok.Kind != token.WORD {
			break
		}
		if cmd.Name == nil {
			w, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			cmd.Name = w
			continue
		}
		w, err := p.parseWord()
		if err != nil {
			return nil, err
		}
		cmd.Suffix = append(cmd.Suffix, w)
	}

	if cmd.Name == nil && len(cmd.Prefix) == 0 {
		return nil, errNear(p.peek(), "expected a command")
	}
	return cmd, nil
}

func (p *Parser) parseAssignmentFromMatch(tok token.Token, m []string) (*ast.Assignment, error) {
	p.next()
	name, idxText, op, valText := m[1], m[2], m[3], m[4]
	assign := &ast.Assignment{Name: name, Append: op == "+=", Pos: tok.Start}
	if idxText != "" {
		assign.Index = &ast.Word{Text: strings.Trim(idxText, "[]"), Pos: tok.Start}
	}
	if valText == "" && isOp(p.peek(), token.LPAREN) {
		p.next()
		for !isOp(p.peek(), token.RPAREN) {
			if p.peek().Kind == token.EOF {
				return nil, errNear(p.peek(), "unterminated array literal")
			}
			w, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			assign.ArrayValues = append(assign.ArrayValues, w)
		}
		p.next()
		return assign, nil
	}
	assign.Value = &ast.Word{Text: valText, Pos: tok.Start}
	return assign, nil
}

// --- redirections -------------------------------------------------------

func (p *Parser) parseRedirections() ([]*ast.Redirection, error) {
	var redirs []*ast.Redirection
	for {
		r, ok, err := p.tryParseRedirection()
		if err != nil {
			return nil, err
		}
		if !ok {
			return redirs, nil
		}
		redirs = append(redirs, r)
	}
}

var redirOpKind = map[token.Operator]ast.RedirKind{
	token.LESS: ast.RedirLess, token.GREAT: ast.RedirGreat, token.DGREAT: ast.RedirAppend,
	token.LESS_GREAT: ast.RedirReadWrite, token.GREAT_PIPE: ast.RedirClobber,
	token.LESS_AND: ast.RedirDupIn, token.GREAT_AND: ast.RedirDupOut,
}

// tryParseRedirection parses one optional [fd] redirection-operator target
// clause, or a here-document/here-string, returning ok=false if the current
// position isn't a redirection at all (spec.md §3 "Redirection").
func (p *Parser) tryParseRedirection() (*ast.Redirection, bool, error) {
	tok := p.peek()
	var fd *int

	if tok.Kind == token.WORD && isAllDigits(tok.Text) {
		next := p.peekN(1)
		if isRedirOperator(next) && !next.SpaceBefore {
			n, _ := strconv.Atoi(tok.Text)
			fd = &n
			p.next()
			tok = p.peek()
		}
	}

	if tok.Kind != token.OPERATOR {
		return nil, false, nil
	}

	pos := tok.Start
	switch tok.Op {
	case token.DLESS, token.DLESS_DASH:
		p.next()
		tagTok := p.peek()
		if tagTok.Kind != token.WORD {
			return nil, false, errNear(tagTok, "expected here-document tag")
		}
		p.next()
		// The lexer queues a body only once it reaches the end of the tag's
		// line, so buffer tokens up to that newline first.
		for i := 0; ; i++ {
			if t := p.peekN(i); isOp(t, token.NEWLINE) || t.Kind == token.EOF || t.Kind == token.ILLEGAL {
				break
			}
		}
		body, ok := p.lex.PopHereDocBody()
		if !ok {
			return nil, false, errNear(tagTok, "here-document body not available")
		}
		spec := &ast.HereDocSpec{StripTabs: tok.Op == token.DLESS_DASH, Tag: body.Tag, Quoted: body.Quoted, Body: body.Body}
		return &ast.Redirection{FD: fd, Kind: ast.RedirHereDoc, HereDoc: spec, Pos: pos}, true, nil
	}

	kind, isFileRedir := redirOpKind[tok.Op]
	if !isFileRedir {
		return nil, false, nil
	}
	p.next()
	target, err := p.parseWord()
	if err != nil {
		return nil, false, err
	}
	return &ast.Redirection{FD: fd, Kind: kind, Target: target, Pos: pos}, true, nil
}

func isRedirOperator(tok token.Token) bool {
	if tok.Kind != token.OPERATOR {
		return false
	}
	switch tok.Op {
	case token.LESS, token.GREAT, token.DGREAT, token.LESS_GREAT, token.GREAT_PIPE,
		token.LESS_AND, token.GREAT_AND, token.DLESS, token.DLESS_DASH:
		return true
	}
	return false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// --- word ------------------------------------------------------------------

func (p *Parser) parseWord() (*ast.Word, error) {
	tok := p.peek()
	if tok.Kind != token.WORD {
		return nil, errNear(tok, "expected a word")
	}
	p.next()
	invariant.Invariant(tok.Text != "" || tok.Quoted, "an unquoted empty word should not be produced by the lexer")
	return &ast.Word{Text: tok.Text, Pos: tok.Start}, nil
}

var reservedWords = map[string]bool{
	"if": true, "then": true, "elif": true, "else": true, "fi": true,
	"while": true, "until": true, "do": true, "done": true, "for": true,
	"in": true, "case": true, "esac": true, "function": true,
	"{": true, "}": true, "[[": true, "]]": true, "!": true,
}

func isReservedWord(s string) bool { return reservedWords[s] }

// ReservedWords lists every shell reserved word, for the completion
// engine's "keyword" action (spec.md §4.8).
func ReservedWords() []string {
	out := make([]string, 0, len(reservedWords))
	for w := range reservedWords {
		out = append(out, w)
	}
	return out
}
