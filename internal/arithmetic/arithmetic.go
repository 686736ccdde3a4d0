// Package arithmetic evaluates POSIX shell arithmetic expressions: the
// body of `$((...))`, `((...))`, arithmetic-for headers, and the
// offset/length operands of `${x:offset:length}` (spec.md §3/§4.5/§4.7).
//
// Grounded on internal/parser's extended-test precedence-climbing parser
// (parseExtTestOr/And/Unit): the same recursive-descent-with-precedence-
// levels shape, generalized from boolean `[[ ]]` operators to the
// standard C-like arithmetic/relational/logical/bitwise/assignment
// operator table original_source/shell/src/arithmetic.rs's `Evaluatable`
// trait evaluates over.
package arithmetic

import (
	"strconv"
	"strings"

	"github.com/coreshell/gosh/internal/shellerr"
)

// Vars is the minimal variable surface arithmetic evaluation needs:
// reading a named variable's current value as an integer (0 if unset or
// non-numeric) and writing one back for assignment operators and `++`/`--`.
type Vars interface {
	GetInt(name string) int64
	SetInt(name string, value int64)
}

// Eval parses and evaluates expr, reading/writing variables through vars.
func Eval(expr string, vars Vars) (int64, error) {
	p := &parser{src: []rune(expr), vars: vars}
	p.skipSpace()
	if p.eof() {
		return 0, nil
	}
	v, err := p.parseComma()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if !p.eof() {
		return 0, shellerr.Newf(shellerr.KindSyntax, "arithmetic: unexpected trailing input %q", string(p.src[p.pos:]))
	}
	return v, nil
}

// Truthy reports whether an evaluated result counts as true (nonzero),
// per spec.md §4.7 "exit code 0 iff result is truthy (nonzero for
// arithmetic)".
func Truthy(v int64) bool { return v != 0 }

type parser struct {
	src  []rune
	pos  int
	vars Vars
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(string(p.src[p.pos:]), tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) peekTok(tok string) bool {
	p.skipSpace()
	return strings.HasPrefix(string(p.src[p.pos:]), tok)
}

// Precedence, lowest to highest: comma, assignment (right-assoc), ternary,
// logical-or, logical-and, bitwise-or, bitwise-xor, bitwise-and, equality,
// relational, shift, additive, multiplicative, unary, postfix/primary.

func (p *parser) parseComma() (int64, error) {
	v, err := p.parseAssign()
	if err != nil {
		return 0, err
	}
	for p.consume(",") {
		v, err = p.parseAssign()
		if err != nil {
			return 0, err
		}
	}
	return v, nil
}

var assignOps = []string{"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=", "="}

func (p *parser) parseAssign() (int64, error) {
	start := p.pos
	name := p.tryParseIdentifier()
	if name != "" {
		for _, op := range assignOps {
			if op == "==" {
				continue
			}
			if p.peekTok(op) && !p.peekTok("==") {
				p.consume(op)
				rhs, err := p.parseAssign()
				if err != nil {
					return 0, err
				}
				cur := p.vars.GetInt(name)
				var result int64
				switch op {
				case "=":
					result = rhs
				case "+=":
					result = cur + rhs
				case "-=":
					result = cur - rhs
				case "*=":
					result = cur * rhs
				case "/=":
					result, err = divOrErr(cur, rhs)
					if err != nil {
						return 0, err
					}
				case "%=":
					result, err = modOrErr(cur, rhs)
					if err != nil {
						return 0, err
					}
				case "&=":
					result = cur & rhs
				case "|=":
					result = cur | rhs
				case "^=":
					result = cur ^ rhs
				case "<<=":
					result = cur << uint64(rhs)
				case ">>=":
					result = cur >> uint64(rhs)
				}
				p.vars.SetInt(name, result)
				return result, nil
			}
		}
	}
	p.pos = start
	return p.parseTernary()
}

func (p *parser) parseTernary() (int64, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return 0, err
	}
	if p.consume("?") {
		whenTrue, err := p.parseAssign()
		if err != nil {
			return 0, err
		}
		if !p.consume(":") {
			return 0, shellerr.Newf(shellerr.KindSyntax, "arithmetic: expected ':' in ternary")
		}
		whenFalse, err := p.parseAssign()
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return whenTrue, nil
		}
		return whenFalse, nil
	}
	return cond, nil
}

func (p *parser) parseLogicalOr() (int64, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return 0, err
	}
	for p.peekTok("||") {
		p.consume("||")
		right, err := p.parseLogicalAnd()
		if err != nil {
			return 0, err
		}
		left = boolInt(left != 0 || right != 0)
	}
	return left, nil
}

func (p *parser) parseLogicalAnd() (int64, error) {
	left, err := p.parseBitwiseOr()
	if err != nil {
		return 0, err
	}
	for p.peekTok("&&") {
		p.consume("&&")
		right, err := p.parseBitwiseOr()
		if err != nil {
			return 0, err
		}
		left = boolInt(left != 0 && right != 0)
	}
	return left, nil
}

func (p *parser) parseBitwiseOr() (int64, error) {
	left, err := p.parseBitwiseXor()
	if err != nil {
		return 0, err
	}
	for p.peekTok("|") && !p.peekTok("||") {
		p.consume("|")
		right, err := p.parseBitwiseXor()
		if err != nil {
			return 0, err
		}
		left |= right
	}
	return left, nil
}

func (p *parser) parseBitwiseXor() (int64, error) {
	left, err := p.parseBitwiseAnd()
	if err != nil {
		return 0, err
	}
	for p.peekTok("^") {
		p.consume("^")
		right, err := p.parseBitwiseAnd()
		if err != nil {
			return 0, err
		}
		left ^= right
	}
	return left, nil
}

func (p *parser) parseBitwiseAnd() (int64, error) {
	left, err := p.parseEquality()
	if err != nil {
		return 0, err
	}
	for p.peekTok("&") && !p.peekTok("&&") {
		p.consume("&")
		right, err := p.parseEquality()
		if err != nil {
			return 0, err
		}
		left &= right
	}
	return left, nil
}

func (p *parser) parseEquality() (int64, error) {
	left, err := p.parseRelational()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.peekTok("=="):
			p.consume("==")
			right, err := p.parseRelational()
			if err != nil {
				return 0, err
			}
			left = boolInt(left == right)
		case p.peekTok("!="):
			p.consume("!=")
			right, err := p.parseRelational()
			if err != nil {
				return 0, err
			}
			left = boolInt(left != right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseRelational() (int64, error) {
	left, err := p.parseShift()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.peekTok("<="):
			p.consume("<=")
			right, err := p.parseShift()
			if err != nil {
				return 0, err
			}
			left = boolInt(left <= right)
		case p.peekTok(">="):
			p.consume(">=")
			right, err := p.parseShift()
			if err != nil {
				return 0, err
			}
			left = boolInt(left >= right)
		case p.peekTok("<") && !p.peekTok("<<"):
			p.consume("<")
			right, err := p.parseShift()
			if err != nil {
				return 0, err
			}
			left = boolInt(left < right)
		case p.peekTok(">") && !p.peekTok(">>"):
			p.consume(">")
			right, err := p.parseShift()
			if err != nil {
				return 0, err
			}
			left = boolInt(left > right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseShift() (int64, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.peekTok("<<"):
			p.consume("<<")
			right, err := p.parseAdditive()
			if err != nil {
				return 0, err
			}
			left <<= uint64(right)
		case p.peekTok(">>"):
			p.consume(">>")
			right, err := p.parseAdditive()
			if err != nil {
				return 0, err
			}
			left >>= uint64(right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseAdditive() (int64, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.peekTok("+") && !p.peekTok("++"):
			p.consume("+")
			right, err := p.parseMultiplicative()
			if err != nil {
				return 0, err
			}
			left += right
		case p.peekTok("-") && !p.peekTok("--"):
			p.consume("-")
			right, err := p.parseMultiplicative()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *parser) parseMultiplicative() (int64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.peekTok("**"):
			p.consume("**")
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left = ipow(left, right)
		case p.peekTok("*"):
			p.consume("*")
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.peekTok("/"):
			p.consume("/")
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left, err = divOrErr(left, right)
			if err != nil {
				return 0, err
			}
		case p.peekTok("%"):
			p.consume("%")
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left, err = modOrErr(left, right)
			if err != nil {
				return 0, err
			}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (int64, error) {
	p.skipSpace()
	switch {
	case p.consume("++"):
		name := p.tryParseIdentifier()
		if name == "" {
			return 0, shellerr.Newf(shellerr.KindSyntax, "arithmetic: '++' requires a variable")
		}
		v := p.vars.GetInt(name) + 1
		p.vars.SetInt(name, v)
		return v, nil
	case p.consume("--"):
		name := p.tryParseIdentifier()
		if name == "" {
			return 0, shellerr.Newf(shellerr.KindSyntax, "arithmetic: '--' requires a variable")
		}
		v := p.vars.GetInt(name) - 1
		p.vars.SetInt(name, v)
		return v, nil
	case p.consume("!"):
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return boolInt(v == 0), nil
	case p.consume("~"):
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return ^v, nil
	case p.consume("-"):
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	case p.consume("+"):
		return p.parseUnary()
	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePostfix() (int64, error) {
	v, name, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if name != "" {
		switch {
		case p.consume("++"):
			p.vars.SetInt(name, v+1)
			return v, nil
		case p.consume("--"):
			p.vars.SetInt(name, v-1)
			return v, nil
		}
	}
	return v, nil
}

// parsePrimary returns the value and, when the primary was a bare
// identifier (so postfix ++/-- can apply), that identifier's name.
func (p *parser) parsePrimary() (int64, string, error) {
	p.skipSpace()
	if p.eof() {
		return 0, "", shellerr.Newf(shellerr.KindSyntax, "arithmetic: unexpected end of expression")
	}
	if p.consume("(") {
		v, err := p.parseComma()
		if err != nil {
			return 0, "", err
		}
		if !p.consume(")") {
			return 0, "", shellerr.Newf(shellerr.KindSyntax, "arithmetic: expected ')'")
		}
		return v, "", nil
	}
	if isDigit(p.peek()) {
		n, err := p.parseNumber()
		return n, "", err
	}
	name := p.tryParseIdentifier()
	if name != "" {
		return p.vars.GetInt(name), name, nil
	}
	return 0, "", shellerr.Newf(shellerr.KindSyntax, "arithmetic: unexpected character %q", string(p.peek()))
}

func (p *parser) parseNumber() (int64, error) {
	start := p.pos
	if strings.HasPrefix(string(p.src[p.pos:]), "0x") || strings.HasPrefix(string(p.src[p.pos:]), "0X") {
		p.pos += 2
		for !p.eof() && isHexDigit(p.peek()) {
			p.pos++
		}
		return strconv.ParseInt(string(p.src[start:p.pos]), 0, 64)
	}
	for !p.eof() && isDigit(p.peek()) {
		p.pos++
	}
	// base#digits notation, e.g. 8#17.
	if !p.eof() && p.peek() == '#' {
		base, err := strconv.Atoi(string(p.src[start:p.pos]))
		if err == nil && base >= 2 && base <= 36 {
			p.pos++
			digitsStart := p.pos
			for !p.eof() && isBaseDigit(p.peek(), base) {
				p.pos++
			}
			n, err := strconv.ParseInt(string(p.src[digitsStart:p.pos]), base, 64)
			if err != nil {
				return 0, shellerr.Wrap(shellerr.KindSyntax, "arithmetic: invalid base-N literal", err)
			}
			return n, nil
		}
	}
	n, err := strconv.ParseInt(string(p.src[start:p.pos]), 10, 64)
	if err != nil {
		return 0, shellerr.Wrap(shellerr.KindSyntax, "arithmetic: invalid integer literal", err)
	}
	return n, nil
}

func (p *parser) tryParseIdentifier() string {
	p.skipSpace()
	start := p.pos
	if p.eof() || !isIdentStart(p.peek()) {
		return ""
	}
	for !p.eof() && isIdentPart(p.peek()) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func isDigit(c rune) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c rune) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isBaseDigit(c rune, base int) bool {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case c >= 'a' && c <= 'z':
		v = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		v = int(c-'A') + 10
	default:
		return false
	}
	return v < base
}
func isIdentStart(c rune) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c rune) bool  { return isIdentStart(c) || isDigit(c) }

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func ipow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	var result int64 = 1
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

func divOrErr(a, b int64) (int64, error) {
	if b == 0 {
		return 0, shellerr.New(shellerr.KindDivisionByZero, "arithmetic: division by zero")
	}
	return a / b, nil
}

func modOrErr(a, b int64) (int64, error) {
	if b == 0 {
		return 0, shellerr.New(shellerr.KindDivisionByZero, "arithmetic: division by zero")
	}
	return a % b, nil
}
